package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

type (
	PlainText []byte
)

const (
	// Algorithm tags every stored identity so digests remain verifiable if
	// the parameters below ever change.
	Algorithm = "argon2id"

	saltSize   = 16
	digestSize = 32

	// 7 passes over 10 MB should be a good replacement
	// for 1 pass over 64 MB of ram. The parameters are fixed constants:
	// digests written on one machine must verify on any other.
	argonTime    = 7
	argonMemory  = 10 * 1024
	argonThreads = 2
)

func (p PlainText) Zero() {
	for i := range p {
		p[i] = 0
	}
}

// HashPassword derives a storable digest from passwd using a fresh random
// salt drawn from entropy. It fails only when entropy is exhausted, which
// callers should treat as fatal.
func HashPassword(passwd PlainText, entropy io.Reader) (salt string, digest string, err error) {
	raw := make([]byte, saltSize)
	_, err = io.ReadFull(entropy, raw)
	if err != nil {
		return "", "", fmt.Errorf("unable to read salt from entropy source, cause %w", err)
	}
	key := argon2.IDKey(passwd, raw, argonTime, argonMemory, argonThreads, digestSize)
	return base64.RawStdEncoding.EncodeToString(raw),
		base64.RawStdEncoding.EncodeToString(key),
		nil
}

// VerifyPassword recomputes the digest of passwd under the stored salt and
// compares it to the stored digest in constant time. Malformed inputs (empty
// password, corrupt salt or digest) report a mismatch rather than an error.
func VerifyPassword(passwd PlainText, salt, digest string) bool {
	if len(passwd) == 0 {
		return false
	}
	rawSalt, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil || len(rawSalt) == 0 {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(digest)
	if err != nil || len(want) != digestSize {
		return false
	}
	got := argon2.IDKey(passwd, rawSalt, argonTime, argonMemory, argonThreads, digestSize)
	return subtle.ConstantTimeCompare(got, want) == 1
}
