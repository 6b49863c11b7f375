package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/andrebq/mailroom/credstore"
)

type (
	// IdentityStore is the lookup contract the auth programs need. The
	// append-only log satisfies it today, an indexed store can replace it
	// without touching any caller.
	IdentityStore interface {
		FindByEmail(ctx context.Context, email string) (*credstore.Identity, error)
		Append(ctx context.Context, id credstore.Identity) error
	}
)

const (
	tokenSize = 32
)

// ErrInvalidCredentials covers both an unknown email and a wrong password,
// the caller must not be able to tell which one happened.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Register creates a new identity in the store. The plaintext password is
// zeroed before Register returns, regardless of the outcome.
func Register(ctx context.Context, store IdentityStore, email string, passwd PlainText, entropy io.Reader) error {
	defer passwd.Zero()
	if len(email) == 0 || len(passwd) == 0 {
		return MissingCredentials{}
	}
	salt, digest, err := HashPassword(passwd, entropy)
	if err != nil {
		return err
	}
	return store.Append(ctx, credstore.Identity{
		Email:        email,
		Salt:         salt,
		PasswordHash: digest,
		Algorithm:    Algorithm,
		CreatedAt:    time.Now().UTC(),
	})
}

// Login verifies the credentials against the store and, on success, mints a
// fresh session token. Every successful login produces an independent
// session, earlier tokens for the same identity stay valid.
func Login(ctx context.Context, tokens TokenStore, store IdentityStore, email string, passwd PlainText, entropy io.Reader) (token string, err error) {
	defer passwd.Zero()
	id, err := store.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if id == nil || !VerifyPassword(passwd, id.Salt, id.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return IssueToken(ctx, tokens, id.Email, entropy)
}

// IssueToken mints a random session token bound to email. The token is the
// only capability referencing the session, treat it like a password.
func IssueToken(ctx context.Context, tokens TokenStore, email string, entropy io.Reader) (string, error) {
	raw := make([]byte, tokenSize)
	_, err := io.ReadFull(entropy, raw)
	if err != nil {
		return "", fmt.Errorf("unable to read token from entropy source, cause %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	err = tokens.Save(ctx, token, email)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Logout revokes the given token. Unknown tokens succeed, logging out twice
// is not an error.
func Logout(ctx context.Context, tokens TokenStore, token string) error {
	if token == "" {
		return nil
	}
	return tokens.Revoke(ctx, token)
}
