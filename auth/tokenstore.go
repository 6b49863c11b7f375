package auth

import "context"

type (
	// TokenStore maps opaque session tokens to the email of the identity
	// that logged in. Implementations are process-lifetime only: a restart
	// invalidates every session, which is a documented property of the
	// service, not a defect.
	TokenStore interface {
		Save(ctx context.Context, token, email string) error
		// Resolve is a pure lookup with no side effects.
		Resolve(ctx context.Context, token string) (email string, found bool, err error)
		// Revoke is idempotent, revoking an unknown token is a no-op.
		Revoke(ctx context.Context, token string) error
	}
)
