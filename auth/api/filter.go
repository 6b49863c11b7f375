// Package api gates HTTP handlers behind the session token scheme. The core
// predicate (Authenticate) is transport-agnostic over the token it extracts;
// the redirect-on-failure policy is layered here, at the edge, because
// bouncing a browser to the login page is a UX choice, not a property of the
// sessions themselves.
package api

import (
	"context"
	"net/http"
	"regexp"

	"github.com/andrebq/mailroom/auth"
	"github.com/andrebq/mailroom/internal/logutil"
)

type (
	SecurityRealm struct {
		tokens         auth.TokenStore
		loginPath      string
		insecureCookie bool
	}

	ctxKey byte
)

// SessionCookie carries the session token between requests. The token is a
// bearer credential, whoever holds it owns the session.
const SessionCookie = "mailroom_session"

const identityKey = ctxKey(1)

var (
	bearerTokenRE = regexp.MustCompile(`^Bearer ([^\s]+)$`)
)

func NewRealm(tokens auth.TokenStore, loginPath string, allowHTTPCookie bool) *SecurityRealm {
	return &SecurityRealm{
		tokens:         tokens,
		loginPath:      loginPath,
		insecureCookie: allowHTTPCookie,
	}
}

// Protect guards sensitive behind a valid session. Unauthenticated requests
// are redirected to the login entry point before sensitive runs, so a
// protected operation can never leave a side effect for an anonymous caller.
func (s *SecurityRealm) Protect(sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := s.Authenticate(r)
		if !ok {
			http.Redirect(w, r, s.loginPath, http.StatusSeeOther)
			return
		}
		sensitive.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, email)))
	})
}

// Authenticate resolves the request's token to the identity that owns the
// session. It never writes to the response.
func (s *SecurityRealm) Authenticate(r *http.Request) (string, bool) {
	ctx := r.Context()
	tk, ok := s.Token(r)
	if !ok {
		return "", false
	}
	email, found, err := s.tokens.Resolve(ctx, tk)
	if err != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Error().Err(err).Msg("Unexpected error when resolving session token")
		return "", false
	}
	return email, found
}

// Token extracts the session token from the request, preferring the session
// cookie and falling back to a Bearer Authorization header for clients that
// do not keep a cookie jar.
func (s *SecurityRealm) Token(r *http.Request) (string, bool) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	groups := bearerTokenRE.FindStringSubmatch(r.Header.Get("Authorization"))
	if len(groups) == 0 {
		return "", false
	}
	return groups[1], true
}

// GrantCookie hands the freshly minted token to the client.
func (s *SecurityRealm) GrantCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.insecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie from the client. The server-side
// revocation happens in the token store, this only cleans up the transport.
func (s *SecurityRealm) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.insecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// IdentityFromContext returns the email injected by Protect.
func IdentityFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(identityKey).(string)
	return email, ok
}
