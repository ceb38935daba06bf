package adapter

import "context"

// TokenVerifier resolves a bearer identity token to the holder's email via
// the external identity provider. Implementations bound their wait and may
// cache verdicts for a short TTL.
type TokenVerifier interface {
	// VerifyToken returns the normalized email for a valid token, or an
	// error for a missing/invalid/expired one.
	VerifyToken(ctx context.Context, token string) (string, error)
}
