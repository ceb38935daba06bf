package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/infra/logging"
)

type ctxKey int

const ctxCaller ctxKey = iota

// caller is the authenticated identity plus its resolved entitlement.
type caller struct {
	Email    string
	Services []string
}

func (c *caller) allows(serviceID string) bool {
	for _, id := range c.Services {
		if id == serviceID {
			return true
		}
	}
	return false
}

func callerFrom(ctx context.Context) (*caller, bool) {
	c, ok := ctx.Value(ctxCaller).(*caller)
	return c, ok
}

// requireIdentity verifies the Google bearer token, resolves the caller's
// entitlement and stores both in the request context.
func (s *Server) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			fail(w, http.StatusUnauthorized, "Authentication required. Please sign in with Google.")
			return
		}

		email, err := s.identity.VerifyToken(r.Context(), tok)
		if err != nil {
			fail(w, http.StatusUnauthorized, "Authentication required. Please sign in with Google.")
			return
		}

		ent, err := s.entitlements.Resolve(r.Context(), email)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrCodeExpired):
			fail(w, http.StatusForbidden, "Your server access code has expired.")
			return
		case errors.Is(err, domain.ErrCodeNotFound), errors.Is(err, domain.ErrNotFound):
			fail(w, http.StatusForbidden, "Server access not authorized for this account.")
			return
		default:
			s.log.Error().Err(err).Msg("entitlement resolution failed")
			fail(w, http.StatusInternalServerError, "Server error during authorization.")
			return
		}

		ctx := logging.WithEmail(r.Context(), email)
		ctx = context.WithValue(ctx, ctxCaller, &caller{Email: email, Services: ent.Services})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireService gates a route on one purchased service. Runs after
// requireIdentity.
func (s *Server) requireService(serviceID string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := callerFrom(r.Context())
			if !ok || !c.allows(serviceID) {
				writeServiceDenied(w, serviceID)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeServiceDenied(w http.ResponseWriter, serviceID string) {
	writeJSON(w, http.StatusForbidden, map[string]interface{}{
		"success":         false,
		"message":         "You do not have access to the " + model.ServiceName(serviceID) + " service. Please purchase this service to use it.",
		"requiredService": serviceID,
	})
}

func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return ""
	}
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
