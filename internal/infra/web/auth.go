package web

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Admin session primitives =====

type AuthConfig struct {
	HMACSecret   []byte
	PasswordHash [sha256.Size]byte
	CookieName   string
	SecureCookie bool
	TTL          time.Duration
}

type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(password, secret string, secure bool, ttl time.Duration) *AuthManager {
	return &AuthManager{cfg: AuthConfig{
		HMACSecret:   []byte(secret),
		PasswordHash: sha256.Sum256([]byte(password)),
		CookieName:   "admin_session",
		SecureCookie: secure, // true in prod (TLS)
		TTL:          ttl,
	}}
}

// CheckPassword compares the provided password against the configured one in
// constant time.
func (a *AuthManager) CheckPassword(provided string) bool {
	h := sha256.Sum256([]byte(provided))
	return subtle.ConstantTimeCompare(h[:], a.cfg.PasswordHash[:]) == 1
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Mint issues a fresh admin session token and sets it as an HttpOnly cookie.
func (a *AuthManager) Mint(w http.ResponseWriter) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
			Subject:   "admin",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.cfg.HMACSecret)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(a.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	return signed, nil
}

func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// SessionFromRequest extracts and validates an admin session from either the
// cookie or an Authorization bearer header.
func (a *AuthManager) SessionFromRequest(r *http.Request) (*AdminClaims, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, errors.New("missing session token")
}

func (a *AuthManager) parse(tok string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// requireAdmin admits a request carrying either a valid admin session or the
// admin password itself (X-Admin-Password header or ?password= query).
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.SessionFromRequest(r); err == nil {
			next.ServeHTTP(w, r)
			return
		}

		provided := r.Header.Get("X-Admin-Password")
		if provided == "" {
			provided = r.URL.Query().Get("password")
		}
		if provided == "" {
			provided = passwordFromBody(r)
		}
		if provided == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false, "error": "Unauthorized", "message": "Admin password required",
			})
			return
		}
		if !s.auth.CheckPassword(provided) {
			s.log.Warn().Str("remote", r.RemoteAddr).Msg("failed admin auth")
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false, "error": "Unauthorized", "message": "Invalid admin password",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// passwordFromBody peeks at a JSON body for a password field and restores the
// body so the handler can decode it again.
func passwordFromBody(r *http.Request) string {
	if r.Body == nil || !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	var probe struct {
		Password string `json:"password"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return ""
	}
	return probe.Password
}
