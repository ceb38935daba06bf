package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"tlangau-server/internal/config"
	"tlangau-server/internal/domain/ports/adapter"
	"tlangau-server/internal/infra/cache"
)

var _ adapter.TokenVerifier = (*GoogleVerifier)(nil)

// GoogleVerifier resolves OAuth bearer tokens to emails via the userinfo
// endpoint. Verdicts are cached by token hash so a client polling with the
// same token does not hammer the provider.
type GoogleVerifier struct {
	userinfoURL string
	http        *http.Client
	cache       *cache.TTL[string]
	log         zerolog.Logger
}

func NewGoogleVerifier(cfg *config.IdentityConfig, logger zerolog.Logger) *GoogleVerifier {
	return &GoogleVerifier{
		userinfoURL: cfg.UserinfoURL,
		http:        &http.Client{Timeout: cfg.Timeout},
		cache:       cache.NewTTL[string]("identity", cfg.CacheTTL, nil),
		log:         logger.With().Str("component", "identity").Logger(),
	}
}

type userinfoResponse struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func (v *GoogleVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	key := tokenKey(token)
	if email, ok := v.cache.Get(key); ok {
		return email, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token rejected (%d)", resp.StatusCode)
	}

	var info userinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" {
		return "", fmt.Errorf("userinfo response missing email")
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))
	v.cache.Set(key, email)
	return email, nil
}

// tokenKey hashes the token so raw bearer tokens never sit in memory as
// cache keys.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
