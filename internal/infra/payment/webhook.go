package payment

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// WebhookVerifier checks the provider's MAC signature on webhook payloads.
// The MAC is HMAC-SHA1 over the values of every field except "mac", joined
// with "|" in key-sorted order, keyed with the account's private salt.
type WebhookVerifier struct {
	salt string
	dev  bool
	log  zerolog.Logger
}

func NewWebhookVerifier(salt string, dev bool, logger zerolog.Logger) *WebhookVerifier {
	return &WebhookVerifier{
		salt: salt,
		dev:  dev,
		log:  logger.With().Str("component", "webhook-verifier").Logger(),
	}
}

// Verify reports whether the payload's mac field matches. Without a salt
// every payload is rejected in production; in dev mode verification is
// skipped so local testing works without provider credentials.
func (v *WebhookVerifier) Verify(fields map[string]string) bool {
	if v.salt == "" {
		if v.dev {
			v.log.Warn().Msg("private salt not set, skipping MAC verification")
			return true
		}
		v.log.Error().Msg("private salt not set, rejecting webhook")
		return false
	}

	mac, ok := fields["mac"]
	if !ok || mac == "" {
		return false
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "mac" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, fields[k])
	}

	h := hmac.New(sha1.New, []byte(v.salt))
	h.Write([]byte(strings.Join(values, "|")))
	expected := hex.EncodeToString(h.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(strings.ToLower(mac)), []byte(expected)) == 1
}
