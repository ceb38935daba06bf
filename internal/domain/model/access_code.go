package model

import "time"

// CodeValidity is how long a freshly minted access code stays redeemable.
const CodeValidity = 30 * 24 * time.Hour

// AccessCode is a single-use credential minted after a successful payment.
// The code string itself is the identity.
type AccessCode struct {
	Code          string     `json:"code"`
	OrderID       string     `json:"order_id"`
	PaymentID     string     `json:"payment_id,omitempty"`
	Email         string     `json:"email"`
	Services      []string   `json:"services,omitempty"`
	Used          bool       `json:"used"`
	UsedByEmail   string     `json:"used_by_email,omitempty"`
	UsedByAccount string     `json:"used_by_account,omitempty"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
}

// Expired reports whether the code is past its validity window at now.
func (c *AccessCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// EffectiveServices returns the code's service set, falling back to the full
// catalog for codes minted before services were tracked.
func (c *AccessCode) EffectiveServices() []string {
	if len(c.Services) == 0 {
		return ValidServiceIDs()
	}
	return c.Services
}

// Entitlement is the derived authorization produced by redeeming a code:
// the purchased services plus the always-free set, valid until ExpiresAt.
type Entitlement struct {
	Email     string    `json:"email"`
	Services  []string  `json:"services"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Allows reports whether the entitlement covers the given service id.
func (e *Entitlement) Allows(serviceID string) bool {
	for _, id := range e.Services {
		if id == serviceID {
			return true
		}
	}
	return false
}
