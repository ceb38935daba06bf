package model

import "time"

// OrderStatus is the lifecycle state of a purchase attempt.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusSuccess OrderStatus = "SUCCESS"
	OrderStatusFailed  OrderStatus = "FAILED"
	OrderStatusExpired OrderStatus = "EXPIRED"
)

// CanTransitionTo reports whether moving from s to next is a legal forward
// transition. PENDING may move to any terminal state; terminal states only
// admit the idempotent self-transition.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusSuccess || next == OrderStatusFailed || next == OrderStatusExpired
	default:
		return false
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusSuccess || s == OrderStatusFailed || s == OrderStatusExpired
}

// Order records one purchase attempt for a set of services.
// Amount is in minor currency units (paise) and is always server-computed.
type Order struct {
	OrderID          string      `json:"order_id"`
	Email            string      `json:"email"`
	Amount           int64       `json:"amount"`
	Status           OrderStatus `json:"status"`
	Services         []string    `json:"services,omitempty"`
	PaymentRequestID string      `json:"payment_request_id,omitempty"`
	PaymentID        string      `json:"payment_id,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// EffectiveServices returns the order's service set, falling back to the full
// catalog for orders written before services were tracked.
func (o *Order) EffectiveServices() []string {
	if len(o.Services) == 0 {
		return ValidServiceIDs()
	}
	return o.Services
}
