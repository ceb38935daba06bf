package repository

import (
	"context"
	"time"

	"tlangau-server/internal/domain/model"
)

// OrderRepository is the typed read/write contract for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	// Update merge-patches the named fields and bumps updated_at.
	// Status changes are validated against the order state machine.
	Update(ctx context.Context, orderID string, patch OrderPatch) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindByPaymentRequestID(ctx context.Context, paymentRequestID string) (*model.Order, error)
	// FindLatestByEmail returns the most recent order for the email.
	FindLatestByEmail(ctx context.Context, email string) (*model.Order, error)
	ListAll(ctx context.Context) ([]*model.Order, error)
	// ListPendingOlderThan returns PENDING orders created before cutoff.
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*model.Order, error)
	Delete(ctx context.Context, orderID string) error
	// DeleteByEmail removes every order for the email, returning the count.
	DeleteByEmail(ctx context.Context, email string) (int, error)
}

// OrderPatch names the mutable order fields. Nil fields are left untouched.
type OrderPatch struct {
	Status           *model.OrderStatus
	PaymentRequestID *string
	PaymentID        *string
}
