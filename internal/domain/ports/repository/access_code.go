package repository

import (
	"context"
	"time"

	"tlangau-server/internal/domain/model"
)

// AccessCodeRepository is the typed read/write contract for access codes.
type AccessCodeRepository interface {
	// Create persists a freshly minted code. It must refuse to create a
	// second code for the same order (domain.ErrAlreadyExists), even under
	// concurrent callers.
	Create(ctx context.Context, c *model.AccessCode) error
	FindByCode(ctx context.Context, code string) (*model.AccessCode, error)
	FindByOrderID(ctx context.Context, orderID string) (*model.AccessCode, error)
	// FindLatestByEmail returns the most recently minted code for the email.
	FindLatestByEmail(ctx context.Context, email string) (*model.AccessCode, error)
	// MarkUsed flips the code to used and records who redeemed it.
	MarkUsed(ctx context.Context, code, email, accountID string, at time.Time) error
	// AccountHasUsedCode reports whether any used code records this account.
	AccountHasUsedCode(ctx context.Context, accountID string) (bool, error)
	ListAll(ctx context.Context) ([]*model.AccessCode, error)
	Delete(ctx context.Context, code string) error
	// DeleteByOrderID removes all codes tied to the order, returning the count.
	DeleteByOrderID(ctx context.Context, orderID string) (int, error)
	// DeleteByEmail removes all codes for the email, returning the count.
	DeleteByEmail(ctx context.Context, email string) (int, error)
}
