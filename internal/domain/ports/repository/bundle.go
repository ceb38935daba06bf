package repository

import (
	"context"

	"tlangau-server/internal/domain/model"
)

// BundleRepository manages the bundles/topics tree used by the notification
// system's admin surface.
type BundleRepository interface {
	ListAll(ctx context.Context) ([]*model.Bundle, error)
	Delete(ctx context.Context, bundleID string) error
	DeleteTopic(ctx context.Context, bundleID, topicID string) error
}
