package postgres

import (
	"context"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.BundleRepository = (*bundleRepo)(nil)

type bundleRepo struct {
	store repository.DocumentStore
}

func NewBundleRepo(store repository.DocumentStore) repository.BundleRepository {
	return &bundleRepo{store: store}
}

func (r *bundleRepo) ListAll(ctx context.Context) ([]*model.Bundle, error) {
	docs, err := r.store.List(ctx, repository.CollectionBundles)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Bundle, 0, len(docs))
	for _, d := range docs {
		var b model.Bundle
		if err := decodeDoc(d, &b); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, nil
}

func (r *bundleRepo) Delete(ctx context.Context, bundleID string) error {
	return r.store.Delete(ctx, repository.CollectionBundles, bundleID)
}

func (r *bundleRepo) DeleteTopic(ctx context.Context, bundleID, topicID string) error {
	doc, err := r.store.Get(ctx, repository.CollectionBundles, bundleID)
	if err != nil {
		return err
	}
	var b model.Bundle
	if err := decodeDoc(doc, &b); err != nil {
		return err
	}
	if _, ok := b.Topics[topicID]; !ok {
		return domain.ErrNotFound
	}
	delete(b.Topics, topicID)
	updated, err := encodeDoc(&b)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, repository.CollectionBundles, bundleID, updated)
}
