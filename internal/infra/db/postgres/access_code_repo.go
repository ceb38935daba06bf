package postgres

import (
	"context"
	"time"

	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.AccessCodeRepository = (*accessCodeRepo)(nil)

type accessCodeRepo struct {
	store repository.DocumentStore
}

func NewAccessCodeRepo(store repository.DocumentStore) repository.AccessCodeRepository {
	return &accessCodeRepo{store: store}
}

// Create persists a minted code. The conditional insert plus the unique
// index on order_id mean a concurrent second mint for the same order loses
// with domain.ErrAlreadyExists instead of writing a duplicate.
func (r *accessCodeRepo) Create(ctx context.Context, c *model.AccessCode) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	doc, err := encodeDoc(c)
	if err != nil {
		return err
	}
	return r.store.PutIfAbsent(ctx, repository.CollectionAccessCodes, c.Code, doc)
}

func (r *accessCodeRepo) FindByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	doc, err := r.store.Get(ctx, repository.CollectionAccessCodes, code)
	if err != nil {
		return nil, err
	}
	var c model.AccessCode
	if err := decodeDoc(doc, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *accessCodeRepo) FindByOrderID(ctx context.Context, orderID string) (*model.AccessCode, error) {
	doc, err := r.store.FindOneBy(ctx, repository.CollectionAccessCodes, "order_id", orderID)
	if err != nil {
		return nil, err
	}
	var c model.AccessCode
	if err := decodeDoc(doc, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *accessCodeRepo) FindLatestByEmail(ctx context.Context, email string) (*model.AccessCode, error) {
	doc, err := r.store.FindOneBy(ctx, repository.CollectionAccessCodes, "email", email)
	if err != nil {
		return nil, err
	}
	var c model.AccessCode
	if err := decodeDoc(doc, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *accessCodeRepo) MarkUsed(ctx context.Context, code, email, accountID string, at time.Time) error {
	return r.store.Patch(ctx, repository.CollectionAccessCodes, code, repository.Document{
		"used":            true,
		"used_by_email":   email,
		"used_by_account": accountID,
		"used_at":         at.UTC().Format(time.RFC3339),
	})
}

func (r *accessCodeRepo) AccountHasUsedCode(ctx context.Context, accountID string) (bool, error) {
	docs, err := r.store.FindAllBy(ctx, repository.CollectionAccessCodes, "used_by_account", accountID)
	if err != nil {
		return false, err
	}
	for _, d := range docs {
		if used, _ := d["used"].(bool); used {
			return true, nil
		}
	}
	return false, nil
}

func (r *accessCodeRepo) ListAll(ctx context.Context) ([]*model.AccessCode, error) {
	docs, err := r.store.List(ctx, repository.CollectionAccessCodes)
	if err != nil {
		return nil, err
	}
	return decodeCodes(docs)
}

func (r *accessCodeRepo) Delete(ctx context.Context, code string) error {
	return r.store.Delete(ctx, repository.CollectionAccessCodes, code)
}

func (r *accessCodeRepo) DeleteByOrderID(ctx context.Context, orderID string) (int, error) {
	return r.deleteWhere(ctx, "order_id", orderID)
}

func (r *accessCodeRepo) DeleteByEmail(ctx context.Context, email string) (int, error) {
	return r.deleteWhere(ctx, "email", email)
}

func (r *accessCodeRepo) deleteWhere(ctx context.Context, field, value string) (int, error) {
	docs, err := r.store.FindAllBy(ctx, repository.CollectionAccessCodes, field, value)
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(docs))
	for _, d := range docs {
		if code, _ := d["code"].(string); code != "" {
			keys = append(keys, code)
		}
	}
	return r.store.BulkDelete(ctx, repository.CollectionAccessCodes, keys)
}

func decodeCodes(docs []repository.Document) ([]*model.AccessCode, error) {
	out := make([]*model.AccessCode, 0, len(docs))
	for _, d := range docs {
		var c model.AccessCode
		if err := decodeDoc(d, &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, nil
}
