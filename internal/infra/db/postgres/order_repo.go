package postgres

import (
	"context"
	"fmt"
	"time"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/model"
	"tlangau-server/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct {
	store repository.DocumentStore
}

func NewOrderRepo(store repository.DocumentStore) repository.OrderRepository {
	return &orderRepo{store: store}
}

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	doc, err := encodeDoc(o)
	if err != nil {
		return err
	}
	return r.store.PutIfAbsent(ctx, repository.CollectionOrders, o.OrderID, doc)
}

// Update merge-patches the named fields. A status change is validated
// against the current state; illegal transitions are rejected.
func (r *orderRepo) Update(ctx context.Context, orderID string, patch repository.OrderPatch) error {
	partial := repository.Document{
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if patch.Status != nil {
		current, err := r.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(*patch.Status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, *patch.Status)
		}
		partial["status"] = string(*patch.Status)
	}
	if patch.PaymentRequestID != nil {
		partial["payment_request_id"] = *patch.PaymentRequestID
	}
	if patch.PaymentID != nil {
		partial["payment_id"] = *patch.PaymentID
	}
	return r.store.Patch(ctx, repository.CollectionOrders, orderID, partial)
}

func (r *orderRepo) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	doc, err := r.store.Get(ctx, repository.CollectionOrders, orderID)
	if err != nil {
		return nil, err
	}
	var o model.Order
	if err := decodeDoc(doc, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByPaymentRequestID(ctx context.Context, paymentRequestID string) (*model.Order, error) {
	doc, err := r.store.FindOneBy(ctx, repository.CollectionOrders, "payment_request_id", paymentRequestID)
	if err != nil {
		return nil, err
	}
	var o model.Order
	if err := decodeDoc(doc, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindLatestByEmail(ctx context.Context, email string) (*model.Order, error) {
	doc, err := r.store.FindOneBy(ctx, repository.CollectionOrders, "email", email)
	if err != nil {
		return nil, err
	}
	var o model.Order
	if err := decodeDoc(doc, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListAll(ctx context.Context) ([]*model.Order, error) {
	docs, err := r.store.List(ctx, repository.CollectionOrders)
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs)
}

func (r *orderRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*model.Order, error) {
	docs, err := r.store.FindAllBy(ctx, repository.CollectionOrders, "status", string(model.OrderStatusPending))
	if err != nil {
		return nil, err
	}
	orders, err := decodeOrders(docs)
	if err != nil {
		return nil, err
	}
	stale := orders[:0]
	for _, o := range orders {
		if o.CreatedAt.Before(cutoff) {
			stale = append(stale, o)
		}
	}
	return stale, nil
}

func (r *orderRepo) Delete(ctx context.Context, orderID string) error {
	return r.store.Delete(ctx, repository.CollectionOrders, orderID)
}

func (r *orderRepo) DeleteByEmail(ctx context.Context, email string) (int, error) {
	docs, err := r.store.FindAllBy(ctx, repository.CollectionOrders, "email", email)
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(docs))
	for _, d := range docs {
		if id, _ := d["order_id"].(string); id != "" {
			keys = append(keys, id)
		}
	}
	return r.store.BulkDelete(ctx, repository.CollectionOrders, keys)
}

func decodeOrders(docs []repository.Document) ([]*model.Order, error) {
	out := make([]*model.Order, 0, len(docs))
	for _, d := range docs {
		var o model.Order
		if err := decodeDoc(d, &o); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, nil
}
