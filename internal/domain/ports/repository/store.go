package repository

import "context"

// Collection names used by the document store.
const (
	CollectionOrders      = "orders"
	CollectionAccessCodes = "access_codes"
	CollectionPolls       = "polls"
	CollectionBundles     = "bundles"
)

// Document is a decoded JSON document as stored.
type Document map[string]interface{}

// DocumentStore is the persistence contract the core requires: keyed JSON
// documents with equality lookups on indexed fields and a handful of atomic
// primitives. Implementations must normalize legacy field spellings on the
// read path (e.g. orderId -> order_id) without removing the legacy field.
type DocumentStore interface {
	// Put fully overwrites the document at (collection, key).
	Put(ctx context.Context, collection, key string, doc Document) error
	// PutIfAbsent creates the document only when the key does not exist.
	// Returns domain.ErrAlreadyExists when it does. This is the conditional
	// write used to guarantee at-most-once creation under concurrent callers.
	PutIfAbsent(ctx context.Context, collection, key string, doc Document) error
	// Patch merge-updates the named fields; fields not named are kept.
	Patch(ctx context.Context, collection, key string, partial Document) error
	Get(ctx context.Context, collection, key string) (Document, error)
	// FindOneBy returns the newest document whose field equals value.
	FindOneBy(ctx context.Context, collection, field, value string) (Document, error)
	// FindAllBy returns all documents whose field equals value, newest first.
	FindAllBy(ctx context.Context, collection, field, value string) ([]Document, error)
	// List returns every document in the collection, newest first.
	List(ctx context.Context, collection string) ([]Document, error)
	Delete(ctx context.Context, collection, key string) error
	// BulkDelete removes the given keys in a single atomic statement.
	BulkDelete(ctx context.Context, collection string, keys []string) (int, error)
	// Increment atomically adds delta to a numeric field inside the document,
	// treating an absent field as zero. Safe under concurrent callers.
	Increment(ctx context.Context, collection, key string, path []string, delta int64) error
	// SetIfAbsentPath writes value at path only when the path is currently
	// unset. Returns domain.ErrAlreadyExists when it is already set, and
	// domain.ErrNotFound when the document itself is missing.
	SetIfAbsentPath(ctx context.Context, collection, key string, path []string, value interface{}) error
}
