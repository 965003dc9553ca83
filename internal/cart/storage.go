package cart

import (
	"context"
	"errors"
)

// ErrNotFound signals that no record exists for the given key.
var ErrNotFound = errors.New("cart record not found")

// Storage is the durable persistence port for cart records. Each key holds a
// single record of line items; aggregates are never stored, they are
// recomputed on load. When several gateway instances share one backend the
// last write wins; no merge is attempted.
type Storage interface {
	Load(ctx context.Context, key string) ([]LineItem, error)
	Save(ctx context.Context, key string, items []LineItem) error
}

// persistedRecord is the storage layout: the items only.
type persistedRecord struct {
	Cart []LineItem `json:"cart"`
}
