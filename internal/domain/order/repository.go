package order

import (
	"context"

	"github.com/coursebill/coursebill/internal/types"
)

// Repository defines the interface for order persistence
type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// Update persists the order using optimistic check-and-set: the stored
	// version must match order.Version or ErrVersionConflict is returned.
	// On success the version is incremented.
	Update(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *types.OrderFilter) ([]*Order, error)
	Count(ctx context.Context, filter *types.OrderFilter) (int, error)

	// NextOrderNumber issues the next value of the strictly increasing order
	// reference sequence. Implementations must serialize concurrent callers
	// the way a row-level lock on the last-issued record inside a transaction
	// does, so no two orders ever share a reference.
	NextOrderNumber(ctx context.Context) (int64, error)
}
