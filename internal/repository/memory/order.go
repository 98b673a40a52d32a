package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coursebill/coursebill/internal/domain/order"
	ierr "github.com/coursebill/coursebill/internal/errors"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/samber/lo"
)

// OrderStore is an in-memory order.Repository. It is the default store for
// local deployments and the backing store of the test suites; SQL-backed
// implementations plug in behind the same interface.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*order.Order

	// lastOrderNumber plays the role of the "last issued reference" row;
	// seqMu is the equivalent of the row-level lock taken before incrementing
	seqMu           sync.Mutex
	lastOrderNumber int64
}

// NewOrderStore creates a new in-memory order repository
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]*order.Order),
	}
}

// Clear resets all stored data
func (s *OrderStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make(map[string]*order.Order)

	s.seqMu.Lock()
	s.lastOrderNumber = 0
	s.seqMu.Unlock()
}

// Create stores a new order
func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	if o == nil {
		return ierr.NewError("order cannot be nil").
			WithHint("Order cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if o.ID == "" {
		return ierr.NewError("order ID cannot be empty").
			WithHint("Order ID cannot be empty").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return ierr.NewError("order already exists").
			WithHintf("Order %s already exists", o.ID).
			Mark(ierr.ErrAlreadyExists)
	}

	s.orders[o.ID] = copyOrder(o)
	return nil
}

// Get retrieves an order by ID
func (s *OrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.orders[id]
	if !exists {
		return nil, ierr.NewError("order not found").
			WithHintf("Order %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	return copyOrder(o), nil
}

// Update persists an order using optimistic check-and-set on the version.
// Two workers racing on the same order cannot both win; the loser gets
// ErrVersionConflict and must re-fetch and retry.
func (s *OrderStore) Update(ctx context.Context, o *order.Order) error {
	if o == nil {
		return ierr.NewError("order cannot be nil").
			WithHint("Order cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.orders[o.ID]
	if !exists {
		return ierr.NewError("order not found").
			WithHintf("Order %s was not found", o.ID).
			Mark(ierr.ErrNotFound)
	}

	if existing.Version != o.Version {
		return ierr.NewError("order was modified concurrently").
			WithHintf("Order %s version %d does not match stored version %d", o.ID, o.Version, existing.Version).
			Mark(ierr.ErrVersionConflict)
	}

	o.Version++
	o.UpdatedAt = time.Now().UTC()
	s.orders[o.ID] = copyOrder(o)
	return nil
}

// Delete removes an order
func (s *OrderStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[id]; !exists {
		return ierr.NewError("order not found").
			WithHintf("Order %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	delete(s.orders, id)
	return nil
}

// List returns orders matching the filter, newest first
func (s *OrderStore) List(ctx context.Context, filter *types.OrderFilter) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*order.Order
	for _, o := range s.orders {
		if orderMatchesFilter(ctx, o, filter) {
			result = append(result, copyOrder(o))
		}
	}

	// newest first, stable across runs
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter != nil && !filter.IsUnlimited() {
		start := filter.GetOffset()
		if start >= len(result) {
			return []*order.Order{}, nil
		}
		end := start + filter.GetLimit()
		if end > len(result) {
			end = len(result)
		}
		result = result[start:end]
	}

	return result, nil
}

// Count returns the number of orders matching the filter
func (s *OrderStore) Count(ctx context.Context, filter *types.OrderFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, o := range s.orders {
		if orderMatchesFilter(ctx, o, filter) {
			count++
		}
	}
	return count, nil
}

// NextOrderNumber issues the next order reference under the sequence lock
func (s *OrderStore) NextOrderNumber(ctx context.Context) (int64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	s.lastOrderNumber++
	return s.lastOrderNumber, nil
}

func orderMatchesFilter(ctx context.Context, o *order.Order, filter *types.OrderFilter) bool {
	if o == nil {
		return false
	}

	if tenantID := types.GetTenantID(ctx); tenantID != "" && o.TenantID != "" && o.TenantID != tenantID {
		return false
	}

	if filter == nil {
		return true
	}

	if len(filter.OrderIDs) > 0 && !lo.Contains(filter.OrderIDs, o.ID) {
		return false
	}
	if filter.OrderType != nil && o.OrderType != *filter.OrderType {
		return false
	}
	if len(filter.OrderStates) > 0 && !lo.Contains(filter.OrderStates, o.State) {
		return false
	}
	if filter.OwnerID != nil && o.OwnerID != *filter.OwnerID {
		return false
	}
	if filter.CourseID != nil && o.CourseID != *filter.CourseID {
		return false
	}
	if filter.DueBefore != nil && len(o.InstallmentsDueOnOrBefore(*filter.DueBefore)) == 0 {
		return false
	}

	if filter.TimeRangeFilter != nil {
		if filter.StartTime != nil && o.CreatedAt.Before(*filter.StartTime) {
			return false
		}
		if filter.EndTime != nil && o.CreatedAt.After(*filter.EndTime) {
			return false
		}
	}

	return true
}

// copyOrder returns a deep copy so callers never share ledger slices with
// the store; without it the optimistic version check would be meaningless
func copyOrder(o *order.Order) *order.Order {
	clone := *o
	if o.Schedule != nil {
		clone.Schedule = make([]*order.Installment, len(o.Schedule))
		for i, installment := range o.Schedule {
			c := *installment
			clone.Schedule[i] = &c
		}
	}
	return &clone
}
