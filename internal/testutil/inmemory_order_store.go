package testutil

import (
	"github.com/coursebill/coursebill/internal/domain/order"
	"github.com/coursebill/coursebill/internal/repository/memory"
)

// InMemoryOrderStore is the order repository used by the test suites. It is
// the same store that backs local deployments, so the optimistic version
// check and the order number sequence behave exactly as in production.
type InMemoryOrderStore = memory.OrderStore

// NewInMemoryOrderStore creates a new in-memory order store
func NewInMemoryOrderStore() order.Repository {
	return memory.NewOrderStore()
}
