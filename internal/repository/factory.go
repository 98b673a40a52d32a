package repository

import (
	"github.com/coursebill/coursebill/internal/domain/order"
	"github.com/coursebill/coursebill/internal/logger"
	"github.com/coursebill/coursebill/internal/repository/memory"
)

// NewOrderRepository creates the order repository. The in-memory store backs
// local deployments; SQL-backed stores plug in behind the same interface.
func NewOrderRepository(log *logger.Logger) order.Repository {
	log.Debugf("initializing in-memory order repository")
	return memory.NewOrderStore()
}
