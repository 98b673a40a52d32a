package service

import (
	"github.com/coursebill/coursebill/internal/calendar"
	"github.com/coursebill/coursebill/internal/config"
	"github.com/coursebill/coursebill/internal/domain/order"
	"github.com/coursebill/coursebill/internal/gateway"
	"github.com/coursebill/coursebill/internal/logger"
	"github.com/coursebill/coursebill/internal/notification"
	"github.com/coursebill/coursebill/internal/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger   *logger.Logger
	Config   *config.Configuration
	Calendar calendar.Calendar

	// Repositories
	OrderRepo order.Repository

	// Collaborators
	Gateway   gateway.Gateway
	Notifier  notification.Sender
	Publisher publisher.EventPublisher
}
