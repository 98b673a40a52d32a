package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coursebill/coursebill/internal/api"
	"github.com/coursebill/coursebill/internal/api/cron"
	v1 "github.com/coursebill/coursebill/internal/api/v1"
	"github.com/coursebill/coursebill/internal/cache"
	"github.com/coursebill/coursebill/internal/calendar"
	"github.com/coursebill/coursebill/internal/config"
	"github.com/coursebill/coursebill/internal/domain/order"
	"github.com/coursebill/coursebill/internal/gateway"
	"github.com/coursebill/coursebill/internal/logger"
	"github.com/coursebill/coursebill/internal/notification"
	"github.com/coursebill/coursebill/internal/publisher"
	"github.com/coursebill/coursebill/internal/pubsub"
	pubsubMemory "github.com/coursebill/coursebill/internal/pubsub/memory"
	"github.com/coursebill/coursebill/internal/repository"
	"github.com/coursebill/coursebill/internal/service"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/coursebill/coursebill/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.Initialize,

			// Working-day calendar
			calendar.NewCalendar,

			// PubSub and event publisher
			pubsubMemory.NewPubSub,
			publisher.NewEventPublisher,

			// Collaborators
			gateway.NewLocalGateway,
			notification.NewLogSender,

			// Repositories
			repository.NewOrderRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			provideServiceParams,

			service.NewPaymentScheduleService,
			service.NewOrderService,
			service.NewCollectionService,
			service.NewReminderService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideServiceParams(
	log *logger.Logger,
	cfg *config.Configuration,
	cal calendar.Calendar,
	orderRepo order.Repository,
	gw gateway.Gateway,
	notifier notification.Sender,
	pub publisher.EventPublisher,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:    log,
		Config:    cfg,
		Calendar:  cal,
		OrderRepo: orderRepo,
		Gateway:   gw,
		Notifier:  notifier,
		Publisher: pub,
	}
}

func provideHandlers(
	log *logger.Logger,
	orderService service.OrderService,
	collectionService service.CollectionService,
	reminderService service.ReminderService,
) api.Handlers {
	return api.Handlers{
		Health:      v1.NewHealthHandler(log),
		Order:       v1.NewOrderHandler(orderService, log),
		CronPayment: cron.NewPaymentHandler(collectionService, reminderService, log),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	ps pubsub.PubSub,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startEventConsumer(lc, ps, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

// startEventConsumer drains the order event topic into the audit log. Real
// side effects (certificates, enrollment sync) subscribe the same way.
func startEventConsumer(
	lc fx.Lifecycle,
	ps pubsub.PubSub,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			messages, err := ps.Subscribe(context.Background(), cfg.Webhook.Topic)
			if err != nil {
				return err
			}

			go func() {
				for msg := range messages {
					var event types.WebhookEvent
					if err := json.Unmarshal(msg.Payload, &event); err != nil {
						log.Errorw("failed to decode order event", "error", err)
						msg.Ack()
						continue
					}

					log.Infow("order event",
						"event_id", event.ID,
						"event_name", event.EventName,
						"tenant_id", event.TenantID,
					)
					msg.Ack()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return ps.Close()
		},
	})
}
