package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/coursebill/coursebill/internal/config"
	"github.com/coursebill/coursebill/internal/logger"
	"github.com/coursebill/coursebill/internal/pubsub"
	"github.com/coursebill/coursebill/internal/types"
)

// EventPublisher publishes order lifecycle events for audit-log and
// downstream-synchronization subscribers. The engine emits events on
// transition success; it never implements the side effects itself.
type EventPublisher interface {
	Publish(ctx context.Context, eventName string, payload interface{}) error
	Close() error
}

type eventPublisher struct {
	pubSub pubsub.PubSub
	config *config.WebhookConfig
	logger *logger.Logger
}

// NewEventPublisher creates a pubsub-backed event publisher
func NewEventPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) EventPublisher {
	return &eventPublisher{
		pubSub: pubSub,
		config: &cfg.Webhook,
		logger: logger,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, eventName string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   body,
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}

	messageID := event.ID
	if messageID == "" {
		messageID = watermill.NewUUID()
	}

	msg := message.NewMessage(messageID, raw)
	msg.Metadata.Set("tenant_id", event.TenantID)
	msg.Metadata.Set("event_name", event.EventName)

	p.logger.Debugw("publishing order event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"tenant_id", event.TenantID,
		"topic", p.config.Topic,
	)

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish order event",
			"event_id", event.ID,
			"event_name", event.EventName,
			"error", err,
		)
		return err
	}

	return nil
}

func (p *eventPublisher) Close() error {
	return p.pubSub.Close()
}
