package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/outbox"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/outbox/idempotency"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/outbox/payloads"
)

const emailConsumer = "notifier"

// Consumer watches domain events and sends the matching customer emails.
// At-least-once delivery plus the idempotency check approximates exactly-once;
// a crash between send and mark can still duplicate an email.
type Consumer struct {
	composer     *Composer
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the email consumer.
func NewConsumer(composer *Composer, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if composer == nil {
		return nil, fmt.Errorf("composer required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		composer:     composer,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	switch eventType {
	case enums.EventOrderCreated, enums.EventOrderStatusChanged, enums.EventUserRegistered:
	default:
		c.logg.Info(logCtx, "skipping event with no email")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, emailConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			c.logg.Warn(logCtx, "email provider not configured, dropping email")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "email handling failed", err)
		_ = c.idempotency.Delete(ctx, emailConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing order created payload: %w", err)
		}
		if err := c.composer.SendOrderConfirmation(ctx, payload); err != nil {
			return err
		}
		c.logg.Info(c.logg.WithOrderID(logCtx, payload.OrderID.String()), "order confirmation sent")
		return nil

	case enums.EventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing status changed payload: %w", err)
		}
		if !payload.Status.IsTerminalForCustomer() {
			c.logg.Info(logCtx, "status not emailed")
			return nil
		}
		if err := c.composer.SendStatusUpdate(ctx, payload); err != nil {
			return err
		}
		c.logg.Info(c.logg.WithOrderID(logCtx, payload.OrderID.String()), "status email sent")
		return nil

	case enums.EventUserRegistered:
		var payload payloads.UserRegisteredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing user registered payload: %w", err)
		}
		if err := c.composer.SendWelcome(ctx, payload); err != nil {
			return err
		}
		c.logg.Info(c.logg.WithUserID(logCtx, payload.UserID.String()), "welcome email sent")
		return nil
	}
	return nil
}
