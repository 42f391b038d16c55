package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/email"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/outbox"
	"github.com/greenbasket/greenbasket-backend/pkg/outbox/idempotency"
	"github.com/greenbasket/greenbasket-backend/pkg/outbox/payloads"
)

const orderNotificationsConsumer = "notification-worker"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Mailer sends the email copy of a notification.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// Consumer watches domain events and turns order and payment transitions into
// in-app notifications, with a best-effort email copy.
type Consumer struct {
	repo         repository
	users        userDirectory
	mailer       Mailer
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the order notification consumer. mailer may be nil, in
// which case only in-app notifications are written.
func NewConsumer(repo repository, users userDirectory, mailer Mailer, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
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
		repo:         repo,
		users:        users,
		mailer:       mailer,
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
		"event_type": string(eventType),
	})

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

	notification, err := buildNotification(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	if notification == nil {
		c.logg.Info(logCtx, "skipping event without notification")
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationsConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "persisting notification failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationsConsumer, eventID)
		return processResult{nack: true}
	}

	c.sendEmailCopy(logCtx, notification)

	c.logg.Info(c.logg.WithUserID(logCtx, notification.UserID.String()), "notification created")
	return processResult{ack: true}
}

// sendEmailCopy is best effort: a mail failure never blocks or replays the
// in-app notification.
func (c *Consumer) sendEmailCopy(ctx context.Context, notification *models.Notification) {
	if c.mailer == nil {
		return
	}
	user, err := c.users.FindByID(ctx, notification.UserID)
	if err != nil || user == nil {
		c.logg.Warn(ctx, "skipping email copy, user lookup failed")
		return
	}
	err = c.mailer.Send(ctx, email.Message{
		To:       user.Email,
		ToName:   user.Name,
		Subject:  notification.Title,
		TextBody: notification.Body,
	})
	if err != nil {
		c.logg.Warn(ctx, "email copy failed")
	}
}

// buildNotification maps a domain event to the notification shown to the
// buyer. A nil notification means the event type carries nothing user-facing.
func buildNotification(eventType enums.OutboxEventType, data json.RawMessage) (*models.Notification, error) {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID: payload.UserID,
			Kind:   enums.NotificationOrderStatus,
			Title:  "Order placed",
			Body:   fmt.Sprintf("Your order %s for %s has been placed.", shortID(payload.OrderID), payload.Total),
		}, nil
	case enums.EventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		title, body := statusChangeCopy(payload)
		return &models.Notification{
			UserID: payload.UserID,
			Kind:   enums.NotificationOrderStatus,
			Title:  title,
			Body:   body,
		}, nil
	case enums.EventOrderCancelled:
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		body := fmt.Sprintf("Your order %s was cancelled.", shortID(payload.OrderID))
		if payload.Reason != "" {
			body = fmt.Sprintf("Your order %s was cancelled: %s.", shortID(payload.OrderID), payload.Reason)
		}
		return &models.Notification{
			UserID: payload.UserID,
			Kind:   enums.NotificationOrderStatus,
			Title:  "Order cancelled",
			Body:   body,
		}, nil
	case enums.EventOrderExpired:
		var payload payloads.OrderExpiredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID: payload.UserID,
			Kind:   enums.NotificationOrderStatus,
			Title:  "Order expired",
			Body:   fmt.Sprintf("Your unpaid order %s expired and its items were released.", shortID(payload.OrderID)),
		}, nil
	case enums.EventPaymentSucceeded:
		var payload payloads.PaymentSucceededEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID: payload.UserID,
			Kind:   enums.NotificationPayment,
			Title:  "Payment received",
			Body:   fmt.Sprintf("We received your payment of %s for order %s.", payload.Amount, shortID(payload.OrderID)),
		}, nil
	case enums.EventPaymentFailed:
		var payload payloads.PaymentFailedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		body := fmt.Sprintf("Your payment for order %s failed.", shortID(payload.OrderID))
		if payload.Reason != "" {
			body = fmt.Sprintf("Your payment for order %s failed: %s.", shortID(payload.OrderID), payload.Reason)
		}
		return &models.Notification{
			UserID: payload.UserID,
			Kind:   enums.NotificationPayment,
			Title:  "Payment failed",
			Body:   body,
		}, nil
	default:
		return nil, nil
	}
}

func statusChangeCopy(payload payloads.OrderStatusChangedEvent) (string, string) {
	id := shortID(payload.OrderID)
	switch payload.To {
	case enums.OrderStatusProcessing:
		return "Order processing", fmt.Sprintf("Your order %s is being prepared.", id)
	case enums.OrderStatusConfirmed:
		return "Order confirmed", fmt.Sprintf("Your order %s is confirmed and will ship soon.", id)
	case enums.OrderStatusShipped:
		return "Order shipped", fmt.Sprintf("Your order %s is out for delivery.", id)
	case enums.OrderStatusDelivered:
		return "Order delivered", fmt.Sprintf("Your order %s was delivered. Enjoy!", id)
	default:
		return "Order updated", fmt.Sprintf("Your order %s moved to %s.", id, payload.To)
	}
}

func shortID(id uuid.UUID) string {
	return "#" + id.String()[:8]
}
