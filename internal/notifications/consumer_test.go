package notifications

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/outbox/payloads"
)

func marshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestBuildNotificationOrderEvents(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	n, err := buildNotification(enums.EventOrderCreated, marshal(t, payloads.OrderCreatedEvent{
		OrderID: orderID,
		UserID:  userID,
		Total:   "12.40",
	}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n.UserID != userID || n.Kind != enums.NotificationOrderStatus {
		t.Fatalf("unexpected notification %+v", n)
	}
	if !strings.Contains(n.Body, "12.40") {
		t.Fatalf("total missing from body %q", n.Body)
	}

	n, err = buildNotification(enums.EventOrderStatusChanged, marshal(t, payloads.OrderStatusChangedEvent{
		OrderID: orderID,
		UserID:  userID,
		From:    enums.OrderStatusConfirmed,
		To:      enums.OrderStatusShipped,
	}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n.Title != "Order shipped" {
		t.Fatalf("unexpected title %q", n.Title)
	}

	n, err = buildNotification(enums.EventOrderCancelled, marshal(t, payloads.OrderCancelledEvent{
		OrderID: orderID,
		UserID:  userID,
		Reason:  "changed my mind",
	}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(n.Body, "changed my mind") {
		t.Fatalf("reason missing from body %q", n.Body)
	}
}

func TestBuildNotificationPaymentEvents(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	n, err := buildNotification(enums.EventPaymentSucceeded, marshal(t, payloads.PaymentSucceededEvent{
		OrderID: orderID,
		UserID:  userID,
		Amount:  "99.00",
	}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n.Kind != enums.NotificationPayment || n.Title != "Payment received" {
		t.Fatalf("unexpected notification %+v", n)
	}

	n, err = buildNotification(enums.EventPaymentFailed, marshal(t, payloads.PaymentFailedEvent{
		OrderID: orderID,
		UserID:  userID,
		Reason:  "card declined",
	}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(n.Body, "card declined") {
		t.Fatalf("reason missing from body %q", n.Body)
	}
}

func TestBuildNotificationUnknownEventSkipped(t *testing.T) {
	n, err := buildNotification(enums.OutboxEventType("inventory.audited"), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n != nil {
		t.Fatalf("expected nil notification, got %+v", n)
	}
}

func TestBuildNotificationBadPayload(t *testing.T) {
	_, err := buildNotification(enums.EventOrderCreated, json.RawMessage(`{"orderId":42}`))
	if err == nil {
		t.Fatalf("expected decode error")
	}
}
