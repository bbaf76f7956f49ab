package kafka

import "time"

// EventType определяет тип события оформления заказа.
type EventType string

const (
	EventTypeCheckoutSucceeded EventType = "checkout.succeeded"
	EventTypeCheckoutRejected  EventType = "checkout.rejected"
)

// Topics для Kafka
const (
	TopicCheckoutEvents  = "foodhub.checkout.events"
	TopicDeadLetterQueue = "foodhub.dlq"
)

// AggregateCheckout — тип агрегата outbox-сообщений оформления.
const AggregateCheckout = "checkout_attempt"

// CheckoutEvent описывает итог одной попытки оформления заказа.
type CheckoutEvent struct {
	EventType     EventType `json:"event_type"`
	AttemptID     string    `json:"attempt_id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id,omitempty"`
	OrderID       string    `json:"order_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	ItemCount     int       `json:"item_count"`
	SubtotalMinor int64     `json:"subtotal_minor"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewCheckoutEvent создаёт событие; тип выбирается по наличию orderID.
func NewCheckoutEvent(attemptID, sessionID, userID, orderID, reason string, itemCount int, subtotalMinor int64) *CheckoutEvent {
	eventType := EventTypeCheckoutRejected
	if orderID != "" && reason == "" {
		eventType = EventTypeCheckoutSucceeded
	}
	return &CheckoutEvent{
		EventType:     eventType,
		AttemptID:     attemptID,
		SessionID:     sessionID,
		UserID:        userID,
		OrderID:       orderID,
		Reason:        reason,
		ItemCount:     itemCount,
		SubtotalMinor: subtotalMinor,
		Timestamp:     time.Now().UTC(),
	}
}
