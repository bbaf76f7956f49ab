package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotDeadLetter — сообщение из DLQ не содержит исходного события outbox.
var ErrNotDeadLetter = errors.New("message is not an outbox dead letter")

// DeadLetter — событие outbox, которое не удалось доставить после всех попыток.
type DeadLetter struct {
	OutboxID       string          `json:"outbox_id"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	PublishError   string          `json:"publish_error"`
	DLQPublishedAt string          `json:"dlq_published_at"`
}

// NewDeadLetter упаковывает недоставленное сообщение вместе с причиной отказа.
func NewDeadLetter(msg OutboxMessage, publishErr error, at time.Time) DeadLetter {
	payload := json.RawMessage(msg.Payload)
	if !json.Valid(payload) {
		payload = json.RawMessage("null")
	}
	letter := DeadLetter{
		OutboxID:       msg.ID,
		AggregateType:  msg.AggregateType,
		AggregateID:    msg.AggregateID,
		EventType:      msg.EventType,
		Payload:        payload,
		DLQPublishedAt: at.UTC().Format(time.RFC3339Nano),
	}
	if publishErr != nil {
		letter.PublishError = publishErr.Error()
	}
	return letter
}

// Original восстанавливает исходное сообщение outbox для повторной публикации.
func (d DeadLetter) Original() (OutboxMessage, error) {
	if d.OutboxID == "" || len(d.Payload) == 0 {
		return OutboxMessage{}, ErrNotDeadLetter
	}
	return OutboxMessage{
		ID:            d.OutboxID,
		AggregateType: d.AggregateType,
		AggregateID:   d.AggregateID,
		EventType:     d.EventType,
		Payload:       append([]byte(nil), d.Payload...),
	}, nil
}
