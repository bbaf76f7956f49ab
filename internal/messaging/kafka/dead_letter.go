package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// DecodeDeadLetter разбирает сообщение из TopicDeadLetterQueue: outbox-конверт,
// внутри которого лежит domain.DeadLetter.
func DecodeDeadLetter(value []byte) (domain.DeadLetter, error) {
	var envelope outboxEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return domain.DeadLetter{}, fmt.Errorf("decode dlq envelope: %w", err)
	}
	if len(envelope.Payload) == 0 || string(envelope.Payload) == "null" {
		return domain.DeadLetter{}, domain.ErrNotDeadLetter
	}

	var letter domain.DeadLetter
	if err := json.Unmarshal(envelope.Payload, &letter); err != nil {
		return domain.DeadLetter{}, fmt.Errorf("decode dead letter: %w", err)
	}
	if letter.OutboxID == "" {
		letter.OutboxID = envelope.ID
	}
	if letter.AggregateID == "" {
		letter.AggregateID = envelope.AggregateID
	}
	return letter, nil
}
