package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// Fanout публикует каждое сообщение во все брокеры по очереди.
// Ошибки всех брокеров объединяются; повторная публикация безопасна, так как
// получатели дедуплицируют по идентификатору сообщения.
type Fanout []domain.OutboxPublisher

// NewFanout отбрасывает nil-паблишеры. Если остался один, он возвращается как есть.
func NewFanout(publishers ...domain.OutboxPublisher) domain.OutboxPublisher {
	result := make(Fanout, 0, len(publishers))
	for _, publisher := range publishers {
		if publisher != nil {
			result = append(result, publisher)
		}
	}
	switch len(result) {
	case 0:
		return nil
	case 1:
		return result[0]
	default:
		return result
	}
}

// Publish реализует domain.OutboxPublisher.
func (f Fanout) Publish(ctx context.Context, event domain.OutboxMessage) error {
	var errs []error
	for i, publisher := range f {
		if err := publisher.Publish(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("publisher %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

var _ domain.OutboxPublisher = Fanout(nil)
