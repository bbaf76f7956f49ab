package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

func TestNewFanout(t *testing.T) {
	if NewFanout() != nil {
		t.Fatal("expected nil publisher without sinks")
	}
	if NewFanout(nil, nil) != nil {
		t.Fatal("expected nil publisher when all sinks are nil")
	}

	single := &stubPublisher{}
	if got := NewFanout(nil, single); got != single {
		t.Fatalf("expected single sink to be returned as is, got %T", got)
	}
}

func TestFanout_PublishesToEverySink(t *testing.T) {
	first := &stubPublisher{err: errors.New("kafka down")}
	second := &stubPublisher{}

	publisher := NewFanout(first, second)
	err := publisher.Publish(context.Background(), domain.OutboxMessage{ID: "msg-1"})

	if err == nil {
		t.Fatal("expected joined error")
	}
	if first.calls() != 1 || second.calls() != 1 {
		t.Fatalf("expected both sinks to be called, got %d and %d", first.calls(), second.calls())
	}
	if second.last().ID != "msg-1" {
		t.Fatalf("unexpected message: %+v", second.last())
	}
}
