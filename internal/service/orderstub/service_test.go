package orderstub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

func request(key string) domain.OrderRequest {
	return domain.OrderRequest{
		IdempotencyKey: key,
		Customer:       domain.Identity{UserID: "u-1"},
		Lines:          []domain.OrderLine{{MenuItemID: 1, Quantity: 2}},
	}
}

func TestService_SequentialIDs(t *testing.T) {
	svc := NewService(WithFirstOrderID(100))

	first, err := svc.CreateOrder(context.Background(), request("a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.CreateOrder(context.Background(), request("b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.OrderID != "100" || second.OrderID != "101" {
		t.Fatalf("unexpected ids: %s, %s", first.OrderID, second.OrderID)
	}
	if lines, ok := svc.Order("100"); !ok || len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("unexpected stored order: %+v (%v)", lines, ok)
	}
}

func TestService_IdempotencyReplay(t *testing.T) {
	svc := NewService()

	first, _ := svc.CreateOrder(context.Background(), request("same"))
	again, _ := svc.CreateOrder(context.Background(), request("same"))

	if first.OrderID != again.OrderID {
		t.Fatalf("expected replayed id %s, got %s", first.OrderID, again.OrderID)
	}
	if svc.Calls() != 2 {
		t.Fatalf("unexpected calls: %d", svc.Calls())
	}

	other, _ := svc.CreateOrder(context.Background(), request(""))
	if other.OrderID == first.OrderID {
		t.Fatal("request without key must create a new order")
	}
}

func TestService_Error(t *testing.T) {
	rejected := &domain.SubmissionError{Kind: domain.SubmissionRejected}
	svc := NewService(WithError(rejected))

	if _, err := svc.CreateOrder(context.Background(), request("x")); !errors.Is(err, domain.ErrOrderRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	svc.SetError(nil)
	if _, err := svc.CreateOrder(context.Background(), request("x")); err != nil {
		t.Fatalf("unexpected error after reset: %v", err)
	}
}

func TestService_LatencyRespectsContext(t *testing.T) {
	svc := NewService(WithLatency(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := svc.CreateOrder(ctx, request("slow")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	svc.SetLatency(0)
	if _, err := svc.CreateOrder(context.Background(), request("fast")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
