package cart

import (
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

var (
	margherita = domain.MenuItem{ID: 1, Name: "Margherita", PriceMinor: 250}
	lemonade   = domain.MenuItem{ID: 2, Name: "Lemonade", PriceMinor: 99}
)

func TestLedger_AddMergesByID(t *testing.T) {
	l := NewLedger()
	l.Add(margherita)
	l.Add(margherita)

	snap := l.Snapshot()
	if len(snap.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(snap.Items))
	}
	if snap.Items[0].Qty != 2 {
		t.Fatalf("expected qty 2, got %d", snap.Items[0].Qty)
	}
}

func TestLedger_AddKeepsInsertionOrder(t *testing.T) {
	l := NewLedger()
	l.Add(lemonade)
	l.Add(margherita)
	l.Add(lemonade)

	snap := l.Snapshot()
	if snap.Items[0].ID != lemonade.ID || snap.Items[1].ID != margherita.ID {
		t.Fatalf("unexpected order: %+v", snap.Items)
	}
}

func TestLedger_AddIgnoresNegativePrice(t *testing.T) {
	l := NewLedger()
	l.Add(domain.MenuItem{ID: 5, Name: "broken", PriceMinor: -1})

	if l.Len() != 0 {
		t.Fatalf("expected empty ledger, got %d lines", l.Len())
	}
}

func TestLedger_SubtotalAndItemCount(t *testing.T) {
	l := NewLedger()
	l.Add(margherita)
	l.Add(margherita)
	l.Add(lemonade)

	if got := l.Subtotal(); got != 599 {
		t.Fatalf("expected subtotal 599, got %d", got)
	}
	if got := l.ItemCount(); got != 3 {
		t.Fatalf("expected item count 3, got %d", got)
	}

	snap := l.Snapshot()
	if snap.TotalMinor != snap.SubtotalMinor || snap.DeliveryMinor != 0 {
		t.Fatalf("expected free delivery, got %+v", snap)
	}
}

func TestLedger_SetQuantity(t *testing.T) {
	tests := []struct {
		name    string
		id      domain.ItemID
		qty     int32
		wantLen int
		wantQty int32
	}{
		{name: "increase", id: 1, qty: 5, wantLen: 2, wantQty: 5},
		{name: "zero removes", id: 1, qty: 0, wantLen: 1},
		{name: "negative removes", id: 1, qty: -3, wantLen: 1},
		{name: "absent is no-op", id: 42, qty: 3, wantLen: 2, wantQty: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			l.Add(margherita)
			l.Add(lemonade)

			l.SetQuantity(tt.id, tt.qty)

			if l.Len() != tt.wantLen {
				t.Fatalf("expected %d lines, got %d", tt.wantLen, l.Len())
			}
			if tt.wantQty == 0 {
				return
			}
			for _, item := range l.Snapshot().Items {
				if item.ID == margherita.ID && item.Qty != tt.wantQty {
					t.Fatalf("expected qty %d, got %d", tt.wantQty, item.Qty)
				}
			}
		})
	}
}

func TestLedger_SetQuantityZeroEqualsRemove(t *testing.T) {
	a := NewLedger()
	b := NewLedger()
	for _, l := range []*Ledger{a, b} {
		l.Add(margherita)
		l.Add(lemonade)
	}

	a.SetQuantity(margherita.ID, 0)
	b.Remove(margherita.ID)

	sa, sb := a.Snapshot(), b.Snapshot()
	if len(sa.Items) != len(sb.Items) || sa.Items[0] != sb.Items[0] || sa.SubtotalMinor != sb.SubtotalMinor {
		t.Fatalf("snapshots differ: %+v vs %+v", sa, sb)
	}
}

func TestLedger_RemoveReindexes(t *testing.T) {
	l := NewLedger()
	l.Add(margherita)
	l.Add(lemonade)
	l.Add(domain.MenuItem{ID: 3, Name: "Tiramisu", PriceMinor: 400})

	l.Remove(margherita.ID)
	l.SetQuantity(3, 2)
	l.Add(lemonade)

	snap := l.Snapshot()
	if len(snap.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(snap.Items))
	}
	if snap.Items[0].ID != 2 || snap.Items[0].Qty != 2 {
		t.Fatalf("unexpected first line %+v", snap.Items[0])
	}
	if snap.Items[1].ID != 3 || snap.Items[1].Qty != 2 {
		t.Fatalf("unexpected second line %+v", snap.Items[1])
	}
}

func TestLedger_SnapshotIsCopy(t *testing.T) {
	l := NewLedger()
	l.Add(margherita)

	snap := l.Snapshot()
	snap.Items[0].Qty = 100

	if got := l.Snapshot().Items[0].Qty; got != 1 {
		t.Fatalf("ledger changed through snapshot: qty=%d", got)
	}
}

func TestLedger_VersionOnlyOnChange(t *testing.T) {
	l := NewLedger()
	l.Add(margherita)
	v := l.Snapshot().Version

	l.Remove(99)
	l.SetQuantity(99, 4)
	l.SetQuantity(margherita.ID, 1)

	if got := l.Snapshot().Version; got != v {
		t.Fatalf("no-op mutations changed version: %d -> %d", v, got)
	}

	l.Clear()
	if got := l.Snapshot().Version; got == v {
		t.Fatal("Clear must bump version")
	}
	if !l.Snapshot().Empty() {
		t.Fatal("expected empty cart after Clear")
	}
}

func TestLedger_SubscribeCoalesces(t *testing.T) {
	l := NewLedger()
	ch, cancel := l.Subscribe()
	defer cancel()

	l.Add(margherita)
	l.Add(lemonade)
	l.Add(lemonade)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected notification")
	}

	select {
	case <-ch:
		t.Fatal("notifications must be coalesced")
	default:
	}

	if got := l.Snapshot().ItemCount; got != 3 {
		t.Fatalf("expected item count 3, got %d", got)
	}
}

func TestLedger_NoOpDoesNotNotify(t *testing.T) {
	l := NewLedger()
	ch, cancel := l.Subscribe()
	defer cancel()

	l.Remove(7)
	l.Clear()

	select {
	case <-ch:
		t.Fatal("unexpected notification")
	default:
	}
}

func TestLedger_UnsubscribeClosesChannel(t *testing.T) {
	l := NewLedger()
	ch, cancel := l.Subscribe()
	cancel()
	cancel()

	l.Add(margherita)

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
}

func TestLedger_ConcurrentAdds(t *testing.T) {
	l := NewLedger()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Add(margherita)
		}()
	}
	wg.Wait()

	snap := l.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].Qty != 50 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
