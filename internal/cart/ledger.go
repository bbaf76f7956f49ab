// Package cart содержит журнал позиций корзины (ledger) и его производные агрегаты.
package cart

import (
	"sync"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// Ledger — упорядоченный по порядку добавления набор позиций корзины с уникальными ID.
// Все операции тотальны: ошибок нет, неприменимые вызовы ничего не меняют.
type Ledger struct {
	mu      sync.RWMutex
	items   []domain.LineItem
	index   map[domain.ItemID]int
	version uint64

	subsMu  sync.Mutex
	subs    map[uint64]chan struct{}
	nextSub uint64
}

// NewLedger создаёт пустую корзину.
func NewLedger() *Ledger {
	return &Ledger{
		index: make(map[domain.ItemID]int),
		subs:  make(map[uint64]chan struct{}),
	}
}

// Add увеличивает количество существующей позиции на 1 или добавляет новую с количеством 1.
// Позиции с ценой вне [0, MaxPriceMinor] игнорируются. Позиция с количеством
// MaxLineQuantity и новая позиция в корзине из MaxCartLines строк не меняются.
func (l *Ledger) Add(item domain.MenuItem) {
	if item.PriceMinor < 0 || item.PriceMinor > domain.MaxPriceMinor {
		return
	}

	l.mu.Lock()
	if i, ok := l.index[item.ID]; ok {
		if l.items[i].Qty >= domain.MaxLineQuantity {
			l.mu.Unlock()
			return
		}
		l.items[i].Qty++
	} else {
		if len(l.items) >= domain.MaxCartLines {
			l.mu.Unlock()
			return
		}
		l.index[item.ID] = len(l.items)
		l.items = append(l.items, domain.LineItem{
			ID:         item.ID,
			Name:       item.Name,
			PriceMinor: item.PriceMinor,
			Qty:        1,
		})
	}
	l.version++
	l.mu.Unlock()

	l.notify()
}

// Remove удаляет позицию, если она есть.
func (l *Ledger) Remove(id domain.ItemID) {
	l.mu.Lock()
	changed := l.removeLocked(id)
	l.mu.Unlock()

	if changed {
		l.notify()
	}
}

// SetQuantity задаёт количество существующей позиции. qty <= 0 эквивалентно Remove,
// значения больше MaxLineQuantity ограничиваются им.
func (l *Ledger) SetQuantity(id domain.ItemID, qty int32) {
	if qty <= 0 {
		l.Remove(id)
		return
	}
	qty = min(qty, domain.MaxLineQuantity)

	l.mu.Lock()
	i, ok := l.index[id]
	changed := ok && l.items[i].Qty != qty
	if changed {
		l.items[i].Qty = qty
		l.version++
	}
	l.mu.Unlock()

	if changed {
		l.notify()
	}
}

// Clear очищает корзину целиком.
func (l *Ledger) Clear() {
	l.mu.Lock()
	changed := len(l.items) > 0
	if changed {
		l.items = nil
		l.index = make(map[domain.ItemID]int)
		l.version++
	}
	l.mu.Unlock()

	if changed {
		l.notify()
	}
}

// Subtotal возвращает точную сумму price * qty по всем позициям в минимальных единицах.
func (l *Ledger) Subtotal() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return subtotal(l.items)
}

// ItemCount возвращает сумму количеств (для бейджа корзины).
func (l *Ledger) ItemCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return itemCount(l.items)
}

// Len возвращает количество различных позиций.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Snapshot возвращает копию текущего состояния; изменение копии не влияет на корзину.
func (l *Ledger) Snapshot() domain.CartSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	items := make([]domain.LineItem, len(l.items))
	copy(items, l.items)

	sum := subtotal(items)
	return domain.CartSnapshot{
		Items:         items,
		SubtotalMinor: sum,
		TotalMinor:    sum,
		ItemCount:     itemCount(items),
		Version:       l.version,
	}
}

// Subscribe возвращает канал уведомлений об изменениях и функцию отписки.
// Уведомления схлопываются: получатель должен перечитать Snapshot.
func (l *Ledger) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	l.subsMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.subsMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.subsMu.Lock()
			delete(l.subs, id)
			l.subsMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (l *Ledger) removeLocked(id domain.ItemID) bool {
	i, ok := l.index[id]
	if !ok {
		return false
	}

	l.items = append(l.items[:i], l.items[i+1:]...)
	delete(l.index, id)
	for j := i; j < len(l.items); j++ {
		l.index[l.items[j].ID] = j
	}
	l.version++
	return true
}

func (l *Ledger) notify() {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()

	for _, ch := range l.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func subtotal(items []domain.LineItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.TotalMinor()
	}
	return sum
}

func itemCount(items []domain.LineItem) int {
	count := 0
	for _, item := range items {
		count += int(item.Qty)
	}
	return count
}
