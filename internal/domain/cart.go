package domain

// Границы корзины. При них subtotal помещается в int64 с большим запасом:
// MaxCartLines * MaxLineQuantity * MaxPriceMinor < 2^63.
const (
	// MaxLineQuantity — наибольшее количество одной позиции.
	MaxLineQuantity int32 = 999
	// MaxPriceMinor — наибольшая цена позиции меню в минимальных единицах (10 000 000.00).
	MaxPriceMinor int64 = 1_000_000_000
	// MaxCartLines — наибольшее число различных позиций в корзине.
	MaxCartLines = 500
)

// LineItem представляет одну позицию корзины: товар меню и количество.
type LineItem struct {
	ID         ItemID
	Name       string
	PriceMinor int64
	// Qty всегда >= 1: позиция с нулевым количеством из корзины удаляется.
	Qty int32
}

// TotalMinor возвращает стоимость позиции: price * qty.
func (l LineItem) TotalMinor() int64 {
	return int64(l.Qty) * l.PriceMinor
}

// CartSnapshot — неизменяемый снимок корзины для отрисовки.
type CartSnapshot struct {
	Items         []LineItem
	SubtotalMinor int64
	// DeliveryMinor пока всегда 0 (доставка бесплатная).
	DeliveryMinor int64
	TotalMinor    int64
	ItemCount     int
	Version       uint64
}

// Empty сообщает, что в корзине нет ни одной позиции.
func (s CartSnapshot) Empty() bool {
	return len(s.Items) == 0
}
