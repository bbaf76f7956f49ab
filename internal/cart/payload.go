package cart

import "github.com/vladislavdragonenkov/foodhub/internal/domain"

// OrderLines строит строки запроса на заказ в порядке корзины. Цена не передаётся.
func OrderLines(items []domain.LineItem) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.OrderLine{
			MenuItemID: item.ID,
			Quantity:   item.Qty,
		})
	}
	return lines
}
