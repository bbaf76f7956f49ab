package domain

// OrderLine — строка запроса на создание заказа. Цена не передаётся:
// источником цены является сервер заказов.
type OrderLine struct {
	MenuItemID ItemID
	Quantity   int32
}

// OrderRequest — запрос к удалённому сервису заказов.
type OrderRequest struct {
	// IdempotencyKey совпадает с идентификатором попытки оформления.
	IdempotencyKey string
	Customer       Identity
	Lines          []OrderLine
}

// OrderReceipt — ответ сервиса заказов при успешном создании.
type OrderReceipt struct {
	OrderID string
}
