// Package orderapi содержит клиентов удалённого сервиса заказов (HTTP и gRPC)
// и серверную обвязку gRPC-контракта.
package orderapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// Заголовки HTTP-контракта и ключи gRPC metadata.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderUserID         = "X-User-Id"
	HeaderUserName       = "X-User-Name"

	mdIdempotencyKey = "idempotency-key"
	mdUserID         = "x-user-id"
	mdUserName       = "x-user-name"
	mdAuthorization  = "authorization"
)

var errMissingOrderID = errors.New("response has no order id")

// OrderItem — строка запроса POST /api/orders.
type OrderItem struct {
	MenuItemID int64 `json:"menuItemId"`
	Quantity   int32 `json:"quantity"`
}

// CreateOrderRequest — тело запроса POST /api/orders.
type CreateOrderRequest struct {
	Items []OrderItem `json:"items"`
}

// CreateOrderResponse — тело ответа сервиса заказов. Идентификатор может быть числом или строкой.
type CreateOrderResponse struct {
	ID json.RawMessage `json:"id"`
}

// NewCreateOrderRequest строит тело запроса из строк заказа.
func NewCreateOrderRequest(lines []domain.OrderLine) CreateOrderRequest {
	items := make([]OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, OrderItem{MenuItemID: int64(line.MenuItemID), Quantity: line.Quantity})
	}
	return CreateOrderRequest{Items: items}
}

// Lines переводит тело запроса в строки заказа и проверяет их.
func (r CreateOrderRequest) Lines() ([]domain.OrderLine, error) {
	if len(r.Items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}
	lines := make([]domain.OrderLine, 0, len(r.Items))
	for idx, item := range r.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d].quantity must be > 0", idx)
		}
		lines = append(lines, domain.OrderLine{MenuItemID: domain.ItemID(item.MenuItemID), Quantity: item.Quantity})
	}
	return lines, nil
}

// OrderID извлекает идентификатор заказа из ответа.
func (r CreateOrderResponse) OrderID() (string, error) {
	raw := bytes.TrimSpace(r.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errMissingOrderID
	}

	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("decode order id: %w", err)
		}
		if id == "" {
			return "", errMissingOrderID
		}
		return id, nil
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return "", fmt.Errorf("decode order id: %w", err)
	}
	return num.String(), nil
}

// NewCreateOrderResponse строит ответ с идентификатором заказа. Числовой id отдаётся числом.
func NewCreateOrderResponse(orderID string) CreateOrderResponse {
	if _, err := strconv.ParseInt(orderID, 10, 64); err == nil {
		return CreateOrderResponse{ID: json.RawMessage(orderID)}
	}
	raw, _ := json.Marshal(orderID)
	return CreateOrderResponse{ID: raw}
}
