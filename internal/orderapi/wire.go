package orderapi

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// Имена gRPC-сервиса и метода.
const (
	ServiceName       = "foodhub.v1.OrderService"
	CreateOrderMethod = "/" + ServiceName + "/CreateOrder"
)

// Запрос и ответ gRPC передаются как google.protobuf.Struct с той же формой, что и JSON HTTP-контракта:
// {"items":[{"menuItemId":1,"quantity":2}]} и {"id":"42"}.

func encodeRequest(lines []domain.OrderLine) (*structpb.Struct, error) {
	items := make([]any, 0, len(lines))
	for _, line := range lines {
		items = append(items, map[string]any{
			"menuItemId": int64(line.MenuItemID),
			"quantity":   line.Quantity,
		})
	}
	return structpb.NewStruct(map[string]any{"items": items})
}

func decodeRequest(in *structpb.Struct) (CreateOrderRequest, error) {
	if in == nil {
		return CreateOrderRequest{}, errors.New("request is required")
	}
	list := in.GetFields()["items"].GetListValue()
	if list == nil {
		return CreateOrderRequest{}, errors.New("items must be a list")
	}

	var req CreateOrderRequest
	for idx, value := range list.GetValues() {
		fields := value.GetStructValue().GetFields()
		if fields == nil {
			return CreateOrderRequest{}, fmt.Errorf("items[%d] must be an object", idx)
		}
		id, err := integer(fields["menuItemId"], math.MaxInt64)
		if err != nil {
			return CreateOrderRequest{}, fmt.Errorf("items[%d].menuItemId: %w", idx, err)
		}
		qty, err := integer(fields["quantity"], math.MaxInt32)
		if err != nil {
			return CreateOrderRequest{}, fmt.Errorf("items[%d].quantity: %w", idx, err)
		}
		req.Items = append(req.Items, OrderItem{MenuItemID: id, Quantity: int32(qty)})
	}
	return req, nil
}

func integer(v *structpb.Value, limit float64) (int64, error) {
	if v == nil {
		return 0, errors.New("is required")
	}
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, errors.New("must be a number")
	}
	f := num.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > limit {
		return 0, errors.New("must be an integer")
	}
	return int64(f), nil
}

func encodeReceipt(receipt domain.OrderReceipt) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id": structpb.NewStringValue(receipt.OrderID),
	}}
}

func decodeReceipt(out *structpb.Struct) (string, error) {
	switch v := out.GetFields()["id"].GetKind().(type) {
	case *structpb.Value_StringValue:
		if v.StringValue != "" {
			return v.StringValue, nil
		}
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(v.NumberValue, 'f', -1, 64), nil
	}
	return "", errMissingOrderID
}
