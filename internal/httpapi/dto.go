package httpapi

import (
	"time"

	"github.com/vladislavdragonenkov/foodhub/internal/catalog"
	"github.com/vladislavdragonenkov/foodhub/internal/checkout"
	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/session"
)

type lineItemDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"priceMinor"`
	Price      string `json:"price"`
	Quantity   int32  `json:"quantity"`
	TotalMinor int64  `json:"totalMinor"`
	Total      string `json:"total"`
}

type statusDTO struct {
	Kind    domain.StatusKind `json:"kind"`
	Message string            `json:"message"`
}

type cartDTO struct {
	SessionID     string                 `json:"sessionId"`
	Items         []lineItemDTO          `json:"items"`
	ItemCount     int                    `json:"itemCount"`
	SubtotalMinor int64                  `json:"subtotalMinor"`
	Subtotal      string                 `json:"subtotal"`
	DeliveryMinor int64                  `json:"deliveryMinor"`
	TotalMinor    int64                  `json:"totalMinor"`
	Total         string                 `json:"total"`
	Version       uint64                 `json:"version"`
	State         domain.SubmissionState `json:"state"`
	Submitting    bool                   `json:"submitting"`
	Status        *statusDTO             `json:"status,omitempty"`
}

type attemptDTO struct {
	AttemptID     string                   `json:"attemptId"`
	State         domain.SubmissionState   `json:"state"`
	Transitions   []domain.SubmissionState `json:"transitions"`
	OrderID       string                   `json:"orderId,omitempty"`
	Reason        string                   `json:"reason,omitempty"`
	Status        statusDTO                `json:"status"`
	ItemCount     int                      `json:"itemCount"`
	SubtotalMinor int64                    `json:"subtotalMinor"`
	StartedAt     time.Time                `json:"startedAt"`
	FinishedAt    time.Time                `json:"finishedAt"`
	Cart          cartDTO                  `json:"cart"`
}

type attemptRecordDTO struct {
	AttemptID     string                 `json:"attemptId"`
	UserID        string                 `json:"userId,omitempty"`
	State         domain.SubmissionState `json:"state"`
	OrderID       string                 `json:"orderId,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
	ItemCount     int                    `json:"itemCount"`
	SubtotalMinor int64                  `json:"subtotalMinor"`
	StartedAt     time.Time              `json:"startedAt"`
	FinishedAt    time.Time              `json:"finishedAt"`
}

type addItemRequest struct {
	RestaurantID int64 `json:"restaurantId"`
	MenuItemID   int64 `json:"menuItemId"`
}

type setQuantityRequest struct {
	Quantity *int32 `json:"quantity"`
}

func toCartDTO(s *session.Session, snapshot domain.CartSnapshot) cartDTO {
	items := make([]lineItemDTO, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		items = append(items, lineItemDTO{
			ID:         int64(item.ID),
			Name:       item.Name,
			PriceMinor: item.PriceMinor,
			Price:      catalog.FormatMinor(item.PriceMinor),
			Quantity:   item.Qty,
			TotalMinor: item.TotalMinor(),
			Total:      catalog.FormatMinor(item.TotalMinor()),
		})
	}

	dto := cartDTO{
		SessionID:     s.ID,
		Items:         items,
		ItemCount:     snapshot.ItemCount,
		SubtotalMinor: snapshot.SubtotalMinor,
		Subtotal:      catalog.FormatMinor(snapshot.SubtotalMinor),
		DeliveryMinor: snapshot.DeliveryMinor,
		TotalMinor:    snapshot.TotalMinor,
		Total:         catalog.FormatMinor(snapshot.TotalMinor),
		Version:       snapshot.Version,
		State:         s.Workflow.State(),
		Submitting:    s.Workflow.Submitting(),
	}
	if status, ok := s.Workflow.Status(); ok {
		dto.Status = &statusDTO{Kind: status.Kind, Message: status.Message}
	}
	return dto
}

func toAttemptDTO(s *session.Session, attempt checkout.Attempt) attemptDTO {
	return attemptDTO{
		AttemptID:     attempt.ID,
		State:         attempt.State(),
		Transitions:   attempt.Transitions,
		OrderID:       attempt.Result.OrderID,
		Reason:        domain.ReasonOf(attempt.Result.Err),
		Status:        statusDTO{Kind: attempt.Status.Kind, Message: attempt.Status.Message},
		ItemCount:     attempt.ItemCount,
		SubtotalMinor: attempt.SubtotalMinor,
		StartedAt:     attempt.StartedAt,
		FinishedAt:    attempt.FinishedAt,
		Cart:          toCartDTO(s, s.Ledger.Snapshot()),
	}
}

func toAttemptRecordDTOs(records []domain.AttemptRecord) []attemptRecordDTO {
	result := make([]attemptRecordDTO, 0, len(records))
	for _, r := range records {
		result = append(result, attemptRecordDTO{
			AttemptID:     r.ID,
			UserID:        r.UserID,
			State:         r.State,
			OrderID:       r.OrderID,
			Reason:        r.Reason,
			ItemCount:     r.ItemCount,
			SubtotalMinor: r.SubtotalMinor,
			StartedAt:     r.StartedAt,
			FinishedAt:    r.FinishedAt,
		})
	}
	return result
}
