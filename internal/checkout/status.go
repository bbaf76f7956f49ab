package checkout

import (
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// Тексты сообщений для пользователя.
const (
	MessageLoginRequired    = "Please login to place an order"
	MessageEmptyCart        = "Your cart is empty"
	MessageInProgress       = "Submission already in progress"
	MessageFailed           = "Failed to place order. Please try again."
	MessageTimedOut         = "Order request timed out. Please try again."
	messageSucceededPattern = "Order placed successfully! Order ID: %s"
)

// StatusFor строит сообщение для пользователя по итогу попытки.
func StatusFor(result domain.SubmissionResult) domain.OrderStatus {
	if result.Succeeded() {
		return domain.OrderStatus{
			Kind:    domain.StatusKindSuccess,
			Message: fmt.Sprintf(messageSucceededPattern, result.OrderID),
		}
	}

	message := MessageFailed
	switch {
	case errors.Is(result.Err, domain.ErrNotAuthenticated):
		message = MessageLoginRequired
	case errors.Is(result.Err, domain.ErrEmptyCart):
		message = MessageEmptyCart
	case errors.Is(result.Err, domain.ErrSubmissionInProgress):
		message = MessageInProgress
	case errors.Is(result.Err, domain.ErrOrderTimeout):
		message = MessageTimedOut
	}
	return domain.OrderStatus{Kind: domain.StatusKindError, Message: message}
}
