package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated — оформление без аутентифицированного пользователя.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEmptyCart — оформление пустой корзины.
	ErrEmptyCart = errors.New("empty cart")
	// ErrSubmissionInProgress — предыдущая попытка оформления ещё не завершилась.
	ErrSubmissionInProgress = errors.New("submission already in progress")

	// ErrOrderNetwork — сетевая ошибка при обращении к сервису заказов.
	ErrOrderNetwork = errors.New("order service unreachable")
	// ErrOrderRejected — сервис заказов ответил отказом (не-2xx).
	ErrOrderRejected = errors.New("order rejected by server")
	// ErrOrderTimeout — сервис заказов не ответил за отведённое время.
	ErrOrderTimeout = errors.New("order request timed out")

	// ErrRestaurantNotFound возвращается каталогом для неизвестного ресторана.
	ErrRestaurantNotFound = errors.New("restaurant not found")
	// ErrMenuItemNotFound возвращается каталогом для неизвестной позиции меню.
	ErrMenuItemNotFound = errors.New("menu item not found")
	// ErrInvalidPrice — цена в каталоге отрицательная, слишком большая или точнее минимальной единицы.
	ErrInvalidPrice = errors.New("invalid menu item price")
	// ErrQuantityTooLarge — запрошенное количество больше MaxLineQuantity.
	ErrQuantityTooLarge = errors.New("quantity exceeds the per-item limit")

	// ErrSessionNotFound возвращается реестром сессий.
	ErrSessionNotFound = errors.New("session not found")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// ValidationKind перечисляет локальные причины отказа, при которых сервис заказов не вызывается.
type ValidationKind string

const (
	ValidationNotAuthenticated ValidationKind = "not-authenticated"
	ValidationEmptyCart        ValidationKind = "empty-cart"
	ValidationInProgress       ValidationKind = "in-progress"
)

// ValidationError — отказ, обнаруженный до обращения к сервису заказов.
type ValidationError struct {
	Kind ValidationKind
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Unwrap().Error()
}

func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case ValidationNotAuthenticated:
		return ErrNotAuthenticated
	case ValidationEmptyCart:
		return ErrEmptyCart
	case ValidationInProgress:
		return ErrSubmissionInProgress
	default:
		return fmt.Errorf("unknown validation kind %q", string(e.Kind))
	}
}

// SubmissionKind классифицирует ошибки удалённого вызова.
type SubmissionKind string

const (
	SubmissionNetwork  SubmissionKind = "network"
	SubmissionRejected SubmissionKind = "rejected-by-server"
	SubmissionTimeout  SubmissionKind = "timeout"
)

// SubmissionError — ошибка, полученная от сервиса заказов или транспорта.
type SubmissionError struct {
	Kind SubmissionKind
	// StatusCode — HTTP- или gRPC-код ответа, если он был получен.
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
}

// Unwrap позволяет проверять и класс ошибки (ErrOrder*), и исходную причину.
func (e *SubmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

func (e *SubmissionError) sentinel() error {
	switch e.Kind {
	case SubmissionTimeout:
		return ErrOrderTimeout
	case SubmissionRejected:
		return ErrOrderRejected
	default:
		return ErrOrderNetwork
	}
}

// ReasonOf возвращает машинно-читаемую причину отказа для метрик и журнала.
func ReasonOf(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return string(validationErr.Kind)
	}
	var submissionErr *SubmissionError
	if errors.As(err, &submissionErr) {
		return string(submissionErr.Kind)
	}
	if err == nil {
		return ""
	}
	return string(SubmissionNetwork)
}
