package domain

import "time"

// SubmissionState описывает состояние одной попытки оформления заказа.
type SubmissionState string

const (
	SubmissionStateIdle       SubmissionState = "idle"
	SubmissionStateValidating SubmissionState = "validating"
	SubmissionStateSubmitting SubmissionState = "submitting"
	SubmissionStateSucceeded  SubmissionState = "succeeded"
	SubmissionStateRejected   SubmissionState = "rejected"
)

// Terminal сообщает, завершает ли состояние попытку.
func (s SubmissionState) Terminal() bool {
	return s == SubmissionStateSucceeded || s == SubmissionStateRejected
}

// StatusKind — тип сообщения для пользователя.
type StatusKind string

const (
	StatusKindSuccess StatusKind = "success"
	StatusKindError   StatusKind = "error"
)

// OrderStatus — сообщение о результате последней попытки оформления.
// Не сохраняется и перезаписывается каждой новой попыткой.
type OrderStatus struct {
	Kind    StatusKind
	Message string
}

// SubmissionResult — итог попытки: либо OrderID, либо причина отказа.
type SubmissionResult struct {
	OrderID string
	Err     error
}

// Success строит успешный результат.
func Success(orderID string) SubmissionResult {
	return SubmissionResult{OrderID: orderID}
}

// Failure строит результат с причиной отказа.
func Failure(err error) SubmissionResult {
	return SubmissionResult{Err: err}
}

// Succeeded сообщает, что заказ создан.
func (r SubmissionResult) Succeeded() bool {
	return r.Err == nil && r.OrderID != ""
}

// AttemptRecord — запись журнала попыток оформления заказа.
type AttemptRecord struct {
	ID            string
	SessionID     string
	UserID        string
	State         SubmissionState
	OrderID       string
	Reason        string
	ItemCount     int
	SubtotalMinor int64
	StartedAt     time.Time
	FinishedAt    time.Time
}
