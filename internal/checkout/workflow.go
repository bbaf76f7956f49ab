// Package checkout реализует процесс оформления заказа из корзины сессии.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/cart"
	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/messaging/kafka"
)

var errEmptyOrderID = errors.New("order service returned empty order id")

// Cart — часть корзины, которая нужна процессу оформления.
type Cart interface {
	Snapshot() domain.CartSnapshot
	Clear()
}

// Attempt описывает одну попытку оформления заказа.
type Attempt struct {
	ID          string
	Transitions []domain.SubmissionState
	Result      domain.SubmissionResult
	Status      domain.OrderStatus
	// Lines — отправленные строки; пусто, если сервис заказов не вызывался.
	Lines         []domain.OrderLine
	ItemCount     int
	SubtotalMinor int64
	StartedAt     time.Time
	FinishedAt    time.Time

	// owner выставлен у попытки, захватившей inFlight.
	owner bool
}

// State возвращает последнее состояние попытки.
func (a Attempt) State() domain.SubmissionState {
	if len(a.Transitions) == 0 {
		return domain.SubmissionStateIdle
	}
	return a.Transitions[len(a.Transitions)-1]
}

// Workflow оформляет заказ из корзины одной сессии.
// Повторные попытки выполняются только по явному вызову Submit.
type Workflow struct {
	sessionID string
	cart      Cart
	identity  domain.IdentityProvider
	orders    domain.OrderService
	opts      workflowOptions

	// inFlight выставлен, пока попытка ждёт ответа сервиса заказов.
	inFlight atomic.Bool

	mu        sync.RWMutex
	state     domain.SubmissionState
	status    domain.OrderStatus
	hasStatus bool
}

// NewWorkflow создаёт процесс оформления для корзины сессии.
func NewWorkflow(sessionID string, c Cart, identity domain.IdentityProvider, orders domain.OrderService, options ...Option) *Workflow {
	opts := workflowOptions{timeout: DefaultSubmitTimeout, now: time.Now}
	for _, option := range options {
		option(&opts)
	}
	if opts.timeout <= 0 {
		opts.timeout = DefaultSubmitTimeout
	}
	if opts.logger == nil {
		opts.logger = log.WithField("component", "checkout")
	}
	opts.logger = opts.logger.WithField("session_id", sessionID)

	return &Workflow{
		sessionID: sessionID,
		cart:      c,
		identity:  identity,
		orders:    orders,
		opts:      opts,
		state:     domain.SubmissionStateIdle,
	}
}

// State возвращает состояние последней попытки.
func (w *Workflow) State() domain.SubmissionState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Status возвращает сообщение последней попытки; false, если попыток ещё не было.
func (w *Workflow) Status() (domain.OrderStatus, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status, w.hasStatus
}

// Submitting сообщает, ждёт ли сессия ответа сервиса заказов.
func (w *Workflow) Submitting() bool {
	return w.inFlight.Load()
}

// Submit выполняет одну попытку оформления. Ошибки не возвращаются:
// любой отказ отражается в Attempt.Result и в статусе сессии.
func (w *Workflow) Submit(ctx context.Context) Attempt {
	attempt := Attempt{
		ID:          uuid.NewString(),
		Transitions: []domain.SubmissionState{domain.SubmissionStateIdle},
		StartedAt:   w.opts.now(),
	}
	logger := w.opts.logger.WithField("attempt_id", attempt.ID)

	w.transition(&attempt, domain.SubmissionStateValidating)

	user, ok := w.identity.CurrentUser(ctx)
	if !ok || user.UserID == "" {
		return w.finish(logger, attempt, user, domain.Failure(&domain.ValidationError{Kind: domain.ValidationNotAuthenticated}))
	}

	snapshot := w.cart.Snapshot()
	attempt.ItemCount = snapshot.ItemCount
	attempt.SubtotalMinor = snapshot.SubtotalMinor
	if snapshot.Empty() {
		return w.finish(logger, attempt, user, domain.Failure(&domain.ValidationError{Kind: domain.ValidationEmptyCart}))
	}

	if !w.inFlight.CompareAndSwap(false, true) {
		return w.finish(logger, attempt, user, domain.Failure(&domain.ValidationError{Kind: domain.ValidationInProgress}))
	}
	defer w.inFlight.Store(false)
	attempt.owner = true

	attempt.Lines = cart.OrderLines(snapshot.Items)
	w.transition(&attempt, domain.SubmissionStateSubmitting)

	result := w.callOrderService(ctx, logger, domain.OrderRequest{
		IdempotencyKey: attempt.ID,
		Customer:       user,
		Lines:          attempt.Lines,
	})
	if result.Succeeded() {
		w.cart.Clear()
	}
	return w.finish(logger, attempt, user, result)
}

func (w *Workflow) callOrderService(ctx context.Context, logger *log.Entry, req domain.OrderRequest) (result domain.SubmissionResult) {
	if w.opts.metrics != nil {
		w.opts.metrics.RecordInFlightStarted()
		defer w.opts.metrics.RecordInFlightFinished()
	}

	// Попытку нельзя отменить: отключение клиента не прерывает вызов, ограничивает только таймаут.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.opts.timeout)
	defer cancel()

	start := w.opts.now()
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("order service panicked")
			result = domain.Failure(&domain.SubmissionError{Kind: domain.SubmissionNetwork, Err: fmt.Errorf("order service panic: %v", r)})
		}
		if w.opts.metrics != nil {
			outcome := domain.ReasonOf(result.Err)
			if outcome == "" {
				outcome = "ok"
			}
			w.opts.metrics.RecordRemoteCall(outcome, w.opts.now().Sub(start))
		}
	}()

	logger.WithField("lines", len(req.Lines)).Debug("submitting order")

	receipt, err := w.orders.CreateOrder(callCtx, req)
	if err != nil {
		return domain.Failure(classify(callCtx, err))
	}
	if receipt.OrderID == "" {
		return domain.Failure(&domain.SubmissionError{Kind: domain.SubmissionRejected, Err: errEmptyOrderID})
	}
	return domain.Success(receipt.OrderID)
}

// classify приводит ошибку транспорта к SubmissionError.
func classify(ctx context.Context, err error) error {
	var submissionErr *domain.SubmissionError
	if errors.As(err, &submissionErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.SubmissionError{Kind: domain.SubmissionTimeout, Err: err}
	}
	return &domain.SubmissionError{Kind: domain.SubmissionNetwork, Err: err}
}

func (w *Workflow) transition(attempt *Attempt, state domain.SubmissionState) {
	attempt.Transitions = append(attempt.Transitions, state)
	w.publishState(attempt, state)
}

// publishState обновляет состояние сессии. Пока попытка ждёт ответа сервиса заказов,
// состояние меняет только она.
func (w *Workflow) publishState(attempt *Attempt, state domain.SubmissionState) {
	w.mu.Lock()
	if attempt.owner || !w.inFlight.Load() {
		w.state = state
	}
	w.mu.Unlock()
}

func (w *Workflow) finish(logger *log.Entry, attempt Attempt, user domain.Identity, result domain.SubmissionResult) Attempt {
	terminal := domain.SubmissionStateRejected
	if result.Succeeded() {
		terminal = domain.SubmissionStateSucceeded
	}

	attempt.Result = result
	attempt.Status = StatusFor(result)
	attempt.FinishedAt = w.opts.now()
	attempt.Transitions = append(attempt.Transitions, terminal)

	w.publishState(&attempt, terminal)
	w.mu.Lock()
	w.status = attempt.Status
	w.hasStatus = true
	w.mu.Unlock()

	reason := domain.ReasonOf(result.Err)
	fields := log.Fields{
		"state":      terminal,
		"item_count": attempt.ItemCount,
	}
	if result.Succeeded() {
		fields["order_id"] = result.OrderID
		logger.WithFields(fields).Info("order placed")
	} else {
		fields["reason"] = reason
		logger.WithFields(fields).WithError(result.Err).Warn("checkout rejected")
	}

	record := domain.AttemptRecord{
		ID:            attempt.ID,
		SessionID:     w.sessionID,
		UserID:        user.UserID,
		State:         terminal,
		OrderID:       result.OrderID,
		Reason:        reason,
		ItemCount:     attempt.ItemCount,
		SubtotalMinor: attempt.SubtotalMinor,
		StartedAt:     attempt.StartedAt,
		FinishedAt:    attempt.FinishedAt,
	}
	w.journal(logger, record)
	w.emitEvent(logger, record)

	if w.opts.metrics != nil {
		w.opts.metrics.RecordAttempt(string(terminal), reason, attempt.FinishedAt.Sub(attempt.StartedAt))
	}
	return attempt
}

func (w *Workflow) journal(logger *log.Entry, record domain.AttemptRecord) {
	if w.opts.journal == nil {
		return
	}
	if err := w.opts.journal.Append(record); err != nil {
		logger.WithError(err).Warn("append checkout attempt failed")
	}
}

func (w *Workflow) emitEvent(logger *log.Entry, record domain.AttemptRecord) {
	if w.opts.outbox == nil {
		return
	}

	event := kafka.NewCheckoutEvent(record.ID, record.SessionID, record.UserID, record.OrderID, record.Reason, record.ItemCount, record.SubtotalMinor)
	data, err := json.Marshal(event)
	if err != nil {
		logger.WithError(err).Error("marshal checkout event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: kafka.AggregateCheckout,
		AggregateID:   record.ID,
		EventType:     string(event.EventType),
		Payload:       data,
	}
	if _, err := w.opts.outbox.Enqueue(msg); err != nil {
		logger.WithError(err).WithField("event", event.EventType).Error("enqueue checkout event failed")
		return
	}
	if w.opts.metrics != nil {
		w.opts.metrics.RecordOutboxEvent()
	}
}
