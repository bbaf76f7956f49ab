package domain

import (
	"context"
	"time"
)

// IdentityProvider отдаёт текущего пользователя. Синхронный, без побочных эффектов.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (Identity, bool)
}

// MenuCatalog — источник карточек ресторанов и позиций меню, только чтение.
type MenuCatalog interface {
	Restaurant(ctx context.Context, id int64) (Restaurant, error)
	MenuItem(ctx context.Context, restaurantID int64, itemID ItemID) (MenuItem, error)
}

// OrderService — удалённый сервис создания заказов.
type OrderService interface {
	// CreateOrder вызывается не более одного раза на попытку оформления.
	CreateOrder(ctx context.Context, req OrderRequest) (OrderReceipt, error)
}

// AttemptJournal хранит историю попыток оформления заказа.
type AttemptJournal interface {
	Append(record AttemptRecord) error
	ListBySession(sessionID string, limit int) ([]AttemptRecord, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(ctx context.Context, event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
