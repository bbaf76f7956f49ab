// Package session хранит корзины и процессы оформления активных сессий в памяти процесса.
package session

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/foodhub/internal/cart"
	"github.com/vladislavdragonenkov/foodhub/internal/checkout"
)

// WorkflowFactory создаёт процесс оформления для новой сессии.
type WorkflowFactory func(sessionID string, ledger *cart.Ledger) *checkout.Workflow

// Session объединяет корзину, процесс оформления и его статус для одного браузера.
type Session struct {
	ID       string
	Ledger   *cart.Ledger
	Workflow *checkout.Workflow

	createdAt time.Time
	lastSeen  atomic.Int64
}

// Touch отмечает активность сессии.
func (s *Session) Touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen возвращает время последней активности.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load()).UTC()
}

// CreatedAt возвращает время создания сессии.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Registry — потокобезопасный реестр сессий.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  WorkflowFactory
	now      func() time.Time
}

// NewRegistry создаёт пустой реестр.
func NewRegistry(factory WorkflowFactory) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		now:      time.Now,
	}
}

// GetOrCreate возвращает сессию по id, создавая её при отсутствии.
// Пустой id означает новую сессию со сгенерированным идентификатором.
func (r *Registry) GetOrCreate(id string) (*Session, bool) {
	now := r.now()

	if id != "" {
		r.mu.RLock()
		s, ok := r.sessions[id]
		r.mu.RUnlock()
		if ok {
			s.Touch(now)
			return s, false
		}
	} else {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.Touch(now)
		return s, false
	}

	ledger := cart.NewLedger()
	s := &Session{
		ID:        id,
		Ledger:    ledger,
		Workflow:  r.factory(id, ledger),
		createdAt: now.UTC(),
	}
	s.Touch(now)
	r.sessions[id] = s
	return s, true
}

// Get возвращает существующую сессию без создания новой.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.Touch(r.now())
	}
	return s, ok
}

// Len возвращает количество активных сессий.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle удаляет не более limit сессий, неактивных с момента before.
// Сессии с незавершённым оформлением не удаляются.
func (r *Registry) EvictIdle(before time.Time, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}
	cutoff := before.UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()

	idle := make([]*Session, 0)
	for _, s := range r.sessions {
		if s.lastSeen.Load() > cutoff {
			continue
		}
		if s.Workflow != nil && s.Workflow.Submitting() {
			continue
		}
		idle = append(idle, s)
	}
	sort.Slice(idle, func(i, j int) bool {
		return idle[i].lastSeen.Load() < idle[j].lastSeen.Load()
	})
	if len(idle) > limit {
		idle = idle[:limit]
	}

	for _, s := range idle {
		delete(r.sessions, s.ID)
	}
	return len(idle), nil
}
