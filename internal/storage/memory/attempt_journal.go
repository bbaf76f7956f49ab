package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// AttemptJournal хранит попытки оформления заказа в памяти (для разработки/тестов).
type AttemptJournal struct {
	mu       sync.RWMutex
	sessions map[string][]domain.AttemptRecord
}

// NewAttemptJournal создаёт in-memory журнал попыток.
func NewAttemptJournal() *AttemptJournal {
	return &AttemptJournal{sessions: make(map[string][]domain.AttemptRecord)}
}

// Append добавляет запись в журнал сессии.
func (j *AttemptJournal) Append(record domain.AttemptRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.sessions[record.SessionID] = append(j.sessions[record.SessionID], record)
	return nil
}

// ListBySession возвращает последние limit попыток сессии, новые первыми.
// limit <= 0 снимает ограничение.
func (j *AttemptJournal) ListBySession(sessionID string, limit int) ([]domain.AttemptRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	records := j.sessions[sessionID]
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}

	result := make([]domain.AttemptRecord, 0, limit)
	for i := len(records) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, records[i])
	}
	return result, nil
}

// Forget удаляет журнал сессии.
func (j *AttemptJournal) Forget(sessionID string) {
	j.mu.Lock()
	delete(j.sessions, sessionID)
	j.mu.Unlock()
}

var _ domain.AttemptJournal = (*AttemptJournal)(nil)
