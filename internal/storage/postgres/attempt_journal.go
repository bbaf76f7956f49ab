package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

const uniqueViolationCode = "23505"

// ErrDuplicateAttempt возвращается при повторной записи попытки с тем же id.
var ErrDuplicateAttempt = errors.New("checkout attempt already recorded")

type attemptJournal struct {
	db *sql.DB
}

// NewAttemptJournal создаёт PostgreSQL-реализацию AttemptJournal.
func NewAttemptJournal(store *Store) domain.AttemptJournal {
	return &attemptJournal{db: store.DB()}
}

func (j *attemptJournal) Append(record domain.AttemptRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO checkout_attempts (
			id, session_id, user_id, state, order_id, reason,
			item_count, subtotal_minor, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		record.ID,
		record.SessionID,
		record.UserID,
		string(record.State),
		record.OrderID,
		record.Reason,
		record.ItemCount,
		record.SubtotalMinor,
		record.StartedAt.UTC(),
		record.FinishedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: %s", ErrDuplicateAttempt, record.ID)
		}
		return fmt.Errorf("insert checkout attempt: %w", err)
	}
	return nil
}

func (j *attemptJournal) ListBySession(sessionID string, limit int) ([]domain.AttemptRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, session_id, user_id, state, order_id, reason,
		       item_count, subtotal_minor, started_at, finished_at
		FROM checkout_attempts
		WHERE session_id = $1
		ORDER BY started_at DESC, id DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query checkout attempts: %w", err)
	}
	defer rows.Close()

	var result []domain.AttemptRecord
	for rows.Next() {
		var (
			record domain.AttemptRecord
			state  string
		)
		if err := rows.Scan(
			&record.ID,
			&record.SessionID,
			&record.UserID,
			&state,
			&record.OrderID,
			&record.Reason,
			&record.ItemCount,
			&record.SubtotalMinor,
			&record.StartedAt,
			&record.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan checkout attempt: %w", err)
		}
		record.State = domain.SubmissionState(state)
		record.StartedAt = record.StartedAt.UTC()
		record.FinishedAt = record.FinishedAt.UTC()
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkout attempts: %w", err)
	}
	return result, nil
}

var _ domain.AttemptJournal = (*attemptJournal)(nil)
