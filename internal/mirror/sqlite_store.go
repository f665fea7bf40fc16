package mirror

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// SQLiteStore keeps mirrored events in the mirror_events table
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteStore(db *sql.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

func (s *SQLiteStore) Append(ctx context.Context, events []json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO mirror_events (payload) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		if _, err := stmt.ExecContext(ctx, string(event)); err != nil {
			return fmt.Errorf("failed to insert mirror event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("Mirror events stored", zap.Int("count", len(events)))
	return nil
}

// Load returns all rows in insertion order. Rows that are not valid JSON
// are removed.
func (s *SQLiteStore) Load(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload FROM mirror_events ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mirror events: %w", err)
	}
	defer rows.Close()

	events := []json.RawMessage{}
	var corrupted []int64
	for rows.Next() {
		var id int64
		var payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan mirror event: %w", err)
		}
		if !json.Valid([]byte(payload)) {
			s.logger.Error("Corrupted mirror event", zap.Int64("id", id))
			corrupted = append(corrupted, id)
			continue
		}
		events = append(events, json.RawMessage(payload))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mirror events: %w", err)
	}

	for _, id := range corrupted {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM mirror_events WHERE id = ?`, id); err != nil {
			s.logger.Warn("Failed to remove corrupted mirror event", zap.Int64("id", id), zap.Error(err))
		}
	}

	return events, nil
}

// Close is a no-op; the database is owned by the caller
func (s *SQLiteStore) Close() error { return nil }
