package repository

import (
	"context"
	"database/sql"
	"fmt"

	"Mansoor88-6/interaction-insights/internal/models"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TrackingRepository is the append-only store of accepted events
type TrackingRepository struct {
	db *sql.DB
}

func NewTrackingRepository(db *sql.DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

// Insert appends one record and returns its generated id. The raw payload
// is stored when present, otherwise the decoded event is re-encoded.
func (r *TrackingRepository) Insert(ctx context.Context, record *models.TrackingRecord) (string, error) {
	payload := record.Payload
	if len(payload) == 0 {
		encoded, err := json.Marshal(record.Event)
		if err != nil {
			return "", fmt.Errorf("failed to encode event: %w", err)
		}
		payload = encoded
	}

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracking_records (id, user_id, integration_id, normalized_url, timestamp, processed_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		record.UserID,
		record.IntegrationID,
		record.NormalizedURL,
		record.Timestamp,
		record.ProcessedAt,
		string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert tracking record: %w", err)
	}

	record.ID = id
	return id, nil
}

// ListSince returns the records of one integration with timestamp >= sinceMillis,
// oldest first
func (r *TrackingRepository) ListSince(ctx context.Context, userID, integrationID string, sinceMillis int64) ([]models.TrackingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, integration_id, normalized_url, timestamp, processed_at, payload
		FROM tracking_records
		WHERE user_id = ? AND integration_id = ? AND timestamp >= ?
		ORDER BY timestamp ASC
	`, userID, integrationID, sinceMillis)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracking records: %w", err)
	}
	defer rows.Close()

	records := []models.TrackingRecord{}
	for rows.Next() {
		var (
			record  models.TrackingRecord
			payload string
		)
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.IntegrationID,
			&record.NormalizedURL,
			&record.Timestamp,
			&record.ProcessedAt,
			&payload,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tracking record: %w", err)
		}

		record.Payload = json.RawMessage(payload)
		if err := json.Unmarshal(record.Payload, &record.Event); err != nil {
			return nil, fmt.Errorf("failed to decode tracking record %s: %w", record.ID, err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}
