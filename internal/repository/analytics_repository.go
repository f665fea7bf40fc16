package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Mansoor88-6/interaction-insights/internal/models"

	"github.com/google/uuid"
)

// AnalyticsRepository stores generation snapshots and their insights
type AnalyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) CreateSnapshot(ctx context.Context, snapshot *models.AnalyticsSnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analytics_snapshots (id, user_id, integration_id, timestamp, summary)
		VALUES (?, ?, ?, ?, ?)
	`,
		snapshot.ID,
		snapshot.UserID,
		snapshot.IntegrationID,
		snapshot.Timestamp.UnixMilli(),
		snapshot.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to create analytics snapshot: %w", err)
	}
	return nil
}

// InsertInsights writes all insights of a snapshot in one transaction.
// Either every insight is stored or none is.
func (r *AnalyticsRepository) InsertInsights(ctx context.Context, insights []models.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO insights (id, analytics_id, user_id, integration_id, title, content, confidence, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range insights {
		insight := &insights[i]
		if insight.ID == "" {
			insight.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx,
			insight.ID,
			insight.AnalyticsID,
			insight.UserID,
			insight.IntegrationID,
			insight.Title,
			insight.Content,
			insight.Confidence,
			insight.Timestamp.UnixMilli(),
		); err != nil {
			return fmt.Errorf("failed to insert insight %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot of an integration, without insights
func (r *AnalyticsRepository) Latest(ctx context.Context, userID, integrationID string) (*models.AnalyticsSnapshot, error) {
	var (
		snapshot  models.AnalyticsSnapshot
		timestamp int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, integration_id, timestamp, summary
		FROM analytics_snapshots
		WHERE user_id = ? AND integration_id = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, userID, integrationID).Scan(
		&snapshot.ID,
		&snapshot.UserID,
		&snapshot.IntegrationID,
		&timestamp,
		&snapshot.Summary,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	snapshot.Timestamp = time.UnixMilli(timestamp).UTC()
	return &snapshot, nil
}

func (r *AnalyticsRepository) ListInsights(ctx context.Context, integrationID, analyticsID string) ([]models.Insight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, analytics_id, user_id, integration_id, title, content, confidence, timestamp
		FROM insights
		WHERE integration_id = ? AND analytics_id = ?
		ORDER BY rowid ASC
	`, integrationID, analyticsID)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	insights := []models.Insight{}
	for rows.Next() {
		var (
			insight   models.Insight
			timestamp int64
		)
		if err := rows.Scan(
			&insight.ID,
			&insight.AnalyticsID,
			&insight.UserID,
			&insight.IntegrationID,
			&insight.Title,
			&insight.Content,
			&insight.Confidence,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		insight.Timestamp = time.UnixMilli(timestamp).UTC()
		insights = append(insights, insight)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return insights, nil
}

func (r *AnalyticsRepository) UpdateSummary(ctx context.Context, integrationID, analyticsID, summary string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE analytics_snapshots SET summary = ? WHERE integration_id = ? AND id = ?
	`, summary, integrationID, analyticsID)
	if err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}
	if err := expectRow(result); err != nil {
		return fmt.Errorf("snapshot %s: %w", analyticsID, err)
	}
	return nil
}
