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

type IntegrationRepository struct {
	db *sql.DB
}

func NewIntegrationRepository(db *sql.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

// Create stores a new integration. ID and DateAdded are filled when empty.
// The URL is stored as given; callers normalize it first.
func (r *IntegrationRepository) Create(ctx context.Context, integration *models.Integration) error {
	if integration.ID == "" {
		integration.ID = uuid.NewString()
	}
	if integration.DateAdded.IsZero() {
		integration.DateAdded = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO integrations (id, user_id, url, status, favicon, date_added)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		integration.ID,
		integration.UserID,
		integration.URL,
		integration.Status,
		integration.Favicon,
		integration.DateAdded.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to create integration: %w", err)
	}
	return nil
}

const integrationColumns = `id, user_id, url, status, favicon, date_added`

func scanIntegration(row interface{ Scan(...any) error }) (*models.Integration, error) {
	var (
		integration models.Integration
		dateAdded   int64
	)
	if err := row.Scan(
		&integration.ID,
		&integration.UserID,
		&integration.URL,
		&integration.Status,
		&integration.Favicon,
		&dateAdded,
	); err != nil {
		return nil, err
	}
	integration.DateAdded = time.UnixMilli(dateAdded).UTC()
	return &integration, nil
}

func (r *IntegrationRepository) GetByID(ctx context.Context, id string) (*models.Integration, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+integrationColumns+` FROM integrations WHERE id = ?`, id)

	integration, err := scanIntegration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("integration %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return integration, nil
}

func (r *IntegrationRepository) ListByUser(ctx context.Context, userID string) ([]*models.Integration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+integrationColumns+`
		FROM integrations
		WHERE user_id = ?
		ORDER BY date_added DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query integrations: %w", err)
	}
	defer rows.Close()

	integrations := []*models.Integration{}
	for rows.Next() {
		integration, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		integrations = append(integrations, integration)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return integrations, nil
}

// FindActiveByURL returns one active integration registered for the
// normalized URL, across all users
func (r *IntegrationRepository) FindActiveByURL(ctx context.Context, normalizedURL string) (*models.Integration, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+integrationColumns+`
		FROM integrations
		WHERE url = ? AND status = 1
		ORDER BY date_added ASC
		LIMIT 1
	`, normalizedURL)

	integration, err := scanIntegration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find integration: %w", err)
	}
	return integration, nil
}

// SetStatus toggles an integration owned by userID
func (r *IntegrationRepository) SetStatus(ctx context.Context, userID, id string, status bool) (*models.Integration, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE integrations SET status = ? WHERE id = ? AND user_id = ?`, status, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update integration: %w", err)
	}
	if err := expectRow(result); err != nil {
		return nil, fmt.Errorf("integration %s: %w", id, err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes an integration owned by userID together with its
// tracking records, snapshots and insights
func (r *IntegrationRepository) Delete(ctx context.Context, userID, id string) (*models.Integration, error) {
	integration, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if integration.UserID != userID {
		return nil, fmt.Errorf("integration %s: %w", id, ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM integrations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete integration: %w", err)
	}
	if err := expectRow(result); err != nil {
		return nil, fmt.Errorf("integration %s: %w", id, err)
	}
	return integration, nil
}

func expectRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
