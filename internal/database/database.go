package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	logger *zap.Logger
}

func New(storagePath string, logger *zap.Logger) (*DB, error) {
	if dir := filepath.Dir(storagePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := storagePath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer connection keeps concurrent ingestion from hitting SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &DB{
		DB:     db,
		logger: logger,
	}

	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established", zap.String("path", storagePath))
	return database, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// Registered sites, looked up by normalized URL on every ingested event
		`CREATE TABLE IF NOT EXISTS integrations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			url TEXT NOT NULL,
			status INTEGER NOT NULL DEFAULT 1,
			favicon TEXT NOT NULL DEFAULT '',
			date_added INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_integrations_url_status ON integrations(url, status)`,
		`CREATE INDEX IF NOT EXISTS idx_integrations_user ON integrations(user_id)`,
		// One row per accepted event, append-only
		`CREATE TABLE IF NOT EXISTS tracking_records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			integration_id TEXT NOT NULL REFERENCES integrations(id) ON DELETE CASCADE,
			normalized_url TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			processed_at INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_records_owner_ts ON tracking_records(user_id, integration_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS analytics_snapshots (
			id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			integration_id TEXT NOT NULL REFERENCES integrations(id) ON DELETE CASCADE,
			timestamp INTEGER NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (integration_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_snapshots_owner_ts ON analytics_snapshots(user_id, integration_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS insights (
			id TEXT PRIMARY KEY,
			analytics_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			integration_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			confidence INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			FOREIGN KEY (integration_id, analytics_id) REFERENCES analytics_snapshots(integration_id, id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_analytics ON insights(integration_id, analytics_id)`,
		// Local event mirror (sqlite backend)
		`CREATE TABLE IF NOT EXISTS mirror_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			payload TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	db.logger.Info("Database migrations completed")
	return nil
}

// Ping checks the store is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.logger.Info("Database connection closed")
	return nil
}
