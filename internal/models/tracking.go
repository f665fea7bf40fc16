package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Integration is a registered site whose traffic may be tracked
type Integration struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	URL       string    `json:"url"` // normalized
	Status    bool      `json:"status"`
	Favicon   string    `json:"favicon,omitempty"`
	DateAdded time.Time `json:"dateAdded"`
}

// CreateIntegrationRequest registers a new site for a user
type CreateIntegrationRequest struct {
	UserID  string `json:"uid" validate:"required"`
	URL     string `json:"url" validate:"required,url"`
	Favicon string `json:"favicon,omitempty" validate:"omitempty,url"`
	Status  *bool  `json:"status,omitempty"`
}

// UpdateIntegrationStatusRequest toggles an integration on or off
type UpdateIntegrationStatusRequest struct {
	UserID string `json:"uid" validate:"required"`
	Status *bool  `json:"status" validate:"required"`
}

// TrackingRecord is one persisted, enriched interaction event.
// Payload holds the event exactly as it was received.
type TrackingRecord struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	IntegrationID string           `json:"integrationId"`
	NormalizedURL string           `json:"normalizedUrl"`
	Timestamp     int64            `json:"timestamp"`   // epoch millis, normalized
	ProcessedAt   int64            `json:"processedAt"` // epoch millis, server clock
	Event         InteractionEvent `json:"event"`
	Payload       json.RawMessage  `json:"-"`
}

// BatchError describes one rejected event of an ingestion batch.
// EventIndex is 1-based.
type BatchError struct {
	EventIndex int             `json:"eventIndex"`
	Error      string          `json:"error"`
	RawEvent   json.RawMessage `json:"rawEvent"`
}

// IngestResponse is the body of every 200 answer from /api/track
type IngestResponse struct {
	Success   bool         `json:"success"`
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Errors    []BatchError `json:"errors"`
}
