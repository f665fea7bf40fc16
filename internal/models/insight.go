package models

import "time"

// DateRange selects the window of tracking records an analysis reads
type DateRange string

const (
	Range24h DateRange = "24h"
	Range7d  DateRange = "7d"
	Range30d DateRange = "30d"
)

// AnalyticsSnapshot groups the insights of one generation run
type AnalyticsSnapshot struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	IntegrationID string    `json:"integrationId"`
	Timestamp     time.Time `json:"timestamp"`
	Summary       string    `json:"summary,omitempty"`
	Insights      []Insight `json:"insights,omitempty"`
}

// Insight is one AI-derived observation. Confidence is on a 0-100 scale.
type Insight struct {
	ID            string    `json:"id"`
	AnalyticsID   string    `json:"analyticsId"`
	UserID        string    `json:"userId"`
	IntegrationID string    `json:"integrationId"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Confidence    int       `json:"confidence"`
	Timestamp     time.Time `json:"timestamp"`
}

// GenerateInsightsRequest is the body of /api/generate-insights
type GenerateInsightsRequest struct {
	IntegrationID string `json:"integrationId" validate:"required"`
	DateRange     string `json:"dateRange"`
	UserID        string `json:"uid" validate:"required"`
}

// GenerateInsightsResponse answers a successful generation
type GenerateInsightsResponse struct {
	Success     bool   `json:"success"`
	AnalyticsID string `json:"analyticsId"`
	Count       int    `json:"count"`
}

// GenerateSummaryRequest is the body of /api/generate-summary
type GenerateSummaryRequest struct {
	IntegrationID string `json:"integrationId" validate:"required"`
	UserID        string `json:"uid" validate:"required"`
}
