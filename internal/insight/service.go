package insight

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"Mansoor88-6/interaction-insights/internal/metrics"
	"Mansoor88-6/interaction-insights/internal/models"
	"Mansoor88-6/interaction-insights/internal/repository"

	"go.uber.org/zap"
)

// ErrNoAnalytics is returned when an integration has no snapshot yet
var ErrNoAnalytics = errors.New("no analytics data found")

// Analyzer turns tracking records into an analysis
type Analyzer interface {
	Analyze(ctx context.Context, records []models.TrackingRecord) (*models.AnalysisResult, error)
}

// Summarizer condenses a snapshot's insights into prose
type Summarizer interface {
	Summarize(ctx context.Context, insights []models.Insight) (string, error)
}

// RecordReader reads the tracking records of an integration
type RecordReader interface {
	ListSince(ctx context.Context, userID, integrationID string, sinceMillis int64) ([]models.TrackingRecord, error)
}

// SnapshotStore persists snapshots and their insights
type SnapshotStore interface {
	CreateSnapshot(ctx context.Context, snapshot *models.AnalyticsSnapshot) error
	InsertInsights(ctx context.Context, insights []models.Insight) error
	Latest(ctx context.Context, userID, integrationID string) (*models.AnalyticsSnapshot, error)
	ListInsights(ctx context.Context, integrationID, analyticsID string) ([]models.Insight, error)
	UpdateSummary(ctx context.Context, integrationID, analyticsID, summary string) error
}

type Service struct {
	records    RecordReader
	snapshots  SnapshotStore
	analyzer   Analyzer
	summarizer Summarizer
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(records RecordReader, snapshots SnapshotStore, analyzer Analyzer, summarizer Summarizer, logger *zap.Logger) *Service {
	return &Service{
		records:    records,
		snapshots:  snapshots,
		analyzer:   analyzer,
		summarizer: summarizer,
		now:        time.Now,
		logger:     logger,
	}
}

// GenerateInsights analyzes the records in the window and stores a new
// snapshot. The snapshot is written first; its insights follow in one
// atomic commit. With no records in the window the analyzer is skipped and
// an empty snapshot is stored.
func (s *Service) GenerateInsights(ctx context.Context, userID, integrationID, dateRange string) (string, int, error) {
	analyticsID, count, err := s.generateInsights(ctx, userID, integrationID, dateRange)
	metrics.RecordGeneration("insights", err)
	return analyticsID, count, err
}

func (s *Service) generateInsights(ctx context.Context, userID, integrationID, dateRange string) (string, int, error) {
	now := s.now()
	start := StartDate(dateRange, now)

	records, err := s.records.ListSince(ctx, userID, integrationID, start.UnixMilli())
	if err != nil {
		return "", 0, fmt.Errorf("failed to read tracking records: %w", err)
	}

	insights := []models.Insight{}
	if len(records) > 0 {
		analysis, err := s.analyzer.Analyze(ctx, records)
		if err != nil {
			return "", 0, fmt.Errorf("failed to analyze interactions: %w", err)
		}
		insights = ConvertAnalysis(analysis)
	}

	analyticsID := strconv.FormatInt(now.UnixMilli(), 10)
	snapshot := &models.AnalyticsSnapshot{
		ID:            analyticsID,
		UserID:        userID,
		IntegrationID: integrationID,
		Timestamp:     now,
	}
	if err := s.snapshots.CreateSnapshot(ctx, snapshot); err != nil {
		return "", 0, err
	}

	for i := range insights {
		insights[i].AnalyticsID = analyticsID
		insights[i].UserID = userID
		insights[i].IntegrationID = integrationID
		insights[i].Timestamp = now
	}
	if err := s.snapshots.InsertInsights(ctx, insights); err != nil {
		return "", 0, err
	}
	metrics.InsightsWritten.Add(float64(len(insights)))

	s.logger.Info("Generated insights",
		zap.String("user_id", userID),
		zap.String("integration_id", integrationID),
		zap.String("analytics_id", analyticsID),
		zap.Int("records", len(records)),
		zap.Int("insights", len(insights)),
	)
	return analyticsID, len(insights), nil
}

// GenerateSummary summarizes the latest snapshot and stores the text on it
func (s *Service) GenerateSummary(ctx context.Context, userID, integrationID string) error {
	err := s.generateSummary(ctx, userID, integrationID)
	metrics.RecordGeneration("summary", err)
	return err
}

func (s *Service) generateSummary(ctx context.Context, userID, integrationID string) error {
	latest, err := s.latestSnapshot(ctx, userID, integrationID)
	if err != nil {
		return err
	}

	insights, err := s.snapshots.ListInsights(ctx, integrationID, latest.ID)
	if err != nil {
		return fmt.Errorf("failed to read insights: %w", err)
	}

	summary, err := s.summarizer.Summarize(ctx, insights)
	if err != nil {
		return fmt.Errorf("failed to summarize insights: %w", err)
	}

	if err := s.snapshots.UpdateSummary(ctx, integrationID, latest.ID, summary); err != nil {
		return err
	}

	s.logger.Info("Generated summary",
		zap.String("integration_id", integrationID),
		zap.String("analytics_id", latest.ID),
		zap.Int("insights", len(insights)),
	)
	return nil
}

// Latest returns the most recent snapshot with its insights
func (s *Service) Latest(ctx context.Context, userID, integrationID string) (*models.AnalyticsSnapshot, error) {
	latest, err := s.latestSnapshot(ctx, userID, integrationID)
	if err != nil {
		return nil, err
	}

	insights, err := s.snapshots.ListInsights(ctx, integrationID, latest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read insights: %w", err)
	}
	latest.Insights = insights
	return latest, nil
}

func (s *Service) latestSnapshot(ctx context.Context, userID, integrationID string) (*models.AnalyticsSnapshot, error) {
	latest, err := s.snapshots.Latest(ctx, userID, integrationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoAnalytics
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest snapshot: %w", err)
	}
	return latest, nil
}
