package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"Mansoor88-6/interaction-insights/internal/metrics"
	"Mansoor88-6/interaction-insights/internal/models"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IntegrationResolver is satisfied by *Resolver
type IntegrationResolver interface {
	Resolve(ctx context.Context, normalizedURL string) (*models.Integration, error)
}

// RecordWriter persists accepted events
type RecordWriter interface {
	Insert(ctx context.Context, record *models.TrackingRecord) (string, error)
}

// BatchResult is the outcome of one ingestion request
type BatchResult struct {
	Response models.IngestResponse
	// Accepted holds the raw form of every stored event, in input order
	Accepted []json.RawMessage
	// RecordIDs holds the generated ids of stored events, in input order
	RecordIDs []string
}

// Processor validates, enriches and stores ingestion batches
type Processor struct {
	resolver    IntegrationResolver
	records     RecordWriter
	concurrency int
	now         func() time.Time
	logger      *zap.Logger
}

// NewProcessor creates a processor that handles up to concurrency events of
// a batch at the same time
func NewProcessor(resolver IntegrationResolver, records RecordWriter, concurrency int, logger *zap.Logger) *Processor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Processor{
		resolver:    resolver,
		records:     records,
		concurrency: concurrency,
		now:         time.Now,
		logger:      logger,
	}
}

type itemResult struct {
	id  string
	err error
}

// Process handles a request body holding one event object or an array of
// them. Per-event failures are reported in the ledger and never stop the
// other events. The returned error is either ErrMalformedBody or an
// infrastructure failure that aborts the whole batch.
func (p *Processor) Process(ctx context.Context, body []byte) (*BatchResult, error) {
	start := time.Now()

	items, err := splitBatch(body)
	if err != nil {
		return nil, err
	}

	results := make([]itemResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, raw := range items {
		g.Go(func() error {
			r, err := p.processItem(gctx, raw)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordIngestBatch(0, 0, time.Since(start), err)
		p.logger.Error("Ingestion batch aborted", zap.Error(err), zap.Int("event_count", len(items)))
		return nil, err
	}

	result := &BatchResult{
		Response: models.IngestResponse{Errors: []models.BatchError{}},
	}
	for i, r := range results {
		if r.err != nil {
			result.Response.Errors = append(result.Response.Errors, models.BatchError{
				EventIndex: i + 1,
				Error:      fmt.Sprintf("Event %d failed: %s", i+1, r.err),
				RawEvent:   items[i],
			})
			continue
		}
		result.Accepted = append(result.Accepted, items[i])
		result.RecordIDs = append(result.RecordIDs, r.id)
	}
	result.Response.Processed = len(result.RecordIDs)
	result.Response.Failed = len(result.Response.Errors)
	result.Response.Success = result.Response.Failed == 0

	metrics.RecordIngestBatch(result.Response.Processed, result.Response.Failed, time.Since(start), nil)
	p.logger.Info("Processed ingestion batch",
		zap.Int("event_count", len(items)),
		zap.Int("processed", result.Response.Processed),
		zap.Int("failed", result.Response.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// processItem returns the stored record id or a per-event rejection in the
// result. A returned error is fatal for the batch.
func (p *Processor) processItem(ctx context.Context, raw json.RawMessage) (itemResult, error) {
	var event models.InteractionEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return itemResult{err: fmt.Errorf("%w: %v", ErrMalformedEvent, err)}, nil
	}

	if event.URL == "" {
		return itemResult{err: ErrMissingURL}, nil
	}
	if !event.Known() {
		return itemResult{err: fmt.Errorf("%w: %q", ErrUnsupportedEventType, event.Type)}, nil
	}

	normalizedURL := NormalizeURL(event.URL)

	integration, err := p.resolver.Resolve(ctx, normalizedURL)
	if errors.Is(err, ErrNoActiveIntegration) {
		return itemResult{err: err}, nil
	}
	if err != nil {
		return itemResult{}, err
	}

	timestamp, err := NormalizeTimestamp(event.Timestamp)
	if err != nil {
		return itemResult{err: err}, nil
	}

	record := &models.TrackingRecord{
		UserID:        integration.UserID,
		IntegrationID: integration.ID,
		NormalizedURL: normalizedURL,
		Timestamp:     timestamp,
		ProcessedAt:   p.now().UnixMilli(),
		Event:         event,
		Payload:       raw,
	}

	id, err := p.records.Insert(ctx, record)
	if err != nil {
		p.logger.Warn("Failed to store tracking record",
			zap.Error(err),
			zap.String("integration_id", integration.ID),
		)
		return itemResult{err: fmt.Errorf("failed to store event: %w", err)}, nil
	}

	p.logger.Debug("Stored tracking record",
		zap.String("id", id),
		zap.String("user_id", integration.UserID),
		zap.String("integration_id", integration.ID),
		zap.String("normalized_url", normalizedURL),
	)
	return itemResult{id: id}, nil
}

func splitBatch(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrMalformedBody
	}

	switch body[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		return items, nil
	case '{':
		if !json.Valid(body) {
			return nil, ErrMalformedBody
		}
		return []json.RawMessage{json.RawMessage(body)}, nil
	default:
		return nil, ErrMalformedBody
	}
}
