package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Mansoor88-6/interaction-insights/internal/metrics"
	"Mansoor88-6/interaction-insights/internal/models"
	"Mansoor88-6/interaction-insights/internal/repository"

	"go.uber.org/zap"
)

// IntegrationFinder looks up the active integration registered for a normalized URL
type IntegrationFinder interface {
	FindActiveByURL(ctx context.Context, normalizedURL string) (*models.Integration, error)
}

// Resolver maps a normalized URL to its owning integration. It is the
// authorization gate for ingestion: events from unregistered or inactive
// sites are rejected.
type Resolver struct {
	finder IntegrationFinder
	cache  *IntegrationCache // nil when caching is disabled
	logger *zap.Logger
}

// NewResolver creates a resolver. A zero ttl disables caching.
func NewResolver(finder IntegrationFinder, ttl time.Duration, logger *zap.Logger) *Resolver {
	r := &Resolver{
		finder: finder,
		logger: logger,
	}
	if ttl > 0 {
		r.cache = NewIntegrationCache(ttl, logger)
	}
	return r
}

// Resolve returns the integration for normalizedURL. ErrNoActiveIntegration
// is a per-event rejection; any other error is an infrastructure failure.
func (r *Resolver) Resolve(ctx context.Context, normalizedURL string) (*models.Integration, error) {
	if r.cache != nil {
		if integration, ok := r.cache.Get(normalizedURL); ok {
			metrics.IntegrationCacheHits.Inc()
			return &integration, nil
		}
		metrics.IntegrationCacheMisses.Inc()
	}

	integration, err := r.finder.FindActiveByURL(ctx, normalizedURL)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w for: %s", ErrNoActiveIntegration, normalizedURL)
	}
	if err != nil {
		return nil, fmt.Errorf("integration lookup failed: %w", err)
	}

	if r.cache != nil {
		r.cache.Store(normalizedURL, *integration)
	}
	return integration, nil
}

// Invalidate forgets cached lookups of an integration whose status changed
// or that was deleted
func (r *Resolver) Invalidate(integrationID string) {
	if r.cache == nil {
		return
	}
	r.cache.RemoveIntegration(integrationID)
	r.logger.Debug("Invalidated integration cache", zap.String("integration_id", integrationID))
}

// Stop releases the cache's cleanup goroutine
func (r *Resolver) Stop() {
	if r.cache != nil {
		r.cache.Stop()
	}
}
