package ingest

import (
	"sync"
	"time"

	"Mansoor88-6/interaction-insights/internal/metrics"
	"Mansoor88-6/interaction-insights/internal/models"

	"go.uber.org/zap"
)

type cacheEntry struct {
	integration models.Integration
	storedAt    time.Time
}

// IntegrationCache remembers which active integration a normalized URL
// resolved to. Only positive results are cached, so a newly registered or
// re-activated integration is picked up on the next lookup.
type IntegrationCache struct {
	mu        sync.RWMutex
	entries   map[string]*cacheEntry
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	cleanupWg sync.WaitGroup
}

// NewIntegrationCache creates a cache with TTL-based expiration and starts
// its cleanup loop
func NewIntegrationCache(ttl time.Duration, logger *zap.Logger) *IntegrationCache {
	c := &IntegrationCache{
		entries:  make(map[string]*cacheEntry),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	c.cleanupWg.Add(1)
	go c.cleanupLoop()

	return c
}

// Store records the integration for a normalized URL
func (c *IntegrationCache) Store(normalizedURL string, integration models.Integration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[normalizedURL] = &cacheEntry{
		integration: integration,
		storedAt:    c.now(),
	}
	metrics.IntegrationCacheSize.Set(float64(len(c.entries)))
}

// Get returns the cached integration if present and not expired
func (c *IntegrationCache) Get(normalizedURL string) (models.Integration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[normalizedURL]
	if !exists || c.now().Sub(entry.storedAt) > c.ttl {
		return models.Integration{}, false
	}
	return entry.integration, true
}

// RemoveIntegration drops every entry pointing at the integration
func (c *IntegrationCache) RemoveIntegration(integrationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.integration.ID == integrationID {
			delete(c.entries, key)
		}
	}
	metrics.IntegrationCacheSize.Set(float64(len(c.entries)))
}

// Len returns the number of entries, expired ones included
func (c *IntegrationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *IntegrationCache) cleanupLoop() {
	defer c.cleanupWg.Done()

	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopChan:
			return
		}
	}
}

func (c *IntegrationCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		metrics.IntegrationCacheSize.Set(float64(len(c.entries)))
		c.logger.Debug("Cleaned up expired integrations",
			zap.Int("count", expiredCount),
		)
	}
}

// Stop stops the cleanup goroutine
func (c *IntegrationCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	c.cleanupWg.Wait()
}

// Clear removes all entries
func (c *IntegrationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	metrics.IntegrationCacheSize.Set(0)
}
