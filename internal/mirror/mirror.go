package mirror

import (
	"context"
	"fmt"
	"io"
	"sync"

	"Mansoor88-6/interaction-insights/internal/metrics"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Durable persists mirrored events. Append stores events after those
// already held; Load returns everything in append order.
type Durable interface {
	Load(ctx context.Context) ([]json.RawMessage, error)
	Append(ctx context.Context, events []json.RawMessage) error
	Close() error
}

// Mirror keeps an in-memory copy of every accepted event and saves it to a
// Durable backend every saveEvery events and on Flush.
type Mirror struct {
	mu        sync.Mutex
	store     Durable
	events    []json.RawMessage
	saved     int
	saveEvery int
	logger    *zap.Logger
}

func New(store Durable, saveEvery int, logger *zap.Logger) *Mirror {
	return &Mirror{
		store:     store,
		saveEvery: saveEvery,
		logger:    logger,
	}
}

// Load replaces the in-memory copy with the backend contents
func (m *Mirror) Load(ctx context.Context) error {
	events, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load mirror: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = events
	m.saved = len(events)
	metrics.MirrorEvents.Set(float64(len(events)))

	m.logger.Info("Mirror loaded", zap.Int("events", len(events)))
	return nil
}

// Append adds events and saves when enough have accumulated since the last
// save. Save failures are logged; the events stay pending for the next try.
func (m *Mirror) Append(ctx context.Context, events []json.RawMessage) {
	if len(events) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range events {
		m.events = append(m.events, append(json.RawMessage(nil), e...))
	}
	metrics.MirrorEvents.Set(float64(len(m.events)))

	if m.saveEvery > 0 && len(m.events)-m.saved >= m.saveEvery {
		if err := m.flushLocked(ctx); err != nil {
			m.logger.Warn("Mirror save failed", zap.Error(err))
		}
	}
}

// Flush saves all pending events
func (m *Mirror) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushLocked(ctx)
}

func (m *Mirror) flushLocked(ctx context.Context) error {
	pending := m.events[m.saved:]
	if len(pending) == 0 {
		return nil
	}

	err := m.store.Append(ctx, pending)
	metrics.RecordMirrorSave(len(m.events), err)
	if err != nil {
		return fmt.Errorf("failed to save mirror: %w", err)
	}

	m.saved = len(m.events)
	m.logger.Debug("Mirror saved", zap.Int("events", len(pending)))
	return nil
}

// Len returns the number of mirrored events
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// Export flushes and writes every mirrored event as one JSON array
func (m *Mirror) Export(ctx context.Context, w io.Writer) error {
	m.mu.Lock()
	if err := m.flushLocked(ctx); err != nil {
		m.logger.Warn("Mirror save before export failed", zap.Error(err))
	}
	snapshot := make([]json.RawMessage, len(m.events))
	copy(snapshot, m.events)
	m.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// Close flushes pending events and closes the backend
func (m *Mirror) Close(ctx context.Context) error {
	flushErr := m.Flush(ctx)
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("failed to close mirror store: %w", err)
	}
	return flushErr
}
