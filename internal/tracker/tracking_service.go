package tracker

import (
	"context"
	"sync"
	"time"

	"Mansoor88-6/interaction-insights/internal/collector"
	"Mansoor88-6/interaction-insights/internal/models"

	"go.uber.org/zap"
)

// Sender delivers batches to the ingestion server
type Sender interface {
	SendBatch(ctx context.Context, events []models.InteractionEvent) (*models.IngestResponse, error)
	Beacon(events []models.InteractionEvent) bool
}

// SessionSource hands out the current session identifier
type SessionSource interface {
	GetOrCreate() string
}

// TrackingService turns observed interactions into buffered events and
// ships them. Failed sends are logged and dropped.
type TrackingService struct {
	sessions       SessionSource
	eventCollector *collector.EventCollector
	sender         Sender
	scroll         *collector.ScrollSampler
	sendTimeout    time.Duration
	now            func() time.Time
	logger         *zap.Logger

	mu         sync.Mutex
	stopped    bool
	scrollPage string

	sends sync.WaitGroup
}

// NewTrackingService creates a new tracking service
func NewTrackingService(
	sessions SessionSource,
	eventCollector *collector.EventCollector,
	sender Sender,
	scrollThreshold float64,
	sendTimeout time.Duration,
	logger *zap.Logger,
) *TrackingService {
	return &TrackingService{
		sessions:       sessions,
		eventCollector: eventCollector,
		sender:         sender,
		scroll:         collector.NewScrollSampler(scrollThreshold),
		sendTimeout:    sendTimeout,
		now:            time.Now,
		logger:         logger,
	}
}

// Start begins periodic flushing
func (ts *TrackingService) Start() {
	ts.logger.Info("Starting tracking service", zap.String("session_id", ts.sessions.GetOrCreate()))
	ts.eventCollector.Start(ts.onBatchReady)
}

// TrackClick records a click on target at viewport position (x, y)
func (ts *TrackingService) TrackClick(url string, target models.ElementDescriptor, x, y float64) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.stopped {
		return
	}

	event := models.NewClickEvent(url, ts.sessions.GetOrCreate(), ts.now().UnixMilli(), target, models.Position{X: x, Y: y})
	ts.eventCollector.AddEvent(event)
}

// TrackScroll records a scroll position. Movements under the threshold are
// ignored. depth is the optional fraction of the page scrolled.
func (ts *TrackingService) TrackScroll(url string, y float64, depth *float64) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.stopped {
		return
	}
	if url != ts.scrollPage {
		ts.scroll.Reset()
		ts.scrollPage = url
	}

	data, ok := ts.scroll.Observe(y, depth)
	if !ok {
		return
	}

	event := models.NewScrollEvent(url, ts.sessions.GetOrCreate(), ts.now().UnixMilli(), data)
	ts.eventCollector.AddEvent(event)
}

// Stop is the unload path. The timer stops and whatever is still buffered
// goes out as a single beacon.
func (ts *TrackingService) Stop() {
	ts.mu.Lock()
	if ts.stopped {
		ts.mu.Unlock()
		return
	}
	ts.stopped = true
	ts.mu.Unlock()

	ts.logger.Info("Stopping tracking service")

	remaining := ts.eventCollector.Stop()
	if len(remaining) > 0 {
		dispatched := ts.sender.Beacon(remaining)
		ts.logger.Info("Unload beacon",
			zap.Int("event_count", len(remaining)),
			zap.Bool("dispatched", dispatched),
		)
	}

	done := make(chan struct{})
	go func() {
		ts.sends.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(ts.sendTimeout):
		ts.logger.Warn("Some batch sends did not finish before shutdown")
	}

	ts.logger.Info("Tracking service stopped")
}

// GetStatus returns the current tracking status
func (ts *TrackingService) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"session_id":        ts.sessions.GetOrCreate(),
		"stopped":           ts.isStopped(),
		"collector_pending": ts.eventCollector.GetPendingCount(),
	}
}

func (ts *TrackingService) isStopped() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.stopped
}

// onBatchReady sends the batch asynchronously so the capture path never waits
func (ts *TrackingService) onBatchReady(events []models.InteractionEvent) {
	if len(events) == 0 {
		return
	}

	ts.sends.Add(1)
	go func() {
		defer ts.sends.Done()

		ctx, cancel := context.WithTimeout(context.Background(), ts.sendTimeout)
		defer cancel()

		resp, err := ts.sender.SendBatch(ctx, events)
		if err != nil {
			ts.logger.Warn("Failed to send batch, dropping",
				zap.Error(err),
				zap.Int("event_count", len(events)),
			)
			return
		}
		if resp.Failed > 0 {
			ts.logger.Debug("Server rejected events",
				zap.Int("failed", resp.Failed),
				zap.Int("processed", resp.Processed),
			)
		}
	}()
}
