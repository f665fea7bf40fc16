package collector

import (
	"sync"
	"time"

	"Mansoor88-6/interaction-insights/internal/models"

	"go.uber.org/zap"
)

// EventCollector buffers interaction events and hands them out in batches
type EventCollector struct {
	events        []models.InteractionEvent
	batchSize     int // 0 disables size-triggered flushes
	flushInterval time.Duration
	onBatchReady  func([]models.InteractionEvent)
	logger        *zap.Logger
	mu            sync.Mutex
	flushTicker   *time.Ticker
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// NewEventCollector creates a new event collector
func NewEventCollector(
	batchSize int,
	flushInterval time.Duration,
	logger *zap.Logger,
) *EventCollector {
	return &EventCollector{
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the periodic flush. onBatchReady receives every non-empty batch.
func (ec *EventCollector) Start(onBatchReady func([]models.InteractionEvent)) {
	ec.mu.Lock()
	ec.onBatchReady = onBatchReady
	ec.mu.Unlock()

	ec.flushTicker = time.NewTicker(ec.flushInterval)

	ec.wg.Add(1)
	go ec.autoFlushLoop()

	ec.logger.Info("Event collector started",
		zap.Int("batch_size", ec.batchSize),
		zap.Duration("flush_interval", ec.flushInterval),
	)
}

// Stop halts the periodic flush and returns whatever is still buffered
// without passing it to the batch callback
func (ec *EventCollector) Stop() []models.InteractionEvent {
	ec.stopOnce.Do(func() {
		close(ec.stopChan)
	})
	ec.wg.Wait()
	if ec.flushTicker != nil {
		ec.flushTicker.Stop()
	}

	remaining := ec.Drain()
	ec.logger.Info("Event collector stopped", zap.Int("remaining", len(remaining)))
	return remaining
}

// AddEvent appends an event. It never blocks on I/O; a size-triggered
// batch is delivered on the caller's goroutine only through the callback.
func (ec *EventCollector) AddEvent(event models.InteractionEvent) {
	ec.mu.Lock()
	ec.events = append(ec.events, event)
	var batch []models.InteractionEvent
	if ec.batchSize > 0 && len(ec.events) >= ec.batchSize {
		batch = ec.takeLocked()
	}
	callback := ec.onBatchReady
	ec.mu.Unlock()

	if batch != nil {
		ec.logger.Debug("Batch size reached, flushing events",
			zap.Int("count", len(batch)),
		)
		if callback != nil {
			callback(batch)
		}
	}
}

// Flush hands all pending events to the batch callback. Empty buffers are skipped.
func (ec *EventCollector) Flush() {
	ec.mu.Lock()
	batch := ec.takeLocked()
	callback := ec.onBatchReady
	ec.mu.Unlock()

	if batch == nil {
		return
	}

	ec.logger.Debug("Flushing events", zap.Int("count", len(batch)))
	if callback != nil {
		callback(batch)
	}
}

// Drain removes and returns all pending events
func (ec *EventCollector) Drain() []models.InteractionEvent {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.takeLocked()
}

// GetPendingCount returns the number of pending events
func (ec *EventCollector) GetPendingCount() int {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return len(ec.events)
}

// takeLocked copies the buffer and clears it. Caller holds mu.
func (ec *EventCollector) takeLocked() []models.InteractionEvent {
	if len(ec.events) == 0 {
		return nil
	}
	batch := make([]models.InteractionEvent, len(ec.events))
	copy(batch, ec.events)
	ec.events = ec.events[:0]
	return batch
}

func (ec *EventCollector) autoFlushLoop() {
	defer ec.wg.Done()

	for {
		select {
		case <-ec.flushTicker.C:
			ec.Flush()
		case <-ec.stopChan:
			return
		}
	}
}
