package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"Mansoor88-6/interaction-insights/internal/ingest"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// BatchProcessor is satisfied by *ingest.Processor
type BatchProcessor interface {
	Process(ctx context.Context, body []byte) (*ingest.BatchResult, error)
}

// EventMirror is satisfied by *mirror.Mirror
type EventMirror interface {
	Append(ctx context.Context, events []json.RawMessage)
	Export(ctx context.Context, w io.Writer) error
}

type TrackHandler struct {
	processor BatchProcessor
	mirror    EventMirror
	maxBody   int64
	timeout   time.Duration
	logger    *zap.Logger
}

// NewTrackHandler creates the ingestion handler. mirror may be nil.
func NewTrackHandler(processor BatchProcessor, mirror EventMirror, maxBody int64, timeout time.Duration, logger *zap.Logger) *TrackHandler {
	return &TrackHandler{
		processor: processor,
		mirror:    mirror,
		maxBody:   maxBody,
		timeout:   timeout,
		logger:    logger,
	}
}

// Track ingests one event or a batch. Per-event failures are reported in a
// 200 ledger; only a malformed body or a store failure changes the status.
func (h *TrackHandler) Track(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", "", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error(), h.logger)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.processor.Process(ctx, body)
	if errors.Is(err, ingest.ErrMalformedBody) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error(), h.logger)
		return
	}
	if err != nil {
		h.logger.Error("Tracking error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error(), h.logger)
		return
	}

	if h.mirror != nil && len(result.Accepted) > 0 {
		h.mirror.Append(ctx, result.Accepted)
	}

	writeJSON(w, http.StatusOK, result.Response, h.logger)
}

// Export streams the local event mirror as a JSON attachment
func (h *TrackHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.mirror == nil {
		writeError(w, http.StatusNotFound, "Event mirror is disabled", "", h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="user-events.json"`)
	if err := h.mirror.Export(r.Context(), w); err != nil {
		h.logger.Error("Export failed", zap.Error(err))
	}
}
