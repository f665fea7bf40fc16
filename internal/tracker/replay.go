package tracker

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"Mansoor88-6/interaction-insights/internal/models"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Interaction is one raw observation fed to the agent, one JSON object per line
type Interaction struct {
	Type        models.EventType         `json:"type"`
	URL         string                   `json:"url"`
	Element     models.ElementDescriptor `json:"element"`
	Position    models.Position          `json:"position"`
	ScrollY     float64                  `json:"scrollY"`
	ScrollDepth *float64                 `json:"scrollDepth,omitempty"`
}

// maxLineBytes bounds a single input line
const maxLineBytes = 1 << 20

// Replay feeds newline-delimited interactions from r into ts until EOF or
// ctx is done. Lines that do not decode or carry an unknown type are
// skipped. It returns the number of interactions fed.
func Replay(ctx context.Context, r io.Reader, ts *TrackingService, logger *zap.Logger) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	fed := 0
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return fed, nil
		}
		line++

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var in Interaction
		if err := json.Unmarshal(raw, &in); err != nil {
			logger.Warn("Skipping undecodable interaction", zap.Int("line", line), zap.Error(err))
			continue
		}

		switch in.Type {
		case models.EventClick:
			ts.TrackClick(in.URL, in.Element, in.Position.X, in.Position.Y)
		case models.EventScroll:
			ts.TrackScroll(in.URL, in.ScrollY, in.ScrollDepth)
		default:
			logger.Warn("Skipping unknown interaction type", zap.Int("line", line), zap.String("type", string(in.Type)))
			continue
		}
		fed++
	}

	if err := scanner.Err(); err != nil {
		return fed, fmt.Errorf("failed to read interactions: %w", err)
	}
	return fed, nil
}
