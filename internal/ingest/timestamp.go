package ingest

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// secondsCutoff is 2001-09-09 in epoch millis. Smaller values are taken to
// be epoch seconds.
const secondsCutoff = 1_000_000_000_000

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeTimestamp converts a wire timestamp (JSON number, numeric string
// or ISO-8601 string) to epoch millis
func NormalizeTimestamp(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: missing", ErrInvalidTimestamp)
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		return NormalizeValue(s)
	case 'n', 't', 'f', '{', '[':
		return 0, fmt.Errorf("%w: unsupported type %s", ErrInvalidTimestamp, raw)
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidTimestamp, raw)
		}
		return fromMillis(f)
	}
}

// NormalizeValue converts a decoded timestamp to epoch millis. Supported
// inputs are numbers, numeric or ISO-8601 strings and time.Time.
func NormalizeValue(v any) (int64, error) {
	switch t := v.(type) {
	case time.Time:
		return fromMillis(float64(t.UnixMilli()))
	case float64:
		return fromMillis(t)
	case int64:
		return fromMillis(float64(t))
	case int:
		return fromMillis(float64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, fmt.Errorf("%w: empty string", ErrInvalidTimestamp)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromMillis(f)
		}
		for _, layout := range isoLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return fromMillis(float64(parsed.UnixMilli()))
			}
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, t)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidTimestamp, v)
	}
}

func fromMillis(ms float64) (int64, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, fmt.Errorf("%w: not a finite number", ErrInvalidTimestamp)
	}
	if ms < secondsCutoff {
		ms *= 1000
	}
	if math.Abs(ms) >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidTimestamp)
	}
	return int64(math.Round(ms)), nil
}
