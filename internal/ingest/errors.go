package ingest

import "errors"

// Per-event rejection reasons. They end up in the batch ledger; none of
// them aborts sibling events.
var (
	ErrMalformedEvent       = errors.New("malformed event")
	ErrMissingURL           = errors.New("missing URL in event")
	ErrUnsupportedEventType = errors.New("unsupported event type")
	ErrNoActiveIntegration  = errors.New("no active integration")
	ErrInvalidTimestamp     = errors.New("invalid timestamp")
)

// ErrMalformedBody means the request body is neither an event object nor an array
var ErrMalformedBody = errors.New("request body must be an event object or an array of events")
