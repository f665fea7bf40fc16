package models

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// EventType discriminates the interaction event union
type EventType string

// EventType values emitted by the capture side
const (
	EventClick  EventType = "click"
	EventScroll EventType = "scroll"
)

// ScrollDirection is the vertical direction of a sampled scroll
type ScrollDirection string

const (
	ScrollUp   ScrollDirection = "up"
	ScrollDown ScrollDirection = "down"
)

// MaxElementText caps the text snippet captured for a clicked element
const MaxElementText = 50

// ElementDescriptor identifies the target of a click
type ElementDescriptor struct {
	TagName   string `json:"tagName"`
	ID        string `json:"id,omitempty"`
	ClassName string `json:"className,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Position is a pointer coordinate in viewport pixels
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ClickData holds the click-specific fields
type ClickData struct {
	Element  ElementDescriptor `json:"element"`
	Position Position          `json:"position"`
}

// ScrollData holds the scroll-specific fields. Direction and ScrollDepth are
// optional on the wire.
type ScrollData struct {
	ScrollY     float64          `json:"scrollY"`
	Direction   *ScrollDirection `json:"direction"`
	ScrollDepth *float64         `json:"scrollDepth,omitempty"`
}

// InteractionEvent is one captured interaction. Exactly one of Click or
// Scroll is set for known types; unknown types decode with both nil so the
// ingestion validator can reject them per item.
//
// Timestamp keeps the value exactly as it was sent (a JSON number or string);
// the server normalises it to epoch millis.
type InteractionEvent struct {
	Type      EventType
	Timestamp json.RawMessage
	URL       string
	SessionID string

	Click  *ClickData
	Scroll *ScrollData
}

type eventEnvelope struct {
	Type      EventType       `json:"type"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	URL       string          `json:"url,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// NewClickEvent builds a click event stamped with the capture time
func NewClickEvent(url, sessionID string, capturedAtMillis int64, element ElementDescriptor, pos Position) InteractionEvent {
	element.Text = TruncateText(element.Text, MaxElementText)
	return InteractionEvent{
		Type:      EventClick,
		Timestamp: MillisTimestamp(capturedAtMillis),
		URL:       url,
		SessionID: sessionID,
		Click:     &ClickData{Element: element, Position: pos},
	}
}

// NewScrollEvent builds a scroll event stamped with the capture time
func NewScrollEvent(url, sessionID string, capturedAtMillis int64, data ScrollData) InteractionEvent {
	return InteractionEvent{
		Type:      EventScroll,
		Timestamp: MillisTimestamp(capturedAtMillis),
		URL:       url,
		SessionID: sessionID,
		Scroll:    &data,
	}
}

// MillisTimestamp encodes epoch millis as a raw JSON number
func MillisTimestamp(ms int64) json.RawMessage {
	return json.RawMessage(strconv.FormatInt(ms, 10))
}

// TruncateText cuts s to at most n runes
func TruncateText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Known reports whether the event carries a supported type with its payload
func (e *InteractionEvent) Known() bool {
	switch e.Type {
	case EventClick:
		return e.Click != nil
	case EventScroll:
		return e.Scroll != nil
	default:
		return false
	}
}

// UnmarshalJSON decodes the envelope and then the variant selected by type
func (e *InteractionEvent) UnmarshalJSON(data []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	*e = InteractionEvent{
		Type:      env.Type,
		Timestamp: env.Timestamp,
		URL:       env.URL,
		SessionID: env.SessionID,
	}

	switch env.Type {
	case EventClick:
		var click ClickData
		if err := json.Unmarshal(data, &click); err != nil {
			return fmt.Errorf("decode click event: %w", err)
		}
		e.Click = &click
	case EventScroll:
		var scroll ScrollData
		if err := json.Unmarshal(data, &scroll); err != nil {
			return fmt.Errorf("decode scroll event: %w", err)
		}
		e.Scroll = &scroll
	}

	return nil
}

// MarshalJSON flattens the envelope and the variant into one object
func (e InteractionEvent) MarshalJSON() ([]byte, error) {
	env := eventEnvelope{
		Type:      e.Type,
		Timestamp: e.Timestamp,
		URL:       e.URL,
		SessionID: e.SessionID,
	}

	switch {
	case e.Type == EventClick && e.Click != nil:
		return json.Marshal(struct {
			eventEnvelope
			ClickData
		}{env, *e.Click})
	case e.Type == EventScroll && e.Scroll != nil:
		return json.Marshal(struct {
			eventEnvelope
			ScrollData
		}{env, *e.Scroll})
	default:
		return json.Marshal(env)
	}
}
