package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionEvent_DecodeClick(t *testing.T) {
	raw := `{"type":"click","timestamp":1700000000000,"url":"https://x.com/a","sessionId":"s",
		"element":{"tagName":"BUTTON","id":"buy","text":"Buy now"},"position":{"x":10,"y":20}}`

	var e InteractionEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, EventClick, e.Type)
	assert.True(t, e.Known())
	require.NotNil(t, e.Click)
	assert.Nil(t, e.Scroll)
	assert.Equal(t, "BUTTON", e.Click.Element.TagName)
	assert.Equal(t, 20.0, e.Click.Position.Y)
	assert.Equal(t, "1700000000000", string(e.Timestamp))
}

func TestInteractionEvent_DecodeScroll(t *testing.T) {
	raw := `{"type":"scroll","timestamp":"2024-01-01T00:00:00Z","url":"https://x.com/","scrollY":320,"direction":"down"}`

	var e InteractionEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	require.NotNil(t, e.Scroll)
	assert.Nil(t, e.Click)
	assert.Equal(t, 320.0, e.Scroll.ScrollY)
	require.NotNil(t, e.Scroll.Direction)
	assert.Equal(t, ScrollDown, *e.Scroll.Direction)
	assert.Nil(t, e.Scroll.ScrollDepth)
}

func TestInteractionEvent_UnknownTypeDecodesWithoutPayload(t *testing.T) {
	var e InteractionEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"hover","url":"https://x.com/"}`), &e))

	assert.False(t, e.Known())
	assert.Nil(t, e.Click)
	assert.Nil(t, e.Scroll)
	assert.Equal(t, "https://x.com/", e.URL)
}

func TestInteractionEvent_WrongFieldTypeFails(t *testing.T) {
	var e InteractionEvent
	err := json.Unmarshal([]byte(`{"type":"scroll","scrollY":"far"}`), &e)
	assert.Error(t, err)
}

func TestInteractionEvent_MarshalFlattensVariant(t *testing.T) {
	e := NewScrollEvent("https://x.com/", "sid", 1700000000000, ScrollData{ScrollY: 80})

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "scroll", flat["type"])
	assert.Equal(t, 80.0, flat["scrollY"])
	assert.Equal(t, "sid", flat["sessionId"])
	assert.Contains(t, flat, "direction")
	assert.Nil(t, flat["direction"])
	assert.NotContains(t, flat, "element")
}

func TestNewClickEvent_TruncatesText(t *testing.T) {
	long := strings.Repeat("é", 80)
	e := NewClickEvent("https://x.com/", "sid", 1, ElementDescriptor{TagName: "A", Text: long}, Position{})

	assert.Equal(t, MaxElementText, len([]rune(e.Click.Element.Text)))
	assert.Equal(t, "1", string(e.Timestamp))
}
