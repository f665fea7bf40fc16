package tracker

import (
	"context"
	"strings"
	"testing"
	"time"

	"Mansoor88-6/interaction-insights/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReplay_FeedsClicksAndSampledScrolls(t *testing.T) {
	sender := &fakeSender{}
	ts := newService(t, time.Hour, sender)
	ts.Start()

	input := strings.Join([]string{
		`{"type":"click","url":"https://shop.example/","element":{"tagName":"A","text":"Home"},"position":{"x":3,"y":4}}`,
		``,
		`not json`,
		`{"type":"hover","url":"https://shop.example/"}`,
		`{"type":"scroll","url":"https://shop.example/","scrollY":10}`,
		`{"type":"scroll","url":"https://shop.example/","scrollY":120,"scrollDepth":40}`,
	}, "\n")

	fed, err := Replay(context.Background(), strings.NewReader(input), ts, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, fed)

	ts.Stop()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.beacons, 1)
	batch := sender.beacons[0]
	require.Len(t, batch, 2, "the 10px scroll stays under the sampling threshold")
	assert.Equal(t, models.EventClick, batch[0].Type)
	assert.Equal(t, "Home", batch[0].Click.Element.Text)
	require.NotNil(t, batch[1].Scroll)
	assert.Equal(t, 120.0, batch[1].Scroll.ScrollY)
	require.NotNil(t, batch[1].Scroll.ScrollDepth)
	assert.Equal(t, 40.0, *batch[1].Scroll.ScrollDepth)
}

func TestReplay_StopsWhenContextDone(t *testing.T) {
	ts := newService(t, time.Hour, &fakeSender{})
	ts.Start()
	defer ts.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fed, err := Replay(ctx, strings.NewReader(`{"type":"click","url":"https://x.example/"}`+"\n"), ts, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, fed)
}
