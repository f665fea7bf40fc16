package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"Mansoor88-6/interaction-insights/internal/models"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleEvents() []models.InteractionEvent {
	return []models.InteractionEvent{
		models.NewClickEvent("https://shop.example/", "sid", 1_700_000_000_000,
			models.ElementDescriptor{TagName: "BUTTON", Text: "Buy"}, models.Position{X: 1, Y: 2}),
		models.NewScrollEvent("https://shop.example/", "sid", 1_700_000_000_500, models.ScrollData{ScrollY: 120}),
	}
}

func TestSendBatch_PostsArrayAndDecodesLedger(t *testing.T) {
	var got []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/track", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"success":true,"processed":2,"failed":0,"errors":[]}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second, zap.NewNop())
	resp, err := c.SendBatch(context.Background(), sampleEvents())
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Processed)
	require.Len(t, got, 2)
	assert.Equal(t, "click", got[0]["type"])
	assert.Equal(t, "scroll", got[1]["type"])
}

func TestSendBatch_EmptyBatch(t *testing.T) {
	c := NewAPIClient("http://127.0.0.1:1", time.Second, zap.NewNop())
	_, err := c.SendBatch(context.Background(), nil)
	assert.Error(t, err)
}

func TestSendBatch_TypedErrors(t *testing.T) {
	cases := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, func(err error) bool { var e *AuthError; return errors.As(err, &e) }},
		{http.StatusTooManyRequests, func(err error) bool { var e *RateLimitError; return errors.As(err, &e) }},
		{http.StatusBadRequest, func(err error) bool { var e *BadRequestError; return errors.As(err, &e) }},
		{http.StatusInternalServerError, func(err error) bool {
			var e *BackendError
			return errors.As(err, &e) && e.StatusCode == http.StatusInternalServerError
		}},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := NewAPIClient(srv.URL, time.Second, zap.NewNop())
			_, err := c.SendBatch(context.Background(), sampleEvents())
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error type %T", err)
		})
	}
}

func TestBeacon_DispatchesAndCloseWaits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"success":true,"processed":2,"failed":0,"errors":[]}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second, zap.NewNop())
	assert.True(t, c.Beacon(sampleEvents()))
	assert.False(t, c.Beacon(nil))

	c.Close(2 * time.Second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBeacon_UnreachableServerIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewAPIClient(url, 200*time.Millisecond, zap.NewNop())
	assert.True(t, c.Beacon(sampleEvents()))
	c.Close(time.Second)
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second, zap.NewNop())
	assert.NoError(t, c.HealthCheck(context.Background()))
}
