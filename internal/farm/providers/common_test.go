package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

func TestUpstreamRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig(srv.Client())
	cfg.Backoff.MaxRetries = 2
	cfg.Backoff.InitialInterval = time.Millisecond
	u := newUpstream("test", cfg)

	var out struct {
		OK bool `json:"ok"`
	}
	err := u.getJSON(context.Background(), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUpstreamBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig(srv.Client())
	cfg.Breaker.FailureThreshold = 2
	u := newUpstream("test", cfg)
	build := func() (*http.Request, error) { return http.NewRequest(http.MethodGet, srv.URL, nil) }

	for range 2 {
		_, err := u.fetch(context.Background(), build)
		assert.ErrorIs(t, err, farm.ErrUnavailable)
	}
	_, err := u.fetch(context.Background(), build)
	assert.ErrorIs(t, err, farm.ErrUnavailable)
	assert.ErrorContains(t, err, "circuit breaker open")
	assert.Equal(t, int32(2), calls.Load())
}

func TestUpstreamDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	u := newUpstream("test", DefaultHTTPConfig(srv.Client()))
	var out map[string]any
	err := u.getJSON(context.Background(), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	}, &out)
	assert.ErrorIs(t, err, farm.ErrUnavailable)
}
