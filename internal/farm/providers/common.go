package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// BreakerConfig controls the per-upstream circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
	Breaker BreakerConfig
}

// DefaultHTTPConfig performs a single attempt per call; retries are opt-in.
func DefaultHTTPConfig(client *http.Client) HTTPClientConfig {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      0,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		Breaker: BreakerConfig{
			MaxRequests:      5,
			Interval:         1 * time.Minute,
			Timeout:          2 * time.Minute,
			FailureThreshold: 5,
		},
	}
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
	errNotConfigured = errors.New("not configured")
)

// unavailable wraps err so the cascade treats the adapter as having no data.
func unavailable(name string, err error) error {
	if errors.Is(err, farm.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", farm.ErrUnavailable, name, err)
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
}

// upstream is one remote HTTP endpoint guarded by its own breaker.
type upstream struct {
	name    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func newUpstream(name string, cfg HTTPClientConfig) upstream {
	return upstream{name: name, httpCfg: cfg, circuit: newBreaker(name, cfg.Breaker)}
}

// getJSON performs the request built by buildRequest and decodes a 2xx JSON
// body into out. Every failure is reported as farm.ErrUnavailable.
func (u upstream) getJSON(ctx context.Context, buildRequest func() (*http.Request, error), out any) error {
	body, err := u.fetch(ctx, buildRequest)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return unavailable(u.name, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// fetch returns the raw body of a successful response.
func (u upstream) fetch(ctx context.Context, buildRequest func() (*http.Request, error)) ([]byte, error) {
	resp, err := doRequestWithResilience(ctx, u.httpCfg, u.circuit, buildRequest)
	if err != nil {
		return nil, unavailable(u.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, unavailable(u.name, fmt.Errorf("read response: %w", err))
	}
	return body, nil
}

// doRequestWithResilience executes the HTTP request with retries, exponential backoff,
// and a circuit breaker.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			// Drain so the connection can be reused.
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				return nil, errServerError
			default:
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= cfg.Backoff.MaxRetries {
			return nil, lastErr
		}

		// Backoff with exponential delay.
		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
