package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/app-context/internal/adapters/http/middleware"
	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/platform/config"
	"github.com/jsamuelsen/app-context/internal/platform/logging"
	"github.com/jsamuelsen/app-context/internal/platform/telemetry"
)

const (
	defaultTimeout = 5 * time.Second

	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
)

// Config configures a Client.
type Config struct {
	// Name identifies the collector in logs, spans and metrics.
	Name string

	// Timeout bounds a single attempt. Retries and backoff may take longer.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// Decorate is applied to every attempt, e.g. to add credentials.
	Decorate func(*http.Request)

	Logger *slog.Logger
}

// Client is an instrumented HTTP client with retry, exponential backoff
// with jitter and a circuit breaker.
type Client struct {
	name     string
	cfg      Config
	http     *http.Client
	breaker  *CircuitBreaker
	tracer   trace.Tracer
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Name == "" {
		return nil, errors.New("client name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}

	meter := telemetry.Meter()

	duration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of outbound HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	total, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of outbound HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	breaker := NewCircuitBreaker(BreakerConfig{
		MaxFailures:   cfg.Circuit.MaxFailures,
		Cooldown:      cfg.Circuit.Timeout,
		HalfOpenLimit: cfg.Circuit.HalfOpenLimit,
	})

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	breaker.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("client", cfg.Name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &Client{
		name:    cfg.Name,
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout, Transport: newTransport(cfg.Transport)},
		breaker: breaker,
		tracer:  telemetry.Tracer(),

		duration: duration,
		total:    total,
	}, nil
}

func newTransport(cfg config.TransportConfig) *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	if t.MaxIdleConns <= 0 {
		t.MaxIdleConns = defaultMaxIdleConns
	}
	if t.MaxIdleConnsPerHost <= 0 {
		t.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if t.IdleConnTimeout <= 0 {
		t.IdleConnTimeout = defaultIdleConnTimeout
	}

	return t
}

// PostJSON sends body to url as application/json.
func (c *Client) PostJSON(ctx context.Context, url string, body []byte) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, url, body, "application/json")
}

// Do sends a request, retrying transport errors and 5xx responses. body is
// replayed on every attempt. Responses below 500 are returned as is; the
// caller closes the body.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, contentType string) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("client", c.name),
		slog.String("method", method),
	)

	if !c.breaker.Allow() {
		c.record(ctx, method, 0, time.Since(start), "circuit_open")
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", method, c.name),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", url),
			attribute.String("peer.service", c.name),
		),
	)
	defer span.End()

	resp, err := c.attempts(ctx, method, url, body, contentType, logger)
	elapsed := time.Since(start)

	if err != nil {
		c.breaker.RecordFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.record(ctx, method, 0, elapsed, "error")
		logger.WarnContext(ctx, "request failed", slog.Duration("duration", elapsed), slog.Any("error", err))

		return nil, err
	}

	c.breaker.RecordSuccess()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	c.record(ctx, method, resp.StatusCode, elapsed, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.DebugContext(ctx, "request completed", slog.Int("status", resp.StatusCode), slog.Duration("duration", elapsed))

	return resp, nil
}

func (c *Client) attempts(ctx context.Context, method, url string, body []byte, contentType string, logger *slog.Logger) (*http.Response, error) {
	var lastErr error

	for attempt := range c.cfg.Retry.MaxAttempts {
		if attempt > 0 {
			wait := c.backoff(attempt)
			logger.DebugContext(ctx, "retrying request", slog.Int("attempt", attempt+1), slog.Duration("backoff", wait))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		req, err := c.newRequest(ctx, method, url, body, contentType)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		switch {
		case err != nil && isRetryable(err):
			lastErr = err
		case err != nil:
			return nil, err
		case resp.StatusCode >= http.StatusInternalServerError:
			_ = resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode}
		default:
			return resp, nil
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body []byte, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if r, ok := appctx.RequestFromContext(ctx); ok {
		if r.ID != "" {
			req.Header.Set(middleware.HeaderRequestID, r.ID)
		}
		if r.CorrelationID != "" {
			req.Header.Set(middleware.HeaderCorrelationID, r.CorrelationID)
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if c.cfg.Decorate != nil {
		c.cfg.Decorate(req)
	}

	return req, nil
}

// State returns the circuit breaker state.
func (c *Client) State() State {
	return c.breaker.State()
}

// backoff returns InitialInterval * Multiplier^attempt capped at
// MaxInterval, spread by JitterFactor in both directions.
func (c *Client) backoff(attempt int) time.Duration {
	r := c.cfg.Retry

	d := float64(r.InitialInterval) * math.Pow(r.Multiplier, float64(attempt))
	if r.MaxInterval > 0 && d > float64(r.MaxInterval) {
		d = float64(r.MaxInterval)
	}

	spread := rand.Float64()*2 - 1 //nolint:gosec // jitter only
	d += d * r.JitterFactor * spread

	return time.Duration(d)
}

func (c *Client) record(ctx context.Context, method string, status int, elapsed time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.name),
		attribute.String("result", result),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	c.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	c.total.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
