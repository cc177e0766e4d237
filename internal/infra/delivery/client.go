// Package delivery performs outbound HTTP webhook calls. It is used both
// by the asynchronous fan-out workers and by the synchronous payment path.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/logger"
)

// EventHeader carries the event type on every outbound request.
const EventHeader = "X-Shopmesh-Event"

const userAgent = "Shopmesh-Webhooks/1.0"

// maxResponseBytes limits how much of an untrusted response body is read.
const maxResponseBytes = 1 << 20

// ErrDelivery indicates the delivery target was unreachable, hung past the
// timeout, or otherwise failed before producing an HTTP response.
var ErrDelivery = fmt.Errorf("%w: webhook delivery", shared.ErrUnavailable)

// Response is the raw result of one webhook call.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Config holds delivery client configuration.
type Config struct {
	// Timeout bounds each outbound call. Delivery targets are untrusted
	// and may hang.
	Timeout time.Duration

	// RequestsPerSec and Burst rate-limit calls per target host.
	RequestsPerSec float64
	Burst          int
}

// DefaultConfig returns sensible delivery defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		RequestsPerSec: 20,
		Burst:          40,
	}
}

// Client delivers payloads to webhook targets. One blocking call per
// Deliver invocation; no retry is performed here, that belongs to the task
// substrate (async path) or the caller (sync path).
type Client struct {
	httpClient *http.Client
	cfg        Config
	log        *logger.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a delivery client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		log:        log.With("component", "delivery_client"),
		limiters:   make(map[string]*rate.Limiter),
	}
}

// Deliver POSTs the payload to the webhook's target with the event type in
// the request header and returns the raw response. Network errors and
// timeouts fail with ErrDelivery; any HTTP response, success or not, is
// returned to the caller for interpretation.
func (c *Client) Deliver(ctx context.Context, wh *webhook.Webhook, eventType event.Type, payload event.Payload) (*Response, error) {
	if err := c.waitForHost(ctx, wh.TargetURL()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.TargetURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(EventHeader, eventType.String())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("webhook delivery failed",
			"webhook_id", wh.ID().String(),
			"event_type", eventType.String(),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrDelivery, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}

// waitForHost applies the per-host rate limit. Limiting keys on the target
// host so one slow integration cannot starve the others.
func (c *Client) waitForHost(ctx context.Context, target string) error {
	if c.cfg.RequestsPerSec <= 0 {
		return nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return err
	}

	c.mu.Lock()
	lim, ok := c.limiters[u.Host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(c.cfg.RequestsPerSec), c.cfg.Burst)
		c.limiters[u.Host] = lim
	}
	c.mu.Unlock()

	return lim.Wait(ctx)
}
