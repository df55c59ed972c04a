package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/cachesignal/config"
	"github.com/jonwraymond/cachesignal/health"
	"github.com/jonwraymond/cachesignal/observe"
	"github.com/jonwraymond/cachesignal/resilience"
	"github.com/jonwraymond/cachesignal/revalidate"
)

// RequestIDHeader carries a per-call identifier.
const RequestIDHeader = "X-Request-ID"

// Request is the JSON body of a revalidation call.
type Request struct {
	Tag      string `json:"tag"`
	Profile  string `json:"profile,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// URL is the webhook base URL. Required.
	URL string

	// Token is sent as a bearer token when set.
	Token string

	// HTTPClient performs requests.
	// Default: a client without its own timeout
	HTTPClient *http.Client

	// Timeout bounds each attempt, the health probe included.
	// Default: 10s
	Timeout time.Duration

	// Retry wraps each call.
	// Default: 3 attempts starting at 100ms
	Retry *resilience.Retry

	// Breaker stops calling a failing webhook.
	// Default: opens after 5 consecutive retryable failures for 30s
	Breaker *resilience.CircuitBreaker

	Logger observe.Logger
}

// Client invalidates tags through a webhook.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: 4xx responses other than 408 and 429 are not retried.
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	exec    *resilience.Executor
	timeout *resilience.Timeout
	logger  observe.Logger
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: parse url: %w", err)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Retry == nil {
		cfg.Retry = resilience.NewRetry(resilience.RetryConfig{})
	}
	if cfg.Breaker == nil {
		cfg.Breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			IsFailure: func(err error) bool { return err != nil && !resilience.IsPermanent(err) },
		})
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	timeout := resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.Timeout})
	return &Client{
		base:    base,
		token:   cfg.Token,
		http:    cfg.HTTPClient,
		timeout: timeout,
		exec: resilience.NewExecutor(
			resilience.WithRetry(cfg.Retry),
			resilience.WithCircuitBreaker(cfg.Breaker),
			resilience.WithTimeoutConfig(timeout),
		),
		logger: cfg.Logger,
	}, nil
}

// FromConfig builds a Client from the webhook section of c.
func FromConfig(c config.Config) (*Client, error) {
	return NewClient(ClientConfig{URL: c.Webhook.URL, Token: c.Webhook.Token})
}

// RevalidateTag implements revalidate.Invalidator.
func (c *Client) RevalidateTag(ctx context.Context, tag, profile string) error {
	return c.post(ctx, "/revalidate", Request{Tag: tag, Profile: profile, Strategy: string(revalidate.StrategyPrimary)})
}

// UpdateTag implements revalidate.Invalidator.
func (c *Client) UpdateTag(ctx context.Context, tag string) error {
	return c.post(ctx, "/update", Request{Tag: tag, Strategy: string(revalidate.StrategySecondary)})
}

// Available implements revalidate.Prober by calling GET /healthz once.
func (c *Client) Available(ctx context.Context) bool {
	err := c.timeout.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/healthz"), nil)
		if err != nil {
			return err
		}
		c.decorate(req)
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer drain(resp)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: /healthz %d", ErrStatus, resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn(ctx, "webhook probe failed", observe.F("error", err))
		return false
	}
	return true
}

// HealthChecker reports Unhealthy when the webhook does not answer and
// Degraded while the circuit is open.
func (c *Client) HealthChecker() health.Checker {
	return health.NewCheckerFunc("webhook", func(ctx context.Context) health.Result {
		state := c.exec.Breaker().State()
		details := map[string]any{"url": c.base.String(), "circuit": state.String()}
		if state == resilience.StateOpen {
			return health.Degraded("webhook circuit open").WithDetails(details)
		}
		if !c.Available(ctx) {
			return health.Unhealthy("webhook unreachable", nil).WithDetails(details)
		}
		return health.Healthy("webhook reachable").WithDetails(details)
	})
}

func (c *Client) post(ctx context.Context, path string, body Request) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.exec.Execute(ctx, func(ctx context.Context) error {
		return c.send(ctx, path, payload)
	})
}

func (c *Client) send(ctx context.Context, path string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	id := c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("%w: %s %d: %s", ErrStatus, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	c.logger.Warn(ctx, "webhook rejected invalidation",
		observe.F("path", path),
		observe.F("status", resp.StatusCode),
		observe.F("request_id", id),
	)
	if retryable(resp.StatusCode) {
		return err
	}
	return resilience.Permanent(err)
}

func (c *Client) decorate(req *http.Request) string {
	id := uuid.NewString()
	req.Header.Set(RequestIDHeader, id)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return id
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusRequestTimeout || status == http.StatusTooManyRequests
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

var (
	_ revalidate.Invalidator = (*Client)(nil)
	_ revalidate.Prober      = (*Client)(nil)
)
