package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/cachesignal/auth"
	"github.com/jonwraymond/cachesignal/classify"
	"github.com/jonwraymond/cachesignal/config"
	"github.com/jonwraymond/cachesignal/health"
	"github.com/jonwraymond/cachesignal/observe"
	"github.com/jonwraymond/cachesignal/revalidate"
	"github.com/jonwraymond/cachesignal/tags"
)

// RequestIDHeader carries a per-request identifier.
const RequestIDHeader = "X-Request-ID"

// Client issues requests relative to a base URL.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: transport failures return a nil Response. Non-2xx answers
//   return the Response together with a *StatusError.
// - Revalidation: runs only after a 2xx mutation and never changes the
//   returned error.
type Client struct {
	base       *url.URL
	http       *http.Client
	config     *config.Store
	inv        revalidate.Invalidator
	dispatcher *revalidate.Dispatcher
	tags       *tags.Store
	classifier *classify.Classifier
	tokens     auth.TokenSource
	logger     observe.Logger
	logOutput  io.Writer
	metrics    observe.Metrics
	tracer     observe.Tracer
	health     *health.Aggregator
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	c := &Client{
		base:       base,
		http:       http.DefaultClient,
		classifier: classify.New(),
		logOutput:  os.Stderr,
		metrics:    observe.NopMetrics(),
		tracer:     observe.NopTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.config == nil {
		c.config = config.New(config.WithLogger(c.logger))
	}
	if c.logger == nil {
		level := c.config.GetAsync(context.Background()).LogLevel
		c.logger = observe.NewLoggerWithWriter(level, c.logOutput)
	}
	if c.dispatcher == nil {
		c.dispatcher = revalidate.NewDispatcher(c.inv,
			revalidate.WithConfig(c.config),
			revalidate.WithLogger(c.logger),
			revalidate.WithMetrics(c.metrics),
			revalidate.WithTracer(c.tracer),
			revalidate.WithTagStore(c.tags),
		)
	}
	c.health = health.NewAggregator()
	c.health.Register("config", c.config.HealthChecker())
	c.health.Register("revalidate", c.dispatcher.HealthChecker())
	return c, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, opts...)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodHead, path, opts...)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, opts...)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, opts...)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, opts...)
}

// Do issues a request with an arbitrary method.
func (c *Client) Do(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	var ro request
	for _, opt := range opts {
		opt(&ro)
	}
	cfg := c.config.GetAsync(ctx)
	target := c.resolve(path)

	ctx, span := c.tracer.Start(ctx, "client.request",
		attribute.String("http.request.method", method),
		attribute.String("url.full", target),
	)
	resp, err := c.do(ctx, method, target, ro, cfg)
	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	}
	c.tracer.End(span, err)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, target string, ro request, cfg config.Config) (*Response, error) {
	req, err := c.build(ctx, method, target, ro, cfg)
	if err != nil {
		return nil, err
	}
	id := req.Header.Get(RequestIDHeader)

	start := time.Now()
	hr, err := c.http.Do(req)
	end := time.Now()
	if err != nil {
		c.metrics.RecordRequest(ctx, method, 0, end.Sub(start), err)
		c.logger.Warn(ctx, "request failed",
			observe.F("method", method),
			observe.F("url", target),
			observe.F("request_id", id),
			observe.F("error", err),
		)
		return nil, fmt.Errorf("client: %s %s: %w", method, target, err)
	}
	defer hr.Body.Close()
	body, err := io.ReadAll(hr.Body)
	if err != nil {
		c.metrics.RecordRequest(ctx, method, hr.StatusCode, end.Sub(start), err)
		return nil, fmt.Errorf("client: read body: %w", err)
	}

	resp := &Response{
		Status:    hr.StatusCode,
		OK:        hr.StatusCode >= 200 && hr.StatusCode < 300,
		Header:    hr.Header,
		Body:      body,
		RequestID: id,
		Duration:  end.Sub(start),
	}
	var statusErr error
	if !resp.OK {
		statusErr = &StatusError{Method: method, URL: target, Status: hr.StatusCode, Body: body}
	}
	c.metrics.RecordRequest(ctx, method, hr.StatusCode, resp.Duration, statusErr)

	switch {
	case isRead(method):
		c.observe(ctx, method, target, resp, ro, classify.Window{Start: start, End: end}, cfg)
	case resp.OK && isMutation(method):
		report := c.dispatcher.Invalidate(ctx, ro.selector, revalidate.Options{
			Strategy: ro.strategy,
			Profile:  ro.profile,
			URL:      target,
		})
		resp.Revalidation = &report
	}
	return resp, statusErr
}

func (c *Client) build(ctx context.Context, method, target string, ro request, cfg config.Config) (*http.Request, error) {
	var body io.Reader
	if ro.hasBody {
		payload, err := json.Marshal(ro.body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	for k, vs := range ro.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if ro.hasBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if cc := cacheControl(ro.cache); cc != "" {
		req.Header.Set("Cache-Control", cc)
		if ro.cache == classify.DirectiveReload {
			req.Header.Set("Pragma", "no-cache")
		}
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	useAuth := cfg.DefaultAuth
	if ro.auth != nil {
		useAuth = *ro.auth
	}
	if useAuth {
		hb := auth.HeaderBuilder{Scheme: cfg.AuthScheme, Source: c.tokenSource(req.URL, cfg)}
		if err := hb.Apply(ctx, req); err != nil {
			c.logger.Warn(ctx, "auth header skipped",
				observe.F("url", target),
				observe.F("error", err),
			)
		}
	}
	return req, nil
}

func (c *Client) observe(ctx context.Context, method, target string, resp *Response, ro request, w classify.Window, cfg config.Config) {
	cl := c.classifier.Classify(classify.Input{
		Header:     resp.Header,
		StatusCode: resp.Status,
		Options: classify.RequestOptions{
			Tags:       ro.tags,
			Revalidate: ro.revalidate,
			Cache:      ro.cache,
		},
		Window: w,
	})
	resp.Cache = &cl
	c.metrics.RecordClassification(ctx, string(cl.Status), cl.Confidence, resp.Duration)

	if !cfg.Debug.LogCacheStatus {
		return
	}
	fields := append([]observe.Field{
		observe.F("method", method),
		observe.F("url", target),
		observe.F("status", resp.Status),
	}, cl.Fields()...)
	if cfg.Debug.LogCacheIndicators {
		fields = append(fields, observe.F("cache.indicators", cl.Indicators))
	}
	c.logger.Info(ctx, "cache status", fields...)
}

func (c *Client) tokenSource(u *url.URL, cfg config.Config) auth.TokenSource {
	if c.tokens != nil {
		return c.tokens
	}
	return auth.CookieTokenSource{Jar: c.http.Jar, URL: u, Name: cfg.SessionCookie}
}

// resolve joins path onto the base URL. Absolute URLs pass through.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	u := *c.base
	rel, query, _ := strings.Cut(path, "?")
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(rel, "/")
	u.RawPath = ""
	if query != "" {
		u.RawQuery = query
	}
	return u.String()
}

// Health runs the config and revalidation checks in order.
func (c *Client) Health(ctx context.Context) []health.NamedResult {
	return c.health.CheckAll(ctx)
}

// HealthHandler serves Health as JSON.
func (c *Client) HealthHandler() http.HandlerFunc {
	return health.Handler(c.health)
}

// Dispatcher returns the Dispatcher used for mutations.
func (c *Client) Dispatcher() *revalidate.Dispatcher {
	return c.dispatcher
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func cacheControl(d classify.Directive) string {
	switch d {
	case classify.DirectiveNoStore:
		return "no-store"
	case classify.DirectiveNoCache, classify.DirectiveReload:
		return "no-cache"
	case classify.DirectiveOnlyIfCached:
		return "only-if-cached"
	case classify.DirectiveForceCache:
		return "max-stale"
	default:
		return ""
	}
}
