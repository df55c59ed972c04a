package client

import (
	"io"
	"net/http"
	"time"

	"github.com/jonwraymond/cachesignal/auth"
	"github.com/jonwraymond/cachesignal/classify"
	"github.com/jonwraymond/cachesignal/config"
	"github.com/jonwraymond/cachesignal/observe"
	"github.com/jonwraymond/cachesignal/revalidate"
	"github.com/jonwraymond/cachesignal/tags"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its cookie jar is the
// default source of session tokens.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithConfig reads auth, strategy and debug settings from store.
func WithConfig(store *config.Store) Option {
	return func(c *Client) {
		if store != nil {
			c.config = store
		}
	}
}

// WithInvalidator sets the primitive behind the default Dispatcher.
func WithInvalidator(inv revalidate.Invalidator) Option {
	return func(c *Client) { c.inv = inv }
}

// WithDispatcher replaces the default Dispatcher. WithInvalidator and
// WithTagStore no longer apply to revalidation when it is set.
func WithDispatcher(d *revalidate.Dispatcher) Option {
	return func(c *Client) { c.dispatcher = d }
}

// WithTagStore makes the default Dispatcher expand groups and drop unknown
// tags.
func WithTagStore(s *tags.Store) Option {
	return func(c *Client) { c.tags = s }
}

// WithClassifier replaces the default rule chain.
func WithClassifier(cl *classify.Classifier) Option {
	return func(c *Client) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

// WithTokenSource overrides the session cookie lookup.
func WithTokenSource(ts auth.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithObserver takes the logger, metrics and tracer from obs.
func WithObserver(obs observe.Observer) Option {
	return func(c *Client) {
		if obs == nil {
			return
		}
		c.logger = obs.Logger()
		c.metrics = obs.Metrics()
		c.tracer = obs.Tracer()
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLogOutput sets where the default logger writes. The default logger
// is built at the configured logLevel and is only used when WithLogger is
// not given. Default: os.Stderr.
func WithLogOutput(w io.Writer) Option {
	return func(c *Client) {
		if w != nil {
			c.logOutput = w
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t observe.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// RequestOption configures one request.
type RequestOption func(*request)

type request struct {
	tags       []string
	revalidate time.Duration
	cache      classify.Directive
	selector   revalidate.Selector
	strategy   revalidate.Strategy
	profile    string
	body       any
	hasBody    bool
	header     http.Header
	auth       *bool
}

// WithTags records the cache tags the read is made under.
func WithTags(t ...string) RequestOption {
	return func(r *request) { r.tags = append(r.tags, t...) }
}

// WithRevalidate records the read's revalidation window.
func WithRevalidate(d time.Duration) RequestOption {
	return func(r *request) { r.revalidate = d }
}

// WithCache sets the cache mode. It is sent as a Cache-Control request
// header and informs classification.
func WithCache(d classify.Directive) RequestOption {
	return func(r *request) { r.cache = d }
}

// WithRevalidateTags chooses the tags a successful mutation invalidates.
func WithRevalidateTags(sel revalidate.Selector) RequestOption {
	return func(r *request) { r.selector = sel }
}

// WithStrategy overrides the configured invalidation strategy.
func WithStrategy(s revalidate.Strategy) RequestOption {
	return func(r *request) { r.strategy = s }
}

// WithProfile overrides the configured profile.
func WithProfile(p string) RequestOption {
	return func(r *request) { r.profile = p }
}

// WithBody sends v as JSON.
func WithBody(v any) RequestOption {
	return func(r *request) {
		r.body = v
		r.hasBody = true
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *request) {
		if r.header == nil {
			r.header = http.Header{}
		}
		r.header.Add(key, value)
	}
}

// WithAuth forces credentials on or off, overriding defaultAuth.
func WithAuth(on bool) RequestOption {
	return func(r *request) { r.auth = &on }
}
