package classify

import (
	"net/http"
	"time"

	"github.com/jonwraymond/cachesignal/observe"
)

// Window bounds a request in time.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns End-Start, and false when either bound is unset or the
// window runs backwards.
func (w Window) Duration() (time.Duration, bool) {
	if w.Start.IsZero() || w.End.IsZero() || w.End.Before(w.Start) {
		return 0, false
	}
	return w.End.Sub(w.Start), true
}

// RequestOptions are the cache-relevant settings of the request.
type RequestOptions struct {
	// Tags are the cache tags the request was made under.
	Tags []string

	// Revalidate is the declared revalidation window; zero declares none.
	Revalidate time.Duration

	// Cache is the request's cache mode.
	Cache Directive
}

// Input is everything Classify looks at.
type Input struct {
	Header     http.Header
	StatusCode int
	Options    RequestOptions
	Window     Window
}

// Metadata records what the classification was based on.
type Metadata struct {
	// Age is the parsed Age header, nil when absent or unparsable.
	Age *int

	Tags          []string
	Revalidate    time.Duration
	HasRevalidate bool
	DurationMs    float64
	Cache         Directive
}

// Classification is the verdict for one response.
type Classification struct {
	Status     Status
	Confidence float64
	Indicators []string
	Metadata   Metadata
}

// Fields returns structured logging fields for c. Indicators are left out;
// callers that want them add "cache.indicators" themselves.
func (c Classification) Fields() []observe.Field {
	fields := []observe.Field{
		observe.F("cache.status", string(c.Status)),
		observe.F("cache.confidence", c.Confidence),
		observe.F("cache.duration_ms", c.Metadata.DurationMs),
	}
	if c.Metadata.Age != nil {
		fields = append(fields, observe.F("cache.age", *c.Metadata.Age))
	}
	if len(c.Metadata.Tags) > 0 {
		fields = append(fields, observe.F("cache.tags", c.Metadata.Tags))
	}
	if c.Metadata.HasRevalidate {
		fields = append(fields, observe.F("cache.revalidate", c.Metadata.Revalidate.String()))
	}
	if c.Metadata.Cache != DirectiveDefault {
		fields = append(fields, observe.F("cache.directive", string(c.Metadata.Cache)))
	}
	return fields
}

// Classifier runs a fixed rule chain.
//
// Contract:
// - Concurrency: safe for concurrent use if its rules are.
// - Errors: none; malformed input lowers confidence, it never fails.
type Classifier struct {
	rules []Rule
}

// New returns a Classifier running rules in order. With no rules it uses
// DefaultRules.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Rules returns the chain in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify folds the rule chain over in.
func (c *Classifier) Classify(in Input) Classification {
	st := newState(in)
	for _, r := range c.rules {
		r.Evaluate(st)
	}
	if len(st.Indicators) == 0 {
		st.Note("no cache indicators found")
	}
	return st.result()
}

var defaultClassifier = New()

// Classify runs the default rule chain.
func Classify(in Input) Classification {
	return defaultClassifier.Classify(in)
}
