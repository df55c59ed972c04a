package classify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Provider cache headers, in order of precedence.
const (
	HeaderPrimary   = "X-Vercel-Cache"
	HeaderSecondary = "Cf-Cache-Status"
)

// Timing thresholds.
const (
	VeryFastThreshold = 5 * time.Millisecond
	FastThreshold     = 20 * time.Millisecond
)

// State is the running classification a Rule reads and updates.
type State struct {
	Input        Input
	CacheControl CacheControl

	Duration    time.Duration
	HasDuration bool

	Age    *int
	MaxAge *int

	Status     Status
	Confidence float64
	Indicators []string
}

func newState(in Input) *State {
	st := &State{
		Input:        in,
		CacheControl: ParseCacheControl(in.Header.Values("Cache-Control")...),
		Status:       StatusMiss,
		Confidence:   0.5,
	}
	st.Duration, st.HasDuration = in.Window.Duration()
	if v, ok := st.CacheControl.Seconds("max-age"); ok {
		st.MaxAge = &v
	}
	if raw := in.Header.Get("Age"); raw != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			st.Age = &v
		}
	}
	return st
}

// Raise sets the status and lifts the confidence to at least confidence.
func (s *State) Raise(status Status, confidence float64) {
	s.Status = status
	s.Confidence = max(s.Confidence, confidence)
}

// Force sets status and confidence unconditionally.
func (s *State) Force(status Status, confidence float64) {
	s.Status = status
	s.Confidence = confidence
}

// Note appends an indicator.
func (s *State) Note(format string, args ...any) {
	s.Indicators = append(s.Indicators, fmt.Sprintf(format, args...))
}

func (s *State) result() Classification {
	opts := s.Input.Options
	var tags []string
	if len(opts.Tags) > 0 {
		tags = append([]string(nil), opts.Tags...)
	}
	var age *int
	if s.Age != nil {
		v := *s.Age
		age = &v
	}
	return Classification{
		Status:     s.Status,
		Confidence: s.Confidence,
		Indicators: s.Indicators,
		Metadata: Metadata{
			Age:           age,
			Tags:          tags,
			Revalidate:    opts.Revalidate,
			HasRevalidate: opts.Revalidate > 0,
			DurationMs:    float64(s.Duration) / float64(time.Millisecond),
			Cache:         opts.Cache,
		},
	}
}

// Rule is one step of the classification chain.
type Rule interface {
	Name() string
	Evaluate(s *State)
}

// RuleFunc adapts a function to Rule.
type RuleFunc struct {
	RuleName string
	Fn       func(s *State)
}

// Name implements Rule.
func (r RuleFunc) Name() string { return r.RuleName }

// Evaluate implements Rule.
func (r RuleFunc) Evaluate(s *State) { r.Fn(s) }

// DefaultRules returns the built-in chain. Order matters: later rules may
// replace the status, and no-store must run last.
func DefaultRules() []Rule {
	return []Rule{
		RuleFunc{"provider-header", providerHeader},
		RuleFunc{"timing", timing},
		RuleFunc{"age", ageHeader},
		RuleFunc{"stale-while-revalidate", staleWhileRevalidate},
		RuleFunc{"staleness", staleness},
		RuleFunc{"no-store", noStore},
	}
}

func providerHeader(s *State) {
	for _, p := range []struct {
		header     string
		confidence float64
	}{
		{HeaderPrimary, 0.95},
		{HeaderSecondary, 0.9},
	} {
		raw := s.Input.Header.Get(p.header)
		if raw == "" {
			continue
		}
		s.Raise(ParseStatus(raw), p.confidence)
		s.Note("%s: %s", strings.ToLower(p.header), raw)
		return
	}
}

func timing(s *State) {
	if !s.HasDuration {
		return
	}
	ms := float64(s.Duration) / float64(time.Millisecond)
	switch {
	case s.Duration < VeryFastThreshold:
		s.Raise(StatusHit, 0.8)
		s.Note("very fast response (%.2fms)", ms)
	case s.Duration < FastThreshold && s.Input.Options.Revalidate > 0:
		s.Raise(StatusHit, 0.7)
		s.Note("fast cached response (%.2fms, revalidate %s)", ms, s.Input.Options.Revalidate)
	}
}

func ageHeader(s *State) {
	if s.Age == nil || *s.Age <= 0 {
		return
	}
	s.Raise(StatusHit, 0.8)
	s.Note("age header: %ds", *s.Age)
}

func staleWhileRevalidate(s *State) {
	if s.MaxAge == nil || !s.CacheControl.Has("stale-while-revalidate") {
		return
	}
	swr, _ := s.CacheControl.Get("stale-while-revalidate")
	s.Note("cache-control: max-age=%d, stale-while-revalidate=%s", *s.MaxAge, swr)
}

func staleness(s *State) {
	if s.Status != StatusHit || s.Age == nil || s.MaxAge == nil {
		return
	}
	if *s.Age > *s.MaxAge {
		s.Status = StatusStale
		s.Note("age %ds exceeds max-age %ds", *s.Age, *s.MaxAge)
	}
}

func noStore(s *State) {
	if s.Input.Options.Cache != DirectiveNoStore {
		return
	}
	s.Force(StatusMiss, 0.95)
	s.Note("cache directive no-store forces MISS")
}
