package classify

import (
	"net/http"
	"slices"
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func window(d time.Duration) Window {
	return Window{Start: t0, End: t0.Add(d)}
}

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Add(kv[i], kv[i+1])
	}
	return h
}

func TestClassify_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		in             Input
		wantStatus     Status
		wantConfidence float64
		minConfidence  bool
	}{
		{
			name:           "primary header wins regardless of timing",
			in:             Input{Header: header("x-vercel-cache", "HIT"), Window: window(500 * time.Millisecond)},
			wantStatus:     StatusHit,
			wantConfidence: 0.95,
		},
		{
			name:           "primary header with fast timing keeps 0.95",
			in:             Input{Header: header("x-vercel-cache", "hit"), Window: window(time.Millisecond)},
			wantStatus:     StatusHit,
			wantConfidence: 0.95,
		},
		{
			name:           "primary beats secondary",
			in:             Input{Header: header("x-vercel-cache", "STALE", "cf-cache-status", "HIT")},
			wantStatus:     StatusStale,
			wantConfidence: 0.95,
		},
		{
			name:           "secondary header",
			in:             Input{Header: header("cf-cache-status", "REVALIDATED")},
			wantStatus:     StatusRevalidated,
			wantConfidence: 0.9,
		},
		{
			name:           "very fast response",
			in:             Input{Window: window(2 * time.Millisecond)},
			wantStatus:     StatusHit,
			wantConfidence: 0.8,
			minConfidence:  true,
		},
		{
			name:           "fast with revalidate",
			in:             Input{Window: window(12 * time.Millisecond), Options: RequestOptions{Revalidate: time.Minute}},
			wantStatus:     StatusHit,
			wantConfidence: 0.7,
			minConfidence:  true,
		},
		{
			name:           "fast without revalidate",
			in:             Input{Window: window(12 * time.Millisecond)},
			wantStatus:     StatusMiss,
			wantConfidence: 0.5,
		},
		{
			name:           "positive age",
			in:             Input{Header: header("age", "30"), Window: window(100 * time.Millisecond)},
			wantStatus:     StatusHit,
			wantConfidence: 0.8,
		},
		{
			name:           "zero age ignored",
			in:             Input{Header: header("age", "0")},
			wantStatus:     StatusMiss,
			wantConfidence: 0.5,
		},
		{
			name:           "unparsable age ignored",
			in:             Input{Header: header("age", "soon")},
			wantStatus:     StatusMiss,
			wantConfidence: 0.5,
		},
		{
			name:           "age beyond max-age is stale",
			in:             Input{Header: header("age", "120", "cache-control", "max-age=60")},
			wantStatus:     StatusStale,
			wantConfidence: 0.8,
		},
		{
			name:           "age within max-age stays hit",
			in:             Input{Header: header("age", "30", "cache-control", "max-age=60")},
			wantStatus:     StatusHit,
			wantConfidence: 0.8,
		},
		{
			name:           "staleness needs a hit",
			in:             Input{Header: header("x-vercel-cache", "MISS", "age", "0", "cache-control", "max-age=60")},
			wantStatus:     StatusMiss,
			wantConfidence: 0.95,
		},
		{
			name: "no-store always wins",
			in: Input{
				Header:  header("age", "100", "x-vercel-cache", "HIT"),
				Window:  window(time.Millisecond),
				Options: RequestOptions{Cache: DirectiveNoStore},
			},
			wantStatus:     StatusMiss,
			wantConfidence: 0.95,
		},
		{
			name:           "nothing at all",
			in:             Input{},
			wantStatus:     StatusMiss,
			wantConfidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s (indicators %v)", got.Status, tt.wantStatus, got.Indicators)
			}
			if tt.minConfidence {
				if got.Confidence < tt.wantConfidence {
					t.Errorf("Confidence = %v, want >= %v", got.Confidence, tt.wantConfidence)
				}
			} else if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Errorf("Confidence %v out of range", got.Confidence)
			}
			if len(got.Indicators) == 0 {
				t.Error("expected at least one indicator")
			}
		})
	}
}

func TestClassify_NoIndicatorsPlaceholder(t *testing.T) {
	got := Classify(Input{Header: header("content-type", "text/plain")})
	if !slices.Equal(got.Indicators, []string{"no cache indicators found"}) {
		t.Errorf("Indicators = %v", got.Indicators)
	}
}

func TestClassify_IndicatorsExplainRules(t *testing.T) {
	got := Classify(Input{
		Header: header(
			"x-vercel-cache", "HIT",
			"age", "90",
			"cache-control", "public, max-age=60, stale-while-revalidate=30",
		),
	})

	if got.Status != StatusStale {
		t.Errorf("Status = %s, want STALE", got.Status)
	}
	want := []string{
		"x-vercel-cache: HIT",
		"age header: 90s",
		"cache-control: max-age=60, stale-while-revalidate=30",
		"age 90s exceeds max-age 60s",
	}
	if !slices.Equal(got.Indicators, want) {
		t.Errorf("Indicators = %q\nwant %q", got.Indicators, want)
	}
}

func TestClassify_Metadata(t *testing.T) {
	tags := []string{"users:list"}
	got := Classify(Input{
		Header:  header("age", "5"),
		Window:  window(1500 * time.Microsecond),
		Options: RequestOptions{Tags: tags, Revalidate: 30 * time.Second, Cache: DirectiveForceCache},
	})

	m := got.Metadata
	if m.Age == nil || *m.Age != 5 {
		t.Errorf("Age = %v, want 5", m.Age)
	}
	if !slices.Equal(m.Tags, tags) {
		t.Errorf("Tags = %v", m.Tags)
	}
	if !m.HasRevalidate || m.Revalidate != 30*time.Second {
		t.Errorf("Revalidate = %v, %v", m.Revalidate, m.HasRevalidate)
	}
	if m.DurationMs != 1.5 {
		t.Errorf("DurationMs = %v, want 1.5", m.DurationMs)
	}
	if m.Cache != DirectiveForceCache {
		t.Errorf("Cache = %q", m.Cache)
	}

	tags[0] = "changed"
	if m.Tags[0] != "users:list" {
		t.Error("metadata shares the caller's tag slice")
	}
}

func TestClassify_UnknownProviderValue(t *testing.T) {
	got := Classify(Input{Header: header("x-vercel-cache", "WEIRD")})
	if got.Status != StatusMiss || got.Confidence != 0.95 {
		t.Errorf("got %s/%v, want MISS/0.95", got.Status, got.Confidence)
	}
	if got.Indicators[0] != "x-vercel-cache: WEIRD" {
		t.Errorf("indicator = %q", got.Indicators[0])
	}
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"HIT":         StatusHit,
		"hit":         StatusHit,
		" Miss ":      StatusMiss,
		"PRERENDER":   StatusHit,
		"EXPIRED":     StatusStale,
		"UPDATING":    StatusStale,
		"BYPASS":      StatusMiss,
		"DYNAMIC":     StatusMiss,
		"REVALIDATED": StatusRevalidated,
		"":            StatusMiss,
	}
	for raw, want := range tests {
		if got := ParseStatus(raw); got != want {
			t.Errorf("ParseStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestWindow_Duration(t *testing.T) {
	if _, ok := (Window{}).Duration(); ok {
		t.Error("zero window should have no duration")
	}
	if _, ok := (Window{Start: t0.Add(time.Second), End: t0}).Duration(); ok {
		t.Error("backwards window should have no duration")
	}
	if d, ok := window(3 * time.Millisecond).Duration(); !ok || d != 3*time.Millisecond {
		t.Errorf("Duration() = %v, %v", d, ok)
	}
}

func TestClassifier_CustomRules(t *testing.T) {
	etag := RuleFunc{RuleName: "etag", Fn: func(s *State) {
		if s.Input.StatusCode == http.StatusNotModified {
			s.Raise(StatusRevalidated, 0.85)
			s.Note("304 not modified")
		}
	}}
	c := New(append(DefaultRules(), etag)...)

	got := c.Classify(Input{StatusCode: http.StatusNotModified})
	if got.Status != StatusRevalidated || got.Confidence != 0.85 {
		t.Errorf("got %s/%v", got.Status, got.Confidence)
	}
	if len(c.Rules()) != len(DefaultRules())+1 {
		t.Errorf("Rules() = %d", len(c.Rules()))
	}
}

func TestClassification_Fields(t *testing.T) {
	got := Classify(Input{
		Header:  header("age", "10"),
		Options: RequestOptions{Tags: []string{"a"}, Revalidate: time.Minute, Cache: DirectiveNoCache},
	})

	keys := make([]string, 0)
	for _, f := range got.Fields() {
		keys = append(keys, f.Key)
	}
	for _, want := range []string{"cache.status", "cache.confidence", "cache.duration_ms", "cache.age", "cache.tags", "cache.revalidate", "cache.directive"} {
		if !slices.Contains(keys, want) {
			t.Errorf("missing field %q in %s", want, strings.Join(keys, ","))
		}
	}
}
