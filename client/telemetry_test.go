package client

import (
	"context"
	"net/http"
	"slices"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/cachesignal/observe"
	"github.com/jonwraymond/cachesignal/revalidate"
)

func counterTotal(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: expected Sum[int64], got %T", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestClient_Telemetry(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, http.Header{"Age": {"5"}}, `{}`)

	reader := sdkmetric.NewManualReader()
	metrics, err := observe.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	spans := tracetest.NewSpanRecorder()
	tracer := observe.NewTracer(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer("test"))

	c, _ := New(srv.URL,
		WithConfig(staticConfig(nil)),
		WithInvalidator(&recorder{}),
		WithMetrics(metrics),
		WithTracer(tracer),
	)
	ctx := context.Background()
	if _, err := c.Get(ctx, "/a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Post(ctx, "/a", WithRevalidateTags(revalidate.Tags("a"))); err != nil {
		t.Fatal(err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]int64{
		"http.client.requests":     2,
		"cache.classifications":    1,
		"revalidate.invalidations": 1,
	} {
		if got := counterTotal(t, rm, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}

	var names []string
	for _, s := range spans.Ended() {
		names = append(names, s.Name())
	}
	slices.Sort(names)
	want := []string{"client.request", "client.request", "revalidate.invalidate"}
	if !slices.Equal(names, want) {
		t.Errorf("spans = %v, want %v", names, want)
	}
}

func TestWithObserver(t *testing.T) {
	obs, err := observe.NewObserver(context.Background(), observe.Config{ServiceName: "client-test"})
	if err != nil {
		t.Fatal(err)
	}
	defer obs.Shutdown(context.Background())

	c, _ := New("https://api.example.com", WithConfig(staticConfig(nil)), WithObserver(obs))
	if c.metrics != obs.Metrics() {
		t.Error("WithObserver did not install the observer primitives")
	}
}
