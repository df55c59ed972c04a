package remote

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jonwraymond/cachesignal/auth"
	"github.com/jonwraymond/cachesignal/health"
	"github.com/jonwraymond/cachesignal/observe"
	"github.com/jonwraymond/cachesignal/revalidate"
	"github.com/jonwraymond/cachesignal/tags"
)

// maxBody bounds request bodies.
const maxBody = 64 << 10

// HandlerConfig configures NewHandler.
type HandlerConfig struct {
	// Token, when set, must arrive as a bearer token on POST routes.
	Token string

	// Verifier checks bearer tokens on POST routes and takes precedence
	// over Token.
	Verifier auth.Verifier

	// Tags expands group names and rejects unknown tags when set.
	Tags *tags.Store

	// Health backs GET /healthz. Without it the route reports whether the
	// Invalidator is available.
	Health *health.Aggregator

	Logger observe.Logger
}

// Response is the JSON body returned by the POST routes.
type Response struct {
	Invalidated []string `json:"invalidated,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// NewHandler exposes inv over HTTP.
func NewHandler(inv revalidate.Invalidator, cfg HandlerConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	h := &handler{inv: inv, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.healthz)
	r.Group(func(r chi.Router) {
		if v := cfg.verifier(); v != nil {
			r.Use(auth.Middleware(v, h.deny))
		}
		r.Post("/revalidate", h.invalidate(revalidate.StrategyPrimary))
		r.Post("/update", h.invalidate(revalidate.StrategySecondary))
	})
	return r
}

type handler struct {
	inv revalidate.Invalidator
	cfg HandlerConfig
}

func (c HandlerConfig) verifier() auth.Verifier {
	if c.Verifier != nil {
		return c.Verifier
	}
	if c.Token != "" {
		return auth.StaticVerifier{Secret: c.Token, Subject: "webhook"}
	}
	return nil
}

func (h *handler) deny(w http.ResponseWriter, r *http.Request, err error) {
	h.cfg.Logger.Warn(r.Context(), "remote invalidation rejected",
		observe.F("request_id", r.Header.Get(RequestIDHeader)),
		observe.F("error", err),
	)
	writeJSON(w, http.StatusUnauthorized, Response{Error: "invalid token"})
}

func (h *handler) invalidate(strategy revalidate.Strategy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req Request
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Error: "invalid json: " + err.Error()})
			return
		}
		if strings.TrimSpace(req.Tag) == "" {
			writeJSON(w, http.StatusBadRequest, Response{Error: "tag is required"})
			return
		}

		targets := []string{req.Tag}
		if h.cfg.Tags != nil {
			targets = h.cfg.Tags.ExpandGroupsToTags(targets)
			if len(targets) == 0 {
				writeJSON(w, http.StatusBadRequest, Response{Error: "unknown tag " + req.Tag})
				return
			}
		}
		profile := req.Profile
		if profile == "" {
			profile = revalidate.DefaultProfile
		}

		var done []string
		for _, tag := range targets {
			var err error
			if strategy == revalidate.StrategySecondary {
				err = h.inv.UpdateTag(ctx, tag)
			} else {
				err = h.inv.RevalidateTag(ctx, tag, profile)
			}
			if err != nil {
				h.cfg.Logger.Error(ctx, "remote invalidation failed",
					observe.F("tag", tag),
					observe.F("strategy", strategy.String()),
					observe.F("request_id", r.Header.Get(RequestIDHeader)),
					observe.F("error", err),
				)
				code := http.StatusBadGateway
				if errors.Is(err, revalidate.ErrUnavailable) {
					code = http.StatusServiceUnavailable
				}
				writeJSON(w, code, Response{Invalidated: done, Error: err.Error()})
				return
			}
			done = append(done, tag)
		}
		h.cfg.Logger.Info(ctx, "remote invalidation",
			observe.F("tags", done),
			observe.F("strategy", strategy.String()),
			observe.F("subject", auth.SubjectFromContext(ctx)),
			observe.F("request_id", r.Header.Get(RequestIDHeader)),
		)
		writeJSON(w, http.StatusOK, Response{Invalidated: done})
	}
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Health != nil {
		health.Handler(h.cfg.Health)(w, r)
		return
	}
	if p, ok := h.inv.(revalidate.Prober); ok && !p.Available(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
