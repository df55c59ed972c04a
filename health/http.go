package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the JSON body served by Handler.
type Response struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Checks    []CheckResponse `json:"checks,omitempty"`
}

// CheckResponse is one entry of Response.Checks.
type CheckResponse struct {
	Name     string         `json:"name"`
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Handler serves the aggregate health as JSON. It answers 200 for healthy
// and degraded, and 503 for unhealthy.
func Handler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := agg.CheckAll(r.Context())
		status := Overall(results)

		resp := Response{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make([]CheckResponse, 0, len(results)),
		}
		for _, nr := range results {
			check := CheckResponse{
				Name:     nr.Name,
				Status:   nr.Result.Status.String(),
				Message:  nr.Result.Message,
				Duration: nr.Result.Duration.String(),
				Details:  nr.Result.Details,
			}
			if nr.Result.Error != nil {
				check.Error = nr.Result.Error.Error()
			}
			resp.Checks = append(resp.Checks, check)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(StatusCode(status))
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// StatusCode maps s to the HTTP status Handler uses.
func StatusCode(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
