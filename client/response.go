package client

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonwraymond/cachesignal/classify"
	"github.com/jonwraymond/cachesignal/revalidate"
)

// Response is the uniform result of a request.
type Response struct {
	Status int
	OK     bool
	Header http.Header
	Body   []byte

	// Cache is set for reads.
	Cache *classify.Classification

	// Revalidation is set for successful mutations.
	Revalidation *revalidate.Report

	// RequestID is the X-Request-ID sent with the request.
	RequestID string

	Duration time.Duration
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return ErrEmptyBody
	}
	return json.Unmarshal(r.Body, v)
}
