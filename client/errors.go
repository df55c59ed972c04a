package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidBaseURL is returned by New for a base URL without scheme
	// and host.
	ErrInvalidBaseURL = errors.New("client: invalid base url")

	// ErrEmptyBody is returned by Response.Decode when there is nothing to
	// decode.
	ErrEmptyBody = errors.New("client: empty body")
)

// StatusError is returned alongside the Response for non-2xx answers.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: %s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == code
}
