package remote

import "errors"

var (
	// ErrMissingURL is returned by NewClient without a webhook URL.
	ErrMissingURL = errors.New("remote: webhook url is required")

	// ErrStatus is wrapped by errors for non-2xx webhook responses.
	ErrStatus = errors.New("remote: unexpected webhook status")
)
