package health

import "errors"

var (
	// ErrCheckTimeout is recorded on a result whose checker outlived its timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
