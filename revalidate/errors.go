package revalidate

import "errors"

var (
	// ErrUnavailable is returned by adapters that lack the requested primitive.
	ErrUnavailable = errors.New("revalidate: invalidation unavailable")

	// ErrUnknownStrategy is returned by ParseStrategy.
	ErrUnknownStrategy = errors.New("revalidate: unknown strategy")

	// ErrPanic wraps a panic raised by an invalidation primitive.
	ErrPanic = errors.New("revalidate: invalidator panicked")
)
