package tags

import "errors"

var (
	// ErrInvalidTable is returned by LoadSQL for a table name that is not a
	// plain identifier.
	ErrInvalidTable = errors.New("tags: invalid table name")

	// ErrUnsupportedFormat is returned by LoadFile for an unknown extension.
	ErrUnsupportedFormat = errors.New("tags: unsupported catalog format")
)
