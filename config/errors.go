package config

import "errors"

var (
	// ErrInvalidConfig is returned when discovered values fail validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrUnsupportedFormat is returned for a config file with an unknown extension.
	ErrUnsupportedFormat = errors.New("config: unsupported file format")

	// ErrNoSource is returned by Watch when there is nothing to watch.
	ErrNoSource = errors.New("config: no config source to watch")
)
