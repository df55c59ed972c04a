// Package config holds the process-wide settings read by the cache
// classifier consumer, the revalidation dispatcher and the HTTP client.
//
// A Store discovers overrides from conventional config files, merges them
// over built-in defaults and serves immutable snapshots. Loading is
// single-flight: concurrent callers during a cold start share one discovery.
package config

import (
	"fmt"
	"slices"
)

// Config is the effective configuration. Values are snapshots: changing a
// returned Config never changes the Store.
type Config struct {
	// DefaultAuth attaches credentials to requests that do not choose.
	DefaultAuth bool `json:"defaultAuth" yaml:"defaultAuth"`

	// SessionCookie names the cookie holding the session token.
	SessionCookie string `json:"sessionCookie" yaml:"sessionCookie"`

	// AuthScheme is the Authorization scheme verb, e.g. "Bearer".
	AuthScheme string `json:"authScheme" yaml:"authScheme"`

	// RevalidateStrategy is the process default invalidation strategy.
	// Empty selects the built-in primary strategy.
	RevalidateStrategy string `json:"revalidateStrategy" yaml:"revalidateStrategy"`

	// RevalidateProfile is the default profile passed to the primary strategy.
	RevalidateProfile string `json:"revalidateProfile" yaml:"revalidateProfile"`

	// LogLevel is one of debug|info|warn|error.
	LogLevel string `json:"logLevel" yaml:"logLevel"`

	Debug   DebugConfig   `json:"debug" yaml:"debug"`
	Webhook WebhookConfig `json:"webhook" yaml:"webhook"`
}

// DebugConfig toggles diagnostic output.
type DebugConfig struct {
	// WarnOnEmptyTags warns when a mutating request revalidates no tags.
	WarnOnEmptyTags bool `json:"warnOnEmptyTags" yaml:"warnOnEmptyTags"`

	// WarnOnUnknownTags warns when a selector names tags outside the catalog.
	WarnOnUnknownTags bool `json:"warnOnUnknownTags" yaml:"warnOnUnknownTags"`

	// LogCacheStatus logs one line per classified read.
	LogCacheStatus bool `json:"logCacheStatus" yaml:"logCacheStatus"`

	// LogCacheIndicators adds the indicator list to cache status lines.
	LogCacheIndicators bool `json:"logCacheIndicators" yaml:"logCacheIndicators"`
}

// WebhookConfig points at a remote invalidation endpoint.
type WebhookConfig struct {
	URL   string `json:"url" yaml:"url"`
	Token string `json:"token" yaml:"token"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DefaultAuth:       false,
		SessionCookie:     "session",
		AuthScheme:        "Bearer",
		RevalidateProfile: "max",
		LogLevel:          "info",
		Debug: DebugConfig{
			WarnOnEmptyTags:   true,
			WarnOnUnknownTags: true,
		},
	}
}

var (
	validStrategies = []string{"", "revalidate", "update", "primary", "secondary"}
	validLogLevels  = []string{"", "debug", "info", "warn", "error"}
)

// Validate checks enumerated fields.
func (c Config) Validate() error {
	if !slices.Contains(validStrategies, c.RevalidateStrategy) {
		return fmt.Errorf("%w: revalidateStrategy %q", ErrInvalidConfig, c.RevalidateStrategy)
	}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("%w: logLevel %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
