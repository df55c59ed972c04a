package classify

import "strings"

// Status is the inferred cache outcome.
type Status string

const (
	StatusHit         Status = "HIT"
	StatusMiss        Status = "MISS"
	StatusStale       Status = "STALE"
	StatusRevalidated Status = "REVALIDATED"
)

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// providerStatus maps provider cache header values onto Status. Values are
// compared upper-cased; anything not listed reads as MISS.
var providerStatus = map[string]Status{
	"HIT":         StatusHit,
	"PRERENDER":   StatusHit,
	"MISS":        StatusMiss,
	"BYPASS":      StatusMiss,
	"DYNAMIC":     StatusMiss,
	"NONE":        StatusMiss,
	"UNKNOWN":     StatusMiss,
	"STALE":       StatusStale,
	"EXPIRED":     StatusStale,
	"UPDATING":    StatusStale,
	"REVALIDATED": StatusRevalidated,
}

// ParseStatus normalizes a provider header value.
func ParseStatus(raw string) Status {
	if s, ok := providerStatus[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusMiss
}

// Directive is the request's cache mode.
type Directive string

const (
	DirectiveDefault      Directive = ""
	DirectiveForceCache   Directive = "force-cache"
	DirectiveNoStore      Directive = "no-store"
	DirectiveNoCache      Directive = "no-cache"
	DirectiveReload       Directive = "reload"
	DirectiveOnlyIfCached Directive = "only-if-cached"
)
