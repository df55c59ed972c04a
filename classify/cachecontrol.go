package classify

import (
	"strconv"
	"strings"
)

// CacheControl holds parsed Cache-Control directives.
type CacheControl struct {
	directives map[string]string
}

// ParseCacheControl parses one or more Cache-Control header values.
// Directive names are lower-cased and quoted arguments unquoted. When a
// directive repeats, the last one wins.
func ParseCacheControl(values ...string) CacheControl {
	m := make(map[string]string)
	for _, value := range values {
		for _, directive := range strings.Split(value, ",") {
			directive = strings.TrimSpace(directive)
			if directive == "" {
				continue
			}
			name, arg, _ := strings.Cut(directive, "=")
			m[strings.ToLower(strings.TrimSpace(name))] = strings.Trim(strings.TrimSpace(arg), `"`)
		}
	}
	return CacheControl{directives: m}
}

// Get returns the argument of directive and whether it is present.
func (c CacheControl) Get(directive string) (string, bool) {
	v, ok := c.directives[directive]
	return v, ok
}

// Has reports whether directive is present.
func (c CacheControl) Has(directive string) bool {
	_, ok := c.directives[directive]
	return ok
}

// Seconds returns the argument of directive as a base-10 integer.
// Missing or unparsable arguments report false.
func (c CacheControl) Seconds(directive string) (int, bool) {
	v, ok := c.directives[directive]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Len returns the number of directives.
func (c CacheControl) Len() int { return len(c.directives) }
