package secret

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// ExpandEnvStrict expands ${VAR} references in s using the process environment.
func ExpandEnvStrict(s string) (string, error) {
	return expandWith(s, os.LookupEnv)
}

func expandWith(s string, lookup LookupFunc) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}
	const dollar = "\x00CACHESIGNAL_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := envVarPattern.FindStringSubmatch(m)[1]
		v, ok := lookup(key)
		if !ok {
			if !slices.Contains(missing, key) {
				missing = append(missing, key)
			}
			return m
		}
		return v
	})
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return strings.ReplaceAll(out, dollar, "$"), nil
}
