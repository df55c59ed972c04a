package revalidate

import "fmt"

// Strategy selects the invalidation primitive.
type Strategy string

const (
	// StrategyDefault defers to configuration, then to StrategyPrimary.
	StrategyDefault Strategy = ""

	// StrategyPrimary calls RevalidateTag with a profile.
	StrategyPrimary Strategy = "revalidate"

	// StrategySecondary calls UpdateTag.
	StrategySecondary Strategy = "update"
)

// DefaultProfile is passed to the primary strategy when neither the call
// nor the configuration names one.
const DefaultProfile = "max"

// String implements fmt.Stringer.
func (s Strategy) String() string {
	if s == StrategyDefault {
		return "default"
	}
	return string(s)
}

// ParseStrategy accepts "revalidate" or "primary", "update" or "secondary",
// and the empty string.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "":
		return StrategyDefault, nil
	case "revalidate", "primary":
		return StrategyPrimary, nil
	case "update", "secondary":
		return StrategySecondary, nil
	default:
		return StrategyDefault, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}
