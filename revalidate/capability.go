package revalidate

// Capability is the memoized result of probing the Invalidator.
type Capability int

const (
	// CapabilityUnknown means no probe has completed.
	CapabilityUnknown Capability = iota
	// CapabilityAvailable means invalidation calls go through.
	CapabilityAvailable
	// CapabilityUnavailable means invalidation is a no-op.
	CapabilityUnavailable
)

// String returns the lower-case name of c.
func (c Capability) String() string {
	switch c {
	case CapabilityAvailable:
		return "available"
	case CapabilityUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}
