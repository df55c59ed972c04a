package revalidate

import "slices"

// Selector names the tags a mutation invalidates. The zero value selects
// nothing and is treated like an empty list.
type Selector struct {
	tags  []string
	never bool
}

// Tags selects the given tag or group names.
func Tags(tags ...string) Selector {
	return Selector{tags: slices.Clone(tags)}
}

// Never opts a request out of revalidation entirely.
func Never() Selector {
	return Selector{never: true}
}

// IsNever reports whether s opts out.
func (s Selector) IsNever() bool { return s.never }

// IsEmpty reports whether s selects no tags.
func (s Selector) IsEmpty() bool { return len(s.tags) == 0 }

// List returns a copy of the selected names.
func (s Selector) List() []string { return slices.Clone(s.tags) }
