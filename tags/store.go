package tags

import "strings"

// Tag is one catalog entry.
type Tag struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validation partitions a mixed list of tag and group names.
type Validation struct {
	// Valid holds the known names, in input order.
	Valid []string

	// Invalid holds names that are neither a tag nor a group, in input order.
	Invalid []string

	// ExpandedTags is ExpandGroupsToTags(Valid).
	ExpandedTags []string
}

// Store is an immutable index over a tag catalog.
//
// Contract:
// - Concurrency: safe for concurrent use; nothing mutates after New.
// - Ordering: listing methods return catalog order.
// - Namespaces: a name may be both a tag and a group; lookups check each
//   namespace independently.
type Store struct {
	tags   []Tag
	index  map[string]int
	groups map[string][]string
	order  []string
}

// New builds a Store from catalog. Empty names are ignored and the first
// entry wins when a name repeats.
func New(catalog []Tag) *Store {
	s := &Store{
		tags:   make([]Tag, 0, len(catalog)),
		index:  make(map[string]int, len(catalog)),
		groups: make(map[string][]string),
	}
	for _, t := range catalog {
		if t.Name == "" {
			continue
		}
		if _, dup := s.index[t.Name]; dup {
			continue
		}
		s.index[t.Name] = len(s.tags)
		s.tags = append(s.tags, t)

		if g, ok := GroupOf(t.Name); ok {
			if _, seen := s.groups[g]; !seen {
				s.order = append(s.order, g)
			}
			s.groups[g] = append(s.groups[g], t.Name)
		}
	}
	return s
}

// GroupOf returns the group encoded in name: the text before the first
// colon, provided that colon is not the first character.
func GroupOf(name string) (string, bool) {
	i := strings.IndexByte(name, ':')
	if i <= 0 {
		return "", false
	}
	return name[:i], true
}

// HasTag reports whether name is a catalog tag.
func (s *Store) HasTag(name string) bool {
	_, ok := s.index[name]
	return ok
}

// HasGroup reports whether any catalog tag belongs to group.
func (s *Store) HasGroup(group string) bool {
	_, ok := s.groups[group]
	return ok
}

// Tag returns the catalog entry for name.
func (s *Store) Tag(name string) (Tag, bool) {
	i, ok := s.index[name]
	if !ok {
		return Tag{}, false
	}
	return s.tags[i], true
}

// AllTags returns a copy of the catalog.
func (s *Store) AllTags() []Tag {
	out := make([]Tag, len(s.tags))
	copy(out, s.tags)
	return out
}

// Groups returns the group names in order of first appearance.
func (s *Store) Groups() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// TagsByGroup returns the tags in group, or nil for an unknown group.
func (s *Store) TagsByGroup(group string) []string {
	members := s.groups[group]
	if len(members) == 0 {
		return nil
	}
	out := make([]string, len(members))
	copy(out, members)
	return out
}

// TagGroup returns the group of a catalog tag. Unknown and standalone tags
// report false.
func (s *Store) TagGroup(name string) (string, bool) {
	if !s.HasTag(name) {
		return "", false
	}
	return GroupOf(name)
}

// StandaloneTags returns the catalog tags that belong to no group.
func (s *Store) StandaloneTags() []string {
	var out []string
	for _, t := range s.tags {
		if _, ok := GroupOf(t.Name); !ok {
			out = append(out, t.Name)
		}
	}
	return out
}

// ExpandGroupsToTags resolves a mix of tag and group names to the set of
// concrete tags they denote. Groups expand to their members, tags stand
// for themselves and unknown names are dropped. The result holds each tag
// once, in catalog order.
func (s *Store) ExpandGroupsToTags(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	selected := make([]bool, len(s.tags))
	n := 0
	mark := func(name string) {
		if i, ok := s.index[name]; ok && !selected[i] {
			selected[i] = true
			n++
		}
	}
	for _, item := range items {
		for _, member := range s.groups[item] {
			mark(member)
		}
		mark(item)
	}

	out := make([]string, 0, n)
	for i, t := range s.tags {
		if selected[i] {
			out = append(out, t.Name)
		}
	}
	return out
}

// ValidateTagsAndGroups splits items into known and unknown names and
// expands the known ones.
func (s *Store) ValidateTagsAndGroups(items []string) Validation {
	var v Validation
	for _, item := range items {
		if s.HasTag(item) || s.HasGroup(item) {
			v.Valid = append(v.Valid, item)
		} else {
			v.Invalid = append(v.Invalid, item)
		}
	}
	v.ExpandedTags = s.ExpandGroupsToTags(v.Valid)
	return v
}

// Len returns the number of catalog tags.
func (s *Store) Len() int { return len(s.tags) }
