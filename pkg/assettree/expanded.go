package assettree

import (
	"sort"
	"strings"
)

// ExpandedSet holds the ids of open location and group rows. Values are
// treated as immutable: mutating methods return a new set so a rebuilt tree
// can be keyed on the set it was built from.
type ExpandedSet struct {
	ids map[string]struct{}
}

// NewExpandedSet returns a set containing ids.
func NewExpandedSet(ids ...string) ExpandedSet {
	s := ExpandedSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// Has reports whether id is open.
func (s ExpandedSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of open ids.
func (s ExpandedSet) Len() int {
	return len(s.ids)
}

// With returns a copy of the set with id opened.
func (s ExpandedSet) With(id string) ExpandedSet {
	if s.Has(id) {
		return s
	}
	out := s.clone()
	out.ids[id] = struct{}{}
	return out
}

// Without returns a copy of the set with id closed.
func (s ExpandedSet) Without(id string) ExpandedSet {
	if !s.Has(id) {
		return s
	}
	out := s.clone()
	delete(out.ids, id)
	return out
}

// Toggle returns a copy of the set with id flipped.
func (s ExpandedSet) Toggle(id string) ExpandedSet {
	if s.Has(id) {
		return s.Without(id)
	}
	return s.With(id)
}

// Slice returns the open ids in sorted order.
func (s ExpandedSet) Slice() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Key is a stable fingerprint of the set's contents.
func (s ExpandedSet) Key() string {
	return strings.Join(s.Slice(), "\x00")
}

func (s ExpandedSet) clone() ExpandedSet {
	out := ExpandedSet{ids: make(map[string]struct{}, len(s.ids)+1)}
	for id := range s.ids {
		out.ids[id] = struct{}{}
	}
	return out
}
