package assettree

import (
	"sync"

	"github.com/yanorepuser4/dagster/pkg/models"
)

// View runs the whole transform: group, filter, then build. A result that
// resolved to an error payload has no rows.
func View(result models.AssetsResult, search string, expanded ExpandedSet, opts ...Option) []Node {
	if result.Failed() {
		return nil
	}
	return Build(Filter(GroupAssets(result.Assets), search), expanded, opts...)
}

// Tree memoizes the transform for one asset list. Grouping runs once; the
// filtered groups are cached per search and the rows per (search, expanded)
// pair, matching how the views rebuild on every keystroke or toggle.
type Tree struct {
	mu   sync.Mutex
	opts []Option

	groups []Group

	search   string
	filtered []Group
	hasRows  bool
	rowsKey  string
	rows     []Node
}

// NewTree groups assets and prepares the memoized transform.
func NewTree(assets []models.Asset, opts ...Option) *Tree {
	groups := GroupAssets(assets)
	return &Tree{
		opts:     opts,
		groups:   groups,
		filtered: groups,
	}
}

// Groups returns the unfiltered groups.
func (t *Tree) Groups() []Group {
	return t.groups
}

// Rows returns the flattened rows for the search and expanded set, reusing
// the previous result when neither changed.
func (t *Tree) Rows(search string, expanded ExpandedSet) []Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	if search != t.search {
		t.search = search
		t.filtered = Filter(t.groups, search)
		t.hasRows = false
	}
	key := expanded.Key()
	if t.hasRows && key == t.rowsKey {
		return t.rows
	}
	t.rows = Build(t.filtered, expanded, t.opts...)
	t.rowsKey = key
	t.hasRows = true
	return t.rows
}

// AllIDs returns the ids of every foldable row for the search, as if every
// node were open. Used for expand-all.
func (t *Tree) AllIDs(search string) []string {
	t.mu.Lock()
	filtered := t.filtered
	if search != t.search {
		filtered = Filter(t.groups, search)
	}
	t.mu.Unlock()

	var ids []string
	seen := make(map[string]struct{})
	for _, g := range filtered {
		for _, id := range []string{g.CodeLocation(), g.ID()} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
