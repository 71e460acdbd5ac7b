package assettree

import (
	"sort"

	"github.com/yanorepuser4/dagster/pkg/models"
)

// AutoExpand reports whether rows at a level are shown regardless of the
// expanded set. A level holding exactly one row is always open, so a
// single code location or a single group never hides its children.
func AutoExpand(siblings int) bool {
	return siblings == 1
}

// IsOpen combines the expanded set with the singleton rule.
func IsOpen(expanded ExpandedSet, id string, siblings int) bool {
	return expanded.Has(id) || AutoExpand(siblings)
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	collator *Collator
}

// WithCollator overrides the collator used to order asset rows.
func WithCollator(c *Collator) Option {
	return func(o *buildOptions) {
		if c != nil {
			o.collator = c
		}
	}
}

// locationEntry and groupEntry form the ordered tree. Each level keeps an
// index map for lookup and a slice for first-seen iteration order.
type locationEntry struct {
	id     string
	groups []*groupEntry
	index  map[string]int
}

type groupEntry struct {
	id     string
	name   string
	assets []models.Asset
	seen   map[string]struct{}
}

// Build arranges groups into code locations and flattens the tree into rows.
// Locations and groups appear in first-seen order; assets are sorted by key
// with the collator. Children of a location or group are emitted only when
// its id is in expanded or it is the only row at its level overall.
//
// Groups that map to the same group id (an ungrouped group and one named
// "default" in the same repository and location) share a single row and
// their assets are merged.
func Build(groups []Group, expanded ExpandedSet, opts ...Option) []Node {
	o := buildOptions{collator: DefaultCollator()}
	for _, opt := range opts {
		opt(&o)
	}

	var locations []*locationEntry
	locIndex := make(map[string]int)
	groupsCount := 0

	for _, g := range groups {
		locID := g.CodeLocation()
		li, ok := locIndex[locID]
		if !ok {
			li = len(locations)
			locIndex[locID] = li
			locations = append(locations, &locationEntry{id: locID, index: make(map[string]int)})
		}
		loc := locations[li]

		gid := g.ID()
		gi, ok := loc.index[gid]
		if !ok {
			gi = len(loc.groups)
			loc.index[gid] = gi
			loc.groups = append(loc.groups, &groupEntry{
				id:   gid,
				name: g.DisplayName(),
				seen: make(map[string]struct{}),
			})
			groupsCount++
		}
		entry := loc.groups[gi]
		for _, a := range g.Assets {
			token := a.Key.Token()
			if _, dup := entry.seen[token]; dup {
				continue
			}
			entry.seen[token] = struct{}{}
			entry.assets = append(entry.assets, a)
		}
	}

	var nodes []Node
	for _, loc := range locations {
		locOpen := IsOpen(expanded, loc.id, len(locations))
		nodes = append(nodes, Node{
			Kind:         KindLocation,
			ID:           loc.id,
			Level:        1,
			LocationName: loc.id,
			Open:         locOpen,
			ChildCount:   len(loc.groups),
			Keys:         loc.keys(),
		})
		if !locOpen {
			continue
		}

		for _, g := range loc.groups {
			groupOpen := IsOpen(expanded, g.id, groupsCount)
			nodes = append(nodes, Node{
				Kind:       KindGroup,
				ID:         g.id,
				Level:      2,
				GroupName:  g.name,
				Open:       groupOpen,
				ChildCount: len(g.assets),
				Keys:       g.keys(),
			})
			if !groupOpen {
				continue
			}

			for _, a := range sortAssets(g.assets, o.collator) {
				asset := a
				token := asset.Key.Token()
				nodes = append(nodes, Node{
					Kind:  KindAsset,
					ID:    token,
					Level: 3,
					Path:  loc.id + ":" + g.name + ":" + token,
					Asset: &asset,
					Keys:  []string{token},
				})
			}
		}
	}
	return nodes
}

// sortAssets returns a sorted copy; the input slice may be shared with the
// caller's groups.
func sortAssets(assets []models.Asset, c *Collator) []models.Asset {
	out := make([]models.Asset, len(assets))
	copy(out, assets)
	sort.SliceStable(out, func(i, j int) bool {
		return c.Compare(out[i].Key.Token(), out[j].Key.Token()) < 0
	})
	return out
}

func (l *locationEntry) keys() []string {
	var keys []string
	for _, g := range l.groups {
		keys = append(keys, g.keys()...)
	}
	return keys
}

func (g *groupEntry) keys() []string {
	keys := make([]string, 0, len(g.assets))
	for _, a := range g.assets {
		keys = append(keys, a.Key.Token())
	}
	return keys
}
