package assettree

import (
	"strings"

	"github.com/yanorepuser4/dagster/pkg/models"
)

const (
	// DefaultGroupName labels the group row of ungrouped assets.
	DefaultGroupName = "default"
	// UngroupedAssets is the name an ungrouped group is searched by.
	UngroupedAssets = "Ungrouped Assets"
)

// Group is the set of defined assets sharing a group name within a repository.
type Group struct {
	GroupName      *string // nil for ungrouped assets
	RepositoryName string
	LocationName   string
	Assets         []models.Asset
}

// DisplayName is the name shown on the group row.
func (g Group) DisplayName() string {
	if g.GroupName == nil || *g.GroupName == "" {
		return DefaultGroupName
	}
	return *g.GroupName
}

// SearchName is the name the search filter matches against.
func (g Group) SearchName() string {
	if g.GroupName == nil || *g.GroupName == "" {
		return UngroupedAssets
	}
	return *g.GroupName
}

// ID is the expand key for the group row.
func (g Group) ID() string {
	return GroupID(g.RepositoryName, g.LocationName, g.DisplayName())
}

// CodeLocation is the display name of the location row the group sits under.
func (g Group) CodeLocation() string {
	return models.RepoPathForHuman(g.RepositoryName, g.LocationName)
}

// GroupID builds the expand key for a group row.
func GroupID(repositoryName, locationName, groupName string) string {
	return groupName + "@" + repositoryName + "@" + locationName
}

// groupKey partitions assets. A nil group name is distinct from any named
// group, including one literally called "null".
type groupKey struct {
	named      bool
	name       string
	repository string
}

// GroupAssets partitions defined assets into groups in first-seen order.
// Assets without a definition are skipped. Within a group, assets keep their
// input order and repeated keys are dropped.
func GroupAssets(assets []models.Asset) []Group {
	index := make(map[groupKey]int)
	seen := make(map[groupKey]map[string]struct{})
	var groups []Group

	for _, asset := range assets {
		def := asset.Definition
		if def == nil {
			continue
		}
		key := groupKey{repository: def.Repository.Name}
		if def.GroupName != nil {
			key.named = true
			key.name = *def.GroupName
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			seen[key] = make(map[string]struct{})
			groups = append(groups, Group{
				GroupName:      def.GroupName,
				RepositoryName: def.Repository.Name,
				LocationName:   def.Repository.Location.Name,
			})
		}

		token := asset.Key.Token()
		if _, dup := seen[key][token]; dup {
			continue
		}
		seen[key][token] = struct{}{}
		groups[i].Assets = append(groups[i].Assets, asset)
	}
	return groups
}

// Filter narrows groups to a case-insensitive search. A group whose name or
// repository name contains the search is kept whole; otherwise only its
// assets whose key contains the search remain, and groups left empty are
// dropped. An empty search returns groups unchanged.
func Filter(groups []Group, search string) []Group {
	q := strings.ToLower(search)
	if q == "" {
		return groups
	}

	var out []Group
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.SearchName()), q) ||
			strings.Contains(strings.ToLower(g.RepositoryName), q) {
			out = append(out, g)
			continue
		}

		var matched []models.Asset
		for _, a := range g.Assets {
			if strings.Contains(strings.ToLower(a.Key.Token()), q) {
				matched = append(matched, a)
			}
		}
		if len(matched) > 0 {
			g.Assets = matched
			out = append(out, g)
		}
	}
	return out
}
