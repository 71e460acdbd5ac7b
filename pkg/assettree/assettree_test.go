package assettree

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanorepuser4/dagster/pkg/models"
)

func asset(key, group, repo, location string) models.Asset {
	var groupName *string
	if group != "" {
		groupName = models.StringPtr(group)
	}
	return models.Asset{
		ID:  key,
		Key: models.NewAssetKey(strings.Split(key, "/")...),
		Definition: &models.AssetDefinition{
			GroupName: groupName,
			Repository: models.Repository{
				Name:     repo,
				Location: models.RepositoryLocation{Name: location},
			},
		},
	}
}

func undefined(key string) models.Asset {
	return models.Asset{ID: key, Key: models.NewAssetKey(strings.Split(key, "/")...)}
}

func labels(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Kind.String()+":"+n.Label())
	}
	return out
}

func openAll(groups []Group) ExpandedSet {
	var ids []string
	for _, g := range groups {
		ids = append(ids, g.CodeLocation(), g.ID())
	}
	return NewExpandedSet(ids...)
}

func assetTokens(nodes []Node) []string {
	var out []string
	for _, n := range nodes {
		if n.Kind == KindAsset {
			out = append(out, n.ID)
		}
	}
	return out
}

func TestSearchNarrowsToMatchingAsset(t *testing.T) {
	assets := []models.Asset{
		asset("a/b", "g1", "r1", "loc"),
		asset("c/d", "g1", "r1", "loc"),
		asset("e/f", "g2", "r1", "loc"),
	}

	groups := Filter(GroupAssets(assets), "c/d")
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].DisplayName())
	require.Len(t, groups[0].Assets, 1)
	assert.Equal(t, "c/d", groups[0].Assets[0].Key.Token())

	nodes := Build(groups, NewExpandedSet())
	assert.Equal(t, []string{
		"location:r1@loc",
		"group:g1",
		"asset:c/d",
	}, labels(nodes))
}

func TestGroupAssetsDropsUndefined(t *testing.T) {
	assets := []models.Asset{
		asset("a", "g1", "r1", "loc"),
		undefined("ghost"),
		asset("b", "", "r1", "loc"),
	}

	groups := GroupAssets(assets)
	require.Len(t, groups, 2)

	nodes := Build(groups, openAll(groups))
	assert.ElementsMatch(t, []string{"a", "b"}, assetTokens(nodes))
	assert.NotContains(t, assetTokens(nodes), "ghost")
}

func TestEveryDefinedAssetAppearsOnce(t *testing.T) {
	assets := []models.Asset{
		asset("x/1", "g1", "r1", "l1"),
		asset("x/2", "g2", "r1", "l1"),
		asset("y/1", "g1", "r2", "l2"),
		asset("y/2", "", "r2", "l2"),
		undefined("z"),
		asset("y/3", "g1", "r2", "l2"),
	}

	groups := GroupAssets(assets)
	nodes := Build(groups, openAll(groups))

	tokens := assetTokens(nodes)
	sort.Strings(tokens)
	assert.Equal(t, []string{"x/1", "x/2", "y/1", "y/2", "y/3"}, tokens)
}

func TestGroupingIgnoresInputOrder(t *testing.T) {
	assets := []models.Asset{
		asset("a", "g1", "r1", "l1"),
		asset("b", "g2", "r1", "l1"),
		asset("c", "g1", "r2", "l2"),
		asset("d", "g1", "r1", "l1"),
	}
	reversed := make([]models.Asset, len(assets))
	for i, a := range assets {
		reversed[len(assets)-1-i] = a
	}

	membership := func(groups []Group) map[string][]string {
		out := make(map[string][]string)
		for _, g := range groups {
			var tokens []string
			for _, a := range g.Assets {
				tokens = append(tokens, a.Key.Token())
			}
			sort.Strings(tokens)
			out[g.ID()] = tokens
		}
		return out
	}

	assert.Equal(t, membership(GroupAssets(assets)), membership(GroupAssets(reversed)))
}

func TestBuildIsDeterministic(t *testing.T) {
	assets := []models.Asset{
		asset("b", "g1", "r1", "l1"),
		asset("a", "g1", "r1", "l1"),
		asset("c", "g2", "r2", "l2"),
	}
	groups := GroupAssets(assets)
	expanded := NewExpandedSet("r1@l1", GroupID("r1", "l1", "g1"))

	first := Build(groups, expanded)
	second := Build(groups, expanded)
	assert.Equal(t, first, second)
}

func TestSingleLocationAlwaysShowsGroups(t *testing.T) {
	assets := []models.Asset{
		asset("a", "g1", "r1", "l1"),
		asset("b", "g2", "r1", "l1"),
	}
	groups := GroupAssets(assets)

	for _, expanded := range []ExpandedSet{
		NewExpandedSet(),
		NewExpandedSet("unrelated"),
		NewExpandedSet("r1@l1"),
	} {
		nodes := Build(groups, expanded)
		assert.Equal(t, []string{
			"location:r1@l1",
			"group:g1",
			"group:g2",
		}, labels(nodes))
	}
}

func TestSingleGroupAlwaysShowsAssets(t *testing.T) {
	groups := GroupAssets([]models.Asset{
		asset("b", "g1", "r1", "l1"),
		asset("a", "g1", "r1", "l1"),
	})

	nodes := Build(groups, NewExpandedSet())
	assert.Equal(t, []string{
		"location:r1@l1",
		"group:g1",
		"asset:a",
		"asset:b",
	}, labels(nodes))
	assert.True(t, nodes[0].Open)
	assert.True(t, nodes[1].Open)
}

func TestCollapsedLocationsHideChildren(t *testing.T) {
	groups := GroupAssets([]models.Asset{
		asset("a", "g1", "r1", "l1"),
		asset("b", "g2", "r2", "l2"),
	})

	nodes := Build(groups, NewExpandedSet())
	assert.Equal(t, []string{"location:r1@l1", "location:r2@l2"}, labels(nodes))

	nodes = Build(groups, NewExpandedSet("r2@l2"))
	assert.Equal(t, []string{"location:r1@l1", "location:r2@l2", "group:g2"}, labels(nodes))

	nodes = Build(groups, NewExpandedSet("r2@l2", GroupID("r2", "l2", "g2")))
	assert.Equal(t, []string{"location:r1@l1", "location:r2@l2", "group:g2", "asset:b"}, labels(nodes))
}

func TestEmptySearchIsIdentity(t *testing.T) {
	groups := GroupAssets([]models.Asset{
		asset("a", "g1", "r1", "l1"),
		asset("b", "", "r2", "l2"),
	})
	assert.Equal(t, groups, Filter(groups, ""))
}

func TestSearchMatchesGroupAndRepositoryNames(t *testing.T) {
	groups := GroupAssets([]models.Asset{
		asset("a", "Marketing", "r1", "l1"),
		asset("b", "Marketing", "r1", "l1"),
		asset("c", "", "warehouse", "l2"),
		asset("d", "", "r3", "l3"),
	})

	byGroup := Filter(groups, "MARKET")
	require.Len(t, byGroup, 1)
	assert.Len(t, byGroup[0].Assets, 2, "a matching group keeps all of its assets")

	byRepo := Filter(groups, "wareh")
	require.Len(t, byRepo, 1)
	assert.Equal(t, "warehouse", byRepo[0].RepositoryName)

	ungrouped := Filter(groups, "ungrouped")
	assert.Len(t, ungrouped, 2)

	assert.Empty(t, Filter(groups, "nothing-matches"))
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	groups := GroupAssets([]models.Asset{
		asset("keep", "g1", "r1", "l1"),
		asset("drop", "g1", "r1", "l1"),
	})
	Filter(groups, "keep")
	assert.Len(t, groups[0].Assets, 2)
}

func TestAssetsSortWithCollation(t *testing.T) {
	groups := GroupAssets([]models.Asset{
		asset("part_10", "g", "r", "l"),
		asset("Beta", "g", "r", "l"),
		asset("part_2", "g", "r", "l"),
		asset("alpha", "g", "r", "l"),
	})

	nodes := Build(groups, NewExpandedSet())
	assert.Equal(t, []string{"alpha", "Beta", "part_2", "part_10"}, assetTokens(nodes))
}

func TestAssetPathAndLevels(t *testing.T) {
	groups := GroupAssets([]models.Asset{asset("raw/orders", "", models.DunderRepoName, "etl")})
	nodes := Build(groups, NewExpandedSet())
	require.Len(t, nodes, 3)

	assert.Equal(t, 1, nodes[0].Level)
	assert.Equal(t, "etl", nodes[0].ID)
	assert.Equal(t, 2, nodes[1].Level)
	assert.Equal(t, DefaultGroupName, nodes[1].GroupName)
	assert.Equal(t, "default@__repository__@etl", nodes[1].ID)
	assert.Equal(t, 3, nodes[2].Level)
	assert.Equal(t, "etl:default:raw/orders", nodes[2].Path)
	require.NotNil(t, nodes[2].Asset)
	assert.Equal(t, "raw/orders", nodes[2].Asset.Key.Token())
}

func TestUngroupedAndDefaultShareOneRow(t *testing.T) {
	groups := GroupAssets([]models.Asset{
		asset("a", "", "r", "l"),
		asset("b", "default", "r", "l"),
	})
	require.Len(t, groups, 2, "null and named groups partition separately")

	nodes := Build(groups, NewExpandedSet())
	assert.Equal(t, []string{"location:r@l", "group:default", "asset:a", "asset:b"}, labels(nodes))
}

func TestDuplicateKeysCollapse(t *testing.T) {
	groups := GroupAssets([]models.Asset{
		asset("a", "g", "r", "l"),
		asset("a", "g", "r", "l"),
	})
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Assets, 1)
}

func TestGroupCountSpansLocations(t *testing.T) {
	// One group in each of two locations: two groups overall, so opening a
	// location does not auto-open its lone group.
	groups := GroupAssets([]models.Asset{
		asset("a", "g1", "r1", "l1"),
		asset("b", "g1", "r2", "l2"),
	})
	nodes := Build(groups, NewExpandedSet("r1@l1"))
	assert.Equal(t, []string{"location:r1@l1", "group:g1", "location:r2@l2"}, labels(nodes))
}

func TestAutoExpand(t *testing.T) {
	assert.False(t, AutoExpand(0))
	assert.True(t, AutoExpand(1))
	assert.False(t, AutoExpand(2))

	assert.True(t, IsOpen(NewExpandedSet("x"), "x", 5))
	assert.True(t, IsOpen(NewExpandedSet(), "x", 1))
	assert.False(t, IsOpen(NewExpandedSet(), "x", 3))
}

func TestExpandedSetIsImmutable(t *testing.T) {
	base := NewExpandedSet("a")
	opened := base.With("b")
	closed := opened.Without("a")
	toggled := closed.Toggle("b")

	assert.Equal(t, []string{"a"}, base.Slice())
	assert.Equal(t, []string{"a", "b"}, opened.Slice())
	assert.Equal(t, []string{"b"}, closed.Slice())
	assert.Equal(t, 0, toggled.Len())
	assert.NotEqual(t, base.Key(), opened.Key())

	var zero ExpandedSet
	assert.False(t, zero.Has("a"))
	assert.True(t, zero.With("a").Has("a"))
}

func TestViewSkipsErrorPayload(t *testing.T) {
	result := models.AssetsResult{Error: &models.PythonError{Message: "boom"}}
	assert.Nil(t, View(result, "", NewExpandedSet()))

	ok := models.AssetsResult{Assets: []models.Asset{asset("a", "g", "r", "l")}}
	assert.Len(t, View(ok, "", NewExpandedSet()), 3)
}

func TestTreeMemoizesRows(t *testing.T) {
	tree := NewTree([]models.Asset{
		asset("a", "g1", "r1", "l1"),
		asset("b", "g2", "r2", "l2"),
	})

	first := tree.Rows("", NewExpandedSet("r1@l1"))
	again := tree.Rows("", NewExpandedSet("r1@l1"))
	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &again[0])

	filtered := tree.Rows("b", NewExpandedSet())
	assert.Equal(t, []string{"location:r2@l2", "group:g2", "asset:b"}, labels(filtered))

	ids := tree.AllIDs("")
	assert.ElementsMatch(t, []string{
		"r1@l1", GroupID("r1", "l1", "g1"),
		"r2@l2", GroupID("r2", "l2", "g2"),
	}, ids)
}

func TestCount(t *testing.T) {
	groups := GroupAssets([]models.Asset{
		asset("a", "g1", "r1", "l1"),
		asset("b", "g1", "r1", "l1"),
	})
	c := Count(Build(groups, NewExpandedSet()))
	assert.Equal(t, Counts{Locations: 1, Groups: 1, Assets: 2}, c)
}
