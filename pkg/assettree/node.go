package assettree

import (
	"fmt"

	"github.com/yanorepuser4/dagster/pkg/models"
)

// NodeKind categorizes the rows of the overview tree.
type NodeKind int

const (
	KindLocation NodeKind = iota + 1 // A code location row (level 1)
	KindGroup                        // An asset group row (level 2)
	KindAsset                        // A single asset row (level 3)
)

func (k NodeKind) String() string {
	switch k {
	case KindLocation:
		return "location"
	case KindGroup:
		return "group"
	case KindAsset:
		return "asset"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON output.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Node is a single renderable row. Which name field is set depends on Kind:
// LocationName for locations, GroupName for groups, Path and Asset for assets.
type Node struct {
	Kind  NodeKind `json:"kind"`
	ID    string   `json:"id"` // collapse/expand key for this level
	Level int      `json:"level"`

	LocationName string        `json:"locationName,omitempty"`
	GroupName    string        `json:"groupName,omitempty"`
	Path         string        `json:"path,omitempty"` // location:group:key for asset rows
	Asset        *models.Asset `json:"asset,omitempty"`

	// Open is set on location and group rows whose children follow.
	Open bool `json:"open,omitempty"`
	// ChildCount is the number of groups under a location or assets under a group.
	ChildCount int `json:"childCount,omitempty"`
	// Keys lists the asset tokens covered by the row, used to select runs.
	Keys []string `json:"-"`
}

// IsFoldable reports whether the node can be collapsed or expanded.
func (n *Node) IsFoldable() bool {
	return n.Kind == KindLocation || n.Kind == KindGroup
}

// Label is the text shown for the row.
func (n *Node) Label() string {
	switch n.Kind {
	case KindLocation:
		return n.LocationName
	case KindGroup:
		return n.GroupName
	case KindAsset:
		return n.ID
	}
	return ""
}

// Counts tallies rows by kind.
type Counts struct {
	Locations int
	Groups    int
	Assets    int
}

// Count tallies the given rows by kind.
func Count(nodes []Node) Counts {
	var c Counts
	for _, n := range nodes {
		switch n.Kind {
		case KindLocation:
			c.Locations++
		case KindGroup:
			c.Groups++
		case KindAsset:
			c.Assets++
		}
	}
	return c
}
