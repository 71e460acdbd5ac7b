package models

import (
	"strings"
)

// DunderRepoName is the repository name given to code locations that define
// a single implicit repository. Such repositories display as the bare
// location name.
const DunderRepoName = "__repository__"

// AssetKey is the structured identifier of an asset.
type AssetKey struct {
	Path []string `json:"path"`
}

// NewAssetKey builds a key from path segments.
func NewAssetKey(path ...string) AssetKey {
	return AssetKey{Path: path}
}

// Token returns the stringified key, e.g. "raw/orders".
func (k AssetKey) Token() string {
	return strings.Join(k.Path, "/")
}

// RepositoryLocation is the code location serving a repository.
type RepositoryLocation struct {
	Name string `json:"name"`
}

// Repository owns asset definitions.
type Repository struct {
	Name     string             `json:"name"`
	Location RepositoryLocation `json:"location"`
}

// AssetDefinition carries the fields needed to place an asset in the tree.
type AssetDefinition struct {
	GroupName  *string    `json:"groupName"` // nil when the asset is ungrouped
	Repository Repository `json:"repository"`
}

// Asset is a single catalog entry. Assets observed but not defined in any
// loaded code location have a nil Definition.
type Asset struct {
	ID         string           `json:"id"`
	Key        AssetKey         `json:"key"`
	Definition *AssetDefinition `json:"definition,omitempty"`
}

// PythonError is the error payload returned in place of an asset connection.
// It is data rather than a transport failure, but implements error so it can
// be surfaced directly.
type PythonError struct {
	Message   string   `json:"message"`
	ClassName string   `json:"className,omitempty"`
	Stack     []string `json:"stack,omitempty"`
}

func (e *PythonError) Error() string {
	if e.ClassName != "" {
		return e.ClassName + ": " + e.Message
	}
	return e.Message
}

// AssetsResult is the resolved assetsOrError union: exactly one of Assets or
// Error is meaningful.
type AssetsResult struct {
	Assets []Asset       `json:"assets,omitempty"`
	Error  *PythonError `json:"error,omitempty"`
}

// Failed reports whether the result resolved to an error payload.
func (r AssetsResult) Failed() bool {
	return r.Error != nil
}

// RepoPathForHuman formats a repository and location for display.
func RepoPathForHuman(repositoryName, locationName string) string {
	if repositoryName == DunderRepoName {
		return locationName
	}
	return repositoryName + "@" + locationName
}

// StringPtr is a small helper for optional group names.
func StringPtr(s string) *string {
	return &s
}
