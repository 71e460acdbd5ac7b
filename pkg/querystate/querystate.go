// Package querystate encodes the overview's view state into URL query
// parameters so a view can be bookmarked and restored.
package querystate

import (
	"encoding/json"
	"net/url"

	"github.com/yanorepuser4/dagster/pkg/assettree"
)

const (
	// SearchParam holds the search text as a JSON string.
	SearchParam = "searchQuery"
	// OpenParam is repeated once per explicitly expanded node id.
	OpenParam = "open"
)

// DecodeSearch reads the search text. Missing or malformed values decode to
// the empty string.
func DecodeSearch(q url.Values) string {
	raw := q.Get(SearchParam)
	if raw == "" {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return ""
	}
	return s
}

// EncodeSearch stores search in q. An empty search removes the parameter.
func EncodeSearch(q url.Values, search string) {
	if search == "" {
		q.Del(SearchParam)
		return
	}
	b, _ := json.Marshal(search)
	q.Set(SearchParam, string(b))
}

// DecodeOpen reads the expanded node ids.
func DecodeOpen(q url.Values) assettree.ExpandedSet {
	var ids []string
	for _, id := range q[OpenParam] {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return assettree.NewExpandedSet(ids...)
}

// EncodeOpen stores expanded in q in sorted order.
func EncodeOpen(q url.Values, expanded assettree.ExpandedSet) {
	q.Del(OpenParam)
	for _, id := range expanded.Slice() {
		q.Add(OpenParam, id)
	}
}

// Encode builds a query string for the given view state.
func Encode(search string, expanded assettree.ExpandedSet) string {
	q := url.Values{}
	EncodeSearch(q, search)
	EncodeOpen(q, expanded)
	return q.Encode()
}
