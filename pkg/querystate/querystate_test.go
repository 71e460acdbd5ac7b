package querystate

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanorepuser4/dagster/pkg/assettree"
)

func TestDecodeSearch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"absent", "", ""},
		{"json string", `searchQuery=%22raw%2Forders%22`, "raw/orders"},
		{"malformed", `searchQuery=raw`, ""},
		{"not a string", `searchQuery=42`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, DecodeSearch(q))
		})
	}
}

func TestSearchRoundTrip(t *testing.T) {
	q := url.Values{}
	EncodeSearch(q, `he said "hi" & left`)
	assert.Equal(t, `he said "hi" & left`, DecodeSearch(q))

	EncodeSearch(q, "")
	_, ok := q[SearchParam]
	assert.False(t, ok)
}

func TestOpenRoundTrip(t *testing.T) {
	expanded := assettree.NewExpandedSet("etl", "ingest@analytics@etl")
	encoded := Encode("orders", expanded)

	q, err := url.ParseQuery(encoded)
	require.NoError(t, err)
	assert.Equal(t, []string{"etl", "ingest@analytics@etl"}, q[OpenParam])
	assert.Equal(t, "orders", DecodeSearch(q))

	got := DecodeOpen(q)
	assert.Equal(t, expanded.Key(), got.Key())
}

func TestDecodeOpenSkipsEmpty(t *testing.T) {
	q := url.Values{OpenParam: {"", "etl"}}
	got := DecodeOpen(q)
	assert.Equal(t, 1, got.Len())
	assert.True(t, got.Has("etl"))
}
