package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanorepuser4/dagster/pkg/models"
)

const assetsBody = `{"data": {"assetsOrError": {
  "__typename": "AssetConnection",
  "nodes": [
    {"id": "1", "key": {"path": ["raw", "orders"]},
     "definition": {"groupName": "ingest", "repository": {"name": "__repository__", "location": {"name": "etl"}}}},
    {"id": "2", "key": {"path": ["users"]},
     "definition": {"groupName": null, "repository": {"name": "analytics", "location": {"name": "etl"}}}},
    {"id": "3", "key": {"path": ["external"]}, "definition": null}
  ]
}}}`

const runsBody = `{"data": {"runsOrError": {
  "__typename": "Runs",
  "results": [
    {"id": "r1", "status": "SUCCESS", "startTime": 1709287200.5, "endTime": 1709287260, "assetSelection": [{"path": ["raw", "orders"]}]},
    {"id": "r2", "status": "STARTED", "startTime": 1709287300, "endTime": null, "assetSelection": []}
  ]
}}}`

func graphQLServer(t *testing.T, assets, runs string, runsStatus int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req graphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.Query, "runsOrError") {
			if _, ok := req.Variables["filter"]; !ok {
				http.Error(w, "missing filter", http.StatusBadRequest)
				return
			}
			w.WriteHeader(runsStatus)
			io.WriteString(w, runs)
			return
		}
		io.WriteString(w, assets)
	}))
}

func TestClientLoad(t *testing.T) {
	srv := graphQLServer(t, assetsBody, runsBody, http.StatusOK)
	defer srv.Close()

	snap, err := NewClient(srv.URL).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Assets.Assets, 3)
	orders := snap.Assets.Assets[0]
	assert.Equal(t, "raw/orders", orders.Key.Token())
	require.NotNil(t, orders.Definition)
	require.NotNil(t, orders.Definition.GroupName)
	assert.Equal(t, "ingest", *orders.Definition.GroupName)
	assert.Equal(t, "etl", orders.Definition.Repository.Location.Name)

	assert.Nil(t, snap.Assets.Assets[1].Definition.GroupName)
	assert.Nil(t, snap.Assets.Assets[2].Definition)

	require.Len(t, snap.Runs, 2)
	assert.Equal(t, models.RunStatusSuccess, snap.Runs[0].Status)
	assert.Equal(t, time.Unix(1709287200, int64(500*time.Millisecond)).UTC(), snap.Runs[0].StartTime)
	assert.True(t, snap.Runs[0].TouchesAny(map[string]struct{}{"raw/orders": {}}))
	assert.True(t, snap.Runs[1].EndTime.IsZero())
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestClientPythonErrorIsData(t *testing.T) {
	body := `{"data": {"assetsOrError": {"__typename": "PythonError", "message": "boom", "className": "Oops", "stack": ["a", "b"]}}}`
	srv := graphQLServer(t, body, runsBody, http.StatusOK)
	defer srv.Close()

	snap, err := NewClient(srv.URL).Load(context.Background())
	require.NoError(t, err)
	require.True(t, snap.Assets.Failed())
	assert.Equal(t, "boom", snap.Assets.Error.Message)
	assert.Equal(t, []string{"a", "b"}, snap.Assets.Error.Stack)
}

func TestClientRunsFailureIsNotFatal(t *testing.T) {
	srv := graphQLServer(t, assetsBody, "nope", http.StatusInternalServerError)
	defer srv.Close()

	snap, err := NewClient(srv.URL).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Assets.Assets, 3)
	assert.Empty(t, snap.Runs)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
			},
			wantErr: "unexpected status 503",
		},
		{
			name: "graphql errors",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"errors": [{"message": "Cannot query field"}]}`)
			},
			wantErr: "graphql: Cannot query field",
		},
		{
			name: "unknown typename",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"data": {"assetsOrError": {"__typename": "Mystery"}}}`)
			},
			wantErr: "unexpected result type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL).FetchAssets(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUnknownTypenameWrapsSentinel(t *testing.T) {
	_, err := decodeAssetsOrError(map[string]any{"__typename": "Mystery"})
	assert.True(t, errors.Is(err, ErrUnexpectedType))
}

const yamlSnapshot = `
assetsOrError:
  __typename: AssetConnection
  nodes:
    - id: "1"
      key: {path: [raw, orders]}
      definition:
        groupName: ingest
        repository: {name: analytics, location: {name: etl}}
    - id: "2"
      key: {path: [users]}
      definition:
        groupName: null
        repository: {name: analytics, location: {name: etl}}
runsOrError:
  __typename: Runs
  results:
    - id: r1
      status: FAILURE
      startTime: "2024-03-01T10:00:00Z"
      endTime: 1709287260
      assetSelection:
        - path: [users]
`

func TestFileSourceYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSnapshot), 0644))

	snap, err := NewFileSource(path, nil).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Assets.Assets, 2)
	assert.Equal(t, "ingest", *snap.Assets.Assets[0].Definition.GroupName)
	assert.Nil(t, snap.Assets.Assets[1].Definition.GroupName)

	require.Len(t, snap.Runs, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), snap.Runs[0].StartTime)
	assert.Equal(t, time.Unix(1709287260, 0).UTC(), snap.Runs[0].EndTime)
}

func TestFileSourceJSONWithDataWrapper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(assetsBody), 0644))

	snap, err := NewFileSource(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Assets.Assets, 3)
	assert.Empty(t, snap.Runs)
}

func TestFileSourceMissing(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml"), nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseSnapshotRequiresAssets(t *testing.T) {
	_, err := ParseSnapshot([]byte(`runsOrError: {__typename: Runs, results: []}`))
	assert.Error(t, err)
}

func TestWatchSeesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSnapshot), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0644))
	require.NoError(t, os.WriteFile(path, []byte(yamlSnapshot+"\n"), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	require.NoError(t, <-done)
}
