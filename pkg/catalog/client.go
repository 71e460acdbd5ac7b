package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yanorepuser4/dagster/pkg/models"
)

// Source loads one snapshot of the catalog and recent runs.
type Source interface {
	Load(ctx context.Context) (*models.Snapshot, error)
}

const assetCatalogQuery = `query AssetCatalogTableQuery {
  assetsOrError {
    __typename
    ... on AssetConnection {
      nodes {
        id
        key { path }
        definition {
          groupName
          repository { name location { name } }
        }
      }
    }
    ... on PythonError { message className stack }
  }
}`

const runsQuery = `query OverviewRunsQuery($filter: RunsFilter!) {
  runsOrError(filter: $filter) {
    __typename
    ... on Runs {
      results {
        id
        status
        startTime
        endTime
        assetSelection { path }
      }
    }
    ... on PythonError { message className stack }
    ... on InvalidPipelineRunsFilterError { message }
  }
}`

// Client queries a GraphQL endpoint for the asset catalog and recent runs.
type Client struct {
	endpoint   string
	httpClient *http.Client
	runWindow  time.Duration
	log        logrus.FieldLogger
	now        func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRunWindow sets how far back runs are fetched.
func WithRunWindow(d time.Duration) ClientOption {
	return func(c *Client) { c.runWindow = d }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for the GraphQL endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		runWindow:  24 * time.Hour,
		log:        discardLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches assets and runs concurrently. A failed runs query is logged
// and leaves the snapshot without runs; a failed assets query fails the load.
func (c *Client) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	since := c.now().Add(-c.runWindow)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := c.FetchAssets(gctx)
		if err != nil {
			return err
		}
		snap.Assets = result
		return nil
	})
	g.Go(func() error {
		runs, err := c.FetchRuns(gctx, since)
		if err != nil {
			c.log.WithError(err).Warn("Failed to fetch runs, timeline will be empty")
			return nil
		}
		snap.Runs = runs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.FetchedAt = c.now()
	c.log.WithFields(logrus.Fields{
		"assets": len(snap.Assets.Assets),
		"runs":   len(snap.Runs),
		"failed": snap.Assets.Failed(),
	}).Debug("Loaded catalog snapshot")
	return snap, nil
}

// FetchAssets runs the asset catalog query.
func (c *Client) FetchAssets(ctx context.Context) (models.AssetsResult, error) {
	data, err := c.do(ctx, assetCatalogQuery, nil)
	if err != nil {
		return models.AssetsResult{}, fmt.Errorf("fetch assets: %w", err)
	}
	result, err := decodeAssetsOrError(data["assetsOrError"])
	if err != nil {
		return models.AssetsResult{}, fmt.Errorf("fetch assets: %w", err)
	}
	return result, nil
}

// FetchRuns returns runs updated after since.
func (c *Client) FetchRuns(ctx context.Context, since time.Time) ([]models.Run, error) {
	vars := map[string]any{
		"filter": map[string]any{
			"updatedAfter": float64(since.UnixNano()) / float64(time.Second),
		},
	}
	data, err := c.do(ctx, runsQuery, vars)
	if err != nil {
		return nil, fmt.Errorf("fetch runs: %w", err)
	}
	runs, err := decodeRunsOrError(data["runsOrError"])
	if err != nil {
		return nil, fmt.Errorf("fetch runs: %w", err)
	}
	return runs, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   map[string]any `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) do(ctx context.Context, query string, vars map[string]any) (map[string]any, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("post %s: unexpected status %s: %s",
			c.endpoint, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var out graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	if out.Data == nil {
		return nil, fmt.Errorf("graphql: response has no data")
	}
	return out.Data, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
