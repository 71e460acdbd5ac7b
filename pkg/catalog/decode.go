package catalog

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/yanorepuser4/dagster/pkg/models"
)

// ErrUnexpectedType is returned when a union payload carries a __typename
// this client does not know.
var ErrUnexpectedType = errors.New("unexpected result type")

const (
	typeAssetConnection = "AssetConnection"
	typeRuns            = "Runs"
	typePythonError     = "PythonError"
)

// wireRun mirrors the run fields of the runs query. Times arrive as unix
// seconds from the API and as seconds or RFC 3339 strings from snapshots.
type wireRun struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	StartTime      any               `json:"startTime"`
	EndTime        any               `json:"endTime"`
	AssetSelection []models.AssetKey `json:"assetSelection"`
}

type wireError struct {
	Message   string   `json:"message"`
	ClassName string   `json:"className"`
	Stack     []string `json:"stack"`
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func typename(payload any) (map[string]any, string, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("%w: payload is %T", ErrUnexpectedType, payload)
	}
	name, _ := m["__typename"].(string)
	return m, name, nil
}

func decodePythonError(m map[string]any) (*models.PythonError, error) {
	var w wireError
	if err := decode(m, &w); err != nil {
		return nil, fmt.Errorf("decode python error: %w", err)
	}
	return &models.PythonError{Message: w.Message, ClassName: w.ClassName, Stack: w.Stack}, nil
}

// decodeAssetsOrError resolves the assetsOrError union. A PythonError payload
// is returned inside the result, not as an error.
func decodeAssetsOrError(payload any) (models.AssetsResult, error) {
	m, name, err := typename(payload)
	if err != nil {
		return models.AssetsResult{}, err
	}

	switch name {
	case typeAssetConnection:
		var conn struct {
			Nodes []models.Asset `json:"nodes"`
		}
		if err := decode(m, &conn); err != nil {
			return models.AssetsResult{}, fmt.Errorf("decode asset connection: %w", err)
		}
		return models.AssetsResult{Assets: conn.Nodes}, nil
	case typePythonError:
		pyErr, err := decodePythonError(m)
		if err != nil {
			return models.AssetsResult{}, err
		}
		return models.AssetsResult{Error: pyErr}, nil
	}
	return models.AssetsResult{}, fmt.Errorf("%w: assetsOrError %q", ErrUnexpectedType, name)
}

// decodeRunsOrError resolves the runsOrError union. Any error variant is
// returned as a Go error since runs only decorate the overview.
func decodeRunsOrError(payload any) ([]models.Run, error) {
	m, name, err := typename(payload)
	if err != nil {
		return nil, err
	}

	switch name {
	case typeRuns:
		var runs struct {
			Results []wireRun `json:"results"`
		}
		if err := decode(m, &runs); err != nil {
			return nil, fmt.Errorf("decode runs: %w", err)
		}
		out := make([]models.Run, 0, len(runs.Results))
		for _, w := range runs.Results {
			r, err := w.toRun()
			if err != nil {
				return nil, fmt.Errorf("decode run %s: %w", w.ID, err)
			}
			out = append(out, r)
		}
		return out, nil
	case "":
		return nil, fmt.Errorf("%w: runsOrError has no __typename", ErrUnexpectedType)
	}

	pyErr, err := decodePythonError(m)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("runs query failed (%s): %w", name, pyErr)
}

func (w wireRun) toRun() (models.Run, error) {
	start, err := parseTime(w.StartTime)
	if err != nil {
		return models.Run{}, fmt.Errorf("startTime: %w", err)
	}
	end, err := parseTime(w.EndTime)
	if err != nil {
		return models.Run{}, fmt.Errorf("endTime: %w", err)
	}
	return models.Run{
		ID:             w.ID,
		Status:         models.RunStatus(w.Status),
		StartTime:      start,
		EndTime:        end,
		AssetSelection: w.AssetSelection,
	}, nil
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case float64:
		sec, frac := math.Modf(t)
		return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), nil
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case string:
		if t == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339, t)
	case time.Time:
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported time value %v (%T)", v, v)
}
