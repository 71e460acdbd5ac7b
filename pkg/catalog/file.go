package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/yanorepuser4/dagster/pkg/models"
)

// ErrNotFound is returned when a snapshot file does not exist.
var ErrNotFound = errors.New("snapshot not found")

// FileSource reads a snapshot from a YAML or JSON file shaped like the
// GraphQL response data: top-level assetsOrError and optional runsOrError,
// optionally nested under data.
type FileSource struct {
	Path string
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string, log logrus.FieldLogger) *FileSource {
	if log == nil {
		log = discardLogger()
	}
	return &FileSource{Path: path, log: log, now: time.Now}
}

// Load reads and decodes the file.
func (f *FileSource) Load(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, f.Path)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := ParseSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", f.Path, err)
	}
	snap.FetchedAt = f.now()
	f.log.WithFields(logrus.Fields{
		"path":   f.Path,
		"assets": len(snap.Assets.Assets),
		"runs":   len(snap.Runs),
	}).Debug("Loaded snapshot file")
	return snap, nil
}

// ParseSnapshot decodes snapshot bytes. YAML is a superset of JSON, so both
// are accepted.
func ParseSnapshot(raw []byte) (*models.Snapshot, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if data, ok := doc["data"].(map[string]any); ok {
		doc = data
	}

	assetsPayload, ok := doc["assetsOrError"]
	if !ok {
		return nil, fmt.Errorf("missing assetsOrError")
	}
	assets, err := decodeAssetsOrError(assetsPayload)
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{Assets: assets}
	if runsPayload, ok := doc["runsOrError"]; ok {
		runs, err := decodeRunsOrError(runsPayload)
		if err != nil {
			return nil, err
		}
		snap.Runs = runs
	}
	return snap, nil
}
