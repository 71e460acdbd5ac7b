package timeline

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yanorepuser4/dagster/pkg/models"
)

// StatusGroup buckets run statuses into the colors a chunk can take.
type StatusGroup string

const (
	StatusQueued     StatusGroup = "queued"
	StatusInProgress StatusGroup = "in progress"
	StatusSucceeded  StatusGroup = "succeeded"
	StatusFailed     StatusGroup = "failed"
)

// statusOrder is the left-to-right order of a mixed chunk's segments.
var statusOrder = []StatusGroup{StatusQueued, StatusInProgress, StatusSucceeded, StatusFailed}

// Label returns the display label, e.g. "In Progress".
func (g StatusGroup) Label() string {
	return cases.Title(language.English).String(string(g))
}

// GroupForStatus maps a run status onto its color bucket.
func GroupForStatus(s models.RunStatus) StatusGroup {
	switch s {
	case models.RunStatusQueued, models.RunStatusNotStarted:
		return StatusQueued
	case models.RunStatusStarting, models.RunStatusStarted, models.RunStatusCanceling:
		return StatusInProgress
	case models.RunStatusSuccess:
		return StatusSucceeded
	default:
		return StatusFailed
	}
}

// MergeStatus returns the distinct status buckets present in runs, in
// display order. A single entry means the chunk is drawn in one color.
func MergeStatus(runs []models.Run) []StatusGroup {
	present := make(map[StatusGroup]bool, len(statusOrder))
	for _, r := range runs {
		present[GroupForStatus(r.Status)] = true
	}
	var out []StatusGroup
	for _, g := range statusOrder {
		if present[g] {
			out = append(out, g)
		}
	}
	return out
}
