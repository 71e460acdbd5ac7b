package models

import "time"

// RunStatus represents the lifecycle state of a run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "QUEUED"
	RunStatusNotStarted RunStatus = "NOT_STARTED"
	RunStatusStarting   RunStatus = "STARTING"
	RunStatusStarted    RunStatus = "STARTED"
	RunStatusSuccess    RunStatus = "SUCCESS"
	RunStatusFailure    RunStatus = "FAILURE"
	RunStatusCanceling  RunStatus = "CANCELING"
	RunStatusCanceled   RunStatus = "CANCELED"
)

// Ongoing reports whether a run with this status has not reached a terminal state.
func (s RunStatus) Ongoing() bool {
	switch s {
	case RunStatusQueued, RunStatusNotStarted, RunStatusStarting, RunStatusStarted, RunStatusCanceling:
		return true
	}
	return false
}

// Run is a single execution shown on the timeline.
type Run struct {
	ID             string     `json:"id"`
	Status         RunStatus  `json:"status"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        time.Time  `json:"endTime,omitempty"` // zero while ongoing
	AssetSelection []AssetKey `json:"assetSelection,omitempty"`
}

// Ongoing reports whether the run is still executing.
func (r Run) Ongoing() bool {
	return r.EndTime.IsZero() || r.Status.Ongoing()
}

// TouchesAny reports whether the run selected any asset whose token is in
// tokens.
func (r Run) TouchesAny(tokens map[string]struct{}) bool {
	for _, k := range r.AssetSelection {
		if _, ok := tokens[k.Token()]; ok {
			return true
		}
	}
	return false
}

// Snapshot is one fetch of everything the overview renders.
type Snapshot struct {
	Assets    AssetsResult `json:"assetsOrError"`
	Runs      []Run        `json:"runs"`
	FetchedAt time.Time    `json:"fetchedAt"`
}
