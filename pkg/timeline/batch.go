package timeline

import (
	"math"
	"sort"
	"time"

	"github.com/yanorepuser4/dagster/pkg/models"
)

const (
	// MinChunkWidth is the narrowest a single-run chunk is drawn.
	MinChunkWidth = 4
	// MinWidthForMultiple is the narrowest a chunk holding several runs is drawn,
	// wide enough to show the run count.
	MinWidthForMultiple = 12
)

// RunBatch is a horizontal chunk on a row's timeline holding one or more runs
// whose chunks would otherwise overlap.
type RunBatch struct {
	Left      int          `json:"left"`
	Width     int          `json:"width"`
	StartTime time.Time    `json:"startTime"`
	EndTime   time.Time    `json:"endTime"`
	Runs      []models.Run `json:"runs"`
}

// Multiple reports whether the batch merged several runs.
func (b RunBatch) Multiple() bool {
	return len(b.Runs) > 1
}

func (b RunBatch) right() int {
	return b.Left + b.Width
}

// Config describes the canvas runs are projected onto.
type Config struct {
	Runs             []models.Run
	Start            time.Time
	End              time.Time
	Width            int // canvas width, in pixels or cells
	MinChunkWidth    int
	MinMultipleWidth int
	// Now closes ongoing runs. Zero means time.Now().
	Now time.Time
}

// BatchRunsForTimeline projects runs onto [0, Width) and merges chunks that
// overlap. Runs entirely outside [Start, End] are dropped. Batches are
// returned ordered by Left.
func BatchRunsForTimeline(cfg Config) []RunBatch {
	total := cfg.End.Sub(cfg.Start)
	if total <= 0 || cfg.Width <= 0 {
		return nil
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}

	minChunk := cfg.MinChunkWidth
	if minChunk < 1 {
		minChunk = 1
	}
	minMultiple := cfg.MinMultipleWidth
	if minMultiple < minChunk {
		minMultiple = minChunk
	}

	position := func(t time.Time) float64 {
		return float64(t.Sub(cfg.Start)) / float64(total) * float64(cfg.Width)
	}

	var chunks []RunBatch
	for _, run := range cfg.Runs {
		if run.StartTime.IsZero() {
			continue
		}
		end := run.EndTime
		if run.Ongoing() {
			end = now
		}
		if end.Before(cfg.Start) || run.StartTime.After(cfg.End) {
			continue
		}

		left := int(math.Max(0, math.Floor(position(run.StartTime))))
		right := int(math.Min(float64(cfg.Width), math.Ceil(position(end))))
		width := right - left
		if width < minChunk {
			width = minChunk
		}
		chunks = append(chunks, RunBatch{
			Left:      left,
			Width:     width,
			StartTime: run.StartTime,
			EndTime:   end,
			Runs:      []models.Run{run},
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Left != chunks[j].Left {
			return chunks[i].Left < chunks[j].Left
		}
		return chunks[i].StartTime.Before(chunks[j].StartTime)
	})

	var batches []RunBatch
	for _, chunk := range chunks {
		if len(batches) == 0 {
			batches = append(batches, chunk)
			continue
		}
		last := &batches[len(batches)-1]
		if chunk.Left >= last.right() {
			batches = append(batches, chunk)
			continue
		}

		right := last.right()
		if chunk.right() > right {
			right = chunk.right()
		}
		last.Runs = append(last.Runs, chunk.Runs...)
		if chunk.StartTime.Before(last.StartTime) {
			last.StartTime = chunk.StartTime
		}
		if chunk.EndTime.After(last.EndTime) {
			last.EndTime = chunk.EndTime
		}
		last.Width = right - last.Left
		if last.Width < minMultiple {
			last.Width = minMultiple
		}
	}
	return batches
}

// RunsForKeys returns the runs that selected any of the given asset tokens,
// preserving input order.
func RunsForKeys(runs []models.Run, keys []string) []models.Run {
	if len(keys) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}

	var out []models.Run
	for _, run := range runs {
		if run.TouchesAny(want) {
			out = append(out, run)
		}
	}
	return out
}
