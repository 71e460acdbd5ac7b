package overview

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattsolo1/grove-core/tui/theme"

	"github.com/yanorepuser4/dagster/pkg/assettree"
	"github.com/yanorepuser4/dagster/pkg/models"
	"github.com/yanorepuser4/dagster/pkg/refresh"
	"github.com/yanorepuser4/dagster/pkg/timeline"
)

var (
	headerStyle   = theme.DefaultTheme.Header
	mutedStyle    = theme.DefaultTheme.Muted
	errorStyle    = lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Red)
	cursorStyle   = theme.DefaultTheme.Highlight
	selectedStyle = theme.DefaultTheme.Selected
	spinnerStyle  = theme.DefaultTheme.Info

	statusColors = map[timeline.StatusGroup]lipgloss.TerminalColor{
		timeline.StatusQueued:     theme.DefaultTheme.Colors.Cyan,
		timeline.StatusInProgress: theme.DefaultTheme.Colors.Blue,
		timeline.StatusSucceeded:  theme.DefaultTheme.Colors.Green,
		timeline.StatusFailed:     theme.DefaultTheme.Colors.Red,
	}
)

const separator = " │ "

func (m Model) View() string {
	if m.help.ShowAll {
		return m.help.View()
	}

	var body string
	switch m.state.Phase() {
	case refresh.PhaseLoading:
		body = m.spinner.View() + " Loading assets..."
	case refresh.PhaseTransportError:
		body = errorStyle.Render("Could not load assets: " + m.state.Err.Error())
	case refresh.PhaseFailed:
		body = renderPythonError(m.state.Snapshot.Assets.Error)
	default:
		body = m.renderTree()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		"",
		m.renderStatus(),
		m.help.View(),
	)
}

func (m Model) renderHeader() string {
	header := headerStyle.Render(Title)
	switch {
	case m.state.Loading && m.state.Snapshot != nil:
		header += "  " + m.spinner.View() + mutedStyle.Render(" refreshing")
	case !m.state.LastFetched.IsZero():
		header += "  " + mutedStyle.Render("updated "+m.state.LastFetched.Local().Format("15:04:05"))
	}
	return header
}

func (m Model) renderStatus() string {
	if m.statusMessage != "" {
		return errorStyle.Render(m.statusMessage)
	}
	if m.state.Err != nil && m.state.Snapshot != nil {
		return errorStyle.Render("Refresh failed: " + m.state.Err.Error())
	}
	c := assettree.Count(m.rows)
	return mutedStyle.Render(fmt.Sprintf("%d locations · %d groups · %d assets shown", c.Locations, c.Groups, c.Assets))
}

func renderPythonError(perr *models.PythonError) string {
	var b strings.Builder
	b.WriteString(errorStyle.Render(perr.Error()))
	for _, line := range perr.Stack {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(strings.TrimRight(line, "\n")))
	}
	return b.String()
}

func (m Model) renderTree() string {
	var b strings.Builder
	sidebar := m.sidebarCells()
	tlWidth := m.timelineCells()

	search := m.searchInput.View()
	if !m.searchInput.Focused() && m.search == "" {
		search = mutedStyle.Render("/ to search")
	}
	b.WriteString(fit(search, sidebar) + mutedStyle.Render(separator) + m.renderAxis(tlWidth))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		if m.search != "" {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("No assets match %q.", m.search)))
		} else {
			b.WriteString(mutedStyle.Render("No assets found."))
		}
		return b.String()
	}

	viewportHeight := m.getViewportHeight()
	start, end := virtualRange(len(m.rows), m.scrollOffset, viewportHeight, overscan)
	now := m.now()
	windowStart := now.Add(-m.runWindow)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := m.rows[i]
		left := fit(m.renderLabel(row, i == m.cursor), sidebar)
		right := m.renderRunBatches(row, windowStart, now, tlWidth)
		lines = append(lines, left+mutedStyle.Render(separator)+right)
	}

	// Only the rows inside the viewport are printed; the overscan rows are
	// ready for the next scroll.
	from := m.scrollOffset - start
	to := from + viewportHeight
	if to > len(lines) {
		to = len(lines)
	}
	b.WriteString(strings.Join(lines[from:to], "\n"))
	return b.String()
}

func (m Model) renderLabel(row assettree.Node, selected bool) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("▶ ")
	}
	indent := strings.Repeat("  ", row.Level-1)

	var line string
	switch row.Kind {
	case assettree.KindLocation, assettree.KindGroup:
		fold := "▸ "
		if row.Open {
			fold = "▾ "
		}
		line = fmt.Sprintf("%s%s%s", indent, fold, row.Label())
		if selected {
			line = selectedStyle.Render(line)
		}
		line += mutedStyle.Render(fmt.Sprintf(" (%d)", row.ChildCount))
	default:
		line = fmt.Sprintf("%s  %s", indent, row.Label())
		if selected {
			line = selectedStyle.Render(line)
		}
	}
	return cursor + line
}

// timelineCells is whatever the sidebar and separator leave, possibly 0.
// Before the first resize the width is unknown and a minimum is assumed.
func (m Model) timelineCells() int {
	if m.width <= 0 {
		return minTimelineCells
	}
	return max(m.width-m.sidebarCells()-lipgloss.Width(separator), 0)
}

func (m Model) renderAxis(width int) string {
	left := "-" + formatWindow(m.runWindow)
	right := "now"
	gap := width - len(left) - len(right)
	if gap < 1 {
		return mutedStyle.Render(ansi.Truncate(left+" "+right, width, ""))
	}
	return mutedStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// renderRunBatches draws the row's runs as colored chunks. Batching happens
// in pixel space so the chunk minimums keep their meaning, then chunks are
// snapped to cells.
func (m Model) renderRunBatches(row assettree.Node, start, end time.Time, width int) string {
	if m.snapshot == nil || width <= 0 {
		return ""
	}
	runs := timeline.RunsForKeys(m.snapshot.Runs, row.Keys)
	batches := timeline.BatchRunsForTimeline(timeline.Config{
		Runs:             runs,
		Start:            start,
		End:              end,
		Width:            width * pxPerCell,
		MinChunkWidth:    timeline.MinChunkWidth,
		MinMultipleWidth: timeline.MinWidthForMultiple,
		Now:              end,
	})
	return drawBatches(batches, width)
}

func drawBatches(batches []timeline.RunBatch, width int) string {
	cells := make([]string, width)
	for i := range cells {
		cells[i] = " "
	}

	for _, batch := range batches {
		from := batch.Left / pxPerCell
		to := (batch.Left + batch.Width + pxPerCell - 1) / pxPerCell
		if to > width {
			to = width
		}
		if from >= to {
			if from >= width {
				continue
			}
			to = from + 1
		}
		span := to - from

		statuses := timeline.MergeStatus(batch.Runs)
		label := ""
		if batch.Multiple() {
			label = strconv.Itoa(len(batch.Runs))
			if len(label) > span {
				label = ""
			}
		}
		labelAt := from + (span-len(label))/2

		for c := from; c < to; c++ {
			// Mixed batches are split into equal segments, one per status.
			status := statuses[(c-from)*len(statuses)/span]
			style := lipgloss.NewStyle().Foreground(statusColors[status])
			ch := "█"
			if label != "" && c >= labelAt && c < labelAt+len(label) {
				style = lipgloss.NewStyle().Background(statusColors[status]).Foreground(lipgloss.Color("0")).Bold(true)
				ch = string(label[c-labelAt])
			}
			cells[c] = style.Render(ch)
		}
	}
	return strings.Join(cells, "")
}

// fit truncates or pads s to exactly width cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "…")
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func formatWindow(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return d.Round(time.Minute).String()
}
