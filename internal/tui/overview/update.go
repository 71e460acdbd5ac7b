package overview

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yanorepuser4/dagster/pkg/assettree"
	"github.com/yanorepuser4/dagster/pkg/prefs"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		m.searchInput.Width = max(m.sidebarCells()-4, 1)
		m.adjustScroll()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stateMsg:
		m.applyState(msg.state)
		return m, waitForState(m.updates)

	case widthSavedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("width", msg.px).Warn("Failed to save sidebar width")
			m.statusMessage = fmt.Sprintf("Error saving width: %v", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.help.ShowAll {
			m.help.Toggle()
			return m, nil
		}

		// Handle search mode
		if m.searchInput.Focused() {
			switch msg.Type {
			case tea.KeyEsc:
				m.searchInput.Blur()
				m.searchInput.SetValue("")
				m.setSearch("")
				return m, nil
			case tea.KeyEnter:
				m.searchInput.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.setSearch(m.searchInput.Value())
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.Toggle()
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.adjustScroll()
			}
		case key.Matches(msg, m.keys.PageUp):
			m.moveCursor(-m.pageSize())
		case key.Matches(msg, m.keys.PageDown):
			m.moveCursor(m.pageSize())
		case key.Matches(msg, m.keys.GoToTop):
			// Handle 'gg' - go to top when g is pressed twice
			if m.lastKey == "g" {
				m.cursor = 0
				m.adjustScroll()
				m.lastKey = ""
			} else {
				m.lastKey = "g"
			}
			return m, nil
		case key.Matches(msg, m.keys.GoToBottom):
			if len(m.rows) > 0 {
				m.cursor = len(m.rows) - 1
				m.adjustScroll()
			}
		case key.Matches(msg, m.keys.FoldPrefix):
			m.lastKey = "z"
			return m, nil
		case m.lastKey == "z":
			switch msg.String() {
			case "a":
				m.toggleFold()
			case "o":
				m.openFold()
			case "c":
				m.closeFold()
			case "M":
				m.closeAllFolds()
			case "R":
				m.openAllFolds()
			}
		case key.Matches(msg, m.keys.Toggle):
			m.toggleFold()
		case key.Matches(msg, m.keys.Open):
			m.openFold()
		case key.Matches(msg, m.keys.Close):
			m.closeOrParent()
		case key.Matches(msg, m.keys.Search):
			m.searchInput.Focus()
			m.lastKey = ""
			return m, nil
		case key.Matches(msg, m.keys.Back):
			if m.search != "" {
				m.searchInput.SetValue("")
				m.setSearch("")
			}
		case key.Matches(msg, m.keys.Shrink):
			m.lastKey = ""
			return m, m.resize(-resizeStep)
		case key.Matches(msg, m.keys.Grow):
			m.lastKey = ""
			return m, m.resize(resizeStep)
		case key.Matches(msg, m.keys.Refresh):
			m.lastKey = ""
			return m, requestRefreshCmd(m.source)
		}
		// Reset lastKey for any other key press (for gg and z* detection)
		m.lastKey = ""
	}
	return m, nil
}

// setSearch applies new search text. The cursor returns to the top since the
// row set changes.
func (m *Model) setSearch(s string) {
	if s == m.search {
		return
	}
	m.search = s
	m.cursor = 0
	m.scrollOffset = 0
	m.rebuild()
}

// setExpanded replaces the expanded set and keeps the cursor on the same row
// when it is still visible.
func (m *Model) setExpanded(next assettree.ExpandedSet) {
	var current string
	if m.cursor < len(m.rows) {
		current = m.rows[m.cursor].ID
	}
	m.expanded = next
	m.rebuild()
	for i, row := range m.rows {
		if row.ID == current {
			m.cursor = i
			break
		}
	}
	m.adjustScroll()
}

func (m *Model) currentRow() (assettree.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return assettree.Node{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) toggleFold() {
	row, ok := m.currentRow()
	if !ok || !row.IsFoldable() {
		return
	}
	if row.Open {
		m.setExpanded(m.expanded.Without(row.ID))
	} else {
		m.setExpanded(m.expanded.With(row.ID))
	}
}

// openFold opens the fold of the node under the cursor
func (m *Model) openFold() {
	row, ok := m.currentRow()
	if !ok || !row.IsFoldable() {
		return
	}
	m.setExpanded(m.expanded.With(row.ID))
}

// closeFold closes the fold of the node under the cursor
func (m *Model) closeFold() {
	row, ok := m.currentRow()
	if !ok || !row.IsFoldable() {
		return
	}
	m.setExpanded(m.expanded.Without(row.ID))
}

// closeOrParent closes an open node, or moves to the parent of anything else.
func (m *Model) closeOrParent() {
	row, ok := m.currentRow()
	if !ok {
		return
	}
	if row.IsFoldable() && row.Open && m.expanded.Has(row.ID) {
		m.closeFold()
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].Level < row.Level {
			m.cursor = i
			m.adjustScroll()
			return
		}
	}
}

// closeAllFolds collapses everything that is not a singleton
func (m *Model) closeAllFolds() {
	m.setExpanded(assettree.NewExpandedSet())
}

// openAllFolds expands every location and group matching the search
func (m *Model) openAllFolds() {
	if m.tree == nil {
		return
	}
	m.setExpanded(assettree.NewExpandedSet(m.tree.AllIDs(m.search)...))
}

func (m *Model) resize(deltaPx int) tea.Cmd {
	px := m.sidebarPx + deltaPx
	if px < prefs.MinSidebarWidth {
		px = prefs.MinSidebarWidth
	}
	if m.width > 0 {
		if limit := (m.width - minTimelineCells) * pxPerCell; px > limit && limit >= prefs.MinSidebarWidth {
			px = limit
		}
	}
	if px == m.sidebarPx {
		return nil
	}
	m.sidebarPx = px
	m.searchInput.Width = max(m.sidebarCells()-4, 1)
	return saveWidthCmd(m.prefs, px)
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScroll()
}

func (m *Model) pageSize() int {
	size := m.getViewportHeight() / 2
	if size < 1 {
		size = 1
	}
	return size
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		} else {
			m.cursor = 0
		}
	}
}

// getViewportHeight calculates how many lines are available for the rows.
func (m *Model) getViewportHeight() int {
	// Account for:
	// - Header: 1 line
	// - Search line: 1 line
	// - Timeline axis: 1 line
	// - Blank line before footer: 1 line
	// - Status bar: 1 line
	// - Footer (help): 1 line
	const fixedLines = 6
	if m.height == 0 {
		return 20
	}
	availableHeight := m.height - fixedLines
	if availableHeight < 1 {
		return 1
	}
	return availableHeight
}

// adjustScroll ensures the cursor is visible in the viewport.
func (m *Model) adjustScroll() {
	viewportHeight := m.getViewportHeight()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	} else if m.cursor >= m.scrollOffset+viewportHeight {
		m.scrollOffset = m.cursor - viewportHeight + 1
	}
	if limit := len(m.rows) - viewportHeight; m.scrollOffset > limit {
		m.scrollOffset = limit
	}
	// Ensure scrollOffset never goes negative
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

// virtualRange returns the rows to render for a viewport: the visible window
// widened by overscan on each side and clamped to [0, total).
func virtualRange(total, offset, height, overscan int) (start, end int) {
	start = offset - overscan
	if start < 0 {
		start = 0
	}
	end = offset + height + overscan
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}
	return start, end
}
