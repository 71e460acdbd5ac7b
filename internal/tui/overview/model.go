// Package overview is the terminal asset overview: a collapsible tree of
// code locations, groups and assets beside a timeline of recent runs.
package overview

import (
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/components/help"
	"github.com/sirupsen/logrus"

	"github.com/yanorepuser4/dagster/pkg/assettree"
	"github.com/yanorepuser4/dagster/pkg/models"
	"github.com/yanorepuser4/dagster/pkg/prefs"
	"github.com/yanorepuser4/dagster/pkg/refresh"
)

const (
	// Title is shown in the header.
	Title = "Overview | Assets"

	// overscan is the number of rows rendered beyond each edge of the viewport.
	overscan = 5
	// pxPerCell converts stored pixel widths to terminal cells.
	pxPerCell = 8
	// resizeStep is how far one < or > press moves the divider, in pixels.
	resizeStep = 4 * pxPerCell
	// minTimelineCells keeps room for the timeline when widening the sidebar.
	minTimelineCells = 10
)

// StateSource feeds the model with refresh state. *refresh.Refresher
// satisfies it.
type StateSource interface {
	State() refresh.State
	Subscribe() <-chan refresh.State
	Request()
}

// WidthStore persists the sidebar width. *prefs.Store satisfies it.
type WidthStore interface {
	SidebarWidth() int
	SetSidebarWidth(px int) error
}

// Options configures a Model.
type Options struct {
	Source   StateSource
	Prefs    WidthStore // optional
	Collator *assettree.Collator
	// RunWindow is how far back the timeline reaches.
	RunWindow time.Duration
	// Search and Expanded seed the initial view.
	Search   string
	Expanded assettree.ExpandedSet
	Log      logrus.FieldLogger
	// Now is used for the timeline; nil means time.Now.
	Now func() time.Time
}

// Model is the main model for the asset overview TUI
type Model struct {
	source  StateSource
	updates <-chan refresh.State
	prefs   WidthStore
	log     logrus.FieldLogger
	now     func() time.Time

	state    refresh.State
	snapshot *models.Snapshot
	tree     *assettree.Tree
	opts     []assettree.Option
	rows     []assettree.Node

	search      string
	expanded    assettree.ExpandedSet
	searchInput textinput.Model
	spinner     spinner.Model
	help        help.Model
	keys        KeyMap

	cursor        int
	scrollOffset  int
	width         int
	height        int
	sidebarPx     int
	runWindow     time.Duration
	lastKey       string // For detecting 'gg' and 'z' sequences
	statusMessage string
}

// New creates a new TUI model.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Filter by asset key, group or code location..."
	ti.Prompt = "/ "
	ti.CharLimit = 200
	ti.SetValue(opts.Search)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	window := opts.RunWindow
	if window <= 0 {
		window = 24 * time.Hour
	}

	sidebarPx := prefs.DefaultSidebarWidth
	if opts.Prefs != nil {
		sidebarPx = opts.Prefs.SidebarWidth()
	}

	var treeOpts []assettree.Option
	if opts.Collator != nil {
		treeOpts = append(treeOpts, assettree.WithCollator(opts.Collator))
	}

	m := Model{
		source:      opts.Source,
		prefs:       opts.Prefs,
		log:         log,
		now:         now,
		opts:        treeOpts,
		search:      opts.Search,
		expanded:    opts.Expanded,
		searchInput: ti,
		spinner:     sp,
		help:        newHelp(),
		keys:        keys,
		sidebarPx:   sidebarPx,
		runWindow:   window,
	}
	if opts.Source != nil {
		m.updates = opts.Source.Subscribe()
		m.applyState(opts.Source.State())
	}
	return m
}

// Init starts the spinner and begins listening for refresh state.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForState(m.updates))
}

// Search returns the active search text.
func (m Model) Search() string {
	return m.search
}

// Expanded returns the explicitly expanded node ids.
func (m Model) Expanded() assettree.ExpandedSet {
	return m.expanded
}

// Rows returns the rows currently displayed.
func (m Model) Rows() []assettree.Node {
	return m.rows
}

// applyState stores a refresh state, regrouping assets only when the
// snapshot itself changed.
func (m *Model) applyState(st refresh.State) {
	m.state = st
	if st.Snapshot != m.snapshot {
		m.snapshot = st.Snapshot
		m.tree = nil
		if st.Snapshot != nil && !st.Snapshot.Assets.Failed() {
			m.tree = assettree.NewTree(st.Snapshot.Assets.Assets, m.opts...)
		}
	}
	m.rebuild()
}

// rebuild recomputes rows from the tree, search and expanded set.
func (m *Model) rebuild() {
	if m.tree == nil {
		m.rows = nil
	} else {
		m.rows = m.tree.Rows(m.search, m.expanded)
	}
	m.clampCursor()
	m.adjustScroll()
}

// sidebarCells is the tree column width in terminal cells.
func (m Model) sidebarCells() int {
	cells := m.sidebarPx / pxPerCell
	if m.width > 0 && cells > m.width-minTimelineCells {
		cells = m.width - minTimelineCells
	}
	if cells < prefs.MinSidebarWidth/pxPerCell {
		cells = prefs.MinSidebarWidth / pxPerCell
	}
	// Very narrow terminals give up the minimum rather than wrap.
	if limit := m.width - lipgloss.Width(separator); m.width > 0 && cells > limit {
		cells = max(limit, 0)
	}
	return cells
}

func newHelp() help.Model {
	return help.NewBuilder().
		WithKeys(keys).
		WithTitle(Title + " - Help").
		Build()
}
