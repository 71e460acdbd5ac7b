// Package web serves the asset overview as an HTML page and a JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yanorepuser4/dagster/pkg/assettree"
	"github.com/yanorepuser4/dagster/pkg/models"
	"github.com/yanorepuser4/dagster/pkg/prefs"
	"github.com/yanorepuser4/dagster/pkg/querystate"
	"github.com/yanorepuser4/dagster/pkg/refresh"
	"github.com/yanorepuser4/dagster/pkg/timeline"
)

// Title is the page title.
const Title = "Overview | Assets"

// canvasWidth is the virtual pixel width runs are batched on before being
// converted to percentages of the row.
const canvasWidth = 1000

// StateSource supplies the latest refresh state. *refresh.Refresher
// satisfies it.
type StateSource interface {
	State() refresh.State
}

// WidthStore reads and writes the persisted sidebar width. *prefs.Store
// satisfies it.
type WidthStore interface {
	SidebarWidth() int
	SetSidebarWidth(px int) error
}

// Options configures a Server.
type Options struct {
	Source    StateSource
	Prefs     WidthStore // optional
	Collator  *assettree.Collator
	RunWindow time.Duration
	// Interval is advertised to browsers as the page refresh period.
	Interval time.Duration
	Log      logrus.FieldLogger
	Now      func() time.Time
}

// Server renders the overview over HTTP.
type Server struct {
	source    StateSource
	prefs     WidthStore
	opts      []assettree.Option
	runWindow time.Duration
	interval  time.Duration
	log       logrus.FieldLogger
	now       func() time.Time
	mux       *http.ServeMux

	mu   sync.Mutex
	snap *models.Snapshot
	tree *assettree.Tree
}

// New creates a server.
func New(o Options) *Server {
	s := &Server{
		source:    o.Source,
		prefs:     o.Prefs,
		runWindow: o.RunWindow,
		interval:  o.Interval,
		log:       o.Log,
		now:       o.Now,
		mux:       http.NewServeMux(),
	}
	if o.Collator != nil {
		s.opts = append(s.opts, assettree.WithCollator(o.Collator))
	}
	if s.runWindow <= 0 {
		s.runWindow = 24 * time.Hour
	}
	if s.interval <= 0 {
		s.interval = refresh.DefaultInterval
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = l
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.mux.HandleFunc("/", s.handleOverview)
	s.mux.HandleFunc("/toggle", s.handleToggle)
	s.mux.HandleFunc("/api/tree.json", s.handleTreeJSON)
	s.mux.HandleFunc("/api/sidebar-width", s.handleSidebarWidth)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	return s
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("Serving overview")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("Request")
	})
}

// treeFor returns the memoized tree for snap, regrouping only when the
// snapshot changed.
func (s *Server) treeFor(snap *models.Snapshot) *assettree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap != s.snap || s.tree == nil {
		s.snap = snap
		s.tree = assettree.NewTree(snap.Assets.Assets, s.opts...)
	}
	return s.tree
}

// viewState is the search and expansion carried in a request's query.
type viewState struct {
	search   string
	expanded assettree.ExpandedSet
}

func parseViewState(q url.Values) viewState {
	return viewState{
		search:   querystate.DecodeSearch(q),
		expanded: querystate.DecodeOpen(q),
	}
}

func (v viewState) href(path string) string {
	enc := querystate.Encode(v.search, v.expanded)
	if enc == "" {
		return path
	}
	return path + "?" + enc
}

type batchView struct {
	LeftPct    float64
	WidthPct   float64
	Background template.CSS
	Count      int
	Title      string
}

type rowView struct {
	assettree.Node
	Label   string
	Href    string
	Batches []batchView
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	vs := parseViewState(q)

	// The search form submits plain text as q; canonicalize it into the
	// JSON-encoded searchQuery parameter.
	if q.Has("q") {
		vs.search = strings.TrimSpace(q.Get("q"))
		http.Redirect(w, r, vs.href("/"), http.StatusSeeOther)
		return
	}

	st := s.source.State()
	data := map[string]any{
		"Title":          Title,
		"LastFetched":    st.LastFetched,
		"RefreshSeconds": int(s.interval / time.Second),
	}

	switch st.Phase() {
	case refresh.PhaseLoading:
		data["RefreshSeconds"] = 1
		s.render(w, tmplLoading, data)
		return
	case refresh.PhaseTransportError:
		data["Err"] = st.Err.Error()
		w.WriteHeader(http.StatusBadGateway)
		s.render(w, tmplTransportError, data)
		return
	case refresh.PhaseFailed:
		data["PythonError"] = st.Snapshot.Assets.Error
		s.render(w, tmplPythonError, data)
		return
	}

	tree := s.treeFor(st.Snapshot)
	nodes := tree.Rows(vs.search, vs.expanded)

	end := s.now()
	start := end.Add(-s.runWindow)
	rows := make([]rowView, 0, len(nodes))
	for _, n := range nodes {
		row := rowView{Node: n, Label: n.Label()}
		if n.IsFoldable() {
			row.Href = toggleHref(vs, n.ID)
		}
		row.Batches = batchViews(timeline.RunsForKeys(st.Snapshot.Runs, n.Keys), start, end)
		rows = append(rows, row)
	}

	all := viewState{search: vs.search, expanded: assettree.NewExpandedSet(tree.AllIDs(vs.search)...)}
	none := viewState{search: vs.search}

	sidebar := prefs.DefaultSidebarWidth
	if s.prefs != nil {
		sidebar = s.prefs.SidebarWidth()
	}

	data["Search"] = vs.search
	data["Open"] = vs.expanded.Slice()
	data["Rows"] = rows
	data["Counts"] = assettree.Count(nodes)
	data["SidebarWidth"] = sidebar
	data["WinStart"] = start
	data["WinEnd"] = end
	data["ExpandAllHref"] = all.href("/")
	data["CollapseAllHref"] = none.href("/")
	if st.Err != nil {
		data["RefreshErr"] = st.Err.Error()
	}
	s.render(w, tmplOverview, data)
}

func toggleHref(vs viewState, id string) string {
	q := url.Values{}
	querystate.EncodeSearch(q, vs.search)
	querystate.EncodeOpen(q, vs.expanded)
	q.Set("id", id)
	return "/toggle?" + q.Encode()
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	vs := parseViewState(q)
	vs.expanded = vs.expanded.Toggle(id)
	http.Redirect(w, r, vs.href("/"), http.StatusSeeOther)
}

// treeResponse is the body of /api/tree.json.
type treeResponse struct {
	Loading     bool                `json:"loading"`
	Error       string              `json:"error,omitempty"`
	PythonError *models.PythonError `json:"pythonError,omitempty"`
	Search      string              `json:"search"`
	Open        []string            `json:"open"`
	Counts      assettree.Counts    `json:"counts"`
	Rows        []assettree.Node    `json:"rows"`
	FetchedAt   time.Time           `json:"fetchedAt,omitempty"`
}

func (s *Server) handleTreeJSON(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vs := parseViewState(q)
	st := s.source.State()

	resp := treeResponse{
		Loading:   st.Loading,
		Search:    vs.search,
		Open:      vs.expanded.Slice(),
		Rows:      []assettree.Node{},
		FetchedAt: st.LastFetched,
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}

	status := http.StatusOK
	switch st.Phase() {
	case refresh.PhaseLoading:
		status = http.StatusServiceUnavailable
	case refresh.PhaseTransportError:
		status = http.StatusBadGateway
	case refresh.PhaseFailed:
		resp.PythonError = st.Snapshot.Assets.Error
	case refresh.PhaseReady:
		tree := s.treeFor(st.Snapshot)
		expanded := vs.expanded
		if q.Get("all") == "1" || q.Get("all") == "true" {
			expanded = assettree.NewExpandedSet(tree.AllIDs(vs.search)...)
		}
		resp.Rows = tree.Rows(vs.search, expanded)
		resp.Counts = assettree.Count(resp.Rows)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.WithError(err).Warn("Failed to encode tree response")
	}
}

func (s *Server) handleSidebarWidth(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		http.Error(w, "preferences unavailable", http.StatusNotImplemented)
		return
	}
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		px, err := strconv.Atoi(r.FormValue("width"))
		if err != nil {
			http.Error(w, "width must be an integer", http.StatusBadRequest)
			return
		}
		if err := s.prefs.SetSidebarWidth(px); err != nil {
			s.log.WithError(err).Error("Failed to save sidebar width")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]int{"width": s.prefs.SidebarWidth()}); err != nil {
		s.log.WithError(err).Warn("Failed to encode sidebar width")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "ok\n")
}

// batchViews projects runs onto the row as percentage offsets.
func batchViews(runs []models.Run, start, end time.Time) []batchView {
	batches := timeline.BatchRunsForTimeline(timeline.Config{
		Runs:             runs,
		Start:            start,
		End:              end,
		Width:            canvasWidth,
		MinChunkWidth:    timeline.MinChunkWidth,
		MinMultipleWidth: timeline.MinWidthForMultiple,
		Now:              end,
	})

	out := make([]batchView, 0, len(batches))
	for _, b := range batches {
		statuses := timeline.MergeStatus(b.Runs)
		v := batchView{
			LeftPct:    float64(b.Left) / canvasWidth * 100,
			WidthPct:   float64(b.Width) / canvasWidth * 100,
			Background: background(statuses),
			Title:      batchTitle(b, statuses),
		}
		if b.Multiple() {
			v.Count = len(b.Runs)
		}
		out = append(out, v)
	}
	return out
}

var statusColors = map[timeline.StatusGroup]string{
	timeline.StatusQueued:     "#8b949e",
	timeline.StatusInProgress: "#58a6ff",
	timeline.StatusSucceeded:  "#56d364",
	timeline.StatusFailed:     "#f87171",
}

// background renders a solid color, or equal hard-edged stripes for a batch
// with mixed statuses.
func background(statuses []timeline.StatusGroup) template.CSS {
	if len(statuses) == 1 {
		return template.CSS(statusColors[statuses[0]])
	}
	step := 100.0 / float64(len(statuses))
	stops := make([]string, 0, len(statuses)*2)
	for i, st := range statuses {
		c := statusColors[st]
		stops = append(stops,
			fmt.Sprintf("%s %.2f%%", c, float64(i)*step),
			fmt.Sprintf("%s %.2f%%", c, float64(i+1)*step))
	}
	return template.CSS("linear-gradient(90deg, " + strings.Join(stops, ", ") + ")")
}

func batchTitle(b timeline.RunBatch, statuses []timeline.StatusGroup) string {
	labels := make([]string, len(statuses))
	for i, st := range statuses {
		labels[i] = st.Label()
	}
	runs := "1 run"
	if b.Multiple() {
		runs = fmt.Sprintf("%d runs", len(b.Runs))
	}
	return fmt.Sprintf("%s, %s (%s → %s)", runs, strings.Join(labels, "/"),
		b.StartTime.Local().Format("15:04"), b.EndTime.Local().Format("15:04"))
}

var funcMap = template.FuncMap{
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return "—"
		}
		return t.Local().Format("Jan 2 15:04:05")
	},
	"indent": func(level int) int { return 8 + (level-1)*16 },
}

func (s *Server) render(w http.ResponseWriter, tmplStr string, data any) {
	t, err := template.New("page").Funcs(funcMap).Parse(tmplBase + tmplStr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		s.log.WithError(err).Error("Template error")
	}
}
