package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/spf13/cobra"

	"github.com/yanorepuser4/dagster/pkg/assettree"
	"github.com/yanorepuser4/dagster/pkg/models"
	"github.com/yanorepuser4/dagster/pkg/timeline"
)

type treeOptions struct {
	search string
	open   []string
	all    bool
	json   bool
}

func bindTreeFlags(cmd *cobra.Command, o *treeOptions) {
	cmd.Flags().StringVarP(&o.search, "search", "s", "", "only show assets whose key or group contains this text")
	cmd.Flags().StringArrayVar(&o.open, "open", nil, "expand the location or group with this id (repeatable)")
	cmd.Flags().BoolVar(&o.all, "all", false, "expand every location and group")
	cmd.Flags().BoolVar(&o.json, "json", false, "output rows as JSON")
}

// NewTreeCmd creates the `assetview tree` command.
func NewTreeCmd(env *Env) *cobra.Command {
	var opts treeOptions

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the asset tree once",
		Long: `Fetch assets and recent runs once and print the overview rows.

Locations and groups start collapsed unless they are the only one at their
level. Use --open with a location name or group id to expand it, or --all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd.Context(), env, opts)
		},
	}
	bindTreeFlags(cmd, &opts)
	return cmd
}

func runTree(ctx context.Context, env *Env, opts treeOptions) error {
	snap, err := newSource(env).Load(ctx)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	if snap.Assets.Failed() {
		return snap.Assets.Error
	}

	tree := assettree.NewTree(snap.Assets.Assets, assettree.WithCollator(env.Collator()))
	expanded := assettree.NewExpandedSet(opts.open...)
	if opts.all {
		expanded = assettree.NewExpandedSet(tree.AllIDs(opts.search)...)
	}
	rows := tree.Rows(opts.search, expanded)
	env.Log.WithField("rows", len(rows)).Debug("Built asset tree")

	if opts.json {
		return writeTreeJSON(env.Stdout, rows)
	}
	if len(rows) == 0 {
		if opts.search != "" {
			fmt.Fprintf(env.Stdout, "No assets match %q.\n", opts.search)
		} else {
			fmt.Fprintln(env.Stdout, "No assets found.")
		}
		return nil
	}
	return writeTreeTable(env.Stdout, rows, snap.Runs)
}

func writeTreeJSON(w io.Writer, rows []assettree.Node) error {
	if rows == nil {
		rows = []assettree.Node{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.DefaultTheme.Colors.Blue)
	locationStyle    = lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Cyan)
	mutedStyle       = theme.DefaultTheme.Muted
)

type tableRow struct {
	name, id, runs string
}

// writeTreeTable prints aligned NAME, ID and RUNS columns. Columns are padded
// by display width so styled cells line up.
func writeTreeTable(w io.Writer, rows []assettree.Node, runs []models.Run) error {
	table := make([]tableRow, 0, len(rows)+1)
	table = append(table, tableRow{
		name: tableHeaderStyle.Render("NAME"),
		id:   tableHeaderStyle.Render("ID"),
		runs: tableHeaderStyle.Render("RUNS"),
	})
	for i := range rows {
		row := &rows[i]
		label := row.Label()
		if row.Kind == assettree.KindLocation {
			label = locationStyle.Render(label)
		}
		name := strings.Repeat("  ", row.Level-1) + mutedStyle.Render(treeMarker(row)) + label
		if row.IsFoldable() {
			name += mutedStyle.Render(fmt.Sprintf(" (%d)", row.ChildCount))
		}
		table = append(table, tableRow{
			name: name,
			id:   mutedStyle.Render(row.ID),
			runs: runSummary(runs, row.Keys),
		})
	}

	var nameWidth, idWidth int
	for _, r := range table {
		nameWidth = max(nameWidth, lipgloss.Width(r.name))
		idWidth = max(idWidth, lipgloss.Width(r.id))
	}
	for _, r := range table {
		_, err := fmt.Fprintf(w, "%s  %s  %s\n", pad(r.name, nameWidth), pad(r.id, idWidth), r.runs)
		if err != nil {
			return err
		}
	}
	return nil
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func treeMarker(row *assettree.Node) string {
	switch {
	case !row.IsFoldable():
		return "  "
	case row.Open:
		return "▾ "
	default:
		return "▸ "
	}
}

// runSummary renders e.g. "3 (Succeeded, Failed)" or "-" for rows with no
// runs in the window.
func runSummary(runs []models.Run, keys []string) string {
	matched := timeline.RunsForKeys(runs, keys)
	if len(matched) == 0 {
		return mutedStyle.Render("-")
	}
	statuses := timeline.MergeStatus(matched)
	labels := make([]string, len(statuses))
	for i, s := range statuses {
		labels[i] = s.Label()
	}
	return fmt.Sprintf("%d %s", len(matched), mutedStyle.Render("("+strings.Join(labels, ", ")+")"))
}
