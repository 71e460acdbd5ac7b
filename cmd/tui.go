package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/yanorepuser4/dagster/internal/tui/overview"
	"github.com/yanorepuser4/dagster/pkg/assettree"
)

// NewTuiCmd creates the `assetview tui` command.
func NewTuiCmd(env *Env) *cobra.Command {
	var search string
	var open []string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive asset overview",
		Long: `Launch a Terminal User Interface showing assets by code location and group,
with a timeline of recent runs. Data refreshes in the background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), env, search, open)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "initial search text")
	cmd.Flags().StringArrayVar(&open, "open", nil, "expand the location or group with this id (repeatable)")
	return cmd
}

func runTUI(ctx context.Context, env *Env, search string, open []string) error {
	if !env.IsTerminal() {
		return fmt.Errorf("TUI mode requires an interactive terminal")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := overview.Options{
		Source:    startRefresher(ctx, env),
		Collator:  env.Collator(),
		RunWindow: env.Config.RunWindow,
		Search:    search,
		Expanded:  assettree.NewExpandedSet(open...),
		Log:       env.Log,
	}
	if store := openPrefs(env); store != nil {
		defer store.Close()
		opts.Prefs = store
	}

	p := tea.NewProgram(overview.New(opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(env.Stdin),
		tea.WithOutput(env.Stdout),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
