package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yanorepuser4/dagster/cmd/config"
	"github.com/yanorepuser4/dagster/pkg/assettree"
)

// Env is shared by every command. It is filled in by the root command's
// PersistentPreRunE before any subcommand runs.
type Env struct {
	Config *config.Config
	Log    *logrus.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// IsTerminal reports whether the output is interactive.
	IsTerminal func() bool

	closeLog func() error
}

// Collator returns the collator for the configured locale.
func (e *Env) Collator() *assettree.Collator {
	return assettree.NewCollator(e.Config.Locale)
}

// NewRootCmd creates the `assetview` command tree.
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	env := &Env{
		Stdin:      stdin,
		Stdout:     stdout,
		Stderr:     stderr,
		IsTerminal: stdoutIsTerminal(stdout),
	}
	var verbose bool
	var opts treeOptions

	tuiCmd := NewTuiCmd(env)

	rootCmd := &cobra.Command{
		Use:   "assetview",
		Short: "Browse assets by code location and group",
		Long: `Browse a catalog's assets grouped by code location and asset group, with a
timeline of recent runs beside each row.

Runs the interactive TUI on a terminal and prints the tree otherwise.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			env.Config = cfg

			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			// The TUI owns the terminal, so it only logs to a file.
			quiet := cmd == tuiCmd || (cmd.Parent() == nil && env.IsTerminal())
			log, closeLog, err := newLogger(level, cfg.LogFile, stderr, quiet)
			if err != nil {
				return err
			}
			env.Log = log
			env.closeLog = closeLog
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if env.closeLog != nil {
				return env.closeLog()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if env.IsTerminal() {
				return runTUI(cmd.Context(), env, opts.search, opts.open)
			}
			return runTree(cmd.Context(), env, opts)
		},
	}

	config.AddGlobalFlags(rootCmd)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	bindTreeFlags(rootCmd, &opts)

	rootCmd.AddCommand(NewTreeCmd(env))
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(NewServeCmd(env))
	rootCmd.AddCommand(NewPrefsCmd(env))
	rootCmd.AddCommand(NewVersionCmd(env))

	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd
}

func stdoutIsTerminal(stdout io.Writer) func() bool {
	return func() bool {
		f, ok := stdout.(*os.File)
		if !ok {
			return false
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
}

// newLogger builds the process logger. Logs go to logFile when set,
// otherwise to stderr unless quiet.
func newLogger(level, logFile string, stderr io.Writer, quiet bool) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	closeLog := func() error { return nil }
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(f)
		closeLog = f.Close
	case quiet:
		logger.SetOutput(io.Discard)
	default:
		logger.SetOutput(stderr)
	}
	return logger, closeLog, nil
}
