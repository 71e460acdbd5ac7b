package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yanorepuser4/dagster/pkg/prefs"
)

// NewPrefsCmd creates the `assetview prefs` command and its subcommands.
func NewPrefsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and write saved preferences",
		Long: `Read and write the preferences shared by the TUI and the web view, such as
the sidebar width (` + prefs.SidebarWidthKey + `).`,
	}

	withStore := func(fn func(*prefs.Store, []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, err := prefs.Open(env.Config.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()
			return fn(store, args)
		}
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a preference",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(store *prefs.Store, args []string) error {
			value, err := store.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(env.Stdout, value)
			return nil
		}),
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a preference",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(store *prefs.Store, args []string) error {
			key, value := args[0], args[1]
			if key == prefs.SidebarWidthKey {
				px, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("%s must be a whole number of pixels, got %q", key, value)
				}
				return store.SetSidebarWidth(px)
			}
			return store.Set(key, value)
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every stored preference",
		Args:  cobra.NoArgs,
		RunE: withStore(func(store *prefs.Store, args []string) error {
			all, err := store.All()
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(env.Stdout, "%s=%s\n", k, all[k])
			}
			return nil
		}),
	}

	unsetCmd := &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a preference",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(store *prefs.Store, args []string) error {
			return store.Delete(args[0])
		}),
	}

	cmd.AddCommand(getCmd, setCmd, listCmd, unsetCmd)
	return cmd
}
