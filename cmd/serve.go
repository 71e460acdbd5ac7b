package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yanorepuser4/dagster/internal/web"
)

// NewServeCmd creates the `assetview serve` command.
func NewServeCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the asset overview over HTTP",
		Long: `Serve the overview as HTML at / and as JSON at /api/tree.json.

Search text and expanded rows live in the URL (searchQuery and open), so any
view can be bookmarked or shared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := web.Options{
				Source:    startRefresher(ctx, env),
				Collator:  env.Collator(),
				RunWindow: env.Config.RunWindow,
				Interval:  env.Config.RefreshInterval,
				Log:       env.Log,
			}
			if store := openPrefs(env); store != nil {
				defer store.Close()
				opts.Prefs = store
			}

			env.Log.WithField("url", "http://"+displayAddr(env.Config.Listen)).Info("Starting server")
			return web.New(opts).ListenAndServe(ctx, env.Config.Listen)
		},
	}
	cmd.Flags().String("listen", "", "address to listen on (default :7430)")
	return cmd
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
