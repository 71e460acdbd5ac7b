package cmd

import (
	"context"
	"errors"

	"github.com/yanorepuser4/dagster/pkg/catalog"
	"github.com/yanorepuser4/dagster/pkg/prefs"
	"github.com/yanorepuser4/dagster/pkg/refresh"
)

// newSource picks the snapshot file when one is configured, and the GraphQL
// endpoint otherwise.
func newSource(env *Env) catalog.Source {
	if env.Config.Snapshot != "" {
		return catalog.NewFileSource(env.Config.Snapshot, env.Log)
	}
	return catalog.NewClient(env.Config.Endpoint,
		catalog.WithRunWindow(env.Config.RunWindow),
		catalog.WithLogger(env.Log),
	)
}

// startRefresher begins polling in the background. Snapshot files are also
// watched so edits show up without waiting for the next tick.
func startRefresher(ctx context.Context, env *Env) *refresh.Refresher {
	r := refresh.New(newSource(env), env.Config.RefreshInterval, env.Log)
	go r.Run(ctx)

	if path := env.Config.Snapshot; path != "" {
		go func() {
			err := catalog.Watch(ctx, path, env.Log, r.Request)
			if err != nil && !errors.Is(err, context.Canceled) {
				env.Log.WithError(err).Warn("Snapshot watch stopped")
			}
		}()
	}
	return r
}

// openPrefs opens the preferences store. Failure is logged and tolerated;
// the views fall back to defaults.
func openPrefs(env *Env) *prefs.Store {
	store, err := prefs.Open(env.Config.DataDir)
	if err != nil {
		env.Log.WithError(err).Warn("Preferences unavailable")
		return nil
	}
	return store
}
