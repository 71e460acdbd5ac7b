package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds the resolved settings for every command.
type Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Snapshot        string        `mapstructure:"snapshot"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RunWindow       time.Duration `mapstructure:"run_window"`
	DataDir         string        `mapstructure:"data_dir"`
	Locale          string        `mapstructure:"locale"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFile         string        `mapstructure:"log_file"`
	Listen          string        `mapstructure:"listen"`
}

var cfgFile string

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"endpoint":  "endpoint",
	"snapshot":  "snapshot",
	"data-dir":  "data_dir",
	"locale":    "locale",
	"log-level": "log_level",
	"log-file":  "log_file",
}

// AddGlobalFlags registers the flags every command shares.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/assetview/config.yaml)")
	cmd.PersistentFlags().String("endpoint", "", "GraphQL endpoint to query")
	cmd.PersistentFlags().String("snapshot", "", "read assets and runs from a YAML or JSON snapshot instead of the endpoint")
	cmd.PersistentFlags().String("data-dir", "", "directory for the preferences database")
	cmd.PersistentFlags().String("locale", "", "locale used to sort asset keys")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-file", "", "write logs to this file")
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("endpoint", "http://localhost:3000/graphql")
	v.SetDefault("snapshot", "")
	v.SetDefault("refresh_interval", 15*time.Second)
	v.SetDefault("run_window", 24*time.Hour)
	v.SetDefault("data_dir", filepath.Join(home, ".local", "share", "assetview"))
	v.SetDefault("locale", "en")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("listen", ":7430")
}

// Load resolves configuration from defaults, the config file, ASSETVIEW_*
// environment variables and the flags set on cmd, in increasing precedence.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "assetview"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ASSETVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if cmd != nil {
		for name, key := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := cmd.Flags().Lookup("listen"); f != nil && f.Changed {
			if err := v.BindPFlag("listen", f); err != nil {
				return nil, fmt.Errorf("bind flag listen: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.RefreshInterval <= 0 {
		return nil, fmt.Errorf("refresh_interval must be positive, got %s", cfg.RefreshInterval)
	}
	if cfg.RunWindow <= 0 {
		return nil, fmt.Errorf("run_window must be positive, got %s", cfg.RunWindow)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Snapshot = expandHome(cfg.Snapshot)
	cfg.LogFile = expandHome(cfg.LogFile)
	return &cfg, nil
}

// expandHome replaces a leading ~ with the home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
