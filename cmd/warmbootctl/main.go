// Warmbootctl - warm boot snapshot and cache inspection tool
//
// Operator tooling around the warm boot state cache:
//
//	warmbootctl inspect [snapshot]      # summarize a persisted snapshot
//	warmbootctl paths [snapshot] [id]   # show persisted ECMP paths for a group
//	warmbootctl simulate --hardware f   # run a full discover/sweep cycle
//	                                    # against simulated hardware
//	warmbootctl version
//
// The snapshot is read from the configured backend (file or Redis) unless
// a path argument overrides it with a file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/warmboot/pkg/config"
	"github.com/newtron-network/warmboot/pkg/snapshot"
	"github.com/newtron-network/warmboot/pkg/util"
	"github.com/newtron-network/warmboot/pkg/version"
)

var (
	configPath string
	logLevel   string
	jsonLogs   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "warmbootctl",
	Short:         "Inspect and exercise warm boot switch state",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
		} else {
			cfg = config.Default()
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if jsonLogs {
			cfg.Log.Format = "json"
		}
		if err := util.SetLogLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
		}
		if cfg.Log.Format == "json" {
			util.SetJSONFormat()
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("warmbootctl", version.Info())
	},
}

// snapshotStore resolves the store to read: an explicit file argument
// wins, otherwise the configured backend.
func snapshotStore(pathArg string) (snapshot.Store, error) {
	if pathArg != "" {
		return snapshot.NewFileStore(pathArg), nil
	}
	switch cfg.Snapshot.Backend {
	case config.BackendFile:
		return snapshot.NewFileStore(cfg.Snapshot.Path), nil
	case config.BackendRedis:
		store := snapshot.NewRedisStore(cfg.Snapshot.Redis.Addr, cfg.Snapshot.Redis.DB, cfg.Snapshot.Redis.Key)
		if err := store.Connect(); err != nil {
			return nil, fmt.Errorf("connecting to redis %s: %w", cfg.Snapshot.Redis.Addr, err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log in JSON format")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(simulateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
