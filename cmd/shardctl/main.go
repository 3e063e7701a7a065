package main

import (
	"os"

	"github.com/pg-sharding/shardcore/pkg/config"
	"github.com/pg-sharding/shardcore/pkg/models/rule"
	"github.com/pg-sharding/shardcore/pkg/shardlog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type options struct {
	cfgPath  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "shardctl --config `path-to-sharding-config`",
		Short: "shardctl",
		Long:  "inspect sharding rules and statement routing",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "/etc/shardcore/sharding.yaml", "path to sharding config file")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "", "log level, overrides the config file")

	rootCmd.AddCommand(newRouteCmd(opts))
	rootCmd.AddCommand(newDataNodesCmd(opts))
	rootCmd.AddCommand(newKeyRangesCmd(opts))
	return rootCmd
}

// loadRule reads the config file and builds the sharding rule.
func (o *options) loadRule() (*rule.ShardingRule, error) {
	if _, err := config.LoadShardingCfg(o.cfgPath); err != nil {
		return nil, errors.Wrapf(err, "failed to load config %s", o.cfgPath)
	}
	cfg := config.ShardingConfig()

	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	if level != "" {
		shardlog.UpdateZeroLogLevel(level)
	}
	if cfg.LogFile != "" {
		shardlog.ReloadLogger(cfg.LogFile, cfg.PrettyLogs)
	}

	return rule.NewShardingRule(cfg)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		shardlog.Zero.Error().Err(err).Msg("shardctl failed")
		os.Exit(1)
	}
}
