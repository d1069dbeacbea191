// Package main provides the loadscope CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loadscope/loadscope/internal/logging"
	"github.com/loadscope/loadscope/pkg/config"
)

var version = "dev"

// rootOpts holds the persistent flags and the state built from them
// before any subcommand runs.
type rootOpts struct {
	configPath string
	logLevel   string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	rootCmd := &cobra.Command{
		Use:   "loadscope",
		Short: "Score and coach battle royale loadouts",
		Long: `Loadscope scores a five-slot weapon loadout, matches it against known
playstyles, suggests upgrades and answers free-form questions about it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default: nearest .loadscope/config.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newScoreCmd(opts),
		newStrategyCmd(opts),
		newSuggestCmd(opts),
		newAskCmd(opts),
		newTablesCmd(opts),
	)
	return rootCmd
}

// init loads the config file, applies the environment and builds the logger.
func (o *rootOpts) init() error {
	cfgFile := o.configPath
	if cfgFile == "" {
		if wd, err := os.Getwd(); err == nil {
			cfgFile = config.FindConfigFile(wd)
		}
	}

	cfg := config.DefaultConfig()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := firstNonEmpty(o.logLevel, cfg.Log.Level)
	if o.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = logger
	if cfgFile != "" {
		logger.Debug("loaded config", zap.String("path", cfgFile))
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
