// Package cli wires the atlas command tree: run the analysis pipeline or
// scrape the Atlas data-downloads portal.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"productspace/internal/config"
	"productspace/internal/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// Env carries the loaded configuration and logger to subcommands.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
}

type envKey struct{}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "atlas",
		Short:   "Product space and economic complexity analysis on Atlas of Economic Complexity data",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env, err := EnvFrom(cmd); err == nil {
				_ = env.Logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (ATLAS_* variables override it)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		NewRunCmd(),
		NewScrapeCmd(),
		NewVersionCmd(),
	)
	return cmd
}

func setup(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, envKey{}, &Env{Config: cfg, Logger: log}))
	return nil
}

func EnvFrom(cmd *cobra.Command) (*Env, error) {
	if ctx := cmd.Context(); ctx != nil {
		if env, ok := ctx.Value(envKey{}).(*Env); ok {
			return env, nil
		}
	}
	return nil, errors.New("cli: configuration not loaded")
}

// Execute runs the command tree on args, or on the process arguments when
// none are given.
func Execute(ctx context.Context, args ...string) error {
	cmd := NewRootCommand()
	if len(args) > 0 {
		cmd.SetArgs(args)
	}
	return cmd.ExecuteContext(ctx)
}
