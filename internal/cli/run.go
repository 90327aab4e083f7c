package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"productspace/internal/pipeline"
)

type runOptions struct {
	year         int
	outputDir    string
	dataDir      string
	rcaThreshold float64
	noViz        bool
}

func NewRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the product space analysis and write every output",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}
			return runPipeline(cmd, env, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.year, "year", 0, "target year (overrides config)")
	f.StringVar(&opts.outputDir, "output-dir", "", "output directory (overrides config)")
	f.StringVar(&opts.dataDir, "data-dir", "", "directory holding the Atlas extracts (overrides config)")
	f.Float64Var(&opts.rcaThreshold, "rca-threshold", 0, "RCA presence threshold (overrides config)")
	f.BoolVar(&opts.noViz, "no-viz", false, "skip the per-country figures")
	return cmd
}

func runPipeline(cmd *cobra.Command, env *Env, opts *runOptions) error {
	cfg := *env.Config
	f := cmd.Flags()
	if f.Changed("year") {
		cfg.Year = opts.year
	}
	if f.Changed("output-dir") {
		cfg.Output.Dir = opts.outputDir
	}
	if f.Changed("data-dir") {
		cfg.Data.Dir = opts.dataDir
	}
	if f.Changed("rca-threshold") {
		cfg.RCAThreshold = opts.rcaThreshold
	}
	if opts.noViz {
		cfg.Viz.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("cli: invalid flags: %w", err)
	}

	res, err := pipeline.New(&cfg, env.Logger).Run(cmd.Context())
	if err != nil {
		return err
	}

	env.Logger.Info("run complete",
		zap.String("run_id", res.RunID),
		zap.Int("countries", len(res.Summaries)),
		zap.Int("top_opportunities", len(res.Top)))
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s wrote %d outputs to %s\n", res.RunID, len(res.Outputs), cfg.Output.Dir)
	for _, path := range res.Outputs {
		fmt.Fprintf(out, "  %s\n", path)
	}
	return nil
}
