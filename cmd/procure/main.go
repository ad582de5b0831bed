package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/procure/pkg/infrastructure/config"
	"github.com/vsinha/procure/pkg/infrastructure/logging"
	"github.com/vsinha/procure/pkg/interfaces/cli/commands"
)

// rootFlags are shared by every subcommand
type rootFlags struct {
	configFile string
	dataSource string
	dataPath   string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "procure",
		Short: "Procurement optimizer for multi-project, multi-currency purchasing",
		Long: `procure chooses which supplier option to buy for each project item and when,
under per-period budgets kept separately per currency.

Scenario data is read from a CSV directory, a YAML file or PostgreSQL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to config file (default ./procure.yaml or ./configs/procure.yaml)")
	root.PersistentFlags().StringVar(&flags.dataSource, "source", "", "Data source: csv, yaml or postgres (overrides config)")
	root.PersistentFlags().StringVar(&flags.dataPath, "data", "", "Scenario directory (csv) or file (yaml) (overrides config)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	root.AddCommand(newOptimizeCommand(flags), newAnalyzeCommand(flags))
	return root
}

// setup loads configuration, applies flag overrides and initializes logging
func setup(flags *rootFlags) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, nil, err
	}
	if flags.dataSource != "" {
		cfg.Data.Source = flags.dataSource
	}
	if flags.dataPath != "" {
		cfg.Data.Path = flags.dataPath
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	logger, err := logging.Init(logging.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Debug("Configuration loaded", cfg.Fields()...)
	return cfg, logger, nil
}

func newOptimizeCommand(flags *rootFlags) *cobra.Command {
	opts := commands.OptimizeConfig{}

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Generate procurement proposals under budget constraints",
		Example: `  procure optimize --data examples/basic --strategy lowest_cost
  procure optimize --data examples/basic --strategy all --solver mip --format json
  procure optimize --source yaml --data scenario.yaml --project 1 --project 3 --format csv --output results/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			command := commands.NewOptimizeCommand(cfg, opts, logger)
			command.SetOutput(cmd.OutOrStdout())
			return command.Execute(cmd.Context())
		},
	}

	cmd.Flags().StringSliceVar(&opts.Strategies, "strategy", nil,
		"Strategy to run, repeatable: lowest_cost, priority_weighted, fast_delivery, smooth_cashflow, balanced, or all")
	cmd.Flags().StringVar(&opts.SolverType, "solver", "", "Solver back-end: CP, LP or MIP (default from config)")
	cmd.Flags().StringVar(&opts.DemandMode, "demand-mode", "", "AT_MOST_ONE or EXACTLY_ONE (default from config)")
	cmd.Flags().Float64Var(&opts.TimeLimitSeconds, "time-limit", 0, "Time limit per solve in seconds (default from config)")
	cmd.Flags().IntVar(&opts.MaxTimeSlots, "max-slots", 0, "Maximum number of time slots (default from config)")
	cmd.Flags().Int64SliceVar(&opts.ProjectIDs, "project", nil, "Restrict to project id, repeatable")
	cmd.Flags().StringVar(&opts.WindowStart, "from", "", "Only use budget periods starting on or after YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.WindowEnd, "to", "", "Only use budget periods starting on or before YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format: text, json, csv")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "Output directory for results (required for csv)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable verbose output")
	return cmd
}

func newAnalyzeCommand(flags *rootFlags) *cobra.Command {
	opts := commands.AnalyzeConfig{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the item dependency graph, critical path and most central items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			command := commands.NewAnalyzeCommand(cfg, opts, logger)
			command.SetOutput(cmd.OutOrStdout())
			return command.Execute(cmd.Context())
		},
	}

	cmd.Flags().Int64SliceVar(&opts.ProjectIDs, "project", nil, "Restrict to project id, repeatable")
	cmd.Flags().IntVar(&opts.TopCentral, "top", 0, "Number of most central items to list")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format: text, json")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "Output directory for results (optional)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable verbose output")
	return cmd
}
