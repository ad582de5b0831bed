package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/procure/pkg/application/dto"
	"github.com/vsinha/procure/pkg/application/services/optimization"
	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/infrastructure/config"
	"github.com/vsinha/procure/pkg/infrastructure/currency"
	"github.com/vsinha/procure/pkg/infrastructure/events"
	"github.com/vsinha/procure/pkg/infrastructure/metrics"
	"github.com/vsinha/procure/pkg/interfaces/cli/output"
)

const dateLayout = "2006-01-02"

// OptimizeConfig holds the per-run flags of the optimize command
type OptimizeConfig struct {
	Strategies       []string
	SolverType       string
	DemandMode       string
	TimeLimitSeconds float64
	MaxTimeSlots     int
	ProjectIDs       []int64
	WindowStart      string
	WindowEnd        string
	Format           string
	OutputDir        string
	Verbose          bool
}

// OptimizeCommand runs one optimization over the configured data source
type OptimizeCommand struct {
	config OptimizeConfig
	app    *config.Config
	logger *zap.Logger
	out    io.Writer
}

// NewOptimizeCommand creates a new optimize command
func NewOptimizeCommand(app *config.Config, cfg OptimizeConfig, logger *zap.Logger) *OptimizeCommand {
	return &OptimizeCommand{
		config: cfg,
		app:    app,
		logger: logger,
		out:    os.Stdout,
	}
}

// SetOutput redirects command output
func (c *OptimizeCommand) SetOutput(w io.Writer) {
	c.out = w
}

// Execute runs the optimize command. The returned error is non-nil when the run ended in
// ERROR or VALIDATION_FAILED, after the response has been written.
func (c *OptimizeCommand) Execute(ctx context.Context) error {
	req, err := c.buildRequest()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	serviceConfig, err := ServiceConfig(c.app.Optimizer)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.config.Verbose {
		c.printHeader(req)
		fmt.Fprintln(c.out, "📂 Loading scenario...")
	}

	source, err := OpenDataSource(ctx, c.app, c.logger)
	if err != nil {
		return err
	}
	defer source.Close()

	recorder, err := metrics.NewRecorder("procure")
	if err != nil {
		return fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	journal := events.NewInMemoryEventStore(c.logger)
	if err := journal.Subscribe(events.AllRunEvents, events.NewLoggingHandler(c.logger)); err != nil {
		return fmt.Errorf("failed to subscribe run journal: %w", err)
	}

	opts := []optimization.Option{
		optimization.WithResultRepository(source.Results),
		optimization.WithJournal(journal),
		optimization.WithMetrics(recorder),
		optimization.WithLogger(c.logger),
	}
	if c.app.Currency.Base != "" {
		converter, err := currency.NewStaticConverter(c.app.Currency.Base, c.app.Currency.Rates)
		if err != nil {
			return fmt.Errorf("invalid currency configuration: %w", err)
		}
		opts = append(opts, optimization.WithConverter(converter))
	}

	service := optimization.NewService(source.Catalog, serviceConfig, opts...)

	if c.config.Verbose {
		fmt.Fprintln(c.out, "🔄 Running optimization...")
	}
	startTime := time.Now()
	resp := service.Run(ctx, req)
	if c.config.Verbose {
		fmt.Fprintf(c.out, "✅ Optimization finished in %v\n\n", time.Since(startTime))
	}

	if path := c.app.Metrics.TextfilePath; path != "" {
		if err := recorder.WriteTextfile(path); err != nil {
			c.logger.Warn("Failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}

	err = output.Generate(resp, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Writer:    c.out,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	switch resp.Status {
	case dto.RunError, dto.RunValidationFailed:
		return fmt.Errorf("optimization %s: %s", resp.Status, resp.Message)
	}
	return nil
}

// buildRequest validates the flags and turns them into a request
func (c *OptimizeCommand) buildRequest() (dto.OptimizationRequest, error) {
	req := dto.OptimizationRequest{
		MaxTimeSlots:     c.config.MaxTimeSlots,
		TimeLimitSeconds: c.config.TimeLimitSeconds,
	}

	if c.config.SolverType != "" {
		solverType, err := entities.ParseSolverType(c.config.SolverType)
		if err != nil {
			return req, err
		}
		req.SolverType = solverType
	}
	if c.config.DemandMode != "" {
		mode, err := entities.ParseDemandMode(c.config.DemandMode)
		if err != nil {
			return req, err
		}
		req.DemandMode = mode
	}

	for _, name := range c.config.Strategies {
		if name == "all" {
			req.Strategies = entities.AllStrategies()
			break
		}
		strategy, err := entities.ParseStrategy(name)
		if err != nil {
			return req, err
		}
		req.Strategies = append(req.Strategies, strategy)
	}

	for _, id := range c.config.ProjectIDs {
		if id <= 0 {
			return req, fmt.Errorf("project id must be positive, got %d", id)
		}
		req.ProjectIDs = append(req.ProjectIDs, entities.ProjectID(id))
	}

	window, err := parseWindow(c.config.WindowStart, c.config.WindowEnd)
	if err != nil {
		return req, err
	}
	req.Window = window
	return req, nil
}

func parseWindow(start, end string) (entities.DateRange, error) {
	var window entities.DateRange
	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return window, fmt.Errorf("invalid start date format: %s (expected YYYY-MM-DD)", start)
		}
		window.Start = t
	}
	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return window, fmt.Errorf("invalid end date format: %s (expected YYYY-MM-DD)", end)
		}
		window.End = t
	}
	if !window.Start.IsZero() && !window.End.IsZero() && window.End.Before(window.Start) {
		return window, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return window, nil
}

// printHeader prints the command header information
func (c *OptimizeCommand) printHeader(req dto.OptimizationRequest) {
	fmt.Fprintf(c.out, "🚀 Procurement Optimizer\n")
	fmt.Fprintf(c.out, "Data source: %s (%s)\n", c.app.Data.Source, c.app.Data.Path)
	if req.SolverType != "" {
		fmt.Fprintf(c.out, "Solver: %s\n", req.SolverType)
	}
	if len(req.Strategies) > 0 {
		fmt.Fprintf(c.out, "Strategies: %v\n", req.Strategies)
	}
	fmt.Fprintf(c.out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(c.out)
}
