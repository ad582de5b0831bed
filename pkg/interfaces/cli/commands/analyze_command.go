package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/vsinha/procure/pkg/application/services/dependency"
	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/repositories"
	"github.com/vsinha/procure/pkg/infrastructure/config"
	"github.com/vsinha/procure/pkg/interfaces/cli/output"
)

// AnalyzeConfig holds the flags of the analyze command
type AnalyzeConfig struct {
	ProjectIDs []int64
	TopCentral int
	Format     string
	OutputDir  string
	Verbose    bool
}

// AnalyzeCommand prints the dependency analysis of the active projects
type AnalyzeCommand struct {
	config AnalyzeConfig
	app    *config.Config
	logger *zap.Logger
	out    io.Writer
}

// NewAnalyzeCommand creates a new analyze command
func NewAnalyzeCommand(app *config.Config, cfg AnalyzeConfig, logger *zap.Logger) *AnalyzeCommand {
	return &AnalyzeCommand{
		config: cfg,
		app:    app,
		logger: logger,
		out:    os.Stdout,
	}
}

// SetOutput redirects command output
func (c *AnalyzeCommand) SetOutput(w io.Writer) {
	c.out = w
}

// Execute runs the analyze command
func (c *AnalyzeCommand) Execute(ctx context.Context) error {
	source, err := OpenDataSource(ctx, c.app, c.logger)
	if err != nil {
		return err
	}
	defer source.Close()

	ids := make([]entities.ProjectID, 0, len(c.config.ProjectIDs))
	for _, id := range c.config.ProjectIDs {
		ids = append(ids, entities.ProjectID(id))
	}

	items, options, err := loadGraphInputs(ctx, source.Catalog, ids)
	if err != nil {
		return err
	}
	if c.config.Verbose {
		fmt.Fprintf(c.out, "📂 Loaded %d items with %d item codes quoted\n\n", len(items), len(options))
	}

	topCentral := c.config.TopCentral
	if topCentral <= 0 {
		topCentral = dependency.DefaultTopCentral
	}
	analysis, err := dependency.NewAnalyzer(topCentral).Analyze(ctx, items, options)
	if err != nil {
		return fmt.Errorf("dependency analysis failed: %w", err)
	}

	return output.GenerateAnalysis(analysis, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Writer:    c.out,
	})
}

// loadGraphInputs reads the items of active projects and the eligible options per item code.
// Budgets are not needed, so this bypasses the run data loader and its budget validation.
func loadGraphInputs(
	ctx context.Context,
	catalog repositories.Catalog,
	ids []entities.ProjectID,
) ([]*entities.ProjectItem, map[entities.ItemCode][]*entities.ProcurementOption, error) {
	projects, err := catalog.Projects.GetActiveProjects(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading projects: %w", err)
	}
	if len(projects) == 0 {
		return nil, nil, fmt.Errorf("no active projects found")
	}

	projectIDs := make([]entities.ProjectID, len(projects))
	for i, project := range projects {
		projectIDs[i] = project.ID
	}
	items, err := catalog.Projects.GetItems(ctx, projectIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading items: %w", err)
	}

	all, err := catalog.Options.GetFinalizedOptions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading procurement options: %w", err)
	}
	options := make(map[entities.ItemCode][]*entities.ProcurementOption)
	for _, option := range all {
		if option.Eligible() {
			options[option.ItemCode] = append(options[option.ItemCode], option)
		}
	}
	return items, options, nil
}
