package commands

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vsinha/procure/pkg/domain/repositories"
	"github.com/vsinha/procure/pkg/infrastructure/config"
	"github.com/vsinha/procure/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/procure/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/procure/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/procure/pkg/infrastructure/repositories/yaml"
)

// DataSource is an opened scenario catalog with the place run results are saved to
type DataSource struct {
	Catalog repositories.Catalog
	Results repositories.ResultRepository
	close   func() error
}

// Close releases the source's resources
func (d *DataSource) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

// OpenDataSource opens the scenario source selected by cfg.Data
func OpenDataSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*DataSource, error) {
	switch strings.ToLower(cfg.Data.Source) {
	case "csv":
		snapshot, err := csv.NewLoader().LoadDirectory(cfg.Data.Path)
		if err != nil {
			return nil, fmt.Errorf("error loading CSV scenario: %w", err)
		}
		return fromSnapshot(snapshot)

	case "yaml", "yml":
		snapshot, err := yaml.NewLoader().LoadFile(cfg.Data.Path)
		if err != nil {
			return nil, fmt.Errorf("error loading YAML scenario: %w", err)
		}
		return fromSnapshot(snapshot)

	case "postgres":
		store, err := postgres.NewStore(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("Connected to database",
			zap.String("host", cfg.Database.Host),
			zap.String("dbname", cfg.Database.DBName),
		)
		return &DataSource{Catalog: store.Catalog(), Results: store, close: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported data source: %s (expected csv, yaml or postgres)", cfg.Data.Source)
	}
}

func fromSnapshot(snapshot *memory.Snapshot) (*DataSource, error) {
	store, err := memory.NewStoreFromSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	return &DataSource{Catalog: store.Catalog(), Results: store.Results}, nil
}
