package postgres

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/repositories"
	"github.com/vsinha/procure/pkg/infrastructure/config"
)

// Store reads scenarios from and writes run results to PostgreSQL
type Store struct {
	db *gorm.DB
}

// Verify interface compliance
var (
	_ repositories.ProjectRepository           = (*Store)(nil)
	_ repositories.ProcurementOptionRepository = (*Store)(nil)
	_ repositories.BudgetRepository            = (*Store)(nil)
	_ repositories.DecisionRepository          = (*Store)(nil)
	_ repositories.ResultRepository            = (*Store)(nil)
)

// NewStore opens a connection pool using cfg
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing gorm handle
func NewStoreWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates every table the store uses
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Catalog returns the store as the read-side repositories of a run
func (s *Store) Catalog() repositories.Catalog {
	return repositories.Catalog{
		Projects:  s,
		Decisions: s,
		Options:   s,
		Budgets:   s,
	}
}

// GetActiveProjects returns active projects, optionally restricted to ids
func (s *Store) GetActiveProjects(ctx context.Context, ids []entities.ProjectID) ([]*entities.Project, error) {
	query := s.db.WithContext(ctx).Where("active = ?", true)
	if len(ids) > 0 {
		query = query.Where("id IN ?", toInt64s(ids))
	}

	var rows []projectModel
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	projects := make([]*entities.Project, 0, len(rows))
	for _, row := range rows {
		project, err := row.toEntity()
		if err != nil {
			return nil, fmt.Errorf("project %d: %w", row.ID, err)
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// GetItems returns the items of the given projects with their delivery options
func (s *Store) GetItems(ctx context.Context, projectIDs []entities.ProjectID) ([]*entities.ProjectItem, error) {
	query := s.db.WithContext(ctx).Preload("DeliveryOptions", func(db *gorm.DB) *gorm.DB {
		return db.Order("delivery_date, id")
	})
	if len(projectIDs) > 0 {
		query = query.Where("project_id IN ?", toInt64s(projectIDs))
	}

	var rows []itemModel
	if err := query.Order("project_id, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}

	items := make([]*entities.ProjectItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", row.ID, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// GetFinalizedOptions returns finalized, active options
func (s *Store) GetFinalizedOptions(ctx context.Context) ([]*entities.ProcurementOption, error) {
	var rows []optionModel
	err := s.db.WithContext(ctx).
		Where("finalized = ? AND active = ?", true, true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query procurement options: %w", err)
	}

	options := make([]*entities.ProcurementOption, 0, len(rows))
	for _, row := range rows {
		option, err := row.toEntity()
		if err != nil {
			return nil, fmt.Errorf("procurement option %d: %w", row.ID, err)
		}
		options = append(options, option)
	}
	return options, nil
}

// GetBudgetPeriods returns periods within the window ordered by period start
func (s *Store) GetBudgetPeriods(ctx context.Context, window entities.DateRange) ([]*entities.BudgetPeriod, error) {
	query := s.db.WithContext(ctx)
	if !window.Start.IsZero() {
		query = query.Where("period_start >= ?", window.Start)
	}
	if !window.End.IsZero() {
		query = query.Where("period_start <= ?", window.End)
	}

	var rows []budgetModel
	if err := query.Order("period_start, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	return groupBudgets(rows)
}

// GetFinalizedDecisions returns decisions of the given projects
func (s *Store) GetFinalizedDecisions(ctx context.Context, projectIDs []entities.ProjectID) ([]*entities.FinalizedDecision, error) {
	query := s.db.WithContext(ctx)
	if len(projectIDs) > 0 {
		query = query.Where("project_id IN ?", toInt64s(projectIDs))
	}

	var rows []decisionModel
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}

	decisions := make([]*entities.FinalizedDecision, 0, len(rows))
	for _, row := range rows {
		decisions = append(decisions, &entities.FinalizedDecision{
			ProjectID: entities.ProjectID(row.ProjectID),
			ItemCode:  entities.ItemCode(row.ItemCode),
			OptionID:  entities.OptionID(row.OptionID),
			Status:    entities.DecisionStatus(row.Status),
		})
	}
	return decisions, nil
}

// SaveRun writes a run with its proposals and decisions in one transaction
func (s *Store) SaveRun(ctx context.Context, run *entities.OptimizationRun) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	model := newRunModel(run)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to save run %s: %w", run.RunID, err)
		}
		return nil
	})
}

func toInt64s(ids []entities.ProjectID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
