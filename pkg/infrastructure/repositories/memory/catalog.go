package memory

import (
	"fmt"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/repositories"
)

// Store groups the in-memory repositories behind the catalog used by the data loader
type Store struct {
	Projects  *ProjectRepository
	Decisions *DecisionRepository
	Options   *OptionRepository
	Budgets   *BudgetRepository
	Results   *ResultRepository
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		Projects:  NewProjectRepository(0),
		Decisions: NewDecisionRepository(),
		Options:   NewOptionRepository(0),
		Budgets:   NewBudgetRepository(),
		Results:   NewResultRepository(),
	}
}

// Catalog returns the read-side view of the store
func (s *Store) Catalog() repositories.Catalog {
	return repositories.Catalog{
		Projects:  s.Projects,
		Decisions: s.Decisions,
		Options:   s.Options,
		Budgets:   s.Budgets,
	}
}

// Snapshot is a complete scenario as read from a file source
type Snapshot struct {
	Projects  []*entities.Project
	Items     []*entities.ProjectItem
	Options   []*entities.ProcurementOption
	Budgets   []*entities.BudgetPeriod
	Decisions []*entities.FinalizedDecision
}

// NewStoreFromSnapshot creates a store holding the snapshot
func NewStoreFromSnapshot(snapshot *Snapshot) (*Store, error) {
	store := NewStore()
	if err := store.Projects.LoadProjects(snapshot.Projects); err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	if err := store.Projects.LoadItems(snapshot.Items); err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	if err := store.Options.LoadOptions(snapshot.Options); err != nil {
		return nil, fmt.Errorf("failed to load options: %w", err)
	}
	if err := store.Budgets.LoadBudgetPeriods(snapshot.Budgets); err != nil {
		return nil, fmt.Errorf("failed to load budgets: %w", err)
	}
	if err := store.Decisions.LoadDecisions(snapshot.Decisions); err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}
	return store, nil
}
