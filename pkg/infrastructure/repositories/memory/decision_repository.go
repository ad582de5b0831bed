package memory

import (
	"context"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/repositories"
)

// DecisionRepository provides in-memory storage of finalized decisions
type DecisionRepository struct {
	decisions []entities.FinalizedDecision
}

// NewDecisionRepository creates a new in-memory decision repository
func NewDecisionRepository() *DecisionRepository {
	return &DecisionRepository{
		decisions: []entities.FinalizedDecision{},
	}
}

// Verify interface compliance
var _ repositories.DecisionRepository = (*DecisionRepository)(nil)

// LoadDecisions loads decisions into the repository
func (r *DecisionRepository) LoadDecisions(decisions []*entities.FinalizedDecision) error {
	for _, decision := range decisions {
		r.decisions = append(r.decisions, *decision)
	}
	return nil
}

// GetFinalizedDecisions returns decisions of the given projects
func (r *DecisionRepository) GetFinalizedDecisions(
	ctx context.Context,
	projectIDs []entities.ProjectID,
) ([]*entities.FinalizedDecision, error) {
	wanted := idSet(projectIDs)
	var decisions []*entities.FinalizedDecision
	for i := range r.decisions {
		if wanted != nil && !wanted[r.decisions[i].ProjectID] {
			continue
		}
		decisions = append(decisions, &r.decisions[i])
	}
	return decisions, nil
}
