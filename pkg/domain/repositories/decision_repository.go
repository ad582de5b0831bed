package repositories

import (
	"context"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// DecisionRepository provides access to decisions recorded by earlier runs or planners
type DecisionRepository interface {
	GetFinalizedDecisions(ctx context.Context, projectIDs []entities.ProjectID) ([]*entities.FinalizedDecision, error)
}
