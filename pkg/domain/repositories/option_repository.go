package repositories

import (
	"context"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// ProcurementOptionRepository provides access to supplier quotes
type ProcurementOptionRepository interface {
	// GetFinalizedOptions returns only finalized, active options
	GetFinalizedOptions(ctx context.Context) ([]*entities.ProcurementOption, error)
}
