package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/repositories"
)

// ResultRepository keeps saved optimization runs in memory
type ResultRepository struct {
	mu   sync.RWMutex
	runs []entities.OptimizationRun
}

// NewResultRepository creates a new in-memory result repository
func NewResultRepository() *ResultRepository {
	return &ResultRepository{}
}

// Verify interface compliance
var _ repositories.ResultRepository = (*ResultRepository)(nil)

// SaveRun stores a run
func (r *ResultRepository) SaveRun(ctx context.Context, run *entities.OptimizationRun) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	return nil
}

// Runs returns all saved runs in save order
func (r *ResultRepository) Runs() []entities.OptimizationRun {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runs := make([]entities.OptimizationRun, len(r.runs))
	copy(runs, r.runs)
	return runs
}
