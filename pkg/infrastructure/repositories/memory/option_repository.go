package memory

import (
	"context"
	"fmt"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/repositories"
)

// OptionRepository provides in-memory procurement option storage
type OptionRepository struct {
	options    []entities.ProcurementOption
	optionsMap map[entities.OptionID]int
}

// NewOptionRepository creates a new in-memory option repository
func NewOptionRepository(expectedOptions int) *OptionRepository {
	return &OptionRepository{
		options:    make([]entities.ProcurementOption, 0, expectedOptions),
		optionsMap: make(map[entities.OptionID]int, expectedOptions),
	}
}

// Verify interface compliance
var _ repositories.ProcurementOptionRepository = (*OptionRepository)(nil)

// LoadOptions loads options into the repository
func (r *OptionRepository) LoadOptions(options []*entities.ProcurementOption) error {
	for _, option := range options {
		r.AddOption(*option)
	}
	return nil
}

// AddOption adds an option to the repository
func (r *OptionRepository) AddOption(option entities.ProcurementOption) {
	r.optionsMap[option.ID] = len(r.options)
	r.options = append(r.options, option)
}

// GetOption returns an option by id
func (r *OptionRepository) GetOption(id entities.OptionID) (*entities.ProcurementOption, error) {
	index, exists := r.optionsMap[id]
	if !exists {
		return nil, fmt.Errorf("procurement option not found: %d", id)
	}
	return &r.options[index], nil
}

// GetFinalizedOptions returns finalized, active options
func (r *OptionRepository) GetFinalizedOptions(ctx context.Context) ([]*entities.ProcurementOption, error) {
	var options []*entities.ProcurementOption
	for i := range r.options {
		if r.options[i].Eligible() {
			options = append(options, &r.options[i])
		}
	}
	return options, nil
}
