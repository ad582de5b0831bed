package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// CatalogValidator checks the consistency of items and procurement options before optimization
type CatalogValidator struct{}

// NewCatalogValidator creates a new catalog validator
func NewCatalogValidator() *CatalogValidator {
	return &CatalogValidator{}
}

// ValidationResult contains the results of catalog validation.
// Errors block optimization; warnings are reported only.
type ValidationResult struct {
	DuplicateOptions []entities.OptionID
	OrphanedOptions  []entities.OptionID
	DuplicateItems   []entities.ItemRef
	Errors           []string
	Warnings         []string
}

// IsValid reports whether no blocking problem was found
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ValidateCatalog performs the full set of checks on loaded items and options
func (v *CatalogValidator) ValidateCatalog(
	items []*entities.ProjectItem,
	options []*entities.ProcurementOption,
) *ValidationResult {
	result := &ValidationResult{
		DuplicateOptions: make([]entities.OptionID, 0),
		OrphanedOptions:  make([]entities.OptionID, 0),
		DuplicateItems:   make([]entities.ItemRef, 0),
		Errors:           make([]string, 0),
		Warnings:         make([]string, 0),
	}

	result.DuplicateOptions = v.detectDuplicateOptions(options)
	result.DuplicateItems = v.detectDuplicateItems(items)
	result.OrphanedOptions = v.detectOrphanedOptions(items, options)

	if len(result.DuplicateOptions) > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Duplicate procurement option ids found: %v", result.DuplicateOptions))
	}
	if len(result.DuplicateItems) > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Duplicate project items found: %v", result.DuplicateItems))
	}

	for _, option := range options {
		if option.Cost.IsNegative() {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Option %d has negative cost %s", option.ID, option.Cost))
		}
		if err := entities.ValidatePaymentTerms(option.PaymentTerms); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Option %d has invalid payment terms: %v", option.ID, err))
		}
	}

	if len(result.OrphanedOptions) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d procurement options match no loaded item: %v",
				len(result.OrphanedOptions), result.OrphanedOptions))
	}

	for _, item := range items {
		if len(item.DeliveryOptions) == 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Item %s has no delivery options; the planning horizon is used", item.Ref()))
		}
	}

	return result
}

// detectDuplicateOptions finds option ids that appear more than once
func (v *CatalogValidator) detectDuplicateOptions(options []*entities.ProcurementOption) []entities.OptionID {
	seen := make(map[entities.OptionID]bool)
	duplicates := make([]entities.OptionID, 0)

	for _, option := range options {
		if seen[option.ID] {
			duplicates = append(duplicates, option.ID)
		} else {
			seen[option.ID] = true
		}
	}

	return duplicates
}

// detectDuplicateItems finds (project, item code) pairs listed more than once
func (v *CatalogValidator) detectDuplicateItems(items []*entities.ProjectItem) []entities.ItemRef {
	seen := make(map[entities.ItemRef]bool)
	duplicates := make([]entities.ItemRef, 0)

	for _, item := range items {
		ref := item.Ref()
		if seen[ref] {
			duplicates = append(duplicates, ref)
		} else {
			seen[ref] = true
		}
	}

	return duplicates
}

// detectOrphanedOptions finds options whose item code matches no loaded item
func (v *CatalogValidator) detectOrphanedOptions(
	items []*entities.ProjectItem,
	options []*entities.ProcurementOption,
) []entities.OptionID {
	codes := make(map[entities.ItemCode]bool, len(items))
	for _, item := range items {
		codes[item.ItemCode] = true
	}

	orphaned := make([]entities.OptionID, 0)
	for _, option := range options {
		if !codes[option.ItemCode] {
			orphaned = append(orphaned, option.ID)
		}
	}

	sort.Slice(orphaned, func(i, j int) bool { return orphaned[i] < orphaned[j] })
	return orphaned
}
