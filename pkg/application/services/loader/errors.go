package loader

import "fmt"

// ValidationKind classifies a data validation failure
type ValidationKind string

const (
	NoActiveProjects   ValidationKind = "NO_ACTIVE_PROJECTS"
	NoEligibleItems    ValidationKind = "NO_ELIGIBLE_ITEMS"
	NoFinalizedOptions ValidationKind = "NO_FINALIZED_OPTIONS"
	NoMatchingOptions  ValidationKind = "NO_MATCHING_OPTIONS"
	NoBudgetData       ValidationKind = "NO_BUDGET_DATA"
	InvalidCatalog     ValidationKind = "INVALID_CATALOG"
)

// ValidationError is a user-actionable data problem. Callers must not retry automatically.
type ValidationError struct {
	Kind        ValidationKind
	Message     string
	Remediation string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

var remediations = map[ValidationKind]string{
	NoActiveProjects:   "Activate at least one project or adjust the project filter.",
	NoEligibleItems:    "All items already carry a LOCKED or PROPOSED decision; revert decisions or add items.",
	NoFinalizedOptions: "Finalize at least one active procurement option.",
	NoMatchingOptions:  "Add finalized procurement options whose item codes match the remaining items.",
	NoBudgetData:       "Load budget periods for the planning window.",
	InvalidCatalog:     "Fix the reported procurement option data and re-run.",
}

func newValidationError(kind ValidationKind, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:        kind,
		Message:     fmt.Sprintf(format, args...),
		Remediation: remediations[kind],
	}
}
