package entities

import (
	"fmt"
	"strings"
)

// SolverType selects the optimization back-end
type SolverType string

const (
	SolverCP  SolverType = "CP"  // exact boolean search
	SolverLP  SolverType = "LP"  // LP relaxation with rounding
	SolverMIP SolverType = "MIP" // exact branch and bound
)

// ParseSolverType accepts CP, LP or MIP case-insensitively
func ParseSolverType(s string) (SolverType, error) {
	switch t := SolverType(strings.ToUpper(strings.TrimSpace(s))); t {
	case SolverCP, SolverLP, SolverMIP:
		return t, nil
	default:
		return "", fmt.Errorf("unknown solver type %q (expected CP, LP or MIP)", s)
	}
}

// DemandMode controls how many options may be selected per item
type DemandMode string

const (
	// AtMostOne allows an item to be skipped
	AtMostOne DemandMode = "AT_MOST_ONE"
	// ExactlyOne requires every eligible item to be bought
	ExactlyOne DemandMode = "EXACTLY_ONE"
)

// ParseDemandMode accepts the mode name case-insensitively; empty means AtMostOne
func ParseDemandMode(s string) (DemandMode, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch DemandMode(normalized) {
	case "", AtMostOne:
		return AtMostOne, nil
	case ExactlyOne:
		return ExactlyOne, nil
	default:
		return "", fmt.Errorf("unknown demand mode %q", s)
	}
}
