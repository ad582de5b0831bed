package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProposalStatus is the normalized solver outcome attached to a proposal
type ProposalStatus string

const (
	StatusOptimal    ProposalStatus = "OPTIMAL"
	StatusFeasible   ProposalStatus = "FEASIBLE"
	StatusInfeasible ProposalStatus = "INFEASIBLE"
	StatusError      ProposalStatus = "ERROR"
)

// HasSolution reports whether the status carries a usable assignment
func (s ProposalStatus) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Proposal is one complete solution produced under a single strategy.
// TotalCost is nominal: it adds currencies at face value for ranking only.
type Proposal struct {
	Name           string                           `json:"proposal_name"`
	Strategy       Strategy                         `json:"strategy"`
	Status         ProposalStatus                   `json:"status"`
	TotalCost      decimal.Decimal                  `json:"total_cost"`
	CostByCurrency map[CurrencyCode]decimal.Decimal `json:"cost_by_currency"`
	WeightedCost   decimal.Decimal                  `json:"weighted_cost"`
	ItemsCount     int                              `json:"items_count"`
	Decisions      []Decision                       `json:"decisions"`
	SummaryNotes   []string                         `json:"summary_notes"`
}

// OptimizationRun is the record handed to the persistence collaborator after a run
type OptimizationRun struct {
	RunID         string
	Status        string
	StartedAt     time.Time
	ExecutionTime time.Duration
	Message       string
	Best          *Proposal
	Proposals     []Proposal
}
