package optimization

import (
	"runtime"
	"time"

	"github.com/vsinha/procure/pkg/application/services/formulation"
	"github.com/vsinha/procure/pkg/domain/entities"
)

// DefaultTimeLimit bounds each solve when the request does not
const DefaultTimeLimit = 30 * time.Second

// Config holds defaults the service applies to incomplete requests
type Config struct {
	Formulation    formulation.Config
	SolverType     entities.SolverType
	TimeLimit      time.Duration
	Workers        int
	SlotLengthDays int
}

// DefaultConfig returns the service defaults
func DefaultConfig() Config {
	return Config{
		Formulation:    formulation.DefaultConfig(),
		SolverType:     entities.SolverCP,
		TimeLimit:      DefaultTimeLimit,
		Workers:        runtime.GOMAXPROCS(0),
		SlotLengthDays: 1,
	}
}

// Recorder receives run metrics. The Prometheus recorder satisfies it.
type Recorder interface {
	RunFinished(status string)
	SolveFinished(solver, strategy, status string, elapsed time.Duration)
	ModelBuilt(strategy string, variables int)
	ProposalGenerated(strategy, status string)
	ValidationFailed(kind string)
	InvariantViolated(solver, kind string)
}

type nopRecorder struct{}

func (nopRecorder) RunFinished(string)                                  {}
func (nopRecorder) SolveFinished(string, string, string, time.Duration) {}
func (nopRecorder) ModelBuilt(string, int)                              {}
func (nopRecorder) ProposalGenerated(string, string)                    {}
func (nopRecorder) ValidationFailed(string)                             {}
func (nopRecorder) InvariantViolated(string, string)                    {}
