package events

import (
	"time"

	"go.uber.org/zap"
)

const (
	RunStartedEvent        = "run.started"
	ProposalGeneratedEvent = "proposal.generated"
	RunCompletedEvent      = "run.completed"
	RunFailedEvent         = "run.failed"
)

// AllRunEvents lists every event type an optimization run emits
var AllRunEvents = []string{RunStartedEvent, ProposalGeneratedEvent, RunCompletedEvent, RunFailedEvent}

type RunStarted struct {
	SolverType string   `json:"solver_type"`
	Strategies []string `json:"strategies"`
}

type ProposalGenerated struct {
	Strategy   string        `json:"strategy"`
	Status     string        `json:"status"`
	ItemsCount int           `json:"items_count"`
	TotalCost  string        `json:"total_cost"`
	SolveTime  time.Duration `json:"solve_time"`
}

type RunCompleted struct {
	Status        string        `json:"status"`
	BestProposal  string        `json:"best_proposal"`
	ExecutionTime time.Duration `json:"execution_time"`
}

type RunFailed struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// LoggingHandler mirrors run events to a zap logger
type LoggingHandler struct {
	logger *zap.Logger
}

func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

func (h *LoggingHandler) CanHandle(eventType string) bool {
	for _, t := range AllRunEvents {
		if t == eventType {
			return true
		}
	}
	return false
}

func (h *LoggingHandler) Handle(event Event) error {
	fields := []zap.Field{
		zap.String("run_id", event.StreamID()),
		zap.Int("version", event.Version()),
	}

	switch data := event.Data().(type) {
	case RunStarted:
		fields = append(fields, zap.String("solver", data.SolverType), zap.Strings("strategies", data.Strategies))
	case ProposalGenerated:
		fields = append(fields,
			zap.String("strategy", data.Strategy),
			zap.String("status", data.Status),
			zap.Int("items", data.ItemsCount),
			zap.String("total_cost", data.TotalCost),
			zap.Duration("solve_time", data.SolveTime),
		)
	case RunCompleted:
		fields = append(fields,
			zap.String("status", data.Status),
			zap.String("best_proposal", data.BestProposal),
			zap.Duration("execution_time", data.ExecutionTime),
		)
	case RunFailed:
		fields = append(fields, zap.String("status", data.Status), zap.String("reason", data.Reason))
		h.logger.Warn("Run event", append(fields, zap.String("event", event.Type()))...)
		return nil
	}

	h.logger.Debug("Run event", append(fields, zap.String("event", event.Type()))...)
	return nil
}
