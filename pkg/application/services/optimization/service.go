package optimization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/procure/pkg/application/dto"
	"github.com/vsinha/procure/pkg/application/services/dependency"
	"github.com/vsinha/procure/pkg/application/services/extraction"
	"github.com/vsinha/procure/pkg/application/services/formulation"
	"github.com/vsinha/procure/pkg/application/services/loader"
	"github.com/vsinha/procure/pkg/application/services/solver"
	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/repositories"
	"github.com/vsinha/procure/pkg/infrastructure/currency"
	"github.com/vsinha/procure/pkg/infrastructure/events"
	"github.com/vsinha/procure/pkg/infrastructure/logging"
)

// Service runs the full pipeline: load, analyze, then build, solve and extract per strategy
type Service struct {
	catalog   repositories.Catalog
	config    Config
	results   repositories.ResultRepository
	journal   events.EventStore
	metrics   Recorder
	converter currency.Converter
	analyzer  *dependency.Analyzer
	logger    *zap.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithResultRepository persists the best proposal of every successful run
func WithResultRepository(results repositories.ResultRepository) Option {
	return func(s *Service) { s.results = results }
}

// WithJournal records run events
func WithJournal(journal events.EventStore) Option {
	return func(s *Service) { s.journal = journal }
}

// WithMetrics reports run metrics
func WithMetrics(recorder Recorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithConverter enables the display total in a base currency
func WithConverter(converter currency.Converter) Option {
	return func(s *Service) { s.converter = converter }
}

// WithLogger sets the logger every run derives from
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates an optimization service over a catalog
func NewService(catalog repositories.Catalog, config Config, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog,
		config:   config,
		metrics:  nopRecorder{},
		analyzer: dependency.NewAnalyzer(dependency.DefaultTopCentral),
		logger:   logging.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one optimization request. It never returns an error: validation problems,
// infeasibility and unexpected failures are all reported through the response status.
func (s *Service) Run(ctx context.Context, req dto.OptimizationRequest) (resp *dto.OptimizationResponse) {
	start := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	ctx = logging.WithContext(ctx, logger)

	resp = &dto.OptimizationResponse{
		RunID:     runID,
		Proposals: []entities.Proposal{},
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Optimization run panicked", zap.Any("panic", r), zap.Stack("stack"))
			s.fail(runID, resp, dto.RunError, fmt.Sprintf("Optimization failed with an internal error: %v", r))
		}
		resp.ExecutionTimeSeconds = time.Since(start).Seconds()
		s.metrics.RunFinished(string(resp.Status))
		logger.Info("Optimization run finished",
			zap.String("status", string(resp.Status)),
			zap.Float64("execution_time_seconds", resp.ExecutionTimeSeconds),
		)
	}()

	req = s.applyDefaults(req)
	if err := s.execute(ctx, runID, start, req, resp); err != nil {
		logger.Error("Optimization run failed", zap.Error(err))
		s.fail(runID, resp, dto.RunError, fmt.Sprintf("Optimization failed: %v", err))
	}
	return resp
}

func (s *Service) applyDefaults(req dto.OptimizationRequest) dto.OptimizationRequest {
	if req.MaxTimeSlots <= 0 {
		req.MaxTimeSlots = s.config.Formulation.MaxTimeSlots
	}
	if req.TimeLimitSeconds <= 0 {
		req.TimeLimitSeconds = s.config.TimeLimit.Seconds()
	}
	if req.SolverType == "" {
		req.SolverType = s.config.SolverType
	}
	if req.DemandMode == "" {
		req.DemandMode = s.config.Formulation.DemandMode
	}

	seen := make(map[entities.Strategy]bool, len(req.Strategies))
	strategies := make([]entities.Strategy, 0, len(req.Strategies))
	for _, strategy := range req.Strategies {
		if !seen[strategy] {
			seen[strategy] = true
			strategies = append(strategies, strategy)
		}
	}
	if len(strategies) == 0 {
		strategies = []entities.Strategy{entities.LowestCost}
	}
	req.Strategies = strategies
	return req
}

func (s *Service) execute(
	ctx context.Context,
	runID string,
	start time.Time,
	req dto.OptimizationRequest,
	resp *dto.OptimizationResponse,
) error {
	logger := logging.FromContext(ctx)

	strategyNames := make([]string, 0, len(req.Strategies))
	for _, strategy := range req.Strategies {
		strategyNames = append(strategyNames, string(strategy))
	}
	s.record(runID, events.RunStartedEvent, events.RunStarted{
		SolverType: string(req.SolverType),
		Strategies: strategyNames,
	})
	logger.Info("Starting optimization run",
		zap.String("solver", string(req.SolverType)),
		zap.Strings("strategies", strategyNames),
		zap.Int("max_time_slots", req.MaxTimeSlots),
		zap.Float64("time_limit_seconds", req.TimeLimitSeconds),
		zap.String("demand_mode", string(req.DemandMode)),
	)

	slv, err := solver.New(req.SolverType, solver.Options{Workers: s.config.Workers})
	if err != nil {
		return err
	}

	ds, err := loader.NewDataLoader(s.catalog, s.config.SlotLengthDays).Load(ctx, loader.Filter{
		ProjectIDs: req.ProjectIDs,
		Window:     req.Window,
	})
	var validationErr *loader.ValidationError
	if errors.As(err, &validationErr) {
		logger.Warn("Data validation failed",
			zap.String("kind", string(validationErr.Kind)),
			zap.String("reason", validationErr.Message),
		)
		s.metrics.ValidationFailed(string(validationErr.Kind))
		s.fail(runID, resp, dto.RunValidationFailed,
			fmt.Sprintf("%s. %s", validationErr.Message, validationErr.Remediation))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	// Informational only; a failure never aborts the run
	analysis, err := s.analyzer.Analyze(ctx, ds.Items, ds.Options)
	if err != nil {
		logger.Warn("Dependency analysis failed", zap.Error(err))
	} else {
		resp.DependencyAnalysis = analysis
	}

	cfg := s.config.Formulation
	cfg.MaxTimeSlots = req.MaxTimeSlots
	cfg.DemandMode = req.DemandMode

	anySolution, allErrored := false, true
	for _, strategy := range req.Strategies {
		proposal, err := s.runStrategy(ctx, runID, ds, cfg, slv, strategy, req.TimeLimit())
		if err != nil {
			return fmt.Errorf("strategy %s: %w", strategy, err)
		}
		if proposal.Status.HasSolution() {
			anySolution = true
		}
		if proposal.Status != entities.StatusError {
			allErrored = false
		}
		resp.Proposals = append(resp.Proposals, *proposal)
	}

	best := extraction.SelectBest(resp.Proposals)
	switch {
	case best != nil:
		resp.Status = dto.RunCompleted
		resp.BestProposal = best.Name
		resp.TotalCost = best.TotalCost
		resp.ItemsOptimized = best.ItemsCount
		resp.Message = fmt.Sprintf("Best proposal %s procures %d of %d items",
			best.Name, best.ItemsCount, len(ds.Items))
		s.displayTotal(ctx, best, resp)
	case anySolution:
		resp.Status = dto.RunCompleted
		resp.Message = "No item is worth procuring under the current budgets; every proposal is empty"
	case allErrored:
		resp.Status = dto.RunError
		resp.Message = "Every strategy failed in the solver. " + hintText(resp.Proposals)
		logger.Error("Every strategy failed in the solver", zap.Int("strategies", len(req.Strategies)))
	default:
		resp.Status = dto.RunInfeasible
		resp.Message = "No feasible procurement plan found. " + hintText(resp.Proposals)
		logger.Warn("Every strategy is infeasible", zap.Int("strategies", len(req.Strategies)))
	}

	if best != nil {
		s.save(ctx, runID, start, best, resp)
		logger.Info("Best proposal selected",
			zap.String("proposal", best.Name),
			zap.Int("items", best.ItemsCount),
			zap.String("total_cost", best.TotalCost.StringFixed(2)),
		)
	}

	s.record(runID, events.RunCompletedEvent, events.RunCompleted{
		Status:        string(resp.Status),
		BestProposal:  resp.BestProposal,
		ExecutionTime: time.Since(start),
	})
	return nil
}

func (s *Service) runStrategy(
	ctx context.Context,
	runID string,
	ds *loader.Dataset,
	cfg formulation.Config,
	slv solver.Solver,
	strategy entities.Strategy,
	timeLimit time.Duration,
) (*entities.Proposal, error) {
	logger := logging.FromContext(ctx).With(zap.String("strategy", string(strategy)))

	model, err := formulation.Build(ds, cfg, strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	s.metrics.ModelBuilt(string(strategy), len(model.Vars))
	logger.Info("Model built",
		zap.Int("variables", len(model.Vars)),
		zap.Int("slacks", len(model.Slacks)),
		zap.Int("constraints", len(model.Constraints)),
		zap.Int64("penalty", model.Penalty),
	)

	solution, err := slv.Solve(ctx, model, timeLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to solve: %w", err)
	}
	s.metrics.SolveFinished(string(slv.Type()), string(strategy), string(solution.Status), solution.WallTime)
	for _, v := range solution.Violations {
		s.metrics.InvariantViolated(string(slv.Type()), string(v.Kind))
	}
	logger.Info("Solve finished",
		zap.String("status", string(solution.Status)),
		zap.Duration("wall_time", solution.WallTime),
		zap.Int64("objective", solution.Objective),
		zap.Bool("timed_out", solution.TimedOut),
		zap.Int("violations", len(solution.Violations)),
	)
	if !solution.Status.HasSolution() {
		logger.Warn("Strategy has no feasible solution", zap.String("reason", solution.Message))
	}

	decisions, err := extraction.Extract(model, solution, ds)
	if err != nil {
		return nil, err
	}
	proposal := extraction.BuildProposal(strategy, model, solution, decisions, ds)

	s.metrics.ProposalGenerated(string(strategy), string(proposal.Status))
	s.record(runID, events.ProposalGeneratedEvent, events.ProposalGenerated{
		Strategy:   string(strategy),
		Status:     string(proposal.Status),
		ItemsCount: proposal.ItemsCount,
		TotalCost:  proposal.TotalCost.StringFixed(2),
		SolveTime:  solution.WallTime,
	})
	return proposal, nil
}

func (s *Service) displayTotal(ctx context.Context, best *entities.Proposal, resp *dto.OptimizationResponse) {
	if s.converter == nil {
		return
	}
	total, err := currency.Total(s.converter, best.CostByCurrency)
	if err != nil {
		logging.FromContext(ctx).Warn("Cannot compute display total", zap.Error(err))
		return
	}
	resp.DisplayTotalCost = &total
}

func (s *Service) save(
	ctx context.Context,
	runID string,
	start time.Time,
	best *entities.Proposal,
	resp *dto.OptimizationResponse,
) {
	if s.results == nil {
		return
	}
	run := &entities.OptimizationRun{
		RunID:         runID,
		Status:        string(resp.Status),
		StartedAt:     start,
		ExecutionTime: time.Since(start),
		Message:       resp.Message,
		Best:          best,
		Proposals:     resp.Proposals,
	}
	if err := s.results.SaveRun(ctx, run); err != nil {
		logging.FromContext(ctx).Error("Failed to persist optimization run", zap.Error(err))
	}
}

func (s *Service) fail(runID string, resp *dto.OptimizationResponse, status dto.RunStatus, message string) {
	resp.Status = status
	resp.Message = message
	s.record(runID, events.RunFailedEvent, events.RunFailed{Status: string(status), Reason: message})
}

func (s *Service) record(runID, eventType string, data any) {
	if s.journal == nil {
		return
	}
	if err := s.journal.AppendEvent(runID, events.NewEvent(eventType, runID, data)); err != nil {
		s.logger.Warn("Failed to record run event", zap.String("event", eventType), zap.Error(err))
	}
}

func hintText(proposals []entities.Proposal) string {
	seen := make(map[string]bool)
	var hints []string
	for _, p := range proposals {
		for _, note := range p.SummaryNotes {
			if strings.HasPrefix(note, "Hint: ") && !seen[note] {
				seen[note] = true
				hints = append(hints, strings.TrimPrefix(note, "Hint: "))
			}
		}
	}
	return strings.Join(hints, "; ")
}
