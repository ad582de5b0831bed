package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/application/services/optimization"
	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/infrastructure/config"
)

// ServiceConfig maps the optimizer section of the configuration onto service defaults
func ServiceConfig(cfg config.OptimizerConfig) (optimization.Config, error) {
	serviceConfig := optimization.DefaultConfig()

	if cfg.SolverType != "" {
		solverType, err := entities.ParseSolverType(cfg.SolverType)
		if err != nil {
			return serviceConfig, fmt.Errorf("optimizer.solver_type: %w", err)
		}
		serviceConfig.SolverType = solverType
	}
	demandMode, err := entities.ParseDemandMode(cfg.DemandMode)
	if err != nil {
		return serviceConfig, fmt.Errorf("optimizer.demand_mode: %w", err)
	}
	serviceConfig.Formulation.DemandMode = demandMode

	if cfg.MaxTimeSlots > 0 {
		serviceConfig.Formulation.MaxTimeSlots = cfg.MaxTimeSlots
	}
	if cfg.AmountScale > 0 {
		serviceConfig.Formulation.AmountScale = cfg.AmountScale
	}
	if cfg.FallbackMarkup > 0 {
		serviceConfig.Formulation.FallbackMarkup = decimal.NewFromFloat(cfg.FallbackMarkup)
	}
	if cfg.MinPenalty > 0 {
		serviceConfig.Formulation.MinPenalty = cfg.MinPenalty
	}
	if cfg.SlackFloor > 0 {
		serviceConfig.Formulation.SlackFloor = cfg.SlackFloor
	}
	if cfg.TimeLimitSeconds > 0 {
		serviceConfig.TimeLimit = time.Duration(cfg.TimeLimitSeconds * float64(time.Second))
	}
	if cfg.Workers > 0 {
		serviceConfig.Workers = cfg.Workers
	}
	if cfg.SlotLengthDays > 0 {
		serviceConfig.SlotLengthDays = cfg.SlotLengthDays
	}
	return serviceConfig, nil
}
