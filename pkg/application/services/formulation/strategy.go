package formulation

import (
	"fmt"
	"math"

	"github.com/vsinha/procure/pkg/application/services/loader"
	"github.com/vsinha/procure/pkg/domain/entities"
)

// weighting computes (costWeight, valueWeight) per variable for one strategy
type weighting struct {
	strategy        entities.Strategy
	ds              *loader.Dataset
	deliveryHorizon entities.TimeSlot
	purchaseHorizon entities.TimeSlot
}

func newWeighting(strategy entities.Strategy, vars []DecisionVar, ds *loader.Dataset) (*weighting, error) {
	switch strategy {
	case entities.LowestCost, entities.PriorityWeighted, entities.FastDelivery,
		entities.SmoothCashflow, entities.Balanced:
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}

	w := &weighting{strategy: strategy, ds: ds, deliveryHorizon: 1, purchaseHorizon: 1}
	for i := range vars {
		if vars[i].Key.DeliverySlot > w.deliveryHorizon {
			w.deliveryHorizon = vars[i].Key.DeliverySlot
		}
		if vars[i].PurchaseSlot > w.purchaseHorizon {
			w.purchaseHorizon = vars[i].PurchaseSlot
		}
	}
	return w, nil
}

func (w *weighting) weights(v *DecisionVar) (costWeight, valueWeight float64) {
	switch w.strategy {
	case entities.PriorityWeighted:
		return w.priority(v)
	case entities.FastDelivery:
		return 1, w.delivery(v)
	case entities.SmoothCashflow:
		return w.cashflow(v)
	case entities.Balanced:
		priorityCost, priorityValue := w.priority(v)
		return (priorityCost + 1) / 2, (priorityValue + w.delivery(v)) / 2
	default:
		return 1, 1
	}
}

// priority lowers the cost weight and raises the value weight with project priority (1..10)
func (w *weighting) priority(v *DecisionVar) (float64, float64) {
	p := float64(w.ds.Priority(v.Key.ProjectID))
	return 1.1 - p/20, 0.5 + p/10
}

// delivery gives earlier delivery slots up to 50% more value
func (w *weighting) delivery(v *DecisionVar) float64 {
	span := float64(w.deliveryHorizon - 1)
	if span < 1 {
		span = 1
	}
	return 1 + 0.5*float64(w.deliveryHorizon-v.Key.DeliverySlot)/span
}

// cashflow rewards purchases near the horizon midpoint and penalizes the extremes
func (w *weighting) cashflow(v *DecisionVar) (float64, float64) {
	mid := float64(1+w.purchaseHorizon) / 2
	halfSpan := mid - 1
	if halfSpan < 1 {
		halfSpan = 1
	}
	d := math.Abs(float64(v.PurchaseSlot)-mid) / halfSpan
	if d > 1 {
		d = 1
	}
	return 1 + 0.3*d, 1 + 0.3*(1-d)
}

func weightedRound(weight float64, amount int64) int64 {
	return int64(math.Round(weight * float64(amount)))
}
