package entities

import (
	"fmt"
	"strings"
)

// Strategy is a named weighting scheme applied to the cost/value objective
type Strategy string

const (
	LowestCost       Strategy = "LOWEST_COST"
	PriorityWeighted Strategy = "PRIORITY_WEIGHTED"
	FastDelivery     Strategy = "FAST_DELIVERY"
	SmoothCashflow   Strategy = "SMOOTH_CASHFLOW"
	Balanced         Strategy = "BALANCED"
)

// AllStrategies lists every strategy in presentation order
func AllStrategies() []Strategy {
	return []Strategy{LowestCost, PriorityWeighted, FastDelivery, SmoothCashflow, Balanced}
}

// ParseStrategy accepts names case-insensitively, with '-' or '_' separators
func ParseStrategy(s string) (Strategy, error) {
	normalized := Strategy(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	for _, candidate := range AllStrategies() {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// Title returns a display name such as "Lowest Cost"
func (s Strategy) Title() string {
	words := strings.Split(strings.ToLower(string(s)), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
