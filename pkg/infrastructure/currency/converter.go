package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// ErrUnknownRate is returned when no rate is configured for a currency
var ErrUnknownRate = errors.New("unknown exchange rate")

// Converter converts amounts into a display currency.
// Conversions are for reporting only and never used for budget feasibility.
type Converter interface {
	Base() entities.CurrencyCode
	Convert(amount entities.Money) (entities.Money, error)
}

// StaticConverter converts with fixed rates, expressed as base units per foreign unit
type StaticConverter struct {
	base  entities.CurrencyCode
	rates map[entities.CurrencyCode]decimal.Decimal
}

// Verify interface compliance
var _ Converter = (*StaticConverter)(nil)

// NewStaticConverter creates a converter from configured rates
func NewStaticConverter(base string, rates map[string]float64) (*StaticConverter, error) {
	if base == "" {
		return nil, fmt.Errorf("base currency cannot be empty")
	}
	converter := &StaticConverter{
		base:  normalize(base),
		rates: make(map[entities.CurrencyCode]decimal.Decimal, len(rates)),
	}
	for code, rate := range rates {
		if rate <= 0 {
			return nil, fmt.Errorf("rate for %s must be positive, got %v", code, rate)
		}
		converter.rates[normalize(code)] = decimal.NewFromFloat(rate)
	}
	return converter, nil
}

// Base returns the display currency
func (c *StaticConverter) Base() entities.CurrencyCode {
	return c.base
}

// Convert returns amount expressed in the base currency
func (c *StaticConverter) Convert(amount entities.Money) (entities.Money, error) {
	if amount.Currency() == c.base {
		return amount, nil
	}
	rate, ok := c.rates[amount.Currency()]
	if !ok {
		return entities.Money{}, fmt.Errorf("%w: %s to %s", ErrUnknownRate, amount.Currency(), c.base)
	}
	return entities.NewMoney(amount.Amount().Mul(rate).Round(2), c.base)
}

// Total converts a per-currency breakdown and sums it in the base currency
func Total(c Converter, byCurrency map[entities.CurrencyCode]decimal.Decimal) (entities.Money, error) {
	total := entities.ZeroMoney(c.Base())
	for code, amount := range byCurrency {
		money, err := entities.NewMoney(amount, code)
		if err != nil {
			return entities.Money{}, err
		}
		converted, err := c.Convert(money)
		if err != nil {
			return entities.Money{}, err
		}
		if total, err = total.Add(converted); err != nil {
			return entities.Money{}, err
		}
	}
	return total, nil
}

func normalize(code string) entities.CurrencyCode {
	return entities.CurrencyCode(strings.ToUpper(strings.TrimSpace(code)))
}
