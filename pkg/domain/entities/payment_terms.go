package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedPaymentTerms is returned when payment terms are missing or of an unknown kind
var ErrMalformedPaymentTerms = errors.New("malformed payment terms")

var hundred = decimal.NewFromInt(100)

// PaymentTerms is a closed set of variants: CashTerms or InstallmentTerms.
// Consumers switch on the concrete type and treat anything else as malformed.
type PaymentTerms interface {
	paymentTerms()
	Summary() string
}

// CashTerms pays the full amount on the purchase date, optionally with a discount
type CashTerms struct {
	DiscountPercent decimal.Decimal
}

func (CashTerms) paymentTerms() {}

// Summary returns a short human-readable description
func (c CashTerms) Summary() string {
	if c.DiscountPercent.IsZero() {
		return "CASH"
	}
	return fmt.Sprintf("CASH %s%% discount", c.DiscountPercent.String())
}

// Installment is one scheduled payment: Percent of the total due DayOffset days after purchase
type Installment struct {
	DayOffset int
	Percent   decimal.Decimal
}

// InstallmentTerms spreads the amount over a payment schedule
type InstallmentTerms struct {
	Schedule []Installment
}

func (InstallmentTerms) paymentTerms() {}

// Summary returns a short human-readable description
func (i InstallmentTerms) Summary() string {
	parts := make([]string, 0, len(i.Schedule))
	for _, inst := range i.Schedule {
		parts = append(parts, fmt.Sprintf("%s%%@%dd", inst.Percent.String(), inst.DayOffset))
	}
	return "INSTALLMENTS " + strings.Join(parts, ", ")
}

// CashOutflow is a dated payment produced by applying payment terms to a purchase
type CashOutflow struct {
	Date   time.Time `json:"date"`
	Amount Money     `json:"amount"`
}

// ValidatePaymentTerms checks the variant-specific invariants
func ValidatePaymentTerms(terms PaymentTerms) error {
	switch t := terms.(type) {
	case CashTerms:
		if t.DiscountPercent.IsNegative() || t.DiscountPercent.GreaterThanOrEqual(hundred) {
			return fmt.Errorf("cash discount must be in [0, 100), got %s", t.DiscountPercent)
		}
		return nil
	case InstallmentTerms:
		if len(t.Schedule) == 0 {
			return fmt.Errorf("installment schedule cannot be empty")
		}
		total := decimal.Zero
		for _, inst := range t.Schedule {
			if inst.DayOffset < 0 {
				return fmt.Errorf("installment day offset cannot be negative, got %d", inst.DayOffset)
			}
			if !inst.Percent.IsPositive() {
				return fmt.Errorf("installment percent must be positive, got %s", inst.Percent)
			}
			total = total.Add(inst.Percent)
		}
		if !total.Equal(hundred) {
			return fmt.Errorf("installment percentages must sum to 100, got %s", total)
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrMalformedPaymentTerms, terms)
	}
}

// CashDiscountPercent returns the discount granted by the terms (zero for installments)
func CashDiscountPercent(terms PaymentTerms) (decimal.Decimal, error) {
	switch t := terms.(type) {
	case CashTerms:
		return t.DiscountPercent, nil
	case InstallmentTerms:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %T", ErrMalformedPaymentTerms, terms)
	}
}

// CashOutflows splits total into dated payments according to the terms.
// Installment rounding is absorbed by the last payment so the outflows always sum to total.
func CashOutflows(terms PaymentTerms, purchaseDate time.Time, total Money) ([]CashOutflow, error) {
	switch t := terms.(type) {
	case CashTerms:
		return []CashOutflow{{Date: purchaseDate, Amount: total}}, nil
	case InstallmentTerms:
		outflows := make([]CashOutflow, 0, len(t.Schedule))
		remaining := total
		for i, inst := range t.Schedule {
			amount := total.Mul(inst.Percent.Div(hundred)).round()
			if i == len(t.Schedule)-1 {
				amount = remaining
			}
			var err error
			remaining, err = remaining.Sub(amount)
			if err != nil {
				return nil, err
			}
			outflows = append(outflows, CashOutflow{
				Date:   purchaseDate.AddDate(0, 0, inst.DayOffset),
				Amount: amount,
			})
		}
		return outflows, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrMalformedPaymentTerms, terms)
	}
}

func (m Money) round() Money {
	return Money{amount: m.amount.Round(2), currency: m.currency}
}
