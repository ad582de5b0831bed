package entities

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePaymentTerms reads the textual form used by scenario files:
// "cash", "cash:2.5" (discount percent) or "installments:0=30;30=70" (day offset=percent).
// The result is validated.
func ParsePaymentTerms(s string) (PaymentTerms, error) {
	kind, args, _ := strings.Cut(strings.TrimSpace(s), ":")

	var terms PaymentTerms
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "cash":
		cash := CashTerms{}
		if args = strings.TrimSpace(args); args != "" {
			discount, err := decimal.NewFromString(args)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid cash discount %q", ErrMalformedPaymentTerms, args)
			}
			cash.DiscountPercent = discount
		}
		terms = cash

	case "installments":
		var schedule []Installment
		for _, part := range strings.Split(args, ";") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			dayStr, percentStr, ok := strings.Cut(part, "=")
			if !ok {
				return nil, fmt.Errorf("%w: installment %q must be day=percent", ErrMalformedPaymentTerms, part)
			}
			day, err := strconv.Atoi(strings.TrimSpace(dayStr))
			if err != nil {
				return nil, fmt.Errorf("%w: invalid installment day %q", ErrMalformedPaymentTerms, dayStr)
			}
			percent, err := decimal.NewFromString(strings.TrimSpace(percentStr))
			if err != nil {
				return nil, fmt.Errorf("%w: invalid installment percent %q", ErrMalformedPaymentTerms, percentStr)
			}
			schedule = append(schedule, Installment{DayOffset: day, Percent: percent})
		}
		terms = InstallmentTerms{Schedule: schedule}

	default:
		return nil, fmt.Errorf("%w: unknown payment terms %q (expected cash or installments)", ErrMalformedPaymentTerms, kind)
	}

	if err := ValidatePaymentTerms(terms); err != nil {
		return nil, err
	}
	return terms, nil
}
