package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OptionID identifies a procurement option
type OptionID int64

// ProcurementOption is a supplier quote for an item
type ProcurementOption struct {
	ID                    OptionID
	ItemCode              ItemCode
	SupplierName          string
	Cost                  Money           // per unit
	ShippingCost          decimal.Decimal // per unit, in Cost's currency
	LeadTimeDays          int
	BundleThreshold       Quantity
	BundleDiscountPercent decimal.Decimal
	PaymentTerms          PaymentTerms
	QuotedDeliveryDate    *time.Time // fixed delivery date promised by the supplier, if any
	Finalized             bool
	Active                bool
}

// NewProcurementOption creates a validated ProcurementOption
func NewProcurementOption(
	id OptionID,
	itemCode ItemCode,
	supplierName string,
	cost Money,
	shippingCost decimal.Decimal,
	leadTimeDays int,
	terms PaymentTerms,
) (*ProcurementOption, error) {
	if id <= 0 {
		return nil, fmt.Errorf("option id must be positive, got %d", id)
	}
	if itemCode == "" {
		return nil, fmt.Errorf("item code cannot be empty")
	}
	if cost.Currency() == "" {
		return nil, fmt.Errorf("cost currency cannot be empty")
	}
	if cost.IsNegative() {
		return nil, fmt.Errorf("cost cannot be negative, got %s", cost)
	}
	if shippingCost.IsNegative() {
		return nil, fmt.Errorf("shipping cost cannot be negative, got %s", shippingCost)
	}
	if leadTimeDays < 0 {
		return nil, fmt.Errorf("lead time cannot be negative, got %d", leadTimeDays)
	}
	if err := ValidatePaymentTerms(terms); err != nil {
		return nil, err
	}
	return &ProcurementOption{
		ID:           id,
		ItemCode:     itemCode,
		SupplierName: supplierName,
		Cost:         cost,
		ShippingCost: shippingCost,
		LeadTimeDays: leadTimeDays,
		PaymentTerms: terms,
		Finalized:    true,
		Active:       true,
	}, nil
}

// Currency returns the currency every amount of this option is expressed in
func (o *ProcurementOption) Currency() CurrencyCode {
	return o.Cost.Currency()
}

// Eligible reports whether the option may be used as optimization input
func (o *ProcurementOption) Eligible() bool {
	return o.Finalized && o.Active
}

// EffectiveUnitCost is the unit cost after discounts plus shipping.
// The cash discount (Cash terms only) and the bundle discount (quantity at or above
// the threshold) both apply to the base cost; shipping is never discounted.
func (o *ProcurementOption) EffectiveUnitCost(quantity Quantity) (Money, error) {
	discount, err := CashDiscountPercent(o.PaymentTerms)
	if err != nil {
		return Money{}, fmt.Errorf("option %d: %w", o.ID, err)
	}

	factor := decimal.NewFromInt(1).Sub(discount.Div(hundred))
	if o.BundleThreshold > 0 && quantity >= o.BundleThreshold {
		factor = factor.Mul(decimal.NewFromInt(1).Sub(o.BundleDiscountPercent.Div(hundred)))
	}

	unit := o.Cost.Mul(factor)
	shipping, err := NewMoney(o.ShippingCost, o.Currency())
	if err != nil {
		return Money{}, err
	}
	return unit.Add(shipping)
}
