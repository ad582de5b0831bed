package entities

import (
	"fmt"
	"time"
)

// DecisionStatus is the lifecycle state of a persisted procurement decision
type DecisionStatus string

const (
	DecisionLocked   DecisionStatus = "LOCKED"
	DecisionProposed DecisionStatus = "PROPOSED"
	DecisionReverted DecisionStatus = "REVERTED"
)

// ExcludesFromOptimization reports whether an item carrying this status is already decided
func (s DecisionStatus) ExcludesFromOptimization() bool {
	return s == DecisionLocked || s == DecisionProposed
}

// FinalizedDecision is a decision recorded by an earlier run or by a planner
type FinalizedDecision struct {
	ProjectID ProjectID
	ItemCode  ItemCode
	OptionID  OptionID
	Status    DecisionStatus
}

// Decision is one concrete "buy this item via this option" instruction
type Decision struct {
	ProjectID           ProjectID     `json:"project_id"`
	ItemCode            ItemCode      `json:"item_code"`
	ProcurementOptionID OptionID      `json:"procurement_option_id"`
	SupplierName        string        `json:"supplier_name"`
	PurchaseSlot        TimeSlot      `json:"purchase_slot"`
	DeliverySlot        TimeSlot      `json:"delivery_slot"`
	PurchaseDate        time.Time     `json:"purchase_date"`
	DeliveryDate        time.Time     `json:"delivery_date"`
	Quantity            Quantity      `json:"quantity"`
	UnitCost            Money         `json:"unit_cost"`
	FinalCost           Money         `json:"final_cost"`
	PaymentTerms        string        `json:"payment_terms"`
	CashOutflows        []CashOutflow `json:"cash_outflows,omitempty"`
}

// NewDecision creates a validated Decision
func NewDecision(
	ref ItemRef,
	option *ProcurementOption,
	purchaseSlot, deliverySlot TimeSlot,
	purchaseDate, deliveryDate time.Time,
	quantity Quantity,
	unitCost Money,
) (*Decision, error) {
	if option == nil {
		return nil, fmt.Errorf("procurement option cannot be nil")
	}
	if purchaseSlot < 1 {
		return nil, fmt.Errorf("purchase slot must be at least 1, got %d", purchaseSlot)
	}
	if purchaseDate.After(deliveryDate) {
		return nil, fmt.Errorf("purchase date %s cannot be after delivery date %s",
			purchaseDate.Format("2006-01-02"), deliveryDate.Format("2006-01-02"))
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if unitCost.Currency() != option.Currency() {
		return nil, fmt.Errorf("%w: unit cost in %s for option priced in %s",
			ErrCurrencyMismatch, unitCost.Currency(), option.Currency())
	}

	finalCost := unitCost.Mul(decimalFromQuantity(quantity))
	outflows, err := CashOutflows(option.PaymentTerms, purchaseDate, finalCost)
	if err != nil {
		return nil, err
	}

	return &Decision{
		ProjectID:           ref.ProjectID,
		ItemCode:            ref.ItemCode,
		ProcurementOptionID: option.ID,
		SupplierName:        option.SupplierName,
		PurchaseSlot:        purchaseSlot,
		DeliverySlot:        deliverySlot,
		PurchaseDate:        purchaseDate,
		DeliveryDate:        deliveryDate,
		Quantity:            quantity,
		UnitCost:            unitCost,
		FinalCost:           finalCost,
		PaymentTerms:        option.PaymentTerms.Summary(),
		CashOutflows:        outflows,
	}, nil
}

// Ref returns the (project, item) identity of the decision
func (d Decision) Ref() ItemRef {
	return ItemRef{ProjectID: d.ProjectID, ItemCode: d.ItemCode}
}
