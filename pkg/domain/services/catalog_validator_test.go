package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/domain/entities"
)

func newOption(t *testing.T, id entities.OptionID, code entities.ItemCode) *entities.ProcurementOption {
	t.Helper()
	option, err := entities.NewProcurementOption(id, code, "Acme", entities.MustMoney(100, "EUR"), decimal.Zero, 5, entities.CashTerms{})
	if err != nil {
		t.Fatalf("Failed to create option: %v", err)
	}
	return option
}

func TestCatalogValidator_ValidCatalog(t *testing.T) {
	items := []*entities.ProjectItem{{ProjectID: 1, ItemCode: "PUMP", Quantity: 1}}
	options := []*entities.ProcurementOption{newOption(t, 1, "PUMP"), newOption(t, 2, "PUMP")}

	result := NewCatalogValidator().ValidateCatalog(items, options)

	if !result.IsValid() {
		t.Errorf("Expected valid catalog, got errors: %v", result.Errors)
	}
	if len(result.OrphanedOptions) != 0 {
		t.Errorf("Expected no orphaned options, got %v", result.OrphanedOptions)
	}
}

func TestCatalogValidator_DetectDuplicateOptions(t *testing.T) {
	items := []*entities.ProjectItem{{ProjectID: 1, ItemCode: "PUMP", Quantity: 1}}
	options := []*entities.ProcurementOption{newOption(t, 7, "PUMP"), newOption(t, 7, "PUMP")}

	result := NewCatalogValidator().ValidateCatalog(items, options)

	if result.IsValid() {
		t.Error("Expected duplicate option ids to be reported as an error")
	}
	if len(result.DuplicateOptions) != 1 || result.DuplicateOptions[0] != 7 {
		t.Errorf("Expected duplicate option 7, got %v", result.DuplicateOptions)
	}
}

func TestCatalogValidator_DetectOrphanedOptions(t *testing.T) {
	items := []*entities.ProjectItem{{ProjectID: 1, ItemCode: "PUMP", Quantity: 1}}
	options := []*entities.ProcurementOption{newOption(t, 3, "VALVE"), newOption(t, 1, "PUMP"), newOption(t, 2, "GASKET")}

	result := NewCatalogValidator().ValidateCatalog(items, options)

	if !result.IsValid() {
		t.Errorf("Expected orphaned options to be warnings only, got errors: %v", result.Errors)
	}
	if len(result.OrphanedOptions) != 2 || result.OrphanedOptions[0] != 2 || result.OrphanedOptions[1] != 3 {
		t.Errorf("Expected orphaned options [2 3], got %v", result.OrphanedOptions)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected a warning for orphaned options")
	}
}

func TestCatalogValidator_InvalidPaymentTerms(t *testing.T) {
	items := []*entities.ProjectItem{{ProjectID: 1, ItemCode: "PUMP", Quantity: 1}}
	option := newOption(t, 1, "PUMP")
	option.PaymentTerms = entities.InstallmentTerms{Schedule: []entities.Installment{
		{DayOffset: 0, Percent: decimal.NewFromInt(50)},
	}}

	result := NewCatalogValidator().ValidateCatalog(items, []*entities.ProcurementOption{option})

	if result.IsValid() {
		t.Error("Expected installment schedule not summing to 100 to be an error")
	}
}

func TestCatalogValidator_DuplicateItems(t *testing.T) {
	items := []*entities.ProjectItem{
		{ProjectID: 1, ItemCode: "PUMP", Quantity: 1},
		{ProjectID: 1, ItemCode: "PUMP", Quantity: 2},
		{ProjectID: 2, ItemCode: "PUMP", Quantity: 1},
	}

	result := NewCatalogValidator().ValidateCatalog(items, []*entities.ProcurementOption{newOption(t, 1, "PUMP")})

	if len(result.DuplicateItems) != 1 {
		t.Errorf("Expected 1 duplicate item, got %v", result.DuplicateItems)
	}
}
