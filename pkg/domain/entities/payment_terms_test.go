package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type unknownTerms struct{}

func (unknownTerms) paymentTerms()   {}
func (unknownTerms) Summary() string { return "?" }

func TestPaymentTerms_Validation(t *testing.T) {
	testCases := []struct {
		name      string
		terms     PaymentTerms
		expectErr bool
	}{
		{"cash without discount", CashTerms{}, false},
		{"cash with discount", CashTerms{DiscountPercent: decimal.NewFromInt(2)}, false},
		{"cash discount of 100", CashTerms{DiscountPercent: decimal.NewFromInt(100)}, true},
		{"negative cash discount", CashTerms{DiscountPercent: decimal.NewFromInt(-1)}, true},
		{
			"installments summing to 100",
			InstallmentTerms{Schedule: []Installment{
				{DayOffset: 0, Percent: decimal.NewFromInt(30)},
				{DayOffset: 30, Percent: decimal.NewFromInt(70)},
			}},
			false,
		},
		{
			"installments summing to 90",
			InstallmentTerms{Schedule: []Installment{
				{DayOffset: 0, Percent: decimal.NewFromInt(30)},
				{DayOffset: 30, Percent: decimal.NewFromInt(60)},
			}},
			true,
		},
		{"empty schedule", InstallmentTerms{}, true},
		{"nil terms", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePaymentTerms(tc.terms)
			if tc.expectErr && err == nil {
				t.Errorf("Expected error for %s, but got none", tc.name)
			}
			if !tc.expectErr && err != nil {
				t.Errorf("Expected no error for %s, got %v", tc.name, err)
			}
		})
	}
}

func TestPaymentTerms_UnknownVariantIsMalformed(t *testing.T) {
	if _, err := CashDiscountPercent(unknownTerms{}); !errors.Is(err, ErrMalformedPaymentTerms) {
		t.Errorf("Expected ErrMalformedPaymentTerms, got %v", err)
	}
	if _, err := CashOutflows(unknownTerms{}, time.Now(), MustMoney(1, "EUR")); !errors.Is(err, ErrMalformedPaymentTerms) {
		t.Errorf("Expected ErrMalformedPaymentTerms, got %v", err)
	}
}

func TestCashOutflows(t *testing.T) {
	purchase := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	total := MustMoney(1000, "EUR")

	cash, err := CashOutflows(CashTerms{}, purchase, total)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(cash) != 1 || !cash[0].Date.Equal(purchase) || !cash[0].Amount.Amount().Equal(total.Amount()) {
		t.Errorf("Expected single outflow of %s on purchase date, got %+v", total, cash)
	}

	terms := InstallmentTerms{Schedule: []Installment{
		{DayOffset: 0, Percent: decimal.RequireFromString("33.33")},
		{DayOffset: 30, Percent: decimal.RequireFromString("33.33")},
		{DayOffset: 60, Percent: decimal.RequireFromString("33.34")},
	}}
	odd := MustMoney(100.01, "EUR")
	outflows, err := CashOutflows(terms, purchase, odd)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(outflows) != 3 {
		t.Fatalf("Expected 3 outflows, got %d", len(outflows))
	}

	sum := ZeroMoney("EUR")
	for _, o := range outflows {
		sum, _ = sum.Add(o.Amount)
	}
	if !sum.Amount().Equal(odd.Amount()) {
		t.Errorf("Expected outflows to sum to %s, got %s", odd, sum)
	}
	if !outflows[2].Date.Equal(purchase.AddDate(0, 0, 60)) {
		t.Errorf("Expected last outflow 60 days after purchase, got %s", outflows[2].Date)
	}
}

func TestProcurementOption_EffectiveUnitCost(t *testing.T) {
	option, err := NewProcurementOption(1, "PUMP", "Acme", MustMoney(100, "EUR"), decimal.NewFromInt(5), 10,
		CashTerms{DiscountPercent: decimal.NewFromInt(10)})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	option.BundleThreshold = 10
	option.BundleDiscountPercent = decimal.NewFromInt(20)

	testCases := []struct {
		name     string
		quantity Quantity
		expected string
	}{
		// 100 * 0.9 + 5
		{"below bundle threshold", 5, "95"},
		// 100 * 0.9 * 0.8 + 5
		{"at bundle threshold", 10, "77"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cost, err := option.EffectiveUnitCost(tc.quantity)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !cost.Amount().Equal(decimal.RequireFromString(tc.expected)) {
				t.Errorf("Expected %s, got %s", tc.expected, cost.Amount())
			}
			if cost.Currency() != "EUR" {
				t.Errorf("Expected EUR, got %s", cost.Currency())
			}
		})
	}

	installments, _ := NewProcurementOption(2, "PUMP", "Beta", MustMoney(100, "EUR"), decimal.Zero, 10,
		InstallmentTerms{Schedule: []Installment{{DayOffset: 0, Percent: decimal.NewFromInt(100)}}})
	cost, err := installments.EffectiveUnitCost(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cost.Amount().Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected installments to carry no discount, got %s", cost.Amount())
	}
}

func TestProcurementOption_Validation(t *testing.T) {
	testCases := []struct {
		name        string
		id          OptionID
		itemCode    ItemCode
		cost        Money
		lead        int
		expectError string
	}{
		{"zero id", 0, "PUMP", MustMoney(1, "EUR"), 1, "option id must be positive, got 0"},
		{"empty item code", 1, "", MustMoney(1, "EUR"), 1, "item code cannot be empty"},
		{"negative cost", 1, "PUMP", MustMoney(-1, "EUR"), 1, "cost cannot be negative, got -1.00 EUR"},
		{"negative lead time", 1, "PUMP", MustMoney(1, "EUR"), -2, "lead time cannot be negative, got -2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProcurementOption(tc.id, tc.itemCode, "Acme", tc.cost, decimal.Zero, tc.lead, CashTerms{})
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestDecision_Validation(t *testing.T) {
	option, _ := NewProcurementOption(1, "PUMP", "Acme", MustMoney(100, "EUR"), decimal.Zero, 10, CashTerms{})
	ref := ItemRef{ProjectID: 1, ItemCode: "PUMP"}
	purchase := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	delivery := purchase.AddDate(0, 0, 10)

	decision, err := NewDecision(ref, option, 1, 2, purchase, delivery, 3, MustMoney(100, "EUR"))
	if err != nil {
		t.Fatalf("Expected valid decision creation to succeed: %v", err)
	}
	if decision.FinalCost.String() != "300.00 EUR" {
		t.Errorf("Expected final cost 300.00 EUR, got %s", decision.FinalCost)
	}
	if decision.PaymentTerms != "CASH" {
		t.Errorf("Expected payment terms CASH, got %s", decision.PaymentTerms)
	}
	if len(decision.CashOutflows) != 1 {
		t.Errorf("Expected 1 cash outflow, got %d", len(decision.CashOutflows))
	}

	if _, err := NewDecision(ref, option, 0, 2, purchase, delivery, 1, MustMoney(100, "EUR")); err == nil {
		t.Error("Expected error for purchase slot 0")
	}
	if _, err := NewDecision(ref, option, 1, 2, delivery, purchase, 1, MustMoney(100, "EUR")); err == nil {
		t.Error("Expected error for purchase after delivery")
	}
	if _, err := NewDecision(ref, option, 1, 2, purchase, delivery, 1, MustMoney(100, "USD")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestParsePaymentTerms(t *testing.T) {
	testCases := []struct {
		input     string
		expected  string
		expectErr bool
	}{
		{"cash", "CASH", false},
		{"", "CASH", false},
		{"CASH:2.5", "CASH 2.5% discount", false},
		{"installments:0=30;30=70", "INSTALLMENTS 30%@0d, 70%@30d", false},
		{"installments:0=30;30=60", "", true},
		{"installments:0-30", "", true},
		{"cash:abc", "", true},
		{"barter", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			terms, err := ParsePaymentTerms(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for %q, but got none", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for %q: %v", tc.input, err)
			}
			if terms.Summary() != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, terms.Summary())
			}
		})
	}
}
