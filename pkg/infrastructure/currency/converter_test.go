package currency

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/domain/entities"
)

func TestStaticConverter_Convert(t *testing.T) {
	converter, err := NewStaticConverter("eur", map[string]float64{"usd": 0.5})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	converted, err := converter.Convert(entities.MustMoney(100, "USD"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if converted.String() != "50.00 EUR" {
		t.Errorf("Expected 50.00 EUR, got %s", converted)
	}

	same, err := converter.Convert(entities.MustMoney(10, "EUR"))
	if err != nil || same.String() != "10.00 EUR" {
		t.Errorf("Expected base currency to pass through, got %s (%v)", same, err)
	}

	if _, err := converter.Convert(entities.MustMoney(1, "GBP")); !errors.Is(err, ErrUnknownRate) {
		t.Errorf("Expected ErrUnknownRate, got %v", err)
	}
}

func TestTotal(t *testing.T) {
	converter, _ := NewStaticConverter("EUR", map[string]float64{"USD": 0.5})
	total, err := Total(converter, map[entities.CurrencyCode]decimal.Decimal{
		"EUR": decimal.NewFromInt(100),
		"USD": decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total.String() != "150.00 EUR" {
		t.Errorf("Expected 150.00 EUR, got %s", total)
	}
}

func TestNewStaticConverter_Validation(t *testing.T) {
	if _, err := NewStaticConverter("", nil); err == nil {
		t.Error("Expected error for empty base")
	}
	if _, err := NewStaticConverter("EUR", map[string]float64{"USD": 0}); err == nil {
		t.Error("Expected error for zero rate")
	}
}
