package entities

import "github.com/shopspring/decimal"

func decimalFromQuantity(q Quantity) decimal.Decimal {
	return decimal.NewFromInt(int64(q))
}

// Decimal returns the quantity as a decimal for money arithmetic
func (q Quantity) Decimal() decimal.Decimal {
	return decimalFromQuantity(q)
}
