// Package pricing turns a cart subtotal into tax, discount and total.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

const PromoCode = "SAVE10"

var (
	TaxRate   = decimal.RequireFromString("0.08")
	PromoRate = decimal.RequireFromString("0.10")
)

// AcceptPromo reports whether code is the recognised promo code, ignoring
// case and surrounding whitespace.
func AcceptPromo(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), PromoCode)
}

// Summary is a priced cart. Values are unrounded.
type Summary struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	PromoApplied bool            `json:"promoApplied"`
}

// Compute prices a subtotal. Tax is charged on the full subtotal and the
// promo discount is taken off the taxed amount:
// total = subtotal + subtotal*TaxRate - subtotal*PromoRate.
func Compute(subtotal float64, promo string) Summary {
	s := Summary{
		Subtotal: decimal.NewFromFloat(subtotal),
		Discount: decimal.Zero,
	}
	s.Tax = s.Subtotal.Mul(TaxRate)
	if AcceptPromo(promo) {
		s.PromoApplied = true
		s.Discount = s.Subtotal.Mul(PromoRate)
	}
	s.Total = s.Subtotal.Add(s.Tax).Sub(s.Discount)
	return s
}

// Display is a Summary formatted to two decimals.
type Display struct {
	Subtotal     string `json:"subtotal"`
	Tax          string `json:"tax"`
	Discount     string `json:"discount"`
	Total        string `json:"total"`
	PromoApplied bool   `json:"promoApplied"`
}

func (s Summary) Display() Display {
	return Display{
		Subtotal:     s.Subtotal.StringFixed(2),
		Tax:          s.Tax.StringFixed(2),
		Discount:     s.Discount.StringFixed(2),
		Total:        s.Total.StringFixed(2),
		PromoApplied: s.PromoApplied,
	}
}

// Amounts returns subtotal, tax, discount and total as float64 for storage.
func (s Summary) Amounts() (subtotal, tax, discount, total float64) {
	return s.Subtotal.InexactFloat64(), s.Tax.InexactFloat64(),
		s.Discount.InexactFloat64(), s.Total.InexactFloat64()
}
