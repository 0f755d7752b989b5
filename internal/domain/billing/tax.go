package billing

import (
	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
)

// DefaultTaxRate is the standard VAT rate in percent, applied to new
// quotations that do not set one. Overridable at startup via config.
var DefaultTaxRate = decimal.NewFromInt(18)

// ValidateTaxRate checks that a tax rate percentage is usable. There
// is no upper bound: levies above 100% are unusual but legitimate.
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return shared.NewValidationError("tax_rate", "cannot be negative")
	}
	return nil
}

// ComputeTax returns the tax amount for a taxable base at the given
// percentage rate, rounded to whole currency units.
func ComputeTax(base valueobject.Money, rate decimal.Decimal) valueobject.Money {
	return base.Mul(rate.Div(decimal.NewFromInt(100))).RoundToUnit()
}
