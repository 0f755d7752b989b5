package billing

import (
	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
)

// DiscountMode determines how a document-level discount is interpreted
type DiscountMode string

const (
	DiscountNone       DiscountMode = "none"
	DiscountPercentage DiscountMode = "percentage"
	DiscountFixed      DiscountMode = "fixed"
)

// IsValid checks if the discount mode is valid
func (m DiscountMode) IsValid() bool {
	switch m {
	case DiscountNone, DiscountPercentage, DiscountFixed:
		return true
	}
	return false
}

// Discount is a document-level reduction applied to the subtotal
// before tax. A percentage discount is expressed in [0, 100]; a fixed
// discount is an absolute amount in the document currency.
type Discount struct {
	Mode  DiscountMode    `gorm:"type:varchar(20);not null;default:'none'" json:"mode"`
	Value decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0" json:"value"`
}

// NoDiscount returns the empty discount
func NoDiscount() Discount {
	return Discount{Mode: DiscountNone, Value: decimal.Zero}
}

// NewDiscount creates a validated discount
func NewDiscount(mode DiscountMode, value decimal.Decimal) (Discount, error) {
	if !mode.IsValid() {
		return Discount{}, shared.NewValidationError("discount_mode", "must be one of none, percentage, fixed")
	}
	if value.IsNegative() {
		return Discount{}, shared.NewValidationError("discount_value", "cannot be negative")
	}
	switch mode {
	case DiscountNone:
		if !value.IsZero() {
			return Discount{}, shared.NewValidationError("discount_value", "must be zero when mode is none")
		}
	case DiscountPercentage:
		if value.GreaterThan(decimal.NewFromInt(100)) {
			return Discount{}, shared.NewValidationError("discount_value", "percentage cannot exceed 100")
		}
	}
	return Discount{Mode: mode, Value: value}, nil
}

// AmountOn computes the discount amount for the given subtotal,
// rounded to whole currency units. A fixed discount larger than the
// subtotal is rejected rather than clamped.
func (d Discount) AmountOn(subtotal valueobject.Money) (valueobject.Money, error) {
	switch d.Mode {
	case DiscountNone:
		return valueobject.ZeroIn(subtotal.Currency), nil
	case DiscountPercentage:
		amount := subtotal.Mul(d.Value.Div(decimal.NewFromInt(100)))
		return amount.RoundToUnit(), nil
	case DiscountFixed:
		fixed := valueobject.NewMoney(d.Value, subtotal.Currency).RoundToUnit()
		if fixed.Cmp(subtotal) > 0 {
			return valueobject.Money{}, shared.NewValidationError("discount_value", "fixed discount cannot exceed subtotal")
		}
		return fixed, nil
	default:
		return valueobject.Money{}, shared.NewValidationError("discount_mode", "unknown discount mode")
	}
}
