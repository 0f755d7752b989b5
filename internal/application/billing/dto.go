package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/billing"
)

// QuotationItemInput is one line of a create or update request. When
// UnitPrice is nil the current catalog price of the product is used.
type QuotationItemInput struct {
	ProductID       uuid.UUID        `json:"product_id" binding:"required"`
	Description     string           `json:"description"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	Quantity        int              `json:"quantity" binding:"required,min=1"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
}

// CreateQuotationRequest creates a new draft quotation. Items may be
// empty: an item-less draft is valid and totals stay at zero until
// lines are added. IssueDate defaults to today.
type CreateQuotationRequest struct {
	ClientID      uuid.UUID            `json:"client_id" binding:"required"`
	IssueDate     *time.Time           `json:"issue_date"`
	ValidUntil    *time.Time           `json:"valid_until"`
	Items         []QuotationItemInput `json:"items" binding:"omitempty,dive"`
	DiscountMode  string               `json:"discount_mode"`
	DiscountValue decimal.Decimal      `json:"discount_value"`
	TaxRate       *decimal.Decimal     `json:"tax_rate"`
	Notes         string               `json:"notes"`
}

// UpdateQuotationRequest mutates a draft quotation. Version is the
// optimistic-concurrency token read earlier by the caller; nil fields
// are left unchanged.
type UpdateQuotationRequest struct {
	Version       int                  `json:"version" binding:"required,min=1"`
	ClientID      *uuid.UUID           `json:"client_id"`
	ValidUntil    *time.Time           `json:"valid_until"`
	Items         []QuotationItemInput `json:"items" binding:"omitempty,min=1,dive"`
	DiscountMode  *string              `json:"discount_mode"`
	DiscountValue *decimal.Decimal     `json:"discount_value"`
	TaxRate       *decimal.Decimal     `json:"tax_rate"`
	Notes         *string              `json:"notes"`
}

// ConvertQuotationRequest converts a quotation into an invoice
type ConvertQuotationRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// ConversionResult reports the outcome of a conversion. Expired is a
// warning only: converting past the validity date is allowed.
type ConversionResult struct {
	Invoice *billing.Invoice `json:"invoice"`
	Expired bool             `json:"expired"`
}

// DeleteQuotationRequest removes a draft quotation
type DeleteQuotationRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}
