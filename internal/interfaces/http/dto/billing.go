package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/gescom/backend/internal/domain/billing"
)

// QuotationItemResponse is one quotation line as returned by the API
type QuotationItemResponse struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	Description     string    `json:"description"`
	UnitPrice       string    `json:"unit_price"`
	Quantity        int       `json:"quantity"`
	DiscountPercent string    `json:"discount_percent"`
	LineTotal       string    `json:"line_total"`
}

// QuotationResponse is a quotation as returned by the API. Version is
// the token callers must echo back on writes.
type QuotationResponse struct {
	ID             uuid.UUID               `json:"id"`
	Number         string                  `json:"number"`
	ClientID       uuid.UUID               `json:"client_id"`
	Status         string                  `json:"status"`
	IssueDate      time.Time               `json:"issue_date"`
	ValidUntil     time.Time               `json:"valid_until"`
	Currency       string                  `json:"currency"`
	Items          []QuotationItemResponse `json:"items"`
	DiscountMode   string                  `json:"discount_mode"`
	DiscountValue  string                  `json:"discount_value"`
	TaxRate        string                  `json:"tax_rate"`
	Subtotal       string                  `json:"subtotal"`
	DiscountAmount string                  `json:"discount_amount"`
	TaxAmount      string                  `json:"tax_amount"`
	Total          string                  `json:"total"`
	Notes          string                  `json:"notes,omitempty"`
	ConvertedAt    *time.Time              `json:"converted_at,omitempty"`
	InvoiceID      *uuid.UUID              `json:"invoice_id,omitempty"`
	Version        int                     `json:"version"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// FromQuotation maps a quotation aggregate to its API representation
func FromQuotation(q *billing.Quotation) QuotationResponse {
	items := make([]QuotationItemResponse, 0, len(q.Items))
	for _, item := range q.Items {
		items = append(items, QuotationItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Description:     item.Description,
			UnitPrice:       item.UnitPrice.Amount.String(),
			Quantity:        item.Quantity,
			DiscountPercent: item.DiscountPercent.String(),
			LineTotal:       item.LineTotal.Amount.String(),
		})
	}
	return QuotationResponse{
		ID:             q.ID,
		Number:         q.Number,
		ClientID:       q.ClientID,
		Status:         string(q.Status),
		IssueDate:      q.IssueDate,
		ValidUntil:     q.ValidUntil,
		Currency:       q.Currency,
		Items:          items,
		DiscountMode:   string(q.Discount.Mode),
		DiscountValue:  q.Discount.Value.String(),
		TaxRate:        q.TaxRate.String(),
		Subtotal:       q.Subtotal.Amount.String(),
		DiscountAmount: q.DiscountAmount.Amount.String(),
		TaxAmount:      q.TaxAmount.Amount.String(),
		Total:          q.Total.Amount.String(),
		Notes:          q.Notes,
		ConvertedAt:    q.ConvertedAt,
		InvoiceID:      q.InvoiceID,
		Version:        q.Version,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

// FromQuotations maps a slice of quotations
func FromQuotations(quotations []*billing.Quotation) []QuotationResponse {
	out := make([]QuotationResponse, 0, len(quotations))
	for _, q := range quotations {
		out = append(out, FromQuotation(q))
	}
	return out
}

// InvoiceItemResponse is one invoice line as returned by the API
type InvoiceItemResponse struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	Description     string    `json:"description"`
	UnitPrice       string    `json:"unit_price"`
	Quantity        int       `json:"quantity"`
	DiscountPercent string    `json:"discount_percent"`
	LineTotal       string    `json:"line_total"`
}

// InvoiceResponse is an invoice as returned by the API
type InvoiceResponse struct {
	ID             uuid.UUID             `json:"id"`
	Number         string                `json:"number"`
	QuotationID    uuid.UUID             `json:"quotation_id"`
	ClientID       uuid.UUID             `json:"client_id"`
	Status         string                `json:"status"`
	IssueDate      time.Time             `json:"issue_date"`
	DueDate        time.Time             `json:"due_date"`
	Currency       string                `json:"currency"`
	Items          []InvoiceItemResponse `json:"items"`
	DiscountMode   string                `json:"discount_mode"`
	DiscountValue  string                `json:"discount_value"`
	TaxRate        string                `json:"tax_rate"`
	Subtotal       string                `json:"subtotal"`
	DiscountAmount string                `json:"discount_amount"`
	TaxAmount      string                `json:"tax_amount"`
	Total          string                `json:"total"`
	Notes          string                `json:"notes,omitempty"`
	PaidAt         *time.Time            `json:"paid_at,omitempty"`
	Version        int                   `json:"version"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// FromInvoice maps an invoice aggregate to its API representation
func FromInvoice(inv *billing.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, InvoiceItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Description:     item.Description,
			UnitPrice:       item.UnitPrice.Amount.String(),
			Quantity:        item.Quantity,
			DiscountPercent: item.DiscountPercent.String(),
			LineTotal:       item.LineTotal.Amount.String(),
		})
	}
	return InvoiceResponse{
		ID:             inv.ID,
		Number:         inv.Number,
		QuotationID:    inv.QuotationID,
		ClientID:       inv.ClientID,
		Status:         string(inv.Status),
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		Currency:       inv.Currency,
		Items:          items,
		DiscountMode:   string(inv.Discount.Mode),
		DiscountValue:  inv.Discount.Value.String(),
		TaxRate:        inv.TaxRate.String(),
		Subtotal:       inv.Subtotal.Amount.String(),
		DiscountAmount: inv.DiscountAmount.Amount.String(),
		TaxAmount:      inv.TaxAmount.Amount.String(),
		Total:          inv.Total.Amount.String(),
		Notes:          inv.Notes,
		PaidAt:         inv.PaidAt,
		Version:        inv.Version,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

// FromInvoices maps a slice of invoices
func FromInvoices(invoices []*billing.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, FromInvoice(inv))
	}
	return out
}

// ConversionResponse is the payload returned by a convert call
type ConversionResponse struct {
	Invoice InvoiceResponse `json:"invoice"`
	Expired bool            `json:"expired"`
}
