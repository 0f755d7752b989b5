package billing

import (
	"github.com/google/uuid"

	"github.com/gescom/backend/internal/domain/shared"
)

// Event types for the billing context
const (
	EventQuotationCreated   = "billing.quotation.created"
	EventQuotationConverted = "billing.quotation.converted"
	EventInvoiceStatusMoved = "billing.invoice.status_changed"
)

// QuotationCreatedEvent is published when a new quotation is created
type QuotationCreatedEvent struct {
	shared.BaseDomainEvent
	Number   string    `json:"number"`
	ClientID uuid.UUID `json:"client_id"`
}

// NewQuotationCreatedEvent creates a quotation created event
func NewQuotationCreatedEvent(q *Quotation) *QuotationCreatedEvent {
	return &QuotationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventQuotationCreated, "Quotation", q.ID),
		Number:          q.Number,
		ClientID:        q.ClientID,
	}
}

// QuotationConvertedEvent is published when a quotation becomes an invoice
type QuotationConvertedEvent struct {
	shared.BaseDomainEvent
	Number        string    `json:"number"`
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
}

// NewQuotationConvertedEvent creates a quotation converted event
func NewQuotationConvertedEvent(q *Quotation, invoiceID uuid.UUID, invoiceNumber string) *QuotationConvertedEvent {
	return &QuotationConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventQuotationConverted, "Quotation", q.ID),
		Number:          q.Number,
		InvoiceID:       invoiceID,
		InvoiceNumber:   invoiceNumber,
	}
}

// InvoiceStatusChangedEvent is published on invoice lifecycle moves
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	Number string        `json:"number"`
	From   InvoiceStatus `json:"from"`
	To     InvoiceStatus `json:"to"`
}

// NewInvoiceStatusChangedEvent creates an invoice status changed event
func NewInvoiceStatusChangedEvent(inv *Invoice, from, to InvoiceStatus) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceStatusMoved, "Invoice", inv.ID),
		Number:          inv.Number,
		From:            from,
		To:              to,
	}
}
