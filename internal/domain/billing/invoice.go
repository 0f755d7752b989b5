package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	transitions := map[InvoiceStatus][]InvoiceStatus{
		InvoiceStatusDraft:     {InvoiceStatusSent, InvoiceStatusCancelled},
		InvoiceStatusSent:      {InvoiceStatusPaid, InvoiceStatusCancelled},
		InvoiceStatusPaid:      {},
		InvoiceStatusCancelled: {},
	}
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// InvoiceItem is a frozen copy of a quotation line
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID       uuid.UUID         `gorm:"type:uuid;not null" json:"product_id"`
	Description     string            `gorm:"type:varchar(500);not null" json:"description"`
	UnitPrice       valueobject.Money `gorm:"embedded;embeddedPrefix:unit_price_" json:"unit_price"`
	Quantity        int               `gorm:"not null" json:"quantity"`
	DiscountPercent decimal.Decimal   `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	LineTotal       valueobject.Money `gorm:"embedded;embeddedPrefix:line_total_" json:"line_total"`
}

// Invoice is the aggregate produced by converting a quotation. Its
// financial fields are a snapshot taken at conversion time; later
// changes to products or prices never flow back into it.
type Invoice struct {
	shared.BaseAggregateRoot
	Number         string            `gorm:"type:varchar(50);uniqueIndex;not null" json:"number"`
	QuotationID    uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"quotation_id"`
	ClientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"client_id"`
	Status         InvoiceStatus     `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	IssueDate      time.Time         `gorm:"not null" json:"issue_date"`
	DueDate        time.Time         `gorm:"not null" json:"due_date"`
	Currency       string            `gorm:"type:varchar(3);not null;default:'XOF'" json:"currency"`
	Items          []InvoiceItem     `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Discount       Discount          `gorm:"embedded;embeddedPrefix:discount_" json:"discount"`
	TaxRate        decimal.Decimal   `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	Subtotal       valueobject.Money `gorm:"embedded;embeddedPrefix:subtotal_" json:"subtotal"`
	DiscountAmount valueobject.Money `gorm:"embedded;embeddedPrefix:discount_amount_" json:"discount_amount"`
	TaxAmount      valueobject.Money `gorm:"embedded;embeddedPrefix:tax_amount_" json:"tax_amount"`
	Total          valueobject.Money `gorm:"embedded;embeddedPrefix:total_" json:"total"`
	Notes          string            `gorm:"type:text" json:"notes"`
	PaidAt         *time.Time        `json:"paid_at,omitempty"`
}

// TableName returns the database table name
func (Invoice) TableName() string {
	return "invoices"
}

// DefaultPaymentTermDays is the due-date offset applied at conversion
const DefaultPaymentTermDays = 30

// NewInvoiceFromQuotation builds an invoice as a frozen snapshot of a
// quotation. The caller provides the already-generated invoice number;
// the quotation must still be in a convertible state.
func NewInvoiceFromQuotation(q *Quotation, number string) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewValidationError("number", "is required")
	}
	if !q.IsDraft() {
		return nil, shared.NewDomainError(shared.CodeInvalid, "Quotation has already been converted")
	}
	if len(q.Items) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalid, "Cannot convert a quotation without items")
	}

	now := time.Now()
	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		QuotationID:       q.ID,
		ClientID:          q.ClientID,
		Status:            InvoiceStatusDraft,
		IssueDate:         now,
		DueDate:           now.AddDate(0, 0, DefaultPaymentTermDays),
		Currency:          q.Currency,
		Items:             make([]InvoiceItem, 0, len(q.Items)),
		Discount:          q.Discount,
		TaxRate:           q.TaxRate,
		Subtotal:          q.Subtotal,
		DiscountAmount:    q.DiscountAmount,
		TaxAmount:         q.TaxAmount,
		Total:             q.Total,
		Notes:             q.Notes,
	}

	for _, item := range q.Items {
		inv.Items = append(inv.Items, InvoiceItem{
			BaseEntity:      shared.NewBaseEntity(),
			InvoiceID:       inv.ID,
			ProductID:       item.ProductID,
			Description:     item.Description,
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			DiscountPercent: item.DiscountPercent,
			LineTotal:       item.LineTotal,
		})
	}
	return inv, nil
}

// MarkSent moves the invoice to sent
func (inv *Invoice) MarkSent() error {
	return inv.transition(InvoiceStatusSent)
}

// MarkPaid moves the invoice to paid and records the payment time
func (inv *Invoice) MarkPaid() error {
	if err := inv.transition(InvoiceStatusPaid); err != nil {
		return err
	}
	now := time.Now()
	inv.PaidAt = &now
	return nil
}

// Cancel moves the invoice to cancelled
func (inv *Invoice) Cancel() error {
	return inv.transition(InvoiceStatusCancelled)
}

func (inv *Invoice) transition(target InvoiceStatus) error {
	if !inv.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalid, "Invalid invoice status transition")
	}
	from := inv.Status
	inv.Status = target
	inv.UpdatedAt = time.Now()
	inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, from, target))
	return nil
}
