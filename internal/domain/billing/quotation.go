package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
)

// QuotationStatus represents the lifecycle state of a quotation
type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "draft"
	QuotationStatusConverted QuotationStatus = "converted"
)

// IsValid checks if the status is valid
func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusConverted:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status.
// Conversion is terminal: a converted quotation never changes again.
func (s QuotationStatus) CanTransitionTo(target QuotationStatus) bool {
	return s == QuotationStatusDraft && target == QuotationStatusConverted
}

// DefaultValidityDays is how long a quotation stays open when no
// explicit expiry date is given.
const DefaultValidityDays = 30

// ComputeLineTotal returns the total for one line: unit price times
// quantity, reduced by the line discount percentage, rounded exactly
// once at the end.
func ComputeLineTotal(unitPrice valueobject.Money, quantity int, discountPercent decimal.Decimal) valueobject.Money {
	gross := unitPrice.MulInt(int64(quantity))
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(decimal.NewFromInt(100)))
	return gross.Mul(factor).RoundToUnit()
}

// QuotationItem represents a line item in a quotation
type QuotationItem struct {
	shared.BaseEntity
	QuotationID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"quotation_id"`
	ProductID       uuid.UUID         `gorm:"type:uuid;not null" json:"product_id"`
	Description     string            `gorm:"type:varchar(500);not null" json:"description"`
	UnitPrice       valueobject.Money `gorm:"embedded;embeddedPrefix:unit_price_" json:"unit_price"`
	Quantity        int               `gorm:"not null" json:"quantity"`
	DiscountPercent decimal.Decimal   `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	LineTotal       valueobject.Money `gorm:"embedded;embeddedPrefix:line_total_" json:"line_total"`
}

// NewQuotationItem creates a validated quotation line
func NewQuotationItem(productID uuid.UUID, description string, unitPrice valueobject.Money, quantity int, discountPercent decimal.Decimal) (*QuotationItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product_id", "is required")
	}
	if description == "" {
		return nil, shared.NewValidationError("description", "is required")
	}
	if quantity < 1 {
		return nil, shared.NewValidationError("quantity", "must be at least 1")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("unit_price", "cannot be negative")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewValidationError("discount_percent", "must be between 0 and 100")
	}

	item := &QuotationItem{
		BaseEntity:      shared.NewBaseEntity(),
		ProductID:       productID,
		Description:     description,
		UnitPrice:       unitPrice,
		Quantity:        quantity,
		DiscountPercent: discountPercent,
	}
	item.LineTotal = ComputeLineTotal(unitPrice, quantity, discountPercent)
	return item, nil
}

// Quotation is the aggregate root for a proforma document. All money
// on the aggregate is denominated in a single currency and totals are
// recomputed on every mutation, never stored out of sync.
type Quotation struct {
	shared.BaseAggregateRoot
	Number         string            `gorm:"type:varchar(50);uniqueIndex;not null" json:"number"`
	ClientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"client_id"`
	Status         QuotationStatus   `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	IssueDate      time.Time         `gorm:"not null" json:"issue_date"`
	ValidUntil     time.Time         `gorm:"not null" json:"valid_until"`
	Currency       string            `gorm:"type:varchar(3);not null;default:'XOF'" json:"currency"`
	Items          []QuotationItem   `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE" json:"items"`
	Discount       Discount          `gorm:"embedded;embeddedPrefix:discount_" json:"discount"`
	TaxRate        decimal.Decimal   `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	Subtotal       valueobject.Money `gorm:"embedded;embeddedPrefix:subtotal_" json:"subtotal"`
	DiscountAmount valueobject.Money `gorm:"embedded;embeddedPrefix:discount_amount_" json:"discount_amount"`
	TaxAmount      valueobject.Money `gorm:"embedded;embeddedPrefix:tax_amount_" json:"tax_amount"`
	Total          valueobject.Money `gorm:"embedded;embeddedPrefix:total_" json:"total"`
	Notes          string            `gorm:"type:text" json:"notes"`
	ConvertedAt    *time.Time        `json:"converted_at,omitempty"`
	InvoiceID      *uuid.UUID        `gorm:"type:uuid" json:"invoice_id,omitempty"`
}

// TableName returns the database table name
func (Quotation) TableName() string {
	return "quotations"
}

// NewQuotation creates a new draft quotation. A zero issueDate means
// today; a zero validUntil means issueDate plus DefaultValidityDays.
func NewQuotation(number string, clientID uuid.UUID, issueDate, validUntil time.Time) (*Quotation, error) {
	if number == "" {
		return nil, shared.NewValidationError("number", "is required")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewValidationError("client_id", "is required")
	}

	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	if validUntil.IsZero() {
		validUntil = issueDate.AddDate(0, 0, DefaultValidityDays)
	}
	if validUntil.Before(issueDate.Truncate(24 * time.Hour)) {
		return nil, shared.NewValidationError("valid_until", "cannot precede the issue date")
	}

	q := &Quotation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		ClientID:          clientID,
		Status:            QuotationStatusDraft,
		IssueDate:         issueDate,
		ValidUntil:        validUntil,
		Currency:          valueobject.DefaultCurrency,
		Items:             make([]QuotationItem, 0),
		Discount:          NoDiscount(),
		TaxRate:           DefaultTaxRate,
	}
	q.recalculateTotals()

	q.AddDomainEvent(NewQuotationCreatedEvent(q))
	return q, nil
}

// IsDraft reports whether the quotation can still be modified
func (q *Quotation) IsDraft() bool {
	return q.Status == QuotationStatusDraft
}

// IsExpired reports whether the validity date has passed
func (q *Quotation) IsExpired(now time.Time) bool {
	return now.After(q.ValidUntil)
}

// AddItem adds a line to a draft quotation
func (q *Quotation) AddItem(productID uuid.UUID, description string, unitPrice valueobject.Money, quantity int, discountPercent decimal.Decimal) error {
	if !q.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot modify a converted quotation")
	}

	item, err := NewQuotationItem(productID, description, unitPrice, quantity, discountPercent)
	if err != nil {
		return err
	}
	item.QuotationID = q.ID

	q.Items = append(q.Items, *item)
	return q.recalculate()
}

// UpdateItem replaces the mutable fields of an existing line
func (q *Quotation) UpdateItem(itemID uuid.UUID, quantity int, discountPercent decimal.Decimal) error {
	if !q.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot modify a converted quotation")
	}
	if quantity < 1 {
		return shared.NewValidationError("quantity", "must be at least 1")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("discount_percent", "must be between 0 and 100")
	}

	for i := range q.Items {
		if q.Items[i].ID == itemID {
			q.Items[i].Quantity = quantity
			q.Items[i].DiscountPercent = discountPercent
			q.Items[i].LineTotal = ComputeLineTotal(q.Items[i].UnitPrice, quantity, discountPercent)
			return q.recalculate()
		}
	}
	return shared.NewDomainError(shared.CodeNotFound, "Quotation item not found")
}

// RemoveItem removes a line from a draft quotation
func (q *Quotation) RemoveItem(itemID uuid.UUID) error {
	if !q.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot modify a converted quotation")
	}

	for i := range q.Items {
		if q.Items[i].ID == itemID {
			q.Items = append(q.Items[:i], q.Items[i+1:]...)
			return q.recalculate()
		}
	}
	return shared.NewDomainError(shared.CodeNotFound, "Quotation item not found")
}

// ReplaceItems swaps the full line set of a draft quotation
func (q *Quotation) ReplaceItems(items []QuotationItem) error {
	if !q.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot modify a converted quotation")
	}
	for i := range items {
		items[i].QuotationID = q.ID
	}
	q.Items = items
	return q.recalculate()
}

// SetDiscount applies a document-level discount
func (q *Quotation) SetDiscount(discount Discount) error {
	if !q.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot modify a converted quotation")
	}
	previous := q.Discount
	q.Discount = discount
	if err := q.recalculate(); err != nil {
		q.Discount = previous
		q.recalculateTotals()
		return err
	}
	return nil
}

// SetTaxRate changes the document tax rate, in percent
func (q *Quotation) SetTaxRate(rate decimal.Decimal) error {
	if !q.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot modify a converted quotation")
	}
	if err := ValidateTaxRate(rate); err != nil {
		return err
	}
	q.TaxRate = rate
	return q.recalculate()
}

// SetValidUntil changes the validity date of a draft quotation
func (q *Quotation) SetValidUntil(validUntil time.Time) error {
	if !q.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot modify a converted quotation")
	}
	if validUntil.IsZero() {
		return shared.NewValidationError("valid_until", "is required")
	}
	if validUntil.Before(q.IssueDate.Truncate(24 * time.Hour)) {
		return shared.NewValidationError("valid_until", "cannot precede the issue date")
	}
	q.ValidUntil = validUntil
	q.UpdatedAt = time.Now()
	return nil
}

// SetNotes updates the free-form notes of a draft quotation
func (q *Quotation) SetNotes(notes string) error {
	if !q.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot modify a converted quotation")
	}
	q.Notes = notes
	q.UpdatedAt = time.Now()
	return nil
}

// SetClient reassigns the quotation to another client
func (q *Quotation) SetClient(clientID uuid.UUID) error {
	if !q.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot modify a converted quotation")
	}
	if clientID == uuid.Nil {
		return shared.NewValidationError("client_id", "is required")
	}
	q.ClientID = clientID
	q.UpdatedAt = time.Now()
	return nil
}

// MarkConverted records that an invoice has been produced from this
// quotation. The transition is terminal and requires at least one line.
func (q *Quotation) MarkConverted(invoiceID uuid.UUID, invoiceNumber string) error {
	if q.Status == QuotationStatusConverted {
		return shared.NewDomainError(shared.CodeInvalid, "Quotation has already been converted")
	}
	if !q.Status.CanTransitionTo(QuotationStatusConverted) {
		return shared.NewDomainError(shared.CodeInvalid, "Quotation cannot be converted in its current state")
	}
	if len(q.Items) == 0 {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot convert a quotation without items")
	}

	now := time.Now()
	q.Status = QuotationStatusConverted
	q.ConvertedAt = &now
	q.InvoiceID = &invoiceID
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationConvertedEvent(q, invoiceID, invoiceNumber))
	return nil
}

// recalculate recomputes totals and bumps the update timestamp
func (q *Quotation) recalculate() error {
	if err := q.recalculateTotals(); err != nil {
		return err
	}
	q.UpdatedAt = time.Now()
	return nil
}

// recalculateTotals derives subtotal, discount, tax and total from the
// current lines. Line totals are already rounded, so the subtotal is a
// plain sum; discount and tax each round once on their own.
func (q *Quotation) recalculateTotals() error {
	subtotal := valueobject.ZeroIn(q.Currency)
	for _, item := range q.Items {
		s, err := subtotal.Add(item.LineTotal)
		if err != nil {
			return err
		}
		subtotal = s
	}

	discountAmount, err := q.Discount.AmountOn(subtotal)
	if err != nil {
		return err
	}
	base, err := subtotal.Sub(discountAmount)
	if err != nil {
		return err
	}
	taxAmount := ComputeTax(base, q.TaxRate)
	total, err := base.Add(taxAmount)
	if err != nil {
		return err
	}

	q.Subtotal = subtotal
	q.DiscountAmount = discountAmount
	q.TaxAmount = taxAmount
	q.Total = total
	return nil
}
