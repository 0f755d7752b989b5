package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/gescom/backend/internal/domain/shared"
)

// DocumentKind identifies a numbered document series
type DocumentKind string

const (
	DocumentKindQuotation DocumentKind = "quotation"
	DocumentKindInvoice   DocumentKind = "invoice"
)

// Prefix returns the human-facing prefix for the series
func (k DocumentKind) Prefix() string {
	switch k {
	case DocumentKindQuotation:
		return "PROF"
	case DocumentKindInvoice:
		return "FACT"
	}
	return "DOC"
}

// NumberGenerator produces gapless-enough document numbers of the form
// PREFIX-YYYY-NNNN, one series per kind and year, starting at 1000.
// Implementations must be safe under concurrent callers: two calls
// never return the same number.
type NumberGenerator interface {
	Next(ctx context.Context, kind DocumentKind, year int) (string, error)
}

// QuotationRepository defines persistence for quotations
type QuotationRepository interface {
	// Save persists a new quotation
	Save(ctx context.Context, quotation *Quotation) error
	// SaveWithLock persists an existing quotation only if the stored
	// version matches expectedVersion, then bumps the version.
	// Returns a CONCURRENCY_CONFLICT domain error on mismatch.
	SaveWithLock(ctx context.Context, quotation *Quotation, expectedVersion int) error
	// FindByID retrieves a quotation with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)
	// FindByNumber retrieves a quotation by its document number
	FindByNumber(ctx context.Context, number string) (*Quotation, error)
	// FindAll retrieves quotations matching the filter
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*Quotation], error)
	// Delete removes a quotation and its items
	Delete(ctx context.Context, id uuid.UUID) error
	// ConvertToInvoice atomically persists the invoice and flips the
	// quotation to converted, guarded by the quotation's version.
	// Either both writes land or neither does.
	ConvertToInvoice(ctx context.Context, quotation *Quotation, invoice *Invoice, expectedVersion int) error
}

// InvoiceRepository defines persistence for invoices
type InvoiceRepository interface {
	// Save persists a new invoice
	Save(ctx context.Context, invoice *Invoice) error
	// SaveWithLock persists with an optimistic version check
	SaveWithLock(ctx context.Context, invoice *Invoice, expectedVersion int) error
	// FindByID retrieves an invoice with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindByQuotationID retrieves the invoice produced from a quotation
	FindByQuotationID(ctx context.Context, quotationID uuid.UUID) (*Invoice, error)
	// FindAll retrieves invoices matching the filter
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*Invoice], error)
}
