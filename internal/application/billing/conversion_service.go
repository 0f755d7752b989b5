package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/shared"
)

// ConversionService turns accepted quotations into invoices
type ConversionService struct {
	quotations billing.QuotationRepository
	invoices   billing.InvoiceRepository
	numbers    billing.NumberGenerator
	eventBus   shared.EventBus
	logger     *zap.Logger
	now        func() time.Time
}

// NewConversionService creates a new conversion service
func NewConversionService(
	quotations billing.QuotationRepository,
	invoices billing.InvoiceRepository,
	numbers billing.NumberGenerator,
	eventBus shared.EventBus,
	logger *zap.Logger,
) *ConversionService {
	return &ConversionService{
		quotations: quotations,
		invoices:   invoices,
		numbers:    numbers,
		eventBus:   eventBus,
		logger:     logger,
		now:        time.Now,
	}
}

// Convert produces an invoice from a draft quotation. The invoice and
// the quotation's status flip are persisted in one transaction: a
// concurrent conversion of the same quotation loses on the version
// check and sees a conflict, never a duplicate invoice. An expired
// quotation still converts; the result carries a warning flag.
func (s *ConversionService) Convert(ctx context.Context, quotationID uuid.UUID, version int) (*ConversionResult, error) {
	quotation, err := s.quotations.FindByID(ctx, quotationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Quotation not found")
		}
		return nil, err
	}
	if quotation.GetVersion() != version {
		return nil, shared.ErrConcurrencyConflict
	}
	if quotation.Status == billing.QuotationStatusConverted {
		return nil, shared.NewDomainError(shared.CodeInvalid, "Quotation has already been converted")
	}

	expired := quotation.IsExpired(s.now())
	if expired {
		s.logger.Warn("converting expired quotation",
			zap.String("quotation_id", quotationID.String()),
			zap.Time("valid_until", quotation.ValidUntil))
	}

	number, err := s.numbers.Next(ctx, billing.DocumentKindInvoice, s.now().Year())
	if err != nil {
		return nil, err
	}

	invoice, err := billing.NewInvoiceFromQuotation(quotation, number)
	if err != nil {
		return nil, err
	}
	if err := quotation.MarkConverted(invoice.ID, invoice.Number); err != nil {
		return nil, err
	}

	if err := s.quotations.ConvertToInvoice(ctx, quotation, invoice, version); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, quotation)
	s.logger.Info("quotation converted",
		zap.String("quotation_id", quotationID.String()),
		zap.String("invoice_number", invoice.Number),
		zap.Bool("expired", expired))

	return &ConversionResult{Invoice: invoice, Expired: expired}, nil
}

// GetInvoice retrieves an invoice by ID
func (s *ConversionService) GetInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Invoice not found")
		}
		return nil, err
	}
	return invoice, nil
}

// ListInvoices retrieves invoices matching the filter
func (s *ConversionService) ListInvoices(ctx context.Context, filter shared.Filter) (shared.Paginated[*billing.Invoice], error) {
	return s.invoices.FindAll(ctx, filter)
}

// TransitionInvoice moves an invoice to the target lifecycle state
// under the caller's version token.
func (s *ConversionService) TransitionInvoice(ctx context.Context, id uuid.UUID, version int, target billing.InvoiceStatus) (*billing.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Invoice not found")
		}
		return nil, err
	}
	if invoice.GetVersion() != version {
		return nil, shared.ErrConcurrencyConflict
	}

	switch target {
	case billing.InvoiceStatusSent:
		err = invoice.MarkSent()
	case billing.InvoiceStatusPaid:
		err = invoice.MarkPaid()
	case billing.InvoiceStatusCancelled:
		err = invoice.Cancel()
	default:
		return nil, shared.NewValidationError("status", "unknown invoice status")
	}
	if err != nil {
		return nil, err
	}

	if err := s.invoices.SaveWithLock(ctx, invoice, version); err != nil {
		return nil, err
	}
	s.publishInvoiceEvents(ctx, invoice)
	return invoice, nil
}

func (s *ConversionService) publishInvoiceEvents(ctx context.Context, invoice *billing.Invoice) {
	events := invoice.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish invoice events",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err))
	}
	invoice.ClearDomainEvents()
}

func (s *ConversionService) publishEvents(ctx context.Context, quotation *billing.Quotation) {
	events := quotation.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish conversion events",
			zap.String("quotation_id", quotation.ID.String()),
			zap.Error(err))
	}
	quotation.ClearDomainEvents()
}
