package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/catalog"
	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
)

// QuotationService implements the quotation use cases
type QuotationService struct {
	quotations billing.QuotationRepository
	products   catalog.ProductRepository
	clients    partner.ClientRepository
	numbers    billing.NumberGenerator
	eventBus   shared.EventBus
	logger     *zap.Logger
}

// NewQuotationService creates a new quotation service
func NewQuotationService(
	quotations billing.QuotationRepository,
	products catalog.ProductRepository,
	clients partner.ClientRepository,
	numbers billing.NumberGenerator,
	eventBus shared.EventBus,
	logger *zap.Logger,
) *QuotationService {
	return &QuotationService{
		quotations: quotations,
		products:   products,
		clients:    clients,
		numbers:    numbers,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Create builds a new draft quotation, numbering it from the PROF
// series of the current year.
func (s *QuotationService) Create(ctx context.Context, req CreateQuotationRequest) (*billing.Quotation, error) {
	if _, err := s.clients.FindByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Client not found")
		}
		return nil, err
	}

	number, err := s.numbers.Next(ctx, billing.DocumentKindQuotation, time.Now().Year())
	if err != nil {
		return nil, err
	}

	var issueDate, validUntil time.Time
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	if req.ValidUntil != nil {
		validUntil = *req.ValidUntil
	}
	quotation, err := billing.NewQuotation(number, req.ClientID, issueDate, validUntil)
	if err != nil {
		return nil, err
	}

	if err := s.applyItems(ctx, quotation, req.Items); err != nil {
		return nil, err
	}
	if req.TaxRate != nil {
		if err := quotation.SetTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
	}
	if req.DiscountMode != "" && req.DiscountMode != string(billing.DiscountNone) {
		discount, err := billing.NewDiscount(billing.DiscountMode(req.DiscountMode), req.DiscountValue)
		if err != nil {
			return nil, err
		}
		if err := quotation.SetDiscount(discount); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		if err := quotation.SetNotes(req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.quotations.Save(ctx, quotation); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, quotation)
	s.logger.Info("quotation created",
		zap.String("quotation_id", quotation.ID.String()),
		zap.String("number", quotation.Number))
	return quotation, nil
}

// Get retrieves a quotation by ID
func (s *QuotationService) Get(ctx context.Context, id uuid.UUID) (*billing.Quotation, error) {
	quotation, err := s.quotations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Quotation not found")
		}
		return nil, err
	}
	return quotation, nil
}

// List retrieves quotations matching the filter
func (s *QuotationService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[*billing.Quotation], error) {
	return s.quotations.FindAll(ctx, filter)
}

// Update applies a partial update to a draft quotation. The request
// version must match the stored version or the update is rejected
// with a concurrency conflict.
func (s *QuotationService) Update(ctx context.Context, id uuid.UUID, req UpdateQuotationRequest) (*billing.Quotation, error) {
	quotation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quotation.GetVersion() != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	if req.ClientID != nil {
		if _, err := s.clients.FindByID(ctx, *req.ClientID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError(shared.CodeNotFound, "Client not found")
			}
			return nil, err
		}
		if err := quotation.SetClient(*req.ClientID); err != nil {
			return nil, err
		}
	}
	if req.Items != nil {
		items, err := s.buildItems(ctx, req.Items)
		if err != nil {
			return nil, err
		}
		if err := quotation.ReplaceItems(items); err != nil {
			return nil, err
		}
	}
	if req.TaxRate != nil {
		if err := quotation.SetTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
	}
	if req.DiscountMode != nil {
		value := quotation.Discount.Value
		if req.DiscountValue != nil {
			value = *req.DiscountValue
		}
		discount, err := billing.NewDiscount(billing.DiscountMode(*req.DiscountMode), value)
		if err != nil {
			return nil, err
		}
		if err := quotation.SetDiscount(discount); err != nil {
			return nil, err
		}
	} else if req.DiscountValue != nil {
		discount, err := billing.NewDiscount(quotation.Discount.Mode, *req.DiscountValue)
		if err != nil {
			return nil, err
		}
		if err := quotation.SetDiscount(discount); err != nil {
			return nil, err
		}
	}
	if req.ValidUntil != nil {
		if err := quotation.SetValidUntil(*req.ValidUntil); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		if err := quotation.SetNotes(*req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.quotations.SaveWithLock(ctx, quotation, req.Version); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, quotation)
	return quotation, nil
}

// Delete removes a draft quotation. Converted quotations are kept as
// the audit trail of their invoice and cannot be deleted.
func (s *QuotationService) Delete(ctx context.Context, id uuid.UUID, version int) error {
	quotation, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if quotation.GetVersion() != version {
		return shared.ErrConcurrencyConflict
	}
	if !quotation.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalid, "Cannot delete a converted quotation")
	}

	if err := s.quotations.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("quotation deleted",
		zap.String("quotation_id", id.String()),
		zap.String("number", quotation.Number))
	return nil
}

// applyItems adds each input line to the quotation
func (s *QuotationService) applyItems(ctx context.Context, quotation *billing.Quotation, inputs []QuotationItemInput) error {
	for _, input := range inputs {
		description, unitPrice, err := s.resolveLine(ctx, input)
		if err != nil {
			return err
		}
		if err := quotation.AddItem(input.ProductID, description, unitPrice, input.Quantity, input.DiscountPercent); err != nil {
			return err
		}
	}
	return nil
}

// buildItems materializes input lines without attaching them yet
func (s *QuotationService) buildItems(ctx context.Context, inputs []QuotationItemInput) ([]billing.QuotationItem, error) {
	items := make([]billing.QuotationItem, 0, len(inputs))
	for _, input := range inputs {
		description, unitPrice, err := s.resolveLine(ctx, input)
		if err != nil {
			return nil, err
		}
		item, err := billing.NewQuotationItem(input.ProductID, description, unitPrice, input.Quantity, input.DiscountPercent)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// resolveLine fills description and unit price from the catalog when
// the request leaves them blank
func (s *QuotationService) resolveLine(ctx context.Context, input QuotationItemInput) (string, valueobject.Money, error) {
	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", valueobject.Money{}, shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("Product %s not found", input.ProductID))
		}
		return "", valueobject.Money{}, err
	}

	description := input.Description
	if description == "" {
		description = product.Name
	}
	unitPrice := product.UnitPrice
	if input.UnitPrice != nil {
		unitPrice = valueobject.NewMoney(*input.UnitPrice, product.UnitPrice.Currency)
	}
	return description, unitPrice, nil
}

// publishEvents drains and publishes the aggregate's pending events.
// Publication is best effort; a bus failure never fails the use case.
func (s *QuotationService) publishEvents(ctx context.Context, quotation *billing.Quotation) {
	events := quotation.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish quotation events",
			zap.String("quotation_id", quotation.ID.String()),
			zap.Error(err))
	}
	quotation.ClearDomainEvents()
}
