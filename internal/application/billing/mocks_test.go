package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/catalog"
	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/domain/shared"
)

type mockQuotationRepository struct {
	mock.Mock
}

func (m *mockQuotationRepository) Save(ctx context.Context, q *billing.Quotation) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *mockQuotationRepository) SaveWithLock(ctx context.Context, q *billing.Quotation, expectedVersion int) error {
	args := m.Called(ctx, q, expectedVersion)
	return args.Error(0)
}

func (m *mockQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Quotation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Quotation), args.Error(1)
}

func (m *mockQuotationRepository) FindByNumber(ctx context.Context, number string) (*billing.Quotation, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Quotation), args.Error(1)
}

func (m *mockQuotationRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*billing.Quotation], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[*billing.Quotation]), args.Error(1)
}

func (m *mockQuotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockQuotationRepository) ConvertToInvoice(ctx context.Context, q *billing.Quotation, inv *billing.Invoice, expectedVersion int) error {
	args := m.Called(ctx, q, inv, expectedVersion)
	return args.Error(0)
}

type mockInvoiceRepository struct {
	mock.Mock
}

func (m *mockInvoiceRepository) Save(ctx context.Context, inv *billing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *mockInvoiceRepository) SaveWithLock(ctx context.Context, inv *billing.Invoice, expectedVersion int) error {
	args := m.Called(ctx, inv, expectedVersion)
	return args.Error(0)
}

func (m *mockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindByQuotationID(ctx context.Context, quotationID uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, quotationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*billing.Invoice], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[*billing.Invoice]), args.Error(1)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProductRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*catalog.Product], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[*catalog.Product]), args.Error(1)
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockClientRepository struct {
	mock.Mock
}

func (m *mockClientRepository) Save(ctx context.Context, c *partner.Client) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *mockClientRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*partner.Client], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[*partner.Client]), args.Error(1)
}

func (m *mockClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockNumberGenerator struct {
	mock.Mock
}

func (m *mockNumberGenerator) Next(ctx context.Context, kind billing.DocumentKind, year int) (string, error) {
	args := m.Called(ctx, kind, year)
	return args.String(0), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *mockEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	m.Called(handler, eventTypes)
}

func (m *mockEventBus) Unsubscribe(handler shared.EventHandler) {
	m.Called(handler)
}

func (m *mockEventBus) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockEventBus) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
