package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
)

// Product is a sellable catalog entry. Its price is the default unit
// price proposed when the product is added to a quotation; documents
// keep their own frozen copy afterwards.
type Product struct {
	shared.BaseAggregateRoot
	SKU         string            `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Name        string            `gorm:"type:varchar(200);not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	UnitPrice   valueobject.Money `gorm:"embedded;embeddedPrefix:unit_price_" json:"unit_price"`
	Active      bool              `gorm:"not null;default:true" json:"active"`
}

// TableName returns the database table name
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a validated product
func NewProduct(sku, name string, unitPrice valueobject.Money) (*Product, error) {
	if sku == "" {
		return nil, shared.NewValidationError("sku", "is required")
	}
	if name == "" {
		return nil, shared.NewValidationError("name", "is required")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("unit_price", "cannot be negative")
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		UnitPrice:         unitPrice,
		Active:            true,
	}, nil
}

// UpdatePrice changes the default unit price
func (p *Product) UpdatePrice(price valueobject.Money) error {
	if price.IsNegative() {
		return shared.NewValidationError("unit_price", "cannot be negative")
	}
	p.UnitPrice = price
	p.UpdatedAt = time.Now()
	return nil
}

// Deactivate hides the product from new documents
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}

// Activate makes the product available again
func (p *Product) Activate() {
	p.Active = true
	p.UpdatedAt = time.Now()
}

// ProductRepository defines persistence for products
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*Product], error)
	Delete(ctx context.Context, id uuid.UUID) error
}
