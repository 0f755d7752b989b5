package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gescom/backend/internal/domain/catalog"
	"github.com/gescom/backend/internal/domain/shared"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return execWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Save(product).Error
	})
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	err := execWithRetry(ctx, func(ctx context.Context) error {
		if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySKU finds a product by its SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	var product catalog.Product
	err := execWithRetry(ctx, func(ctx context.Context) error {
		if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindAll finds products matching the filter, with pagination
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*catalog.Product], error) {
	var (
		products []*catalog.Product
		total    int64
	)
	err := execWithRetry(ctx, func(ctx context.Context) error {
		query := r.db.WithContext(ctx).Model(&catalog.Product{})
		if filter.Search != "" {
			pattern := "%" + filter.Search + "%"
			query = query.Where("sku LIKE ? OR name LIKE ?", pattern, pattern)
		}
		if active, ok := filter.Filters["active"]; ok {
			query = query.Where("active = ?", active)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}

		if filter.OrderBy != "" {
			dir := "ASC"
			if strings.ToLower(filter.OrderDir) == "desc" {
				dir = "DESC"
			}
			query = query.Order(filter.OrderBy + " " + dir)
		} else {
			query = query.Order("name ASC")
		}
		if filter.Page > 0 && filter.PageSize > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
		}
		return query.Find(&products).Error
	})
	if err != nil {
		return shared.Paginated[*catalog.Product]{}, err
	}
	return shared.NewPaginated(products, total, filter.Page, filter.PageSize), nil
}

// Delete removes a product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execWithRetry(ctx, func(ctx context.Context) error {
		result := r.db.WithContext(ctx).Delete(&catalog.Product{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure GormProductRepository implements catalog.ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
