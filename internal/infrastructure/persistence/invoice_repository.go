package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/shared"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save creates or updates an invoice together with its items
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return execWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Items").Save(invoice).Error; err != nil {
				return err
			}
			for i := range invoice.Items {
				invoice.Items[i].InvoiceID = invoice.ID
				if err := tx.Save(&invoice.Items[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// SaveWithLock saves with an optimistic version check
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice, expectedVersion int) error {
	return execWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			invoice.Version = expectedVersion + 1
			invoice.UpdatedAt = time.Now()

			result := tx.Model(&billing.Invoice{}).
				Where("id = ? AND version = ?", invoice.ID, expectedVersion).
				Updates(map[string]interface{}{
					"status":     invoice.Status,
					"due_date":   invoice.DueDate,
					"notes":      invoice.Notes,
					"paid_at":    invoice.PaidAt,
					"version":    invoice.Version,
					"updated_at": invoice.UpdatedAt,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&billing.Invoice{}).Where("id = ?", invoice.ID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return shared.ErrNotFound
				}
				return shared.ErrConcurrencyConflict
			}
			return nil
		})
	})
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	err := execWithRetry(ctx, func(ctx context.Context) error {
		if err := r.db.WithContext(ctx).
			Preload("Items").
			First(&invoice, "id = ?", id).Error; err != nil {
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
	return &invoice, nil
}

// FindByQuotationID finds the invoice produced from a quotation
func (r *GormInvoiceRepository) FindByQuotationID(ctx context.Context, quotationID uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	err := execWithRetry(ctx, func(ctx context.Context) error {
		if err := r.db.WithContext(ctx).
			Preload("Items").
			First(&invoice, "quotation_id = ?", quotationID).Error; err != nil {
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
	return &invoice, nil
}

// FindAll finds invoices matching the filter, with pagination
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*billing.Invoice], error) {
	var (
		invoices []*billing.Invoice
		total    int64
	)
	err := execWithRetry(ctx, func(ctx context.Context) error {
		query := r.db.WithContext(ctx).Model(&billing.Invoice{})
		if filter.Search != "" {
			query = query.Where("number LIKE ?", "%"+filter.Search+"%")
		}
		for key, value := range filter.Filters {
			switch key {
			case "client_id":
				query = query.Where("client_id = ?", value)
			case "status":
				query = query.Where("status = ?", value)
			}
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
			query = query.Order("created_at DESC")
		}
		if filter.Page > 0 && filter.PageSize > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
		}
		return query.Preload("Items").Find(&invoices).Error
	})
	if err != nil {
		return shared.Paginated[*billing.Invoice]{}, err
	}
	return shared.NewPaginated(invoices, total, filter.Page, filter.PageSize), nil
}

// Ensure GormInvoiceRepository implements billing.InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
