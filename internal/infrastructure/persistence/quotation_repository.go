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

// GormQuotationRepository implements billing.QuotationRepository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

// Save creates or updates a quotation together with its items
func (r *GormQuotationRepository) Save(ctx context.Context, quotation *billing.Quotation) error {
	return execWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Items").Save(quotation).Error; err != nil {
				return err
			}
			return r.syncItems(tx, quotation)
		})
	})
}

// SaveWithLock saves with optimistic locking. The write only lands if
// the stored version still equals expectedVersion; otherwise the
// caller raced another writer and gets a conflict.
func (r *GormQuotationRepository) SaveWithLock(ctx context.Context, quotation *billing.Quotation, expectedVersion int) error {
	return execWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := r.updateWithVersionCheck(tx, quotation, expectedVersion); err != nil {
				return err
			}
			return r.syncItems(tx, quotation)
		})
	})
}

// FindByID finds a quotation by its ID
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Quotation, error) {
	var quotation billing.Quotation
	err := execWithRetry(ctx, func(ctx context.Context) error {
		if err := r.db.WithContext(ctx).
			Preload("Items").
			First(&quotation, "id = ?", id).Error; err != nil {
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
	return &quotation, nil
}

// FindByNumber finds a quotation by its document number
func (r *GormQuotationRepository) FindByNumber(ctx context.Context, number string) (*billing.Quotation, error) {
	var quotation billing.Quotation
	err := execWithRetry(ctx, func(ctx context.Context) error {
		if err := r.db.WithContext(ctx).
			Preload("Items").
			First(&quotation, "number = ?", number).Error; err != nil {
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
	return &quotation, nil
}

// FindAll finds quotations matching the filter, with pagination
func (r *GormQuotationRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*billing.Quotation], error) {
	var (
		quotations []*billing.Quotation
		total      int64
	)
	err := execWithRetry(ctx, func(ctx context.Context) error {
		query := r.applyFilter(r.db.WithContext(ctx).Model(&billing.Quotation{}), filter)
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return r.paginate(query.Preload("Items"), filter).Find(&quotations).Error
	})
	if err != nil {
		return shared.Paginated[*billing.Quotation]{}, err
	}
	return shared.NewPaginated(quotations, total, filter.Page, filter.PageSize), nil
}

// Delete removes a quotation and its items
func (r *GormQuotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("quotation_id = ?", id).Delete(&billing.QuotationItem{}).Error; err != nil {
				return err
			}
			result := tx.Delete(&billing.Quotation{}, "id = ?", id)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrNotFound
			}
			return nil
		})
	})
}

// ConvertToInvoice persists the invoice and flips the quotation to
// converted in one transaction. The version check on the quotation is
// the linchpin: of two concurrent conversions only one sees the
// expected version, so at most one invoice ever exists per quotation.
func (r *GormQuotationRepository) ConvertToInvoice(ctx context.Context, quotation *billing.Quotation, invoice *billing.Invoice, expectedVersion int) error {
	return execWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := r.updateWithVersionCheck(tx, quotation, expectedVersion); err != nil {
				return err
			}
			if err := tx.Omit("Items").Create(invoice).Error; err != nil {
				return err
			}
			for i := range invoice.Items {
				invoice.Items[i].InvoiceID = invoice.ID
				if err := tx.Create(&invoice.Items[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// updateWithVersionCheck performs the compare-and-set update of the
// quotation row inside an open transaction
func (r *GormQuotationRepository) updateWithVersionCheck(tx *gorm.DB, quotation *billing.Quotation, expectedVersion int) error {
	quotation.Version = expectedVersion + 1
	quotation.UpdatedAt = time.Now()

	result := tx.Model(&billing.Quotation{}).
		Where("id = ? AND version = ?", quotation.ID, expectedVersion).
		Updates(map[string]interface{}{
			"client_id":              quotation.ClientID,
			"status":                 quotation.Status,
			"valid_until":            quotation.ValidUntil,
			"discount_mode":          quotation.Discount.Mode,
			"discount_value":         quotation.Discount.Value,
			"tax_rate":               quotation.TaxRate,
			"subtotal_amount":        quotation.Subtotal,
			"discount_amount_amount": quotation.DiscountAmount,
			"tax_amount_amount":      quotation.TaxAmount,
			"total_amount":           quotation.Total,
			"notes":                  quotation.Notes,
			"converted_at":           quotation.ConvertedAt,
			"invoice_id":             quotation.InvoiceID,
			"version":                quotation.Version,
			"updated_at":             quotation.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Row gone or version moved on; distinguish the two
		var count int64
		if err := tx.Model(&billing.Quotation{}).Where("id = ?", quotation.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// syncItems reconciles the item rows with the aggregate's line set
func (r *GormQuotationRepository) syncItems(tx *gorm.DB, quotation *billing.Quotation) error {
	currentIDs := make([]uuid.UUID, len(quotation.Items))
	for i, item := range quotation.Items {
		currentIDs[i] = item.ID
	}

	if len(currentIDs) > 0 {
		if err := tx.Where("quotation_id = ? AND id NOT IN ?", quotation.ID, currentIDs).
			Delete(&billing.QuotationItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("quotation_id = ?", quotation.ID).
			Delete(&billing.QuotationItem{}).Error; err != nil {
			return err
		}
	}

	for i := range quotation.Items {
		quotation.Items[i].QuotationID = quotation.ID
		if err := tx.Save(&quotation.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies search and field filters to the query
func (r *GormQuotationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("number LIKE ?", "%"+filter.Search+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "client_id":
			query = query.Where("client_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("issue_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("issue_date <= ?", t)
			}
		}
	}
	return query
}

// paginate applies ordering and pagination to the query
func (r *GormQuotationRepository) paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
	return query
}

// Ensure GormQuotationRepository implements billing.QuotationRepository
var _ billing.QuotationRepository = (*GormQuotationRepository)(nil)
