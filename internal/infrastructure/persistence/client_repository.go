package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/domain/shared"
)

// GormClientRepository implements partner.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *partner.Client) error {
	return execWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Save(client).Error
	})
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	var client partner.Client
	err := execWithRetry(ctx, func(ctx context.Context) error {
		if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
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
	return &client, nil
}

// FindAll finds clients matching the filter, with pagination
func (r *GormClientRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*partner.Client], error) {
	var (
		clients []*partner.Client
		total   int64
	)
	err := execWithRetry(ctx, func(ctx context.Context) error {
		query := r.db.WithContext(ctx).Model(&partner.Client{})
		if filter.Search != "" {
			pattern := "%" + filter.Search + "%"
			query = query.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
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
		return query.Find(&clients).Error
	})
	if err != nil {
		return shared.Paginated[*partner.Client]{}, err
	}
	return shared.NewPaginated(clients, total, filter.Page, filter.PageSize), nil
}

// Delete removes a client
func (r *GormClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execWithRetry(ctx, func(ctx context.Context) error {
		result := r.db.WithContext(ctx).Delete(&partner.Client{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure GormClientRepository implements partner.ClientRepository
var _ partner.ClientRepository = (*GormClientRepository)(nil)
