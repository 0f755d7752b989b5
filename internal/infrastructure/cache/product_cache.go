package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/domain/catalog"
	"github.com/gescom/backend/internal/domain/shared"
)

// CachedProductRepository is a read-through cache in front of the
// product repository. Cache failures degrade to the database: a Redis
// outage slows lookups down but never fails them.
type CachedProductRepository struct {
	inner  catalog.ProductRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository wraps a product repository with Redis caching
func NewCachedProductRepository(inner catalog.ProductRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func productKey(id uuid.UUID) string {
	return fmt.Sprintf("gescom:product:%s", id)
}

// FindByID returns the cached product if present, falling back to the
// database and populating the cache on a miss.
func (r *CachedProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	key := productKey(id)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var product catalog.Product
		if jsonErr := json.Unmarshal(data, &product); jsonErr == nil {
			return &product, nil
		}
		// Corrupt entry, drop it and fall through to the database
		r.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("product cache read failed", zap.String("key", key), zap.Error(err))
	}

	product, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, product)
	return product, nil
}

// FindBySKU bypasses the cache; SKU lookups are rare admin operations
func (r *CachedProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return r.inner.FindBySKU(ctx, sku)
}

// FindAll bypasses the cache
func (r *CachedProductRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*catalog.Product], error) {
	return r.inner.FindAll(ctx, filter)
}

// Save writes through and invalidates the cached entry
func (r *CachedProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	if err := r.inner.Save(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx, product.ID)
	return nil
}

// Delete removes the product and its cached entry
func (r *CachedProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedProductRepository) store(ctx context.Context, key string, product *catalog.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("product cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedProductRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.client.Del(ctx, productKey(id)).Err(); err != nil {
		r.logger.Warn("product cache invalidation failed",
			zap.String("product_id", id.String()), zap.Error(err))
	}
}

// Ensure CachedProductRepository implements catalog.ProductRepository
var _ catalog.ProductRepository = (*CachedProductRepository)(nil)
