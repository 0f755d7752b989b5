package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gescom/backend/internal/domain/billing"
)

// DefaultSeriesFloor is the first value issued per series and year, so
// the opening document of a year is PROF-YYYY-1000.
const DefaultSeriesFloor = 1000

// CounterNumberGenerator issues document numbers from a counter table.
// The increment is a single atomic upsert, so concurrent callers each
// get a distinct value without taking an application-level lock.
type CounterNumberGenerator struct {
	db    *gorm.DB
	floor int
}

// NewCounterNumberGenerator creates a new CounterNumberGenerator. A
// floor of zero or less falls back to DefaultSeriesFloor.
func NewCounterNumberGenerator(db *gorm.DB, floor int) *CounterNumberGenerator {
	if floor <= 0 {
		floor = DefaultSeriesFloor
	}
	return &CounterNumberGenerator{db: db, floor: floor}
}

// Next returns the next number in the series for the kind and year,
// formatted as PREFIX-YYYY-NNNN.
func (g *CounterNumberGenerator) Next(ctx context.Context, kind billing.DocumentKind, year int) (string, error) {
	var value int64
	err := execWithRetry(ctx, func(ctx context.Context) error {
		return g.db.WithContext(ctx).Raw(`
			INSERT INTO document_counters (kind, year, value)
			VALUES (?, ?, ?)
			ON CONFLICT (kind, year)
			DO UPDATE SET value = document_counters.value + 1
			RETURNING value`,
			string(kind), year, g.floor,
		).Scan(&value).Error
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%d", kind.Prefix(), year, value), nil
}

// Ensure CounterNumberGenerator implements billing.NumberGenerator
var _ billing.NumberGenerator = (*CounterNumberGenerator)(nil)
