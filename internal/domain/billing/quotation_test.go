package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
)

func pct(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func newDraftQuotation(t *testing.T) *Quotation {
	t.Helper()
	q, err := NewQuotation("PROF-2026-1000", uuid.New(), time.Time{}, time.Now().AddDate(0, 0, 30))
	require.NoError(t, err)
	return q
}

func TestComputeLineTotal(t *testing.T) {
	tests := []struct {
		name            string
		unitPrice       int64
		quantity        int
		discountPercent int64
		expected        int64
	}{
		{"no discount", 1000, 2, 0, 2000},
		{"ten percent off two units", 1000, 2, 10, 1800},
		{"full discount zeroes the line", 1000, 3, 100, 0},
		{"single unit", 2500, 1, 0, 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := ComputeLineTotal(valueobject.NewMoneyFromInt(tt.unitPrice, "XOF"), tt.quantity, pct(tt.discountPercent))
			assert.True(t, total.Amount.Equal(decimal.NewFromInt(tt.expected)),
				"got %s, want %d", total.Amount, tt.expected)
		})
	}

	t.Run("rounds once at the end", func(t *testing.T) {
		// 333 x 3 at 33% = 669.33... -> 669
		total := ComputeLineTotal(valueobject.NewMoneyFromInt(333, "XOF"), 3, pct(33))
		assert.Equal(t, "669", total.Amount.String())
	})
}

func TestNewQuotation(t *testing.T) {
	t.Run("creates valid draft", func(t *testing.T) {
		clientID := uuid.New()
		q, err := NewQuotation("PROF-2026-1000", clientID, time.Time{}, time.Now().AddDate(0, 0, 15))

		require.NoError(t, err)
		assert.Equal(t, QuotationStatusDraft, q.Status)
		assert.Equal(t, clientID, q.ClientID)
		assert.Equal(t, "XOF", q.Currency)
		assert.True(t, q.TaxRate.Equal(decimal.NewFromInt(18)))
		assert.Equal(t, 1, q.GetVersion())
		assert.Len(t, q.GetDomainEvents(), 1)
		assert.Equal(t, EventQuotationCreated, q.GetDomainEvents()[0].EventType())
	})

	t.Run("defaults validity to thirty days", func(t *testing.T) {
		q, err := NewQuotation("PROF-2026-1001", uuid.New(), time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, DefaultValidityDays), q.ValidUntil, time.Minute)
	})

	t.Run("rejects missing number", func(t *testing.T) {
		_, err := NewQuotation("", uuid.New(), time.Time{}, time.Time{})
		assertDomainCode(t, err, shared.CodeValidation)
	})

	t.Run("rejects missing client", func(t *testing.T) {
		_, err := NewQuotation("PROF-2026-1002", uuid.Nil, time.Time{}, time.Time{})
		assertDomainCode(t, err, shared.CodeValidation)
	})

	t.Run("rejects validity before the issue date", func(t *testing.T) {
		_, err := NewQuotation("PROF-2026-1003", uuid.New(), time.Time{}, time.Now().AddDate(0, 0, -5))
		assertDomainCode(t, err, shared.CodeValidation)
	})

	t.Run("honors a caller-set issue date", func(t *testing.T) {
		issued := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
		q, err := NewQuotation("PROF-2026-1004", uuid.New(), issued, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, issued, q.IssueDate)
		assert.Equal(t, issued.AddDate(0, 0, DefaultValidityDays), q.ValidUntil)
	})

	t.Run("back-dated document with matching validity is accepted", func(t *testing.T) {
		issued := time.Now().AddDate(0, 0, -10)
		q, err := NewQuotation("PROF-2026-1005", uuid.New(), issued, issued.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.True(t, q.ValidUntil.Before(time.Now()))
	})
}

func TestQuotationAddItem(t *testing.T) {
	t.Run("adds line and recomputes totals", func(t *testing.T) {
		q := newDraftQuotation(t)

		err := q.AddItem(uuid.New(), "Cement bags", valueobject.NewMoneyFromInt(1000, "XOF"), 2, pct(10))
		require.NoError(t, err)

		require.Len(t, q.Items, 1)
		assert.Equal(t, "1800", q.Subtotal.Amount.String())
		assert.Equal(t, "324", q.TaxAmount.Amount.String())
		assert.Equal(t, "2124", q.Total.Amount.String())
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		q := newDraftQuotation(t)
		err := q.AddItem(uuid.New(), "Cement bags", valueobject.NewMoneyFromInt(1000, "XOF"), 0, pct(0))
		assertDomainCode(t, err, shared.CodeValidation)
	})

	t.Run("rejects discount above 100", func(t *testing.T) {
		q := newDraftQuotation(t)
		err := q.AddItem(uuid.New(), "Cement bags", valueobject.NewMoneyFromInt(1000, "XOF"), 1, pct(101))
		assertDomainCode(t, err, shared.CodeValidation)
	})

	t.Run("rejects mutation after conversion", func(t *testing.T) {
		q := convertedQuotation(t)
		err := q.AddItem(uuid.New(), "Extra", valueobject.NewMoneyFromInt(100, "XOF"), 1, pct(0))
		assertDomainCode(t, err, shared.CodeInvalid)
	})
}

func TestQuotationTotalsWithGlobalDiscountAndTax(t *testing.T) {
	q := newDraftQuotation(t)
	require.NoError(t, q.AddItem(uuid.New(), "Steel rods", valueobject.NewMoneyFromInt(2500, "XOF"), 4, pct(0)))

	// subtotal 10000, 5% discount -> 500, base 9500, 18% tax -> 1710, total 11210
	discount, err := NewDiscount(DiscountPercentage, pct(5))
	require.NoError(t, err)
	require.NoError(t, q.SetDiscount(discount))

	assert.Equal(t, "10000", q.Subtotal.Amount.String())
	assert.Equal(t, "500", q.DiscountAmount.Amount.String())
	assert.Equal(t, "1710", q.TaxAmount.Amount.String())
	assert.Equal(t, "11210", q.Total.Amount.String())
}

func TestQuotationFixedDiscount(t *testing.T) {
	t.Run("applies fixed amount", func(t *testing.T) {
		q := newDraftQuotation(t)
		require.NoError(t, q.AddItem(uuid.New(), "Steel rods", valueobject.NewMoneyFromInt(2500, "XOF"), 4, pct(0)))

		discount, err := NewDiscount(DiscountFixed, decimal.NewFromInt(1500))
		require.NoError(t, err)
		require.NoError(t, q.SetDiscount(discount))

		assert.Equal(t, "1500", q.DiscountAmount.Amount.String())
		assert.Equal(t, "8500", q.Subtotal.Amount.Sub(q.DiscountAmount.Amount).String())
	})

	t.Run("rejects fixed discount above subtotal", func(t *testing.T) {
		q := newDraftQuotation(t)
		require.NoError(t, q.AddItem(uuid.New(), "Steel rods", valueobject.NewMoneyFromInt(2500, "XOF"), 4, pct(0)))

		discount, err := NewDiscount(DiscountFixed, decimal.NewFromInt(20000))
		require.NoError(t, err)

		err = q.SetDiscount(discount)
		assertDomainCode(t, err, shared.CodeValidation)
		// totals untouched by the failed mutation
		assert.Equal(t, "0", q.DiscountAmount.Amount.String())
		assert.Equal(t, "11800", q.Total.Amount.String())
	})
}

func TestQuotationUpdateAndRemoveItem(t *testing.T) {
	t.Run("update recomputes line and totals", func(t *testing.T) {
		q := newDraftQuotation(t)
		require.NoError(t, q.AddItem(uuid.New(), "Cement bags", valueobject.NewMoneyFromInt(1000, "XOF"), 2, pct(10)))
		itemID := q.Items[0].ID

		require.NoError(t, q.UpdateItem(itemID, 5, pct(0)))
		assert.Equal(t, "5000", q.Subtotal.Amount.String())
	})

	t.Run("update unknown item", func(t *testing.T) {
		q := newDraftQuotation(t)
		err := q.UpdateItem(uuid.New(), 2, pct(0))
		assertDomainCode(t, err, shared.CodeNotFound)
	})

	t.Run("remove empties totals", func(t *testing.T) {
		q := newDraftQuotation(t)
		require.NoError(t, q.AddItem(uuid.New(), "Cement bags", valueobject.NewMoneyFromInt(1000, "XOF"), 2, pct(0)))
		require.NoError(t, q.RemoveItem(q.Items[0].ID))

		assert.Empty(t, q.Items)
		assert.True(t, q.Total.IsZero())
	})
}

func TestQuotationTaxRate(t *testing.T) {
	q := newDraftQuotation(t)
	require.NoError(t, q.AddItem(uuid.New(), "Cement bags", valueobject.NewMoneyFromInt(1000, "XOF"), 10, pct(0)))

	t.Run("zero rate", func(t *testing.T) {
		require.NoError(t, q.SetTaxRate(decimal.Zero))
		assert.True(t, q.TaxAmount.IsZero())
		assert.Equal(t, "10000", q.Total.Amount.String())
	})

	t.Run("negative rate rejected", func(t *testing.T) {
		err := q.SetTaxRate(decimal.NewFromInt(-1))
		assertDomainCode(t, err, shared.CodeValidation)
	})

	t.Run("rate above 100 accepted", func(t *testing.T) {
		require.NoError(t, q.SetTaxRate(decimal.NewFromInt(120)))
		assert.Equal(t, "12000", q.TaxAmount.Amount.String())
		assert.Equal(t, "22000", q.Total.Amount.String())
	})
}

func TestQuotationConversion(t *testing.T) {
	t.Run("marks converted once", func(t *testing.T) {
		q := newDraftQuotation(t)
		require.NoError(t, q.AddItem(uuid.New(), "Cement bags", valueobject.NewMoneyFromInt(1000, "XOF"), 2, pct(0)))

		invoiceID := uuid.New()
		require.NoError(t, q.MarkConverted(invoiceID, "FACT-2026-1000"))

		assert.Equal(t, QuotationStatusConverted, q.Status)
		require.NotNil(t, q.InvoiceID)
		assert.Equal(t, invoiceID, *q.InvoiceID)
		assert.NotNil(t, q.ConvertedAt)
	})

	t.Run("second conversion fails", func(t *testing.T) {
		q := convertedQuotation(t)
		err := q.MarkConverted(uuid.New(), "FACT-2026-1001")
		assertDomainCode(t, err, shared.CodeInvalid)
	})

	t.Run("conversion without items fails", func(t *testing.T) {
		q := newDraftQuotation(t)
		err := q.MarkConverted(uuid.New(), "FACT-2026-1002")
		assertDomainCode(t, err, shared.CodeInvalid)
	})
}

func TestQuotationIsExpired(t *testing.T) {
	q := newDraftQuotation(t)
	require.NoError(t, q.SetValidUntil(time.Now().Add(time.Hour)))

	assert.False(t, q.IsExpired(time.Now()))
	assert.True(t, q.IsExpired(time.Now().Add(2*time.Hour)))
}

func convertedQuotation(t *testing.T) *Quotation {
	t.Helper()
	q := newDraftQuotation(t)
	require.NoError(t, q.AddItem(uuid.New(), "Cement bags", valueobject.NewMoneyFromInt(1000, "XOF"), 2, pct(0)))
	require.NoError(t, q.MarkConverted(uuid.New(), "FACT-2026-1000"))
	return q
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}
