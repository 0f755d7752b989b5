package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	billingapp "github.com/gescom/backend/internal/application/billing"
	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/catalog"
	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/domain/shared/valueobject"
)

type quotationTestFixture struct {
	router      *gin.Engine
	quotations  *mockQuotationRepository
	invoices    *mockInvoiceRepository
	products    *mockProductRepository
	clients     *mockClientRepository
	numbers     *mockNumberGenerator
	eventBus    *mockEventBus
}

func setupQuotationTest(t *testing.T) *quotationTestFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &quotationTestFixture{
		quotations: new(mockQuotationRepository),
		invoices:   new(mockInvoiceRepository),
		products:   new(mockProductRepository),
		clients:    new(mockClientRepository),
		numbers:    new(mockNumberGenerator),
		eventBus:   new(mockEventBus),
	}

	logger := zap.NewNop()
	quotationService := billingapp.NewQuotationService(
		f.quotations, f.products, f.clients, f.numbers, f.eventBus, logger)
	conversionService := billingapp.NewConversionService(
		f.quotations, f.invoices, f.numbers, f.eventBus, logger)
	h := NewQuotationHandler(quotationService, conversionService)

	f.router = gin.New()
	f.router.POST("/quotations", h.Create)
	f.router.GET("/quotations", h.List)
	f.router.GET("/quotations/:id", h.Get)
	f.router.PATCH("/quotations/:id", h.Update)
	f.router.POST("/quotations/:id/convert", h.Convert)
	f.router.DELETE("/quotations/:id", h.Delete)
	return f
}

func testClient(t *testing.T) *partner.Client {
	t.Helper()
	client, err := partner.NewClient("Sogetra SARL", "contact@sogetra.sn", "", "")
	require.NoError(t, err)
	return client
}

func testProduct(t *testing.T, price int64) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct("SVC-001", "Installation", valueobject.NewMoneyFromInt(price, valueobject.DefaultCurrency))
	require.NoError(t, err)
	return product
}

func testQuotation(t *testing.T, productID uuid.UUID) *billing.Quotation {
	t.Helper()
	quotation, err := billing.NewQuotation("PROF-2026-1000", uuid.New(), time.Time{}, time.Now().AddDate(0, 0, 30))
	require.NoError(t, err)
	err = quotation.AddItem(productID, "Installation", valueobject.NewMoneyFromInt(5000, valueobject.DefaultCurrency), 2, decimal.Zero)
	require.NoError(t, err)
	quotation.ClearDomainEvents()
	return quotation
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeEnvelope(t, w)
	errInfo, ok := resp["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", w.Body.String())
	return errInfo["code"].(string)
}

func TestQuotationHandler_Create(t *testing.T) {
	t.Run("creates a draft quotation", func(t *testing.T) {
		f := setupQuotationTest(t)

		client := testClient(t)
		product := testProduct(t, 5000)

		f.clients.On("FindByID", mock.Anything, client.ID).Return(client, nil)
		f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		f.numbers.On("Next", mock.Anything, billing.DocumentKindQuotation, mock.Anything).
			Return("PROF-2026-1000", nil)
		f.quotations.On("Save", mock.Anything, mock.AnythingOfType("*billing.Quotation")).Return(nil)
		f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

		w := doJSON(f.router, http.MethodPost, "/quotations", gin.H{
			"client_id": client.ID,
			"items": []gin.H{
				{"product_id": product.ID, "quantity": 2},
			},
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decodeEnvelope(t, w)
		assert.True(t, resp["success"].(bool))
		data := resp["data"].(map[string]any)
		assert.Equal(t, "PROF-2026-1000", data["number"])
		assert.Equal(t, "draft", data["status"])
		assert.Equal(t, "10000", data["subtotal"])
		assert.Equal(t, "11800", data["total"])
		assert.Equal(t, float64(1), data["version"])
		f.quotations.AssertExpectations(t)
	})

	t.Run("rejects unknown client with 404", func(t *testing.T) {
		f := setupQuotationTest(t)

		clientID := uuid.New()
		f.clients.On("FindByID", mock.Anything, clientID).Return(nil, shared.ErrNotFound)

		w := doJSON(f.router, http.MethodPost, "/quotations", gin.H{
			"client_id": clientID,
			"items": []gin.H{
				{"product_id": uuid.New(), "quantity": 1},
			},
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, shared.CodeNotFound, errorCode(t, w))
	})

	t.Run("creates an item-less draft with zero totals", func(t *testing.T) {
		f := setupQuotationTest(t)
		client := testClient(t)

		f.clients.On("FindByID", mock.Anything, client.ID).Return(client, nil)
		f.numbers.On("Next", mock.Anything, billing.DocumentKindQuotation, mock.Anything).
			Return("PROF-2026-1001", nil)
		f.quotations.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

		w := doJSON(f.router, http.MethodPost, "/quotations", gin.H{
			"client_id": client.ID,
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := decodeEnvelope(t, w)["data"].(map[string]any)
		assert.Empty(t, data["items"])
		assert.Equal(t, "0", data["subtotal"])
		assert.Equal(t, "0", data["total"])
	})

	t.Run("honors a caller-set issue date", func(t *testing.T) {
		f := setupQuotationTest(t)
		client := testClient(t)

		f.clients.On("FindByID", mock.Anything, client.ID).Return(client, nil)
		f.numbers.On("Next", mock.Anything, billing.DocumentKindQuotation, mock.Anything).
			Return("PROF-2026-1002", nil)
		f.quotations.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

		w := doJSON(f.router, http.MethodPost, "/quotations", gin.H{
			"client_id":  client.ID,
			"issue_date": "2026-02-10T00:00:00Z",
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := decodeEnvelope(t, w)["data"].(map[string]any)
		assert.Equal(t, "2026-02-10T00:00:00Z", data["issue_date"])
	})

	t.Run("rejects validity before the issue date", func(t *testing.T) {
		f := setupQuotationTest(t)
		client := testClient(t)

		f.clients.On("FindByID", mock.Anything, client.ID).Return(client, nil)
		f.numbers.On("Next", mock.Anything, billing.DocumentKindQuotation, mock.Anything).
			Return("PROF-2026-1003", nil)

		w := doJSON(f.router, http.MethodPost, "/quotations", gin.H{
			"client_id":   client.ID,
			"issue_date":  "2026-02-10T00:00:00Z",
			"valid_until": "2026-02-01T00:00:00Z",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, shared.CodeValidation, errorCode(t, w))
		f.quotations.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestQuotationHandler_Get(t *testing.T) {
	t.Run("returns the quotation", func(t *testing.T) {
		f := setupQuotationTest(t)

		quotation := testQuotation(t, uuid.New())
		f.quotations.On("FindByID", mock.Anything, quotation.ID).Return(quotation, nil)

		w := doJSON(f.router, http.MethodGet, "/quotations/"+quotation.ID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeEnvelope(t, w)["data"].(map[string]any)
		assert.Equal(t, quotation.Number, data["number"])
	})

	t.Run("returns 404 for a missing quotation", func(t *testing.T) {
		f := setupQuotationTest(t)

		id := uuid.New()
		f.quotations.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		w := doJSON(f.router, http.MethodGet, "/quotations/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns 400 for a malformed id", func(t *testing.T) {
		f := setupQuotationTest(t)

		w := doJSON(f.router, http.MethodGet, "/quotations/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestQuotationHandler_List(t *testing.T) {
	f := setupQuotationTest(t)

	quotation := testQuotation(t, uuid.New())
	page := shared.NewPaginated([]*billing.Quotation{quotation}, 1, 1, 20)
	f.quotations.On("FindAll", mock.Anything, mock.Anything).Return(page, nil)

	w := doJSON(f.router, http.MethodGet, "/quotations?status=draft&page=1&page_size=20", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeEnvelope(t, w)
	meta := resp["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["total"])

	filter := f.quotations.Calls[0].Arguments.Get(1).(shared.Filter)
	assert.Equal(t, "draft", filter.Filters["status"])
}

func TestQuotationHandler_ListByYear(t *testing.T) {
	f := setupQuotationTest(t)

	page := shared.NewPaginated([]*billing.Quotation{}, 0, 1, 20)
	f.quotations.On("FindAll", mock.Anything, mock.Anything).Return(page, nil)

	w := doJSON(f.router, http.MethodGet, "/quotations?year=2025", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	filter := f.quotations.Calls[0].Arguments.Get(1).(shared.Filter)
	start := filter.Filters["start_date"].(time.Time)
	end := filter.Filters["end_date"].(time.Time)
	assert.Equal(t, 2025, start.Year())
	assert.Equal(t, time.January, start.Month())
	assert.Equal(t, 2025, end.Year())
	assert.Equal(t, time.December, end.Month())
}

func TestQuotationHandler_Update(t *testing.T) {
	t.Run("rejects a stale version with 409", func(t *testing.T) {
		f := setupQuotationTest(t)

		quotation := testQuotation(t, uuid.New())
		f.quotations.On("FindByID", mock.Anything, quotation.ID).Return(quotation, nil)

		w := doJSON(f.router, http.MethodPatch, "/quotations/"+quotation.ID.String(), gin.H{
			"version": 7,
			"notes":   "rush order",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, shared.CodeConflict, errorCode(t, w))
		f.quotations.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a fixed discount above the subtotal with 422", func(t *testing.T) {
		f := setupQuotationTest(t)

		quotation := testQuotation(t, uuid.New())
		f.quotations.On("FindByID", mock.Anything, quotation.ID).Return(quotation, nil)

		w := doJSON(f.router, http.MethodPatch, "/quotations/"+quotation.ID.String(), gin.H{
			"version":        1,
			"discount_mode":  "fixed",
			"discount_value": "999999999",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		assert.Equal(t, shared.CodeValidation, errorCode(t, w))
	})

	t.Run("applies a partial update", func(t *testing.T) {
		f := setupQuotationTest(t)

		quotation := testQuotation(t, uuid.New())
		f.quotations.On("FindByID", mock.Anything, quotation.ID).Return(quotation, nil)
		f.quotations.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*billing.Quotation"), 1).Return(nil)
		f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

		w := doJSON(f.router, http.MethodPatch, "/quotations/"+quotation.ID.String(), gin.H{
			"version": 1,
			"notes":   "rush order",
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decodeEnvelope(t, w)["data"].(map[string]any)
		assert.Equal(t, "rush order", data["notes"])
	})
}

func TestQuotationHandler_Convert(t *testing.T) {
	t.Run("converts a draft quotation", func(t *testing.T) {
		f := setupQuotationTest(t)

		quotation := testQuotation(t, uuid.New())
		f.quotations.On("FindByID", mock.Anything, quotation.ID).Return(quotation, nil)
		f.numbers.On("Next", mock.Anything, billing.DocumentKindInvoice, mock.Anything).
			Return("FACT-2026-1000", nil)
		f.quotations.On("ConvertToInvoice", mock.Anything,
			mock.AnythingOfType("*billing.Quotation"),
			mock.AnythingOfType("*billing.Invoice"), 1).Return(nil)
		f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

		w := doJSON(f.router, http.MethodPost, "/quotations/"+quotation.ID.String()+"/convert", gin.H{
			"version": 1,
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := decodeEnvelope(t, w)["data"].(map[string]any)
		assert.Equal(t, false, data["expired"])
		invoice := data["invoice"].(map[string]any)
		assert.Equal(t, "FACT-2026-1000", invoice["number"])
		assert.Equal(t, quotation.Total.Amount.String(), invoice["total"])
	})

	t.Run("rejects a second conversion with 409", func(t *testing.T) {
		f := setupQuotationTest(t)

		quotation := testQuotation(t, uuid.New())
		invoiceID := uuid.New()
		require.NoError(t, quotation.MarkConverted(invoiceID, "FACT-2026-1000"))
		f.quotations.On("FindByID", mock.Anything, quotation.ID).Return(quotation, nil)

		w := doJSON(f.router, http.MethodPost, "/quotations/"+quotation.ID.String()+"/convert", gin.H{
			"version": quotation.Version,
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, shared.CodeInvalid, errorCode(t, w))
	})

	t.Run("rejects a stale version with 409", func(t *testing.T) {
		f := setupQuotationTest(t)

		quotation := testQuotation(t, uuid.New())
		f.quotations.On("FindByID", mock.Anything, quotation.ID).Return(quotation, nil)

		w := doJSON(f.router, http.MethodPost, "/quotations/"+quotation.ID.String()+"/convert", gin.H{
			"version": 3,
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, shared.CodeConflict, errorCode(t, w))
	})
}

func TestQuotationHandler_Delete(t *testing.T) {
	t.Run("deletes a draft quotation", func(t *testing.T) {
		f := setupQuotationTest(t)

		quotation := testQuotation(t, uuid.New())
		f.quotations.On("FindByID", mock.Anything, quotation.ID).Return(quotation, nil)
		f.quotations.On("Delete", mock.Anything, quotation.ID).Return(nil)

		w := doJSON(f.router, http.MethodDelete, "/quotations/"+quotation.ID.String(), gin.H{
			"version": 1,
		})

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("rejects deleting a converted quotation", func(t *testing.T) {
		f := setupQuotationTest(t)

		quotation := testQuotation(t, uuid.New())
		require.NoError(t, quotation.MarkConverted(uuid.New(), "FACT-2026-1000"))
		f.quotations.On("FindByID", mock.Anything, quotation.ID).Return(quotation, nil)

		w := doJSON(f.router, http.MethodDelete, "/quotations/"+quotation.ID.String(), gin.H{
			"version": quotation.Version,
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, shared.CodeInvalid, errorCode(t, w))
		f.quotations.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
