package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/gescom/backend/internal/application/billing"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/interfaces/http/dto"
)

// QuotationHandler handles quotation API endpoints
type QuotationHandler struct {
	BaseHandler
	quotations  *billingapp.QuotationService
	conversions *billingapp.ConversionService
}

// NewQuotationHandler creates a new QuotationHandler
func NewQuotationHandler(quotations *billingapp.QuotationService, conversions *billingapp.ConversionService) *QuotationHandler {
	return &QuotationHandler{
		quotations:  quotations,
		conversions: conversions,
	}
}

// listQuotationsRequest carries quotation list filters. Year narrows
// the result to documents issued in that calendar year.
type listQuotationsRequest struct {
	dto.ListRequest
	Status   string `form:"status" binding:"omitempty,oneof=draft converted"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Year     int    `form:"year" binding:"omitempty,min=1970,max=9999"`
}

// Create handles POST /billing/quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	var req billingapp.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	quotation, err := h.quotations.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromQuotation(quotation))
}

// Get handles GET /billing/quotations/:id
func (h *QuotationHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	quotation, err := h.quotations.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromQuotation(quotation))
}

// List handles GET /billing/quotations
func (h *QuotationHandler) List(c *gin.Context) {
	var req listQuotationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	filter.OrderBy = req.OrderBy
	filter.OrderDir = req.OrderDir
	filter.Search = req.Search
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}
	if req.ClientID != "" {
		filter.Filters["client_id"] = req.ClientID
	}
	if req.Year > 0 {
		start := time.Date(req.Year, time.January, 1, 0, 0, 0, 0, time.Local)
		filter.Filters["start_date"] = start
		filter.Filters["end_date"] = start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	}

	page, err := h.quotations.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.FromQuotations(page.Items), page.Total, filter.Page, filter.PageSize)
}

// Update handles PATCH /billing/quotations/:id
func (h *QuotationHandler) Update(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req billingapp.UpdateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	quotation, err := h.quotations.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromQuotation(quotation))
}

// Convert handles POST /billing/quotations/:id/convert
func (h *QuotationHandler) Convert(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req billingapp.ConvertQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.conversions.Convert(c.Request.Context(), id, req.Version)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ConversionResponse{
		Invoice: dto.FromInvoice(result.Invoice),
		Expired: result.Expired,
	})
}

// Delete handles DELETE /billing/quotations/:id
func (h *QuotationHandler) Delete(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req billingapp.DeleteQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.quotations.Delete(c.Request.Context(), id, req.Version); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *BaseHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
