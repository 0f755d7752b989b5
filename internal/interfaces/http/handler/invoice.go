package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/gescom/backend/internal/application/billing"
	"github.com/gescom/backend/internal/domain/billing"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/gescom/backend/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoice API endpoints. Invoices are created
// only by converting a quotation; this handler exposes reads and
// lifecycle transitions.
type InvoiceHandler struct {
	BaseHandler
	conversions *billingapp.ConversionService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(conversions *billingapp.ConversionService) *InvoiceHandler {
	return &InvoiceHandler{conversions: conversions}
}

// listInvoicesRequest carries invoice list filters
type listInvoicesRequest struct {
	dto.ListRequest
	Status   string `form:"status" binding:"omitempty,oneof=draft sent paid cancelled"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
}

// transitionInvoiceRequest moves an invoice to a new lifecycle state
type transitionInvoiceRequest struct {
	Version int    `json:"version" binding:"required,min=1"`
	Status  string `json:"status" binding:"required,oneof=sent paid cancelled"`
}

// Get handles GET /billing/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	invoice, err := h.conversions.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoice(invoice))
}

// List handles GET /billing/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var req listInvoicesRequest
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

	page, err := h.conversions.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.FromInvoices(page.Items), page.Total, filter.Page, filter.PageSize)
}

// Transition handles POST /billing/invoices/:id/status
func (h *InvoiceHandler) Transition(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req transitionInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.conversions.TransitionInvoice(
		c.Request.Context(), id, req.Version, billing.InvoiceStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoice(invoice))
}
