package handler

import (
	"net/http"

	salesapp "github.com/btp-erp/backend/internal/application/sales"
	"github.com/gin-gonic/gin"
)

// SalesHandler exposes the order and invoice lifecycle
type SalesHandler struct {
	BaseHandler
	service *salesapp.LifecycleService
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(service *salesapp.LifecycleService) *SalesHandler {
	return &SalesHandler{service: service}
}

// List godoc
// @Summary      List sales records
// @Tags         sales
// @Produce      json
// @Param        client_id query string false "Client ID"
// @Param        status query string false "Status" Enums(en cours, validée, livrée, annulée, facture, payé)
// @Param        date_from query string false "Created on or after (YYYY-MM-DD)"
// @Param        date_to query string false "Created on or before (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]salesapp.SalesRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter salesapp.SalesRecordListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	records, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, records, total, page, size)
}

// Create godoc
// @Summary      Open a new order
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body salesapp.CreateSalesRecordRequest true "Order"
// @Success      201 {object} APIResponse[salesapp.SalesRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /sales [post]
func (h *SalesHandler) Create(c *gin.Context) {
	var req salesapp.CreateSalesRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	record, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// GetByID godoc
// @Summary      Get a sales record
// @Tags         sales
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Success      200 {object} APIResponse[salesapp.SalesRecordResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /sales/{id} [get]
func (h *SalesHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	record, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Update godoc
// @Summary      Partially update a sales record
// @Description  Either a status transition ("status") or, while en cours, line/discount/tax rate edits. Not both.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Param        request body salesapp.UpdateSalesRecordRequest true "Changes"
// @Success      200 {object} APIResponse[salesapp.SalesRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /sales/{id} [put]
func (h *SalesHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req salesapp.UpdateSalesRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	record, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Delete godoc
// @Summary      Delete a sales record
// @Description  Only en cours and annulée orders can be deleted; invoices are audit-protected.
// @Tags         sales
// @Param        id path string true "Record ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /sales/{id} [delete]
func (h *SalesHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Validate moves an order from en cours to validée
// @Router /sales/{id}/validate [post]
func (h *SalesHandler) Validate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	h.respond(c)(h.service.Validate(c.Request.Context(), id))
}

// Deliver moves an order from validée to livrée
// @Router /sales/{id}/deliver [post]
func (h *SalesHandler) Deliver(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	h.respond(c)(h.service.Deliver(c.Request.Context(), id))
}

// Cancel cancels an order or an unpaid invoice
// @Router /sales/{id}/cancel [post]
func (h *SalesHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req salesapp.CancelRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	h.respond(c)(h.service.Cancel(c.Request.Context(), id, req))
}

// GenerateInvoice godoc
// @Summary      Generate the invoice of a validated or delivered order
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Param        request body salesapp.GenerateInvoiceRequest false "Invoice date and pricing overrides"
// @Success      200 {object} APIResponse[salesapp.SalesRecordResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /sales/{id}/invoice [post]
func (h *SalesHandler) GenerateInvoice(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req salesapp.GenerateInvoiceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	h.respond(c)(h.service.GenerateInvoice(c.Request.Context(), id, req))
}

// MarkPaid godoc
// @Summary      Settle an invoice
// @Description  Marks the invoice payé and records the matching income entry in the same transaction.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Record ID" format(uuid)
// @Param        request body salesapp.MarkPaidRequest false "Payment date"
// @Success      200 {object} APIResponse[salesapp.SalesRecordResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /sales/{id}/pay [post]
func (h *SalesHandler) MarkPaid(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req salesapp.MarkPaidRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	h.respond(c)(h.service.MarkPaid(c.Request.Context(), id, req))
}

func (h *SalesHandler) respond(c *gin.Context) func(*salesapp.SalesRecordResponse, error) {
	return func(record *salesapp.SalesRecordResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, record)
	}
}

// bindOptionalJSON binds the body when one was sent; action routes accept an empty body
func (h *BaseHandler) bindOptionalJSON(c *gin.Context, dest any) bool {
	if c.Request.ContentLength == 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil {
		h.BindError(c, err)
		return false
	}
	return true
}

func pageOrDefault(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return page, size
}
