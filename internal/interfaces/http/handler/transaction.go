package handler

import (
	ledgerapp "github.com/btp-erp/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// TransactionHandler exposes the finance ledger
type TransactionHandler struct {
	BaseHandler
	service *ledgerapp.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(service *ledgerapp.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// List godoc
// @Summary      List ledger entries
// @Tags         finance
// @Produce      json
// @Param        type query string false "Type" Enums(entrée, sortie)
// @Param        category query string false "Category"
// @Param        status query string false "Status" Enums(validée, en attente, annulée)
// @Param        origin query string false "Origin" Enums(manual, system)
// @Param        date_from query string false "On or after (YYYY-MM-DD)"
// @Param        date_to query string false "On or before (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[[]ledgerapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /finance/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var filter ledgerapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	txs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, txs, total, page, size)
}

// Create godoc
// @Summary      Record a manual ledger entry
// @Tags         finance
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.CreateTransactionRequest true "Entry"
// @Success      201 {object} APIResponse[ledgerapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /finance/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req ledgerapp.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	tx, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// GetByID returns one ledger entry
// @Router /finance/transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	tx, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Update edits a ledger entry
// @Router /finance/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req ledgerapp.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	tx, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Delete godoc
// @Summary      Delete a ledger entry
// @Description  Deleting an entry that references an invoice succeeds with a REFERENTIAL_GAP_WARNING.
// @Tags         finance
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.DeleteTransactionResult]
// @Failure      404 {object} ErrorResponse
// @Router       /finance/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
