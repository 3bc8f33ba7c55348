package handlers

import (
	"net/http"

	"github.com/Pravinkumar0908/business/internal/gateway/middleware"
	ledgerhandler "github.com/Pravinkumar0908/business/internal/services/ledger/handler"

	"github.com/gin-gonic/gin"
)

// LedgerHTTPHandler serves one book; the router mounts one per book.
type LedgerHTTPHandler struct {
	ledger *ledgerhandler.LedgerHandler
	book   ledgerhandler.Book
	opts   Options
}

func NewLedgerHTTPHandler(ledger *ledgerhandler.LedgerHandler, book ledgerhandler.Book, opts Options) *LedgerHTTPHandler {
	return &LedgerHTTPHandler{ledger: ledger, book: book, opts: opts}
}

func (h *LedgerHTTPHandler) ListParties(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	balances, err := h.ledger.ListBalances(ctx, middleware.TenantID(c), h.book, c.Query("search"))
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(h.book.Name+" retrieved", balances))
}

func (h *LedgerHTTPHandler) Stats(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	stats, err := h.ledger.Stats(ctx, middleware.TenantID(c), h.book)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Stats retrieved", stats))
}

func (h *LedgerHTTPHandler) CreateParty(c *gin.Context) {
	var req ledgerhandler.PartyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	party, err := h.ledger.CreateParty(ctx, middleware.TenantID(c), h.book, req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Created", party))
}

func (h *LedgerHTTPHandler) GetParty(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	party, err := h.ledger.GetParty(ctx, middleware.TenantID(c), h.book, c.Param("id"))
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Retrieved", party))
}

func (h *LedgerHTTPHandler) UpdateParty(c *gin.Context) {
	var req ledgerhandler.PartyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	party, err := h.ledger.UpdateParty(ctx, middleware.TenantID(c), h.book, c.Param("id"), req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Updated", party))
}

func (h *LedgerHTTPHandler) DeleteParty(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	if err := h.ledger.DeleteParty(ctx, middleware.TenantID(c), h.book, c.Param("id")); err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Deleted", nil))
}

func (h *LedgerHTTPHandler) PostTransaction(c *gin.Context) {
	var req ledgerhandler.PostTransactionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.ActorID = middleware.UserID(c)

	ctx, cancel := h.opts.context(c)
	defer cancel()

	entry, err := h.ledger.PostTransaction(ctx, middleware.TenantID(c), h.book, c.Param("id"), req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Transaction recorded", entry))
}

func (h *LedgerHTTPHandler) PostPayment(c *gin.Context) {
	var req ledgerhandler.PostPaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.ActorID = middleware.UserID(c)

	ctx, cancel := h.opts.context(c)
	defer cancel()

	entry, err := h.ledger.PostPayment(ctx, middleware.TenantID(c), h.book, c.Param("id"), req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Payment recorded", entry))
}

func (h *LedgerHTTPHandler) Summary(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	summary, err := h.ledger.Summary(ctx, middleware.TenantID(c), h.book, c.Param("id"))
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Summary retrieved", summary))
}

func (h *LedgerHTTPHandler) ListTransactions(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	entries, err := h.ledger.ListTransactions(ctx, middleware.TenantID(c), h.book, c.Param("id"))
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Transactions retrieved", entries))
}

func (h *LedgerHTTPHandler) ListPayments(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	entries, err := h.ledger.ListPayments(ctx, middleware.TenantID(c), h.book, c.Param("id"))
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Payments retrieved", entries))
}
