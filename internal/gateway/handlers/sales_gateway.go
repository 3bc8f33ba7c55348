package handlers

import (
	"net/http"

	"github.com/Pravinkumar0908/business/internal/database/models"
	"github.com/Pravinkumar0908/business/internal/gateway/middleware"
	saleshandler "github.com/Pravinkumar0908/business/internal/services/sales/handler"

	"github.com/gin-gonic/gin"
)

type SalesHTTPHandler struct {
	sales *saleshandler.SalesHandler
	opts  Options
}

func NewSalesHTTPHandler(sales *saleshandler.SalesHandler, opts Options) *SalesHTTPHandler {
	return &SalesHTTPHandler{sales: sales, opts: opts}
}

type VoidSaleRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *SalesHTTPHandler) CreateSale(c *gin.Context) {
	var req saleshandler.CreateSaleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	sale, err := h.sales.CreateSale(ctx, middleware.TenantID(c), middleware.UserID(c), req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Sale recorded", sale))
}

func (h *SalesHTTPHandler) ListSales(c *gin.Context) {
	page, size := pageQuery(c)

	ctx, cancel := h.opts.context(c)
	defer cancel()

	sales, total, err := h.sales.ListSales(ctx, middleware.TenantID(c), saleshandler.ListSalesFilter{
		CustomerID: c.Query("customer_id"),
		Status:     models.SaleStatus(c.Query("status")),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Sales retrieved", sales, PageMeta{Page: page, PageSize: size, Total: total}))
}

func (h *SalesHTTPHandler) GetSale(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	sale, err := h.sales.GetSale(ctx, middleware.TenantID(c), c.Param("id"))
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Sale retrieved", sale))
}

func (h *SalesHTTPHandler) VoidSale(c *gin.Context) {
	var req VoidSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	sale, err := h.sales.VoidSale(ctx, middleware.TenantID(c), c.Param("id"), req.Reason, middleware.UserID(c))
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Sale voided", sale))
}
