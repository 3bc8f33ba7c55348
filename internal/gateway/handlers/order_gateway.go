package handlers

import (
	"net/http"

	"github.com/Pravinkumar0908/business/internal/database/models"
	"github.com/Pravinkumar0908/business/internal/gateway/middleware"
	ordershandler "github.com/Pravinkumar0908/business/internal/services/orders/handler"

	"github.com/gin-gonic/gin"
)

type OrderHTTPHandler struct {
	orders *ordershandler.OrderHandler
	opts   Options
}

func NewOrderHTTPHandler(orders *ordershandler.OrderHandler, opts Options) *OrderHTTPHandler {
	return &OrderHTTPHandler{orders: orders, opts: opts}
}

type AddItemsRequest struct {
	Items []ordershandler.ItemInput `json:"items"`
}

type UpdateItemStatusRequest struct {
	Status models.ItemStatus `json:"status" binding:"required"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHTTPHandler) CreateOrder(c *gin.Context) {
	var req ordershandler.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	order, err := h.orders.CreateOrder(ctx, middleware.TenantID(c), middleware.UserID(c), req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Order created", order))
}

func (h *OrderHTTPHandler) ListOrders(c *gin.Context) {
	page, size := pageQuery(c)
	filter := ordershandler.ListOrdersFilter{
		All:      boolQuery(c, "all"),
		Status:   models.OrderStatus(c.Query("status")),
		TableID:  c.Query("table_id"),
		Page:     page,
		PageSize: size,
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	orders, total, err := h.orders.ListOrders(ctx, middleware.TenantID(c), filter)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Orders retrieved", orders, PageMeta{Page: page, PageSize: size, Total: total}))
}

func (h *OrderHTTPHandler) GetOrder(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, middleware.TenantID(c), c.Param("id"))
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order retrieved", order))
}

func (h *OrderHTTPHandler) UpdateOrder(c *gin.Context) {
	var req ordershandler.UpdateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.ActorID = middleware.UserID(c)

	ctx, cancel := h.opts.context(c)
	defer cancel()

	order, err := h.orders.UpdateOrder(ctx, middleware.TenantID(c), c.Param("id"), req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order updated", order))
}

// CancelOrder accepts an optional JSON body or ?reason= query.
func (h *OrderHTTPHandler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}
	if req.Reason == "" {
		req.Reason = c.Query("reason")
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	order, err := h.orders.CancelOrder(ctx, middleware.TenantID(c), c.Param("id"), req.Reason, middleware.UserID(c))
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order cancelled", order))
}

func (h *OrderHTTPHandler) AddItems(c *gin.Context) {
	var req AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	order, err := h.orders.AddItems(ctx, middleware.TenantID(c), c.Param("id"), req.Items)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Items added", order))
}

func (h *OrderHTTPHandler) UpdateItemStatus(c *gin.Context) {
	var req UpdateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	result, err := h.orders.UpdateItemStatus(ctx, middleware.TenantID(c), c.Param("id"), c.Param("itemId"), req.Status)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Item status updated", result))
}
