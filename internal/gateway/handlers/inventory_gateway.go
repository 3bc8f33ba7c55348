package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Pravinkumar0908/business/internal/gateway/middleware"
	invhandler "github.com/Pravinkumar0908/business/internal/services/inventory/handler"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type InventoryHTTPHandler struct {
	inventory *invhandler.InventoryHandler
	opts      Options
}

func NewInventoryHTTPHandler(inventory *invhandler.InventoryHandler, opts Options) *InventoryHTTPHandler {
	return &InventoryHTTPHandler{inventory: inventory, opts: opts}
}

// SetStockRequest takes stock loosely: numbers and numeric strings are
// accepted, anything else counts as zero.
type SetStockRequest struct {
	Stock json.RawMessage `json:"stock"`
}

func (r SetStockRequest) value() decimal.Decimal {
	if len(r.Stock) == 0 {
		return decimal.Zero
	}
	dec := json.NewDecoder(bytes.NewReader(r.Stock))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return decimal.Zero
	}

	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

type DeductStockRequest struct {
	Items []invhandler.StockLine `json:"items" binding:"required"`
}

func (s *InventoryHTTPHandler) CreateProduct(c *gin.Context) {
	var req invhandler.CreateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := s.opts.context(c)
	defer cancel()

	product, err := s.inventory.CreateProduct(ctx, middleware.TenantID(c), req)
	if err != nil {
		s.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Product created", product))
}

func (s *InventoryHTTPHandler) ListProducts(c *gin.Context) {
	page, size := pageQuery(c)

	ctx, cancel := s.opts.context(c)
	defer cancel()

	products, total, err := s.inventory.ListProducts(ctx, middleware.TenantID(c), invhandler.ListProductsFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		s.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Products retrieved", products, PageMeta{Page: page, PageSize: size, Total: total}))
}

func (s *InventoryHTTPHandler) GetProduct(c *gin.Context) {
	ctx, cancel := s.opts.context(c)
	defer cancel()

	product, err := s.inventory.GetProduct(ctx, middleware.TenantID(c), c.Param("id"))
	if err != nil {
		s.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Product retrieved", product))
}

func (s *InventoryHTTPHandler) UpdateProduct(c *gin.Context) {
	var req invhandler.UpdateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := s.opts.context(c)
	defer cancel()

	product, err := s.inventory.UpdateProduct(ctx, middleware.TenantID(c), c.Param("id"), req)
	if err != nil {
		s.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Product updated", product))
}

func (s *InventoryHTTPHandler) DeleteProduct(c *gin.Context) {
	ctx, cancel := s.opts.context(c)
	defer cancel()

	if err := s.inventory.DeleteProduct(ctx, middleware.TenantID(c), c.Param("id")); err != nil {
		s.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Product deleted", nil))
}

func (s *InventoryHTTPHandler) SetStock(c *gin.Context) {
	var req SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := s.opts.context(c)
	defer cancel()

	product, err := s.inventory.SetStock(ctx, middleware.TenantID(c), c.Param("id"), req.value(), middleware.UserID(c))
	if err != nil {
		s.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Stock updated", product))
}

func (s *InventoryHTTPHandler) DeductStock(c *gin.Context) {
	var req DeductStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := s.opts.context(c)
	defer cancel()

	result, err := s.inventory.DeductStock(ctx, middleware.TenantID(c), req.Items, invhandler.StockRef{
		Type:    "manual",
		ActorID: middleware.UserID(c),
	})
	if err != nil {
		s.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Stock deducted", result))
}

func (s *InventoryHTTPHandler) ListLowStock(c *gin.Context) {
	ctx, cancel := s.opts.context(c)
	defer cancel()

	products, err := s.inventory.ListLowStock(ctx, middleware.TenantID(c))
	if err != nil {
		s.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Low stock products retrieved", products))
}

func (s *InventoryHTTPHandler) ListMovements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	ctx, cancel := s.opts.context(c)
	defer cancel()

	movements, err := s.inventory.ListMovements(ctx, middleware.TenantID(c), c.Param("id"), limit)
	if err != nil {
		s.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Stock movements retrieved", movements))
}
