package handlers

import (
	"net/http"

	"github.com/Pravinkumar0908/business/internal/gateway/middleware"
	cataloghandler "github.com/Pravinkumar0908/business/internal/services/catalog/handler"

	"github.com/gin-gonic/gin"
)

type CatalogHTTPHandler struct {
	catalog *cataloghandler.CatalogHandler
	opts    Options
}

func NewCatalogHTTPHandler(catalog *cataloghandler.CatalogHandler, opts Options) *CatalogHTTPHandler {
	return &CatalogHTTPHandler{catalog: catalog, opts: opts}
}

// --- Tables ---

func (h *CatalogHTTPHandler) ListTables(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	tables, err := h.catalog.ListTables(ctx, middleware.TenantID(c))
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Tables retrieved", tables))
}

func (h *CatalogHTTPHandler) CreateTable(c *gin.Context) {
	var req cataloghandler.CreateTableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	table, err := h.catalog.CreateTable(ctx, middleware.TenantID(c), req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Table created", table))
}

func (h *CatalogHTTPHandler) UpdateTable(c *gin.Context) {
	var req cataloghandler.UpdateTableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	table, err := h.catalog.UpdateTable(ctx, middleware.TenantID(c), c.Param("id"), req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Table updated", table))
}

func (h *CatalogHTTPHandler) DeleteTable(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	if err := h.catalog.DeleteTable(ctx, middleware.TenantID(c), c.Param("id")); err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Table deleted", nil))
}

// --- Menu ---

func (h *CatalogHTTPHandler) ListMenuItems(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	items, err := h.catalog.ListMenuItems(ctx, middleware.TenantID(c), cataloghandler.ListMenuFilter{
		Category:      c.Query("category"),
		AvailableOnly: boolQuery(c, "available"),
	})
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Menu retrieved", items))
}

func (h *CatalogHTTPHandler) CreateMenuItem(c *gin.Context) {
	var req cataloghandler.CreateMenuItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	item, err := h.catalog.CreateMenuItem(ctx, middleware.TenantID(c), req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Menu item created", item))
}

func (h *CatalogHTTPHandler) UpdateMenuItem(c *gin.Context) {
	var req cataloghandler.UpdateMenuItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := h.opts.context(c)
	defer cancel()

	item, err := h.catalog.UpdateMenuItem(ctx, middleware.TenantID(c), c.Param("id"), req)
	if err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Menu item updated", item))
}

func (h *CatalogHTTPHandler) DeleteMenuItem(c *gin.Context) {
	ctx, cancel := h.opts.context(c)
	defer cancel()

	if err := h.catalog.DeleteMenuItem(ctx, middleware.TenantID(c), c.Param("id")); err != nil {
		h.opts.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Menu item deleted", nil))
}
