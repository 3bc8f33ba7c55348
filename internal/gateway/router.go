// Package gateway assembles the HTTP surface: middleware chain, health and
// metrics endpoints and the capability-checked /api/v1 routes.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Pravinkumar0908/business/internal/auth"
	"github.com/Pravinkumar0908/business/internal/cache"
	"github.com/Pravinkumar0908/business/internal/gateway/handlers"
	"github.com/Pravinkumar0908/business/internal/gateway/middleware"
	"github.com/Pravinkumar0908/business/internal/metrics"
	cataloghandler "github.com/Pravinkumar0908/business/internal/services/catalog/handler"
	invhandler "github.com/Pravinkumar0908/business/internal/services/inventory/handler"
	ledgerhandler "github.com/Pravinkumar0908/business/internal/services/ledger/handler"
	ordershandler "github.com/Pravinkumar0908/business/internal/services/orders/handler"
	saleshandler "github.com/Pravinkumar0908/business/internal/services/sales/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	DB    *gorm.DB
	Cache *cache.Cache
	Log   *zap.Logger

	Orders    *ordershandler.OrderHandler
	Catalog   *cataloghandler.CatalogHandler
	Ledger    *ledgerhandler.LedgerHandler
	Inventory *invhandler.InventoryHandler
	Sales     *saleshandler.SalesHandler

	// Authorizer defaults to the built-in role table.
	Authorizer auth.Authorizer
	JWTSecret  []byte
	// RateLimit is left unset in tests to skip limiting.
	RateLimit string
	Options   handlers.Options
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Authorizer == nil {
		d.Authorizer = auth.RoleAuthorizer{}
	}

	r := gin.New()
	r.Use(middleware.RequestID(d.Log))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(metrics.GinMiddleware())

	r.GET("/health", healthCheckHandler(d.DB, d.Cache))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	if d.RateLimit != "" {
		limit, err := middleware.RateLimit(d.RateLimit)
		if err != nil {
			return nil, err
		}
		api.Use(limit)
	}
	api.Use(middleware.JWTAuth(d.JWTSecret))
	api.Use(middleware.RequireTenantContext())

	need := func(c auth.Capability) gin.HandlerFunc {
		return middleware.RequireCapability(d.Authorizer, c)
	}

	orderHandler := handlers.NewOrderHTTPHandler(d.Orders, d.Options)
	orders := api.Group("/orders")
	{
		orders.POST("", need(auth.OrdersWrite), orderHandler.CreateOrder)
		orders.GET("", need(auth.OrdersRead), orderHandler.ListOrders)
		orders.GET("/:id", need(auth.OrdersRead), orderHandler.GetOrder)
		orders.PUT("/:id", need(auth.OrdersWrite), orderHandler.UpdateOrder)
		orders.DELETE("/:id", need(auth.OrdersCancel), orderHandler.CancelOrder)
		orders.POST("/:id/items", need(auth.OrdersWrite), orderHandler.AddItems)
		orders.PUT("/:id/items/:itemId", need(auth.KitchenUpdate), orderHandler.UpdateItemStatus)
	}

	catalogHandler := handlers.NewCatalogHTTPHandler(d.Catalog, d.Options)
	tables := api.Group("/tables")
	{
		tables.GET("", need(auth.TablesRead), catalogHandler.ListTables)
		tables.POST("", need(auth.TablesWrite), catalogHandler.CreateTable)
		tables.PUT("/:id", need(auth.TablesWrite), catalogHandler.UpdateTable)
		tables.DELETE("/:id", need(auth.TablesWrite), catalogHandler.DeleteTable)
	}
	menu := api.Group("/menu-items")
	{
		menu.GET("", need(auth.MenuRead), catalogHandler.ListMenuItems)
		menu.POST("", need(auth.MenuWrite), catalogHandler.CreateMenuItem)
		menu.PUT("/:id", need(auth.MenuWrite), catalogHandler.UpdateMenuItem)
		menu.DELETE("/:id", need(auth.MenuWrite), catalogHandler.DeleteMenuItem)
	}

	for _, b := range []struct {
		path string
		book ledgerhandler.Book
	}{
		{"/customers", ledgerhandler.Customers},
		{"/suppliers", ledgerhandler.Suppliers},
	} {
		h := handlers.NewLedgerHTTPHandler(d.Ledger, b.book, d.Options)
		g := api.Group(b.path)
		g.GET("", need(auth.LedgerRead), h.ListParties)
		g.POST("", need(auth.LedgerWrite), h.CreateParty)
		g.GET("/stats", need(auth.LedgerRead), h.Stats)
		g.GET("/:id", need(auth.LedgerRead), h.GetParty)
		g.PUT("/:id", need(auth.LedgerWrite), h.UpdateParty)
		g.DELETE("/:id", need(auth.LedgerDelete), h.DeleteParty)
		g.POST("/:id/transactions", need(auth.LedgerWrite), h.PostTransaction)
		g.GET("/:id/transactions", need(auth.LedgerRead), h.ListTransactions)
		g.POST("/:id/payments", need(auth.LedgerWrite), h.PostPayment)
		g.GET("/:id/payments", need(auth.LedgerRead), h.ListPayments)
		g.GET("/:id/summary", need(auth.LedgerRead), h.Summary)
	}

	inventoryHandler := handlers.NewInventoryHTTPHandler(d.Inventory, d.Options)
	products := api.Group("/products")
	{
		products.GET("", need(auth.InventoryRead), inventoryHandler.ListProducts)
		products.POST("", need(auth.InventoryWrite), inventoryHandler.CreateProduct)
		products.GET("/low-stock", need(auth.InventoryRead), inventoryHandler.ListLowStock)
		products.PATCH("/deduct-stock", need(auth.InventoryWrite), inventoryHandler.DeductStock)
		products.GET("/:id", need(auth.InventoryRead), inventoryHandler.GetProduct)
		products.PUT("/:id", need(auth.InventoryWrite), inventoryHandler.UpdateProduct)
		products.DELETE("/:id", need(auth.InventoryWrite), inventoryHandler.DeleteProduct)
		products.PATCH("/:id/stock", need(auth.InventoryWrite), inventoryHandler.SetStock)
		products.GET("/:id/movements", need(auth.InventoryRead), inventoryHandler.ListMovements)
	}

	salesHandler := handlers.NewSalesHTTPHandler(d.Sales, d.Options)
	sales := api.Group("/sales")
	{
		sales.POST("", need(auth.SalesWrite), salesHandler.CreateSale)
		sales.GET("", need(auth.SalesRead), salesHandler.ListSales)
		sales.GET("/:id", need(auth.SalesRead), salesHandler.GetSale)
		sales.POST("/:id/void", need(auth.SalesVoid), salesHandler.VoidSale)
	}

	return r, nil
}

func healthCheckHandler(db *gorm.DB, c *cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		httpStatus := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "ok"}

		if err := pingDB(pingCtx, db); err != nil {
			status, httpStatus = "unhealthy", http.StatusServiceUnavailable
			checks["database"] = err.Error()
		}
		// Redis is optional; a failed ping degrades rather than fails.
		if err := c.Ping(pingCtx); err != nil {
			if httpStatus == http.StatusOK {
				status = "degraded"
			}
			checks["redis"] = err.Error()
		}

		ctx.JSON(httpStatus, gin.H{
			"status":    status,
			"checks":    checks,
			"timestamp": time.Now().UTC(),
		})
	}
}

var errNoDatabase = errors.New("database not configured")

func pingDB(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errNoDatabase
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
