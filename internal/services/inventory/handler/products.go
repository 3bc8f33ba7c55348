package handler

import (
	"context"
	"strings"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/database/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateProductInput struct {
	Name           string           `json:"name"`
	Category       string           `json:"category"`
	Price          decimal.Decimal  `json:"price"`
	CostPrice      decimal.Decimal  `json:"cost_price"`
	Stock          decimal.Decimal  `json:"stock"`
	LowStockAlert  *decimal.Decimal `json:"low_stock_alert"`
	Barcode        string           `json:"barcode"`
	Unit           string           `json:"unit"`
	TrackInventory *bool            `json:"track_inventory"`
	Description    string           `json:"description"`
}

// UpdateProductInput patches the non-nil fields. Stock is changed only
// through SetStock so every change leaves a movement row.
type UpdateProductInput struct {
	Name           *string          `json:"name"`
	Category       *string          `json:"category"`
	Price          *decimal.Decimal `json:"price"`
	CostPrice      *decimal.Decimal `json:"cost_price"`
	LowStockAlert  *decimal.Decimal `json:"low_stock_alert"`
	Barcode        *string          `json:"barcode"`
	Unit           *string          `json:"unit"`
	TrackInventory *bool            `json:"track_inventory"`
	Description    *string          `json:"description"`
}

type ListProductsFilter struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

func (s *InventoryHandler) CreateProduct(ctx context.Context, tenantID string, in CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("product name is required")
	}
	if in.Price.IsNegative() || in.CostPrice.IsNegative() {
		return nil, apperr.Validation("price must not be negative")
	}

	product := models.Product{
		TenantID:       tenantID,
		Name:           name,
		Category:       in.Category,
		Price:          in.Price,
		CostPrice:      in.CostPrice,
		Stock:          decimal.Max(in.Stock, decimal.Zero),
		LowStockAlert:  decimal.NewFromInt(defaultLowStockAlert),
		Barcode:        in.Barcode,
		Unit:           in.Unit,
		TrackInventory: true,
		Description:    in.Description,
	}
	if in.LowStockAlert != nil {
		product.LowStockAlert = *in.LowStockAlert
	}
	if in.TrackInventory != nil {
		product.TrackInventory = *in.TrackInventory
	}
	if product.Unit == "" {
		product.Unit = "pcs"
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, apperr.FromDB(err, "product")
	}

	s.log.Info("product created", zap.String("tenant_id", tenantID), zap.String("product_id", product.ID))
	return &product, nil
}

func (s *InventoryHandler) GetProduct(ctx context.Context, tenantID, productID string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		First(&product).Error
	if err != nil {
		return nil, apperr.FromDB(err, "product")
	}
	return &product, nil
}

func (s *InventoryHandler) ListProducts(ctx context.Context, tenantID string, f ListProductsFilter) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("tenant_id = ?", tenantID)
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR barcode = ?", like, f.Search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.FromDB(err, "products")
	}

	page, size := normalizePage(f.Page, f.PageSize)
	var products []models.Product
	if err := query.Order("name ASC").Offset((page - 1) * size).Limit(size).Find(&products).Error; err != nil {
		return nil, 0, apperr.FromDB(err, "products")
	}
	return products, total, nil
}

func (s *InventoryHandler) UpdateProduct(ctx context.Context, tenantID, productID string, in UpdateProductInput) (*models.Product, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("product name must not be empty")
		}
		updates["name"] = name
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, apperr.Validation("price must not be negative")
		}
		updates["price"] = *in.Price
	}
	if in.CostPrice != nil {
		if in.CostPrice.IsNegative() {
			return nil, apperr.Validation("cost price must not be negative")
		}
		updates["cost_price"] = *in.CostPrice
	}
	if in.LowStockAlert != nil {
		updates["low_stock_alert"] = *in.LowStockAlert
	}
	if in.Barcode != nil {
		updates["barcode"] = *in.Barcode
	}
	if in.Unit != nil {
		updates["unit"] = *in.Unit
	}
	if in.TrackInventory != nil {
		updates["track_inventory"] = *in.TrackInventory
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update")
	}

	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		Updates(updates)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "product")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("product not found")
	}
	return s.GetProduct(ctx, tenantID, productID)
}

func (s *InventoryHandler) DeleteProduct(ctx context.Context, tenantID, productID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		Delete(&models.Product{})
	if res.Error != nil {
		return apperr.FromDB(res.Error, "product")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product not found")
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 50
	}
	return page, size
}
