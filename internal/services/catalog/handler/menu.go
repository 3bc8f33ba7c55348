package handler

import (
	"context"
	"strings"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/database/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateMenuItemInput struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	IsVeg       bool            `json:"is_veg"`
	IsAvailable *bool           `json:"is_available"`
	Description string          `json:"description"`
	ProductID   string          `json:"product_id"`
}

type UpdateMenuItemInput struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	IsVeg       *bool            `json:"is_veg"`
	IsAvailable *bool            `json:"is_available"`
	Description *string          `json:"description"`
	ProductID   *string          `json:"product_id"`
}

type ListMenuFilter struct {
	Category      string
	AvailableOnly bool
}

func (s *CatalogHandler) CreateMenuItem(ctx context.Context, tenantID string, in CreateMenuItemInput) (*models.MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.Price.IsNegative() {
		return nil, apperr.Validation("price must not be negative")
	}

	item := &models.MenuItem{
		TenantID:    tenantID,
		Name:        name,
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price.Round(2),
		IsVeg:       in.IsVeg,
		IsAvailable: true,
		Description: in.Description,
	}
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}

	db := s.db.WithContext(ctx)
	if in.ProductID != "" {
		if err := checkProduct(db, tenantID, in.ProductID); err != nil {
			return nil, err
		}
		item.ProductID = &in.ProductID
	}

	if err := db.Create(item).Error; err != nil {
		return nil, apperr.FromDB(err, "menu item")
	}
	return item, nil
}

func (s *CatalogHandler) ListMenuItems(ctx context.Context, tenantID string, filter ListMenuFilter) ([]models.MenuItem, error) {
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}

	items := []models.MenuItem{}
	if err := query.Order("category ASC, name ASC").Find(&items).Error; err != nil {
		return nil, apperr.FromDB(err, "menu items")
	}
	return items, nil
}

// UpdateMenuItem patches a dish. An empty product_id unlinks it from stock.
func (s *CatalogHandler) UpdateMenuItem(ctx context.Context, tenantID, itemID string, in UpdateMenuItemInput) (*models.MenuItem, error) {
	db := s.db.WithContext(ctx)

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		updates["name"] = name
	}
	if in.Category != nil {
		updates["category"] = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, apperr.Validation("price must not be negative")
		}
		updates["price"] = in.Price.Round(2)
	}
	if in.IsVeg != nil {
		updates["is_veg"] = *in.IsVeg
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ProductID != nil {
		if *in.ProductID == "" {
			updates["product_id"] = nil
		} else {
			if err := checkProduct(db, tenantID, *in.ProductID); err != nil {
				return nil, err
			}
			updates["product_id"] = *in.ProductID
		}
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update")
	}

	res := db.Model(&models.MenuItem{}).Where("id = ? AND tenant_id = ?", itemID, tenantID).Updates(updates)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "menu item")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("menu item not found")
	}

	var item models.MenuItem
	if err := db.Where("id = ? AND tenant_id = ?", itemID, tenantID).First(&item).Error; err != nil {
		return nil, apperr.FromDB(err, "menu item")
	}
	return &item, nil
}

func (s *CatalogHandler) DeleteMenuItem(ctx context.Context, tenantID, itemID string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", itemID, tenantID).Delete(&models.MenuItem{})
	if res.Error != nil {
		return apperr.FromDB(res.Error, "menu item")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("menu item not found")
	}
	return nil
}

func checkProduct(db *gorm.DB, tenantID, productID string) error {
	var count int64
	if err := db.Model(&models.Product{}).Where("id = ? AND tenant_id = ?", productID, tenantID).Count(&count).Error; err != nil {
		return apperr.FromDB(err, "product")
	}
	if count == 0 {
		return apperr.NotFound("product not found")
	}
	return nil
}
