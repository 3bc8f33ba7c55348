package handler

import (
	"context"
	"testing"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/database/dbtest"
	"github.com/Pravinkumar0908/business/internal/database/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const tenantA = "tenant-a"

func newTestCatalog(t *testing.T) (*CatalogHandler, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return NewCatalogHandler(db, nil), db
}

func TestCreateTableDefaults(t *testing.T) {
	h, _ := newTestCatalog(t)
	ctx := context.Background()

	table, err := h.CreateTable(ctx, tenantA, CreateTableInput{Name: " Patio 1 "})
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if table.Name != "Patio 1" || table.Seats != defaultTableSeats || table.Status != models.TableEmpty {
		t.Errorf("table = %+v", table)
	}

	if _, err := h.CreateTable(ctx, tenantA, CreateTableInput{}); !apperr.Is(err, apperr.ReasonValidation) {
		t.Errorf("CreateTable() without name error = %v, want Validation", err)
	}
}

func TestUpdateTableStatus(t *testing.T) {
	h, _ := newTestCatalog(t)
	ctx := context.Background()
	table, err := h.CreateTable(ctx, tenantA, CreateTableInput{Name: "T1"})
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}

	occupied := models.TableOccupied
	got, err := h.UpdateTable(ctx, tenantA, table.ID, UpdateTableInput{Status: &occupied})
	if err != nil {
		t.Fatalf("UpdateTable(occupied) error = %v", err)
	}
	if got.Status != models.TableOccupied || got.OccupiedSince == nil {
		t.Errorf("occupied table = %+v", got)
	}

	empty := models.TableEmpty
	got, err = h.UpdateTable(ctx, tenantA, table.ID, UpdateTableInput{Status: &empty})
	if err != nil {
		t.Fatalf("UpdateTable(empty) error = %v", err)
	}
	if got.Status != models.TableEmpty || got.OccupiedSince != nil || got.CurrentOrderID != nil {
		t.Errorf("emptied table = %+v", got)
	}

	bogus := models.TableStatus("broken")
	if _, err := h.UpdateTable(ctx, tenantA, table.ID, UpdateTableInput{Status: &bogus}); !apperr.Is(err, apperr.ReasonValidation) {
		t.Errorf("UpdateTable(broken) error = %v, want Validation", err)
	}
	if _, err := h.UpdateTable(ctx, "tenant-b", table.ID, UpdateTableInput{Status: &empty}); !apperr.Is(err, apperr.ReasonNotFound) {
		t.Errorf("cross-tenant UpdateTable() error = %v, want NotFound", err)
	}
}

func TestDeleteTableWithOverwrittenBinding(t *testing.T) {
	h, db := newTestCatalog(t)
	ctx := context.Background()
	table, err := h.CreateTable(ctx, tenantA, CreateTableInput{Name: "T3"})
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}

	older := &models.Order{TenantID: tenantA, TableID: &table.ID, OrderType: models.OrderDineIn, Status: models.OrderSentToKitchen, CustomerCount: 2}
	newer := &models.Order{TenantID: tenantA, TableID: &table.ID, OrderType: models.OrderDineIn, Status: models.OrderCreated, CustomerCount: 1}
	for _, o := range []*models.Order{older, newer} {
		if err := db.Create(o).Error; err != nil {
			t.Fatalf("create order: %v", err)
		}
	}
	// The newer order holds the binding; the older one is still open.
	if err := db.Model(&models.Table{}).Where("id = ?", table.ID).
		Updates(map[string]interface{}{"status": models.TableOccupied, "current_order_id": newer.ID}).Error; err != nil {
		t.Fatalf("bind table: %v", err)
	}
	if err := db.Model(newer).Update("status", models.OrderCancelled).Error; err != nil {
		t.Fatalf("cancel newer order: %v", err)
	}

	if err := h.DeleteTable(ctx, tenantA, table.ID); !apperr.Is(err, apperr.ReasonInvalidState) {
		t.Fatalf("DeleteTable() error = %v, want InvalidState", err)
	}

	if err := db.Model(older).Update("status", models.OrderCompleted).Error; err != nil {
		t.Fatalf("complete older order: %v", err)
	}
	if err := h.DeleteTable(ctx, tenantA, table.ID); err != nil {
		t.Fatalf("DeleteTable() error = %v", err)
	}
}

func TestDeleteTableWithOpenOrder(t *testing.T) {
	h, db := newTestCatalog(t)
	ctx := context.Background()
	table, err := h.CreateTable(ctx, tenantA, CreateTableInput{Name: "T9"})
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}

	order := &models.Order{TenantID: tenantA, TableID: &table.ID, OrderType: models.OrderDineIn, Status: models.OrderCreated, CustomerCount: 1}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := db.Model(&models.Table{}).Where("id = ?", table.ID).
		Updates(map[string]interface{}{"status": models.TableOccupied, "current_order_id": order.ID}).Error; err != nil {
		t.Fatalf("bind table: %v", err)
	}

	if err := h.DeleteTable(ctx, tenantA, table.ID); !apperr.Is(err, apperr.ReasonInvalidState) {
		t.Fatalf("DeleteTable() error = %v, want InvalidState", err)
	}

	if err := db.Model(order).Update("status", models.OrderCompleted).Error; err != nil {
		t.Fatalf("complete order: %v", err)
	}
	if err := h.DeleteTable(ctx, tenantA, table.ID); err != nil {
		t.Fatalf("DeleteTable() after completion error = %v", err)
	}

	tables, err := h.ListTables(ctx, tenantA)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables) != 0 {
		t.Errorf("tables left = %d, want 0", len(tables))
	}
}

func TestMenuItemCRUD(t *testing.T) {
	h, db := newTestCatalog(t)
	ctx := context.Background()

	product := &models.Product{TenantID: tenantA, Name: "Paneer", TrackInventory: true, Unit: "kg"}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	item, err := h.CreateMenuItem(ctx, tenantA, CreateMenuItemInput{
		Name:      "Paneer Butter Masala",
		Category:  "Mains",
		Price:     decimal.RequireFromString("249.5"),
		IsVeg:     true,
		ProductID: product.ID,
	})
	if err != nil {
		t.Fatalf("CreateMenuItem() error = %v", err)
	}
	if !item.IsAvailable || item.ProductID == nil || *item.ProductID != product.ID {
		t.Errorf("menu item = %+v", item)
	}

	if _, err := h.CreateMenuItem(ctx, tenantA, CreateMenuItemInput{Name: "Ghost", ProductID: "missing"}); !apperr.Is(err, apperr.ReasonNotFound) {
		t.Errorf("CreateMenuItem() with unknown product error = %v, want NotFound", err)
	}

	unavailable := false
	unlink := ""
	updated, err := h.UpdateMenuItem(ctx, tenantA, item.ID, UpdateMenuItemInput{IsAvailable: &unavailable, ProductID: &unlink})
	if err != nil {
		t.Fatalf("UpdateMenuItem() error = %v", err)
	}
	if updated.IsAvailable || updated.ProductID != nil {
		t.Errorf("updated = %+v, want unavailable and unlinked", updated)
	}

	available, err := h.ListMenuItems(ctx, tenantA, ListMenuFilter{AvailableOnly: true})
	if err != nil {
		t.Fatalf("ListMenuItems() error = %v", err)
	}
	if len(available) != 0 {
		t.Errorf("available items = %d, want 0", len(available))
	}

	if err := h.DeleteMenuItem(ctx, tenantA, item.ID); err != nil {
		t.Fatalf("DeleteMenuItem() error = %v", err)
	}
	if err := h.DeleteMenuItem(ctx, tenantA, item.ID); !apperr.Is(err, apperr.ReasonNotFound) {
		t.Errorf("second DeleteMenuItem() error = %v, want NotFound", err)
	}
}
