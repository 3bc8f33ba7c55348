package handler

import (
	"context"
	"strings"
	"time"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/database/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultTableSeats = 4

// CatalogHandler is the thin tenant-scoped store for tables and menu items.
type CatalogHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCatalogHandler(db *gorm.DB, log *zap.Logger) *CatalogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogHandler{db: db, log: log.Named("catalog")}
}

type CreateTableInput struct {
	Name  string `json:"name"`
	Seats int    `json:"seats"`
}

type UpdateTableInput struct {
	Name   *string             `json:"name"`
	Seats  *int                `json:"seats"`
	Status *models.TableStatus `json:"status"`
}

func validTableStatus(s models.TableStatus) bool {
	switch s {
	case models.TableEmpty, models.TableOccupied, models.TableCleaning:
		return true
	}
	return false
}

func (s *CatalogHandler) CreateTable(ctx context.Context, tenantID string, in CreateTableInput) (*models.Table, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.Seats < 0 {
		return nil, apperr.Validation("seats must not be negative")
	}
	if in.Seats == 0 {
		in.Seats = defaultTableSeats
	}

	table := &models.Table{
		TenantID: tenantID,
		Name:     name,
		Seats:    in.Seats,
		Status:   models.TableEmpty,
	}
	if err := s.db.WithContext(ctx).Create(table).Error; err != nil {
		return nil, apperr.FromDB(err, "table")
	}
	return table, nil
}

func (s *CatalogHandler) ListTables(ctx context.Context, tenantID string) ([]models.Table, error) {
	tables := []models.Table{}
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&tables).Error; err != nil {
		return nil, apperr.FromDB(err, "tables")
	}
	return tables, nil
}

// UpdateTable patches a table. Setting the status by hand to empty clears
// occupancy; setting it to occupied stamps occupied_since if unset.
func (s *CatalogHandler) UpdateTable(ctx context.Context, tenantID, tableID string, in UpdateTableInput) (*models.Table, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		updates["name"] = name
	}
	if in.Seats != nil {
		if *in.Seats <= 0 {
			return nil, apperr.Validation("seats must be greater than 0")
		}
		updates["seats"] = *in.Seats
	}
	if in.Status != nil && !validTableStatus(*in.Status) {
		return nil, apperr.Validation("unknown table status %q", *in.Status)
	}
	if len(updates) == 0 && in.Status == nil {
		return nil, apperr.Validation("nothing to update")
	}

	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTable(tx, tenantID, tableID, &table); err != nil {
			return apperr.FromDB(err, "table")
		}

		if in.Status != nil {
			updates["status"] = *in.Status
			switch *in.Status {
			case models.TableEmpty:
				updates["current_order_id"] = nil
				updates["customer_name"] = ""
				updates["occupied_since"] = nil
			case models.TableOccupied:
				if table.OccupiedSince == nil {
					updates["occupied_since"] = time.Now()
				}
			}
		}

		if err := tx.Model(&table).Updates(updates).Error; err != nil {
			return apperr.FromDB(err, "table")
		}
		return tx.Where("id = ?", table.ID).First(&table).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, "table")
	}
	return &table, nil
}

// DeleteTable removes a table unless an open order still refers to it.
func (s *CatalogHandler) DeleteTable(ctx context.Context, tenantID, tableID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := lockTable(tx, tenantID, tableID, &table); err != nil {
			return apperr.FromDB(err, "table")
		}

		// A newer order can take over the binding while an older one is
		// still open, so look at orders.table_id as well.
		currentID := ""
		if table.CurrentOrderID != nil {
			currentID = *table.CurrentOrderID
		}
		var open int64
		if err := tx.Model(&models.Order{}).
			Where("tenant_id = ? AND status NOT IN ? AND (table_id = ? OR id = ?)", tenantID,
				[]models.OrderStatus{models.OrderCompleted, models.OrderCancelled}, table.ID, currentID).
			Count(&open).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if open > 0 {
			return apperr.InvalidState("table %s has an open order", table.Name)
		}

		return tx.Delete(&table).Error
	})
	if err != nil {
		return apperr.FromDB(err, "table")
	}

	s.log.Info("table deleted", zap.String("tenant_id", tenantID), zap.String("table_id", tableID))
	return nil
}

func lockTable(tx *gorm.DB, tenantID, tableID string, dst *models.Table) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", tableID, tenantID).
		First(dst).Error
}
