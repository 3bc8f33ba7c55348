package handler

import (
	"context"
	"sort"
	"time"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/database/models"
	"github.com/Pravinkumar0908/business/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultLowStockAlert = 5

type InventoryHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewInventoryHandler(db *gorm.DB, log *zap.Logger) *InventoryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryHandler{
		db:  db,
		log: log.Named("inventory"),
	}
}

// StockLine is one product quantity in a deduction or restore batch.
type StockLine struct {
	ProductID string          `json:"id"`
	Qty       decimal.Decimal `json:"qty"`
}

// StockRef says what caused a movement; it is copied onto the audit rows.
type StockRef struct {
	Type    string
	ID      string
	ActorID string
}

type BatchResult struct {
	Applied int      `json:"count"`
	Skipped []string `json:"skipped,omitempty"`
}

// SetStock overwrites a product's stock. Negative values are stored as zero.
func (s *InventoryHandler) SetStock(ctx context.Context, tenantID, productID string, value decimal.Decimal, actorID string) (*models.Product, error) {
	defer metrics.TrackDBOperation("inventory.set_stock")(time.Now())

	if value.IsNegative() {
		value = decimal.Zero
	}

	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProduct(tx, tenantID, productID, &product); err != nil {
			return apperr.FromDB(err, "product")
		}

		before := product.Stock
		if err := tx.Model(&product).Update("stock", value).Error; err != nil {
			return apperr.FromDB(err, "product stock")
		}
		product.Stock = value

		return tx.Create(&models.StockMovement{
			TenantID:      tenantID,
			ProductID:     product.ID,
			MovementType:  models.MovementSet,
			Quantity:      value.Sub(before),
			StockBefore:   before,
			StockAfter:    value,
			ReferenceType: "manual",
			CreatedBy:     actorID,
		}).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, "stock movement")
	}

	metrics.StockAdjustments.WithLabelValues(string(models.MovementSet), "applied").Inc()
	return &product, nil
}

// DeductStock subtracts every line inside one transaction. Missing and
// untracked products are skipped and stock never drops below zero.
func (s *InventoryHandler) DeductStock(ctx context.Context, tenantID string, lines []StockLine, ref StockRef) (*BatchResult, error) {
	defer metrics.TrackDBOperation("inventory.deduct_stock")(time.Now())

	var result *BatchResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.DeductStockTx(tx, tenantID, lines, ref)
		return err
	})
	if err != nil {
		return nil, apperr.FromDB(err, "stock deduction")
	}
	return result, nil
}

// DeductStockTx is DeductStock inside a caller's transaction, so a sale or
// order completion and its stock movement commit together.
func (s *InventoryHandler) DeductStockTx(tx *gorm.DB, tenantID string, lines []StockLine, ref StockRef) (*BatchResult, error) {
	return s.adjustTx(tx, tenantID, lines, ref, models.MovementDeduct)
}

// RestoreStockTx adds quantities back, e.g. when a sale is voided.
func (s *InventoryHandler) RestoreStockTx(tx *gorm.DB, tenantID string, lines []StockLine, ref StockRef) (*BatchResult, error) {
	return s.adjustTx(tx, tenantID, lines, ref, models.MovementRestore)
}

func (s *InventoryHandler) adjustTx(tx *gorm.DB, tenantID string, lines []StockLine, ref StockRef, kind models.MovementType) (*BatchResult, error) {
	result := &BatchResult{}

	for _, line := range mergeLines(lines) {
		if line.ProductID == "" || !line.Qty.IsPositive() {
			result.Skipped = append(result.Skipped, line.ProductID)
			continue
		}

		var product models.Product
		if err := lockProduct(tx, tenantID, line.ProductID, &product); err != nil {
			if apperr.Is(apperr.FromDB(err, "product"), apperr.ReasonNotFound) {
				result.Skipped = append(result.Skipped, line.ProductID)
				metrics.StockAdjustments.WithLabelValues(string(kind), "skipped").Inc()
				continue
			}
			return nil, apperr.FromDB(err, "product")
		}
		if !product.TrackInventory {
			result.Skipped = append(result.Skipped, line.ProductID)
			metrics.StockAdjustments.WithLabelValues(string(kind), "skipped").Inc()
			continue
		}

		before := product.Stock
		after := before.Add(line.Qty)
		if kind == models.MovementDeduct {
			after = decimal.Max(before.Sub(line.Qty), decimal.Zero)
		}

		if err := tx.Model(&models.Product{}).
			Where("id = ? AND tenant_id = ?", product.ID, tenantID).
			Update("stock", after).Error; err != nil {
			return nil, apperr.FromDB(err, "product stock")
		}

		movement := models.StockMovement{
			TenantID:      tenantID,
			ProductID:     product.ID,
			MovementType:  kind,
			Quantity:      after.Sub(before).Abs(),
			StockBefore:   before,
			StockAfter:    after,
			ReferenceType: ref.Type,
			ReferenceID:   ref.ID,
			CreatedBy:     ref.ActorID,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return nil, apperr.FromDB(err, "stock movement")
		}

		result.Applied++
		metrics.StockAdjustments.WithLabelValues(string(kind), "applied").Inc()
	}

	if len(result.Skipped) > 0 {
		s.log.Debug("stock batch skipped lines",
			zap.String("tenant_id", tenantID),
			zap.String("movement", string(kind)),
			zap.Strings("product_ids", result.Skipped))
	}
	return result, nil
}

// mergeLines sums duplicate products and orders the batch by product id so
// every transaction takes row locks in the same order.
func mergeLines(lines []StockLine) []StockLine {
	merged := make([]StockLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok && line.ProductID != "" {
			merged[i].Qty = merged[i].Qty.Add(line.Qty)
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ProductID < merged[j].ProductID
	})
	return merged
}

// DeductedTx returns, per product, the stock actually removed by the
// deduct movements recorded for one reference. Deductions floor at zero, so
// this can be less than the quantity that was asked for.
func (s *InventoryHandler) DeductedTx(tx *gorm.DB, tenantID, refType, refID string) ([]StockLine, error) {
	var movements []models.StockMovement
	if err := tx.Where("tenant_id = ? AND movement_type = ? AND reference_type = ? AND reference_id = ?",
		tenantID, models.MovementDeduct, refType, refID).
		Find(&movements).Error; err != nil {
		return nil, apperr.FromDB(err, "stock movements")
	}

	lines := make([]StockLine, 0, len(movements))
	for _, m := range movements {
		if m.Quantity.IsPositive() {
			lines = append(lines, StockLine{ProductID: m.ProductID, Qty: m.Quantity})
		}
	}
	return mergeLines(lines), nil
}

func (s *InventoryHandler) ListLowStock(ctx context.Context, tenantID string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND track_inventory = ? AND stock <= low_stock_alert", tenantID, true).
		Order("stock ASC").
		Find(&products).Error
	if err != nil {
		return nil, apperr.FromDB(err, "products")
	}
	return products, nil
}

func (s *InventoryHandler) ListMovements(ctx context.Context, tenantID, productID string, limit int) ([]models.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var movements []models.StockMovement
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, apperr.FromDB(err, "stock movements")
	}
	return movements, nil
}

func lockProduct(tx *gorm.DB, tenantID, productID string, dst *models.Product) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		First(dst).Error
}
