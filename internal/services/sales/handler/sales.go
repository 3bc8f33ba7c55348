package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/database/models"
	"github.com/Pravinkumar0908/business/internal/metrics"
	invhandler "github.com/Pravinkumar0908/business/internal/services/inventory/handler"
	ledgerhandler "github.com/Pravinkumar0908/business/internal/services/ledger/handler"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultSaleMode = "cash"

// SalesHandler records counter sales. Stock deduction and the customer
// ledger posting run inside the sale's own transaction.
type SalesHandler struct {
	db            *gorm.DB
	inventory     *invhandler.InventoryHandler
	ledger        *ledgerhandler.LedgerHandler
	log           *zap.Logger
	restoreOnVoid bool
}

func NewSalesHandler(db *gorm.DB, inventory *invhandler.InventoryHandler, ledger *ledgerhandler.LedgerHandler, log *zap.Logger, restoreOnVoid bool) *SalesHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SalesHandler{
		db:            db,
		inventory:     inventory,
		ledger:        ledger,
		log:           log.Named("sales"),
		restoreOnVoid: restoreOnVoid,
	}
}

type SaleItemInput struct {
	ProductID string           `json:"product_id"`
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price"`
	Qty       decimal.Decimal  `json:"qty"`
}

type CreateSaleInput struct {
	CustomerID     string               `json:"customer_id"`
	InvoiceNo      string               `json:"invoice_no"`
	PaymentMode    string               `json:"payment_mode"`
	PaymentStatus  models.PaymentStatus `json:"payment_status"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	Items          []SaleItemInput      `json:"items"`
}

type ListSalesFilter struct {
	CustomerID string
	Status     models.SaleStatus
	Page       int
	PageSize   int
}

func newInvoiceNo(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// CreateSale records the sale, deducts stock for tracked products and, when a
// customer is named, posts the sale to that customer's ledger.
func (s *SalesHandler) CreateSale(ctx context.Context, tenantID, actorID string, in CreateSaleInput) (*models.Sale, error) {
	defer metrics.TrackDBOperation("sales.create")(time.Now())

	if len(in.Items) == 0 {
		return nil, apperr.Validation("sale must have at least one item")
	}
	status := in.PaymentStatus
	if status == "" {
		status = models.PaymentPaid
	}
	if !status.Valid() {
		return nil, apperr.Validation("unknown payment status %q", in.PaymentStatus)
	}
	if status.IsCredit() && in.CustomerID == "" {
		return nil, apperr.Validation("a %s sale needs a customer", status)
	}
	if in.TaxAmount.IsNegative() || in.DiscountAmount.IsNegative() {
		return nil, apperr.Validation("tax and discount must not be negative")
	}

	mode := strings.TrimSpace(in.PaymentMode)
	if mode == "" {
		mode = defaultSaleMode
	}
	now := time.Now()
	invoiceNo := strings.TrimSpace(in.InvoiceNo)
	if invoiceNo == "" {
		invoiceNo = newInvoiceNo(now)
	}

	var sale *models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := buildSaleItems(tx, tenantID, in.Items)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, item := range items {
			subtotal = subtotal.Add(item.LineTotal)
		}
		total := subtotal.Add(in.TaxAmount).Sub(in.DiscountAmount).Round(2)
		if total.IsNegative() {
			return apperr.Validation("discount exceeds the sale amount")
		}

		sale = &models.Sale{
			TenantID:       tenantID,
			InvoiceNo:      invoiceNo,
			Subtotal:       subtotal.Round(2),
			TaxAmount:      in.TaxAmount.Round(2),
			DiscountAmount: in.DiscountAmount.Round(2),
			Total:          total,
			PaymentMode:    mode,
			PaymentStatus:  status,
			Status:         models.SaleCompleted,
			CreatedBy:      actorID,
			Items:          items,
		}
		if in.CustomerID != "" {
			sale.CustomerID = &in.CustomerID
		}
		if err := tx.Create(sale).Error; err != nil {
			return apperr.FromDB(err, "sale")
		}

		if lines := stockLines(items); len(lines) > 0 && s.inventory != nil {
			ref := invhandler.StockRef{Type: saleStockRef, ID: sale.ID, ActorID: actorID}
			if _, err := s.inventory.DeductStockTx(tx, tenantID, lines, ref); err != nil {
				return err
			}
		}

		if sale.CustomerID != nil {
			_, err := s.ledger.PostTransactionTx(tx, tenantID, ledgerhandler.Customers, *sale.CustomerID, ledgerhandler.PostTransactionInput{
				Type:          "sale",
				Amount:        total,
				PaymentStatus: status,
				Description:   "Sale " + invoiceNo,
				InvoiceNo:     invoiceNo,
				ActorID:       actorID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromDB(err, "sale")
	}

	if sale.CustomerID != nil {
		s.ledger.InvalidateLedgerCaches(ctx, ledgerhandler.Customers, tenantID, *sale.CustomerID)
		metrics.LedgerPostings.WithLabelValues(ledgerhandler.Customers.Name, "transaction").Inc()
	}
	s.log.Info("sale recorded",
		zap.String("tenant_id", tenantID),
		zap.String("sale_id", sale.ID),
		zap.String("invoice_no", sale.InvoiceNo),
		zap.String("total", sale.Total.StringFixed(2)))
	return sale, nil
}

// saleStockRef tags the stock movements a sale produces.
const saleStockRef = "sale"

// VoidSale marks a sale voided. Credit sales are refused because their
// ledger entry is append-only. When configured, the stock the sale actually
// removed is put back.
func (s *SalesHandler) VoidSale(ctx context.Context, tenantID, saleID, reason, actorID string) (*models.Sale, error) {
	defer metrics.TrackDBOperation("sales.void")(time.Now())

	var sale models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND tenant_id = ?", saleID, tenantID).
			First(&sale).Error; err != nil {
			return apperr.FromDB(err, "sale")
		}
		if sale.Status == models.SaleVoided {
			return apperr.InvalidState("sale is already voided")
		}
		if sale.PaymentStatus.IsCredit() {
			return apperr.InvalidState("a %s sale cannot be voided", sale.PaymentStatus)
		}

		if err := tx.Model(&sale).Updates(map[string]interface{}{
			"status":      models.SaleVoided,
			"void_reason": strings.TrimSpace(reason),
		}).Error; err != nil {
			return apperr.FromDB(err, "sale")
		}

		if s.restoreOnVoid && s.inventory != nil {
			lines, err := s.inventory.DeductedTx(tx, tenantID, saleStockRef, sale.ID)
			if err != nil {
				return err
			}
			if len(lines) > 0 {
				ref := invhandler.StockRef{Type: "sale_void", ID: sale.ID, ActorID: actorID}
				if _, err := s.inventory.RestoreStockTx(tx, tenantID, lines, ref); err != nil {
					return err
				}
			}
		}

		return tx.Preload("Items").Where("id = ?", sale.ID).First(&sale).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, "sale")
	}

	s.log.Info("sale voided",
		zap.String("tenant_id", tenantID),
		zap.String("sale_id", sale.ID),
		zap.Bool("stock_restored", s.restoreOnVoid))
	return &sale, nil
}

func (s *SalesHandler) GetSale(ctx context.Context, tenantID, saleID string) (*models.Sale, error) {
	var sale models.Sale
	if err := s.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND tenant_id = ?", saleID, tenantID).
		First(&sale).Error; err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	return &sale, nil
}

func (s *SalesHandler) ListSales(ctx context.Context, tenantID string, filter ListSalesFilter) ([]models.Sale, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Sale{}).Where("tenant_id = ?", tenantID)
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.FromDB(err, "sales")
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 50
	}

	sales := []models.Sale{}
	if err := query.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&sales).Error; err != nil {
		return nil, 0, apperr.FromDB(err, "sales")
	}
	return sales, total, nil
}

func buildSaleItems(tx *gorm.DB, tenantID string, inputs []SaleItemInput) ([]models.SaleItem, error) {
	items := make([]models.SaleItem, 0, len(inputs))
	for i, in := range inputs {
		if !in.Qty.IsPositive() {
			return nil, apperr.Validation("item %d: qty must be greater than 0", i+1)
		}

		item := models.SaleItem{
			TenantID: tenantID,
			Name:     strings.TrimSpace(in.Name),
			Qty:      in.Qty,
		}
		if in.Price != nil {
			item.Price = in.Price.Round(2)
		}

		if in.ProductID != "" {
			id := in.ProductID
			item.ProductID = &id
			if item.Name == "" || in.Price == nil {
				var product models.Product
				if err := tx.Where("id = ? AND tenant_id = ?", in.ProductID, tenantID).First(&product).Error; err != nil {
					return nil, apperr.FromDB(err, "product")
				}
				if item.Name == "" {
					item.Name = product.Name
				}
				if in.Price == nil {
					item.Price = product.Price
				}
			}
		} else if in.Price == nil {
			return nil, apperr.Validation("item %d: price is required", i+1)
		}

		if item.Name == "" {
			return nil, apperr.Validation("item %d: name is required", i+1)
		}
		if item.Price.IsNegative() {
			return nil, apperr.Validation("item %d: price must not be negative", i+1)
		}
		item.LineTotal = item.Price.Mul(item.Qty).Round(2)
		items = append(items, item)
	}
	return items, nil
}

func stockLines(items []models.SaleItem) []invhandler.StockLine {
	var lines []invhandler.StockLine
	for _, item := range items {
		if item.ProductID != nil {
			lines = append(lines, invhandler.StockLine{ProductID: *item.ProductID, Qty: item.Qty})
		}
	}
	return lines
}
