package handler

import (
	"context"
	"strings"
	"time"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/cache"
	"github.com/Pravinkumar0908/business/internal/database/models"
	"github.com/Pravinkumar0908/business/internal/metrics"
	invhandler "github.com/Pravinkumar0908/business/internal/services/inventory/handler"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultOrderPageSize = 50
	maxOrderPageSize     = 200
)

type OrderHandler struct {
	db        *gorm.DB
	cache     *cache.Cache
	inventory *invhandler.InventoryHandler
	log       *zap.Logger
}

// NewOrderHandler wires the order state machine. inventory may be nil, in
// which case completing an order does not touch stock.
func NewOrderHandler(db *gorm.DB, c *cache.Cache, inventory *invhandler.InventoryHandler, log *zap.Logger) *OrderHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderHandler{
		db:        db,
		cache:     c,
		inventory: inventory,
		log:       log.Named("orders"),
	}
}

// ItemInput is one line of a new order or an add-items call. Name, price
// and veg flag fall back to the referenced menu item when omitted.
type ItemInput struct {
	MenuItemID string           `json:"menu_item_id"`
	Name       string           `json:"name"`
	Price      *decimal.Decimal `json:"price"`
	IsVeg      *bool            `json:"is_veg"`
	Qty        int              `json:"qty"`
	Note       string           `json:"note"`
}

type CreateOrderInput struct {
	TableID       string           `json:"table_id"`
	OrderType     models.OrderType `json:"order_type"`
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	CustomerCount int              `json:"customer_count"`
	Total         *decimal.Decimal `json:"total"`
	Notes         string           `json:"notes"`
	Items         []ItemInput      `json:"items"`
}

type UpdateOrderInput struct {
	Status            *models.OrderStatus `json:"status"`
	CancelReason      *string             `json:"cancel_reason"`
	DiscountAmount    *decimal.Decimal    `json:"discount_amount"`
	ServiceChargeRate *decimal.Decimal    `json:"service_charge_rate"`
	TaxRate           *decimal.Decimal    `json:"tax_rate"`
	Notes             *string             `json:"notes"`
	ActorID           string              `json:"-"`
}

func (in UpdateOrderInput) empty() bool {
	return in.Status == nil && in.CancelReason == nil && in.DiscountAmount == nil &&
		in.ServiceChargeRate == nil && in.TaxRate == nil && in.Notes == nil
}

type ListOrdersFilter struct {
	All      bool
	Status   models.OrderStatus
	TableID  string
	Page     int
	PageSize int
}

// ItemStatusResult carries the updated item, its order, and whether the
// update rolled the order up to Ready.
type ItemStatusResult struct {
	Order    *models.Order     `json:"order"`
	Item     *models.OrderItem `json:"item"`
	RolledUp bool              `json:"rolled_up"`
}

func validOrderType(t models.OrderType) bool {
	switch t {
	case models.OrderDineIn, models.OrderTakeaway, models.OrderDelivery:
		return true
	}
	return false
}

// CreateOrder inserts the order and its items and, when a table is given,
// marks the table occupied. All of it commits or none of it does.
func (s *OrderHandler) CreateOrder(ctx context.Context, tenantID, actorID string, in CreateOrderInput) (*models.Order, error) {
	defer metrics.TrackDBOperation("orders.create")(time.Now())

	if len(in.Items) == 0 {
		return nil, apperr.Validation("order must have at least one item")
	}
	if in.OrderType == "" {
		in.OrderType = models.OrderDineIn
	}
	if !validOrderType(in.OrderType) {
		return nil, apperr.Validation("unknown order type %q", in.OrderType)
	}
	if in.CustomerCount < 0 {
		return nil, apperr.Validation("customer_count must not be negative")
	}
	if in.CustomerCount == 0 {
		in.CustomerCount = 1
	}
	if in.Total != nil && in.Total.IsNegative() {
		return nil, apperr.Validation("total must not be negative")
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := buildItems(tx, tenantID, in.Items)
		if err != nil {
			return err
		}

		// A zero total counts as absent and falls back to the item sum.
		subtotal := sumItems(items)
		if in.Total != nil && !in.Total.IsZero() {
			subtotal = in.Total.Round(2)
		}

		now := time.Now()
		order = &models.Order{
			TenantID:        tenantID,
			OrderType:       in.OrderType,
			Status:          models.OrderCreated,
			CustomerName:    strings.TrimSpace(in.CustomerName),
			CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
			CustomerCount:   in.CustomerCount,
			Subtotal:        subtotal,
			Notes:           in.Notes,
			CreatedBy:       actorID,
			StatusUpdatedAt: &now,
			Items:           items,
		}

		var table models.Table
		if in.TableID != "" {
			if err := lockTable(tx, tenantID, in.TableID, &table); err != nil {
				return apperr.FromDB(err, "table")
			}
			order.TableID = &table.ID
		}

		if err := tx.Create(order).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		if order.TableID != nil {
			err := tx.Model(&models.Table{}).
				Where("id = ? AND tenant_id = ?", table.ID, tenantID).
				Updates(map[string]interface{}{
					"status":           models.TableOccupied,
					"current_order_id": order.ID,
					"customer_name":    order.CustomerName,
					"occupied_since":   now,
				}).Error
			if err != nil {
				return apperr.FromDB(err, "table")
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}

	metrics.OrderTransitions.WithLabelValues(string(models.OrderCreated)).Inc()
	s.log.Info("order created",
		zap.String("tenant_id", tenantID),
		zap.String("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.String("subtotal", order.Subtotal.StringFixed(2)))
	s.publishOrderEvent(ctx, orderEvent(EventOrderCreated, order))
	return order, nil
}

// AddItems appends Pending items to an open order and recomputes the
// subtotal over every non-cancelled item while the order row is locked.
func (s *OrderHandler) AddItems(ctx context.Context, tenantID, orderID string, inputs []ItemInput) (*models.Order, error) {
	defer metrics.TrackDBOperation("orders.add_items")(time.Now())

	if len(inputs) == 0 {
		return nil, apperr.Validation("at least one item is required")
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, tenantID, orderID, &order); err != nil {
			return apperr.FromDB(err, "order")
		}
		if order.Status.IsTerminal() {
			return apperr.InvalidState("cannot add items to a %s order", order.Status)
		}

		items, err := buildItems(tx, tenantID, inputs)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return apperr.FromDB(err, "order items")
		}

		var all []models.OrderItem
		if err := tx.Where("order_id = ? AND tenant_id = ?", order.ID, tenantID).Find(&all).Error; err != nil {
			return apperr.FromDB(err, "order items")
		}
		subtotal := sumItems(all)
		if err := tx.Model(&order).Update("subtotal", subtotal).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		return loadOrder(tx, tenantID, order.ID, &order)
	})
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}

	s.log.Info("items added to order",
		zap.String("tenant_id", tenantID),
		zap.String("order_id", order.ID),
		zap.Int("added", len(inputs)))
	s.publishOrderEvent(ctx, orderEvent(EventOrderItemsAdded, &order))
	return &order, nil
}

// UpdateOrder patches status and pricing fields. Sending to the kitchen
// moves Pending items to In Kitchen; completing or cancelling frees the
// table, and completing deducts stock for dishes linked to products.
func (s *OrderHandler) UpdateOrder(ctx context.Context, tenantID, orderID string, in UpdateOrderInput) (*models.Order, error) {
	defer metrics.TrackDBOperation("orders.update")(time.Now())

	if in.empty() {
		return nil, apperr.Validation("nothing to update")
	}
	for name, v := range map[string]*decimal.Decimal{
		"discount_amount":     in.DiscountAmount,
		"service_charge_rate": in.ServiceChargeRate,
		"tax_rate":            in.TaxRate,
	} {
		if v != nil && v.IsNegative() {
			return nil, apperr.Validation("%s must not be negative", name)
		}
	}

	var (
		order   models.Order
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, tenantID, orderID, &order); err != nil {
			return apperr.FromDB(err, "order")
		}
		if order.Status.IsTerminal() {
			return apperr.InvalidState("order is already %s", order.Status)
		}

		now := time.Now()
		updates := map[string]interface{}{}
		if in.Status != nil {
			if err := checkOrderTransition(order.Status, *in.Status); err != nil {
				return err
			}
			if *in.Status != order.Status {
				updates["status"] = *in.Status
				updates["status_updated_at"] = now
				changed = true
			}
		}
		if in.CancelReason != nil {
			updates["cancel_reason"] = strings.TrimSpace(*in.CancelReason)
		}
		if in.DiscountAmount != nil {
			updates["discount_amount"] = in.DiscountAmount.Round(2)
		}
		if in.ServiceChargeRate != nil {
			updates["service_charge_rate"] = *in.ServiceChargeRate
		}
		if in.TaxRate != nil {
			updates["tax_rate"] = *in.TaxRate
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Order{}).
				Where("id = ? AND tenant_id = ?", order.ID, tenantID).
				Updates(updates).Error; err != nil {
				return apperr.FromDB(err, "order")
			}
		}

		if in.Status != nil {
			switch *in.Status {
			case models.OrderSentToKitchen:
				err := tx.Model(&models.OrderItem{}).
					Where("order_id = ? AND tenant_id = ? AND status = ?", order.ID, tenantID, models.ItemPending).
					Updates(map[string]interface{}{
						"status":            models.ItemInKitchen,
						"status_updated_at": now,
					}).Error
				if err != nil {
					return apperr.FromDB(err, "order items")
				}
			case models.OrderCompleted:
				if err := releaseTable(tx, tenantID, &order); err != nil {
					return err
				}
				if err := s.deductForOrder(tx, tenantID, order.ID, in.ActorID); err != nil {
					return err
				}
			case models.OrderCancelled:
				if err := releaseTable(tx, tenantID, &order); err != nil {
					return err
				}
			}
		}

		return loadOrder(tx, tenantID, order.ID, &order)
	})
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}

	event := EventOrderUpdated
	if changed {
		metrics.OrderTransitions.WithLabelValues(string(order.Status)).Inc()
		switch order.Status {
		case models.OrderReady:
			event = EventOrderReady
		case models.OrderCancelled:
			event = EventOrderCancelled
		}
	}
	s.log.Info("order updated",
		zap.String("tenant_id", tenantID),
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)))
	s.publishOrderEvent(ctx, orderEvent(event, &order))
	return &order, nil
}

// CancelOrder cancels an open order and frees its table. Stock is never
// restored here: orders only deduct stock when they complete.
func (s *OrderHandler) CancelOrder(ctx context.Context, tenantID, orderID, reason, actorID string) (*models.Order, error) {
	status := models.OrderCancelled
	in := UpdateOrderInput{Status: &status, ActorID: actorID}
	if reason = strings.TrimSpace(reason); reason != "" {
		in.CancelReason = &reason
	}
	return s.UpdateOrder(ctx, tenantID, orderID, in)
}

// UpdateItemStatus moves one item and, under the order row lock, rolls the
// order up to Ready once every item is Ready, Served or Cancelled.
func (s *OrderHandler) UpdateItemStatus(ctx context.Context, tenantID, orderID, itemID string, status models.ItemStatus) (*ItemStatusResult, error) {
	defer metrics.TrackDBOperation("orders.update_item")(time.Now())

	if !validItemStatus(status) {
		return nil, apperr.Validation("unknown item status %q", status)
	}

	result := &ItemStatusResult{Order: &models.Order{}, Item: &models.OrderItem{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order := result.Order
		if err := lockOrder(tx, tenantID, orderID, order); err != nil {
			return apperr.FromDB(err, "order")
		}
		if order.Status.IsTerminal() {
			return apperr.InvalidState("order is already %s", order.Status)
		}

		item := result.Item
		if err := tx.Where("id = ? AND order_id = ? AND tenant_id = ?", itemID, order.ID, tenantID).
			First(item).Error; err != nil {
			return apperr.FromDB(err, "order item")
		}
		if err := checkItemTransition(item.Status, status); err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(item).Updates(map[string]interface{}{
			"status":            status,
			"status_updated_at": now,
		}).Error; err != nil {
			return apperr.FromDB(err, "order item")
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ? AND tenant_id = ?", order.ID, tenantID).Find(&items).Error; err != nil {
			return apperr.FromDB(err, "order items")
		}
		if allItemsSettled(items) && order.Status != models.OrderReady {
			if err := tx.Model(&models.Order{}).
				Where("id = ? AND tenant_id = ?", order.ID, tenantID).
				Updates(map[string]interface{}{
					"status":            models.OrderReady,
					"status_updated_at": now,
				}).Error; err != nil {
				return apperr.FromDB(err, "order")
			}
			result.RolledUp = true
		}

		return loadOrder(tx, tenantID, order.ID, order)
	})
	if err != nil {
		return nil, apperr.FromDB(err, "order item")
	}

	s.publishOrderEvent(ctx, OrderEvent{
		EventType: EventOrderItemUpdated,
		TenantID:  tenantID,
		OrderID:   result.Order.ID,
		Status:    result.Order.Status,
		ItemID:    result.Item.ID,
		Timestamp: time.Now(),
	})
	if result.RolledUp {
		metrics.OrderRollups.Inc()
		metrics.OrderTransitions.WithLabelValues(string(models.OrderReady)).Inc()
		s.log.Info("order ready",
			zap.String("tenant_id", tenantID),
			zap.String("order_id", result.Order.ID))
		s.publishOrderEvent(ctx, orderEvent(EventOrderReady, result.Order))
	}
	return result, nil
}

func (s *OrderHandler) GetOrder(ctx context.Context, tenantID, orderID string) (*models.Order, error) {
	var order models.Order
	if err := loadOrder(s.db.WithContext(ctx), tenantID, orderID, &order); err != nil {
		return nil, apperr.FromDB(err, "order")
	}
	return &order, nil
}

// ListOrders returns today's orders, newest first, unless filter.All is
// set. "Today" starts at local midnight on the server.
func (s *OrderHandler) ListOrders(ctx context.Context, tenantID string, filter ListOrdersFilter) ([]models.Order, int64, error) {
	defer metrics.TrackDBOperation("orders.list")(time.Now())

	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("tenant_id = ?", tenantID)
	if !filter.All {
		query = query.Where("created_at >= ?", startOfDay(time.Now()))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TableID != "" {
		query = query.Where("table_id = ?", filter.TableID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.FromDB(err, "orders")
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultOrderPageSize
	}
	if size > maxOrderPageSize {
		size = maxOrderPageSize
	}

	orders := []models.Order{}
	err := query.
		Preload("Items", orderItemsByCreation).
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&orders).Error
	if err != nil {
		return nil, 0, apperr.FromDB(err, "orders")
	}
	return orders, total, nil
}

// deductForOrder takes stock for every live item whose menu item is linked
// to a product, inside the completing transaction.
func (s *OrderHandler) deductForOrder(tx *gorm.DB, tenantID, orderID, actorID string) error {
	if s.inventory == nil {
		return nil
	}

	var items []models.OrderItem
	if err := tx.Where("order_id = ? AND tenant_id = ? AND status <> ? AND menu_item_id IS NOT NULL",
		orderID, tenantID, models.ItemCancelled).Find(&items).Error; err != nil {
		return apperr.FromDB(err, "order items")
	}
	if len(items) == 0 {
		return nil
	}

	menuIDs := make([]string, 0, len(items))
	for _, item := range items {
		menuIDs = append(menuIDs, *item.MenuItemID)
	}
	var menu []models.MenuItem
	if err := tx.Where("tenant_id = ? AND id IN ? AND product_id IS NOT NULL", tenantID, menuIDs).
		Find(&menu).Error; err != nil {
		return apperr.FromDB(err, "menu items")
	}
	products := make(map[string]string, len(menu))
	for _, m := range menu {
		products[m.ID] = *m.ProductID
	}

	var lines []invhandler.StockLine
	for _, item := range items {
		if productID, ok := products[*item.MenuItemID]; ok {
			lines = append(lines, invhandler.StockLine{ProductID: productID, Qty: decimal.NewFromInt(int64(item.Qty))})
		}
	}
	if len(lines) == 0 {
		return nil
	}

	_, err := s.inventory.DeductStockTx(tx, tenantID, lines, invhandler.StockRef{Type: "order", ID: orderID, ActorID: actorID})
	return err
}

// buildItems validates inputs and snapshots name and price, looking up the
// menu item when either is missing.
func buildItems(tx *gorm.DB, tenantID string, inputs []ItemInput) ([]models.OrderItem, error) {
	now := time.Now()
	menu := map[string]*models.MenuItem{}
	items := make([]models.OrderItem, 0, len(inputs))

	for i, in := range inputs {
		if in.Qty < 0 {
			return nil, apperr.Validation("item %d: qty must not be negative", i+1)
		}
		if in.Qty == 0 {
			in.Qty = 1
		}

		item := models.OrderItem{
			TenantID:        tenantID,
			Name:            strings.TrimSpace(in.Name),
			Qty:             in.Qty,
			Note:            in.Note,
			Status:          models.ItemPending,
			StatusUpdatedAt: &now,
		}
		if in.Price != nil {
			item.Price = in.Price.Round(2)
		}
		if in.IsVeg != nil {
			item.IsVeg = *in.IsVeg
		}

		if in.MenuItemID != "" {
			m, ok := menu[in.MenuItemID]
			if !ok && (item.Name == "" || in.Price == nil || in.IsVeg == nil) {
				m = &models.MenuItem{}
				if err := tx.Where("id = ? AND tenant_id = ?", in.MenuItemID, tenantID).First(m).Error; err != nil {
					return nil, apperr.FromDB(err, "menu item")
				}
				menu[in.MenuItemID] = m
			}
			if m != nil {
				if item.Name == "" {
					item.Name = m.Name
				}
				if in.Price == nil {
					item.Price = m.Price
				}
				if in.IsVeg == nil {
					item.IsVeg = m.IsVeg
				}
			}
			id := in.MenuItemID
			item.MenuItemID = &id
		} else if in.Price == nil {
			return nil, apperr.Validation("item %d: price is required", i+1)
		}

		if item.Name == "" {
			return nil, apperr.Validation("item %d: name is required", i+1)
		}
		if item.Price.IsNegative() {
			return nil, apperr.Validation("item %d: price must not be negative", i+1)
		}
		items = append(items, item)
	}
	return items, nil
}

// sumItems totals price × qty over every item that is not cancelled.
func sumItems(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Status == models.ItemCancelled {
			continue
		}
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}

// releaseTable sets the order's table to cleaning, unless the table has
// since been bound to another order.
func releaseTable(tx *gorm.DB, tenantID string, order *models.Order) error {
	if order.TableID == nil {
		return nil
	}
	err := tx.Model(&models.Table{}).
		Where("id = ? AND tenant_id = ? AND (current_order_id = ? OR current_order_id IS NULL)",
			*order.TableID, tenantID, order.ID).
		Updates(map[string]interface{}{
			"status":           models.TableCleaning,
			"current_order_id": nil,
			"customer_name":    "",
			"occupied_since":   nil,
		}).Error
	if err != nil {
		return apperr.FromDB(err, "table")
	}
	return nil
}

func orderItemsByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

func loadOrder(db *gorm.DB, tenantID, orderID string, dst *models.Order) error {
	return db.Preload("Items", orderItemsByCreation).
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		First(dst).Error
}

func lockOrder(tx *gorm.DB, tenantID, orderID string, dst *models.Order) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		First(dst).Error
}

func lockTable(tx *gorm.DB, tenantID, tableID string, dst *models.Table) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", tableID, tenantID).
		First(dst).Error
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
