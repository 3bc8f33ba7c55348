package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderCreated       OrderStatus = "Created"
	OrderSentToKitchen OrderStatus = "Sent to Kitchen"
	OrderReady         OrderStatus = "Ready"
	OrderCompleted     OrderStatus = "Completed"
	OrderCancelled     OrderStatus = "Cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

type ItemStatus string

const (
	ItemPending   ItemStatus = "Pending"
	ItemInKitchen ItemStatus = "In Kitchen"
	ItemReady     ItemStatus = "Ready"
	ItemServed    ItemStatus = "Served"
	ItemCancelled ItemStatus = "Cancelled"
)

// IsTerminal reports whether the item no longer holds up its order. Ready
// counts here because the kitchen is done with it.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemReady || s == ItemServed || s == ItemCancelled
}

type OrderType string

const (
	OrderDineIn   OrderType = "dine_in"
	OrderTakeaway OrderType = "takeaway"
	OrderDelivery OrderType = "delivery"
)

type TableStatus string

const (
	TableEmpty    TableStatus = "empty"
	TableOccupied TableStatus = "occupied"
	TableCleaning TableStatus = "cleaning"
)

type Order struct {
	ID                string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID          string          `gorm:"type:varchar(36);not null;index:idx_orders_tenant_created" json:"tenant_id"`
	TableID           *string         `gorm:"type:varchar(36);index" json:"table_id,omitempty"`
	OrderType         OrderType       `gorm:"type:varchar(16);not null" json:"order_type"`
	Status            OrderStatus     `gorm:"type:varchar(32);not null;index" json:"status"`
	CustomerName      string          `gorm:"size:128" json:"customer_name"`
	CustomerPhone     string          `gorm:"size:32" json:"customer_phone"`
	CustomerCount     int             `gorm:"not null" json:"customer_count"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	DiscountAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"discount_amount"`
	ServiceChargeRate decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"service_charge_rate"`
	TaxRate           decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"tax_rate"`
	CancelReason      string          `gorm:"size:255" json:"cancel_reason,omitempty"`
	Notes             string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy         string          `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	StatusUpdatedAt   *time.Time      `json:"status_updated_at,omitempty"`
	CreatedAt         time.Time       `gorm:"index:idx_orders_tenant_created" json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

type OrderItem struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID        string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	OrderID         string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	MenuItemID      *string         `gorm:"type:varchar(36)" json:"menu_item_id,omitempty"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Price           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	IsVeg           bool            `json:"is_veg"`
	Qty             int             `gorm:"not null" json:"qty"`
	Note            string          `gorm:"size:255" json:"note,omitempty"`
	Status          ItemStatus      `gorm:"type:varchar(16);not null" json:"status"`
	StatusUpdatedAt *time.Time      `json:"status_updated_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// LineTotal is price × qty.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

type Table struct {
	ID             string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID       string      `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	Name           string      `gorm:"size:64;not null" json:"name"`
	Seats          int         `gorm:"not null" json:"seats"`
	Status         TableStatus `gorm:"type:varchar(16);not null" json:"status"`
	CurrentOrderID *string     `gorm:"type:varchar(36)" json:"current_order_id"`
	CustomerName   string      `gorm:"size:128" json:"customer_name"`
	OccupiedSince  *time.Time  `json:"occupied_since"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (t *Table) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

type MenuItem struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID    string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Category    string          `gorm:"size:100" json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	IsVeg       bool            `json:"is_veg"`
	IsAvailable bool            `json:"is_available"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	// ProductID links a dish to the stock-tracked product it consumes.
	ProductID *string   `gorm:"type:varchar(36)" json:"product_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *MenuItem) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleVoided    SaleStatus = "voided"
)

type Sale struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID       string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	InvoiceNo      string          `gorm:"size:64;not null;index" json:"invoice_no"`
	CustomerID     *string         `gorm:"type:varchar(36);index" json:"customer_id,omitempty"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	PaymentMode    string          `gorm:"size:32" json:"payment_mode"`
	PaymentStatus  PaymentStatus   `gorm:"type:varchar(16);not null" json:"payment_status"`
	Status         SaleStatus      `gorm:"type:varchar(16);not null" json:"status"`
	VoidReason     string          `gorm:"size:255" json:"void_reason,omitempty"`
	CreatedBy      string          `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Items []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

type SaleItem struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID  string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	SaleID    string          `gorm:"type:varchar(36);not null;index" json:"sale_id"`
	ProductID *string         `gorm:"type:varchar(36)" json:"product_id,omitempty"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	Qty       decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"line_total"`
}

func (i *SaleItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
