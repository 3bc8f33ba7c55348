package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID       string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Category       string          `gorm:"size:100" json:"category"`
	Price          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	CostPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"cost_price"`
	Stock          decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"stock"`
	LowStockAlert  decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"low_stock_alert"`
	Barcode        string          `gorm:"size:64;index" json:"barcode,omitempty"`
	Unit           string          `gorm:"size:16" json:"unit"`
	TrackInventory bool            `gorm:"not null" json:"track_inventory"`
	Description    string          `gorm:"type:text" json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

type MovementType string

const (
	MovementSet     MovementType = "set"
	MovementDeduct  MovementType = "deduct"
	MovementRestore MovementType = "restore"
)

// StockMovement is the audit row written next to every stock change.
type StockMovement struct {
	ID            string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID      string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	ProductID     string          `gorm:"type:varchar(36);not null;index" json:"product_id"`
	MovementType  MovementType    `gorm:"type:varchar(16);not null" json:"movement_type"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"quantity"`
	StockBefore   decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"stock_before"`
	StockAfter    decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"stock_after"`
	ReferenceType string          `gorm:"size:32" json:"reference_type,omitempty"`
	ReferenceID   string          `gorm:"type:varchar(36)" json:"reference_id,omitempty"`
	CreatedBy     string          `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
