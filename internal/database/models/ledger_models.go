package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus classifies a ledger transaction.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentCredit  PaymentStatus = "credit"
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
)

// CreditStatuses are the classifications that count toward the amount owed.
var CreditStatuses = []PaymentStatus{PaymentCredit, PaymentUnpaid, PaymentPartial}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentCredit, PaymentUnpaid, PaymentPartial:
		return true
	}
	return false
}

func (s PaymentStatus) IsCredit() bool {
	return s.Valid() && s != PaymentPaid
}

type Customer struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID       string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Phone          string          `gorm:"size:32;index" json:"phone,omitempty"`
	Email          string          `gorm:"size:255" json:"email,omitempty"`
	Address        string          `gorm:"type:text" json:"address,omitempty"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	TotalPurchases decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_purchases"`
	VisitCount     int             `gorm:"not null" json:"visit_count"`
	LoyaltyPoints  int64           `gorm:"not null" json:"loyalty_points"`
	LastVisitDate  *time.Time      `json:"last_visit_date,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type CustomerTransaction struct {
	ID            string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID      string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	CustomerID    string          `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	Type          string          `gorm:"size:32;not null" json:"type"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(16);not null" json:"payment_status"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	InvoiceNo     string          `gorm:"size:64" json:"invoice_no,omitempty"`
	CreatedBy     string          `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (t *CustomerTransaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

type CustomerPayment struct {
	ID         string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID   string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	CustomerID string          `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Mode       string          `gorm:"size:32;not null" json:"mode"`
	Note       string          `gorm:"type:text" json:"note,omitempty"`
	CreatedBy  string          `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (p *CustomerPayment) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

type Supplier struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID       string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Phone          string          `gorm:"size:32" json:"phone,omitempty"`
	Email          string          `gorm:"size:255" json:"email,omitempty"`
	Address        string          `gorm:"type:text" json:"address,omitempty"`
	GSTNumber      string          `gorm:"size:32" json:"gst_number,omitempty"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	TotalPurchases decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_purchases"`
	OrderCount     int             `gorm:"not null" json:"order_count"`
	LastOrderDate  *time.Time      `json:"last_order_date,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

type SupplierTransaction struct {
	ID            string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID      string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	SupplierID    string          `gorm:"type:varchar(36);not null;index" json:"supplier_id"`
	Type          string          `gorm:"size:32;not null" json:"type"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(16);not null" json:"payment_status"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	InvoiceNo     string          `gorm:"size:64" json:"invoice_no,omitempty"`
	CreatedBy     string          `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (t *SupplierTransaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

type SupplierPayment struct {
	ID         string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TenantID   string          `gorm:"type:varchar(36);not null;index" json:"tenant_id"`
	SupplierID string          `gorm:"type:varchar(36);not null;index" json:"supplier_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Mode       string          `gorm:"size:32;not null" json:"mode"`
	Note       string          `gorm:"type:text" json:"note,omitempty"`
	CreatedBy  string          `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (p *SupplierPayment) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
