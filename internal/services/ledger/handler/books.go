package handler

import (
	"time"

	"github.com/Pravinkumar0908/business/internal/database/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Book describes one counterparty ledger: which tables hold the party, its
// transactions and its payments, and how a posting bumps the party's stats.
type Book struct {
	Name          string
	PartyColumn   string
	DefaultType   string
	DefaultStatus models.PaymentStatus

	partyTable       string
	transactionTable string
	paymentTable     string

	newParty       func() interface{}
	newTransaction func(tenantID, partyID string, e *Entry) interface{}
	newPayment     func(tenantID, partyID string, e *Entry) interface{}
	statsUpdate    func(amount decimal.Decimal, at time.Time) map[string]interface{}
}

var Customers = Book{
	Name:             "customers",
	PartyColumn:      "customer_id",
	DefaultType:      "sale",
	DefaultStatus:    models.PaymentCredit,
	partyTable:       "customers",
	transactionTable: "customer_transactions",
	paymentTable:     "customer_payments",
	newParty:         func() interface{} { return &models.Customer{} },
	newTransaction: func(tenantID, partyID string, e *Entry) interface{} {
		return &models.CustomerTransaction{
			ID:            e.ID,
			TenantID:      tenantID,
			CustomerID:    partyID,
			Type:          e.Type,
			Amount:        e.Amount,
			PaymentStatus: e.PaymentStatus,
			Description:   e.Note,
			InvoiceNo:     e.InvoiceNo,
			CreatedBy:     e.CreatedBy,
			CreatedAt:     e.CreatedAt,
		}
	},
	newPayment: func(tenantID, partyID string, e *Entry) interface{} {
		return &models.CustomerPayment{
			ID:         e.ID,
			TenantID:   tenantID,
			CustomerID: partyID,
			Amount:     e.Amount,
			Mode:       e.Mode,
			Note:       e.Note,
			CreatedBy:  e.CreatedBy,
			CreatedAt:  e.CreatedAt,
		}
	},
	statsUpdate: func(amount decimal.Decimal, at time.Time) map[string]interface{} {
		return map[string]interface{}{
			"total_purchases": gorm.Expr("total_purchases + ?", amount),
			"visit_count":     gorm.Expr("visit_count + 1"),
			"loyalty_points":  gorm.Expr("loyalty_points + ?", LoyaltyPoints(amount)),
			"last_visit_date": at,
		}
	},
}

var Suppliers = Book{
	Name:             "suppliers",
	PartyColumn:      "supplier_id",
	DefaultType:      "purchase",
	DefaultStatus:    models.PaymentUnpaid,
	partyTable:       "suppliers",
	transactionTable: "supplier_transactions",
	paymentTable:     "supplier_payments",
	newParty:         func() interface{} { return &models.Supplier{} },
	newTransaction: func(tenantID, partyID string, e *Entry) interface{} {
		return &models.SupplierTransaction{
			ID:            e.ID,
			TenantID:      tenantID,
			SupplierID:    partyID,
			Type:          e.Type,
			Amount:        e.Amount,
			PaymentStatus: e.PaymentStatus,
			Description:   e.Note,
			InvoiceNo:     e.InvoiceNo,
			CreatedBy:     e.CreatedBy,
			CreatedAt:     e.CreatedAt,
		}
	},
	newPayment: func(tenantID, partyID string, e *Entry) interface{} {
		return &models.SupplierPayment{
			ID:         e.ID,
			TenantID:   tenantID,
			SupplierID: partyID,
			Amount:     e.Amount,
			Mode:       e.Mode,
			Note:       e.Note,
			CreatedBy:  e.CreatedBy,
			CreatedAt:  e.CreatedAt,
		}
	},
	statsUpdate: func(amount decimal.Decimal, at time.Time) map[string]interface{} {
		return map[string]interface{}{
			"total_purchases": gorm.Expr("total_purchases + ?", amount),
			"order_count":     gorm.Expr("order_count + 1"),
			"last_order_date": at,
		}
	},
}

// BookByName resolves the path segment used by the HTTP routes.
func BookByName(name string) (Book, bool) {
	switch name {
	case Customers.Name:
		return Customers, true
	case Suppliers.Name:
		return Suppliers, true
	}
	return Book{}, false
}

// LoyaltyPoints awards one point per 100 currency units.
func LoyaltyPoints(amount decimal.Decimal) int64 {
	if !amount.IsPositive() {
		return 0
	}
	return amount.Div(decimal.NewFromInt(100)).Floor().IntPart()
}

// Entry is the book-independent view of a transaction or payment row.
// Note carries a transaction's description or a payment's note.
type Entry struct {
	ID            string               `json:"id"`
	PartyID       string               `json:"party_id"`
	Type          string               `json:"type,omitempty"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentStatus models.PaymentStatus `json:"payment_status,omitempty"`
	Mode          string               `json:"mode,omitempty"`
	Note          string               `json:"note,omitempty"`
	InvoiceNo     string               `json:"invoice_no,omitempty"`
	CreatedBy     string               `json:"created_by,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}
