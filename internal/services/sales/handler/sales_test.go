package handler

import (
	"context"
	"strings"
	"testing"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/database/dbtest"
	"github.com/Pravinkumar0908/business/internal/database/models"
	invhandler "github.com/Pravinkumar0908/business/internal/services/inventory/handler"
	ledgerhandler "github.com/Pravinkumar0908/business/internal/services/ledger/handler"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const tenantA = "tenant-a"

type fixture struct {
	db     *gorm.DB
	sales  *SalesHandler
	ledger *ledgerhandler.LedgerHandler
}

func newFixture(t *testing.T, restoreOnVoid bool) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	ledger := ledgerhandler.NewLedgerHandler(db, nil, nil, 0)
	return &fixture{
		db:     db,
		sales:  NewSalesHandler(db, invhandler.NewInventoryHandler(db, nil), ledger, nil, restoreOnVoid),
		ledger: ledger,
	}
}

func (f *fixture) product(t *testing.T, name string, stock int64) *models.Product {
	t.Helper()
	p := &models.Product{TenantID: tenantA, Name: name, Price: decimal.NewFromInt(50), Stock: decimal.NewFromInt(stock), TrackInventory: true, Unit: "pcs"}
	if err := f.db.Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (f *fixture) customer(t *testing.T) string {
	t.Helper()
	c := &models.Customer{TenantID: tenantA, Name: "Anu"}
	if err := f.db.Create(c).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c.ID
}

func (f *fixture) stock(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	var p models.Product
	if err := f.db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p.Stock
}

func TestCreateSaleDeductsStockAndTotals(t *testing.T) {
	f := newFixture(t, false)
	soap := f.product(t, "Soap", 10)

	sale, err := f.sales.CreateSale(context.Background(), tenantA, "cashier-1", CreateSaleInput{
		TaxAmount:      decimal.NewFromInt(9),
		DiscountAmount: decimal.NewFromInt(4),
		Items: []SaleItemInput{
			{ProductID: soap.ID, Qty: decimal.NewFromInt(3)},
			{Name: "Gift wrap", Price: decimalPtr("5"), Qty: decimal.NewFromInt(1)},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale() error = %v", err)
	}

	if !sale.Subtotal.Equal(decimal.NewFromInt(155)) || !sale.Total.Equal(decimal.NewFromInt(160)) {
		t.Errorf("subtotal/total = %s/%s, want 155/160", sale.Subtotal, sale.Total)
	}
	if sale.PaymentStatus != models.PaymentPaid || sale.PaymentMode != "cash" {
		t.Errorf("defaults = (%s, %s)", sale.PaymentStatus, sale.PaymentMode)
	}
	if !strings.HasPrefix(sale.InvoiceNo, "INV-") {
		t.Errorf("invoice no = %q, want INV- prefix", sale.InvoiceNo)
	}
	if sale.Items[0].Name != "Soap" {
		t.Errorf("item name = %q, want snapshot from product", sale.Items[0].Name)
	}
	if got := f.stock(t, soap.ID); !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("stock = %s, want 7", got)
	}
}

func TestCreditSalePostsToCustomerLedger(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	customerID := f.customer(t)

	_, err := f.sales.CreateSale(ctx, tenantA, "", CreateSaleInput{
		CustomerID:    customerID,
		PaymentStatus: models.PaymentCredit,
		Items:         []SaleItemInput{{Name: "Haircut", Price: decimalPtr("300"), Qty: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("CreateSale() error = %v", err)
	}

	summary, err := f.ledger.Summary(ctx, tenantA, ledgerhandler.Customers, customerID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !summary.Due.Equal(decimal.NewFromInt(300)) || summary.TransactionCount != 1 {
		t.Errorf("summary = %+v, want due 300 over 1 transaction", summary)
	}
}

func TestCreateSaleRollsBackOnUnknownCustomer(t *testing.T) {
	f := newFixture(t, false)
	soap := f.product(t, "Soap", 10)

	_, err := f.sales.CreateSale(context.Background(), tenantA, "", CreateSaleInput{
		CustomerID: "missing",
		Items:      []SaleItemInput{{ProductID: soap.ID, Qty: decimal.NewFromInt(2)}},
	})
	if !apperr.Is(err, apperr.ReasonNotFound) {
		t.Fatalf("CreateSale() error = %v, want NotFound", err)
	}

	var sales int64
	f.db.Model(&models.Sale{}).Count(&sales)
	if sales != 0 {
		t.Errorf("sales stored = %d, want 0", sales)
	}
	if got := f.stock(t, soap.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("stock = %s, want untouched 10", got)
	}
}

func TestCreateSaleValidation(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name string
		in   CreateSaleInput
	}{
		{"no items", CreateSaleInput{}},
		{"credit without customer", CreateSaleInput{
			PaymentStatus: models.PaymentCredit,
			Items:         []SaleItemInput{{Name: "x", Price: decimalPtr("1"), Qty: decimal.NewFromInt(1)}},
		}},
		{"zero qty", CreateSaleInput{
			Items: []SaleItemInput{{Name: "x", Price: decimalPtr("1")}},
		}},
		{"missing price", CreateSaleInput{
			Items: []SaleItemInput{{Name: "x", Qty: decimal.NewFromInt(1)}},
		}},
		{"discount above total", CreateSaleInput{
			DiscountAmount: decimal.NewFromInt(100),
			Items:          []SaleItemInput{{Name: "x", Price: decimalPtr("10"), Qty: decimal.NewFromInt(1)}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sales.CreateSale(context.Background(), tenantA, "", tt.in)
			if !apperr.Is(err, apperr.ReasonValidation) {
				t.Errorf("error = %v, want Validation", err)
			}
		})
	}
}

func TestVoidSale(t *testing.T) {
	tests := []struct {
		name      string
		restore   bool
		wantStock int64
	}{
		{"keeps stock by default", false, 6},
		{"restores stock when configured", true, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.restore)
			ctx := context.Background()
			soap := f.product(t, "Soap", 10)

			sale, err := f.sales.CreateSale(ctx, tenantA, "", CreateSaleInput{
				Items: []SaleItemInput{{ProductID: soap.ID, Qty: decimal.NewFromInt(4)}},
			})
			if err != nil {
				t.Fatalf("CreateSale() error = %v", err)
			}

			voided, err := f.sales.VoidSale(ctx, tenantA, sale.ID, "wrong item", "manager-1")
			if err != nil {
				t.Fatalf("VoidSale() error = %v", err)
			}
			if voided.Status != models.SaleVoided || voided.VoidReason != "wrong item" {
				t.Errorf("voided = (%s, %q)", voided.Status, voided.VoidReason)
			}
			if got := f.stock(t, soap.ID); !got.Equal(decimal.NewFromInt(tt.wantStock)) {
				t.Errorf("stock = %s, want %d", got, tt.wantStock)
			}

			if _, err := f.sales.VoidSale(ctx, tenantA, sale.ID, "", ""); !apperr.Is(err, apperr.ReasonInvalidState) {
				t.Errorf("second VoidSale() error = %v, want InvalidState", err)
			}
		})
	}
}

func TestVoidRestoresOnlyStockTheSaleRemoved(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	soap := f.product(t, "Soap", 1)

	sale, err := f.sales.CreateSale(ctx, tenantA, "", CreateSaleInput{
		Items: []SaleItemInput{{ProductID: soap.ID, Qty: decimal.NewFromInt(5)}},
	})
	if err != nil {
		t.Fatalf("CreateSale() error = %v", err)
	}
	if got := f.stock(t, soap.ID); !got.IsZero() {
		t.Fatalf("stock after sale = %s, want 0", got)
	}

	if _, err := f.sales.VoidSale(ctx, tenantA, sale.ID, "mistake", "manager-1"); err != nil {
		t.Fatalf("VoidSale() error = %v", err)
	}
	if got := f.stock(t, soap.ID); !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("stock after void = %s, want 1", got)
	}
}

func TestVoidCreditSaleRejected(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	sale, err := f.sales.CreateSale(ctx, tenantA, "", CreateSaleInput{
		CustomerID:    f.customer(t),
		PaymentStatus: models.PaymentCredit,
		Items:         []SaleItemInput{{Name: "Facial", Price: decimalPtr("800"), Qty: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("CreateSale() error = %v", err)
	}

	if _, err := f.sales.VoidSale(ctx, tenantA, sale.ID, "", ""); !apperr.Is(err, apperr.ReasonInvalidState) {
		t.Errorf("VoidSale() error = %v, want InvalidState", err)
	}
}

func TestListSales(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	customerID := f.customer(t)

	for i := 0; i < 3; i++ {
		in := CreateSaleInput{Items: []SaleItemInput{{Name: "Item", Price: decimalPtr("10"), Qty: decimal.NewFromInt(1)}}}
		if i == 0 {
			in.CustomerID = customerID
		}
		if _, err := f.sales.CreateSale(ctx, tenantA, "", in); err != nil {
			t.Fatalf("CreateSale() error = %v", err)
		}
	}

	all, total, err := f.sales.ListSales(ctx, tenantA, ListSalesFilter{})
	if err != nil {
		t.Fatalf("ListSales() error = %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("ListSales() = %d (total %d), want 3", len(all), total)
	}

	mine, total, err := f.sales.ListSales(ctx, tenantA, ListSalesFilter{CustomerID: customerID})
	if err != nil {
		t.Fatalf("ListSales(customer) error = %v", err)
	}
	if total != 1 || len(mine) != 1 || len(mine[0].Items) != 1 {
		t.Errorf("customer sales = %+v", mine)
	}

	if _, err := f.sales.GetSale(ctx, "tenant-b", all[0].ID); !apperr.Is(err, apperr.ReasonNotFound) {
		t.Errorf("cross-tenant GetSale() error = %v, want NotFound", err)
	}
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
