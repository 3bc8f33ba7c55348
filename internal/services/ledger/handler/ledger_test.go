package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/database/dbtest"
	"github.com/Pravinkumar0908/business/internal/database/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const tenantA = "tenant-a"

func newTestLedger(t *testing.T) *LedgerHandler {
	t.Helper()
	return NewLedgerHandler(dbtest.Open(t), nil, nil, 0)
}

func strPtr(s string) *string { return &s }

func createParty(t *testing.T, h *LedgerHandler, tenantID string, book Book, name string) string {
	t.Helper()
	party, err := h.CreateParty(context.Background(), tenantID, book, PartyInput{Name: strPtr(name)})
	if err != nil {
		t.Fatalf("CreateParty(%s) error = %v", name, err)
	}
	switch p := party.(type) {
	case *models.Customer:
		return p.ID
	case *models.Supplier:
		return p.ID
	}
	t.Fatalf("unexpected party type %T", party)
	return ""
}

func dueOf(t *testing.T, h *LedgerHandler, book Book, partyID string) decimal.Decimal {
	t.Helper()
	s, err := h.Summary(context.Background(), tenantA, book, partyID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	return s.Due
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreditThenPaymentScenario(t *testing.T) {
	for _, book := range []Book{Customers, Suppliers} {
		t.Run(book.Name, func(t *testing.T) {
			h := newTestLedger(t)
			ctx := context.Background()
			id := createParty(t, h, tenantA, book, "Asha")

			if due := dueOf(t, h, book, id); !due.IsZero() {
				t.Fatalf("initial due = %s, want 0", due)
			}

			if _, err := h.PostTransaction(ctx, tenantA, book, id, PostTransactionInput{
				Amount:        dec("500"),
				PaymentStatus: models.PaymentCredit,
			}); err != nil {
				t.Fatalf("PostTransaction() error = %v", err)
			}
			if due := dueOf(t, h, book, id); !due.Equal(dec("500")) {
				t.Fatalf("due after credit = %s, want 500", due)
			}

			_, err := h.PostPayment(ctx, tenantA, book, id, PostPaymentInput{Amount: dec("600")})
			if !apperr.Is(err, apperr.ReasonOverpayment) {
				t.Fatalf("PostPayment(600) error = %v, want Overpayment", err)
			}
			if due := dueOf(t, h, book, id); !due.Equal(dec("500")) {
				t.Fatalf("due after rejected payment = %s, want 500", due)
			}

			if err := h.DeleteParty(ctx, tenantA, book, id); !apperr.Is(err, apperr.ReasonHasOutstandingBalance) {
				t.Fatalf("DeleteParty() with due error = %v, want HasOutstandingBalance", err)
			}

			if _, err := h.PostPayment(ctx, tenantA, book, id, PostPaymentInput{Amount: dec("500")}); err != nil {
				t.Fatalf("PostPayment(500) error = %v", err)
			}
			if due := dueOf(t, h, book, id); !due.IsZero() {
				t.Fatalf("due after settling = %s, want 0", due)
			}

			if err := h.DeleteParty(ctx, tenantA, book, id); err != nil {
				t.Fatalf("DeleteParty() error = %v", err)
			}
			if _, err := h.GetParty(ctx, tenantA, book, id); !apperr.Is(err, apperr.ReasonNotFound) {
				t.Fatalf("GetParty() after delete error = %v, want NotFound", err)
			}
		})
	}
}

func TestPaidTransactionsDoNotCreateDue(t *testing.T) {
	h := newTestLedger(t)
	ctx := context.Background()
	id := createParty(t, h, tenantA, Customers, "Ravi")

	postings := []struct {
		amount string
		status models.PaymentStatus
	}{
		{"100", models.PaymentPaid},
		{"250", models.PaymentCredit},
		{"40", models.PaymentUnpaid},
		{"10", models.PaymentPartial},
	}
	for _, p := range postings {
		if _, err := h.PostTransaction(ctx, tenantA, Customers, id, PostTransactionInput{Amount: dec(p.amount), PaymentStatus: p.status}); err != nil {
			t.Fatalf("PostTransaction(%s, %s) error = %v", p.amount, p.status, err)
		}
	}

	s, err := h.Summary(ctx, tenantA, Customers, id)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !s.TotalCredit.Equal(dec("300")) {
		t.Errorf("TotalCredit = %s, want 300", s.TotalCredit)
	}
	if s.TransactionCount != 4 {
		t.Errorf("TransactionCount = %d, want 4", s.TransactionCount)
	}
	if s.PaymentCount != 0 {
		t.Errorf("PaymentCount = %d, want 0", s.PaymentCount)
	}
}

func TestBalanceNeverNegativeAcrossSequence(t *testing.T) {
	h := newTestLedger(t)
	ctx := context.Background()
	id := createParty(t, h, tenantA, Suppliers, "Wholesale Co")

	type step struct {
		credit  string
		payment string
	}
	steps := []step{
		{credit: "120.50"},
		{payment: "20.50"},
		{payment: "150"},
		{credit: "30"},
		{payment: "130"},
		{payment: "0.01"},
		{payment: "5"},
	}

	for i, s := range steps {
		if s.credit != "" {
			if _, err := h.PostTransaction(ctx, tenantA, Suppliers, id, PostTransactionInput{Amount: dec(s.credit)}); err != nil {
				t.Fatalf("step %d: PostTransaction() error = %v", i, err)
			}
		}
		if s.payment != "" {
			_, err := h.PostPayment(ctx, tenantA, Suppliers, id, PostPaymentInput{Amount: dec(s.payment)})
			if err != nil && !apperr.Is(err, apperr.ReasonOverpayment) {
				t.Fatalf("step %d: PostPayment() error = %v", i, err)
			}
		}

		summary, err := h.Summary(ctx, tenantA, Suppliers, id)
		if err != nil {
			t.Fatalf("step %d: Summary() error = %v", i, err)
		}
		if !summary.Due.Equal(summary.TotalCredit.Sub(summary.TotalPaid)) {
			t.Errorf("step %d: due %s != credit %s - paid %s", i, summary.Due, summary.TotalCredit, summary.TotalPaid)
		}
		if summary.Due.LessThan(BalanceEpsilon.Neg()) {
			t.Errorf("step %d: due went negative: %s", i, summary.Due)
		}
	}
}

func TestPaymentWithinEpsilonAccepted(t *testing.T) {
	h := newTestLedger(t)
	ctx := context.Background()
	id := createParty(t, h, tenantA, Customers, "Meera")

	if _, err := h.PostTransaction(ctx, tenantA, Customers, id, PostTransactionInput{Amount: dec("99.99")}); err != nil {
		t.Fatalf("PostTransaction() error = %v", err)
	}
	if _, err := h.PostPayment(ctx, tenantA, Customers, id, PostPaymentInput{Amount: dec("100")}); err != nil {
		t.Fatalf("PostPayment(100) against 99.99 error = %v, want accepted within epsilon", err)
	}
}

// The SQLite pool has a single connection, so these payments are serialised
// by the pool rather than by the party row lock. The Postgres variant below
// runs them on separate connections.
func TestConcurrentPaymentsCannotOverpay(t *testing.T) {
	testConcurrentPayments(t, newTestLedger(t), tenantA)
}

func TestConcurrentPaymentsCannotOverpayPostgres(t *testing.T) {
	db := dbtest.OpenPostgres(t)
	testConcurrentPayments(t, NewLedgerHandler(db, nil, nil, 0), uuid.NewString())
}

func testConcurrentPayments(t *testing.T, h *LedgerHandler, tenantID string) {
	t.Helper()
	ctx := context.Background()
	id := createParty(t, h, tenantID, Customers, "Kiran")

	if _, err := h.PostTransaction(ctx, tenantID, Customers, id, PostTransactionInput{Amount: dec("500")}); err != nil {
		t.Fatalf("PostTransaction() error = %v", err)
	}

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.PostPayment(ctx, tenantID, Customers, id, PostPaymentInput{Amount: dec("100")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case apperr.Is(err, apperr.ReasonOverpayment):
				rejected++
			default:
				t.Errorf("PostPayment() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 5 || rejected != 5 {
		t.Errorf("accepted=%d rejected=%d, want 5/5", accepted, rejected)
	}
	summary, err := h.Summary(ctx, tenantID, Customers, id)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !summary.Due.IsZero() {
		t.Errorf("due = %s, want 0", summary.Due)
	}
}

func TestPostTransactionUpdatesCustomerStats(t *testing.T) {
	h := newTestLedger(t)
	ctx := context.Background()
	id := createParty(t, h, tenantA, Customers, "Dev")

	for _, amt := range []string{"250", "99", "100"} {
		if _, err := h.PostTransaction(ctx, tenantA, Customers, id, PostTransactionInput{Amount: dec(amt), PaymentStatus: models.PaymentPaid}); err != nil {
			t.Fatalf("PostTransaction(%s) error = %v", amt, err)
		}
	}

	party, err := h.GetParty(ctx, tenantA, Customers, id)
	if err != nil {
		t.Fatalf("GetParty() error = %v", err)
	}
	c := party.(*models.Customer)
	if !c.TotalPurchases.Equal(dec("449")) {
		t.Errorf("TotalPurchases = %s, want 449", c.TotalPurchases)
	}
	if c.VisitCount != 3 {
		t.Errorf("VisitCount = %d, want 3", c.VisitCount)
	}
	if c.LoyaltyPoints != 3 {
		t.Errorf("LoyaltyPoints = %d, want 3 (2 + 0 + 1)", c.LoyaltyPoints)
	}
	if c.LastVisitDate == nil {
		t.Error("LastVisitDate not set")
	}
}

func TestPostTransactionUpdatesSupplierStats(t *testing.T) {
	h := newTestLedger(t)
	ctx := context.Background()
	id := createParty(t, h, tenantA, Suppliers, "Farm Fresh")

	entry, err := h.PostTransaction(ctx, tenantA, Suppliers, id, PostTransactionInput{Amount: dec("1200"), InvoiceNo: "INV-7"})
	if err != nil {
		t.Fatalf("PostTransaction() error = %v", err)
	}
	if entry.Type != "purchase" || entry.PaymentStatus != models.PaymentUnpaid {
		t.Errorf("defaults = (%s, %s), want (purchase, unpaid)", entry.Type, entry.PaymentStatus)
	}

	party, err := h.GetParty(ctx, tenantA, Suppliers, id)
	if err != nil {
		t.Fatalf("GetParty() error = %v", err)
	}
	s := party.(*models.Supplier)
	if s.OrderCount != 1 || !s.TotalPurchases.Equal(dec("1200")) || s.LastOrderDate == nil {
		t.Errorf("supplier stats = count %d, total %s, last %v", s.OrderCount, s.TotalPurchases, s.LastOrderDate)
	}
}

func TestLedgerValidation(t *testing.T) {
	h := newTestLedger(t)
	ctx := context.Background()
	id := createParty(t, h, tenantA, Customers, "Zoya")

	tests := []struct {
		name   string
		call   func() error
		reason string
	}{
		{"negative transaction", func() error {
			_, err := h.PostTransaction(ctx, tenantA, Customers, id, PostTransactionInput{Amount: dec("-1")})
			return err
		}, apperr.ReasonValidation},
		{"unknown classification", func() error {
			_, err := h.PostTransaction(ctx, tenantA, Customers, id, PostTransactionInput{Amount: dec("1"), PaymentStatus: "later"})
			return err
		}, apperr.ReasonValidation},
		{"zero payment", func() error {
			_, err := h.PostPayment(ctx, tenantA, Customers, id, PostPaymentInput{Amount: decimal.Zero})
			return err
		}, apperr.ReasonValidation},
		{"unknown party", func() error {
			_, err := h.PostPayment(ctx, tenantA, Customers, "missing", PostPaymentInput{Amount: dec("1")})
			return err
		}, apperr.ReasonNotFound},
		{"other tenant", func() error {
			_, err := h.PostTransaction(ctx, "tenant-b", Customers, id, PostTransactionInput{Amount: dec("1")})
			return err
		}, apperr.ReasonNotFound},
		{"summary of unknown party", func() error {
			_, err := h.Summary(ctx, tenantA, Customers, "missing")
			return err
		}, apperr.ReasonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !apperr.Is(err, tt.reason) {
				t.Errorf("error = %v, want reason %s", err, tt.reason)
			}
		})
	}
}

func TestListBalancesAndStats(t *testing.T) {
	h := newTestLedger(t)
	ctx := context.Background()

	a := createParty(t, h, tenantA, Suppliers, "Alpha")
	b := createParty(t, h, tenantA, Suppliers, "Beta")
	createParty(t, h, tenantA, Suppliers, "Gamma")
	createParty(t, h, "tenant-b", Suppliers, "Elsewhere")

	mustPost := func(id, amount string) {
		if _, err := h.PostTransaction(ctx, tenantA, Suppliers, id, PostTransactionInput{Amount: dec(amount)}); err != nil {
			t.Fatalf("PostTransaction() error = %v", err)
		}
	}
	mustPost(a, "300")
	mustPost(b, "200")
	if _, err := h.PostPayment(ctx, tenantA, Suppliers, b, PostPaymentInput{Amount: dec("200")}); err != nil {
		t.Fatalf("PostPayment() error = %v", err)
	}

	balances, err := h.ListBalances(ctx, tenantA, Suppliers, "")
	if err != nil {
		t.Fatalf("ListBalances() error = %v", err)
	}
	if len(balances) != 3 {
		t.Fatalf("got %d balances, want 3", len(balances))
	}
	if balances[0].Name != "Alpha" || !balances[0].Due.Equal(dec("300")) {
		t.Errorf("first balance = %+v, want Alpha with due 300", balances[0])
	}

	stats, err := h.Stats(ctx, tenantA, Suppliers)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.PartyCount != 3 || stats.PartiesWithDue != 1 || !stats.TotalDue.Equal(dec("300")) {
		t.Errorf("Stats() = %+v", stats)
	}

	entries, err := h.ListPayments(ctx, tenantA, Suppliers, b)
	if err != nil {
		t.Fatalf("ListPayments() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Mode != "cash" || entries[0].PartyID != b {
		t.Errorf("ListPayments() = %+v", entries)
	}

	txs, err := h.ListTransactions(ctx, tenantA, Suppliers, a)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 1 || !txs[0].Amount.Equal(dec("300")) {
		t.Errorf("ListTransactions() = %+v", txs)
	}
}

func TestLoyaltyPoints(t *testing.T) {
	tests := map[string]int64{
		"0":      0,
		"99.99":  0,
		"100":    1,
		"250":    2,
		"1000.5": 10,
		"-300":   0,
	}
	for amount, want := range tests {
		if got := LoyaltyPoints(dec(amount)); got != want {
			t.Errorf("LoyaltyPoints(%s) = %d, want %d", amount, got, want)
		}
	}
}

func TestSummaryReportsTimeout(t *testing.T) {
	db := dbtest.Open(t)
	h := NewLedgerHandler(db, nil, nil, 50*time.Millisecond)
	id := createParty(t, h, tenantA, Customers, "Lata")

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := h.Summary(ctx, tenantA, Customers, id)
	if !apperr.Is(err, apperr.ReasonTimeout) {
		t.Fatalf("Summary() error = %v, want Timeout", err)
	}
	if code := apperr.HTTPStatus(err); code != http.StatusServiceUnavailable {
		t.Errorf("HTTPStatus = %d, want %d", code, http.StatusServiceUnavailable)
	}
}
