package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/cache"
	"github.com/Pravinkumar0908/business/internal/database/models"
	"github.com/Pravinkumar0908/business/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	LEDGER_CACHE_PREFIX = "ledger:"
	defaultPaymentMode  = "cash"
)

// BalanceEpsilon absorbs rounding when comparing a payment to the amount due.
var BalanceEpsilon = decimal.New(1, -2)

type LedgerHandler struct {
	db           *gorm.DB
	cache        *cache.Cache
	log          *zap.Logger
	queryTimeout time.Duration
}

func NewLedgerHandler(db *gorm.DB, c *cache.Cache, log *zap.Logger, queryTimeout time.Duration) *LedgerHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LedgerHandler{
		db:           db,
		cache:        c,
		log:          log.Named("ledger"),
		queryTimeout: queryTimeout,
	}
}

type PostTransactionInput struct {
	Type          string               `json:"type"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	Description   string               `json:"description"`
	InvoiceNo     string               `json:"invoice_no"`
	ActorID       string               `json:"-"`
}

type PostPaymentInput struct {
	Amount  decimal.Decimal `json:"amount"`
	Mode    string          `json:"mode"`
	Note    string          `json:"note"`
	ActorID string          `json:"-"`
}

// Summary is the derived state of one counterparty's ledger.
type Summary struct {
	PartyID          string          `json:"party_id"`
	TotalCredit      decimal.Decimal `json:"total_credit"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	Due              decimal.Decimal `json:"due"`
	TransactionCount int64           `json:"transaction_count"`
	PaymentCount     int64           `json:"payment_count"`
}

func (h *LedgerHandler) summaryCacheKey(book Book, tenantID, partyID string) string {
	return fmt.Sprintf("%s%s:%s:summary:%s", LEDGER_CACHE_PREFIX, tenantID, book.Name, partyID)
}

func (h *LedgerHandler) statsCacheKey(book Book, tenantID string) string {
	return fmt.Sprintf("%s%s:%s:stats", LEDGER_CACHE_PREFIX, tenantID, book.Name)
}

// InvalidateLedgerCaches drops cached summaries for the given parties and the
// book-wide stats.
func (h *LedgerHandler) InvalidateLedgerCaches(ctx context.Context, book Book, tenantID string, partyIDs ...string) {
	keys := []string{h.statsCacheKey(book, tenantID)}
	for _, id := range partyIDs {
		keys = append(keys, h.summaryCacheKey(book, tenantID, id))
	}
	h.cache.Delete(ctx, keys...)
}

// PostTransaction appends a sale or purchase to the party's ledger and bumps
// the party's cumulative stats in the same transaction.
func (h *LedgerHandler) PostTransaction(ctx context.Context, tenantID string, book Book, partyID string, in PostTransactionInput) (*Entry, error) {
	defer metrics.TrackDBOperation("ledger.post_transaction")(time.Now())

	var entry *Entry
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = h.PostTransactionTx(tx, tenantID, book, partyID, in)
		return err
	})
	if err != nil {
		return nil, apperr.FromDB(err, book.Name+" transaction")
	}

	h.InvalidateLedgerCaches(ctx, book, tenantID, partyID)
	metrics.LedgerPostings.WithLabelValues(book.Name, "transaction").Inc()
	h.log.Info("ledger transaction posted",
		zap.String("tenant_id", tenantID),
		zap.String("book", book.Name),
		zap.String("party_id", partyID),
		zap.String("amount", entry.Amount.StringFixed(2)),
		zap.String("payment_status", string(entry.PaymentStatus)))
	return entry, nil
}

// PostTransactionTx runs PostTransaction inside the caller's transaction. The
// caller is responsible for InvalidateLedgerCaches after commit.
func (h *LedgerHandler) PostTransactionTx(tx *gorm.DB, tenantID string, book Book, partyID string, in PostTransactionInput) (*Entry, error) {
	if in.Amount.IsNegative() {
		return nil, apperr.Validation("amount must not be negative")
	}

	status := in.PaymentStatus
	if status == "" {
		status = book.DefaultStatus
	}
	if !status.Valid() {
		return nil, apperr.Validation("unknown payment status %q", in.PaymentStatus)
	}

	txType := strings.TrimSpace(in.Type)
	if txType == "" {
		txType = book.DefaultType
	}

	party := book.newParty()
	if err := lockParty(tx, tenantID, partyID, party); err != nil {
		return nil, apperr.FromDB(err, strings.TrimSuffix(book.Name, "s"))
	}

	now := time.Now()
	entry := &Entry{
		ID:            uuid.NewString(),
		PartyID:       partyID,
		Type:          txType,
		Amount:        in.Amount.Round(2),
		PaymentStatus: status,
		Note:          in.Description,
		InvoiceNo:     in.InvoiceNo,
		CreatedBy:     in.ActorID,
		CreatedAt:     now,
	}

	if err := tx.Create(book.newTransaction(tenantID, partyID, entry)).Error; err != nil {
		return nil, apperr.FromDB(err, book.Name+" transaction")
	}
	if err := tx.Model(party).Updates(book.statsUpdate(entry.Amount, now)).Error; err != nil {
		return nil, apperr.FromDB(err, book.Name+" stats")
	}
	return entry, nil
}

// PostPayment records money received from a customer or paid to a supplier.
// The party row stays locked from the balance read to the insert, so two
// concurrent payments cannot both pass the overpayment check.
func (h *LedgerHandler) PostPayment(ctx context.Context, tenantID string, book Book, partyID string, in PostPaymentInput) (*Entry, error) {
	defer metrics.TrackDBOperation("ledger.post_payment")(time.Now())

	if !in.Amount.IsPositive() {
		return nil, apperr.Validation("payment amount must be greater than 0")
	}
	mode := strings.TrimSpace(in.Mode)
	if mode == "" {
		mode = defaultPaymentMode
	}

	var entry *Entry
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		party := book.newParty()
		if err := lockParty(tx, tenantID, partyID, party); err != nil {
			return apperr.FromDB(err, strings.TrimSuffix(book.Name, "s"))
		}

		summary, err := h.summarize(tx, tenantID, book, partyID)
		if err != nil {
			return err
		}
		if in.Amount.GreaterThan(summary.Due.Add(BalanceEpsilon)) {
			metrics.LedgerRejections.WithLabelValues(book.Name, apperr.ReasonOverpayment).Inc()
			return apperr.Overpayment("payment of %s exceeds the outstanding balance of %s",
				in.Amount.StringFixed(2), summary.Due.StringFixed(2))
		}

		entry = &Entry{
			ID:        uuid.NewString(),
			PartyID:   partyID,
			Amount:    in.Amount.Round(2),
			Mode:      mode,
			Note:      in.Note,
			CreatedBy: in.ActorID,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(book.newPayment(tenantID, partyID, entry)).Error; err != nil {
			return apperr.FromDB(err, book.Name+" payment")
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromDB(err, book.Name+" payment")
	}

	h.InvalidateLedgerCaches(ctx, book, tenantID, partyID)
	metrics.LedgerPostings.WithLabelValues(book.Name, "payment").Inc()
	h.log.Info("ledger payment posted",
		zap.String("tenant_id", tenantID),
		zap.String("book", book.Name),
		zap.String("party_id", partyID),
		zap.String("amount", entry.Amount.StringFixed(2)),
		zap.String("mode", entry.Mode))
	return entry, nil
}

// DeleteParty soft-deletes a customer or supplier whose balance is settled.
func (h *LedgerHandler) DeleteParty(ctx context.Context, tenantID string, book Book, partyID string) error {
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		party := book.newParty()
		if err := lockParty(tx, tenantID, partyID, party); err != nil {
			return apperr.FromDB(err, strings.TrimSuffix(book.Name, "s"))
		}

		summary, err := h.summarize(tx, tenantID, book, partyID)
		if err != nil {
			return err
		}
		if summary.Due.IsPositive() {
			metrics.LedgerRejections.WithLabelValues(book.Name, apperr.ReasonHasOutstandingBalance).Inc()
			return apperr.HasOutstandingBalance("cannot delete: outstanding balance of %s", summary.Due.StringFixed(2))
		}

		return tx.Delete(party).Error
	})
	if err != nil {
		return apperr.FromDB(err, strings.TrimSuffix(book.Name, "s"))
	}

	h.InvalidateLedgerCaches(ctx, book, tenantID, partyID)
	h.log.Info("ledger party deleted",
		zap.String("tenant_id", tenantID),
		zap.String("book", book.Name),
		zap.String("party_id", partyID))
	return nil
}

// Summary returns the derived totals for one party, bounded by the
// configured query timeout.
func (h *LedgerHandler) Summary(ctx context.Context, tenantID string, book Book, partyID string) (*Summary, error) {
	defer metrics.TrackDBOperation("ledger.summary")(time.Now())

	key := h.summaryCacheKey(book, tenantID, partyID)
	var cached Summary
	if h.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	if h.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queryTimeout)
		defer cancel()
	}

	db := h.db.WithContext(ctx)
	party := book.newParty()
	if err := db.Where("id = ? AND tenant_id = ?", partyID, tenantID).First(party).Error; err != nil {
		return nil, apperr.FromDB(err, strings.TrimSuffix(book.Name, "s"))
	}

	summary, err := h.summarize(db, tenantID, book, partyID)
	if err != nil {
		return nil, err
	}

	h.cache.SetJSON(ctx, key, summary, cache.TTLShort)
	return summary, nil
}

// summarize aggregates the posting tables. It runs on whatever handle it is
// given, so inside a transaction it sees that transaction's writes.
func (h *LedgerHandler) summarize(db *gorm.DB, tenantID string, book Book, partyID string) (*Summary, error) {
	summary := &Summary{PartyID: partyID}

	err := db.Table(book.transactionTable).
		Select("COALESCE(SUM(CASE WHEN payment_status IN ? THEN amount ELSE 0 END), 0), COUNT(*)", models.CreditStatuses).
		Where("tenant_id = ? AND "+book.PartyColumn+" = ?", tenantID, partyID).
		Row().Scan(&summary.TotalCredit, &summary.TransactionCount)
	if err != nil {
		return nil, apperr.FromDB(err, book.Name+" ledger")
	}

	err = db.Table(book.paymentTable).
		Select("COALESCE(SUM(amount), 0), COUNT(*)").
		Where("tenant_id = ? AND "+book.PartyColumn+" = ?", tenantID, partyID).
		Row().Scan(&summary.TotalPaid, &summary.PaymentCount)
	if err != nil {
		return nil, apperr.FromDB(err, book.Name+" ledger")
	}

	summary.TotalCredit = summary.TotalCredit.Round(2)
	summary.TotalPaid = summary.TotalPaid.Round(2)
	summary.Due = summary.TotalCredit.Sub(summary.TotalPaid)
	return summary, nil
}

func (h *LedgerHandler) ListTransactions(ctx context.Context, tenantID string, book Book, partyID string) ([]Entry, error) {
	return h.listEntries(ctx, tenantID, book, partyID, book.transactionTable,
		"id, "+book.PartyColumn+" AS party_id, type, amount, payment_status, description AS note, invoice_no, created_by, created_at")
}

func (h *LedgerHandler) ListPayments(ctx context.Context, tenantID string, book Book, partyID string) ([]Entry, error) {
	return h.listEntries(ctx, tenantID, book, partyID, book.paymentTable,
		"id, "+book.PartyColumn+" AS party_id, amount, mode, note, created_by, created_at")
}

func (h *LedgerHandler) listEntries(ctx context.Context, tenantID string, book Book, partyID, table, columns string) ([]Entry, error) {
	db := h.db.WithContext(ctx)

	party := book.newParty()
	if err := db.Where("id = ? AND tenant_id = ?", partyID, tenantID).First(party).Error; err != nil {
		return nil, apperr.FromDB(err, strings.TrimSuffix(book.Name, "s"))
	}

	entries := []Entry{}
	err := db.Table(table).
		Select(columns).
		Where("tenant_id = ? AND "+book.PartyColumn+" = ?", tenantID, partyID).
		Order("created_at DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, apperr.FromDB(err, book.Name+" ledger")
	}
	return entries, nil
}

func lockParty(tx *gorm.DB, tenantID, partyID string, dst interface{}) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", partyID, tenantID).
		First(dst).Error
}
