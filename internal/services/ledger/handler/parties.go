package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/cache"
	"github.com/Pravinkumar0908/business/internal/database/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PartyInput creates or patches a customer or supplier. GSTNumber only
// applies to suppliers.
type PartyInput struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Address   *string `json:"address"`
	GSTNumber *string `json:"gst_number"`
	Notes     *string `json:"notes"`
}

func (in PartyInput) updates(book Book) map[string]interface{} {
	updates := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	set("name", in.Name)
	set("phone", in.Phone)
	set("email", in.Email)
	set("address", in.Address)
	set("notes", in.Notes)
	if book.Name == Suppliers.Name {
		set("gst_number", in.GSTNumber)
	}
	return updates
}

// PartyBalance is one row of a book listing with its derived due.
type PartyBalance struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Due            decimal.Decimal `json:"due"`
}

type BookStats struct {
	PartyCount     int             `json:"party_count"`
	TotalDue       decimal.Decimal `json:"total_due"`
	PartiesWithDue int             `json:"parties_with_due"`
}

func (h *LedgerHandler) CreateParty(ctx context.Context, tenantID string, book Book, in PartyInput) (interface{}, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}

	party := book.newParty()
	updates := in.updates(book)
	switch p := party.(type) {
	case *models.Customer:
		p.TenantID = tenantID
		p.Name, _ = updates["name"].(string)
		p.Phone, _ = updates["phone"].(string)
		p.Email, _ = updates["email"].(string)
		p.Address, _ = updates["address"].(string)
		p.Notes, _ = updates["notes"].(string)
	case *models.Supplier:
		p.TenantID = tenantID
		p.Name, _ = updates["name"].(string)
		p.Phone, _ = updates["phone"].(string)
		p.Email, _ = updates["email"].(string)
		p.Address, _ = updates["address"].(string)
		p.GSTNumber, _ = updates["gst_number"].(string)
		p.Notes, _ = updates["notes"].(string)
	}

	if err := h.db.WithContext(ctx).Create(party).Error; err != nil {
		return nil, apperr.FromDB(err, strings.TrimSuffix(book.Name, "s"))
	}

	h.InvalidateLedgerCaches(ctx, book, tenantID)
	h.log.Info("ledger party created", zap.String("tenant_id", tenantID), zap.String("book", book.Name))
	return party, nil
}

func (h *LedgerHandler) GetParty(ctx context.Context, tenantID string, book Book, partyID string) (interface{}, error) {
	party := book.newParty()
	err := h.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", partyID, tenantID).
		First(party).Error
	if err != nil {
		return nil, apperr.FromDB(err, strings.TrimSuffix(book.Name, "s"))
	}
	return party, nil
}

func (h *LedgerHandler) UpdateParty(ctx context.Context, tenantID string, book Book, partyID string, in PartyInput) (interface{}, error) {
	updates := in.updates(book)
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update")
	}
	if name, ok := updates["name"]; ok && name == "" {
		return nil, apperr.Validation("name must not be empty")
	}

	res := h.db.WithContext(ctx).Model(book.newParty()).
		Where("id = ? AND tenant_id = ?", partyID, tenantID).
		Updates(updates)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, strings.TrimSuffix(book.Name, "s"))
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("%s not found", strings.TrimSuffix(book.Name, "s"))
	}

	h.InvalidateLedgerCaches(ctx, book, tenantID, partyID)
	return h.GetParty(ctx, tenantID, book, partyID)
}

// ListBalances returns every live party of the book with its derived due,
// computed in one grouped query.
func (h *LedgerHandler) ListBalances(ctx context.Context, tenantID string, book Book, search string) ([]PartyBalance, error) {
	query := fmt.Sprintf(`
SELECT p.id, p.name, p.phone, p.total_purchases,
       COALESCE(t.credit, 0) AS total_credit,
       COALESCE(pm.paid, 0) AS total_paid
FROM %[1]s p
LEFT JOIN (
    SELECT %[4]s AS party_id, SUM(amount) AS credit
    FROM %[2]s
    WHERE tenant_id = ? AND payment_status IN ?
    GROUP BY %[4]s
) t ON t.party_id = p.id
LEFT JOIN (
    SELECT %[4]s AS party_id, SUM(amount) AS paid
    FROM %[3]s
    WHERE tenant_id = ?
    GROUP BY %[4]s
) pm ON pm.party_id = p.id
WHERE p.tenant_id = ? AND p.deleted_at IS NULL`,
		book.partyTable, book.transactionTable, book.paymentTable, book.PartyColumn)

	args := []interface{}{tenantID, models.CreditStatuses, tenantID, tenantID}
	if search = strings.TrimSpace(search); search != "" {
		query += " AND (LOWER(p.name) LIKE ? OR p.phone LIKE ?)"
		like := "%" + strings.ToLower(search) + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY p.name ASC"

	rows := []PartyBalance{}
	if err := h.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, apperr.FromDB(err, book.Name)
	}
	for i := range rows {
		rows[i].TotalCredit = rows[i].TotalCredit.Round(2)
		rows[i].TotalPaid = rows[i].TotalPaid.Round(2)
		rows[i].Due = rows[i].TotalCredit.Sub(rows[i].TotalPaid)
	}
	return rows, nil
}

func (h *LedgerHandler) Stats(ctx context.Context, tenantID string, book Book) (*BookStats, error) {
	key := h.statsCacheKey(book, tenantID)
	var cached BookStats
	if h.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	balances, err := h.ListBalances(ctx, tenantID, book, "")
	if err != nil {
		return nil, err
	}

	stats := &BookStats{PartyCount: len(balances), TotalDue: decimal.Zero}
	for _, b := range balances {
		if b.Due.IsPositive() {
			stats.TotalDue = stats.TotalDue.Add(b.Due)
			stats.PartiesWithDue++
		}
	}

	h.cache.SetJSON(ctx, key, stats, cache.TTLShort)
	return stats, nil
}
