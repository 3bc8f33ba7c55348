package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Pravinkumar0908/business/internal/database/dbtest"
	"github.com/Pravinkumar0908/business/internal/gateway/handlers"
	"github.com/Pravinkumar0908/business/internal/gateway/middleware"
	cataloghandler "github.com/Pravinkumar0908/business/internal/services/catalog/handler"
	invhandler "github.com/Pravinkumar0908/business/internal/services/inventory/handler"
	ledgerhandler "github.com/Pravinkumar0908/business/internal/services/ledger/handler"
	ordershandler "github.com/Pravinkumar0908/business/internal/services/orders/handler"
	saleshandler "github.com/Pravinkumar0908/business/internal/services/sales/handler"
	"github.com/Pravinkumar0908/business/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var testSecret = []byte("router-test-secret")

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	inventory := invhandler.NewInventoryHandler(db, nil)
	ledger := ledgerhandler.NewLedgerHandler(db, nil, nil, 0)

	r, err := NewRouter(Deps{
		DB:        db,
		Orders:    ordershandler.NewOrderHandler(db, nil, inventory, nil),
		Catalog:   cataloghandler.NewCatalogHandler(db, nil),
		Ledger:    ledger,
		Inventory: inventory,
		Sales:     saleshandler.NewSalesHandler(db, inventory, ledger, nil, false),
		JWTSecret: testSecret,
		Options:   handlers.Options{RequestTimeout: 5 * time.Second},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r
}

func token(t *testing.T, tenantID, role string) string {
	t.Helper()
	tok, _, err := utils.GenerateToken(testSecret, "user-1", tenantID, role, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func do(t *testing.T, r http.Handler, method, path, tok string, body interface{}) (*httptest.ResponseRecorder, response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w, _ := do(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, body %s", w.Code, w.Body.String())
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("response is missing the request id header")
	}
}

func TestAuthAndCapabilityChecks(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		tok    string
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/orders", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/orders", "not-a-jwt", http.StatusUnauthorized},
		{"no tenant", http.MethodGet, "/api/v1/orders", token(t, "", "owner"), http.StatusForbidden},
		{"kitchen cannot void sales", http.MethodPost, "/api/v1/sales/x/void", token(t, "t1", "kitchen"), http.StatusForbidden},
		{"waiter cannot read ledger", http.MethodGet, "/api/v1/customers", token(t, "t1", "waiter"), http.StatusForbidden},
		{"unknown role", http.MethodGet, "/api/v1/tables", token(t, "t1", "intern"), http.StatusForbidden},
		{"waiter reads tables", http.MethodGet, "/api/v1/tables", token(t, "t1", "waiter"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(t, r, tt.method, tt.path, tt.tok, nil)
			if w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestOrderRoutes(t *testing.T) {
	r := newTestRouter(t)
	tok := token(t, "t1", "waiter")

	w, _ := do(t, r, http.MethodPost, "/api/v1/orders", tok, map[string]interface{}{"items": []interface{}{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("create with no items = %d, want 400", w.Code)
	}

	w, resp := do(t, r, http.MethodPost, "/api/v1/orders", tok, map[string]interface{}{
		"customer_name": "Ravi",
		"items": []map[string]interface{}{
			{"name": "Idli", "price": 40, "qty": 2},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order = %d, body %s", w.Code, w.Body.String())
	}
	var order struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Items  []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.Status != "Created" || len(order.Items) != 1 {
		t.Fatalf("order = %+v, want Created with one item", order)
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/orders/"+order.ID, tok, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get order = %d", w.Code)
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/orders/missing", tok, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get missing order = %d, want 404", w.Code)
	}

	// Another tenant sees nothing.
	w, _ = do(t, r, http.MethodGet, "/api/v1/orders/"+order.ID, token(t, "t2", "owner"), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-tenant get = %d, want 404", w.Code)
	}

	w, _ = do(t, r, http.MethodPut, "/api/v1/orders/"+order.ID+"/items/"+order.Items[0].ID, tok, map[string]string{"status": "Ready"})
	if w.Code != http.StatusOK {
		t.Fatalf("item status = %d, body %s", w.Code, w.Body.String())
	}

	w, _ = do(t, r, http.MethodDelete, "/api/v1/orders/"+order.ID, tok, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("waiter cancel = %d, want 403", w.Code)
	}

	w, _ = do(t, r, http.MethodDelete, "/api/v1/orders/"+order.ID+"?reason=walkout", token(t, "t1", "cashier"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cashier cancel = %d, body %s", w.Code, w.Body.String())
	}

	w, _ = do(t, r, http.MethodPut, "/api/v1/orders/"+order.ID, tok, map[string]string{"status": "Ready"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("update cancelled order = %d, want 400", w.Code)
	}
}

func TestLedgerRoutesRejectOverpayment(t *testing.T) {
	r := newTestRouter(t)
	tok := token(t, "t1", "owner")

	w, resp := do(t, r, http.MethodPost, "/api/v1/customers", tok, map[string]string{"name": "Meena"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create customer = %d, body %s", w.Code, w.Body.String())
	}
	var party struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &party); err != nil || party.ID == "" {
		t.Fatalf("decode customer: %v (%s)", err, resp.Data)
	}
	base := "/api/v1/customers/" + party.ID

	w, _ = do(t, r, http.MethodPost, base+"/transactions", tok, map[string]interface{}{
		"amount":         500,
		"payment_status": "credit",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("post transaction = %d, body %s", w.Code, w.Body.String())
	}

	w, _ = do(t, r, http.MethodPost, base+"/payments", tok, map[string]interface{}{"amount": 600})
	if w.Code != http.StatusBadRequest {
		t.Errorf("overpayment = %d, want 400", w.Code)
	}

	w, _ = do(t, r, http.MethodDelete, base, tok, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("delete with balance = %d, want 400", w.Code)
	}

	w, _ = do(t, r, http.MethodPost, base+"/payments", tok, map[string]interface{}{"amount": 500})
	if w.Code != http.StatusCreated {
		t.Fatalf("payment = %d, body %s", w.Code, w.Body.String())
	}

	w, _ = do(t, r, http.MethodDelete, base, tok, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete settled = %d, body %s", w.Code, w.Body.String())
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/suppliers/stats", tok, nil)
	if w.Code != http.StatusOK {
		t.Errorf("supplier stats = %d", w.Code)
	}
}

func TestInventoryRoutes(t *testing.T) {
	r := newTestRouter(t)
	tok := token(t, "t1", "manager")

	w, resp := do(t, r, http.MethodPost, "/api/v1/products", tok, map[string]interface{}{
		"name":  "Rice",
		"price": 60,
		"stock": 3,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create product = %d, body %s", w.Code, w.Body.String())
	}
	var product struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &product); err != nil {
		t.Fatalf("decode product: %v", err)
	}

	w, _ = do(t, r, http.MethodPatch, "/api/v1/products/deduct-stock", tok, map[string]interface{}{
		"items": []map[string]interface{}{{"id": product.ID, "qty": 1}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("deduct stock = %d, body %s", w.Code, w.Body.String())
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/products/low-stock", tok, nil)
	if w.Code != http.StatusOK {
		t.Errorf("low stock = %d", w.Code)
	}

	stockCases := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{"missing value", map[string]interface{}{}, "0"},
		{"not a number", map[string]interface{}{"stock": "abc"}, "0"},
		{"negative", map[string]interface{}{"stock": -4}, "0"},
		{"numeric string", map[string]interface{}{"stock": "2.5"}, "2.5"},
		{"number", map[string]interface{}{"stock": 7}, "7"},
	}
	for _, tc := range stockCases {
		w, resp := do(t, r, http.MethodPatch, "/api/v1/products/"+product.ID+"/stock", tok, tc.body)
		if w.Code != http.StatusOK {
			t.Errorf("set stock (%s) = %d, body %s", tc.name, w.Code, w.Body.String())
			continue
		}
		var got struct {
			Stock decimal.Decimal `json:"stock"`
		}
		if err := json.Unmarshal(resp.Data, &got); err != nil {
			t.Fatalf("decode product: %v", err)
		}
		if !got.Stock.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("set stock (%s) stored %s, want %s", tc.name, got.Stock, tc.want)
		}
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/products/"+product.ID+"/movements", tok, nil)
	if w.Code != http.StatusOK {
		t.Errorf("movements = %d", w.Code)
	}
}
