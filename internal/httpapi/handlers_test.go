package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/storage"
	"fruitshop/backend/internal/store/memory"
)

var fixedNow = time.Date(2025, 11, 20, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type testServer struct {
	backend *memory.Store
	auth    *AuthManager
	handler http.Handler
}

// newTestAPI serves a seeded in-memory backend through the full handler
// chain, middleware included.
func newTestAPI(t *testing.T, opts ...Option) testServer {
	t.Helper()
	backend, err := memory.New(context.Background(), storage.NewMemory(),
		memory.WithLatency(0), memory.WithClock(clock))
	require.NoError(t, err)

	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour)
	api := New(backend, auth, append([]Option{WithClock(clock), WithAllowedOrigin("*")}, opts...)...)
	return testServer{backend: backend, auth: auth, handler: api.Handler()}
}

func (s testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp domain.LoginResponse
	decodeData(t, rec, &resp)
	return resp.Token
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) string {
	t.Helper()
	var env struct {
		Data    json.RawMessage `json:"data"`
		Message *string         `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Message, "response must carry a message key")
	require.NoError(t, json.Unmarshal(env.Data, dest))
	return *env.Message
}

func TestHandleHealth(t *testing.T) {
	s := newTestAPI(t)

	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "2025-11-20T09:30:00Z", body["at"])
}

func TestLoginIssuesScopedToken(t *testing.T) {
	s := newTestAPI(t)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{Username: "cashier", Password: "888888"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp domain.LoginResponse
	assert.Equal(t, "login successful", decodeData(t, rec, &resp))
	assert.Equal(t, domain.RoleCashier, resp.User.Role)

	actor, err := s.auth.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "cashier", actor.Username)
	assert.Equal(t, []string{"store-sz"}, actor.Stores)
	assert.Equal(t, []string{domain.PermSalesWrite}, actor.Permissions)
}

func TestLoginFailures(t *testing.T) {
	s := newTestAPI(t)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "x", "extra": "y"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterThenDuplicate(t *testing.T) {
	s := newTestAPI(t)
	req := domain.RegisterRequest{Username: "newbie", Password: "pw-123", Name: "新人"}

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp domain.RegisterResponse
	decodeData(t, rec, &resp)
	assert.True(t, resp.Success)

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestAPI(t)

	rec := s.do(t, http.MethodGet, "/api/stores/store-sz/purchases", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/enterprise/snapshot", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStoreScopeAndPermissions(t *testing.T) {
	s := newTestAPI(t)
	token := s.login(t, "cashier", "888888")

	rec := s.do(t, http.MethodGet, "/api/stores/store-sz/sales", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/stores/store-cs/sales", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/stores/store-sz/purchases", token, domain.RemotePurchasePayload{
		SupplierID: "supp-1",
		Items:      []domain.RemotePurchaseItem{{ProductID: "prod-1", QuantityKg: 1, UnitCost: 1}},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/system/parameters/currency", token, domain.ParameterValueRequest{Value: "CNY"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreatePurchaseFromRemotePayload(t *testing.T) {
	s := newTestAPI(t)
	token := s.login(t, "admin", "admin123")
	ctx := context.Background()
	before, err := s.backend.ListPurchases(ctx, "store-sz")
	require.NoError(t, err)
	seen := make(map[string]bool, len(before))
	for _, p := range before {
		seen[p.ID] = true
	}

	rec := s.do(t, http.MethodPost, "/api/stores/store-sz/purchases", token, domain.RemotePurchasePayload{
		SupplierID: "supp-1",
		ETA:        "2025-11-25",
		Items: []domain.RemotePurchaseItem{
			{ProductID: "prod-1", QuantityKg: 50, UnitCost: 6},
			{ProductID: "prod-2", QuantityKg: 20, UnitCost: 12},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order domain.RemotePurchaseOrder
	decodeData(t, rec, &order)
	assert.Equal(t, "store-sz", order.StoreID)
	assert.Equal(t, "ordered", order.Status)
	assert.Equal(t, "2025-11-25", order.ExpectedDate)
	assert.Len(t, order.Lines, 2)

	after, err := s.backend.ListPurchases(ctx, "store-sz")
	require.NoError(t, err)
	var created []domain.Purchase
	for _, p := range after {
		if !seen[p.ID] {
			created = append(created, p)
		}
	}
	require.Len(t, created, 2)
	for _, p := range created {
		assert.Equal(t, "2025-11-20", p.Date)
		assert.Equal(t, "2025-11-25", p.ETA)
		assert.Equal(t, "湘南果农联盟", p.Supplier)
		assert.Equal(t, domain.PaymentTransfer, p.PaymentMethod)
		assert.Equal(t, domain.StatusPending, p.Status)
	}

	rec = s.do(t, http.MethodPost, "/api/stores/store-sz/purchases", token, domain.RemotePurchasePayload{SupplierID: "supp-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettlePurchase(t *testing.T) {
	s := newTestAPI(t)
	token := s.login(t, "admin", "admin123")

	rec := s.do(t, http.MethodGet, "/api/stores/store-sz/purchases", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []domain.RemotePurchaseOrder
	decodeData(t, rec, &orders)
	require.NotEmpty(t, orders)

	rec = s.do(t, http.MethodPatch, "/api/purchases/"+orders[0].ID, token, domain.StatusUpdateRequest{Status: "paid"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var settled domain.RemotePurchaseOrder
	decodeData(t, rec, &settled)
	assert.Equal(t, "paid", settled.Status)

	rec = s.do(t, http.MethodPatch, "/api/purchases/"+orders[0].ID, token, domain.StatusUpdateRequest{Status: "cancelled"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/purchases/po-missing", token, domain.StatusUpdateRequest{Status: "paid"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaleLifecycleAndQuotes(t *testing.T) {
	s := newTestAPI(t)
	token := s.login(t, "admin", "admin123")

	rec := s.do(t, http.MethodPost, "/api/stores/store-sz/sales", token, domain.SaleDraft{
		Customer:      "社区团购A站",
		Fruit:         "麒麟西瓜",
		QuantityKg:    10,
		UnitPrice:     20,
		PaymentMethod: domain.PaymentMobile,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sale domain.Sale
	decodeData(t, rec, &sale)
	assert.Equal(t, "2025-11-20", sale.Date)
	assert.Equal(t, domain.StatusPending, sale.Status)

	rec = s.do(t, http.MethodPatch, "/api/sales/"+sale.ID+"/settle", token, struct{}{})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &sale)
	assert.Equal(t, domain.StatusSettled, sale.Status)

	rec = s.do(t, http.MethodPatch, "/api/sales/sale-missing/settle", token, struct{}{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/quotes", token, domain.QuoteRequest{ValidUntil: "2025-12-01", DiscountRate: 0.05})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var quote domain.SalesQuote
	decodeData(t, rec, &quote)
	assert.InDelta(t, 200, quote.TotalAmount, 1e-9)

	rec = s.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/quotes", token, domain.QuoteRequest{ValidUntil: "2025-12-01", DiscountRate: 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/sales/"+sale.ID+"/quotes", token, nil)
	var quotes []domain.SalesQuote
	decodeData(t, rec, &quotes)
	assert.Len(t, quotes, 1)

	rec = s.do(t, http.MethodPatch, "/api/quotes/"+quote.ID, token, domain.StatusUpdateRequest{Status: "sent"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &quote)
	assert.Equal(t, domain.QuoteSent, quote.Status)

	rec = s.do(t, http.MethodPatch, "/api/quotes/"+quote.ID, token, domain.StatusUpdateRequest{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInventoryRoutes(t *testing.T) {
	s := newTestAPI(t)
	token := s.login(t, "admin", "admin123")

	rec := s.do(t, http.MethodGet, "/api/stores/store-sz/inventory", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []domain.InventoryItem
	decodeData(t, rec, &items)
	require.NotEmpty(t, items)
	line := items[0]

	rec = s.do(t, http.MethodPatch, "/api/inventory/"+line.ID+"/reorder-level", token, domain.ReorderLevelRequest{Level: 42})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.InventoryItem
	decodeData(t, rec, &updated)
	assert.InDelta(t, 42, updated.ReorderLevelKg, 1e-9)

	rec = s.do(t, http.MethodPatch, "/api/inventory/inv-missing/reorder-level", token, domain.ReorderLevelRequest{Level: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/inventory/"+line.ID+"/reorder-level", token, domain.ReorderLevelRequest{Level: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/inventory/"+line.ID+"/adjustments", token, domain.AdjustmentRequest{Reason: "盘点", DeltaKg: -1.5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var adj domain.RemoteAdjustment
	decodeData(t, rec, &adj)
	assert.Equal(t, "admin", adj.CreatedBy)
	assert.Equal(t, line.ID, adj.InventoryID)
	assert.InDelta(t, -1.5, adj.DeltaKg, 1e-9)
}

func TestInvoicesParametersAndMembers(t *testing.T) {
	s := newTestAPI(t)
	token := s.login(t, "admin", "admin123")

	rec := s.do(t, http.MethodGet, "/api/stores/store-sz/invoices", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var invoices []domain.RemoteInvoice
	decodeData(t, rec, &invoices)
	if len(invoices) > 0 {
		rec = s.do(t, http.MethodPatch, "/api/invoices/"+invoices[0].ID, token, domain.StatusUpdateRequest{Status: "paid"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var inv domain.RemoteInvoice
		decodeData(t, rec, &inv)
		assert.Equal(t, "paid", inv.Status)
	}

	rec = s.do(t, http.MethodPatch, "/api/invoices/inv-1", token, domain.StatusUpdateRequest{Status: "void"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/system/parameters/finance.currency", token, domain.ParameterValueRequest{Value: "USD"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var param domain.RemoteParameter
	decodeData(t, rec, &param)
	assert.Equal(t, domain.RemoteParameter{Key: "finance.currency", Value: "USD", Description: "用于报表展示"}, param)

	rec = s.do(t, http.MethodGet, "/api/members/search?keyword=1386", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var members []domain.Member
	decodeData(t, rec, &members)
	require.NotEmpty(t, members)

	rec = s.do(t, http.MethodGet, "/api/members/"+members[0].ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/members/member-404", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryRoute(t *testing.T) {
	s := newTestAPI(t)
	token := s.login(t, "admin", "admin123")

	rec := s.do(t, http.MethodGet, "/api/stores/store-sz/summary?preset=all", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary struct {
		Filter struct {
			Preset string `json:"preset"`
		} `json:"filter"`
		PaymentBreakdown []json.RawMessage `json:"paymentBreakdown"`
	}
	decodeData(t, rec, &summary)
	assert.Equal(t, "all", summary.Filter.Preset)
	assert.Len(t, summary.PaymentBreakdown, len(domain.SettlementMethods))

	rec = s.do(t, http.MethodGet, "/api/stores/store-sz/summary?preset=custom&start=2025-11-30&end=2025-11-01", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/stores/store-sz/summary?preset=decade", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotRoute(t *testing.T) {
	s := newTestAPI(t)
	token := s.login(t, "auditor", "000000")

	rec := s.do(t, http.MethodGet, "/api/enterprise/snapshot", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot domain.EnterpriseSnapshot
	decodeData(t, rec, &snapshot)
	assert.NotEmpty(t, snapshot.Products)
	assert.NotEmpty(t, snapshot.Partners)
	assert.NotContains(t, rec.Body.String(), "admin123")
}
