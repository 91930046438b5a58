// Package httpapi serves the backend operations over the REST surface the
// data gateway consumes, so one instance can act as another's remote.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/gateway"
	"fruitshop/backend/internal/service"
	"fruitshop/backend/internal/store"
)

type Option func(*API)

func WithLogger(logger *zap.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithAllowedOrigin(origin string) Option {
	return func(a *API) { a.allowedOrigin = origin }
}

// WithRegistry exposes the given registry on /metrics and registers the HTTP
// collectors on it. Without it the API uses a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *API) {
		if reg != nil {
			a.registry = reg
		}
	}
}

func WithLoginLimit(max int, window time.Duration) Option {
	return func(a *API) { a.loginLimiter = newAttemptLimiter(max, window) }
}

func WithClock(now func() time.Time) Option {
	return func(a *API) {
		if now != nil {
			a.now = now
		}
	}
}

type API struct {
	backend       store.Backend
	auth          *AuthManager
	logger        *zap.Logger
	allowedOrigin string
	loginLimiter  *attemptLimiter
	registry      *prometheus.Registry
	metrics       *httpMetrics
	validate      *validator.Validate
	now           func() time.Time
}

func New(backend store.Backend, auth *AuthManager, opts ...Option) *API {
	a := &API{
		backend:       backend,
		auth:          auth,
		logger:        zap.NewNop(),
		allowedOrigin: "http://127.0.0.1:5173",
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		validate:      validator.New(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector())
	}
	a.metrics = newHTTPMetrics(a.registry)
	return a
}

// Registry returns the registry served on /metrics.
func (a *API) Registry() *prometheus.Registry {
	return a.registry
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.HandleFunc("POST /api/auth/register", a.handleRegister)

	mux.HandleFunc("GET /api/stores/{storeID}/purchases", a.requireStore(a.handleListPurchases))
	mux.HandleFunc("POST /api/stores/{storeID}/purchases", a.requireStore(a.handleCreatePurchase, domain.PermProcurementWrite))
	mux.HandleFunc("GET /api/stores/{storeID}/sales", a.requireStore(a.handleListSales))
	mux.HandleFunc("POST /api/stores/{storeID}/sales", a.requireStore(a.handleCreateSale, domain.PermSalesWrite))
	mux.HandleFunc("GET /api/stores/{storeID}/inventory", a.requireStore(a.handleListInventory))
	mux.HandleFunc("GET /api/stores/{storeID}/invoices", a.requireStore(a.handleListInvoices))
	mux.HandleFunc("GET /api/stores/{storeID}/summary", a.requireStore(a.handleSummary))

	mux.HandleFunc("PATCH /api/purchases/{id}", a.requireAuth(a.handleSettlePurchase, domain.PermFinanceWrite, domain.PermProcurementWrite))
	mux.HandleFunc("PATCH /api/sales/{id}/settle", a.requireAuth(a.handleSettleSale, domain.PermFinanceWrite, domain.PermSalesWrite))
	mux.HandleFunc("GET /api/sales/{id}/quotes", a.requireAuth(a.handleListQuotes))
	mux.HandleFunc("POST /api/sales/{id}/quotes", a.requireAuth(a.handleCreateQuote, domain.PermSalesWrite, domain.PermSalesApproval))
	mux.HandleFunc("PATCH /api/quotes/{id}", a.requireAuth(a.handleUpdateQuote, domain.PermSalesApproval, domain.PermSalesWrite))
	mux.HandleFunc("PATCH /api/inventory/{id}/reorder-level", a.requireAuth(a.handleReorderLevel, domain.PermInventoryWrite))
	mux.HandleFunc("POST /api/inventory/{id}/adjustments", a.requireAuth(a.handleAdjustment, domain.PermInventoryAdjust, domain.PermInventoryWrite))
	mux.HandleFunc("PATCH /api/invoices/{id}", a.requireAuth(a.handleUpdateInvoice, domain.PermFinanceWrite))
	mux.HandleFunc("PUT /api/system/parameters/{key}", a.requireAuth(a.handleUpdateParameter, domain.PermSystemManage))
	mux.HandleFunc("GET /api/members/search", a.requireAuth(a.handleSearchMembers))
	mux.HandleFunc("GET /api/members/{id}", a.requireAuth(a.handleGetMember))
	mux.HandleFunc("GET /api/enterprise/snapshot", a.requireAuth(a.handleSnapshot))

	return a.withMiddleware(mux)
}

// requireAuth admits a request carrying a valid bearer token whose holder has
// at least one of the given permissions.
func (a *API) requireAuth(next http.HandlerFunc, permissions ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if !hasAnyPermission(actor, permissions) {
			writeError(w, http.StatusForbidden, errors.New("permission denied"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

// requireStore additionally checks that the {storeID} path value is one of
// the caller's stores.
func (a *API) requireStore(next http.HandlerFunc, permissions ...string) http.HandlerFunc {
	return a.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := service.ActorFromContext(r.Context())
		if !canAccessStore(actor, r.PathValue("storeID")) {
			writeError(w, http.StatusForbidden, errors.New("store not accessible"))
			return
		}
		next(w, r)
	}, permissions...)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": a.now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if !a.decode(w, r, &req) {
		return
	}

	resp, err := a.backend.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	token, _, err := a.auth.Issue(resp)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp.Token = token
	writeData(w, http.StatusOK, resp, "login successful")
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.backend.Register(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, resp, resp.Message)
}

func (a *API) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := a.backend.ListPurchases(r.Context(), r.PathValue("storeID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	orders := make([]domain.RemotePurchaseOrder, 0, len(purchases))
	for _, p := range purchases {
		orders = append(orders, gateway.PurchaseToRemote(p))
	}
	writeData(w, http.StatusOK, orders, "")
}

// handleCreatePurchase records one purchase per payload item and answers
// with a single order carrying every line.
func (a *API) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var payload domain.RemotePurchasePayload
	if !a.decode(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.SupplierID) == "" || len(payload.Items) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("supplierId and at least one item are required"))
		return
	}

	snapshot, err := a.backend.EnterpriseSnapshot(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	today := store.ISODate(a.now())
	storeID := r.PathValue("storeID")

	drafts := make([]domain.PurchaseDraft, 0, len(payload.Items))
	for i, item := range payload.Items {
		draft := gateway.DraftFromPayload(payload, item, today)
		draft.Supplier = partnerName(snapshot.Partners, draft.SupplierID)
		draft.Fruit = productName(snapshot.Products, draft.ProductID)
		if err := a.validate.Struct(draft); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: item %d: %v", store.ErrValidation, i, err))
			return
		}
		drafts = append(drafts, draft)
	}

	var order domain.RemotePurchaseOrder
	for i, draft := range drafts {
		created, err := a.backend.CreatePurchase(r.Context(), storeID, draft)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		remote := gateway.PurchaseToRemote(created)
		if i == 0 {
			order = remote
			continue
		}
		order.Lines = append(order.Lines, remote.Lines...)
	}
	writeData(w, http.StatusCreated, order, "purchase created")
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := a.backend.ListSales(r.Context(), r.PathValue("storeID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sales, "")
}

func (a *API) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var draft domain.SaleDraft
	if !a.decode(w, r, &draft) {
		return
	}
	if draft.Date == "" {
		draft.Date = store.ISODate(a.now())
	}
	sale, err := a.backend.CreateSale(r.Context(), r.PathValue("storeID"), draft)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, sale, "sale created")
}

func (a *API) handleListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := a.backend.ListInventory(r.Context(), r.PathValue("storeID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, gateway.InventoryToRemote(items), "")
}

func (a *API) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeID")
	invoices, err := a.backend.ListInvoices(r.Context(), storeID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]domain.RemoteInvoice, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, gateway.InvoiceToRemote(inv, storeID))
	}
	writeData(w, http.StatusOK, out, "")
}

// handleSummary computes the dashboard figures for ?preset= (default month)
// or, with preset=custom, the inclusive ?start= and ?end= dates.
func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := service.DateFilter{Preset: service.DatePreset(strings.TrimSpace(query.Get("preset")))}
	if filter.Preset == "" {
		filter.Preset = service.PresetMonth
	}
	if filter.Preset == service.PresetCustom {
		filter.Start, filter.End = query.Get("start"), query.Get("end")
		if filter.Start != "" && filter.End != "" && filter.Start > filter.End {
			filter.Start, filter.End = filter.End, filter.Start
		}
	} else {
		start, end, ok := service.PresetRange(filter.Preset, a.now())
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown preset %q", filter.Preset))
			return
		}
		filter.Start, filter.End = start, end
	}

	ctx := r.Context()
	storeID := r.PathValue("storeID")
	purchases, err := a.backend.ListPurchases(ctx, storeID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sales, err := a.backend.ListSales(ctx, storeID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	inventory, err := a.backend.ListInventory(ctx, storeID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, service.Summarize(purchases, sales, inventory, filter), "")
}

func (a *API) handleSettlePurchase(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusUpdateRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Status != "paid" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported purchase status %q", req.Status))
		return
	}
	purchase, err := a.backend.SettlePurchase(r.Context(), r.PathValue("id"))
	if !a.found(w, r, purchase == nil, err) {
		return
	}
	writeData(w, http.StatusOK, gateway.PurchaseToRemote(*purchase), "purchase settled")
}

func (a *API) handleSettleSale(w http.ResponseWriter, r *http.Request) {
	sale, err := a.backend.SettleSale(r.Context(), r.PathValue("id"))
	if !a.found(w, r, sale == nil, err) {
		return
	}
	writeData(w, http.StatusOK, sale, "sale settled")
}

func (a *API) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := a.backend.ListQuotesBySale(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, quotes, "")
}

func (a *API) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if !a.decode(w, r, &req) {
		return
	}
	quote, err := a.backend.CreateQuote(r.Context(), r.PathValue("id"), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, quote, "quote created")
}

func (a *API) handleUpdateQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusUpdateRequest
	if !a.decode(w, r, &req) {
		return
	}
	status := domain.QuoteStatus(req.Status)
	if !slices.Contains(domain.QuoteStatuses, status) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown quote status %q", req.Status))
		return
	}
	quote, err := a.backend.UpdateQuoteStatus(r.Context(), r.PathValue("id"), status)
	if !a.found(w, r, quote == nil, err) {
		return
	}
	writeData(w, http.StatusOK, quote, "quote updated")
}

func (a *API) handleReorderLevel(w http.ResponseWriter, r *http.Request) {
	var req domain.ReorderLevelRequest
	if !a.decode(w, r, &req) {
		return
	}
	item, err := a.backend.UpdateReorderLevel(r.Context(), r.PathValue("id"), req.Level)
	if !a.found(w, r, item == nil, err) {
		return
	}
	writeData(w, http.StatusOK, gateway.InventoryToRemote([]domain.InventoryItem{*item})[0], "reorder level updated")
}

func (a *API) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var req domain.AdjustmentRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CreatedBy) == "" {
		actor, _ := service.ActorFromContext(r.Context())
		req.CreatedBy = actor.Username
	}
	record, err := a.backend.CreateAdjustment(r.Context(), r.PathValue("id"), req.Reason, req.DeltaKg, req.CreatedBy)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, gateway.AdjustmentToRemote(record), "adjustment recorded")
}

var invoiceStatuses = []domain.InvoiceStatus{
	domain.InvoicePending, domain.InvoiceMatched, domain.InvoicePaid, domain.InvoiceOverdue,
}

func (a *API) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusUpdateRequest
	if !a.decode(w, r, &req) {
		return
	}
	status := domain.InvoiceStatus(req.Status)
	if !slices.Contains(invoiceStatuses, status) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown invoice status %q", req.Status))
		return
	}
	inv, err := a.backend.UpdateInvoiceStatus(r.Context(), r.PathValue("id"), status)
	if !a.found(w, r, inv == nil, err) {
		return
	}
	writeData(w, http.StatusOK, gateway.InvoiceToRemote(*inv, ""), "invoice updated")
}

func (a *API) handleUpdateParameter(w http.ResponseWriter, r *http.Request) {
	var req domain.ParameterValueRequest
	if !a.decode(w, r, &req) {
		return
	}
	key := r.PathValue("key")
	param, err := a.backend.UpdateParameter(r.Context(), key, req.Value)
	if !a.found(w, r, param == nil, err) {
		return
	}
	writeData(w, http.StatusOK, gateway.ParameterToRemote(param, key, req.Value), "parameter updated")
}

func (a *API) handleSearchMembers(w http.ResponseWriter, r *http.Request) {
	members, err := a.backend.SearchMembers(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, members, "")
}

func (a *API) handleGetMember(w http.ResponseWriter, r *http.Request) {
	member, err := a.backend.GetMember(r.Context(), r.PathValue("id"))
	if !a.found(w, r, member == nil, err) {
		return
	}
	writeData(w, http.StatusOK, member, "")
}

func (a *API) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.backend.EnterpriseSnapshot(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, snapshot, "")
}

func partnerName(partners []domain.PartnerProfile, id string) string {
	for _, p := range partners {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

func productName(products []domain.ProductMaster, id string) string {
	for _, p := range products {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

// decode reads and validates a JSON body, answering 400 itself on failure.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decodeJSON(r, dest); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := a.validate.Struct(dest); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", store.ErrValidation, err))
		return false
	}
	return true
}

// found writes the error response for a failed or empty lookup and reports
// whether the handler may continue.
func (a *API) found(w http.ResponseWriter, r *http.Request, missing bool, err error) bool {
	if err != nil {
		a.fail(w, r, err)
		return false
	}
	if missing {
		writeError(w, http.StatusNotFound, store.ErrNotFound)
		return false
	}
	return true
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		a.logger.Error("handler error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeError(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

type envelope struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	if message == "" {
		message = "ok"
	}
	writeJSON(w, status, envelope{Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx details stay in the log.
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
