package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/storage"
	"fruitshop/backend/internal/store"
	"fruitshop/backend/internal/xid"
)

const (
	DefaultLatency = 320 * time.Millisecond

	defaultReorderLevel = 80
	priceMarkup         = 1.5
	adjustmentWarehouse = "wh-demo"
	ownerInviteCode     = "ADMIN888"
)

// State is the whole simulated database. It is persisted as one JSON document.
type State struct {
	Purchases      []domain.Purchase            `json:"purchases"`
	Sales          []domain.Sale                `json:"sales"`
	Inventory      []domain.InventoryItem       `json:"inventory"`
	Quotes         []domain.SalesQuote          `json:"quotes"`
	Invoices       []domain.PurchaseInvoice     `json:"invoices"`
	Adjustments    []domain.StockAdjustment     `json:"adjustments"`
	Parameters     []domain.ParameterConfig     `json:"parameters"`
	Users          []domain.BackendUser         `json:"users"`
	Stores         []domain.StoreProfile        `json:"stores"`
	Batches        []domain.InventoryBatch      `json:"batches"`
	Transfers      []domain.TransferRequest     `json:"transfers"`
	Contracts      []domain.SalesContract       `json:"contracts"`
	Promotions     []domain.PromotionRule       `json:"promotions"`
	ChannelConfigs []domain.ChannelConfig       `json:"channelConfigs"`
	Aging          []domain.AgingBucket         `json:"aging"`
	Products       []domain.ProductMaster       `json:"products"`
	Partners       []domain.PartnerProfile      `json:"partners"`
	RoleMatrix     []domain.RoleMatrixEntry     `json:"roleMatrix"`
	ApprovalFlows  []domain.ApprovalFlow        `json:"approvalFlows"`
	Integrations   []domain.IntegrationEndpoint `json:"integrations"`
	Automations    []domain.AutomationTask      `json:"automations"`
	AuditLogs      []domain.AuditLogEntry       `json:"auditLogs"`
	Members        []domain.Member              `json:"members"`
}

// partialState mirrors State with pointer fields: a nil pointer means the
// collection was absent (or null) in storage and must come from the seed.
type partialState struct {
	Purchases      *[]domain.Purchase            `json:"purchases"`
	Sales          *[]domain.Sale                `json:"sales"`
	Inventory      *[]domain.InventoryItem       `json:"inventory"`
	Quotes         *[]domain.SalesQuote          `json:"quotes"`
	Invoices       *[]domain.PurchaseInvoice     `json:"invoices"`
	Adjustments    *[]domain.StockAdjustment     `json:"adjustments"`
	Parameters     *[]domain.ParameterConfig     `json:"parameters"`
	Users          *[]domain.BackendUser         `json:"users"`
	Stores         *[]domain.StoreProfile        `json:"stores"`
	Batches        *[]domain.InventoryBatch      `json:"batches"`
	Transfers      *[]domain.TransferRequest     `json:"transfers"`
	Contracts      *[]domain.SalesContract       `json:"contracts"`
	Promotions     *[]domain.PromotionRule       `json:"promotions"`
	ChannelConfigs *[]domain.ChannelConfig       `json:"channelConfigs"`
	Aging          *[]domain.AgingBucket         `json:"aging"`
	Products       *[]domain.ProductMaster       `json:"products"`
	Partners       *[]domain.PartnerProfile      `json:"partners"`
	RoleMatrix     *[]domain.RoleMatrixEntry     `json:"roleMatrix"`
	ApprovalFlows  *[]domain.ApprovalFlow        `json:"approvalFlows"`
	Integrations   *[]domain.IntegrationEndpoint `json:"integrations"`
	Automations    *[]domain.AutomationTask      `json:"automations"`
	AuditLogs      *[]domain.AuditLogEntry       `json:"auditLogs"`
	Members        *[]domain.Member              `json:"members"`
}

func orSeed[T any](stored *[]T, seed []T) []T {
	if stored == nil {
		return seed
	}
	return *stored
}

func (p partialState) merge(seed State) State {
	return State{
		Purchases:      orSeed(p.Purchases, seed.Purchases),
		Sales:          orSeed(p.Sales, seed.Sales),
		Inventory:      orSeed(p.Inventory, seed.Inventory),
		Quotes:         orSeed(p.Quotes, seed.Quotes),
		Invoices:       orSeed(p.Invoices, seed.Invoices),
		Adjustments:    orSeed(p.Adjustments, seed.Adjustments),
		Parameters:     orSeed(p.Parameters, seed.Parameters),
		Users:          orSeed(p.Users, seed.Users),
		Stores:         orSeed(p.Stores, seed.Stores),
		Batches:        orSeed(p.Batches, seed.Batches),
		Transfers:      orSeed(p.Transfers, seed.Transfers),
		Contracts:      orSeed(p.Contracts, seed.Contracts),
		Promotions:     orSeed(p.Promotions, seed.Promotions),
		ChannelConfigs: orSeed(p.ChannelConfigs, seed.ChannelConfigs),
		Aging:          orSeed(p.Aging, seed.Aging),
		Products:       orSeed(p.Products, seed.Products),
		Partners:       orSeed(p.Partners, seed.Partners),
		RoleMatrix:     orSeed(p.RoleMatrix, seed.RoleMatrix),
		ApprovalFlows:  orSeed(p.ApprovalFlows, seed.ApprovalFlows),
		Integrations:   orSeed(p.Integrations, seed.Integrations),
		Automations:    orSeed(p.Automations, seed.Automations),
		AuditLogs:      orSeed(p.AuditLogs, seed.AuditLogs),
		Members:        orSeed(p.Members, seed.Members),
	}
}

type Option func(*Store)

// WithLatency sets the simulated round-trip delay applied before every operation.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithFakerSeed changes the seed of the generated purchase and sale rows.
func WithFakerSeed(seed uint64) Option {
	return func(s *Store) { s.fakerSeed = seed }
}

// Store is the simulated backend. All operations are serialized by one mutex
// and every mutation rewrites the full state to storage before returning.
type Store struct {
	mu        sync.Mutex
	state     State
	storage   storage.Storage
	latency   time.Duration
	now       func() time.Time
	logger    *zap.Logger
	fakerSeed uint64
}

var _ store.Backend = (*Store)(nil)

func New(ctx context.Context, kv storage.Storage, opts ...Option) (*Store, error) {
	s := &Store{
		storage:   kv,
		latency:   DefaultLatency,
		now:       time.Now,
		logger:    zap.NewNop(),
		fakerSeed: defaultFakerSeed,
	}
	for _, opt := range opts {
		opt(s)
	}

	seed, err := buildSeed(s.now(), s.fakerSeed)
	if err != nil {
		return nil, err
	}

	raw, err := kv.Get(ctx, store.BackendStateKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.state = seed
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
		s.logger.Info("seeded local backend",
			zap.Int("purchases", len(seed.Purchases)),
			zap.Int("sales", len(seed.Sales)),
			zap.Int("inventory", len(seed.Inventory)))
	case err != nil:
		return nil, fmt.Errorf("load backend state: %w", err)
	default:
		var cached partialState
		if err := json.Unmarshal(raw, &cached); err != nil {
			return nil, fmt.Errorf("decode backend state: %w", err)
		}
		s.state = cached.merge(seed)
		s.logger.Debug("restored local backend state", zap.Int("bytes", len(raw)))
	}

	return s, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(s.state)
	if err != nil {
		return State{}, err
	}
	var out State
	err = json.Unmarshal(raw, &out)
	return out, err
}

func (s *Store) persist(ctx context.Context) error {
	raw, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("encode backend state: %w", err)
	}
	if err := s.storage.Set(ctx, store.BackendStateKey, raw); err != nil {
		return fmt.Errorf("persist backend state: %w", err)
	}
	return nil
}

func (s *Store) delay(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// begin waits out the simulated latency and takes the state lock. The caller
// must release it with s.mu.Unlock.
func (s *Store) begin(ctx context.Context) error {
	if err := s.delay(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	return nil
}

func (s *Store) Login(ctx context.Context, username string, password string) (domain.LoginResponse, error) {
	if err := s.begin(ctx); err != nil {
		return domain.LoginResponse{}, err
	}
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Users, func(u domain.BackendUser) bool {
		return u.Username == username && u.Password == password
	})
	if idx < 0 {
		return domain.LoginResponse{}, store.ErrInvalidCredentials
	}
	account := s.state.Users[idx]

	stores := make([]domain.StoreProfile, 0, len(account.Stores))
	for _, st := range s.state.Stores {
		if slices.Contains(account.Stores, st.ID) {
			stores = append(stores, st)
		}
	}

	permissions := []string{}
	for _, entry := range s.state.RoleMatrix {
		if entry.Role == account.Role {
			permissions = slices.Clone(entry.Permissions)
			break
		}
	}

	return domain.LoginResponse{
		Token:       xid.Token(),
		User:        account.Profile(),
		Stores:      stores,
		Permissions: permissions,
	}, nil
}

func (s *Store) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return domain.RegisterResponse{}, fmt.Errorf("%w: username and password are required", store.ErrValidation)
	}
	if err := s.begin(ctx); err != nil {
		return domain.RegisterResponse{}, err
	}
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.state.Users, func(u domain.BackendUser) bool { return u.Username == username }) {
		return domain.RegisterResponse{}, store.ErrUsernameTaken
	}

	role := domain.RoleCashier
	if req.InviteCode == ownerInviteCode {
		role = domain.RoleOwner
	}
	stores := []string{}
	if len(s.state.Stores) > 0 {
		stores = append(stores, s.state.Stores[0].ID)
	}
	user := domain.BackendUser{
		Username: username,
		Password: req.Password,
		Name:     req.Name,
		Role:     role,
		Email:    username + "@fruitshop.com",
		Stores:   stores,
	}
	s.state.Users = append(s.state.Users, user)
	if err := s.persist(ctx); err != nil {
		return domain.RegisterResponse{}, err
	}

	profile := user.Profile()
	return domain.RegisterResponse{
		Success: true,
		Message: "registration successful, please sign in",
		User:    &profile,
	}, nil
}

func filterByStore[T any](items []T, storeID string, storeOf func(T) string) []T {
	out := make([]T, 0, len(items)/2)
	for _, item := range items {
		if storeOf(item) == storeID {
			out = append(out, item)
		}
	}
	return out
}

func (s *Store) ListPurchases(ctx context.Context, storeID string) ([]domain.Purchase, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return filterByStore(s.state.Purchases, storeID, func(p domain.Purchase) string { return p.StoreID }), nil
}

func (s *Store) ListSales(ctx context.Context, storeID string) ([]domain.Sale, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return filterByStore(s.state.Sales, storeID, func(v domain.Sale) string { return v.StoreID }), nil
}

func (s *Store) ListInventory(ctx context.Context, storeID string) ([]domain.InventoryItem, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return filterByStore(s.state.Inventory, storeID, func(i domain.InventoryItem) string { return i.StoreID }), nil
}

func (s *Store) CreatePurchase(ctx context.Context, storeID string, draft domain.PurchaseDraft) (domain.Purchase, error) {
	if err := s.begin(ctx); err != nil {
		return domain.Purchase{}, err
	}
	defer s.mu.Unlock()

	record := draft.Purchase(xid.New("po"), storeID)
	s.state.Purchases = slices.Insert(s.state.Purchases, 0, record)
	s.state.Inventory = applyPurchase(s.state.Inventory, record)
	if err := s.persist(ctx); err != nil {
		return domain.Purchase{}, err
	}
	return record, nil
}

func (s *Store) CreateSale(ctx context.Context, storeID string, draft domain.SaleDraft) (domain.Sale, error) {
	if err := s.begin(ctx); err != nil {
		return domain.Sale{}, err
	}
	defer s.mu.Unlock()

	record := draft.Sale(xid.New("so"), storeID)
	s.state.Sales = slices.Insert(s.state.Sales, 0, record)
	applySale(s.state.Inventory, record)
	if err := s.persist(ctx); err != nil {
		return domain.Sale{}, err
	}
	return record, nil
}

func (s *Store) SettlePurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Purchases, func(p domain.Purchase) bool { return p.ID == id })
	if idx < 0 {
		return nil, nil
	}
	s.state.Purchases[idx].Status = domain.StatusSettled
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	out := s.state.Purchases[idx]
	return &out, nil
}

func (s *Store) SettleSale(ctx context.Context, id string) (*domain.Sale, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Sales, func(v domain.Sale) bool { return v.ID == id })
	if idx < 0 {
		return nil, nil
	}
	s.state.Sales[idx].Status = domain.StatusSettled
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	out := s.state.Sales[idx]
	return &out, nil
}

func (s *Store) UpdateReorderLevel(ctx context.Context, inventoryID string, level float64) (*domain.InventoryItem, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Inventory, func(i domain.InventoryItem) bool { return i.ID == inventoryID })
	if idx < 0 {
		return nil, nil
	}
	s.state.Inventory[idx].ReorderLevelKg = level
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	out := s.state.Inventory[idx]
	return &out, nil
}

// CreateAdjustment records a manual correction. The record is written even
// when no inventory line matches; in that case the before quantity is zero.
func (s *Store) CreateAdjustment(ctx context.Context, inventoryID string, reason string, deltaKg float64, operator string) (domain.StockAdjustment, error) {
	if err := s.begin(ctx); err != nil {
		return domain.StockAdjustment{}, err
	}
	defer s.mu.Unlock()

	before := 0.0
	productID := "fruit"
	idx := slices.IndexFunc(s.state.Inventory, func(i domain.InventoryItem) bool { return i.ID == inventoryID })
	if idx >= 0 {
		before = s.state.Inventory[idx].OnHandKg
		if pid := s.state.Inventory[idx].ProductID; pid != "" {
			productID = pid
		}
	}
	after, _ := decimal.NewFromFloat(before).Add(decimal.NewFromFloat(deltaKg)).Float64()
	if idx >= 0 {
		s.state.Inventory[idx].OnHandKg = math.Max(after, 0)
	}

	delta := deltaKg
	record := domain.StockAdjustment{
		ID:          xid.New("adj"),
		WarehouseID: adjustmentWarehouse,
		ProductID:   productID,
		Reason:      reason,
		BeforeQty:   before,
		AfterQty:    after,
		Operator:    operator,
		Time:        store.ISOTime(s.now()),
		InventoryID: inventoryID,
		DeltaKg:     &delta,
	}
	s.state.Adjustments = slices.Insert(s.state.Adjustments, 0, record)
	if err := s.persist(ctx); err != nil {
		return domain.StockAdjustment{}, err
	}
	return record, nil
}

func (s *Store) purchaseStore(poID string) (string, bool) {
	idx := slices.IndexFunc(s.state.Purchases, func(p domain.Purchase) bool { return p.ID == poID })
	if idx < 0 {
		return "", false
	}
	return s.state.Purchases[idx].StoreID, true
}

func (s *Store) ListInvoices(ctx context.Context, storeID string) ([]domain.PurchaseInvoice, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	out := make([]domain.PurchaseInvoice, 0)
	for _, inv := range s.state.Invoices {
		owner := inv.StoreID
		if owner == "" {
			owner, _ = s.purchaseStore(inv.POID)
		}
		if owner != "" && owner == storeID {
			out = append(out, inv)
		}
	}
	return out, nil
}

// UpdateInvoiceStatus also backfills a missing store id from the originating purchase.
func (s *Store) UpdateInvoiceStatus(ctx context.Context, id string, status domain.InvoiceStatus) (*domain.PurchaseInvoice, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Invoices, func(inv domain.PurchaseInvoice) bool { return inv.ID == id })
	if idx < 0 {
		return nil, nil
	}
	target := &s.state.Invoices[idx]
	target.Status = status
	if target.StoreID == "" {
		if owner, ok := s.purchaseStore(target.POID); ok {
			target.StoreID = owner
		}
	}
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	out := *target
	return &out, nil
}

func (s *Store) UpdateParameter(ctx context.Context, key string, value string) (*domain.ParameterConfig, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Parameters, func(p domain.ParameterConfig) bool { return p.Key == key })
	if idx >= 0 {
		s.state.Parameters[idx].Value = value
	} else {
		s.state.Parameters = append(s.state.Parameters, domain.ParameterConfig{Key: key, Label: key, Value: value})
		idx = len(s.state.Parameters) - 1
	}
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	out := s.state.Parameters[idx]
	return &out, nil
}

// SearchMembers matches the keyword against phone numbers and names. A blank
// keyword returns no members rather than all of them.
func (s *Store) SearchMembers(ctx context.Context, keyword string) ([]domain.Member, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	out := make([]domain.Member, 0)
	if strings.TrimSpace(keyword) == "" {
		return out, nil
	}
	for _, m := range s.state.Members {
		if strings.Contains(m.Phone, keyword) || strings.Contains(m.Name, keyword) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Members, func(m domain.Member) bool { return m.ID == id })
	if idx < 0 {
		return nil, nil
	}
	out := s.state.Members[idx]
	return &out, nil
}

func (s *Store) ListQuotesBySale(ctx context.Context, saleID string) ([]domain.SalesQuote, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return filterByStore(s.state.Quotes, saleID, func(q domain.SalesQuote) string { return q.SalesOrderID }), nil
}

func (s *Store) CreateQuote(ctx context.Context, saleID string, req domain.QuoteRequest) (domain.SalesQuote, error) {
	if err := s.begin(ctx); err != nil {
		return domain.SalesQuote{}, err
	}
	defer s.mu.Unlock()

	amount := 0.0
	customer := "潜在客户"
	channel := "渠道"
	line := domain.QuoteLine{ProductID: "fruit", QuantityKg: 100, UnitPrice: 20, DiscountPercent: 5}
	if idx := slices.IndexFunc(s.state.Sales, func(v domain.Sale) bool { return v.ID == saleID }); idx >= 0 {
		sale := s.state.Sales[idx]
		amount = lineAmount(sale.QuantityKg, sale.UnitPrice)
		if sale.Customer != "" {
			customer = sale.Customer
		}
		if sale.Channel != "" {
			channel = sale.Channel
		}
		line = domain.QuoteLine{
			ProductID:       sale.Fruit,
			QuantityKg:      sale.QuantityKg,
			UnitPrice:       sale.UnitPrice,
			DiscountPercent: math.Round(req.DiscountRate * 100),
		}
	}

	version := 1
	for _, q := range s.state.Quotes {
		if q.SalesOrderID == saleID {
			version++
		}
	}

	quote := domain.SalesQuote{
		ID:           xid.New("quote"),
		SalesOrderID: saleID,
		CustomerID:   customer,
		Channel:      channel,
		Status:       domain.QuoteDraft,
		Version:      version,
		ValidFrom:    store.ISODate(s.now()),
		ValidTo:      req.ValidUntil,
		TotalAmount:  amount,
		Lines:        []domain.QuoteLine{line},
		Remarks:      req.Remarks,
		DiscountRate: req.DiscountRate,
	}
	s.state.Quotes = slices.Insert(s.state.Quotes, 0, quote)
	if err := s.persist(ctx); err != nil {
		return domain.SalesQuote{}, err
	}
	return quote, nil
}

func (s *Store) UpdateQuoteStatus(ctx context.Context, id string, status domain.QuoteStatus) (*domain.SalesQuote, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Quotes, func(q domain.SalesQuote) bool { return q.ID == id })
	if idx < 0 {
		return nil, nil
	}
	s.state.Quotes[idx].Status = status
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	out := s.state.Quotes[idx]
	return &out, nil
}

// EnterpriseSnapshot assembles the master data. Users are exposed without
// their passwords.
func (s *Store) EnterpriseSnapshot(ctx context.Context) (domain.EnterpriseSnapshot, error) {
	if err := s.begin(ctx); err != nil {
		return domain.EnterpriseSnapshot{}, err
	}
	defer s.mu.Unlock()

	users := make([]domain.UserAccount, 0, len(s.state.Users))
	for _, u := range s.state.Users {
		users = append(users, domain.UserAccount{
			ID:       u.Username,
			Username: u.Username,
			Name:     u.Name,
			Role:     u.Role,
			Email:    u.Email,
			Status:   "active",
		})
	}

	return domain.EnterpriseSnapshot{
		Products:       slices.Clone(s.state.Products),
		Partners:       slices.Clone(s.state.Partners),
		Warehouses:     []domain.WarehouseProfile{},
		PurchaseOrders: []domain.PurchaseOrder{},
		Shipments:      []domain.InboundShipment{},
		Invoices:       slices.Clone(s.state.Invoices),
		Quotes:         slices.Clone(s.state.Quotes),
		Contracts:      slices.Clone(s.state.Contracts),
		Promotions:     slices.Clone(s.state.Promotions),
		ChannelConfigs: slices.Clone(s.state.ChannelConfigs),
		Batches:        slices.Clone(s.state.Batches),
		Adjustments:    slices.Clone(s.state.Adjustments),
		Transfers:      slices.Clone(s.state.Transfers),
		Aging:          slices.Clone(s.state.Aging),
		CashForecast:   []domain.CashForecastEntry{},
		RoleMatrix:     slices.Clone(s.state.RoleMatrix),
		ApprovalFlows:  slices.Clone(s.state.ApprovalFlows),
		AuditLogs:      slices.Clone(s.state.AuditLogs),
		Integrations:   slices.Clone(s.state.Integrations),
		Automations:    slices.Clone(s.state.Automations),
		Parameters:     slices.Clone(s.state.Parameters),
		Users:          users,
	}, nil
}
