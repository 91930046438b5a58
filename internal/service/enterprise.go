package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
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
	auditActor      = "系统"
	auditIP         = "127.0.0.1"
	productActive   = "active"
	forecastEntries = 5
)

// transferFlow is the lifecycle of a warehouse transfer.
var transferFlow = []string{"draft", "approved", "shipped", "received"}

// SnapshotSource fetches the full master-data bundle.
type SnapshotSource interface {
	FetchEnterpriseSnapshot(ctx context.Context) (domain.EnterpriseSnapshot, error)
}

// Counters are the headline numbers of the master-data screens.
type Counters struct {
	ProductCount       int     `json:"productCount"`
	SupplierCount      int     `json:"supplierCount"`
	CustomerCount      int     `json:"customerCount"`
	ExpiringBatchCount int     `json:"expiringBatchCount"`
	OutstandingCredit  float64 `json:"outstandingCredit"`
}

// Enterprise holds the master data and enterprise workflows. Its state is
// persisted in full after every mutation.
type Enterprise struct {
	mu      sync.RWMutex
	source  SnapshotSource
	storage storage.Storage
	logger  *zap.Logger
	now     func() time.Time
	data    domain.EnterpriseSnapshot
	loading bool
}

func NewEnterprise(ctx context.Context, source SnapshotSource, kv storage.Storage, opts ...Option) (*Enterprise, error) {
	o := buildOptions(opts)
	e := &Enterprise{source: source, storage: kv, logger: o.logger, now: o.now}
	if err := e.hydrate(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Enterprise) hydrate(ctx context.Context) error {
	raw, err := e.storage.Get(ctx, store.EnterpriseStateKey)
	if errors.Is(err, storage.ErrNotFound) {
		e.data = normalize(domain.EnterpriseSnapshot{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("load enterprise state: %w", err)
	}
	var cached domain.EnterpriseSnapshot
	if err := json.Unmarshal(raw, &cached); err != nil {
		e.logger.Warn("ignoring corrupt enterprise state", zap.Error(err))
		cached = domain.EnterpriseSnapshot{}
	}
	e.data = normalize(cached)
	return nil
}

// normalize replaces missing collections with empty ones.
func normalize(s domain.EnterpriseSnapshot) domain.EnterpriseSnapshot {
	s.Products = orEmpty(s.Products)
	s.Partners = orEmpty(s.Partners)
	s.Warehouses = orEmpty(s.Warehouses)
	s.PurchaseOrders = orEmpty(s.PurchaseOrders)
	s.Shipments = orEmpty(s.Shipments)
	s.Invoices = orEmpty(s.Invoices)
	s.Quotes = orEmpty(s.Quotes)
	s.Contracts = orEmpty(s.Contracts)
	s.Promotions = orEmpty(s.Promotions)
	s.ChannelConfigs = orEmpty(s.ChannelConfigs)
	s.Batches = orEmpty(s.Batches)
	s.Adjustments = orEmpty(s.Adjustments)
	s.Transfers = orEmpty(s.Transfers)
	s.Aging = orEmpty(s.Aging)
	s.CashForecast = orEmpty(s.CashForecast)
	s.RoleMatrix = orEmpty(s.RoleMatrix)
	s.ApprovalFlows = orEmpty(s.ApprovalFlows)
	s.AuditLogs = orEmpty(s.AuditLogs)
	s.Integrations = orEmpty(s.Integrations)
	s.Automations = orEmpty(s.Automations)
	s.Parameters = orEmpty(s.Parameters)
	return s
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func prepend[T any](items []T, item T) []T {
	return append([]T{item}, items...)
}

// persist writes the whole state. Callers hold e.mu.
func (e *Enterprise) persist(ctx context.Context) error {
	raw, err := json.Marshal(e.data)
	if err != nil {
		return err
	}
	if err := e.storage.Set(ctx, store.EnterpriseStateKey, raw); err != nil {
		return fmt.Errorf("persist enterprise state: %w", err)
	}
	return nil
}

// withPersist applies fn under the lock and persists the result.
func (e *Enterprise) withPersist(ctx context.Context, fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = true
	defer func() { e.loading = false }()
	fn()
	return e.persist(ctx)
}

// LoadEnterpriseData replaces every collection with a fresh snapshot.
func (e *Enterprise) LoadEnterpriseData(ctx context.Context) error {
	e.mu.Lock()
	e.loading = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.loading = false
		e.mu.Unlock()
	}()

	snapshot, err := e.source.FetchEnterpriseSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetch enterprise snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = normalize(snapshot)
	e.logger.Debug("enterprise data loaded",
		zap.Int("products", len(e.data.Products)),
		zap.Int("partners", len(e.data.Partners)),
	)
	return e.persist(ctx)
}

// Snapshot returns a deep copy of the current state.
func (e *Enterprise) Snapshot() domain.EnterpriseSnapshot {
	e.mu.RLock()
	raw, err := json.Marshal(e.data)
	e.mu.RUnlock()
	var out domain.EnterpriseSnapshot
	if err == nil {
		err = json.Unmarshal(raw, &out)
	}
	if err != nil {
		e.logger.Error("copy enterprise snapshot", zap.Error(err))
	}
	return normalize(out)
}

func (e *Enterprise) Products() []domain.ProductMaster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.data.Products)
}

func (e *Enterprise) Partners() []domain.PartnerProfile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.data.Partners)
}

func (e *Enterprise) Loading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

func (e *Enterprise) Counters() Counters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c := Counters{ProductCount: len(e.data.Products)}
	credit := decimal.Zero
	for _, p := range e.data.Partners {
		switch p.Type {
		case domain.PartnerSupplier:
			c.SupplierCount++
		case domain.PartnerCustomer:
			c.CustomerCount++
		}
		credit = credit.Add(decimal.NewFromFloat(p.OutstandingAmount))
	}
	for _, b := range e.data.Batches {
		if b.Status != domain.BatchNormal {
			c.ExpiringBatchCount++
		}
	}
	c.OutstandingCredit = round2(credit)
	return c
}

func (e *Enterprise) timestamp() string {
	return store.ISOTime(e.now())
}

func (e *Enterprise) AddProduct(ctx context.Context, product domain.ProductMaster) (domain.ProductMaster, error) {
	product.ID = xid.New("prd")
	if product.Status == "" {
		product.Status = productActive
	}
	err := e.withPersist(ctx, func() {
		e.data.Products = prepend(e.data.Products, product)
		e.data.AuditLogs = prepend(e.data.AuditLogs, domain.AuditLogEntry{
			ID:     xid.New("log"),
			Actor:  auditActor,
			Action: "新增商品",
			Entity: product.Name,
			At:     e.timestamp(),
			IP:     auditIP,
		})
	})
	return product, err
}

func (e *Enterprise) AddPartner(ctx context.Context, partner domain.PartnerProfile) (domain.PartnerProfile, error) {
	partner.ID = xid.New("partner")
	err := e.withPersist(ctx, func() {
		e.data.Partners = prepend(e.data.Partners, partner)
	})
	return partner, err
}

func (e *Enterprise) AddWarehouse(ctx context.Context, warehouse domain.WarehouseProfile) (domain.WarehouseProfile, error) {
	warehouse.ID = xid.New("wh")
	err := e.withPersist(ctx, func() {
		e.data.Warehouses = prepend(e.data.Warehouses, warehouse)
	})
	return warehouse, err
}

func (e *Enterprise) ScheduleShipment(ctx context.Context, shipment domain.InboundShipment) (domain.InboundShipment, error) {
	shipment.ID = xid.New("ship")
	err := e.withPersist(ctx, func() {
		e.data.Shipments = prepend(e.data.Shipments, shipment)
	})
	return shipment, err
}

func (e *Enterprise) AddQuote(ctx context.Context, quote domain.SalesQuote) (domain.SalesQuote, error) {
	quote.ID = xid.New("quo")
	err := e.withPersist(ctx, func() {
		e.data.Quotes = prepend(e.data.Quotes, quote)
	})
	return quote, err
}

// AdvancePurchaseOrder moves an order one step along the purchase order flow.
// The last step and unknown statuses stay put.
func (e *Enterprise) AdvancePurchaseOrder(ctx context.Context, id string) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.PurchaseOrders {
			order := &e.data.PurchaseOrders[i]
			if order.ID != id {
				continue
			}
			idx := slices.Index(domain.PurchaseOrderFlow, order.Status)
			if idx >= 0 && idx < len(domain.PurchaseOrderFlow)-1 {
				order.Status = domain.PurchaseOrderFlow[idx+1]
			}
		}
	})
}

func (e *Enterprise) UpdateShipmentStatus(ctx context.Context, id, status string) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.Shipments {
			if e.data.Shipments[i].ID == id {
				e.data.Shipments[i].Status = status
			}
		}
	})
}

func (e *Enterprise) UpdateInvoiceStatus(ctx context.Context, id string, status domain.InvoiceStatus) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.Invoices {
			if e.data.Invoices[i].ID == id {
				e.data.Invoices[i].Status = status
			}
		}
	})
}

func (e *Enterprise) ChangeQuoteStatus(ctx context.Context, id string, status domain.QuoteStatus) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.Quotes {
			if e.data.Quotes[i].ID == id {
				e.data.Quotes[i].Status = status
			}
		}
	})
}

// ActivateContractFromQuote opens a pending contract covering the quote's
// validity window. An unknown quote is ignored.
func (e *Enterprise) ActivateContractFromQuote(ctx context.Context, quoteID string, method domain.PaymentMethod) error {
	return e.withPersist(ctx, func() {
		idx := slices.IndexFunc(e.data.Quotes, func(q domain.SalesQuote) bool { return q.ID == quoteID })
		if idx < 0 {
			return
		}
		quote := e.data.Quotes[idx]
		e.data.Contracts = prepend(e.data.Contracts, domain.SalesContract{
			ID:               xid.New("ctr"),
			QuoteID:          quote.ID,
			CustomerID:       quote.CustomerID,
			Channel:          quote.Channel,
			RatePlan:         "标准",
			StartDate:        quote.ValidFrom,
			EndDate:          quote.ValidTo,
			SettlementMethod: method,
			Status:           "pending",
		})
	})
}

func (e *Enterprise) TogglePromotion(ctx context.Context, id string) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.Promotions {
			if e.data.Promotions[i].ID == id {
				e.data.Promotions[i].Active = !e.data.Promotions[i].Active
			}
		}
	})
}

// RecordAdjustment stores an adjustment, filling in the id and time when unset.
func (e *Enterprise) RecordAdjustment(ctx context.Context, adj domain.StockAdjustment) (domain.StockAdjustment, error) {
	if adj.ID == "" {
		adj.ID = xid.New("adj")
	}
	if adj.Time == "" {
		adj.Time = e.timestamp()
	}
	err := e.withPersist(ctx, func() {
		e.data.Adjustments = prepend(e.data.Adjustments, adj)
	})
	return adj, err
}

func (e *Enterprise) ProgressTransfer(ctx context.Context, id string) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.Transfers {
			transfer := &e.data.Transfers[i]
			if transfer.ID != id {
				continue
			}
			idx := slices.Index(transferFlow, transfer.Status)
			if idx >= 0 && idx < len(transferFlow)-1 {
				transfer.Status = transferFlow[idx+1]
			}
		}
	})
}

func (e *Enterprise) UpdateApprovalFlow(ctx context.Context, id string, patch domain.ApprovalFlowPatch) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.ApprovalFlows {
			flow := &e.data.ApprovalFlows[i]
			if flow.ID != id {
				continue
			}
			if patch.DocumentType != nil {
				flow.DocumentType = *patch.DocumentType
			}
			if patch.Steps != nil {
				flow.Steps = patch.Steps
			}
			if patch.LastUpdated != nil {
				flow.LastUpdated = *patch.LastUpdated
			}
		}
	})
}

func (e *Enterprise) AppendAuditLog(ctx context.Context, actor, action, entity string) (domain.AuditLogEntry, error) {
	entry := domain.AuditLogEntry{
		ID:     xid.New("log"),
		Actor:  actor,
		Action: action,
		Entity: entity,
		At:     e.timestamp(),
		IP:     auditIP,
	}
	err := e.withPersist(ctx, func() {
		e.data.AuditLogs = prepend(e.data.AuditLogs, entry)
	})
	return entry, err
}

// UpdateRolePermissions replaces a role's permissions, adding the role when
// it is not in the matrix yet.
func (e *Enterprise) UpdateRolePermissions(ctx context.Context, role string, permissions []string) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.RoleMatrix {
			if e.data.RoleMatrix[i].Role == role {
				e.data.RoleMatrix[i].Permissions = permissions
				return
			}
		}
		e.data.RoleMatrix = append(e.data.RoleMatrix, domain.RoleMatrixEntry{
			Role:        role,
			Permissions: permissions,
			DataDomains: []string{},
		})
	})
}

func (e *Enterprise) UpsertIntegration(ctx context.Context, endpoint domain.IntegrationEndpoint) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.Integrations {
			if e.data.Integrations[i].ID == endpoint.ID {
				e.data.Integrations[i] = endpoint
				return
			}
		}
		e.data.Integrations = prepend(e.data.Integrations, endpoint)
	})
}

func (e *Enterprise) ToggleAutomation(ctx context.Context, id string) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.Automations {
			if e.data.Automations[i].ID == id {
				e.data.Automations[i].Enabled = !e.data.Automations[i].Enabled
			}
		}
	})
}

// UpdateParameter changes the value of an existing parameter only.
func (e *Enterprise) UpdateParameter(ctx context.Context, key, value string) error {
	return e.withPersist(ctx, func() {
		for i := range e.data.Parameters {
			if e.data.Parameters[i].Key == key {
				e.data.Parameters[i].Value = value
			}
		}
	})
}

// SimulateForecast replaces the cash forecast with a projection of five
// entries two days apart.
func (e *Enterprise) SimulateForecast(ctx context.Context) error {
	today := e.now().UTC()
	entries := make([]domain.CashForecastEntry, 0, forecastEntries)
	for i := range forecastEntries {
		notes := "预计采购"
		if i%2 == 0 {
			notes = "合同回款"
		}
		entries = append(entries, domain.CashForecastEntry{
			Date:    store.ISODate(today.AddDate(0, 0, 2*i)),
			Inflow:  float64(40000 + 8000*i),
			Outflow: float64(25000 + 6000*i),
			Notes:   notes,
		})
	}
	return e.withPersist(ctx, func() {
		e.data.CashForecast = entries
	})
}
