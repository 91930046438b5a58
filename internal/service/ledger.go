package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/reorder"
)

var (
	ErrNoActiveStore         = errors.New("no active store selected")
	ErrInventoryLineNotFound = errors.New("inventory line not found")
)

const (
	minReorderLevelKg = 5
	fallbackOperator  = "系统"
	fallbackWarehouse = "wh-local"
)

// LedgerBackend is the per-store slice of the data gateway.
type LedgerBackend interface {
	ListPurchases(ctx context.Context, storeID string) ([]domain.Purchase, error)
	ListSales(ctx context.Context, storeID string) ([]domain.Sale, error)
	ListInventory(ctx context.Context, storeID string) ([]domain.InventoryItem, error)
	CreatePurchase(ctx context.Context, storeID string, draft domain.PurchaseDraft) (domain.Purchase, error)
	CreateSale(ctx context.Context, storeID string, draft domain.SaleDraft) (domain.Sale, error)
	SettlePurchase(ctx context.Context, id string) (*domain.Purchase, error)
	SettleSale(ctx context.Context, id string) (*domain.Sale, error)
	UpdateReorderLevel(ctx context.Context, inventoryID string, level float64) (*domain.InventoryItem, error)
	CreateAdjustment(ctx context.Context, inventoryID string, req domain.AdjustmentRequest) (domain.RemoteAdjustment, error)
}

// SessionView is what the ledger reads from the session.
type SessionView interface {
	ActiveStoreID() string
	User() *domain.UserProfile
}

// MasterData supplies suppliers and products for reorders and adjustments.
type MasterData interface {
	Products() []domain.ProductMaster
	Partners() []domain.PartnerProfile
}

// AdjustmentInput is a stock count correction for one product.
type AdjustmentInput struct {
	ProductID   string  `json:"productId" validate:"required"`
	WarehouseID string  `json:"warehouseId"`
	BeforeQty   float64 `json:"beforeQty"`
	AfterQty    float64 `json:"afterQty"`
	Reason      string  `json:"reason"`
}

// Ledger is the per-store projection of purchases, sales and inventory. Every
// mutation goes through the backend and then reloads the store silently.
type Ledger struct {
	mu        sync.RWMutex
	backend   LedgerBackend
	session   SessionView
	master    MasterData
	logger    *zap.Logger
	now       func() time.Time
	storeID   string
	purchases []domain.Purchase
	sales     []domain.Sale
	inventory []domain.InventoryItem
	loading   bool
	lastError string
	filter    DateFilter
}

func NewLedger(backend LedgerBackend, session SessionView, master MasterData, opts ...Option) *Ledger {
	o := buildOptions(opts)
	l := &Ledger{
		backend: backend,
		session: session,
		master:  master,
		logger:  o.logger,
		now:     o.now,
	}
	start, end, _ := PresetRange(PresetMonth, l.now())
	l.filter = DateFilter{Preset: PresetMonth, Start: start, End: end}
	return l
}

func (l *Ledger) reset() {
	l.mu.Lock()
	l.storeID = ""
	l.purchases = nil
	l.sales = nil
	l.inventory = nil
	l.mu.Unlock()
}

// LoadStoreData fetches the three collections of storeID, or of the active
// store when storeID is empty, and replaces them together.
func (l *Ledger) LoadStoreData(ctx context.Context, storeID string) error {
	return l.load(ctx, storeID, false)
}

func (l *Ledger) load(ctx context.Context, storeID string, silent bool) error {
	target := storeID
	if target == "" {
		target = l.session.ActiveStoreID()
	}
	if target == "" {
		target = l.CurrentStoreID()
	}
	if target == "" {
		l.reset()
		return nil
	}

	if !silent {
		l.mu.Lock()
		l.loading = true
		l.lastError = ""
		l.mu.Unlock()
		defer func() {
			l.mu.Lock()
			l.loading = false
			l.mu.Unlock()
		}()
	}

	var (
		purchases []domain.Purchase
		sales     []domain.Sale
		inventory []domain.InventoryItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		purchases, err = l.backend.ListPurchases(gctx, target)
		return err
	})
	g.Go(func() (err error) {
		sales, err = l.backend.ListSales(gctx, target)
		return err
	})
	g.Go(func() (err error) {
		inventory, err = l.backend.ListInventory(gctx, target)
		return err
	})
	if err := g.Wait(); err != nil {
		if !silent {
			l.mu.Lock()
			l.lastError = err.Error()
			l.mu.Unlock()
		}
		return fmt.Errorf("load store %s: %w", target, err)
	}

	l.mu.Lock()
	l.storeID = target
	l.purchases = purchases
	l.sales = sales
	l.inventory = inventory
	l.mu.Unlock()
	l.logger.Debug("store data loaded",
		zap.String("store", target),
		zap.Int("purchases", len(purchases)),
		zap.Int("sales", len(sales)),
		zap.Int("inventory", len(inventory)),
	)
	return nil
}

// HandleActiveStoreChange follows the session's active store. Register it
// with Session.OnActiveStoreChange.
func (l *Ledger) HandleActiveStoreChange(ctx context.Context, storeID string) {
	if storeID == "" {
		l.reset()
		return
	}
	if err := l.LoadStoreData(ctx, storeID); err != nil {
		l.logger.Warn("reload after store switch failed", zap.String("store", storeID), zap.Error(err))
	}
}

func (l *Ledger) ensureStore() (string, error) {
	if id := l.CurrentStoreID(); id != "" {
		return id, nil
	}
	if id := l.session.ActiveStoreID(); id != "" {
		return id, nil
	}
	return "", ErrNoActiveStore
}

func (l *Ledger) runMutation(fn func() error) error {
	l.mu.Lock()
	l.loading = true
	l.lastError = ""
	l.mu.Unlock()

	err := fn()

	l.mu.Lock()
	l.loading = false
	if err != nil {
		l.lastError = err.Error()
	}
	l.mu.Unlock()
	return err
}

func (l *Ledger) AddPurchase(ctx context.Context, draft domain.PurchaseDraft) error {
	storeID, err := l.ensureStore()
	if err != nil {
		return err
	}
	return l.runMutation(func() error {
		if _, err := l.backend.CreatePurchase(ctx, storeID, draft); err != nil {
			return err
		}
		return l.load(ctx, storeID, true)
	})
}

func (l *Ledger) AddSale(ctx context.Context, draft domain.SaleDraft) error {
	storeID, err := l.ensureStore()
	if err != nil {
		return err
	}
	return l.runMutation(func() error {
		if _, err := l.backend.CreateSale(ctx, storeID, draft); err != nil {
			return err
		}
		return l.load(ctx, storeID, true)
	})
}

func (l *Ledger) SettlePurchase(ctx context.Context, id string) error {
	return l.runMutation(func() error {
		if _, err := l.backend.SettlePurchase(ctx, id); err != nil {
			return err
		}
		return l.load(ctx, "", true)
	})
}

func (l *Ledger) SettleSale(ctx context.Context, id string) error {
	return l.runMutation(func() error {
		if _, err := l.backend.SettleSale(ctx, id); err != nil {
			return err
		}
		return l.load(ctx, "", true)
	})
}

// TriggerReorder drafts and submits a pending purchase that restocks fruit.
func (l *Ledger) TriggerReorder(ctx context.Context, fruit string) error {
	line := l.findLine(func(item domain.InventoryItem) bool { return item.Fruit == fruit })
	draft, err := reorder.Draft(fruit, line, l.master.Partners(), l.master.Products(), l.now())
	if err != nil {
		return err
	}
	return l.AddPurchase(ctx, draft)
}

// UpdateReorderLevel clamps level to at least 5kg and updates the line in
// place without reloading.
func (l *Ledger) UpdateReorderLevel(ctx context.Context, fruit string, level float64) error {
	sanitized := roundFloat(max(minReorderLevelKg, level))
	return l.runMutation(func() error {
		line := l.findLine(func(item domain.InventoryItem) bool { return item.Fruit == fruit })
		if line == nil || line.ID == "" {
			return fmt.Errorf("%w: %s", ErrInventoryLineNotFound, fruit)
		}
		if _, err := l.backend.UpdateReorderLevel(ctx, line.ID, sanitized); err != nil {
			return err
		}
		l.mu.Lock()
		for i := range l.inventory {
			if l.inventory[i].ID == line.ID {
				l.inventory[i].ReorderLevelKg = sanitized
			}
		}
		l.mu.Unlock()
		return nil
	})
}

// RecordAdjustment books a stock count correction against the line matching
// the product id, the product's name or a fruit named like the id.
func (l *Ledger) RecordAdjustment(ctx context.Context, in AdjustmentInput) (domain.StockAdjustment, error) {
	var result domain.StockAdjustment
	err := l.runMutation(func() error {
		if _, err := l.ensureStore(); err != nil {
			return err
		}
		operator := fallbackOperator
		if user := l.session.User(); user != nil {
			switch {
			case user.Name != "":
				operator = user.Name
			case user.Username != "":
				operator = user.Username
			}
		}

		productName := ""
		for _, p := range l.master.Products() {
			if p.ID == in.ProductID {
				productName = p.Name
				break
			}
		}
		line := l.findLine(func(item domain.InventoryItem) bool {
			return item.ProductID == in.ProductID ||
				(productName != "" && item.Fruit == productName) ||
				item.Fruit == in.ProductID
		})
		if line == nil || line.ID == "" {
			return fmt.Errorf("%w: %s", ErrInventoryLineNotFound, in.ProductID)
		}

		delta := round2(decimal.NewFromFloat(in.AfterQty).Sub(decimal.NewFromFloat(in.BeforeQty)))
		remote, err := l.backend.CreateAdjustment(ctx, line.ID, domain.AdjustmentRequest{
			Reason:    in.Reason,
			DeltaKg:   delta,
			CreatedBy: operator,
		})
		if err != nil {
			return err
		}

		onHand := roundFloat(max(0, in.AfterQty))
		l.mu.Lock()
		for i := range l.inventory {
			if l.inventory[i].ID == line.ID {
				l.inventory[i].OnHandKg = onHand
			}
		}
		l.mu.Unlock()

		warehouse := in.WarehouseID
		if warehouse == "" {
			warehouse = fallbackWarehouse
		}
		result = domain.StockAdjustment{
			ID:          remote.ID,
			WarehouseID: warehouse,
			ProductID:   in.ProductID,
			Reason:      in.Reason,
			BeforeQty:   in.BeforeQty,
			AfterQty:    in.AfterQty,
			Operator:    operator,
			Time:        remote.CreatedAt,
			InventoryID: line.ID,
			DeltaKg:     &delta,
		}
		return nil
	})
	return result, err
}

func (l *Ledger) findLine(match func(domain.InventoryItem) bool) *domain.InventoryItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if idx := slices.IndexFunc(l.inventory, match); idx >= 0 {
		line := l.inventory[idx]
		return &line
	}
	return nil
}

// SetDatePreset switches the filter to preset. Custom keeps the current bounds.
func (l *Ledger) SetDatePreset(preset DatePreset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter.Preset = preset
	if start, end, ok := PresetRange(preset, l.now()); ok {
		l.filter.Start, l.filter.End = start, end
	}
}

// SetCustomDateRange sets explicit bounds, swapping them when reversed.
// An empty bound is open.
func (l *Ledger) SetCustomDateRange(start, end string) {
	if start != "" && end != "" && start > end {
		start, end = end, start
	}
	l.mu.Lock()
	l.filter = DateFilter{Preset: PresetCustom, Start: start, End: end}
	l.mu.Unlock()
}

func (l *Ledger) DateFilter() DateFilter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.filter
}

func (l *Ledger) Summary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Summarize(l.purchases, l.sales, l.inventory, l.filter)
}

func (l *Ledger) FilteredSales() []domain.Sale {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return FilterSales(l.sales, l.filter)
}

func (l *Ledger) FilteredPurchases() []domain.Purchase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return FilterPurchases(l.purchases, l.filter)
}

func (l *Ledger) Purchases() []domain.Purchase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.purchases)
}

func (l *Ledger) Sales() []domain.Sale {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.sales)
}

func (l *Ledger) Inventory() []domain.InventoryItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.inventory)
}

func (l *Ledger) CurrentStoreID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.storeID
}

func (l *Ledger) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

func (l *Ledger) LastError() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastError
}
