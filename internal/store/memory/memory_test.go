package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/storage"
	"fruitshop/backend/internal/store"
)

var fixedNow = time.Date(2025, 11, 20, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, kv storage.Storage) *Store {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemory()
	}
	s, err := New(context.Background(), kv,
		WithLatency(0),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return s
}

func findLine(items []domain.InventoryItem, fruit string) *domain.InventoryItem {
	for i := range items {
		if items[i].Fruit == fruit {
			return &items[i]
		}
	}
	return nil
}

func TestSeedIsDeterministic(t *testing.T) {
	a, err := buildSeed(fixedNow, defaultFakerSeed)
	require.NoError(t, err)
	b, err := buildSeed(fixedNow, defaultFakerSeed)
	require.NoError(t, err)

	assert.Len(t, a.Purchases, seedPurchaseCount)
	assert.Len(t, a.Sales, seedSaleCount)
	assert.Len(t, a.Quotes, seedQuoteCount)
	assert.Len(t, a.Invoices, seedInvoiceCount)
	assert.Equal(t, a, b)
	for _, line := range a.Inventory {
		assert.GreaterOrEqual(t, line.OnHandKg, 0.0, line.ID)
	}
}

func TestLoginReturnsProfileStoresAndPermissions(t *testing.T) {
	s := newTestStore(t, nil)

	resp, err := s.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "owner", resp.User.Role)
	assert.Len(t, resp.Stores, 3)
	assert.Contains(t, resp.Permissions, domain.PermSwitchStore)

	cashier, err := s.Login(context.Background(), "cashier", "888888")
	require.NoError(t, err)
	require.Len(t, cashier.Stores, 1)
	assert.Equal(t, "store-sz", cashier.Stores[0].ID)
	assert.Equal(t, []string{domain.PermSalesWrite}, cashier.Permissions)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)

	_, err = s.Login(context.Background(), "Admin", "admin123")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)
}

func TestRegister(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	resp, err := s.Register(ctx, domain.RegisterRequest{Username: "newbie", Password: "pw", Name: "新人"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.User)
	assert.Equal(t, domain.RoleCashier, resp.User.Role)
	assert.Equal(t, "newbie@fruitshop.com", resp.User.Email)

	boss, err := s.Register(ctx, domain.RegisterRequest{Username: "boss2", Password: "pw", InviteCode: "ADMIN888"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, boss.User.Role)

	_, err = s.Register(ctx, domain.RegisterRequest{Username: "newbie", Password: "other"})
	assert.ErrorIs(t, err, store.ErrUsernameTaken)

	login, err := s.Login(ctx, "newbie", "pw")
	require.NoError(t, err)
	require.Len(t, login.Stores, 1)
	assert.Equal(t, "store-sz", login.Stores[0].ID)
}

func TestPurchaseOpensNewInventoryLine(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	created, err := s.CreatePurchase(ctx, "store-sz", domain.PurchaseDraft{
		Date:          "2025-11-20",
		Supplier:      "湘南果农联盟",
		SupplierID:    "supp-1",
		Fruit:         "火龙果",
		QuantityKg:    100,
		UnitCost:      10,
		PaymentMethod: domain.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "store-sz", created.StoreID)
	assert.Equal(t, domain.StatusPending, created.Status)

	inventory, err := s.ListInventory(ctx, "store-sz")
	require.NoError(t, err)
	line := findLine(inventory, "火龙果")
	require.NotNil(t, line)
	assert.Equal(t, "inv-store-sz-火龙果", line.ID)
	assert.Equal(t, "火龙果", line.ProductID)
	assert.InDelta(t, 100, line.OnHandKg, 1e-9)
	assert.InDelta(t, 10, line.UnitCost, 1e-9)
	assert.InDelta(t, 15, line.UnitPrice, 1e-9)
	assert.InDelta(t, 80, line.ReorderLevelKg, 1e-9)

	purchases, err := s.ListPurchases(ctx, "store-sz")
	require.NoError(t, err)
	assert.Equal(t, created.ID, purchases[0].ID)
}

func TestPurchaseBlendsUnitCost(t *testing.T) {
	inventory := applyPurchase(nil, domain.Purchase{StoreID: "s", Fruit: "梨", QuantityKg: 100, UnitCost: 10})
	inventory = applyPurchase(inventory, domain.Purchase{StoreID: "s", Fruit: "梨", QuantityKg: 50, UnitCost: 16})

	require.Len(t, inventory, 1)
	assert.InDelta(t, 150, inventory[0].OnHandKg, 1e-9)
	assert.InDelta(t, 12, inventory[0].UnitCost, 1e-9)

	other := applyPurchase(inventory, domain.Purchase{StoreID: "t", Fruit: "梨", QuantityKg: 5, UnitCost: 1})
	assert.Len(t, other, 2)
}

func TestSaleFloorsAtZero(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.CreatePurchase(ctx, "store-cs", domain.PurchaseDraft{Fruit: "杨桃", QuantityKg: 10, UnitCost: 5})
	require.NoError(t, err)
	_, err = s.CreateSale(ctx, "store-cs", domain.SaleDraft{Fruit: "杨桃", QuantityKg: 25, UnitPrice: 9, Status: domain.StatusSettled})
	require.NoError(t, err)

	inventory, err := s.ListInventory(ctx, "store-cs")
	require.NoError(t, err)
	line := findLine(inventory, "杨桃")
	require.NotNil(t, line)
	assert.Zero(t, line.OnHandKg)

	before := len(inventory)
	_, err = s.CreateSale(ctx, "store-cs", domain.SaleDraft{Fruit: "榴莲", QuantityKg: 3, UnitPrice: 50})
	require.NoError(t, err)
	inventory, err = s.ListInventory(ctx, "store-cs")
	require.NoError(t, err)
	assert.Len(t, inventory, before)
}

func TestSettleUnknownIDReturnsNil(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	p, err := s.SettlePurchase(ctx, "po-missing")
	require.NoError(t, err)
	assert.Nil(t, p)

	sale, err := s.SettleSale(ctx, "so-missing")
	require.NoError(t, err)
	assert.Nil(t, sale)

	line, err := s.UpdateReorderLevel(ctx, "inv-missing", 10)
	require.NoError(t, err)
	assert.Nil(t, line)
}

func TestSettlePurchase(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	created, err := s.CreatePurchase(ctx, "store-sz", domain.PurchaseDraft{Fruit: "柚子", QuantityKg: 1, UnitCost: 1})
	require.NoError(t, err)

	settled, err := s.SettlePurchase(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, settled)
	assert.Equal(t, domain.StatusSettled, settled.Status)
}

func TestCreateAdjustment(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.CreatePurchase(ctx, "store-wh", domain.PurchaseDraft{Fruit: "蓝莓", ProductID: "prod-9", QuantityKg: 20, UnitCost: 30})
	require.NoError(t, err)

	adj, err := s.CreateAdjustment(ctx, "inv-store-wh-蓝莓", "盘亏", -30, "admin")
	require.NoError(t, err)
	assert.Equal(t, "wh-demo", adj.WarehouseID)
	assert.Equal(t, "prod-9", adj.ProductID)
	assert.InDelta(t, 20, adj.BeforeQty, 1e-9)
	assert.InDelta(t, -10, adj.AfterQty, 1e-9)
	assert.Equal(t, "2025-11-20T09:30:00.000Z", adj.Time)

	inventory, err := s.ListInventory(ctx, "store-wh")
	require.NoError(t, err)
	assert.Zero(t, findLine(inventory, "蓝莓").OnHandKg)

	orphan, err := s.CreateAdjustment(ctx, "inv-none", "盘盈", 4, "admin")
	require.NoError(t, err)
	assert.Equal(t, "fruit", orphan.ProductID)
	assert.Zero(t, orphan.BeforeQty)
	assert.InDelta(t, 4, orphan.AfterQty, 1e-9)

	snapshot, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, orphan.ID, snapshot.Adjustments[0].ID)
}

func TestInvoicesFilterAndBackfillStore(t *testing.T) {
	kv := storage.NewMemory()
	s := newTestStore(t, kv)
	ctx := context.Background()

	snapshot, err := s.Snapshot()
	require.NoError(t, err)
	origin := snapshot.Purchases[0]

	s.mu.Lock()
	s.state.Invoices = append(s.state.Invoices, domain.PurchaseInvoice{ID: "inv-orphan", POID: origin.ID, Amount: 10, Status: domain.InvoicePending})
	s.mu.Unlock()

	listed, err := s.ListInvoices(ctx, origin.StoreID)
	require.NoError(t, err)
	ids := make([]string, 0, len(listed))
	for _, inv := range listed {
		ids = append(ids, inv.ID)
	}
	assert.Contains(t, ids, "inv-orphan")

	updated, err := s.UpdateInvoiceStatus(ctx, "inv-orphan", domain.InvoicePaid)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, domain.InvoicePaid, updated.Status)
	assert.Equal(t, origin.StoreID, updated.StoreID)

	missing, err := s.UpdateInvoiceStatus(ctx, "inv-nope", domain.InvoicePaid)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateParameterUpserts(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	existing, err := s.UpdateParameter(ctx, "finance.currency", "USD")
	require.NoError(t, err)
	assert.Equal(t, "默认币种", existing.Label)
	assert.Equal(t, "USD", existing.Value)

	added, err := s.UpdateParameter(ctx, "sales.rounding", "0.1")
	require.NoError(t, err)
	assert.Equal(t, domain.ParameterConfig{Key: "sales.rounding", Label: "sales.rounding", Value: "0.1"}, *added)
}

func TestSearchMembers(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	none, err := s.SearchMembers(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, none)

	byPhone, err := s.SearchMembers(ctx, "1387777")
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, "member-2", byPhone[0].ID)
	assert.Equal(t, "2025-05-20", byPhone[0].JoinDate)

	byName, err := s.SearchMembers(ctx, "张")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	m, err := s.GetMember(ctx, "member-3")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "张老板", m.Name)
}

func TestCreateQuoteVersionsPerSale(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	sale, err := s.CreateSale(ctx, "store-sz", domain.SaleDraft{Customer: "社区团购A站", Channel: "批发", Fruit: "金煌芒果", QuantityKg: 10, UnitPrice: 8})
	require.NoError(t, err)

	first, err := s.CreateQuote(ctx, sale.ID, domain.QuoteRequest{ValidUntil: "2025-12-31", DiscountRate: 0.05})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, domain.QuoteDraft, first.Status)
	assert.Equal(t, "2025-11-20", first.ValidFrom)
	assert.InDelta(t, 80, first.TotalAmount, 1e-9)
	assert.Equal(t, []domain.QuoteLine{{ProductID: "金煌芒果", QuantityKg: 10, UnitPrice: 8, DiscountPercent: 5}}, first.Lines)

	second, err := s.CreateQuote(ctx, sale.ID, domain.QuoteRequest{ValidUntil: "2026-01-15"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	quotes, err := s.ListQuotesBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, second.ID, quotes[0].ID)

	accepted, err := s.UpdateQuoteStatus(ctx, first.ID, domain.QuoteAccepted)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteAccepted, accepted.Status)

	orphan, err := s.CreateQuote(ctx, "so-none", domain.QuoteRequest{ValidUntil: "2025-12-31"})
	require.NoError(t, err)
	assert.Zero(t, orphan.TotalAmount)
	assert.Equal(t, "潜在客户", orphan.CustomerID)
	assert.Equal(t, "渠道", orphan.Channel)
	assert.Equal(t, []domain.QuoteLine{{ProductID: "fruit", QuantityKg: 100, UnitPrice: 20, DiscountPercent: 5}}, orphan.Lines)
}

func TestEnterpriseSnapshotHidesPasswords(t *testing.T) {
	s := newTestStore(t, nil)

	snap, err := s.EnterpriseSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Products, 5)
	assert.Empty(t, snap.Warehouses)
	assert.NotNil(t, snap.Warehouses)
	assert.NotNil(t, snap.CashForecast)
	require.NotEmpty(t, snap.Users)
	assert.Equal(t, "admin", snap.Users[0].ID)
	assert.Equal(t, "active", snap.Users[0].Status)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "admin123")
}

func TestStateSurvivesReload(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()

	first := newTestStore(t, kv)
	created, err := first.CreatePurchase(ctx, "store-sz", domain.PurchaseDraft{Fruit: "山竹", QuantityKg: 12, UnitCost: 20})
	require.NoError(t, err)

	second := newTestStore(t, kv)
	purchases, err := second.ListPurchases(ctx, "store-sz")
	require.NoError(t, err)
	assert.Equal(t, created.ID, purchases[0].ID)
}

func TestNullCollectionFallsBackToSeed(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, store.BackendStateKey, []byte(`{"purchases":[],"members":null}`)))

	s := newTestStore(t, kv)
	purchases, err := s.ListPurchases(ctx, "store-sz")
	require.NoError(t, err)
	assert.Empty(t, purchases)

	members, err := s.SearchMembers(ctx, "王")
	require.NoError(t, err)
	assert.Len(t, members, 1)

	_, err = s.Login(ctx, "admin", "admin123")
	assert.NoError(t, err)
}

func TestMalformedStateIsAnError(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(context.Background(), store.BackendStateKey, []byte(`{not json`)))

	_, err := New(context.Background(), kv, WithLatency(0))
	assert.Error(t, err)
}

func TestLatencyHonoursContext(t *testing.T) {
	s, err := New(context.Background(), storage.NewMemory(), WithLatency(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.ListSales(ctx, "store-sz")
	assert.ErrorIs(t, err, context.Canceled)
}
