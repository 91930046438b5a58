package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fruitshop/backend/internal/domain"
)

var mappingNow = time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC)

func TestMapPurchaseOrder(t *testing.T) {
	order := domain.RemotePurchaseOrder{
		ID:           "po-remote-1",
		StoreID:      "store-sz",
		SupplierID:   "33333333-3333-3333-3333-333333333331",
		Status:       "paid",
		ExpectedDate: "2025-11-25",
		Lines: []domain.RemotePurchaseLine{
			{ProductID: "8E0CDDDE-6DC9-49F5-9A6B-111111111111", Fruit: "火龙果", QuantityKg: 30, UnitCost: 12},
			{ProductID: "other", QuantityKg: 20, UnitCost: 99},
		},
		Timeline: []domain.RemoteTimelineEvent{{Time: "2025-11-18T10:00:00Z"}},
	}

	got := mapPurchaseOrder(order, mappingNow)
	assert.Equal(t, domain.Purchase{
		ID:            "po-remote-1",
		StoreID:       "store-sz",
		Date:          "2025-11-18",
		Supplier:      "partner-hn",
		SupplierID:    "partner-hn",
		Fruit:         "火龙果",
		ProductID:     "prd-dragon",
		QuantityKg:    50,
		UnitCost:      12,
		PaymentMethod: domain.PaymentTransfer,
		Status:        domain.StatusSettled,
		ETA:           "2025-11-25",
	}, got)
}

func TestMapPurchaseOrderDefaults(t *testing.T) {
	got := mapPurchaseOrder(domain.RemotePurchaseOrder{Status: "ordered"}, mappingNow)

	assert.Equal(t, "unknown", got.ID)
	assert.Equal(t, "2025-11-20", got.Date)
	assert.Equal(t, "2025-11-20", got.ETA)
	assert.Equal(t, "多品类", got.Fruit)
	assert.Empty(t, got.ProductID)
	assert.Zero(t, got.QuantityKg)
	assert.Zero(t, got.UnitCost)
	assert.Equal(t, domain.StatusPending, got.Status)

	fromExpected := mapPurchaseOrder(domain.RemotePurchaseOrder{ExpectedDate: "2025-12-01T00:00:00Z"}, mappingNow)
	assert.Equal(t, "2025-12-01", fromExpected.Date)
}

func TestValidatePurchase(t *testing.T) {
	assert.ErrorContains(t, validatePurchase(domain.PurchaseDraft{ProductID: "prd-dragon"}), "validation failed")
	assert.Error(t, validatePurchase(domain.PurchaseDraft{SupplierID: "partner-hn"}))
	assert.NoError(t, validatePurchase(domain.PurchaseDraft{SupplierID: "partner-hn", ProductID: "prd-dragon", QuantityKg: 1}))
}

func TestBuildPurchasePayloadTranslatesIDs(t *testing.T) {
	payload := buildPurchasePayload(domain.PurchaseDraft{
		Date:       "2025-11-20",
		SupplierID: "partner-sc",
		ProductID:  "prd-avocado",
		QuantityKg: 40,
		UnitCost:   18,
	})

	assert.Equal(t, domain.RemotePurchasePayload{
		SupplierID: "33333333-3333-3333-3333-333333333333",
		ETA:        "2025-11-20",
		Items: []domain.RemotePurchaseItem{{
			ProductID:  "6cb33c0b-dcc5-44c0-90a5-333333333333",
			QuantityKg: 40,
			UnitCost:   18,
		}},
	}, payload)
}

func TestMapAdjustmentToRemote(t *testing.T) {
	adj := domain.StockAdjustment{ID: "adj-1", InventoryID: "inv-1", Reason: "盘亏", BeforeQty: 10, AfterQty: 4, Operator: "admin", Time: "t"}
	assert.InDelta(t, -6, AdjustmentToRemote(adj).DeltaKg, 1e-9)

	delta := 2.5
	adj.DeltaKg = &delta
	got := AdjustmentToRemote(adj)
	assert.InDelta(t, 2.5, got.DeltaKg, 1e-9)
	assert.Equal(t, "admin", got.CreatedBy)
	assert.Equal(t, "t", got.CreatedAt)
}

func TestMapInvoiceToRemote(t *testing.T) {
	got := InvoiceToRemote(domain.PurchaseInvoice{ID: "inv-1", POID: "po-1", Amount: 5, Status: domain.InvoicePaid}, "store-cs")
	assert.Equal(t, domain.RemoteInvoice{ID: "inv-1", StoreID: "store-cs", SalesOrderID: "po-1", Amount: 5, Status: "paid"}, got)
}

func TestPurchaseToRemoteRoundTrip(t *testing.T) {
	p := domain.Purchase{
		ID:            "po-1001",
		StoreID:       "store-sz",
		Date:          "2025-11-18",
		Supplier:      "partner-hn",
		SupplierID:    "partner-hn",
		Fruit:         "火龙果",
		ProductID:     "prd-dragon",
		QuantityKg:    30,
		UnitCost:      12,
		PaymentMethod: domain.PaymentTransfer,
		Status:        domain.StatusSettled,
		ETA:           "2025-11-25",
	}

	order := PurchaseToRemote(p)
	assert.Equal(t, "33333333-3333-3333-3333-333333333331", order.SupplierID)
	assert.Equal(t, "8e0cddde-6dc9-49f5-9a6b-111111111111", order.Lines[0].ProductID)
	assert.Equal(t, "paid", order.Status)
	assert.Equal(t, p, mapPurchaseOrder(order, mappingNow))

	p.Status = domain.StatusPending
	assert.Equal(t, "ordered", PurchaseToRemote(p).Status)
}

func TestDraftFromPayload(t *testing.T) {
	payload := domain.RemotePurchasePayload{SupplierID: "33333333-3333-3333-3333-333333333332"}
	item := domain.RemotePurchaseItem{ProductID: "D49F7A55-3F27-4CB0-8A40-222222222222", QuantityKg: 40, UnitCost: 30}

	draft := DraftFromPayload(payload, item, "2025-11-20")
	assert.Equal(t, "partner-yx", draft.SupplierID)
	assert.Equal(t, "prd-blueberry", draft.ProductID)
	assert.Equal(t, "2025-11-20", draft.ETA)
	assert.Equal(t, domain.StatusPending, draft.Status)
}

func TestInventoryToRemoteLeavesInputAlone(t *testing.T) {
	items := []domain.InventoryItem{{ID: "inv-1", ProductID: "prd-avocado"}, {ID: "inv-2"}}

	out := InventoryToRemote(items)
	assert.Equal(t, "6cb33c0b-dcc5-44c0-90a5-333333333333", out[0].ProductID)
	assert.Empty(t, out[1].ProductID)
	assert.Equal(t, "prd-avocado", items[0].ProductID)
}
