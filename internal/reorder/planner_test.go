package reorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fruitshop/backend/internal/domain"
)

var (
	partners = []domain.PartnerProfile{
		{ID: "cust-1", Type: domain.PartnerCustomer, Name: "社区团购A站", Preferred: true},
		{ID: "supp-1", Type: domain.PartnerSupplier, Name: "湘南果农联盟", SettlementMethod: domain.PaymentTransfer},
		{ID: "supp-2", Type: domain.PartnerSupplier, Name: "海南芒果社", SettlementMethod: domain.PaymentMobile, Preferred: true},
	}
	products = []domain.ProductMaster{
		{ID: "prod-1", Name: "麒麟西瓜"},
		{ID: "prod-2", Name: "金煌芒果"},
	}
)

func TestQuantity(t *testing.T) {
	assert.InDelta(t, 50, Quantity(nil), 0)
	assert.InDelta(t, 40, Quantity(&domain.InventoryItem{ReorderLevelKg: 10}), 0)
	assert.InDelta(t, 120, Quantity(&domain.InventoryItem{ReorderLevelKg: 80}), 0)
	assert.InDelta(t, 20, UnitCost(nil), 0)
	assert.InDelta(t, 12.35, UnitCost(&domain.InventoryItem{UnitCost: 12.345}), 1e-9)
}

func TestDraftUsesPreferredSupplierAndMatchingProduct(t *testing.T) {
	line := &domain.InventoryItem{Fruit: "金煌芒果", ReorderLevelKg: 60, UnitCost: 48}
	today := time.Date(2025, 11, 20, 23, 30, 0, 0, time.FixedZone("CST", 8*3600))

	draft, err := Draft("金煌芒果", line, partners, products, today)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseDraft{
		Date:          "2025-11-20",
		ETA:           "2025-11-20",
		Supplier:      "海南芒果社",
		SupplierID:    "supp-2",
		Fruit:         "金煌芒果",
		ProductID:     "prod-2",
		QuantityKg:    90,
		UnitCost:      48,
		PaymentMethod: domain.PaymentMobile,
		Status:        domain.StatusPending,
	}, draft)
}

func TestDraftFallsBackToFirstEntries(t *testing.T) {
	suppliers := []domain.PartnerProfile{partners[0], partners[1]}

	draft, err := Draft("榴莲", nil, suppliers, products, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "supp-1", draft.SupplierID)
	assert.Equal(t, "prod-1", draft.ProductID)
	assert.InDelta(t, 50, draft.QuantityKg, 0)
	assert.InDelta(t, 20, draft.UnitCost, 0)
}

func TestDraftRequiresMasterData(t *testing.T) {
	_, err := Draft("榴莲", nil, nil, products, time.Now())
	assert.ErrorIs(t, err, ErrMissingMasterData)

	_, err = Draft("榴莲", nil, partners, nil, time.Now())
	assert.ErrorIs(t, err, ErrMissingMasterData)
}

func TestSuggestionsOrdering(t *testing.T) {
	inventory := []domain.InventoryItem{
		{ID: "a", Fruit: "西瓜", OnHandKg: 200, ReorderLevelKg: 80, UnitCost: 9},
		{ID: "b", Fruit: "芒果", OnHandKg: 10, ReorderLevelKg: 80, UnitCost: 48},
		{ID: "c", Fruit: "车厘子", OnHandKg: 10, ReorderLevelKg: 80, UnitCost: 168},
		{ID: "d", Fruit: "苹果", OnHandKg: 0, ReorderLevelKg: 20, UnitCost: 36},
		{ID: "e", Fruit: "青提", OnHandKg: 80, ReorderLevelKg: 80, UnitCost: 27},
	}

	got := Suggestions(inventory)
	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.InventoryID)
	}
	assert.Equal(t, []string{"d", "c", "b", "e"}, ids)
	assert.InDelta(t, 120*168, got[1].EstimatedCost, 1e-9)
}
