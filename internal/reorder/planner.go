package reorder

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/store"
)

var ErrMissingMasterData = errors.New("reorder needs a supplier and a product in master data")

const (
	levelMultiplier = 1.5
	minQuantityKg   = 40
	defaultQtyKg    = 50
	defaultUnitCost = 20
)

// Suggestion is a restock proposal for one inventory line at or below its reorder level.
type Suggestion struct {
	InventoryID    string  `json:"inventoryId"`
	Fruit          string  `json:"fruit"`
	ProductID      string  `json:"productId,omitempty"`
	OnHandKg       float64 `json:"onHandKg"`
	ReorderLevelKg float64 `json:"reorderLevelKg"`
	QuantityKg     float64 `json:"quantityKg"`
	UnitCost       float64 `json:"unitCost"`
	EstimatedCost  float64 `json:"estimatedCost"`
}

func round2(v decimal.Decimal) float64 {
	f, _ := v.Round(2).Float64()
	return f
}

// Quantity is the suggested order size for a line: one and a half times its
// reorder level with a floor of 40kg, or 50kg when the store has no line.
func Quantity(line *domain.InventoryItem) float64 {
	if line == nil {
		return defaultQtyKg
	}
	qty := decimal.NewFromFloat(line.ReorderLevelKg).Mul(decimal.NewFromFloat(levelMultiplier))
	return round2(decimal.Max(qty, decimal.NewFromInt(minQuantityKg)))
}

func UnitCost(line *domain.InventoryItem) float64 {
	if line == nil {
		return defaultUnitCost
	}
	return round2(decimal.NewFromFloat(line.UnitCost))
}

// Suggestions lists every line at or below its reorder level, emptiest first;
// ties go to the larger estimated purchase.
func Suggestions(inventory []domain.InventoryItem) []Suggestion {
	out := make([]Suggestion, 0, len(inventory))
	for i := range inventory {
		line := &inventory[i]
		if line.OnHandKg > line.ReorderLevelKg {
			continue
		}
		qty := Quantity(line)
		cost := UnitCost(line)
		out = append(out, Suggestion{
			InventoryID:    line.ID,
			Fruit:          line.Fruit,
			ProductID:      line.ProductID,
			OnHandKg:       line.OnHandKg,
			ReorderLevelKg: line.ReorderLevelKg,
			QuantityKg:     qty,
			UnitCost:       cost,
			EstimatedCost:  round2(decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(cost))),
		})
	}
	slices.SortStableFunc(out, func(a, b Suggestion) int {
		if a.OnHandKg != b.OnHandKg {
			if a.OnHandKg < b.OnHandKg {
				return -1
			}
			return 1
		}
		switch {
		case a.EstimatedCost > b.EstimatedCost:
			return -1
		case a.EstimatedCost < b.EstimatedCost:
			return 1
		}
		return 0
	})
	return out
}

// PickSupplier prefers a supplier flagged as preferred, else the first supplier.
func PickSupplier(partners []domain.PartnerProfile) (domain.PartnerProfile, bool) {
	var first *domain.PartnerProfile
	for i := range partners {
		if partners[i].Type != domain.PartnerSupplier {
			continue
		}
		if partners[i].Preferred {
			return partners[i], true
		}
		if first == nil {
			first = &partners[i]
		}
	}
	if first == nil {
		return domain.PartnerProfile{}, false
	}
	return *first, true
}

// PickProduct matches the product by display name, else takes the first product.
func PickProduct(products []domain.ProductMaster, fruit string) (domain.ProductMaster, bool) {
	if len(products) == 0 {
		return domain.ProductMaster{}, false
	}
	if idx := slices.IndexFunc(products, func(p domain.ProductMaster) bool { return p.Name == fruit }); idx >= 0 {
		return products[idx], true
	}
	return products[0], true
}

// Draft builds the pending purchase that restocks fruit. line may be nil when
// the store has never stocked the fruit.
func Draft(fruit string, line *domain.InventoryItem, partners []domain.PartnerProfile, products []domain.ProductMaster, today time.Time) (domain.PurchaseDraft, error) {
	supplier, ok := PickSupplier(partners)
	if !ok {
		return domain.PurchaseDraft{}, ErrMissingMasterData
	}
	product, ok := PickProduct(products, fruit)
	if !ok {
		return domain.PurchaseDraft{}, ErrMissingMasterData
	}

	date := store.ISODate(today.UTC())
	return domain.PurchaseDraft{
		Date:          date,
		ETA:           date,
		Supplier:      supplier.Name,
		SupplierID:    supplier.ID,
		Fruit:         fruit,
		ProductID:     product.ID,
		QuantityKg:    Quantity(line),
		UnitCost:      UnitCost(line),
		PaymentMethod: supplier.SettlementMethod,
		BatchRequired: false,
		Status:        domain.StatusPending,
	}, nil
}
