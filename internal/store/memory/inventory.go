package memory

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"fruitshop/backend/internal/domain"
)

func inventoryIndex(inventory []domain.InventoryItem, storeID, fruit string) int {
	for i := range inventory {
		if inventory[i].StoreID == storeID && inventory[i].Fruit == fruit {
			return i
		}
	}
	return -1
}

// applyPurchase adds the purchased quantity to the store's line for the fruit.
// An existing line gets a quantity-weighted average cost; a new line is opened
// with the default reorder level and a marked-up price.
func applyPurchase(inventory []domain.InventoryItem, p domain.Purchase) []domain.InventoryItem {
	qty := decimal.NewFromFloat(p.QuantityKg)
	cost := decimal.NewFromFloat(p.UnitCost)

	idx := inventoryIndex(inventory, p.StoreID, p.Fruit)
	if idx >= 0 {
		line := &inventory[idx]
		onHand := decimal.NewFromFloat(line.OnHandKg)
		total := onHand.Add(qty)
		if !total.IsZero() {
			blended := onHand.Mul(decimal.NewFromFloat(line.UnitCost)).Add(qty.Mul(cost)).Div(total)
			line.UnitCost, _ = blended.Float64()
		}
		line.OnHandKg, _ = total.Float64()
		return inventory
	}

	productID := p.ProductID
	if productID == "" {
		productID = p.Fruit
	}
	price, _ := cost.Mul(decimal.NewFromFloat(priceMarkup)).Float64()
	return append(inventory, domain.InventoryItem{
		ID:             fmt.Sprintf("inv-%s-%s", p.StoreID, p.Fruit),
		StoreID:        p.StoreID,
		Fruit:          p.Fruit,
		ProductID:      productID,
		OnHandKg:       p.QuantityKg,
		UnitCost:       p.UnitCost,
		ReorderLevelKg: defaultReorderLevel,
		UnitPrice:      price,
	})
}

// applySale draws the sold quantity from the matching line, flooring at zero.
// Selling a fruit the store has never stocked leaves inventory untouched.
func applySale(inventory []domain.InventoryItem, s domain.Sale) {
	idx := inventoryIndex(inventory, s.StoreID, s.Fruit)
	if idx < 0 {
		return
	}
	remaining, _ := decimal.NewFromFloat(inventory[idx].OnHandKg).Sub(decimal.NewFromFloat(s.QuantityKg)).Float64()
	inventory[idx].OnHandKg = math.Max(0, remaining)
}

func lineAmount(qty, price float64) float64 {
	v, _ := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price)).Float64()
	return v
}

func roundTo(v float64, places int32) float64 {
	r, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return r
}
