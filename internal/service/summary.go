package service

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/reorder"
	"fruitshop/backend/internal/store"
)

type DatePreset string

const (
	PresetToday  DatePreset = "today"
	PresetWeek   DatePreset = "week"
	PresetMonth  DatePreset = "month"
	PresetCustom DatePreset = "custom"
	PresetAll    DatePreset = "all"
)

// DateFilter bounds are inclusive ISO dates; an empty bound is open.
type DateFilter struct {
	Preset DatePreset `json:"preset"`
	Start  string     `json:"start,omitempty"`
	End    string     `json:"end,omitempty"`
}

// PresetRange resolves a preset against now's calendar date. Custom keeps
// whatever bounds the caller already has and so reports ok=false.
func PresetRange(preset DatePreset, now time.Time) (start, end string, ok bool) {
	today := store.ISODate(now)
	switch preset {
	case PresetToday:
		return today, today, true
	case PresetWeek:
		// Monday starts the week.
		offset := (int(now.Weekday()) + 6) % 7
		return store.ISODate(now.AddDate(0, 0, -offset)), today, true
	case PresetMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return store.ISODate(first), today, true
	case PresetAll:
		return "", "", true
	}
	return "", "", false
}

// Matches compares dates as strings, which orders ISO dates correctly.
func (f DateFilter) Matches(date string) bool {
	if f.Start != "" && date < f.Start {
		return false
	}
	if f.End != "" && date > f.End {
		return false
	}
	return true
}

type PaymentBreakdown struct {
	Method   domain.PaymentMethod `json:"method"`
	Incoming float64              `json:"incoming"`
	Outgoing float64              `json:"outgoing"`
	Net      float64              `json:"net"`
}

type FruitRevenue struct {
	Fruit   string  `json:"fruit"`
	Revenue float64 `json:"revenue"`
}

// Summary is the dashboard view of one store. Revenue, procurement cost and
// the payment breakdown follow the date filter; receivables and payables
// cover every pending record regardless of date.
type Summary struct {
	Filter               DateFilter             `json:"filter"`
	TotalInventoryValue  float64                `json:"totalInventoryValue"`
	TotalRevenue         float64                `json:"totalRevenue"`
	TotalProcurementCost float64                `json:"totalProcurementCost"`
	GrossProfit          float64                `json:"grossProfit"`
	InventoryTurnover    *float64               `json:"inventoryTurnover"`
	Receivables          float64                `json:"receivables"`
	Payables             float64                `json:"payables"`
	PaymentBreakdown     []PaymentBreakdown     `json:"paymentBreakdown"`
	ReorderAlerts        []domain.InventoryItem `json:"reorderAlerts"`
	TopSellingFruits     []FruitRevenue         `json:"topSellingFruits"`
	Suggestions          []reorder.Suggestion   `json:"suggestions"`
}

const topSellingLimit = 3

func amount(qty, price float64) decimal.Decimal {
	return decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price))
}

func round2(v decimal.Decimal) float64 {
	f, _ := v.Round(2).Float64()
	return f
}

func roundFloat(v float64) float64 {
	return round2(decimal.NewFromFloat(v))
}

func FilterSales(sales []domain.Sale, filter DateFilter) []domain.Sale {
	out := make([]domain.Sale, 0, len(sales))
	for _, s := range sales {
		if filter.Matches(s.Date) {
			out = append(out, s)
		}
	}
	return out
}

func FilterPurchases(purchases []domain.Purchase, filter DateFilter) []domain.Purchase {
	out := make([]domain.Purchase, 0, len(purchases))
	for _, p := range purchases {
		if filter.Matches(p.Date) {
			out = append(out, p)
		}
	}
	return out
}

// Summarize computes every dashboard aggregate. All money values are rounded
// to two decimals, and gross profit and turnover derive from rounded inputs.
func Summarize(purchases []domain.Purchase, sales []domain.Sale, inventory []domain.InventoryItem, filter DateFilter) Summary {
	filteredSales := FilterSales(sales, filter)
	filteredPurchases := FilterPurchases(purchases, filter)

	inventoryValue := decimal.Zero
	var alerts []domain.InventoryItem
	for _, line := range inventory {
		inventoryValue = inventoryValue.Add(amount(line.OnHandKg, line.UnitCost))
		if line.OnHandKg <= line.ReorderLevelKg {
			alerts = append(alerts, line)
		}
	}

	revenue := decimal.Zero
	incoming := make(map[domain.PaymentMethod]decimal.Decimal)
	fruitRevenue := make(map[string]decimal.Decimal)
	var fruitOrder []string
	for _, s := range filteredSales {
		v := amount(s.QuantityKg, s.UnitPrice)
		revenue = revenue.Add(v)
		incoming[s.PaymentMethod] = incoming[s.PaymentMethod].Add(v)
		if _, seen := fruitRevenue[s.Fruit]; !seen {
			fruitOrder = append(fruitOrder, s.Fruit)
		}
		fruitRevenue[s.Fruit] = fruitRevenue[s.Fruit].Add(v)
	}

	cost := decimal.Zero
	outgoing := make(map[domain.PaymentMethod]decimal.Decimal)
	for _, p := range filteredPurchases {
		v := amount(p.QuantityKg, p.UnitCost)
		cost = cost.Add(v)
		outgoing[p.PaymentMethod] = outgoing[p.PaymentMethod].Add(v)
	}

	receivables := decimal.Zero
	for _, s := range sales {
		if s.Status == domain.StatusPending {
			receivables = receivables.Add(amount(s.QuantityKg, s.UnitPrice))
		}
	}
	payables := decimal.Zero
	for _, p := range purchases {
		if p.Status == domain.StatusPending {
			payables = payables.Add(amount(p.QuantityKg, p.UnitCost))
		}
	}

	summary := Summary{
		Filter:               filter,
		TotalInventoryValue:  round2(inventoryValue),
		TotalRevenue:         round2(revenue),
		TotalProcurementCost: round2(cost),
		Receivables:          round2(receivables),
		Payables:             round2(payables),
		ReorderAlerts:        alerts,
		Suggestions:          reorder.Suggestions(inventory),
	}
	summary.GrossProfit = round2(decimal.NewFromFloat(summary.TotalRevenue).Sub(decimal.NewFromFloat(summary.TotalProcurementCost)))
	if summary.TotalInventoryValue != 0 {
		turnover := round2(decimal.NewFromFloat(summary.TotalRevenue).Div(decimal.NewFromFloat(summary.TotalInventoryValue)))
		summary.InventoryTurnover = &turnover
	}

	for _, method := range domain.SettlementMethods {
		in, out := incoming[method], outgoing[method]
		summary.PaymentBreakdown = append(summary.PaymentBreakdown, PaymentBreakdown{
			Method:   method,
			Incoming: round2(in),
			Outgoing: round2(out),
			Net:      round2(in.Sub(out)),
		})
	}

	for _, fruit := range fruitOrder {
		summary.TopSellingFruits = append(summary.TopSellingFruits, FruitRevenue{Fruit: fruit, Revenue: round2(fruitRevenue[fruit])})
	}
	slices.SortStableFunc(summary.TopSellingFruits, func(a, b FruitRevenue) int {
		switch {
		case a.Revenue > b.Revenue:
			return -1
		case a.Revenue < b.Revenue:
			return 1
		}
		return 0
	})
	if len(summary.TopSellingFruits) > topSellingLimit {
		summary.TopSellingFruits = summary.TopSellingFruits[:topSellingLimit]
	}
	return summary
}
