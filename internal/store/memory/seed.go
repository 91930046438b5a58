package memory

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"gopkg.in/yaml.v3"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/store"
)

//go:embed seed.yaml
var seedFixture []byte

const (
	seedPurchaseCount = 120
	seedSaleCount     = 300
	seedQuoteCount    = 20
	seedInvoiceCount  = 40

	defaultFakerSeed uint64 = 20251101
)

type fixture struct {
	Stores         []domain.StoreProfile        `json:"stores"`
	Products       []domain.ProductMaster       `json:"products"`
	Partners       []domain.PartnerProfile      `json:"partners"`
	RoleMatrix     []domain.RoleMatrixEntry     `json:"roleMatrix"`
	ApprovalFlows  []domain.ApprovalFlow        `json:"approvalFlows"`
	Integrations   []domain.IntegrationEndpoint `json:"integrations"`
	Automations    []domain.AutomationTask      `json:"automations"`
	AuditLogs      []domain.AuditLogEntry       `json:"auditLogs"`
	Batches        []domain.InventoryBatch      `json:"batches"`
	Transfers      []domain.TransferRequest     `json:"transfers"`
	Contracts      []domain.SalesContract       `json:"contracts"`
	Promotions     []domain.PromotionRule       `json:"promotions"`
	ChannelConfigs []domain.ChannelConfig       `json:"channelConfigs"`
	Aging          []domain.AgingBucket         `json:"aging"`
	Parameters     []domain.ParameterConfig     `json:"parameters"`
	Users          []domain.BackendUser         `json:"users"`
	Members        []domain.Member              `json:"members"`
}

// loadFixture decodes the YAML fixture through JSON so the domain types only
// need one set of field tags.
func loadFixture(raw []byte) (fixture, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fixture{}, fmt.Errorf("parse seed fixture: %w", err)
	}
	encoded, err := json.Marshal(generic)
	if err != nil {
		return fixture{}, fmt.Errorf("encode seed fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(encoded, &fx); err != nil {
		return fixture{}, fmt.Errorf("decode seed fixture: %w", err)
	}
	return fx, nil
}

// buildSeed produces the full initial state. Generated rows come from a
// seeded faker so the same seed and clock always yield the same state.
func buildSeed(now time.Time, fakerSeed uint64) (State, error) {
	fx, err := loadFixture(seedFixture)
	if err != nil {
		return State{}, err
	}

	nowISO := store.ISOTime(now)
	for i := range fx.ApprovalFlows {
		if fx.ApprovalFlows[i].LastUpdated == "" {
			fx.ApprovalFlows[i].LastUpdated = nowISO
		}
	}
	for i := range fx.AuditLogs {
		if fx.AuditLogs[i].At == "" {
			fx.AuditLogs[i].At = nowISO
		}
	}
	for i := range fx.Automations {
		if run := fx.Automations[i].LastRun; run != nil && *run == "" {
			stamp := nowISO
			fx.Automations[i].LastRun = &stamp
		}
	}
	for i := range fx.Members {
		if fx.Members[i].JoinDate == "" {
			fx.Members[i].JoinDate = store.ISODate(now.AddDate(0, -6, 0))
		}
	}

	faker := gofakeit.New(fakerSeed)
	purchases := generatePurchases(faker, now, fx)
	sales := generateSales(faker, now, fx)

	state := State{
		Purchases:      purchases,
		Sales:          sales,
		Inventory:      buildInventory(purchases, sales),
		Quotes:         buildQuotes(sales),
		Invoices:       buildInvoices(purchases),
		Adjustments:    []domain.StockAdjustment{},
		Parameters:     fx.Parameters,
		Users:          fx.Users,
		Stores:         fx.Stores,
		Batches:        fx.Batches,
		Transfers:      fx.Transfers,
		Contracts:      fx.Contracts,
		Promotions:     fx.Promotions,
		ChannelConfigs: fx.ChannelConfigs,
		Aging:          fx.Aging,
		Products:       fx.Products,
		Partners:       fx.Partners,
		RoleMatrix:     fx.RoleMatrix,
		ApprovalFlows:  fx.ApprovalFlows,
		Integrations:   fx.Integrations,
		Automations:    fx.Automations,
		AuditLogs:      fx.AuditLogs,
		Members:        fx.Members,
	}
	return state, nil
}

func randomDate(faker *gofakeit.Faker, now time.Time, daysBack int) string {
	return store.ISODate(now.AddDate(0, 0, -faker.Number(0, daysBack-1)))
}

func firstPartner(partners []domain.PartnerProfile, kind string, fallback int) domain.PartnerProfile {
	for _, p := range partners {
		if p.Type == kind {
			return p
		}
	}
	if fallback < len(partners) {
		return partners[fallback]
	}
	return domain.PartnerProfile{}
}

func generatePurchases(faker *gofakeit.Faker, now time.Time, fx fixture) []domain.Purchase {
	supplier := firstPartner(fx.Partners, domain.PartnerSupplier, 0)
	purchases := make([]domain.Purchase, 0, seedPurchaseCount)
	for i := 0; i < seedPurchaseCount; i++ {
		product := fx.Products[i%len(fx.Products)]
		method := domain.PaymentMobile
		if i%3 == 0 {
			method = domain.PaymentTransfer
		}
		status := domain.StatusSettled
		if i%5 == 0 {
			status = domain.StatusPending
		}
		purchases = append(purchases, domain.Purchase{
			ID:            fmt.Sprintf("po-%d", 1000+i),
			StoreID:       fx.Stores[i%len(fx.Stores)].ID,
			Date:          randomDate(faker, now, 90),
			Supplier:      supplier.Name,
			SupplierID:    supplier.ID,
			Fruit:         product.Name,
			ProductID:     product.ID,
			QuantityKg:    float64(60 + faker.Number(0, 200)),
			UnitCost:      product.Pricing.Base * 0.6,
			PaymentMethod: method,
			Status:        status,
		})
	}
	slices.SortStableFunc(purchases, func(a, b domain.Purchase) int {
		return strings.Compare(b.Date, a.Date)
	})
	return purchases
}

func generateSales(faker *gofakeit.Faker, now time.Time, fx fixture) []domain.Sale {
	customer := firstPartner(fx.Partners, domain.PartnerCustomer, 2)
	sales := make([]domain.Sale, 0, seedSaleCount)
	for i := 0; i < seedSaleCount; i++ {
		product := fx.Products[(i+1)%len(fx.Products)]
		channel := "零售"
		if i%2 == 0 {
			channel = "批发"
		}
		method := domain.PaymentCash
		switch {
		case i%4 == 0:
			method = domain.PaymentCard
		case i%2 == 0:
			method = domain.PaymentMobile
		}
		status := domain.StatusSettled
		if i%6 == 0 {
			status = domain.StatusPending
		}
		sales = append(sales, domain.Sale{
			ID:            fmt.Sprintf("so-%d", 2000+i),
			StoreID:       fx.Stores[i%len(fx.Stores)].ID,
			Date:          randomDate(faker, now, 60),
			Customer:      customer.Name,
			CustomerID:    customer.ID,
			Channel:       channel,
			Fruit:         product.Name,
			ProductID:     product.ID,
			QuantityKg:    float64(5 + faker.Number(0, 50)),
			UnitPrice:     product.Pricing.Base,
			PaymentMethod: method,
			Status:        status,
		})
	}
	slices.SortStableFunc(sales, func(a, b domain.Sale) int {
		return strings.Compare(b.Date, a.Date)
	})
	return sales
}

func buildInventory(purchases []domain.Purchase, sales []domain.Sale) []domain.InventoryItem {
	inventory := make([]domain.InventoryItem, 0, 16)
	for _, p := range purchases {
		inventory = applyPurchase(inventory, p)
	}
	for _, s := range sales {
		applySale(inventory, s)
	}
	return inventory
}

func buildQuotes(sales []domain.Sale) []domain.SalesQuote {
	n := min(seedQuoteCount, len(sales))
	quotes := make([]domain.SalesQuote, 0, n)
	for i, sale := range sales[:n] {
		status := domain.QuoteDraft
		switch {
		case i%3 == 0:
			status = domain.QuoteAccepted
		case i%2 == 0:
			status = domain.QuoteSent
		}
		discountPercent, discountRate := 0.0, 0.0
		if i%2 == 0 {
			discountPercent, discountRate = 5, 0.05
		}
		customerID := sale.CustomerID
		if customerID == "" {
			customerID = "cust-1"
		}
		quotes = append(quotes, domain.SalesQuote{
			ID:           fmt.Sprintf("quote-%d", i),
			SalesOrderID: sale.ID,
			CustomerID:   customerID,
			Channel:      sale.Channel,
			Status:       status,
			Version:      i + 1,
			ValidFrom:    sale.Date,
			ValidTo:      fmt.Sprintf("2025-12-%02d", 5+i%20),
			TotalAmount:  lineAmount(sale.QuantityKg, sale.UnitPrice),
			Lines: []domain.QuoteLine{{
				ProductID:       sale.Fruit,
				QuantityKg:      sale.QuantityKg,
				UnitPrice:       sale.UnitPrice,
				DiscountPercent: discountPercent,
			}},
			Remarks:      "系统自动生成报价",
			DiscountRate: discountRate,
		})
	}
	return quotes
}

func buildInvoices(purchases []domain.Purchase) []domain.PurchaseInvoice {
	n := min(seedInvoiceCount, len(purchases))
	invoices := make([]domain.PurchaseInvoice, 0, n)
	for i, p := range purchases[:n] {
		status := domain.InvoiceMatched
		switch {
		case i%5 == 0:
			status = domain.InvoiceOverdue
		case i%3 == 0:
			status = domain.InvoicePending
		}
		amount := lineAmount(p.QuantityKg, p.UnitCost)
		invoices = append(invoices, domain.PurchaseInvoice{
			ID:        fmt.Sprintf("inv-%d", i),
			POID:      p.ID,
			StoreID:   p.StoreID,
			Amount:    amount,
			TaxAmount: roundTo(amount*0.09, 2),
			DueDate:   fmt.Sprintf("2025-12-%02d", 10+i%20),
			Status:    status,
		})
	}
	return invoices
}
