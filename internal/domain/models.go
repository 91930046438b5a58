package domain

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentMobile   PaymentMethod = "mobile"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentBalance  PaymentMethod = "balance"
	PaymentPoints   PaymentMethod = "points"
)

// SettlementMethods are the payment methods reported in the payment breakdown.
var SettlementMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentMobile, PaymentTransfer}

type SettlementStatus string

const (
	StatusPending SettlementStatus = "pending"
	StatusSettled SettlementStatus = "settled"
)

type StoreProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
	Code string `json:"code"`
}

type Purchase struct {
	ID            string           `json:"id"`
	StoreID       string           `json:"storeId"`
	Date          string           `json:"date"`
	Supplier      string           `json:"supplier"`
	SupplierID    string           `json:"supplierId,omitempty"`
	Fruit         string           `json:"fruit"`
	ProductID     string           `json:"productId,omitempty"`
	QuantityKg    float64          `json:"quantityKg"`
	UnitCost      float64          `json:"unitCost"`
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	Status        SettlementStatus `json:"status"`
	ETA           string           `json:"eta,omitempty"`
	BatchRequired bool             `json:"batchRequired,omitempty"`
}

// PurchaseDraft is a purchase before the backend assigns it an id and store.
type PurchaseDraft struct {
	Date          string           `json:"date"`
	Supplier      string           `json:"supplier"`
	SupplierID    string           `json:"supplierId,omitempty" validate:"required"`
	Fruit         string           `json:"fruit"`
	ProductID     string           `json:"productId,omitempty" validate:"required"`
	QuantityKg    float64          `json:"quantityKg" validate:"gte=0"`
	UnitCost      float64          `json:"unitCost" validate:"gte=0"`
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	Status        SettlementStatus `json:"status,omitempty"`
	ETA           string           `json:"eta,omitempty"`
	BatchRequired bool             `json:"batchRequired,omitempty"`
}

func (d PurchaseDraft) Purchase(id, storeID string) Purchase {
	status := d.Status
	if status == "" {
		status = StatusPending
	}
	return Purchase{
		ID:            id,
		StoreID:       storeID,
		Date:          d.Date,
		Supplier:      d.Supplier,
		SupplierID:    d.SupplierID,
		Fruit:         d.Fruit,
		ProductID:     d.ProductID,
		QuantityKg:    d.QuantityKg,
		UnitCost:      d.UnitCost,
		PaymentMethod: d.PaymentMethod,
		Status:        status,
		ETA:           d.ETA,
		BatchRequired: d.BatchRequired,
	}
}

type Sale struct {
	ID            string           `json:"id"`
	StoreID       string           `json:"storeId"`
	Date          string           `json:"date"`
	Customer      string           `json:"customer"`
	CustomerID    string           `json:"customerId,omitempty"`
	Channel       string           `json:"channel,omitempty"`
	Fruit         string           `json:"fruit"`
	ProductID     string           `json:"productId,omitempty"`
	QuantityKg    float64          `json:"quantityKg"`
	UnitPrice     float64          `json:"unitPrice"`
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	Status        SettlementStatus `json:"status"`
}

type SaleDraft struct {
	Date          string           `json:"date"`
	Customer      string           `json:"customer"`
	CustomerID    string           `json:"customerId,omitempty"`
	Channel       string           `json:"channel,omitempty"`
	Fruit         string           `json:"fruit"`
	ProductID     string           `json:"productId,omitempty"`
	QuantityKg    float64          `json:"quantityKg" validate:"gte=0"`
	UnitPrice     float64          `json:"unitPrice" validate:"gte=0"`
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	Status        SettlementStatus `json:"status,omitempty"`
}

func (d SaleDraft) Sale(id, storeID string) Sale {
	status := d.Status
	if status == "" {
		status = StatusPending
	}
	return Sale{
		ID:            id,
		StoreID:       storeID,
		Date:          d.Date,
		Customer:      d.Customer,
		CustomerID:    d.CustomerID,
		Channel:       d.Channel,
		Fruit:         d.Fruit,
		ProductID:     d.ProductID,
		QuantityKg:    d.QuantityKg,
		UnitPrice:     d.UnitPrice,
		PaymentMethod: d.PaymentMethod,
		Status:        status,
	}
}

// InventoryItem is keyed by store and fruit name. OnHandKg never goes below zero.
type InventoryItem struct {
	ID             string   `json:"id,omitempty"`
	StoreID        string   `json:"storeId"`
	Fruit          string   `json:"fruit"`
	ProductID      string   `json:"productId,omitempty"`
	OnHandKg       float64  `json:"onHandKg"`
	UnitCost       float64  `json:"unitCost"`
	ReorderLevelKg float64  `json:"reorderLevelKg"`
	UnitPrice      float64  `json:"unitPrice"`
	AvailableKg    *float64 `json:"availableKg,omitempty"`
	ReservedKg     *float64 `json:"reservedKg,omitempty"`
}

type StockAdjustment struct {
	ID          string   `json:"id"`
	WarehouseID string   `json:"warehouseId"`
	ProductID   string   `json:"productId"`
	Reason      string   `json:"reason"`
	BeforeQty   float64  `json:"beforeQty"`
	AfterQty    float64  `json:"afterQty"`
	Operator    string   `json:"operator"`
	Time        string   `json:"time"`
	InventoryID string   `json:"inventoryId,omitempty"`
	DeltaKg     *float64 `json:"deltaKg,omitempty"`
}

type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoiceMatched InvoiceStatus = "matched"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

type PurchaseInvoice struct {
	ID           string        `json:"id"`
	POID         string        `json:"poId"`
	StoreID      string        `json:"storeId,omitempty"`
	SalesOrderID string        `json:"salesOrderId,omitempty"`
	Amount       float64       `json:"amount"`
	TaxAmount    float64       `json:"taxAmount"`
	DueDate      string        `json:"dueDate"`
	Status       InvoiceStatus `json:"status"`
}

type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
	QuoteExpired  QuoteStatus = "expired"
)

var QuoteStatuses = []QuoteStatus{QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected, QuoteExpired}

type QuoteLine struct {
	ProductID       string  `json:"productId"`
	QuantityKg      float64 `json:"quantityKg"`
	UnitPrice       float64 `json:"unitPrice"`
	DiscountPercent float64 `json:"discountPercent"`
}

type SalesQuote struct {
	ID           string      `json:"id"`
	SalesOrderID string      `json:"salesOrderId"`
	CustomerID   string      `json:"customerId"`
	Channel      string      `json:"channel"`
	Status       QuoteStatus `json:"status"`
	Version      int         `json:"version"`
	ValidFrom    string      `json:"validFrom"`
	ValidTo      string      `json:"validTo"`
	TotalAmount  float64     `json:"totalAmount"`
	Lines        []QuoteLine `json:"lines"`
	Remarks      string      `json:"remarks,omitempty"`
	DiscountRate float64     `json:"discountRate"`
}

type QuoteRequest struct {
	ValidUntil   string  `json:"validUntil" validate:"required"`
	DiscountRate float64 `json:"discountRate" validate:"gte=0,lte=1"`
	Remarks      string  `json:"remarks,omitempty"`
}

type SalesContract struct {
	ID               string        `json:"id"`
	QuoteID          string        `json:"quoteId"`
	CustomerID       string        `json:"customerId"`
	Channel          string        `json:"channel"`
	RatePlan         string        `json:"ratePlan"`
	StartDate        string        `json:"startDate"`
	EndDate          string        `json:"endDate"`
	SettlementMethod PaymentMethod `json:"settlementMethod"`
	Status           string        `json:"status"`
}

type ParameterConfig struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type Member struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Balance    float64 `json:"balance"`
	Points     float64 `json:"points"`
	Level      int     `json:"level"`
	Tier       string  `json:"tier,omitempty"`
	TotalSpend float64 `json:"totalSpend"`
	JoinDate   string  `json:"joinDate"`
}
