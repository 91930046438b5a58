package domain

const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleCashier = "cashier"
	RoleAuditor = "auditor"
)

const (
	PermProcurementWrite    = "procurement.write"
	PermSalesWrite          = "sales.write"
	PermInventoryWrite      = "inventory.write"
	PermFinanceWrite        = "finance.write"
	PermSwitchStore         = "org.switch-store"
	PermMasterWrite         = "master.write"
	PermProcurementApproval = "procurement.approval"
	PermSalesApproval       = "sales.approval"
	PermInventoryAdjust     = "inventory.adjust"
	PermFinanceRisk         = "finance.risk"
	PermAuditRead           = "audit.read"
	PermSystemManage        = "system.manage"
)

type UnitConversion struct {
	FromUnit string  `json:"fromUnit"`
	ToUnit   string  `json:"toUnit"`
	Factor   float64 `json:"factor"`
}

type PriceStrategy struct {
	Base     float64 `json:"base"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
	Note     string  `json:"note,omitempty"`
}

type ProductMaster struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	Barcode     string           `json:"barcode"`
	Spec        string           `json:"spec"`
	Unit        string           `json:"unit"`
	Conversions []UnitConversion `json:"conversions"`
	TaxRate     float64          `json:"taxRate"`
	Pricing     PriceStrategy    `json:"pricing"`
	Tags        []string         `json:"tags"`
	Status      string           `json:"status"`
}

type PartnerProfile struct {
	ID                string        `json:"id"`
	Type              string        `json:"type"`
	Name              string        `json:"name"`
	Contact           string        `json:"contact"`
	Phone             string        `json:"phone"`
	CreditScore       int           `json:"creditScore,omitempty"`
	PaymentTermDays   int           `json:"paymentTermDays,omitempty"`
	SettlementMethod  PaymentMethod `json:"settlementMethod"`
	OutstandingAmount float64       `json:"outstandingAmount"`
	TotalVolumeKg     float64       `json:"totalVolumeKg"`
	Preferred         bool          `json:"preferred"`
	HistoryNotes      string        `json:"historyNotes"`
}

const (
	PartnerSupplier = "supplier"
	PartnerCustomer = "customer"
)

type WarehouseZone struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	CapacityKg float64 `json:"capacityKg"`
	Priority   int     `json:"priority"`
}

type WarehouseProfile struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	City               string          `json:"city"`
	Code               string          `json:"code"`
	TemperatureControl bool            `json:"temperatureControl"`
	Zones              []WarehouseZone `json:"zones"`
	TransferPaths      []string        `json:"transferPaths"`
}

type PurchaseOrderStatus string

// PurchaseOrderFlow is the ordered lifecycle of an enterprise purchase order.
var PurchaseOrderFlow = []PurchaseOrderStatus{"draft", "approved", "ordered", "receiving", "stored", "reconciled", "paid"}

type OrderTimelineEvent struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Actor  string `json:"actor"`
	Time   string `json:"time"`
	Notes  string `json:"notes,omitempty"`
}

type PurchaseOrderLine struct {
	ProductID  string  `json:"productId"`
	Fruit      string  `json:"fruit"`
	Spec       string  `json:"spec"`
	QuantityKg float64 `json:"quantityKg"`
	UnitCost   float64 `json:"unitCost"`
	TaxRate    float64 `json:"taxRate"`
}

type PurchaseOrder struct {
	ID              string               `json:"id"`
	StoreID         string               `json:"storeId"`
	SupplierID      string               `json:"supplierId"`
	Status          PurchaseOrderStatus  `json:"status"`
	TotalAmount     float64              `json:"totalAmount"`
	ExpectedDate    string               `json:"expectedDate"`
	PaymentTermDays int                  `json:"paymentTermDays"`
	ApprovalNeeded  bool                 `json:"approvalNeeded"`
	Lines           []PurchaseOrderLine  `json:"lines"`
	Timeline        []OrderTimelineEvent `json:"timeline"`
}

type InboundShipment struct {
	ID         string  `json:"id"`
	POID       string  `json:"poId"`
	Date       string  `json:"date"`
	QuantityKg float64 `json:"quantityKg"`
	AcceptedKg float64 `json:"acceptedKg"`
	DamagedKg  float64 `json:"damagedKg"`
	Status     string  `json:"status"`
}

type PromotionRule struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Scope          []string `json:"scope"`
	Condition      string   `json:"condition"`
	Benefit        string   `json:"benefit"`
	ApprovalStatus string   `json:"approvalStatus"`
	Active         bool     `json:"active"`
}

type ChannelConfig struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	SettlementDays int     `json:"settlementDays"`
	FeeRate        float64 `json:"feeRate"`
	SplitMode      string  `json:"splitMode"`
}

const BatchNormal = "normal"

type InventoryBatch struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"productId"`
	WarehouseID     string  `json:"warehouseId"`
	LotNo           string  `json:"lotNo"`
	ManufactureDate string  `json:"manufactureDate"`
	ExpiryDate      string  `json:"expiryDate"`
	QuantityKg      float64 `json:"quantityKg"`
	Status          string  `json:"status"`
}

type TransferRequest struct {
	ID              string  `json:"id"`
	FromWarehouseID string  `json:"fromWarehouseId"`
	ToWarehouseID   string  `json:"toWarehouseId"`
	ProductID       string  `json:"productId"`
	QuantityKg      float64 `json:"quantityKg"`
	Status          string  `json:"status"`
	Approver        string  `json:"approver"`
}

type AgingBucket struct {
	Bucket      string  `json:"bucket"`
	Receivables float64 `json:"receivables"`
	Payables    float64 `json:"payables"`
}

type CashForecastEntry struct {
	Date    string  `json:"date"`
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
	Notes   string  `json:"notes"`
}

type RoleMatrixEntry struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	DataDomains []string `json:"dataDomains"`
}

type ApprovalStep struct {
	ID        string  `json:"id"`
	Role      string  `json:"role"`
	Threshold float64 `json:"threshold"`
}

type ApprovalFlow struct {
	ID           string         `json:"id"`
	DocumentType string         `json:"documentType"`
	Steps        []ApprovalStep `json:"steps"`
	LastUpdated  string         `json:"lastUpdated"`
}

// ApprovalFlowPatch carries the fields of an approval flow to overwrite; nil fields are kept.
type ApprovalFlowPatch struct {
	DocumentType *string        `json:"documentType,omitempty"`
	Steps        []ApprovalStep `json:"steps,omitempty"`
	LastUpdated  *string        `json:"lastUpdated,omitempty"`
}

type AuditLogEntry struct {
	ID     string `json:"id"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Entity string `json:"entity"`
	At     string `json:"at"`
	IP     string `json:"ip"`
}

type IntegrationEndpoint struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Target string `json:"target"`
	Secret string `json:"secret"`
	Status string `json:"status"`
}

type AutomationTask struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Schedule string  `json:"schedule"`
	Channel  string  `json:"channel"`
	Enabled  bool    `json:"enabled"`
	LastRun  *string `json:"lastRun"`
}

type UserAccount struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Status   string `json:"status"`
}

// EnterpriseSnapshot bundles every master-data collection in one payload.
type EnterpriseSnapshot struct {
	Products       []ProductMaster       `json:"products"`
	Partners       []PartnerProfile      `json:"partners"`
	Warehouses     []WarehouseProfile    `json:"warehouses"`
	PurchaseOrders []PurchaseOrder       `json:"purchaseOrders"`
	Shipments      []InboundShipment     `json:"shipments"`
	Invoices       []PurchaseInvoice     `json:"invoices"`
	Quotes         []SalesQuote          `json:"quotes"`
	Contracts      []SalesContract       `json:"contracts"`
	Promotions     []PromotionRule       `json:"promotions"`
	ChannelConfigs []ChannelConfig       `json:"channelConfigs"`
	Batches        []InventoryBatch      `json:"batches"`
	Adjustments    []StockAdjustment     `json:"adjustments"`
	Transfers      []TransferRequest     `json:"transfers"`
	Aging          []AgingBucket         `json:"aging"`
	CashForecast   []CashForecastEntry   `json:"cashForecast"`
	RoleMatrix     []RoleMatrixEntry     `json:"roleMatrix"`
	ApprovalFlows  []ApprovalFlow        `json:"approvalFlows"`
	AuditLogs      []AuditLogEntry       `json:"auditLogs"`
	Integrations   []IntegrationEndpoint `json:"integrations"`
	Automations    []AutomationTask      `json:"automations"`
	Parameters     []ParameterConfig     `json:"parameters"`
	Users          []UserAccount         `json:"users,omitempty"`
}
