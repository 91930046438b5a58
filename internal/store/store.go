package store

import (
	"context"
	"errors"
	"time"

	"fruitshop/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrUsernameTaken      = errors.New("username already exists")
)

// Storage keys shared by the local backend and the client-side stores.
const (
	BackendStateKey    = "fruitshop-backend-state-v2"
	SessionKey         = "fruitshop-auth"
	EnterpriseStateKey = "fruitshop-enterprise-state"
)

// Backend is the full operation set of the simulated backend. Lookups by an
// unknown id are not errors: they return a nil record.
type Backend interface {
	Login(ctx context.Context, username string, password string) (domain.LoginResponse, error)
	Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error)
	ListPurchases(ctx context.Context, storeID string) ([]domain.Purchase, error)
	ListSales(ctx context.Context, storeID string) ([]domain.Sale, error)
	ListInventory(ctx context.Context, storeID string) ([]domain.InventoryItem, error)
	CreatePurchase(ctx context.Context, storeID string, draft domain.PurchaseDraft) (domain.Purchase, error)
	CreateSale(ctx context.Context, storeID string, draft domain.SaleDraft) (domain.Sale, error)
	SettlePurchase(ctx context.Context, id string) (*domain.Purchase, error)
	SettleSale(ctx context.Context, id string) (*domain.Sale, error)
	UpdateReorderLevel(ctx context.Context, inventoryID string, level float64) (*domain.InventoryItem, error)
	CreateAdjustment(ctx context.Context, inventoryID string, reason string, deltaKg float64, operator string) (domain.StockAdjustment, error)
	ListInvoices(ctx context.Context, storeID string) ([]domain.PurchaseInvoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, status domain.InvoiceStatus) (*domain.PurchaseInvoice, error)
	UpdateParameter(ctx context.Context, key string, value string) (*domain.ParameterConfig, error)
	SearchMembers(ctx context.Context, keyword string) ([]domain.Member, error)
	GetMember(ctx context.Context, id string) (*domain.Member, error)
	ListQuotesBySale(ctx context.Context, saleID string) ([]domain.SalesQuote, error)
	CreateQuote(ctx context.Context, saleID string, req domain.QuoteRequest) (domain.SalesQuote, error)
	UpdateQuoteStatus(ctx context.Context, id string, status domain.QuoteStatus) (*domain.SalesQuote, error)
	EnterpriseSnapshot(ctx context.Context) (domain.EnterpriseSnapshot, error)
}

// ISODate renders the calendar date part used by every record date field.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ISOTime renders a UTC timestamp with millisecond precision.
func ISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
