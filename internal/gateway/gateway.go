// Package gateway is the single entry point the client-side stores use for
// backend data. With a remote base URL configured every call is tried against
// the REST backend first; any remote failure, or the absence of a remote,
// sends the call to the local store instead.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/store"
)

const (
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 8 << 20
)

// TokenSource supplies the bearer token attached to remote requests.
type TokenSource interface {
	Token() string
}

type Option func(*Gateway)

// WithRemote enables the remote branch. An empty base URL leaves it disabled.
func WithRemote(baseURL string, timeout time.Duration) Option {
	return func(g *Gateway) {
		g.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if timeout > 0 {
			g.client.Timeout = timeout
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.client = client
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(g *Gateway) { g.tokens = ts }
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

type Gateway struct {
	local   store.Backend
	baseURL string
	client  *http.Client
	tokens  TokenSource
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

func New(local store.Backend, opts ...Option) *Gateway {
	g := &Gateway{
		local:  local,
		client: &http.Client{Timeout: DefaultTimeout},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetTokenSource replaces the token source. It must be called before the
// gateway is shared between goroutines.
func (g *Gateway) SetTokenSource(ts TokenSource) {
	g.tokens = ts
}

// RemoteEnabled reports whether calls are tried against a remote backend.
func (g *Gateway) RemoteEnabled() bool {
	return g.baseURL != ""
}

// serve runs the remote branch when it is enabled and falls back to the local
// branch on any remote failure. Errors from the local branch are returned.
func serve[T any](ctx context.Context, g *Gateway, op string, remote, local func(context.Context) (T, error)) (T, error) {
	if !g.RemoteEnabled() {
		g.metrics.served(op, outcomeLocal)
		return local(ctx)
	}

	started := time.Now()
	result, err := remote(ctx)
	g.metrics.observe(op, started)
	if err == nil {
		g.metrics.served(op, outcomeRemote)
		return result, nil
	}

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		remoteErr = &RemoteError{Op: op, Err: err}
	}
	g.logger.Warn("remote request failed, falling back to local store",
		zap.String("op", op),
		zap.String("method", remoteErr.Method),
		zap.String("path", remoteErr.Path),
		zap.Int("status", remoteErr.StatusCode),
		zap.String("reason", remoteErr.Error()))
	g.metrics.fellBack(op, remoteErr.Reason())
	g.metrics.served(op, outcomeFallback)
	return local(ctx)
}

// do issues one remote request and returns the parsed payload.
func (g *Gateway) do(ctx context.Context, op, method, path string, body any) (Payload, error) {
	fail := func(status int, err error) (Payload, error) {
		return Payload{}, &RemoteError{Op: op, Method: method, Path: path, StatusCode: status, Err: err}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fail(0, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.tokens != nil {
		if token := g.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(0, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, errors.New(strings.TrimSpace(string(raw))))
	}

	payload, err := ParsePayload(raw)
	if err != nil {
		return fail(0, err)
	}
	if payload.Kind == PayloadEnveloped && payload.Message != "" {
		g.logger.Debug("remote response", zap.String("op", op), zap.String("message", payload.Message))
	}
	return payload, nil
}

// call issues a request and decodes the result content into T.
func call[T any](ctx context.Context, g *Gateway, op, method, path string, body any) (T, error) {
	var out T
	payload, err := g.do(ctx, op, method, path, body)
	if err != nil {
		return out, err
	}
	if err := payload.Decode(&out); err != nil {
		return out, &RemoteError{Op: op, Method: method, Path: path, Err: err}
	}
	return out, nil
}

func storePath(storeID, collection string) string {
	return "/stores/" + url.PathEscape(storeID) + "/" + collection
}

func (g *Gateway) Login(ctx context.Context, username, password string) (domain.LoginResponse, error) {
	return serve(ctx, g, "login",
		func(ctx context.Context) (domain.LoginResponse, error) {
			return call[domain.LoginResponse](ctx, g, "login", http.MethodPost, "/auth/login",
				domain.LoginRequest{Username: username, Password: password})
		},
		func(ctx context.Context) (domain.LoginResponse, error) {
			return g.local.Login(ctx, username, password)
		})
}

func (g *Gateway) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	return serve(ctx, g, "register",
		func(ctx context.Context) (domain.RegisterResponse, error) {
			return call[domain.RegisterResponse](ctx, g, "register", http.MethodPost, "/auth/register", req)
		},
		func(ctx context.Context) (domain.RegisterResponse, error) {
			return g.local.Register(ctx, req)
		})
}

func (g *Gateway) ListPurchases(ctx context.Context, storeID string) ([]domain.Purchase, error) {
	return serve(ctx, g, "list_purchases",
		func(ctx context.Context) ([]domain.Purchase, error) {
			orders, err := call[[]domain.RemotePurchaseOrder](ctx, g, "list_purchases", http.MethodGet, storePath(storeID, "purchases"), nil)
			if err != nil {
				return nil, err
			}
			now := g.now()
			out := make([]domain.Purchase, 0, len(orders))
			for _, order := range orders {
				out = append(out, mapPurchaseOrder(order, now))
			}
			return out, nil
		},
		func(ctx context.Context) ([]domain.Purchase, error) {
			return g.local.ListPurchases(ctx, storeID)
		})
}

func (g *Gateway) ListSales(ctx context.Context, storeID string) ([]domain.Sale, error) {
	return serve(ctx, g, "list_sales",
		func(ctx context.Context) ([]domain.Sale, error) {
			return call[[]domain.Sale](ctx, g, "list_sales", http.MethodGet, storePath(storeID, "sales"), nil)
		},
		func(ctx context.Context) ([]domain.Sale, error) {
			return g.local.ListSales(ctx, storeID)
		})
}

func (g *Gateway) ListInventory(ctx context.Context, storeID string) ([]domain.InventoryItem, error) {
	return serve(ctx, g, "list_inventory",
		func(ctx context.Context) ([]domain.InventoryItem, error) {
			items, err := call[[]domain.InventoryItem](ctx, g, "list_inventory", http.MethodGet, storePath(storeID, "inventory"), nil)
			if err != nil {
				return nil, err
			}
			return mapInventoryFromRemote(items), nil
		},
		func(ctx context.Context) ([]domain.InventoryItem, error) {
			return g.local.ListInventory(ctx, storeID)
		})
}

// CreatePurchase fails with store.ErrValidation before any I/O when the draft
// lacks a supplier id or a product id.
func (g *Gateway) CreatePurchase(ctx context.Context, storeID string, draft domain.PurchaseDraft) (domain.Purchase, error) {
	if err := validatePurchase(draft); err != nil {
		return domain.Purchase{}, err
	}
	return serve(ctx, g, "create_purchase",
		func(ctx context.Context) (domain.Purchase, error) {
			order, err := call[*domain.RemotePurchaseOrder](ctx, g, "create_purchase", http.MethodPost,
				storePath(storeID, "purchases"), buildPurchasePayload(draft))
			if err != nil {
				return domain.Purchase{}, err
			}
			if order == nil {
				return domain.Purchase{}, &RemoteError{Op: "create_purchase", Err: errors.New("empty purchase order")}
			}
			return mapPurchaseOrder(*order, g.now()), nil
		},
		func(ctx context.Context) (domain.Purchase, error) {
			return g.local.CreatePurchase(ctx, storeID, draft)
		})
}

func (g *Gateway) CreateSale(ctx context.Context, storeID string, draft domain.SaleDraft) (domain.Sale, error) {
	return serve(ctx, g, "create_sale",
		func(ctx context.Context) (domain.Sale, error) {
			return call[domain.Sale](ctx, g, "create_sale", http.MethodPost, storePath(storeID, "sales"), draft)
		},
		func(ctx context.Context) (domain.Sale, error) {
			return g.local.CreateSale(ctx, storeID, draft)
		})
}

func (g *Gateway) SettlePurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	return serve(ctx, g, "settle_purchase",
		func(ctx context.Context) (*domain.Purchase, error) {
			order, err := call[*domain.RemotePurchaseOrder](ctx, g, "settle_purchase", http.MethodPatch,
				"/purchases/"+url.PathEscape(id), domain.StatusUpdateRequest{Status: remotePaidStatus})
			if err != nil {
				return nil, err
			}
			if order == nil {
				return nil, &RemoteError{Op: "settle_purchase", Err: errors.New("empty purchase order")}
			}
			out := mapPurchaseOrder(*order, g.now())
			return &out, nil
		},
		func(ctx context.Context) (*domain.Purchase, error) {
			return g.local.SettlePurchase(ctx, id)
		})
}

func (g *Gateway) SettleSale(ctx context.Context, id string) (*domain.Sale, error) {
	return serve(ctx, g, "settle_sale",
		func(ctx context.Context) (*domain.Sale, error) {
			return call[*domain.Sale](ctx, g, "settle_sale", http.MethodPatch,
				"/sales/"+url.PathEscape(id)+"/settle", struct{}{})
		},
		func(ctx context.Context) (*domain.Sale, error) {
			return g.local.SettleSale(ctx, id)
		})
}

func (g *Gateway) UpdateReorderLevel(ctx context.Context, inventoryID string, level float64) (*domain.InventoryItem, error) {
	return serve(ctx, g, "update_reorder_level",
		func(ctx context.Context) (*domain.InventoryItem, error) {
			item, err := call[*domain.InventoryItem](ctx, g, "update_reorder_level", http.MethodPatch,
				"/inventory/"+url.PathEscape(inventoryID)+"/reorder-level", domain.ReorderLevelRequest{Level: level})
			if err != nil || item == nil {
				return item, err
			}
			mapped := mapInventoryFromRemote([]domain.InventoryItem{*item})[0]
			return &mapped, nil
		},
		func(ctx context.Context) (*domain.InventoryItem, error) {
			return g.local.UpdateReorderLevel(ctx, inventoryID, level)
		})
}

// CreateAdjustment returns the adjustment in the remote shape on both branches.
func (g *Gateway) CreateAdjustment(ctx context.Context, inventoryID string, req domain.AdjustmentRequest) (domain.RemoteAdjustment, error) {
	return serve(ctx, g, "create_adjustment",
		func(ctx context.Context) (domain.RemoteAdjustment, error) {
			return call[domain.RemoteAdjustment](ctx, g, "create_adjustment", http.MethodPost,
				"/inventory/"+url.PathEscape(inventoryID)+"/adjustments", req)
		},
		func(ctx context.Context) (domain.RemoteAdjustment, error) {
			record, err := g.local.CreateAdjustment(ctx, inventoryID, req.Reason, req.DeltaKg, req.CreatedBy)
			if err != nil {
				return domain.RemoteAdjustment{}, err
			}
			return AdjustmentToRemote(record), nil
		})
}

func (g *Gateway) ListInvoices(ctx context.Context, storeID string) ([]domain.RemoteInvoice, error) {
	return serve(ctx, g, "list_invoices",
		func(ctx context.Context) ([]domain.RemoteInvoice, error) {
			return call[[]domain.RemoteInvoice](ctx, g, "list_invoices", http.MethodGet, storePath(storeID, "invoices"), nil)
		},
		func(ctx context.Context) ([]domain.RemoteInvoice, error) {
			invoices, err := g.local.ListInvoices(ctx, storeID)
			if err != nil {
				return nil, err
			}
			out := make([]domain.RemoteInvoice, 0, len(invoices))
			for _, inv := range invoices {
				out = append(out, InvoiceToRemote(inv, storeID))
			}
			return out, nil
		})
}

// localInvoiceStore is reported for a local invoice whose store is still unknown after backfill.
const localInvoiceStore = "store"

func (g *Gateway) UpdateInvoiceStatus(ctx context.Context, id string, status domain.InvoiceStatus) (*domain.RemoteInvoice, error) {
	return serve(ctx, g, "update_invoice_status",
		func(ctx context.Context) (*domain.RemoteInvoice, error) {
			return call[*domain.RemoteInvoice](ctx, g, "update_invoice_status", http.MethodPatch,
				"/invoices/"+url.PathEscape(id), domain.StatusUpdateRequest{Status: string(status)})
		},
		func(ctx context.Context) (*domain.RemoteInvoice, error) {
			inv, err := g.local.UpdateInvoiceStatus(ctx, id, status)
			if err != nil || inv == nil {
				return nil, err
			}
			out := InvoiceToRemote(*inv, localInvoiceStore)
			return &out, nil
		})
}

func (g *Gateway) UpdateSystemParameter(ctx context.Context, key, value string) (domain.RemoteParameter, error) {
	return serve(ctx, g, "update_parameter",
		func(ctx context.Context) (domain.RemoteParameter, error) {
			return call[domain.RemoteParameter](ctx, g, "update_parameter", http.MethodPut,
				"/system/parameters/"+url.PathEscape(key), domain.ParameterValueRequest{Value: value})
		},
		func(ctx context.Context) (domain.RemoteParameter, error) {
			param, err := g.local.UpdateParameter(ctx, key, value)
			if err != nil {
				return domain.RemoteParameter{}, err
			}
			return ParameterToRemote(param, key, value), nil
		})
}

func (g *Gateway) SearchMembers(ctx context.Context, keyword string) ([]domain.Member, error) {
	return serve(ctx, g, "search_members",
		func(ctx context.Context) ([]domain.Member, error) {
			query := url.Values{"keyword": []string{keyword}}
			return call[[]domain.Member](ctx, g, "search_members", http.MethodGet, "/members/search?"+query.Encode(), nil)
		},
		func(ctx context.Context) ([]domain.Member, error) {
			return g.local.SearchMembers(ctx, keyword)
		})
}

func (g *Gateway) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	return serve(ctx, g, "get_member",
		func(ctx context.Context) (*domain.Member, error) {
			return call[*domain.Member](ctx, g, "get_member", http.MethodGet, "/members/"+url.PathEscape(id), nil)
		},
		func(ctx context.Context) (*domain.Member, error) {
			return g.local.GetMember(ctx, id)
		})
}

func (g *Gateway) FetchEnterpriseSnapshot(ctx context.Context) (domain.EnterpriseSnapshot, error) {
	return serve(ctx, g, "enterprise_snapshot",
		func(ctx context.Context) (domain.EnterpriseSnapshot, error) {
			return call[domain.EnterpriseSnapshot](ctx, g, "enterprise_snapshot", http.MethodGet, "/enterprise/snapshot", nil)
		},
		func(ctx context.Context) (domain.EnterpriseSnapshot, error) {
			return g.local.EnterpriseSnapshot(ctx)
		})
}
