package gateway

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/idtranslate"
	"fruitshop/backend/internal/store"
)

const (
	mixedFruit       = "多品类"
	unknownOrderID   = "unknown"
	remotePaidStatus = "paid"
)

// mapPurchaseOrder converts a remote purchase order into the local purchase
// shape. Missing fields are replaced with defaults instead of being rejected.
func mapPurchaseOrder(order domain.RemotePurchaseOrder, now time.Time) domain.Purchase {
	var primary *domain.RemotePurchaseLine
	if len(order.Lines) > 0 {
		primary = &order.Lines[0]
	}

	totalQty := 0.0
	for _, line := range order.Lines {
		totalQty += line.QuantityKg
	}

	stamp := store.ISOTime(now)
	switch {
	case len(order.Timeline) > 0 && order.Timeline[0].Time != "":
		stamp = order.Timeline[0].Time
	case order.ExpectedDate != "":
		stamp = order.ExpectedDate
	}
	date := stamp
	if len(date) > 10 {
		date = date[:10]
	}

	supplierID := idtranslate.PartnerToFrontend(order.SupplierID)
	out := domain.Purchase{
		ID:            order.ID,
		StoreID:       order.StoreID,
		Date:          date,
		Supplier:      supplierID,
		SupplierID:    supplierID,
		Fruit:         mixedFruit,
		PaymentMethod: domain.PaymentTransfer,
		Status:        domain.StatusPending,
		ETA:           order.ExpectedDate,
	}
	if out.ID == "" {
		out.ID = unknownOrderID
	}
	if out.ETA == "" {
		out.ETA = date
	}
	if order.Status == remotePaidStatus {
		out.Status = domain.StatusSettled
	}
	if primary != nil {
		out.UnitCost = primary.UnitCost
		if primary.Fruit != "" {
			out.Fruit = primary.Fruit
		}
		if primary.ProductID != "" {
			out.ProductID = idtranslate.ProductToFrontend(primary.ProductID)
		}
	}
	out.QuantityKg = totalQty
	return out
}

var validate = validator.New()

// validatePurchase rejects a draft without a supplier or product before any I/O.
func validatePurchase(draft domain.PurchaseDraft) error {
	if err := validate.Struct(draft); err != nil {
		return fmt.Errorf("%w: purchase needs a supplier and a product: %v", store.ErrValidation, err)
	}
	return nil
}

func buildPurchasePayload(draft domain.PurchaseDraft) domain.RemotePurchasePayload {
	eta := draft.ETA
	if eta == "" {
		eta = draft.Date
	}
	return domain.RemotePurchasePayload{
		SupplierID: idtranslate.PartnerToBackend(draft.SupplierID),
		ETA:        eta,
		Items: []domain.RemotePurchaseItem{{
			ProductID:     idtranslate.ProductToBackend(draft.ProductID),
			QuantityKg:    draft.QuantityKg,
			UnitCost:      draft.UnitCost,
			BatchRequired: draft.BatchRequired,
		}},
	}
}

func mapInventoryFromRemote(items []domain.InventoryItem) []domain.InventoryItem {
	for i := range items {
		if items[i].ProductID != "" {
			items[i].ProductID = idtranslate.ProductToFrontend(items[i].ProductID)
		}
	}
	return items
}

func InvoiceToRemote(inv domain.PurchaseInvoice, fallbackStoreID string) domain.RemoteInvoice {
	storeID := inv.StoreID
	if storeID == "" {
		storeID = fallbackStoreID
	}
	orderID := inv.SalesOrderID
	if orderID == "" {
		orderID = inv.POID
	}
	return domain.RemoteInvoice{
		ID:           inv.ID,
		StoreID:      storeID,
		SalesOrderID: orderID,
		DueDate:      inv.DueDate,
		Amount:       inv.Amount,
		Status:       string(inv.Status),
	}
}

func AdjustmentToRemote(adj domain.StockAdjustment) domain.RemoteAdjustment {
	delta := adj.AfterQty - adj.BeforeQty
	if adj.DeltaKg != nil {
		delta = *adj.DeltaKg
	}
	return domain.RemoteAdjustment{
		ID:          adj.ID,
		InventoryID: adj.InventoryID,
		Reason:      adj.Reason,
		DeltaKg:     delta,
		CreatedBy:   adj.Operator,
		CreatedAt:   adj.Time,
	}
}

func ParameterToRemote(param *domain.ParameterConfig, key, value string) domain.RemoteParameter {
	if param == nil {
		return domain.RemoteParameter{Key: key, Value: value}
	}
	return domain.RemoteParameter{Key: param.Key, Value: param.Value, Description: param.Description}
}

// PurchaseToRemote renders a local purchase as a single-line remote purchase
// order with canonical ids. It is the inverse of mapPurchaseOrder for the
// fields both shapes carry.
func PurchaseToRemote(p domain.Purchase) domain.RemotePurchaseOrder {
	status := "ordered"
	if p.Status == domain.StatusSettled {
		status = remotePaidStatus
	}
	expected := p.ETA
	if expected == "" {
		expected = p.Date
	}
	return domain.RemotePurchaseOrder{
		ID:           p.ID,
		StoreID:      p.StoreID,
		SupplierID:   idtranslate.PartnerToBackend(p.SupplierID),
		Status:       status,
		ExpectedDate: expected,
		Lines: []domain.RemotePurchaseLine{{
			ProductID:  idtranslate.ProductToBackend(p.ProductID),
			Fruit:      p.Fruit,
			QuantityKg: p.QuantityKg,
			UnitCost:   p.UnitCost,
		}},
		Timeline: []domain.RemoteTimelineEvent{{Time: p.Date}},
	}
}

// DraftFromPayload turns one item of a remote purchase payload back into a
// local draft with alias ids. Names are left for the caller to resolve.
func DraftFromPayload(payload domain.RemotePurchasePayload, item domain.RemotePurchaseItem, today string) domain.PurchaseDraft {
	eta := payload.ETA
	if eta == "" {
		eta = today
	}
	return domain.PurchaseDraft{
		Date:          today,
		SupplierID:    idtranslate.PartnerToFrontend(payload.SupplierID),
		ProductID:     idtranslate.ProductToFrontend(item.ProductID),
		QuantityKg:    item.QuantityKg,
		UnitCost:      item.UnitCost,
		PaymentMethod: domain.PaymentTransfer,
		Status:        domain.StatusPending,
		ETA:           eta,
		BatchRequired: item.BatchRequired,
	}
}

// InventoryToRemote translates product aliases on inventory lines to canonical ids.
func InventoryToRemote(items []domain.InventoryItem) []domain.InventoryItem {
	out := make([]domain.InventoryItem, len(items))
	for i, item := range items {
		if item.ProductID != "" {
			item.ProductID = idtranslate.ProductToBackend(item.ProductID)
		}
		out[i] = item
	}
	return out
}
