package domain

// Shapes exchanged with the remote REST backend. Ids inside them are canonical
// backend ids, not the aliases used by the local store.

type RemotePurchaseLine struct {
	ProductID  string  `json:"productId"`
	Fruit      string  `json:"fruit,omitempty"`
	QuantityKg float64 `json:"quantityKg"`
	UnitCost   float64 `json:"unitCost"`
}

type RemoteTimelineEvent struct {
	Time string `json:"time"`
}

type RemotePurchaseOrder struct {
	ID              string                `json:"id"`
	StoreID         string                `json:"storeId"`
	SupplierID      string                `json:"supplierId"`
	Status          string                `json:"status"`
	ExpectedDate    string                `json:"expectedDate"`
	PaymentTermDays int                   `json:"paymentTermDays"`
	Lines           []RemotePurchaseLine  `json:"lines"`
	Timeline        []RemoteTimelineEvent `json:"timeline"`
}

type RemotePurchaseItem struct {
	ProductID     string  `json:"productId"`
	QuantityKg    float64 `json:"quantityKg"`
	UnitCost      float64 `json:"unitCost"`
	BatchRequired bool    `json:"batchRequired"`
}

type RemotePurchasePayload struct {
	SupplierID string               `json:"supplierId"`
	ETA        string               `json:"eta"`
	Items      []RemotePurchaseItem `json:"items"`
}

type RemoteInvoice struct {
	ID           string  `json:"id"`
	StoreID      string  `json:"storeId"`
	SalesOrderID string  `json:"salesOrderId"`
	DueDate      string  `json:"dueDate"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status"`
}

type RemoteAdjustment struct {
	ID          string  `json:"id"`
	InventoryID string  `json:"inventoryId"`
	Reason      string  `json:"reason"`
	DeltaKg     float64 `json:"deltaKg"`
	CreatedBy   string  `json:"createdBy"`
	CreatedAt   string  `json:"createdAt"`
}

type AdjustmentRequest struct {
	Reason    string  `json:"reason"`
	DeltaKg   float64 `json:"deltaKg"`
	CreatedBy string  `json:"createdBy"`
}

type RemoteParameter struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

type ReorderLevelRequest struct {
	Level float64 `json:"level" validate:"gte=0"`
}

type ParameterValueRequest struct {
	Value string `json:"value"`
}
