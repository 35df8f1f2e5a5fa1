package dto

import "github.com/shopspring/decimal"

// ─── Notifications ───────────────────────────────────────────────────────────

// Severity levels shown to the operator.
const (
	SeveritySuccess = "success"
	SeverityDanger  = "danger"
	SeverityInfo    = "info"
)

// Notification is the operator-facing outcome of a sale operation.
type Notification struct {
	Message  string `json:"message"`
	Severity string `json:"severity"` // success | danger | info
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RecordSaleRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

// BatchItemRequest carries the caller-computed total for multi-item checkout.
type BatchItemRequest struct {
	ProductID  string          `json:"product_id"  validate:"required,uuid"`
	Quantity   int             `json:"quantity"    validate:"required,min=1"`
	TotalPrice decimal.Decimal `json:"total_price" validate:"min=0"`
}

type RecordSaleBatchRequest struct {
	Items []BatchItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ─── Filter / List ───────────────────────────────────────────────────────────

// SaleFilter is bound from query string of GET /v1/sales.
type SaleFilter struct {
	ProductID string `form:"product_id" validate:"omitempty,uuid"`
	Date      string `form:"date"` // YYYY-MM-DD; empty = all
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListItem struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Product    string          `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  string          `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleListItem `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	Product      string          `json:"product"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Remaining    int             `json:"remaining"` // lot quantity after the sale
	Notification Notification    `json:"notification"`
	CreatedAt    string          `json:"created_at"`
}

// Per-item outcome of a batch order. Status mirrors the single-sale rules:
// a missing product or an insufficient lot rejects the item, never the batch.
const (
	BatchItemSold         = "sold"
	BatchItemNotFound     = "not_found"
	BatchItemInsufficient = "insufficient_stock"
	BatchItemError        = "error"
)

type BatchItemResult struct {
	ProductID    string       `json:"product_id"`
	Status       string       `json:"status"`
	SaleID       string       `json:"sale_id,omitempty"`
	Notification Notification `json:"notification"`
}

type SaleBatchResponse struct {
	Message string            `json:"message"`
	Results []BatchItemResult `json:"results"`
}
