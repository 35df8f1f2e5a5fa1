package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	SKU       string          `json:"sku"        validate:"required,min=3,max=40"`
	Name      string          `json:"name"       validate:"required,min=2,max=120"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
	// InitialQuantity seeds the product's purchase lot.
	InitialQuantity int `json:"initial_quantity" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name      *string          `json:"name"       validate:"omitempty,min=2,max=120"`
	Category  *string          `json:"category"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	SKU      string `form:"sku"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"` // "false" = inactive, "all" = everything, default = active only
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"` // remaining quantity in the purchase lot
	LotID     string          `json:"lot_id"`
	Active    bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
