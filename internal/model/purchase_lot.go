package model

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseLot tracks the remaining purchased quantity for a product.
// Quantity never goes below zero: every decrement is guarded in the
// repository and validated in the service layer before it runs.
type PurchaseLot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Quantity  int       `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides GORM's default pluralization (purchase_lot → purchase_lots is
// fine, but keep it explicit so raw SQL in tests and seeds stays stable).
func (PurchaseLot) TableName() string { return "purchase_lots" }
