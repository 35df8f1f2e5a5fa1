package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. Each product owns exactly one
// PurchaseLot that tracks its remaining purchased quantity.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU       string          `gorm:"uniqueIndex;not null"`
	Name      string          `gorm:"index;not null"`
	Category  string          `gorm:"not null;default:'general'"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Lot *PurchaseLot `gorm:"foreignKey:ProductID"`
}
