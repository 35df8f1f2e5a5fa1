package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records every change to a purchase lot's quantity.
// One row is created per sale decrement and per manual adjustment.
type StockMovement struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LotID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Type           string    `gorm:"not null"` // "sale" | "adjustment"
	Delta          int       `gorm:"not null"` // positive = replenishment, negative = sale/correction
	QuantityBefore int       `gorm:"not null"`
	QuantityAfter  int       `gorm:"not null"`
	Reason         string
	ReferenceID    *uuid.UUID `gorm:"type:uuid"` // sale id when Type == "sale"
	CreatedAt      time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
