package repository

import (
	"context"
	"errors"

	"pharmapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrLotConflict is returned when a guarded quantity update matches no row:
// either the lot is gone or the update would drive its quantity negative.
var ErrLotConflict = errors.New("purchase lot quantity conflict")

type PurchaseLotRepository interface {
	CreateTx(tx *gorm.DB, lot *model.PurchaseLot) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseLot, error)
	FindByProductID(ctx context.Context, productID uuid.UUID) (*model.PurchaseLot, error)

	// DecrementTx subtracts quantity inside a transaction. The UPDATE is
	// guarded (quantity >= ?) so concurrent sales of the same product can
	// never drive the lot negative; a miss returns ErrLotConflict.
	DecrementTx(tx *gorm.DB, id uuid.UUID, quantity int) error

	// AdjustTx applies a signed delta with the same non-negative guard.
	AdjustTx(tx *gorm.DB, id uuid.UUID, delta int) error

	// ListLowStock returns lots with 0 < quantity <= threshold, lowest first.
	ListLowStock(ctx context.Context, threshold int) ([]model.PurchaseLot, error)

	DB() *gorm.DB
}

type purchaseLotRepo struct{ db *gorm.DB }

func NewPurchaseLotRepository(db *gorm.DB) PurchaseLotRepository { return &purchaseLotRepo{db: db} }

func (r *purchaseLotRepo) CreateTx(tx *gorm.DB, lot *model.PurchaseLot) error {
	return tx.Create(lot).Error
}

func (r *purchaseLotRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseLot, error) {
	var lot model.PurchaseLot
	err := r.db.WithContext(ctx).First(&lot, id).Error
	return &lot, err
}

func (r *purchaseLotRepo) FindByProductID(ctx context.Context, productID uuid.UUID) (*model.PurchaseLot, error) {
	var lot model.PurchaseLot
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&lot).Error
	return &lot, err
}

func (r *purchaseLotRepo) DecrementTx(tx *gorm.DB, id uuid.UUID, quantity int) error {
	return r.AdjustTx(tx, id, -quantity)
}

func (r *purchaseLotRepo) AdjustTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	res := tx.Model(&model.PurchaseLot{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLotConflict
	}
	return nil
}

func (r *purchaseLotRepo) ListLowStock(ctx context.Context, threshold int) ([]model.PurchaseLot, error) {
	var lots []model.PurchaseLot
	err := r.db.WithContext(ctx).
		Where("quantity > 0 AND quantity <= ?", threshold).
		Order("quantity ASC").
		Find(&lots).Error
	return lots, err
}

func (r *purchaseLotRepo) DB() *gorm.DB { return r.db }
