package service

import (
	"context"
	"errors"

	"pharmapos/internal/dto"
	"pharmapos/internal/model"
	"pharmapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAdjustmentConflict = errors.New("adjustment would drive lot quantity negative")

// InventoryService covers lot replenishment, low-stock reporting, and the
// stock movement audit trail.
type InventoryService interface {
	AdjustLot(ctx context.Context, lotID uuid.UUID, req dto.AdjustLotRequest) (*dto.LotResponse, error)
	ListLowStock(ctx context.Context) (*dto.LowStockResponse, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
}

type inventoryService struct {
	lotRepo     repository.PurchaseLotRepository
	productRepo repository.ProductRepository
	movements   repository.StockMovementRepository
	threshold   int
}

func NewInventoryService(
	lotRepo repository.PurchaseLotRepository,
	productRepo repository.ProductRepository,
	movements repository.StockMovementRepository,
	lowStockThreshold int,
) InventoryService {
	if lowStockThreshold < 1 {
		lowStockThreshold = 1
	}
	return &inventoryService{
		lotRepo:     lotRepo,
		productRepo: productRepo,
		movements:   movements,
		threshold:   lowStockThreshold,
	}
}

// AdjustLot replenishes or corrects a lot. The delta is applied through the
// same guarded update as sales, so a correction can never go below zero.
func (s *inventoryService) AdjustLot(ctx context.Context, lotID uuid.UUID, req dto.AdjustLotRequest) (*dto.LotResponse, error) {
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, ErrLotNotFound
	}

	// Snapshot before AdjustTx runs so the movement records the quantity as
	// it was even when the repository hands back a live row.
	before := lot.Quantity
	after := before + req.Delta
	txErr := runTx(ctx, s.lotRepo.DB(), func(tx *gorm.DB) error {
		if err := s.lotRepo.AdjustTx(tx, lotID, req.Delta); err != nil {
			if errors.Is(err, repository.ErrLotConflict) {
				return ErrAdjustmentConflict
			}
			return err
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			LotID:          lot.ID,
			ProductID:      lot.ProductID,
			Type:           "adjustment",
			Delta:          req.Delta,
			QuantityBefore: before,
			QuantityAfter:  after,
			Reason:         req.Reason,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	name := ""
	if p, err := s.productRepo.FindByID(ctx, lot.ProductID); err == nil {
		name = p.Name
	}
	return &dto.LotResponse{
		ID:        lot.ID.String(),
		ProductID: lot.ProductID.String(),
		Product:   name,
		Quantity:  after,
	}, nil
}

func (s *inventoryService) ListLowStock(ctx context.Context) (*dto.LowStockResponse, error) {
	lots, err := s.lotRepo.ListLowStock(ctx, s.threshold)
	if err != nil {
		return nil, err
	}
	resp := &dto.LowStockResponse{Threshold: s.threshold, Lots: make([]dto.LotResponse, 0, len(lots))}
	for _, lot := range lots {
		name := ""
		if p, err := s.productRepo.FindByID(ctx, lot.ProductID); err == nil {
			name = p.Name
		}
		resp.Lots = append(resp.Lots, dto.LotResponse{
			ID:        lot.ID.String(),
			ProductID: lot.ProductID.String(),
			Product:   name,
			Quantity:  lot.Quantity,
		})
	}
	return resp, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	repoFilter := repository.StockMovementFilter{
		Type:  filter.Type,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	if filter.ProductID != "" {
		pid, err := uuid.Parse(filter.ProductID)
		if err == nil {
			repoFilter.ProductID = &pid
		}
	}

	movements, total, err := s.movements.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		name := ""
		if m.Product != nil {
			name = m.Product.Name
		}
		var ref *string
		if m.ReferenceID != nil {
			r := m.ReferenceID.String()
			ref = &r
		}
		items = append(items, dto.MovementResponse{
			ID:             m.ID.String(),
			ProductID:      m.ProductID.String(),
			Product:        name,
			Type:           m.Type,
			Delta:          m.Delta,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			Reason:         m.Reason,
			ReferenceID:    ref,
			CreatedAt:      m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return &dto.MovementListResponse{
		Data:  items,
		Total: total,
		Page:  repoFilter.Page,
		Limit: repoFilter.Limit,
	}, nil
}
