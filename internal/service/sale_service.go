package service

import (
	"context"
	"errors"
	"fmt"

	"pharmapos/internal/dto"
	"pharmapos/internal/model"
	"pharmapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Domain errors surfaced by the sale workflow. Handlers map these to
// HTTP status codes; everything else is treated as internal.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrLotNotFound       = errors.New("purchase lot not found")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// LowStockAlert describes the lot that a sale just drained to the threshold.
// It always names the mutated lot, never an arbitrary low one.
type LowStockAlert struct {
	LotID       uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Remaining   int
	Threshold   int
}

// AlertSink receives low-stock alerts after a sale commits. Implementations
// must not block the request path: the production sink enqueues a Redis job,
// tests record the alert in memory.
type AlertSink interface {
	Notify(ctx context.Context, alert LowStockAlert)
}

type SaleService interface {
	RecordSale(ctx context.Context, req dto.RecordSaleRequest) (*dto.SaleResponse, error)
	RecordBatch(ctx context.Context, req dto.RecordSaleBatchRequest) (*dto.SaleBatchResponse, error)
	DeleteSale(ctx context.Context, id uuid.UUID) (*dto.Notification, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo        repository.SaleRepository
	productRepo repository.ProductRepository
	lotRepo     repository.PurchaseLotRepository
	movements   repository.StockMovementRepository
	alerts      AlertSink
	threshold   int
}

func NewSaleService(
	repo repository.SaleRepository,
	productRepo repository.ProductRepository,
	lotRepo repository.PurchaseLotRepository,
	movements repository.StockMovementRepository,
	alerts AlertSink,
	lowStockThreshold int,
) SaleService {
	if lowStockThreshold < 1 {
		lowStockThreshold = 1
	}
	return &saleService{
		repo:        repo,
		productRepo: productRepo,
		lotRepo:     lotRepo,
		movements:   movements,
		alerts:      alerts,
		threshold:   lowStockThreshold,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── RecordSale ────────────────────────────────────────────────────────────────
// Single atomic unit: guarded lot decrement + sale insert + movement record.
// Either all three commit or none does. The low-stock alert fires after the
// commit, at most once per call, and only for the lot just decremented.

func (s *saleService) RecordSale(ctx context.Context, req dto.RecordSaleRequest) (*dto.SaleResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	resp, err := s.sell(ctx, productID, req.Quantity, nil)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// sell performs the shared read-modify-write for both entry points.
// totalOverride, when non-nil, is the caller-supplied total for batch orders;
// otherwise total = quantity × unit price at time of sale.
func (s *saleService) sell(ctx context.Context, productID uuid.UUID, quantity int, totalOverride *decimal.Decimal) (*dto.SaleResponse, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, ErrProductNotFound
	}
	if !product.Active {
		return nil, fmt.Errorf("product %s is inactive and cannot be sold", product.Name)
	}

	lot, err := s.lotRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, ErrLotNotFound
	}

	// Snapshot before the decrement runs: the repository may hand back a live
	// row, and the movement must record the quantity as it was.
	before := lot.Quantity
	remaining := before - quantity
	if remaining < 0 {
		// Rejected before any mutation. The pre-flight check keeps the common
		// case out of the transaction; the guarded UPDATE below catches races.
		return nil, ErrInsufficientStock
	}

	total := product.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if totalOverride != nil {
		total = *totalOverride
	}

	sale := model.Sale{
		ProductID:  productID,
		Quantity:   quantity,
		TotalPrice: total,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.lotRepo.DecrementTx(tx, lot.ID, quantity); err != nil {
			if errors.Is(err, repository.ErrLotConflict) {
				return ErrInsufficientStock
			}
			return err
		}
		if err := s.repo.CreateTx(tx, &sale); err != nil {
			return err
		}
		saleRef := sale.ID
		return s.movements.CreateTx(tx, &model.StockMovement{
			LotID:          lot.ID,
			ProductID:      productID,
			Type:           "sale",
			Delta:          -quantity,
			QuantityBefore: before,
			QuantityAfter:  remaining,
			Reason:         fmt.Sprintf("Sale of %d × %s", quantity, product.Name),
			ReferenceID:    &saleRef,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	notification := dto.Notification{Message: "Product has been sold", Severity: dto.SeveritySuccess}
	if remaining > 0 && remaining <= s.threshold {
		if s.alerts != nil {
			s.alerts.Notify(ctx, LowStockAlert{
				LotID:       lot.ID,
				ProductID:   productID,
				ProductName: product.Name,
				Remaining:   remaining,
				Threshold:   s.threshold,
			})
		}
		notification = dto.Notification{Message: "Product is running out of stock", Severity: dto.SeverityDanger}
	}

	return &dto.SaleResponse{
		ID:           sale.ID.String(),
		ProductID:    productID.String(),
		Product:      product.Name,
		Quantity:     quantity,
		TotalPrice:   total,
		Remaining:    remaining,
		Notification: notification,
		CreatedAt:    sale.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}, nil
}

// ── RecordBatch ───────────────────────────────────────────────────────────────
// Multi-item checkout. Each item runs the same strict checks as RecordSale in
// its own transaction; a failed item is reported in the result list and never
// aborts the rest of the batch. The caller supplies each item's total price.

func (s *saleService) RecordBatch(ctx context.Context, req dto.RecordSaleBatchRequest) (*dto.SaleBatchResponse, error) {
	results := make([]dto.BatchItemResult, 0, len(req.Items))

	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			results = append(results, dto.BatchItemResult{
				ProductID: item.ProductID,
				Status:    dto.BatchItemNotFound,
				Notification: dto.Notification{
					Message:  "Unknown product",
					Severity: dto.SeverityInfo,
				},
			})
			continue
		}

		total := item.TotalPrice
		resp, err := s.sell(ctx, productID, item.Quantity, &total)
		if err != nil {
			results = append(results, batchFailure(item.ProductID, err))
			continue
		}
		results = append(results, dto.BatchItemResult{
			ProductID:    item.ProductID,
			Status:       dto.BatchItemSold,
			SaleID:       resp.ID,
			Notification: resp.Notification,
		})
	}

	return &dto.SaleBatchResponse{
		Message: "Order stored successfully",
		Results: results,
	}, nil
}

func batchFailure(productID string, err error) dto.BatchItemResult {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrLotNotFound):
		return dto.BatchItemResult{
			ProductID:    productID,
			Status:       dto.BatchItemNotFound,
			Notification: dto.Notification{Message: "Unknown product", Severity: dto.SeverityInfo},
		}
	case errors.Is(err, ErrInsufficientStock):
		return dto.BatchItemResult{
			ProductID:    productID,
			Status:       dto.BatchItemInsufficient,
			Notification: dto.Notification{Message: "Please check purchase product quantity", Severity: dto.SeverityInfo},
		}
	default:
		return dto.BatchItemResult{
			ProductID:    productID,
			Status:       dto.BatchItemError,
			Notification: dto.Notification{Message: err.Error(), Severity: dto.SeverityInfo},
		}
	}
}

// ── DeleteSale ────────────────────────────────────────────────────────────────
// Removes the historical record only. The purchase lot is NOT replenished:
// deleting a sale is bookkeeping, not a return.

func (s *saleService) DeleteSale(ctx context.Context, id uuid.UUID) (*dto.Notification, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, ErrSaleNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &dto.Notification{Message: "Sale has been deleted", Severity: dto.SeveritySuccess}, nil
}

// ListSales returns a paginated list of sales, most recent first.
func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleListItem, 0, len(sales))
	for _, sale := range sales {
		name := ""
		if sale.Product != nil {
			name = sale.Product.Name
		}
		items = append(items, dto.SaleListItem{
			ID:         sale.ID.String(),
			ProductID:  sale.ProductID.String(),
			Product:    name,
			Quantity:   sale.Quantity,
			TotalPrice: sale.TotalPrice,
			CreatedAt:  sale.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return &dto.SaleListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}
