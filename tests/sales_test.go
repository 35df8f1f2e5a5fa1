package tests

import (
	"context"
	"testing"
	"time"

	"pharmapos/internal/dto"
	"pharmapos/internal/model"
	"pharmapos/internal/repository"
	"pharmapos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubSaleRepo is an in-memory SaleRepository for testing.
type stubSaleRepo struct {
	sales map[uuid.UUID]*model.Sale
	order []uuid.UUID
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	r.sales[s.ID] = s
	r.order = append(r.order, s.ID)
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.sales, id)
	return nil
}

func (r *stubSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	// Most recent first: walk insertion order backwards
	for i := len(r.order) - 1; i >= 0; i-- {
		s, ok := r.sales[r.order[i]]
		if !ok {
			continue
		}
		if filter.ProductID != "" && s.ProductID.String() != filter.ProductID {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// recordingSink captures low-stock alerts for assertion.
type recordingSink struct {
	alerts []service.LowStockAlert
}

func (s *recordingSink) Notify(_ context.Context, alert service.LowStockAlert) {
	s.alerts = append(s.alerts, alert)
}

var _ service.AlertSink = (*recordingSink)(nil)

// ── SaleService factory for tests ────────────────────────────────────────────

func buildSaleSvc(threshold int) (service.SaleService, *stubSaleRepo, *stubProductRepo, *stubLotRepo, *stubMovementRepo, *recordingSink) {
	saleRepo := newStubSaleRepo()
	productRepo := newStubProductRepo()
	lotRepo := newStubLotRepo()
	movementRepo := &stubMovementRepo{}
	sink := &recordingSink{}
	svc := service.NewSaleService(saleRepo, productRepo, lotRepo, movementRepo, sink, threshold)
	return svc, saleRepo, productRepo, lotRepo, movementRepo, sink
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestRecordSale_DecrementsLotAndComputesTotal(t *testing.T) {
	svc, saleRepo, productRepo, lotRepo, movementRepo, sink := buildSaleSvc(1)
	p := seedProduct(productRepo, lotRepo, "Paracetamol 500mg", 10, 5)

	resp, err := svc.RecordSale(context.Background(), dto.RecordSaleRequest{
		ProductID: p.ID.String(),
		Quantity:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Quantity)
	assert.Equal(t, "30", resp.TotalPrice.String())
	assert.Equal(t, 2, resp.Remaining)
	assert.Equal(t, "Product has been sold", resp.Notification.Message)
	assert.Equal(t, dto.SeveritySuccess, resp.Notification.Severity)

	// Lot decremented, sale persisted
	assert.Equal(t, 2, lotRepo.lots[p.Lot.ID].Quantity)
	stored, err := saleRepo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, "30", stored.TotalPrice.String())

	// Audit trail: one movement referencing the sale
	require.Len(t, movementRepo.movements, 1)
	m := movementRepo.movements[0]
	assert.Equal(t, "sale", m.Type)
	assert.Equal(t, -3, m.Delta)
	assert.Equal(t, 5, m.QuantityBefore)
	assert.Equal(t, 2, m.QuantityAfter)
	// The audit row must be internally consistent even when the repository
	// returns live rows that mutate under the service's feet
	assert.Equal(t, m.QuantityAfter-m.Delta, m.QuantityBefore)
	require.NotNil(t, m.ReferenceID)
	assert.Equal(t, resp.ID, m.ReferenceID.String())

	// Remaining 2 > threshold 1 — no alert
	assert.Empty(t, sink.alerts)
}

func TestRecordSale_ExactDepletion(t *testing.T) {
	svc, _, productRepo, lotRepo, _, sink := buildSaleSvc(1)
	p := seedProduct(productRepo, lotRepo, "Vitamin C 1000mg", 8, 5)

	resp, err := svc.RecordSale(context.Background(), dto.RecordSaleRequest{
		ProductID: p.ID.String(),
		Quantity:  5,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Remaining)
	assert.Equal(t, 0, lotRepo.lots[p.Lot.ID].Quantity)

	// Depleted is not "running out": the alert window is 0 < remaining <= threshold
	assert.Empty(t, sink.alerts)
	assert.Equal(t, dto.SeveritySuccess, resp.Notification.Severity)
}

func TestRecordSale_LowStockAlert(t *testing.T) {
	svc, _, productRepo, lotRepo, _, sink := buildSaleSvc(1)
	p := seedProduct(productRepo, lotRepo, "Insulin pen", 120, 2)

	resp, err := svc.RecordSale(context.Background(), dto.RecordSaleRequest{
		ProductID: p.ID.String(),
		Quantity:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Remaining)
	assert.Equal(t, "Product is running out of stock", resp.Notification.Message)
	assert.Equal(t, dto.SeverityDanger, resp.Notification.Severity)

	// Exactly one alert, bound to the lot that was just decremented
	require.Len(t, sink.alerts, 1)
	alert := sink.alerts[0]
	assert.Equal(t, p.Lot.ID, alert.LotID)
	assert.Equal(t, p.ID, alert.ProductID)
	assert.Equal(t, "Insulin pen", alert.ProductName)
	assert.Equal(t, 1, alert.Remaining)
	assert.Equal(t, 1, alert.Threshold)
}

func TestRecordSale_ConfigurableThreshold(t *testing.T) {
	svc, _, productRepo, lotRepo, _, sink := buildSaleSvc(3)
	p := seedProduct(productRepo, lotRepo, "Aspirin 100mg", 3, 5)

	resp, err := svc.RecordSale(context.Background(), dto.RecordSaleRequest{
		ProductID: p.ID.String(),
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Remaining)

	// remaining 3 <= threshold 3 — alert fires
	require.Len(t, sink.alerts, 1)
	assert.Equal(t, 3, sink.alerts[0].Remaining)
	assert.Equal(t, 3, sink.alerts[0].Threshold)
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	svc, saleRepo, productRepo, lotRepo, movementRepo, sink := buildSaleSvc(1)
	p := seedProduct(productRepo, lotRepo, "Cough syrup", 7.50, 1)

	_, err := svc.RecordSale(context.Background(), dto.RecordSaleRequest{
		ProductID: p.ID.String(),
		Quantity:  3,
	})
	assert.ErrorIs(t, err, service.ErrInsufficientStock)

	// Nothing mutated: lot, sales, movements, alerts all untouched
	assert.Equal(t, 1, lotRepo.lots[p.Lot.ID].Quantity)
	assert.Empty(t, saleRepo.sales)
	assert.Empty(t, movementRepo.movements)
	assert.Empty(t, sink.alerts)
}

func TestRecordSale_UnknownProduct(t *testing.T) {
	svc, _, _, _, _, _ := buildSaleSvc(1)

	_, err := svc.RecordSale(context.Background(), dto.RecordSaleRequest{
		ProductID: uuid.New().String(),
		Quantity:  1,
	})
	assert.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestRecordSale_InvalidQuantity(t *testing.T) {
	svc, _, productRepo, lotRepo, _, _ := buildSaleSvc(1)
	p := seedProduct(productRepo, lotRepo, "Bandages", 2, 10)

	_, err := svc.RecordSale(context.Background(), dto.RecordSaleRequest{
		ProductID: p.ID.String(),
		Quantity:  0,
	})
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)
}

func TestRecordSale_InactiveProduct(t *testing.T) {
	svc, _, productRepo, lotRepo, _, _ := buildSaleSvc(1)
	p := seedProduct(productRepo, lotRepo, "Discontinued balm", 5, 10)
	p.Active = false

	_, err := svc.RecordSale(context.Background(), dto.RecordSaleRequest{
		ProductID: p.ID.String(),
		Quantity:  1,
	})
	assert.ErrorContains(t, err, "inactive")
}

func TestRecordBatch_PerItemResults(t *testing.T) {
	svc, saleRepo, productRepo, lotRepo, _, _ := buildSaleSvc(1)
	ok := seedProduct(productRepo, lotRepo, "Thermometer", 15, 10)
	short := seedProduct(productRepo, lotRepo, "Face masks", 1, 2)

	resp, err := svc.RecordBatch(context.Background(), dto.RecordSaleBatchRequest{
		Items: []dto.BatchItemRequest{
			{ProductID: ok.ID.String(), Quantity: 2, TotalPrice: decimal.NewFromInt(30)},
			{ProductID: short.ID.String(), Quantity: 5, TotalPrice: decimal.NewFromInt(5)},
			{ProductID: uuid.New().String(), Quantity: 1, TotalPrice: decimal.NewFromInt(1)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Order stored successfully", resp.Message)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, dto.BatchItemSold, resp.Results[0].Status)
	assert.NotEmpty(t, resp.Results[0].SaleID)

	assert.Equal(t, dto.BatchItemInsufficient, resp.Results[1].Status)
	assert.Equal(t, "Please check purchase product quantity", resp.Results[1].Notification.Message)

	assert.Equal(t, dto.BatchItemNotFound, resp.Results[2].Status)

	// The failed items never touch stock; the sold one does
	assert.Equal(t, 8, lotRepo.lots[ok.Lot.ID].Quantity)
	assert.Equal(t, 2, lotRepo.lots[short.Lot.ID].Quantity)
	assert.Len(t, saleRepo.sales, 1)
}

func TestRecordBatch_CallerSuppliedTotal(t *testing.T) {
	svc, saleRepo, productRepo, lotRepo, _, _ := buildSaleSvc(1)
	// Unit price 10, but the order carries a discounted total of 25
	p := seedProduct(productRepo, lotRepo, "Syringes 10-pack", 10, 20)

	resp, err := svc.RecordBatch(context.Background(), dto.RecordSaleBatchRequest{
		Items: []dto.BatchItemRequest{
			{ProductID: p.ID.String(), Quantity: 3, TotalPrice: decimal.NewFromInt(25)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, dto.BatchItemSold, resp.Results[0].Status)

	stored, err := saleRepo.FindByID(context.Background(), uuid.MustParse(resp.Results[0].SaleID))
	require.NoError(t, err)
	assert.Equal(t, "25", stored.TotalPrice.String())
}

func TestDeleteSale_NoRestock(t *testing.T) {
	svc, saleRepo, productRepo, lotRepo, _, _ := buildSaleSvc(1)
	p := seedProduct(productRepo, lotRepo, "Gauze rolls", 3, 10)

	resp, err := svc.RecordSale(context.Background(), dto.RecordSaleRequest{
		ProductID: p.ID.String(),
		Quantity:  4,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, lotRepo.lots[p.Lot.ID].Quantity)

	saleID := uuid.MustParse(resp.ID)
	note, err := svc.DeleteSale(context.Background(), saleID)
	require.NoError(t, err)
	assert.Equal(t, "Sale has been deleted", note.Message)
	assert.Equal(t, dto.SeveritySuccess, note.Severity)

	// Record gone, stock untouched: a deletion is bookkeeping, not a return
	assert.Empty(t, saleRepo.sales)
	assert.Equal(t, 6, lotRepo.lots[p.Lot.ID].Quantity)

	// Deleting again reports not found
	_, err = svc.DeleteSale(context.Background(), saleID)
	assert.ErrorIs(t, err, service.ErrSaleNotFound)
}

func TestListSales_MostRecentFirst(t *testing.T) {
	svc, _, productRepo, lotRepo, _, _ := buildSaleSvc(1)
	p := seedProduct(productRepo, lotRepo, "Antiseptic wipes", 2, 100)

	for i := 1; i <= 3; i++ {
		_, err := svc.RecordSale(context.Background(), dto.RecordSaleRequest{
			ProductID: p.ID.String(),
			Quantity:  i,
		})
		require.NoError(t, err)
	}

	resp, err := svc.ListSales(context.Background(), dto.SaleFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Total)
	require.Len(t, resp.Data, 3)
	// Last quantity sold comes first
	assert.Equal(t, 3, resp.Data[0].Quantity)
	assert.Equal(t, 1, resp.Data[2].Quantity)
}
