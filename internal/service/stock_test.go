package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"anime-storefront/internal/dto"
	"anime-storefront/internal/model"
	"anime-storefront/internal/repository"
	"anime-storefront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestProductTypeForCategory(t *testing.T) {
	cases := map[string]string{
		"Hoodies":        "hoodie",
		"oversized tees": "tshirt",
		"T-Shirts":       "tshirt",
		"Sweatshirts":    "sweatshirt",
		"Joggers":        "pants",
		"Shorts":         "shorts",
		"Snapback Caps":  "cap",
		"Figures":        "",
		"":               "",
	}
	for category, want := range cases {
		assert.Equal(t, want, ProductTypeForCategory(category), category)
	}
}

func TestReduceStockForOrder_AppliesOnceWithFloor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedStock(t, "hoodie", "M", "black", 10)
	f.seedStock(t, "hoodie", "L", "white", 2)

	order := f.seedOrder(t, "ORD2610190001", model.OrderStatusPaid,
		hoodie("m", "Black", 3),
		hoodie("L", "white", 5),
	)

	applied, err := f.stock.ReduceStockForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 7, f.stockQty(t, "M", "black"))
	assert.Equal(t, 0, f.stockQty(t, "L", "white"), "quantity is clamped at zero")
	assert.True(t, f.order(t, order.ID).StockAdjusted)

	applied, err = f.stock.ReduceStockForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 7, f.stockQty(t, "M", "black"))
}

func TestReduceStockForOrder_ConcurrentCallersDecrementOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedStock(t, "hoodie", "M", "black", 20)
	order := f.seedOrder(t, "ORD2610190002", model.OrderStatusPaid, hoodie("M", "black", 2))

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := f.stock.ReduceStockForOrder(ctx, order.ID)
			assert.NoError(t, err)
			if applied {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, 18, f.stockQty(t, "M", "black"))
}

func TestReduceStockForOrder_NoVariantItemsStillFlipsFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedStock(t, "hoodie", "M", "black", 10)
	order := f.seedOrder(t, "ORD2610190003", model.OrderStatusPaid,
		model.OrderItem{ProductID: "fig-1", Name: "Nendoroid", Quantity: 1, Category: "Figures"},
		model.OrderItem{ProductID: "hoodie-1", Name: "Hoodie", Quantity: 1, Category: "Hoodies", Size: "M"},
	)

	applied, err := f.stock.ReduceStockForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, f.order(t, order.ID).StockAdjusted)
	assert.Equal(t, 10, f.stockQty(t, "M", "black"))
}

func TestReduceStockForOrder_TestModeIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedStock(t, "hoodie", "M", "black", 10)
	order := f.seedOrder(t, "ORD2610190004", model.OrderStatusPaid, hoodie("M", "black", 1))
	require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", order.ID).Update("test_mode", true).Error)

	applied, err := f.stock.ReduceStockForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.False(t, f.order(t, order.ID).StockAdjusted)
	assert.Equal(t, 10, f.stockQty(t, "M", "black"))
}

func TestReduceStockForOrder_SkipsProductTypeMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedStock(t, "tshirt", "M", "black", 10)
	order := f.seedOrder(t, "ORD2610190005", model.OrderStatusPaid, hoodie("M", "black", 1))

	_, err := f.stock.ReduceStockForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.stockQty(t, "M", "black"))
}

func TestReduceStockForOrder_LedgerSkipsAppliedLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedStock(t, "hoodie", "M", "black", 10)
	f.seedStock(t, "hoodie", "L", "black", 10)
	order := f.seedOrder(t, "ORD2610190006", model.OrderStatusPaid,
		hoodie("M", "black", 1),
		hoodie("L", "black", 1),
	)

	// first line already applied by an earlier attempt whose flag was reset
	stock, err := f.stocks.FindVariant(ctx, f.db, "M", "black")
	require.NoError(t, err)
	_, err = f.stocks.RecordAdjustment(ctx, f.db, &model.StockAdjustment{
		OrderID:     order.ID,
		OrderItemID: order.Items[0].ID,
		StockID:     stock.ID,
		Quantity:    1,
	})
	require.NoError(t, err)

	applied, err := f.stock.ReduceStockForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 10, f.stockQty(t, "M", "black"))
	assert.Equal(t, 9, f.stockQty(t, "L", "black"))
}

type failingStockRepo struct {
	repository.StockRepository
	failures int
}

func (r *failingStockRepo) Decrement(ctx context.Context, tx *gorm.DB, stockID uint, n int) (int, error) {
	if r.failures > 0 {
		r.failures--
		return 0, errors.New("disk full")
	}
	return r.StockRepository.Decrement(ctx, tx, stockID, n)
}

// racingStockRepo lets another order's decrement land between the variant read
// and the write.
type racingStockRepo struct {
	repository.StockRepository
	concurrent int
}

func (r *racingStockRepo) FindVariant(ctx context.Context, tx *gorm.DB, size, color string) (*model.Stock, error) {
	stock, err := r.StockRepository.FindVariant(ctx, tx, size, color)
	if err != nil {
		return nil, err
	}
	if r.concurrent > 0 {
		if _, err := r.StockRepository.Decrement(ctx, tx, stock.ID, r.concurrent); err != nil {
			return nil, err
		}
		r.concurrent = 0
	}
	return stock, nil
}

func TestReduceStockForOrder_DecrementsFromCurrentQuantity(t *testing.T) {
	db := testutil.NewDB(t)
	log, _ := testutil.NewLogger()
	ctx := context.Background()

	orders := repository.NewOrderRepository(db)
	stocks := &racingStockRepo{StockRepository: repository.NewStockRepository(db), concurrent: 4}
	svc := NewStockService(db, orders, stocks, log)

	require.NoError(t, stocks.Upsert(ctx, &model.Stock{ProductType: "hoodie", Size: "M", Color: "black", Quantity: 10}))

	f := &fixture{db: db, orders: orders, stocks: stocks}
	order := f.seedOrder(t, "ORD2610190009", model.OrderStatusPaid, hoodie("M", "black", 3))

	applied, err := svc.ReduceStockForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 3, f.stockQty(t, "M", "black"), "both orders' decrements are kept")
}

func TestReduceStockForOrder_FailureResetsFlagForRetry(t *testing.T) {
	db := testutil.NewDB(t)
	log, _ := testutil.NewLogger()
	ctx := context.Background()

	orders := repository.NewOrderRepository(db)
	stocks := &failingStockRepo{StockRepository: repository.NewStockRepository(db), failures: 1}
	svc := NewStockService(db, orders, stocks, log)

	require.NoError(t, stocks.Upsert(ctx, &model.Stock{ProductType: "hoodie", Size: "M", Color: "black", Quantity: 10}))
	require.NoError(t, stocks.Upsert(ctx, &model.Stock{ProductType: "hoodie", Size: "L", Color: "black", Quantity: 10}))

	f := &fixture{db: db, orders: orders, stocks: stocks}
	order := f.seedOrder(t, "ORD2610190007", model.OrderStatusPaid,
		hoodie("M", "black", 2),
		hoodie("L", "black", 3),
	)

	applied, err := svc.ReduceStockForOrder(ctx, order.ID)
	require.Error(t, err)
	assert.False(t, applied)
	assert.False(t, f.order(t, order.ID).StockAdjusted, "flag is reset so a later call retries")
	assert.Equal(t, 10, f.stockQty(t, "M", "black"))

	applied, err = svc.ReduceStockForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 8, f.stockQty(t, "M", "black"))
	assert.Equal(t, 7, f.stockQty(t, "L", "black"))

	var ledger int64
	require.NoError(t, db.Model(&model.StockAdjustment{}).Where("order_id = ?", order.ID).Count(&ledger).Error)
	assert.Equal(t, int64(2), ledger)
}

func TestStockService_SetStockAndLowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stock, err := f.stock.SetStock(ctx, &dto.StockRequest{Size: "m", Color: "Black", ProductType: "Hoodie", Quantity: 3, LowStockThreshold: 5})
	require.NoError(t, err)
	assert.NotZero(t, stock.ID)
	assert.Equal(t, "M", stock.Size)
	assert.Equal(t, "black", stock.Color)
	assert.Equal(t, "hoodie", stock.ProductType)

	_, err = f.stock.SetStock(ctx, &dto.StockRequest{Size: "L", Color: "black", Quantity: 50, LowStockThreshold: 5})
	require.NoError(t, err)

	low, err := f.stock.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "M", low[0].Size)

	all, err := f.stock.ListStock(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.stock.SetStock(ctx, &dto.StockRequest{Size: "L", Color: "black", Quantity: -1})
	assert.ErrorIs(t, err, ErrValidation)
}
