package repository

import (
	"context"
	"time"

	"anime-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	FindVariant(ctx context.Context, tx *gorm.DB, size, color string) (*model.Stock, error)
	// RecordAdjustment inserts the ledger row for one order line. It returns false
	// when the line was already applied.
	RecordAdjustment(ctx context.Context, tx *gorm.DB, adj *model.StockAdjustment) (bool, error)
	// Decrement lowers the quantity by n in a single statement, clamped at zero,
	// and returns the quantity left.
	Decrement(ctx context.Context, tx *gorm.DB, stockID uint, n int) (int, error)

	Upsert(ctx context.Context, stock *model.Stock) error
	List(ctx context.Context) ([]*model.Stock, error)
	ListLow(ctx context.Context) ([]*model.Stock, error)
}

type stockRepoImpl struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepoImpl{
		db: db,
	}
}

func (r *stockRepoImpl) FindVariant(ctx context.Context, tx *gorm.DB, size, color string) (*model.Stock, error) {
	var stock model.Stock
	err := tx.WithContext(ctx).
		Where("size = ? AND color = ?", size, color).
		First(&stock).Error

	if err != nil {
		return nil, err
	}

	return &stock, nil
}

func (r *stockRepoImpl) RecordAdjustment(ctx context.Context, tx *gorm.DB, adj *model.StockAdjustment) (bool, error) {
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(adj)

	return result.RowsAffected == 1, result.Error
}

func (r *stockRepoImpl) Decrement(ctx context.Context, tx *gorm.DB, stockID uint, n int) (int, error) {
	err := tx.WithContext(ctx).Model(&model.Stock{}).
		Where("id = ? AND quantity > 0", stockID).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("CASE WHEN quantity > ? THEN quantity - ? ELSE 0 END", n, n),
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return 0, err
	}

	var stock model.Stock
	err = tx.WithContext(ctx).
		Select("quantity").
		Where("id = ?", stockID).
		First(&stock).Error
	if err != nil {
		return 0, err
	}

	return stock.Quantity, nil
}

func (r *stockRepoImpl) Upsert(ctx context.Context, stock *model.Stock) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "size"}, {Name: "color"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"product_type":        stock.ProductType,
			"quantity":            stock.Quantity,
			"low_stock_threshold": stock.LowStockThreshold,
			"updated_at":          time.Now().UTC(),
		}),
	}).Create(stock).Error
}

func (r *stockRepoImpl) List(ctx context.Context) ([]*model.Stock, error) {
	var stocks []*model.Stock

	err := r.db.WithContext(ctx).Order("size, color").Find(&stocks).Error
	if err != nil {
		return nil, err
	}

	return stocks, nil
}

func (r *stockRepoImpl) ListLow(ctx context.Context) ([]*model.Stock, error) {
	var stocks []*model.Stock

	err := r.db.WithContext(ctx).
		Where("quantity <= low_stock_threshold").
		Order("quantity").
		Find(&stocks).Error
	if err != nil {
		return nil, err
	}

	return stocks, nil
}
