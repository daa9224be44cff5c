package repository

import (
	"context"
	"time"

	"anime-storefront/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*model.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	FindByIDs(ctx context.Context, ids []uint) ([]*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)

	MarkPaymentSucceeded(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	MarkPaymentFailed(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	UpdateStatus(ctx context.Context, id uint, from, to model.OrderStatus, fields map[string]interface{}) (bool, error)

	AcquireStockAdjustment(ctx context.Context, id uint) (bool, error)
	ReleaseStockAdjustment(ctx context.Context, id uint) error

	FindPendingPaymentBefore(ctx context.Context, cutoff time.Time) ([]uint, error)
	CancelPendingPayment(ctx context.Context, ids []uint, note string) (int64, error)
	CountPendingPayment(ctx context.Context, before *time.Time) (int64, error)
}

// statuses a late successful payment must not pull back to PAID
var progressedStatuses = []model.OrderStatus{
	model.OrderStatusConfirmed,
	model.OrderStatusProcessing,
	model.OrderStatusShipped,
	model.OrderStatusDelivered,
}

// statuses a failed payment attempt may move back to PENDING_PAYMENT
var awaitingPaymentStatuses = []model.OrderStatus{
	model.OrderStatusPending,
	model.OrderStatusPendingPayment,
	model.OrderStatusPaymentFailed,
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return r.conn(tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*model.Order, error) {
	var order model.Order
	err := r.conn(tx).WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByIDs(ctx context.Context, ids []uint) ([]*model.Order, error) {
	var orders []*model.Order
	if len(ids) == 0 {
		return orders, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) MarkPaymentSucceeded(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	result := r.conn(tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status NOT IN ?", id, progressedStatuses).
		Updates(map[string]interface{}{
			"status":         model.OrderStatusPaid,
			"payment_status": model.PaymentStatusCompleted,
			"updated_at":     time.Now().UTC(),
		})

	return result.RowsAffected > 0, result.Error
}

// MarkPaymentFailed reverts the order so the customer can retry. Only orders still
// awaiting payment match; paid, progressed and cancelled orders are left alone.
func (r *orderRepoImpl) MarkPaymentFailed(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	result := r.conn(tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ? AND payment_status <> ?", id, awaitingPaymentStatuses, model.PaymentStatusCompleted).
		Updates(map[string]interface{}{
			"status":         model.OrderStatusPendingPayment,
			"payment_status": model.PaymentStatusFailed,
			"updated_at":     time.Now().UTC(),
		})

	return result.RowsAffected > 0, result.Error
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, id uint, from, to model.OrderStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)

	return result.RowsAffected > 0, result.Error
}

// AcquireStockAdjustment flips stock_adjusted false -> true in a single conditional
// update. Exactly one concurrent caller sees true. Test-mode orders never match.
func (r *orderRepoImpl) AcquireStockAdjustment(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND stock_adjusted = ? AND test_mode = ?", id, false, false).
		Update("stock_adjusted", true)

	return result.RowsAffected == 1, result.Error
}

func (r *orderRepoImpl) ReleaseStockAdjustment(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Update("stock_adjusted", false).Error
}

func (r *orderRepoImpl) FindPendingPaymentBefore(ctx context.Context, cutoff time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ? AND order_date < ?", model.OrderStatusPendingPayment, cutoff).
		Pluck("id", &ids).Error

	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *orderRepoImpl) CancelPendingPayment(ctx context.Context, ids []uint, note string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id IN ? AND status = ?", ids, model.OrderStatusPendingPayment).
		Updates(map[string]interface{}{
			"status":         model.OrderStatusCancelled,
			"payment_status": model.PaymentStatusFailed,
			"notes":          note,
			"updated_at":     time.Now().UTC(),
		})

	return result.RowsAffected, result.Error
}

func (r *orderRepoImpl) CountPendingPayment(ctx context.Context, before *time.Time) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ?", model.OrderStatusPendingPayment)
	if before != nil {
		q = q.Where("order_date < ?", *before)
	}

	err := q.Count(&count).Error
	return count, err
}
