package repository

import (
	"context"
	"time"

	"anime-storefront/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) error
	// FindByAnyID matches the merchant transaction id or either gateway-assigned id.
	FindByAnyID(ctx context.Context, tx *gorm.DB, id string) (*model.Transaction, error)
	FindByMerchantID(ctx context.Context, merchantTransactionID string) (*model.Transaction, error)
	// UpdateState writes the new state unless the row already reached a different
	// terminal status. It reports whether the row was written.
	UpdateState(ctx context.Context, tx *gorm.DB, txn *model.Transaction) (bool, error)
}

type transactionRepoImpl struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepoImpl{db: db}
}

func (r *transactionRepoImpl) Create(ctx context.Context, txn *model.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepoImpl) FindByAnyID(ctx context.Context, tx *gorm.DB, id string) (*model.Transaction, error) {
	// gateway ids are empty until assigned, an empty key would match them
	if id == "" {
		return nil, gorm.ErrRecordNotFound
	}

	conn := r.db
	if tx != nil {
		conn = tx
	}

	var txn model.Transaction
	err := conn.WithContext(ctx).
		Where("merchant_transaction_id = ?", id).
		Or("gateway_transaction_id = ?", id).
		Or("gateway_order_id = ?", id).
		Order("id").
		First(&txn).Error

	if err != nil {
		return nil, err
	}

	return &txn, nil
}

func (r *transactionRepoImpl) FindByMerchantID(ctx context.Context, merchantTransactionID string) (*model.Transaction, error) {
	var txn model.Transaction
	err := r.db.WithContext(ctx).
		Where("merchant_transaction_id = ?", merchantTransactionID).
		First(&txn).Error

	if err != nil {
		return nil, err
	}

	return &txn, nil
}

func (r *transactionRepoImpl) UpdateState(ctx context.Context, tx *gorm.DB, txn *model.Transaction) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}

	result := conn.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND status IN ?", txn.ID, []model.TransactionStatus{model.TransactionStatusPending, txn.Status}).
		Updates(map[string]interface{}{
			"status":                 txn.Status,
			"gateway_transaction_id": txn.GatewayTransactionID,
			"response_code":          txn.ResponseCode,
			"response_message":       txn.ResponseMessage,
			"raw_payload":            txn.RawPayload,
			"updated_at":             time.Now().UTC(),
		})

	return result.RowsAffected > 0, result.Error
}
