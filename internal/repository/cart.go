package repository

import (
	"context"
	"errors"
	"time"

	"anime-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	FindByUser(ctx context.Context, userID string) (*model.Cart, error)
	// Replace stores items as the user's full cart; an empty list deletes the cart.
	Replace(ctx context.Context, userID string, items []model.CartItem) (*model.Cart, error)
	DeleteByUser(ctx context.Context, userID string) (bool, error)
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) FindByUser(ctx context.Context, userID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		First(&cart).Error

	if err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *cartRepoImpl) Replace(ctx context.Context, userID string, items []model.CartItem) (*model.Cart, error) {
	if len(items) == 0 {
		_, err := r.DeleteByUser(ctx, userID)
		return nil, err
	}

	cart := &model.Cart{UserID: userID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"updated_at": time.Now().UTC(),
			}),
		}).Create(cart).Error
		if err != nil {
			return err
		}

		// the upsert does not reliably report the id of an existing row
		var stored model.Cart
		if err := tx.Where("user_id = ?", userID).First(&stored).Error; err != nil {
			return err
		}
		*cart = stored

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}

		fresh := make([]model.CartItem, len(items))
		for i, item := range items {
			item.ID = 0
			item.CartID = cart.ID
			fresh[i] = item
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}
		cart.Items = fresh

		return nil
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *cartRepoImpl) DeleteByUser(ctx context.Context, userID string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart model.Cart
		err := tx.Where("user_id = ?", userID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&cart).Error; err != nil {
			return err
		}

		deleted = true
		return nil
	})

	return deleted, err
}
