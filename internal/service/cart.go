package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anime-storefront/internal/dto"
	"anime-storefront/internal/model"
	"anime-storefront/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (*model.Cart, error)
	AddItem(ctx context.Context, userID string, req *dto.CartItemRequest) (*model.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, productID string, req *dto.UpdateCartItemRequest) (*model.Cart, error)
	RemoveItem(ctx context.Context, userID, productID, size, color string) (*model.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type cartServiceImpl struct {
	cartRepo repository.CartRepository
	log      logrus.FieldLogger
}

func NewCartService(cartRepo repository.CartRepository, log logrus.FieldLogger) CartService {
	return &cartServiceImpl{
		cartRepo: cartRepo,
		log:      log,
	}
}

func emptyCart(userID string) *model.Cart {
	return &model.Cart{UserID: userID, Items: []model.CartItem{}}
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := s.cartRepo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return cart, nil
}

func (s *cartServiceImpl) store(ctx context.Context, userID string, items []model.CartItem) (*model.Cart, error) {
	cart, err := s.cartRepo.Replace(ctx, userID, items)
	if err != nil {
		return nil, fmt.Errorf("store cart: %w", err)
	}
	if cart == nil {
		return emptyCart(userID), nil
	}
	return cart, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID string, req *dto.CartItemRequest) (*model.Cart, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	size, color := strings.TrimSpace(req.Size), strings.TrimSpace(req.Color)
	items := cart.Items
	merged := false
	for i := range items {
		if items[i].SameLine(req.ProductID, size, color) {
			items[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		inStock := true
		if req.InStock != nil {
			inStock = *req.InStock
		}
		items = append(items, model.CartItem{
			ProductID: req.ProductID,
			Name:      req.Name,
			Price:     req.Price,
			Image:     req.Image,
			Category:  req.Category,
			Size:      size,
			Color:     color,
			Quantity:  req.Quantity,
			InStock:   inStock,
		})
	}

	return s.store(ctx, userID, items)
}

func (s *cartServiceImpl) UpdateItemQuantity(ctx context.Context, userID, productID string, req *dto.UpdateCartItemRequest) (*model.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	size, color := strings.TrimSpace(req.Size), strings.TrimSpace(req.Color)
	items := make([]model.CartItem, 0, len(cart.Items))
	found := false
	for _, item := range cart.Items {
		if item.SameLine(productID, size, color) {
			found = true
			if req.Quantity < 1 {
				continue
			}
			item.Quantity = req.Quantity
		}
		items = append(items, item)
	}
	if !found {
		return nil, ErrCartItemNotFound
	}

	return s.store(ctx, userID, items)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, productID, size, color string) (*model.Cart, error) {
	return s.UpdateItemQuantity(ctx, userID, productID, &dto.UpdateCartItemRequest{
		Size:     size,
		Color:    color,
		Quantity: 0,
	})
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, userID string) error {
	if _, err := s.cartRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
