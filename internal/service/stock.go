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

type StockService interface {
	// ReduceStockForOrder applies the order's size/color lines to shared stock at
	// most once. It reports whether this call performed the adjustment.
	ReduceStockForOrder(ctx context.Context, orderID uint) (bool, error)
	ListStock(ctx context.Context) ([]*model.Stock, error)
	ListLowStock(ctx context.Context) ([]*model.Stock, error)
	SetStock(ctx context.Context, req *dto.StockRequest) (*model.Stock, error)
}

type stockServiceImpl struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	stockRepo repository.StockRepository
	log       logrus.FieldLogger
}

func NewStockService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	stockRepo repository.StockRepository,
	log logrus.FieldLogger,
) StockService {
	return &stockServiceImpl{
		db:        db,
		orderRepo: orderRepo,
		stockRepo: stockRepo,
		log:       log,
	}
}

// ProductTypeForCategory maps a free-form catalog category onto the apparel
// bucket used by shared stock. Non-apparel categories return "".
func ProductTypeForCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))

	switch {
	case c == "":
		return ""
	case strings.Contains(c, "hood"):
		return "hoodie"
	case strings.Contains(c, "sweat"):
		return "sweatshirt"
	case strings.Contains(c, "jacket"):
		return "jacket"
	case strings.Contains(c, "shirt"), strings.Contains(c, "tee"), strings.Contains(c, "top"):
		return "tshirt"
	case strings.Contains(c, "jogger"), strings.Contains(c, "pant"), strings.Contains(c, "trouser"):
		return "pants"
	case strings.Contains(c, "short"):
		return "shorts"
	case strings.Contains(c, "cap"), strings.Contains(c, "beanie"):
		return "cap"
	case strings.Contains(c, "apparel"), strings.Contains(c, "cloth"):
		return "apparel"
	}

	return ""
}

func normalizeVariant(size, color string) (string, string) {
	return strings.ToUpper(strings.TrimSpace(size)), strings.ToLower(strings.TrimSpace(color))
}

func (s *stockServiceImpl) ReduceStockForOrder(ctx context.Context, orderID uint) (bool, error) {
	log := s.log.WithField("order_id", orderID)

	acquired, err := s.orderRepo.AcquireStockAdjustment(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("flip stock adjusted flag: %w", err)
	}
	if !acquired {
		log.Debug("stock already adjusted, test mode or missing order, skipping")
		return false, nil
	}

	err = s.applyOrderLines(ctx, orderID, log)
	if err != nil {
		// let a later call retry; the adjustment ledger keeps applied lines from repeating
		if releaseErr := s.orderRepo.ReleaseStockAdjustment(ctx, orderID); releaseErr != nil {
			log.WithError(releaseErr).Error("reset stock adjusted flag")
		}
		return false, fmt.Errorf("reduce stock for order %d: %w", orderID, err)
	}

	return true, nil
}

func (s *stockServiceImpl) applyOrderLines(ctx context.Context, orderID uint, log logrus.FieldLogger) error {
	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if !item.HasVariant() {
				continue
			}

			productType := ProductTypeForCategory(item.Category)
			if productType == "" {
				continue
			}

			size, color := normalizeVariant(item.Size, item.Color)
			itemLog := log.WithFields(logrus.Fields{"size": size, "color": color, "product_id": item.ProductID})

			stock, err := s.stockRepo.FindVariant(ctx, tx, size, color)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				itemLog.Warn("no stock row for variant")
				continue
			}
			if err != nil {
				return fmt.Errorf("find stock %s/%s: %w", size, color, err)
			}

			if stock.ProductType != "" && stock.ProductType != productType {
				itemLog.WithField("stock_product_type", stock.ProductType).Warn("stock row belongs to another product type")
				continue
			}

			recorded, err := s.stockRepo.RecordAdjustment(ctx, tx, &model.StockAdjustment{
				OrderID:     order.ID,
				OrderItemID: item.ID,
				StockID:     stock.ID,
				Quantity:    item.Quantity,
			})
			if err != nil {
				return fmt.Errorf("record stock adjustment: %w", err)
			}
			if !recorded {
				continue
			}

			remaining, err := s.stockRepo.Decrement(ctx, tx, stock.ID, item.Quantity)
			if err != nil {
				return fmt.Errorf("update stock %s/%s: %w", size, color, err)
			}

			itemLog.WithFields(logrus.Fields{"reduced_by": item.Quantity, "remaining": remaining}).Info("stock reduced")
			if remaining <= stock.LowStockThreshold {
				itemLog.WithField("quantity", remaining).Warn("stock is low")
			}
		}

		return nil
	})
}

func (s *stockServiceImpl) ListStock(ctx context.Context) ([]*model.Stock, error) {
	return s.stockRepo.List(ctx)
}

func (s *stockServiceImpl) ListLowStock(ctx context.Context) ([]*model.Stock, error) {
	return s.stockRepo.ListLow(ctx)
}

func (s *stockServiceImpl) SetStock(ctx context.Context, req *dto.StockRequest) (*model.Stock, error) {
	if req.Quantity < 0 || req.LowStockThreshold < 0 {
		return nil, fmt.Errorf("%w: quantities must not be negative", ErrValidation)
	}

	size, color := normalizeVariant(req.Size, req.Color)
	if size == "" || color == "" {
		return nil, fmt.Errorf("%w: size and color are required", ErrValidation)
	}

	stock := &model.Stock{
		Size:              size,
		Color:             color,
		ProductType:       strings.ToLower(strings.TrimSpace(req.ProductType)),
		Quantity:          req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
	}
	if err := s.stockRepo.Upsert(ctx, stock); err != nil {
		return nil, fmt.Errorf("upsert stock: %w", err)
	}

	return s.stockRepo.FindVariant(ctx, s.db, size, color)
}
