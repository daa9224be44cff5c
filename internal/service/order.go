package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"anime-storefront/internal/config"
	"anime-storefront/internal/dto"
	"anime-storefront/internal/model"
	"anime-storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const orderNumberAttempts = 5

// allowed admin progressions; payment-driven moves go through ApplyStateTransition
var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:        {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusPendingPayment: {model.OrderStatusCancelled},
	model.OrderStatusPaid:           {model.OrderStatusConfirmed, model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusConfirmed:      {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing:     {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:        {model.OrderStatusDelivered},
	model.OrderStatusPaymentFailed:  {model.OrderStatusCancelled},
}

func canTransition(from, to model.OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type CheckoutPricing struct {
	ShippingCost          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	CODFee                decimal.Decimal
}

func NewCheckoutPricing(cfg config.Checkout) (CheckoutPricing, error) {
	var (
		p   CheckoutPricing
		err error
	)
	if p.ShippingCost, err = decimal.NewFromString(cfg.ShippingCost); err != nil {
		return p, fmt.Errorf("parse shipping cost: %w", err)
	}
	if p.FreeShippingThreshold, err = decimal.NewFromString(cfg.FreeShippingThreshold); err != nil {
		return p, fmt.Errorf("parse free shipping threshold: %w", err)
	}
	if p.CODFee, err = decimal.NewFromString(cfg.CODFee); err != nil {
		return p, fmt.Errorf("parse cod fee: %w", err)
	}
	return p, nil
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, userID, orderNumber string) (*model.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]*model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderNumber string, req *dto.UpdateOrderStatusRequest) (*model.Order, error)
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	settings  PaymentSettingsService
	stock     StockService
	pricing   CheckoutPricing
	log       logrus.FieldLogger

	now      func() time.Time
	randIntN func(n int) int
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	settings PaymentSettingsService,
	stock StockService,
	pricing CheckoutPricing,
	log logrus.FieldLogger,
) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		settings:  settings,
		stock:     stock,
		pricing:   pricing,
		log:       log,
		now:       time.Now,
		randIntN:  rand.Intn,
	}
}

func (s *orderServiceImpl) newOrderNumber(at time.Time) string {
	return fmt.Sprintf("ORD%s%04d", at.Format("060102"), s.randIntN(10000))
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrValidation)
	}

	method := model.PaymentMethod(req.PaymentMethod)
	if method == model.PaymentMethodCOD && !s.settings.IsCODEnabled(ctx) {
		return nil, ErrCODDisabled
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, it := range req.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("%w: invalid price for %s", ErrValidation, it.ProductID)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: invalid quantity for %s", ErrValidation, it.ProductID)
		}

		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		items = append(items, model.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     price,
			Quantity:  it.Quantity,
			Image:     it.Image,
			Category:  it.Category,
			Size:      strings.TrimSpace(it.Size),
			Color:     strings.TrimSpace(it.Color),
		})
	}

	shipping := s.pricing.ShippingCost
	if subtotal.GreaterThanOrEqual(s.pricing.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	fee := decimal.Zero
	status := model.OrderStatusPendingPayment
	if method == model.PaymentMethodCOD {
		fee = s.pricing.CODFee
		status = model.OrderStatusPending
	}

	addr := req.ShippingAddress
	now := s.now().UTC()
	order := &model.Order{
		UserID: userID,
		Items:  items,
		ShippingAddress: model.ShippingAddress{
			FullName:   addr.FullName,
			Phone:      addr.Phone,
			Email:      addr.Email,
			Line1:      addr.Line1,
			Line2:      addr.Line2,
			City:       addr.City,
			State:      addr.State,
			PostalCode: addr.PostalCode,
			Country:    firstNonEmpty(addr.Country, "India"),
		},
		PaymentMethod: method,
		Subtotal:      subtotal,
		ShippingCost:  shipping,
		MethodFee:     fee,
		Total:         subtotal.Add(shipping).Add(fee),
		Status:        status,
		PaymentStatus: model.PaymentStatusPending,
		Notes:         req.Notes,
		TestMode:      req.TestMode,
		OrderDate:     now,
	}

	var err error
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order.ID = 0
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = 0
		}
		order.OrderNumber = s.newOrderNumber(now)

		err = s.orderRepo.Create(ctx, nil, order)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		s.log.WithFields(logrus.Fields{
			"order_number": order.OrderNumber,
			"attempt":      attempt,
		}).Warn("order number collision, regenerating")
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{
		"order_number":   order.OrderNumber,
		"user_id":        userID,
		"payment_method": method,
	})
	log.Info("order created")

	// cash on delivery needs no payment confirmation
	if method == model.PaymentMethodCOD {
		if _, err := s.cartRepo.DeleteByUser(ctx, userID); err != nil {
			log.WithError(err).Error("clear cart after cod order")
		}
		if _, err := s.stock.ReduceStockForOrder(ctx, order.ID); err != nil {
			log.WithError(err).Error("reduce stock after cod order")
		}
	}

	return order, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, userID, orderNumber string) (*model.Order, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}

	return order, nil
}

func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, orderNumber string, req *dto.UpdateOrderStatusRequest) (*model.Order, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	to := model.OrderStatus(req.Status)
	if !canTransition(order.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, to)
	}

	fields := map[string]interface{}{}
	if req.TrackingNumber != "" {
		fields["tracking_number"] = req.TrackingNumber
	}
	if req.Notes != "" {
		fields["notes"] = req.Notes
	}
	if to == model.OrderStatusDelivered && order.PaymentMethod == model.PaymentMethodCOD {
		fields["payment_status"] = model.PaymentStatusCompleted
	}

	changed, err := s.orderRepo.UpdateStatus(ctx, order.ID, order.Status, to, fields)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !changed {
		// moved by someone else since we read it
		return nil, fmt.Errorf("%w: order status changed concurrently", ErrInvalidStatusTransition)
	}

	s.log.WithFields(logrus.Fields{
		"order_number": orderNumber,
		"from":         order.Status,
		"to":           to,
	}).Info("order status updated")

	return s.orderRepo.FindByOrderNumber(ctx, orderNumber)
}
