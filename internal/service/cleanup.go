package service

import (
	"context"
	"fmt"
	"time"

	"anime-storefront/internal/model"
	"anime-storefront/internal/repository"

	"github.com/sirupsen/logrus"
)

const DefaultPendingTimeout = 2 * time.Hour

type CleanupResult struct {
	CancelledCount int64          `json:"cancelledCount"`
	Orders         []*model.Order `json:"orders"`
	Cutoff         time.Time      `json:"cutoff"`
}

type PendingOrderStats struct {
	TotalPending   int64     `json:"totalPending"`
	ExpiredPending int64     `json:"expiredPending"`
	RecentPending  int64     `json:"recentPending"`
	Timeout        string    `json:"timeout"`
	Cutoff         time.Time `json:"cutoff"`
}

// CleanupService reclaims orders abandoned in PENDING_PAYMENT. The scheduler and
// the admin endpoints share it, so both paths cancel the same way.
type CleanupService interface {
	CancelExpiredPendingOrders(ctx context.Context) (*CleanupResult, error)
	GetPendingOrderStats(ctx context.Context) (*PendingOrderStats, error)
}

type cleanupServiceImpl struct {
	orderRepo repository.OrderRepository
	timeout   time.Duration
	now       func() time.Time
	log       logrus.FieldLogger
}

func NewCleanupService(
	orderRepo repository.OrderRepository,
	timeout time.Duration,
	now func() time.Time,
	log logrus.FieldLogger,
) CleanupService {
	if timeout <= 0 {
		timeout = DefaultPendingTimeout
	}
	if now == nil {
		now = time.Now
	}

	return &cleanupServiceImpl{
		orderRepo: orderRepo,
		timeout:   timeout,
		now:       now,
		log:       log,
	}
}

func (s *cleanupServiceImpl) cutoff() time.Time {
	return s.now().UTC().Add(-s.timeout)
}

func (s *cleanupServiceImpl) CancelExpiredPendingOrders(ctx context.Context) (*CleanupResult, error) {
	cutoff := s.cutoff()

	ids, err := s.orderRepo.FindPendingPaymentBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find expired pending orders: %w", err)
	}

	result := &CleanupResult{Cutoff: cutoff, Orders: []*model.Order{}}
	if len(ids) == 0 {
		return result, nil
	}

	note := fmt.Sprintf("Automatically cancelled: payment not completed within %s", s.timeout)
	count, err := s.orderRepo.CancelPendingPayment(ctx, ids, note)
	if err != nil {
		return nil, fmt.Errorf("cancel expired pending orders: %w", err)
	}
	result.CancelledCount = count

	// report only the rows this sweep actually moved
	orders, err := s.orderRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reload cancelled orders: %w", err)
	}
	for _, o := range orders {
		if o.Status == model.OrderStatusCancelled && o.Notes == note {
			result.Orders = append(result.Orders, o)
		}
	}

	s.log.WithFields(logrus.Fields{
		"cancelled": count,
		"cutoff":    cutoff,
	}).Info("cancelled expired pending orders")

	return result, nil
}

func (s *cleanupServiceImpl) GetPendingOrderStats(ctx context.Context) (*PendingOrderStats, error) {
	cutoff := s.cutoff()

	total, err := s.orderRepo.CountPendingPayment(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count pending orders: %w", err)
	}

	expired, err := s.orderRepo.CountPendingPayment(ctx, &cutoff)
	if err != nil {
		return nil, fmt.Errorf("count expired pending orders: %w", err)
	}

	return &PendingOrderStats{
		TotalPending:   total,
		ExpiredPending: expired,
		RecentPending:  total - expired,
		Timeout:        s.timeout.String(),
		Cutoff:         cutoff,
	}, nil
}
