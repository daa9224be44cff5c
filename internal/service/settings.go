package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"anime-storefront/internal/model"
	"anime-storefront/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FlagCache holds one boolean loaded from persistent settings for ttl.
// Load failures return the fallback and are not cached.
type FlagCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	load     func(ctx context.Context) (bool, error)
	fallback bool

	value    bool
	loadedAt time.Time
	valid    bool
}

func NewFlagCache(ttl time.Duration, now func() time.Time, fallback bool, load func(ctx context.Context) (bool, error)) *FlagCache {
	if now == nil {
		now = time.Now
	}
	return &FlagCache{
		ttl:      ttl,
		now:      now,
		load:     load,
		fallback: fallback,
	}
}

func (c *FlagCache) Get(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.loadedAt) < c.ttl {
		return c.value, nil
	}

	value, err := c.load(ctx)
	if err != nil {
		c.valid = false
		return c.fallback, err
	}

	c.value = value
	c.loadedAt = c.now()
	c.valid = true
	return value, nil
}

func (c *FlagCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

type PaymentSettingsService interface {
	IsPhonepeEnabled(ctx context.Context) bool
	IsCODEnabled(ctx context.Context) bool
	ClearPhonepeCache()
	ClearCODCache()
	UpdatePaymentSettings(ctx context.Context, phonePeEnabled, codEnabled *bool) error
}

type paymentSettingsServiceImpl struct {
	settingRepo repository.SettingRepository
	phonePe     *FlagCache
	cod         *FlagCache
	log         logrus.FieldLogger
}

func NewPaymentSettingsService(
	settingRepo repository.SettingRepository,
	ttl time.Duration,
	now func() time.Time,
	log logrus.FieldLogger,
) PaymentSettingsService {
	s := &paymentSettingsServiceImpl{
		settingRepo: settingRepo,
		log:         log,
	}

	// PhonePe moves real money: fail closed. COD is store policy: fail open.
	s.phonePe = NewFlagCache(ttl, now, false, s.loader(model.SettingPhonePeEnabled))
	s.cod = NewFlagCache(ttl, now, true, s.loader(model.SettingCODEnabled))

	return s
}

// loader treats a setting that was never written as enabled.
func (s *paymentSettingsServiceImpl) loader(key string) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		enabled, err := s.settingRepo.GetBool(ctx, key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("load setting %s: %w", key, err)
		}
		return enabled, nil
	}
}

func (s *paymentSettingsServiceImpl) IsPhonepeEnabled(ctx context.Context) bool {
	enabled, err := s.phonePe.Get(ctx)
	if err != nil {
		s.log.WithError(err).Warn("phonepe setting unavailable, treating as disabled")
	}
	return enabled
}

func (s *paymentSettingsServiceImpl) IsCODEnabled(ctx context.Context) bool {
	enabled, err := s.cod.Get(ctx)
	if err != nil {
		s.log.WithError(err).Warn("cod setting unavailable, treating as enabled")
	}
	return enabled
}

func (s *paymentSettingsServiceImpl) ClearPhonepeCache() {
	s.phonePe.Invalidate()
}

func (s *paymentSettingsServiceImpl) ClearCODCache() {
	s.cod.Invalidate()
}

func (s *paymentSettingsServiceImpl) UpdatePaymentSettings(ctx context.Context, phonePeEnabled, codEnabled *bool) error {
	if phonePeEnabled != nil {
		if err := s.settingRepo.SetBool(ctx, model.SettingPhonePeEnabled, *phonePeEnabled); err != nil {
			return fmt.Errorf("store phonepe setting: %w", err)
		}
		s.ClearPhonepeCache()
	}

	if codEnabled != nil {
		if err := s.settingRepo.SetBool(ctx, model.SettingCODEnabled, *codEnabled); err != nil {
			return fmt.Errorf("store cod setting: %w", err)
		}
		s.ClearCODCache()
	}

	return nil
}
