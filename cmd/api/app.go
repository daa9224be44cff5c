package main

import (
	"context"
	"fmt"

	"anime-storefront/internal/client"
	"anime-storefront/internal/config"
	"anime-storefront/internal/logger"
	"anime-storefront/internal/repository"
	"anime-storefront/internal/server"
	"anime-storefront/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	db       *gorm.DB
	services server.Services
}

// openDB loads config, connects and migrates. Shared by every subcommand.
func openDB() (*config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	log := logger.New(cfg.Log)

	db, err := client.InitDB(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := client.Migrate(db); err != nil {
		return nil, nil, nil, err
	}

	return cfg, log, db, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, log, db, err := openDB()
	if err != nil {
		return nil, err
	}

	orderRepo := repository.NewOrderRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	cartRepo := repository.NewCartRepository(db)
	stockRepo := repository.NewStockRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	if err := settingRepo.SeedDefaults(ctx); err != nil {
		return nil, fmt.Errorf("seed settings: %w", err)
	}

	pricing, err := service.NewCheckoutPricing(cfg.Checkout)
	if err != nil {
		return nil, err
	}

	phonePeClient := client.NewPhonePeClient(&cfg.PhonePe)
	braintreeClient := client.NewBraintreeClient(&cfg.BrainTree)
	if !phonePeClient.Configured() {
		log.Warn("phonepe credentials missing, running in demo mode")
	}

	settingsService := service.NewPaymentSettingsService(settingRepo, cfg.Payment.SettingsCacheTTL, nil, log)
	stockService := service.NewStockService(db, orderRepo, stockRepo, log)
	cleanupService := service.NewCleanupService(orderRepo, cfg.Cleanup.PendingTimeout, nil, log)

	paymentService := service.NewPaymentService(
		db,
		phonePeClient,
		braintreeClient,
		settingsService,
		stockService,
		orderRepo,
		txnRepo,
		cartRepo,
		service.PaymentOptions{
			BaseURL:             cfg.BaseURL,
			FrontendURL:         cfg.FrontendURL,
			RedirectStatusDelay: cfg.Payment.RedirectStatusDelay,
			CallbackUsername:    cfg.PhonePe.CallbackUsername,
			CallbackPassword:    cfg.PhonePe.CallbackPassword,
		},
		log,
	)

	return &app{
		cfg: cfg,
		log: log,
		db:  db,
		services: server.Services{
			Payment:  paymentService,
			Settings: settingsService,
			Order:    service.NewOrderService(orderRepo, cartRepo, settingsService, stockService, pricing, log),
			Cart:     service.NewCartService(cartRepo, log),
			Cleanup:  cleanupService,
			Stock:    stockService,
		},
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
