package handler

import (
	"context"
	"net/http"

	"anime-storefront/internal/dto"
	"anime-storefront/internal/model"
	"anime-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type CleanupScheduler interface {
	Status() dto.SchedulerStatus
	RunNow(ctx context.Context) (*service.CleanupResult, error)
}

type AdminHandler struct {
	cleanupService  service.CleanupService
	scheduler       CleanupScheduler
	settingsService service.PaymentSettingsService
	stockService    service.StockService
}

func NewAdminHandler(
	cleanupService service.CleanupService,
	scheduler CleanupScheduler,
	settingsService service.PaymentSettingsService,
	stockService service.StockService,
) *AdminHandler {
	return &AdminHandler{
		cleanupService:  cleanupService,
		scheduler:       scheduler,
		settingsService: settingsService,
		stockService:    stockService,
	}
}

func (h *AdminHandler) PendingStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.cleanupService.GetPendingOrderStats(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) Cleanup(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.cleanupService.CancelExpiredPendingOrders(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) SchedulerStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

func (h *AdminHandler) ForceCleanup(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.scheduler.RunNow(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) UpdatePaymentSettings(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdatePaymentSettingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.PhonePeEnabled == nil && req.CODEnabled == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	if err := h.settingsService.UpdatePaymentSettings(ctx, req.PhonePeEnabled, req.CODEnabled); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.PaymentMethodsResponse{
		PhonePe: h.settingsService.IsPhonepeEnabled(ctx),
		COD:     h.settingsService.IsCODEnabled(ctx),
	})
}

func (h *AdminHandler) ListStock(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		stocks []*model.Stock
		err    error
	)
	if c.QueryParam("low") == "true" {
		stocks, err = h.stockService.ListLowStock(ctx)
	} else {
		stocks, err = h.stockService.ListStock(ctx)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stocks)
}

func (h *AdminHandler) SetStock(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.StockRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	stock, err := h.stockService.SetStock(ctx, &req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, stock)
}
