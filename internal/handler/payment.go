package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"anime-storefront/internal/dto"
	"anime-storefront/internal/middleware"
	"anime-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService  service.PaymentService
	settingsService service.PaymentSettingsService
}

func NewPaymentHandler(paymentService service.PaymentService, settingsService service.PaymentSettingsService) *PaymentHandler {
	return &PaymentHandler{
		paymentService:  paymentService,
		settingsService: settingsService,
	}
}

func (h *PaymentHandler) Methods(c echo.Context) error {
	ctx := c.Request().Context()

	return c.JSON(http.StatusOK, &dto.PaymentMethodsResponse{
		PhonePe: h.settingsService.IsPhonepeEnabled(ctx),
		COD:     h.settingsService.IsCODEnabled(ctx),
	})
}

func (h *PaymentHandler) Initiate(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.InitiatePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.paymentService.InitiatePayment(ctx, middleware.UserID(c), &req)
	switch {
	case errors.Is(err, service.ErrGatewayDisabled):
		return c.JSON(http.StatusForbidden, map[string]interface{}{
			"success":         false,
			"phonepeDisabled": true,
			"message":         err.Error(),
		})
	case errors.Is(err, service.ErrConfigurationMissing):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success":   false,
			"demo_mode": true,
			"message":   "PhonePe is running in demo mode, configure credentials to accept payments",
		})
	case err != nil:
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	err = h.paymentService.HandleCallback(ctx, c.Request().Header.Get(echo.HeaderAuthorization), body)
	if errors.Is(err, service.ErrUnauthorizedCallback) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized callback"})
	}
	if err != nil {
		// the gateway retries on non-2xx
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "callback processing failed"})
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *PaymentHandler) Redirect(c echo.Context) error {
	ctx := c.Request().Context()

	var body url.Values
	if c.Request().Method == http.MethodPost {
		form, err := c.FormParams()
		if err == nil {
			body = form
		}
	}

	location := h.paymentService.HandleRedirect(ctx, c.QueryParams(), body)
	return c.Redirect(http.StatusFound, location)
}

func (h *PaymentHandler) Status(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.paymentService.CheckStatus(ctx, c.Param("merchantTransactionId"))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) Refund(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RefundRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.paymentService.Refund(ctx, &req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) RefundStatus(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.paymentService.CheckRefundStatus(ctx, c.Param("refundId"))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) PayWithCard(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CardPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.paymentService.PayWithCard(ctx, middleware.UserID(c), &req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}
