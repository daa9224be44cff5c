package handler

import (
	"errors"
	"net/http"

	"anime-storefront/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs go-playground/validator into echo's c.Validate.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	return c.Validate(req)
}

// toHTTPError maps service errors onto status codes. Unknown errors pass through
// and surface as 500 from echo's error handler.
func toHTTPError(err error) error {
	status := 0
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrCartItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrOrderAlreadyPaid), errors.Is(err, service.ErrInvalidStatusTransition):
		status = http.StatusConflict
	case errors.Is(err, service.ErrCODDisabled), errors.Is(err, service.ErrGatewayDisabled):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConfigurationMissing):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorizedCallback):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrGatewayError):
		status = http.StatusBadGateway
	}

	if status == 0 {
		return err
	}
	return echo.NewHTTPError(status, err.Error()).SetInternal(err)
}
