package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"anime-storefront/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTTPError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad amount", service.ErrValidation), http.StatusBadRequest},
		{service.ErrOrderNotFound, http.StatusNotFound},
		{service.ErrCartItemNotFound, http.StatusNotFound},
		{service.ErrOrderAlreadyPaid, http.StatusConflict},
		{service.ErrInvalidStatusTransition, http.StatusConflict},
		{service.ErrCODDisabled, http.StatusForbidden},
		{service.ErrConfigurationMissing, http.StatusBadRequest},
		{fmt.Errorf("%w: timeout", service.ErrGatewayError), http.StatusBadGateway},
	}

	for _, tc := range cases {
		var he *echo.HTTPError
		require.True(t, errors.As(toHTTPError(tc.err), &he), tc.err.Error())
		assert.Equal(t, tc.want, he.Code, tc.err.Error())
		assert.ErrorIs(t, he.Internal, tc.err)
	}

	plain := errors.New("db down")
	assert.Equal(t, plain, toHTTPError(plain))
}
