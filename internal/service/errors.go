package service

import "errors"

var (
	ErrGatewayDisabled      = errors.New("phonepe payments are currently disabled")
	ErrConfigurationMissing = errors.New("payment gateway credentials are not configured")
	ErrGatewayError         = errors.New("payment gateway error")

	ErrValidation           = errors.New("validation failed")
	ErrMalformedCallback    = errors.New("malformed callback payload")
	ErrUnauthorizedCallback = errors.New("callback authorization mismatch")

	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderAlreadyPaid        = errors.New("order is already paid")
	ErrCODDisabled             = errors.New("cash on delivery is currently disabled")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrCartItemNotFound        = errors.New("cart item not found")
)
