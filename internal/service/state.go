package service

import (
	"context"
	"strings"
	"time"

	"anime-storefront/internal/model"
)

var successStates = map[string]struct{}{
	"COMPLETED":       {},
	"SUCCESS":         {},
	"PAYMENT_SUCCESS": {},
}

var failedStates = map[string]struct{}{
	"FAILED":               {},
	"FAILURE":              {},
	"PAYMENT_ERROR":        {},
	"PAYMENT_DECLINED":     {},
	"PAYMENT_CANCELLED":    {},
	"CANCELLED":            {},
	"TIMED_OUT":            {},
	"PAYMENT_FAILED":       {},
	"AUTHORIZATION_FAILED": {},
	"EXPIRED":              {},
}

// MapGatewayState collapses gateway state and response-code vocabulary onto the
// internal status. The first non-empty value decides; anything unknown is PENDING.
func MapGatewayState(values ...string) model.TransactionStatus {
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := successStates[v]; ok {
			return model.TransactionStatusSuccess
		}
		if _, ok := failedStates[v]; ok {
			return model.TransactionStatusFailed
		}
		return model.TransactionStatusPending
	}
	return model.TransactionStatusPending
}

// resolvedState is one source's view of a payment outcome.
type resolvedState struct {
	State                string
	Code                 string
	Message              string
	GatewayTransactionID string
	Raw                  string
	Source               string
}

func (r *resolvedState) status() model.TransactionStatus {
	return MapGatewayState(r.State, r.Code)
}

// stateResolver returns nil when its source has nothing to say.
type stateResolver struct {
	name    string
	resolve func(ctx context.Context) (*resolvedState, error)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
