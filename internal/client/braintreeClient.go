package client

import (
	"context"
	"errors"
	"fmt"

	"anime-storefront/internal/config"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

var ErrCardDeclined = errors.New("card payment declined")

type BraintreeClient interface {
	Configured() bool

	// ChargeNonce charges a frontend payment nonce and settles it immediately.
	// A declined card returns the gateway transaction id together with ErrCardDeclined.
	ChargeNonce(ctx context.Context, nonce string, amount decimal.Decimal, orderNumber string) (string, error)
}

type braintreeClientImpl struct {
	gateway    *braintree.Braintree
	configured bool
}

func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway:    gateway,
		configured: cfg.MerchantID != "" && cfg.PublicKey != "" && cfg.PrivateKey != "",
	}
}

func (c *braintreeClientImpl) Configured() bool {
	return c.configured
}

func (c *braintreeClientImpl) ChargeNonce(ctx context.Context, nonce string, amount decimal.Decimal, orderNumber string) (string, error) {
	// Braintree expects NewDecimal(unscaled, scale): "499.00" -> NewDecimal(49900, 2)
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()

	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(cents, 2),
		PaymentMethodNonce: nonce,
		OrderId:            orderNumber,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transaction creation failed: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined || tx.Status == braintree.TransactionStatusGatewayRejected {
		return tx.Id, fmt.Errorf("%w: %s", ErrCardDeclined, tx.ProcessorResponseText)
	}

	return tx.Id, nil
}
