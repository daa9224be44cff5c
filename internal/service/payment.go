package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"anime-storefront/internal/client"
	"anime-storefront/internal/dto"
	"anime-storefront/internal/model"
	"anime-storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultCurrency            = "INR"
	defaultRedirectStatusDelay = 1500 * time.Millisecond
	maxMerchantIDLength        = 63
)

type PaymentService interface {
	GatewayConfigured() bool
	InitiatePayment(ctx context.Context, userID string, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error)
	HandleCallback(ctx context.Context, authorization string, body []byte) error
	// HandleRedirect always returns a browser location, never an error.
	HandleRedirect(ctx context.Context, query, body url.Values) string
	CheckStatus(ctx context.Context, merchantTransactionID string) (*dto.PaymentStatusResponse, error)
	Refund(ctx context.Context, req *dto.RefundRequest) (*client.RefundResponse, error)
	CheckRefundStatus(ctx context.Context, refundID string) (*client.RefundResponse, error)
	PayWithCard(ctx context.Context, userID string, req *dto.CardPaymentRequest) (*dto.CardPaymentResponse, error)
	ApplyStateTransition(ctx context.Context, update StateUpdate) (*TransitionResult, error)
}

// StateUpdate is a gateway outcome from any entry point. ID may be the merchant
// transaction id or either gateway-assigned id.
type StateUpdate struct {
	ID                   string
	State                string
	Code                 string
	Message              string
	GatewayTransactionID string
	Raw                  string
	Source               string
}

type TransitionResult struct {
	Found       bool
	Status      model.TransactionStatus
	Transaction *model.Transaction
	OrderID     uint
	OrderNumber string
	// Ignored is set when a terminal transaction received a conflicting status.
	Ignored bool
}

type PaymentOptions struct {
	BaseURL             string
	FrontendURL         string
	RedirectStatusDelay time.Duration
	CallbackUsername    string
	CallbackPassword    string
}

type paymentServiceImpl struct {
	db        *gorm.DB
	phonePe   client.PhonePeClient
	braintree client.BraintreeClient
	settings  PaymentSettingsService
	stock     StockService
	orderRepo repository.OrderRepository
	txnRepo   repository.TransactionRepository
	cartRepo  repository.CartRepository
	opts      PaymentOptions
	log       logrus.FieldLogger
}

func NewPaymentService(
	db *gorm.DB,
	phonePe client.PhonePeClient,
	braintree client.BraintreeClient,
	settings PaymentSettingsService,
	stock StockService,
	orderRepo repository.OrderRepository,
	txnRepo repository.TransactionRepository,
	cartRepo repository.CartRepository,
	opts PaymentOptions,
	log logrus.FieldLogger,
) PaymentService {
	if opts.RedirectStatusDelay < 0 {
		opts.RedirectStatusDelay = defaultRedirectStatusDelay
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")

	return &paymentServiceImpl{
		db:        db,
		phonePe:   phonePe,
		braintree: braintree,
		settings:  settings,
		stock:     stock,
		orderRepo: orderRepo,
		txnRepo:   txnRepo,
		cartRepo:  cartRepo,
		opts:      opts,
		log:       log,
	}
}

func (s *paymentServiceImpl) GatewayConfigured() bool {
	return s.phonePe.Configured()
}

func newMerchantID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func validMerchantID(id string) bool {
	if id == "" || len(id) > maxMerchantIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// toPaise converts a rupee amount string to minor units.
func toPaise(amount string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, amount)
	}
	paise := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if paise <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return paise, nil
}

func (s *paymentServiceImpl) InitiatePayment(ctx context.Context, userID string, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
	if !s.settings.IsPhonepeEnabled(ctx) {
		return nil, ErrGatewayDisabled
	}
	if !s.phonePe.Configured() {
		return nil, ErrConfigurationMissing
	}

	amount, err := toPaise(req.Amount)
	if err != nil {
		return nil, err
	}

	merchantTxnID := strings.TrimSpace(req.MerchantTransactionID)
	if merchantTxnID == "" {
		merchantTxnID = newMerchantID("MT")
	}
	if !validMerchantID(merchantTxnID) {
		return nil, fmt.Errorf("%w: invalid merchant transaction id", ErrValidation)
	}

	log := s.log.WithFields(logrus.Fields{
		"merchant_transaction_id": merchantTxnID,
		"user_id":                 userID,
	})

	// order link is best-effort, the payment proceeds without it
	var orderID *uint
	orderNumber := strings.TrimSpace(req.OrderNumber)
	if orderNumber != "" {
		order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
		switch {
		case err != nil:
			log.WithError(err).WithField("order_number", orderNumber).Warn("could not resolve order for payment")
		case order.UserID != userID:
			log.WithField("order_number", orderNumber).Warn("order belongs to another user, not linking")
		case order.PaymentStatus == model.PaymentStatusCompleted:
			return nil, ErrOrderAlreadyPaid
		default:
			orderID = &order.ID
		}
	}

	redirectURL := req.RedirectURL
	if redirectURL == "" {
		q := url.Values{}
		q.Set("merchantTransactionId", merchantTxnID)
		if orderNumber != "" {
			q.Set("orderId", orderNumber)
		}
		redirectURL = s.opts.BaseURL + "/api/payments/phonepe/redirect?" + q.Encode()
	}
	callbackURL := req.CallbackURL
	if callbackURL == "" {
		callbackURL = s.opts.BaseURL + "/api/payments/phonepe/callback"
	}

	meta := map[string]string{"udf1": userID}
	if orderNumber != "" {
		meta["udf2"] = orderNumber
	}

	resp, err := s.phonePe.CreatePayment(ctx, &client.CreatePaymentRequest{
		MerchantOrderID: merchantTxnID,
		Amount:          amount,
		RedirectURL:     redirectURL,
		Message:         "Payment for " + firstNonEmpty(orderNumber, merchantTxnID),
		MetaInfo:        meta,
	})
	if err != nil {
		log.WithError(err).Error("phonepe create payment failed")
		return nil, fmt.Errorf("%w: %v", ErrGatewayError, err)
	}

	raw, _ := json.Marshal(resp)
	txn := &model.Transaction{
		MerchantTransactionID: merchantTxnID,
		GatewayOrderID:        resp.OrderID,
		OrderID:               orderID,
		UserID:                userID,
		Amount:                amount,
		Currency:              defaultCurrency,
		PaymentMethod:         model.PaymentMethodPhonePe,
		Status:                model.TransactionStatusPending,
		ResponseCode:          resp.State,
		RawPayload:            string(raw),
		RedirectURL:           redirectURL,
		CallbackURL:           callbackURL,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	log.WithField("gateway_order_id", resp.OrderID).Info("phonepe payment initiated")

	return &dto.InitiatePaymentResponse{
		Success:               true,
		RedirectURL:           resp.RedirectURL,
		MerchantTransactionID: merchantTxnID,
		GatewayOrderID:        resp.OrderID,
		OrderNumber:           orderNumber,
	}, nil
}

type callbackEnvelope struct {
	Response string `json:"response"`
}

type callbackPayload struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		MerchantOrderID       string `json:"merchantOrderId"`
		TransactionID         string `json:"transactionId"`
		State                 string `json:"state"`
		ResponseCode          string `json:"responseCode"`
	} `json:"data"`
}

func (s *paymentServiceImpl) authorizeCallback(authorization string) error {
	if s.opts.CallbackUsername == "" || s.opts.CallbackPassword == "" {
		return nil
	}

	sum := sha256.Sum256([]byte(s.opts.CallbackUsername + ":" + s.opts.CallbackPassword))
	expected := hex.EncodeToString(sum[:])

	got := strings.TrimSpace(authorization)
	got = strings.TrimPrefix(got, "SHA256 ")
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(got)), []byte(expected)) != 1 {
		return ErrUnauthorizedCallback
	}
	return nil
}

func decodeCallback(body []byte) (*callbackPayload, string, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	if env.Response == "" {
		return nil, "", fmt.Errorf("%w: missing response field", ErrMalformedCallback)
	}

	decoded, err := base64.StdEncoding.DecodeString(env.Response)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}

	var payload callbackPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, string(decoded), fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}

	return &payload, string(decoded), nil
}

func (s *paymentServiceImpl) HandleCallback(ctx context.Context, authorization string, body []byte) error {
	if err := s.authorizeCallback(authorization); err != nil {
		s.log.Warn("phonepe callback rejected: authorization mismatch")
		return err
	}

	payload, raw, err := decodeCallback(body)
	if err != nil {
		s.log.WithError(err).WithField("raw", raw).Error("phonepe callback could not be decoded")
		return err
	}

	id := firstNonEmpty(payload.Data.MerchantTransactionID, payload.Data.MerchantOrderID)
	if id == "" {
		s.log.WithField("raw", raw).Error("phonepe callback without merchant transaction id")
		return fmt.Errorf("%w: missing merchant transaction id", ErrMalformedCallback)
	}

	_, err = s.ApplyStateTransition(ctx, StateUpdate{
		ID:                   id,
		State:                firstNonEmpty(payload.Data.State, payload.Code),
		Code:                 firstNonEmpty(payload.Code, payload.Data.ResponseCode),
		Message:              payload.Message,
		GatewayTransactionID: payload.Data.TransactionID,
		Raw:                  raw,
		Source:               "callback",
	})
	return err
}

func (s *paymentServiceImpl) redirectTarget(path string, q url.Values) string {
	return s.opts.FrontendURL + path + "?" + q.Encode()
}

func (s *paymentServiceImpl) redirectError(code string) string {
	return s.redirectTarget("/dashboard", url.Values{"error": {code}})
}

func (s *paymentServiceImpl) redirectResolvers(merchantTxnID string, query, body url.Values) []stateResolver {
	fromValues := func(name string, v url.Values) stateResolver {
		return stateResolver{
			name: name,
			resolve: func(context.Context) (*resolvedState, error) {
				state, code := v.Get("state"), firstNonEmpty(v.Get("code"), v.Get("status"))
				if state == "" && code == "" {
					return nil, nil
				}
				raw, _ := json.Marshal(v)
				return &resolvedState{
					State:                state,
					Code:                 code,
					Message:              v.Get("message"),
					GatewayTransactionID: firstNonEmpty(v.Get("transactionId"), v.Get("providerReferenceId")),
					Raw:                  string(raw),
					Source:               name,
				}, nil
			},
		}
	}

	return []stateResolver{
		{
			name: "status_api",
			resolve: func(ctx context.Context) (*resolvedState, error) {
				if err := sleepCtx(ctx, s.opts.RedirectStatusDelay); err != nil {
					return nil, err
				}
				resp, err := s.phonePe.OrderStatus(ctx, merchantTxnID)
				if err != nil {
					return nil, err
				}
				raw, _ := json.Marshal(resp)
				return &resolvedState{
					State:                resp.State,
					Code:                 firstNonEmpty(resp.ErrorCode, resp.State),
					Message:              resp.DetailedErrorCode,
					GatewayTransactionID: resp.LatestTransactionID(),
					Raw:                  string(raw),
					Source:               "status_api",
				}, nil
			},
		},
		// body and query are client-controlled, consulted only when the gateway is unreachable
		fromValues("body", body),
		fromValues("query", query),
	}
}

func resolveState(ctx context.Context, resolvers []stateResolver, log logrus.FieldLogger) *resolvedState {
	for _, r := range resolvers {
		state, err := r.resolve(ctx)
		if err != nil {
			log.WithError(err).WithField("resolver", r.name).Warn("state resolver failed, trying next")
			continue
		}
		if state != nil {
			return state
		}
	}
	return nil
}

func (s *paymentServiceImpl) HandleRedirect(ctx context.Context, query, body url.Values) string {
	merchantTxnID := firstNonEmpty(body.Get("merchantTransactionId"), query.Get("merchantTransactionId"))
	if merchantTxnID == "" {
		return s.redirectError("MissingTransactionId")
	}
	if !s.phonePe.Configured() {
		return s.redirectError("PaymentConfigurationError")
	}

	log := s.log.WithField("merchant_transaction_id", merchantTxnID)

	state := resolveState(ctx, s.redirectResolvers(merchantTxnID, query, body), log)
	if state == nil {
		state = &resolvedState{State: string(model.TransactionStatusPending), Source: "none"}
	}

	result, err := s.ApplyStateTransition(ctx, StateUpdate{
		ID:                   merchantTxnID,
		State:                state.State,
		Code:                 state.Code,
		Message:              state.Message,
		GatewayTransactionID: state.GatewayTransactionID,
		Raw:                  state.Raw,
		Source:               "redirect:" + state.Source,
	})
	if err != nil {
		log.WithError(err).Error("apply redirect state")
		return s.redirectError("PaymentProcessingError")
	}

	status := result.Status
	if !result.Found {
		status = state.status()
	}

	if status == model.TransactionStatusSuccess {
		orderNumber := firstNonEmpty(result.OrderNumber, body.Get("orderId"), query.Get("orderId"))
		if orderNumber != "" {
			return s.redirectTarget("/order-success", url.Values{"orderId": {orderNumber}})
		}
		return s.redirectTarget("/order-success", url.Values{"transactionId": {merchantTxnID}})
	}

	message := state.Message
	if message == "" {
		if status == model.TransactionStatusFailed {
			message = "Payment failed"
		} else {
			message = "Payment is being processed"
		}
	}

	return s.redirectTarget("/dashboard", url.Values{
		"status":  {string(status)},
		"message": {message},
	})
}

func (s *paymentServiceImpl) CheckStatus(ctx context.Context, merchantTransactionID string) (*dto.PaymentStatusResponse, error) {
	if !s.phonePe.Configured() {
		return nil, ErrConfigurationMissing
	}

	resp, err := s.phonePe.OrderStatus(ctx, merchantTransactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayError, err)
	}

	raw, _ := json.Marshal(resp)
	result, err := s.ApplyStateTransition(ctx, StateUpdate{
		ID:                   merchantTransactionID,
		State:                resp.State,
		Code:                 firstNonEmpty(resp.ErrorCode, resp.State),
		Message:              resp.DetailedErrorCode,
		GatewayTransactionID: resp.LatestTransactionID(),
		Raw:                  string(raw),
		Source:               "status_api",
	})
	if err != nil {
		return nil, err
	}

	status := MapGatewayState(resp.State)
	if result.Found {
		status = result.Status
	}

	return &dto.PaymentStatusResponse{
		MerchantTransactionID: merchantTransactionID,
		GatewayState:          resp.State,
		Status:                string(status),
		Amount:                resp.Amount,
		GatewayTransactionID:  resp.LatestTransactionID(),
	}, nil
}

func (s *paymentServiceImpl) Refund(ctx context.Context, req *dto.RefundRequest) (*client.RefundResponse, error) {
	if !s.phonePe.Configured() {
		return nil, ErrConfigurationMissing
	}

	amount, err := toPaise(req.Amount)
	if err != nil {
		return nil, err
	}

	refundID := strings.TrimSpace(req.RefundID)
	if refundID == "" {
		refundID = newMerchantID("RF")
	}
	if !validMerchantID(refundID) {
		return nil, fmt.Errorf("%w: invalid refund id", ErrValidation)
	}

	resp, err := s.phonePe.Refund(ctx, &client.RefundRequest{
		MerchantRefundID:        refundID,
		OriginalMerchantOrderID: req.MerchantTransactionID,
		Amount:                  amount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayError, err)
	}
	if resp.MerchantRefundID == "" {
		resp.MerchantRefundID = refundID
	}

	s.log.WithFields(logrus.Fields{
		"merchant_transaction_id": req.MerchantTransactionID,
		"refund_id":               refundID,
		"state":                   resp.State,
	}).Info("phonepe refund requested")

	return resp, nil
}

func (s *paymentServiceImpl) CheckRefundStatus(ctx context.Context, refundID string) (*client.RefundResponse, error) {
	if !s.phonePe.Configured() {
		return nil, ErrConfigurationMissing
	}

	resp, err := s.phonePe.RefundStatus(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayError, err)
	}
	return resp, nil
}

func (s *paymentServiceImpl) PayWithCard(ctx context.Context, userID string, req *dto.CardPaymentRequest) (*dto.CardPaymentResponse, error) {
	if !s.braintree.Configured() {
		return nil, ErrConfigurationMissing
	}

	order, err := s.orderRepo.FindByOrderNumber(ctx, req.OrderNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && order.UserID != userID) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.PaymentStatus == model.PaymentStatusCompleted {
		return nil, ErrOrderAlreadyPaid
	}

	merchantTxnID := newMerchantID("MT")
	txn := &model.Transaction{
		MerchantTransactionID: merchantTxnID,
		OrderID:               &order.ID,
		UserID:                userID,
		Amount:                order.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:              defaultCurrency,
		PaymentMethod:         model.PaymentMethodCard,
		Status:                model.TransactionStatusPending,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{
		"merchant_transaction_id": merchantTxnID,
		"order_number":            order.OrderNumber,
	})

	gatewayID, chargeErr := s.braintree.ChargeNonce(ctx, req.Nonce, order.Total, order.OrderNumber)

	update := StateUpdate{
		ID:                   merchantTxnID,
		GatewayTransactionID: gatewayID,
		Source:               "braintree",
	}
	switch {
	case chargeErr == nil:
		update.State = string(model.TransactionStatusSuccess)
	case errors.Is(chargeErr, client.ErrCardDeclined):
		update.State = string(model.TransactionStatusFailed)
		update.Message = chargeErr.Error()
	default:
		// outcome unknown, leave the transaction pending
		log.WithError(chargeErr).Error("braintree charge failed")
		return nil, fmt.Errorf("%w: %v", ErrGatewayError, chargeErr)
	}

	result, err := s.ApplyStateTransition(ctx, update)
	if err != nil {
		return nil, err
	}

	return &dto.CardPaymentResponse{
		MerchantTransactionID: merchantTxnID,
		Status:                string(result.Status),
		OrderNumber:           order.OrderNumber,
	}, nil
}

type postCommitHook struct {
	name string
	run  func(ctx context.Context) error
}

func (s *paymentServiceImpl) ApplyStateTransition(ctx context.Context, update StateUpdate) (*TransitionResult, error) {
	status := MapGatewayState(update.State, update.Code)
	log := s.log.WithFields(logrus.Fields{
		"id":     update.ID,
		"status": status,
		"source": update.Source,
	})

	result := &TransitionResult{Status: status}
	var orderUserID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn, err := s.txnRepo.FindByAnyID(ctx, tx, update.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("no transaction for gateway update")
			return nil
		}
		if err != nil {
			return fmt.Errorf("find transaction: %w", err)
		}
		result.Found = true
		result.Transaction = txn

		previous := txn.Status
		if previous.IsTerminal() && previous != status {
			log.WithField("current", previous).Warn("transaction already final, ignoring conflicting update")
			result.Status = previous
			result.Ignored = true
		} else {
			txn.Status = status
			if update.Code != "" {
				txn.ResponseCode = update.Code
			}
			if update.Message != "" {
				txn.ResponseMessage = update.Message
			}
			if update.GatewayTransactionID != "" {
				txn.GatewayTransactionID = update.GatewayTransactionID
			}
			if update.Raw != "" {
				txn.RawPayload = update.Raw
			}
			written, err := s.txnRepo.UpdateState(ctx, tx, txn)
			if err != nil {
				return fmt.Errorf("update transaction: %w", err)
			}
			if !written {
				current, err := s.txnRepo.FindByAnyID(ctx, tx, update.ID)
				if err != nil {
					return fmt.Errorf("reload transaction: %w", err)
				}
				if current.Status != status {
					log.WithField("current", current.Status).Warn("transaction finalised concurrently, ignoring conflicting update")
					result.Status = current.Status
					result.Ignored = true
					result.Transaction = current
					txn = current
				}
			}
		}

		if txn.OrderID == nil {
			return nil
		}

		order, err := s.orderRepo.FindByID(ctx, tx, *txn.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithField("order_id", *txn.OrderID).Warn("transaction references a missing order")
			return nil
		}
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		result.OrderID = order.ID
		result.OrderNumber = order.OrderNumber
		orderUserID = order.UserID

		if result.Ignored {
			return nil
		}

		switch status {
		case model.TransactionStatusSuccess:
			changed, err := s.orderRepo.MarkPaymentSucceeded(ctx, tx, order.ID)
			if err != nil {
				return fmt.Errorf("mark order paid: %w", err)
			}
			if !changed {
				log.WithField("order_status", order.Status).Info("order already progressed, payment status left as is")
			}
		case model.TransactionStatusFailed:
			changed, err := s.orderRepo.MarkPaymentFailed(ctx, tx, order.ID)
			if err != nil {
				return fmt.Errorf("mark order payment failed: %w", err)
			}
			if !changed {
				log.WithField("order_status", order.Status).Info("order no longer awaiting payment, failure not applied")
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Ignored || status != model.TransactionStatusSuccess || result.OrderID == 0 {
		return result, nil
	}

	var hooks []postCommitHook
	// every success retries the cart clear; deleting an absent cart is a no-op
	if orderUserID != "" {
		hooks = append(hooks, postCommitHook{
			name: "clear cart",
			run: func(ctx context.Context) error {
				_, err := s.cartRepo.DeleteByUser(ctx, orderUserID)
				return err
			},
		})
	}
	orderID := result.OrderID
	hooks = append(hooks, postCommitHook{
		name: "reduce stock",
		run: func(ctx context.Context) error {
			_, err := s.stock.ReduceStockForOrder(ctx, orderID)
			return err
		},
	})

	// payment is already committed; a caller hanging up must not skip these
	hookCtx := context.WithoutCancel(ctx)
	for _, h := range hooks {
		if err := h.run(hookCtx); err != nil {
			log.WithError(err).WithField("hook", h.name).Error("post-payment step failed")
		}
	}

	log.WithField("order_number", result.OrderNumber).Info("payment state applied")
	return result, nil
}
