package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"anime-storefront/internal/client"
	"anime-storefront/internal/model"
	"anime-storefront/internal/repository"
	"anime-storefront/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePhonePe struct {
	mu sync.Mutex

	configured bool
	createResp *client.CreatePaymentResponse
	createErr  error
	status     map[string]*client.OrderStatusResponse
	statusErr  error
	refundResp *client.RefundResponse
	refundErr  error

	created     []*client.CreatePaymentRequest
	refunds     []*client.RefundRequest
	statusCalls int
}

func newFakePhonePe() *fakePhonePe {
	return &fakePhonePe{
		configured: true,
		status:     map[string]*client.OrderStatusResponse{},
	}
}

func (f *fakePhonePe) Configured() bool { return f.configured }

func (f *fakePhonePe) CreatePayment(_ context.Context, req *client.CreatePaymentRequest) (*client.CreatePaymentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createResp != nil {
		return f.createResp, nil
	}
	return &client.CreatePaymentResponse{
		OrderID:     "OMO" + req.MerchantOrderID,
		State:       "PENDING",
		RedirectURL: "https://mercury.test/checkout/" + req.MerchantOrderID,
	}, nil
}

func (f *fakePhonePe) OrderStatus(_ context.Context, id string) (*client.OrderStatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if resp, ok := f.status[id]; ok {
		return resp, nil
	}
	return &client.OrderStatusResponse{OrderID: "OMO" + id, State: "PENDING"}, nil
}

func (f *fakePhonePe) Refund(_ context.Context, req *client.RefundRequest) (*client.RefundResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refunds = append(f.refunds, req)
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	if f.refundResp != nil {
		return f.refundResp, nil
	}
	return &client.RefundResponse{RefundID: "OMR1", Amount: req.Amount, State: "PENDING"}, nil
}

func (f *fakePhonePe) RefundStatus(_ context.Context, id string) (*client.RefundResponse, error) {
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return &client.RefundResponse{RefundID: "OMR1", MerchantRefundID: id, State: "COMPLETED"}, nil
}

type fakeBraintree struct {
	configured bool
	gatewayID  string
	err        error
	charged    []decimal.Decimal
}

func (f *fakeBraintree) Configured() bool { return f.configured }

func (f *fakeBraintree) ChargeNonce(_ context.Context, _ string, amount decimal.Decimal, _ string) (string, error) {
	f.charged = append(f.charged, amount)
	return f.gatewayID, f.err
}

// countingSettingRepo counts reads that reach the database.
type countingSettingRepo struct {
	repository.SettingRepository
	mu    sync.Mutex
	reads int
	err   error
}

func (r *countingSettingRepo) GetBool(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	r.reads++
	err := r.err
	r.mu.Unlock()

	if err != nil {
		return false, err
	}
	return r.SettingRepository.GetBool(ctx, key)
}

func (r *countingSettingRepo) Reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

type fixture struct {
	db        *gorm.DB
	orders    repository.OrderRepository
	txns      repository.TransactionRepository
	carts     repository.CartRepository
	stocks    repository.StockRepository
	settings  PaymentSettingsService
	stock     StockService
	phonePe   *fakePhonePe
	braintree *fakeBraintree
	payments  PaymentService
	hook      *logtest.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	log, hook := testutil.NewLogger()

	settingRepo := repository.NewSettingRepository(db)
	require.NoError(t, settingRepo.SeedDefaults(context.Background()))

	f := &fixture{
		db:        db,
		orders:    repository.NewOrderRepository(db),
		txns:      repository.NewTransactionRepository(db),
		carts:     repository.NewCartRepository(db),
		stocks:    repository.NewStockRepository(db),
		phonePe:   newFakePhonePe(),
		braintree: &fakeBraintree{configured: true, gatewayID: "bt-1"},
		hook:      hook,
	}
	f.settings = NewPaymentSettingsService(settingRepo, 10*time.Second, nil, log)
	f.stock = NewStockService(db, f.orders, f.stocks, log)
	f.payments = f.paymentsWith(f.txns, f.carts, log)

	return f
}

// paymentsWith builds a payment service over the fixture, swapping in the given
// transaction and cart repositories.
func (f *fixture) paymentsWith(txns repository.TransactionRepository, carts repository.CartRepository, log logrus.FieldLogger) PaymentService {
	return NewPaymentService(f.db, f.phonePe, f.braintree, f.settings, f.stock,
		f.orders, txns, carts,
		PaymentOptions{
			BaseURL:     "https://api.shop.test",
			FrontendURL: "https://shop.test",
		}, log)
}

func (f *fixture) seedStock(t *testing.T, productType, size, color string, qty int) {
	t.Helper()
	require.NoError(t, f.stocks.Upsert(context.Background(), &model.Stock{
		ProductType:       productType,
		Size:              size,
		Color:             color,
		Quantity:          qty,
		LowStockThreshold: 5,
	}))
}

func (f *fixture) stockQty(t *testing.T, size, color string) int {
	t.Helper()
	s, err := f.stocks.FindVariant(context.Background(), f.db, size, color)
	require.NoError(t, err)
	return s.Quantity
}

func (f *fixture) seedOrder(t *testing.T, number string, status model.OrderStatus, items ...model.OrderItem) *model.Order {
	t.Helper()

	order := &model.Order{
		OrderNumber:   number,
		UserID:        "user-1",
		PaymentMethod: model.PaymentMethodPhonePe,
		Subtotal:      decimal.NewFromInt(999),
		ShippingCost:  decimal.Zero,
		MethodFee:     decimal.Zero,
		Total:         decimal.NewFromInt(999),
		Status:        status,
		PaymentStatus: model.PaymentStatusPending,
		OrderDate:     time.Now().UTC(),
		Items:         items,
	}
	require.NoError(t, f.orders.Create(context.Background(), nil, order))
	return order
}

func (f *fixture) seedTransaction(t *testing.T, merchantID string, order *model.Order) *model.Transaction {
	t.Helper()

	txn := &model.Transaction{
		MerchantTransactionID: merchantID,
		GatewayOrderID:        "OMO" + merchantID,
		UserID:                "user-1",
		Amount:                99900,
		Currency:              "INR",
		PaymentMethod:         model.PaymentMethodPhonePe,
		Status:                model.TransactionStatusPending,
	}
	if order != nil {
		txn.OrderID = &order.ID
	}
	require.NoError(t, f.txns.Create(context.Background(), txn))
	return txn
}

func (f *fixture) seedCart(t *testing.T, userID string) {
	t.Helper()
	_, err := f.carts.Replace(context.Background(), userID, []model.CartItem{
		{ProductID: "p1", Name: "Akatsuki Hoodie", Price: "499", Quantity: 1, InStock: true},
	})
	require.NoError(t, err)
}

func (f *fixture) order(t *testing.T, id uint) *model.Order {
	t.Helper()
	o, err := f.orders.FindByID(context.Background(), nil, id)
	require.NoError(t, err)
	return o
}

func (f *fixture) transaction(t *testing.T, merchantID string) *model.Transaction {
	t.Helper()
	txn, err := f.txns.FindByMerchantID(context.Background(), merchantID)
	require.NoError(t, err)
	return txn
}

func (f *fixture) hasCart(t *testing.T, userID string) bool {
	t.Helper()
	_, err := f.carts.FindByUser(context.Background(), userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	require.NoError(t, err)
	return true
}

func testLogger() logrus.FieldLogger {
	log, _ := testutil.NewLogger()
	return log
}

func hoodie(size, color string, qty int) model.OrderItem {
	return model.OrderItem{
		ProductID: "hoodie-" + size + "-" + color,
		Name:      "Akatsuki Hoodie",
		Price:     decimal.NewFromInt(499),
		Quantity:  qty,
		Category:  "Hoodies",
		Size:      size,
		Color:     color,
	}
}

func callbackBody(t *testing.T, payload map[string]interface{}) []byte {
	t.Helper()
	inner, err := json.Marshal(payload)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]string{
		"response": base64.StdEncoding.EncodeToString(inner),
	})
	require.NoError(t, err)
	return body
}

func successCallback(t *testing.T, merchantID string) []byte {
	return callbackBody(t, map[string]interface{}{
		"success": true,
		"code":    "PAYMENT_SUCCESS",
		"message": "Your payment is successful.",
		"data": map[string]interface{}{
			"merchantTransactionId": merchantID,
			"transactionId":         "T" + merchantID,
			"state":                 "COMPLETED",
		},
	})
}
