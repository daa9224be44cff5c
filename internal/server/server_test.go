package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anime-storefront/internal/client"
	"anime-storefront/internal/config"
	"anime-storefront/internal/middleware"
	"anime-storefront/internal/model"
	"anime-storefront/internal/repository"
	"anime-storefront/internal/service"
	"anime-storefront/internal/testutil"
	"anime-storefront/internal/worker"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const jwtSecret = "server-test-secret"

type stubPhonePe struct {
	state string
}

func (s *stubPhonePe) Configured() bool { return true }

func (s *stubPhonePe) CreatePayment(_ context.Context, req *client.CreatePaymentRequest) (*client.CreatePaymentResponse, error) {
	return &client.CreatePaymentResponse{OrderID: "OMO1", State: "PENDING", RedirectURL: "https://mercury.test/" + req.MerchantOrderID}, nil
}

func (s *stubPhonePe) OrderStatus(_ context.Context, id string) (*client.OrderStatusResponse, error) {
	return &client.OrderStatusResponse{OrderID: "OMO1", State: s.state}, nil
}

func (s *stubPhonePe) Refund(context.Context, *client.RefundRequest) (*client.RefundResponse, error) {
	return &client.RefundResponse{State: "PENDING"}, nil
}

func (s *stubPhonePe) RefundStatus(context.Context, string) (*client.RefundResponse, error) {
	return &client.RefundResponse{State: "COMPLETED"}, nil
}

type stubBraintree struct{}

func (stubBraintree) Configured() bool { return false }

func (stubBraintree) ChargeNonce(context.Context, string, decimal.Decimal, string) (string, error) {
	return "", nil
}

type harness struct {
	t   *testing.T
	db  *gorm.DB
	srv *Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	log, _ := testutil.NewLogger()

	orderRepo := repository.NewOrderRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	cartRepo := repository.NewCartRepository(db)
	stockRepo := repository.NewStockRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	pricing, err := service.NewCheckoutPricing(config.Checkout{ShippingCost: "99", FreeShippingThreshold: "999", CODFee: "49"})
	require.NoError(t, err)

	settings := service.NewPaymentSettingsService(settingRepo, time.Second, nil, log)
	stock := service.NewStockService(db, orderRepo, stockRepo, log)
	cleanup := service.NewCleanupService(orderRepo, 2*time.Hour, nil, log)

	svc := Services{
		Payment: service.NewPaymentService(db, &stubPhonePe{state: "COMPLETED"}, stubBraintree{}, settings, stock,
			orderRepo, txnRepo, cartRepo, service.PaymentOptions{BaseURL: "http://api.test"}, log),
		Settings: settings,
		Order:    service.NewOrderService(orderRepo, cartRepo, settings, stock, pricing, log),
		Cart:     service.NewCartService(cartRepo, log),
		Cleanup:  cleanup,
		Stock:    stock,
	}

	return &harness{
		t:   t,
		db:  db,
		srv: NewServer(svc, worker.NewCleanupScheduler(cleanup, time.Hour, log), jwtSecret, log),
	}
}

func (h *harness) token(userID, role string) string {
	tok, err := middleware.IssueToken([]byte(jwtSecret), userID, role, time.Hour)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_CheckoutToPaidOrder(t *testing.T) {
	h := newHarness(t)
	customer := h.token("user-7", "")
	admin := h.token("ops-1", middleware.RoleAdmin)

	rec := h.do(http.MethodPut, "/api/admin/stock", admin, `{"size":"M","color":"black","productType":"hoodie","quantity":10,"lowStockThreshold":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/cart", customer, `{"productId":"hoodie-1","name":"Akatsuki Hoodie","price":"1299","category":"Hoodies","size":"M","color":"black","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/orders", customer, `{
		"items":[{"productId":"hoodie-1","name":"Akatsuki Hoodie","price":"1299","quantity":2,"category":"Hoodies","size":"M","color":"black"}],
		"shippingAddress":{"fullName":"Itachi U","phone":"9999999999","line1":"Leaf Village","city":"Pune","state":"MH","postalCode":"411001"},
		"paymentMethod":"phonepe"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order model.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, model.OrderStatusPendingPayment, order.Status)

	rec = h.do(http.MethodPost, "/api/payments/phonepe/initiate", customer, `{"amount":"2598","orderId":"`+order.OrderNumber+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var initiated struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initiated))

	inner, _ := json.Marshal(map[string]interface{}{
		"code": "PAYMENT_SUCCESS",
		"data": map[string]interface{}{"merchantTransactionId": initiated.MerchantTransactionID, "state": "COMPLETED"},
	})
	rec = h.do(http.MethodPost, "/api/payments/phonepe/callback", "", `{"response":"`+base64.StdEncoding.EncodeToString(inner)+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/orders/"+order.OrderNumber, customer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, model.PaymentStatusCompleted, order.PaymentStatus)

	rec = h.do(http.MethodGet, "/api/cart", customer, "")
	assert.JSONEq(t, `[]`, mustField(t, rec.Body.Bytes(), "items"))

	rec = h.do(http.MethodGet, "/api/admin/stock", admin, "")
	var stocks []model.Stock
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stocks))
	require.Len(t, stocks, 1)
	assert.Equal(t, 8, stocks[0].Quantity)

	// the browser comes back after the callback; the redirect is idempotent
	rec = h.do(http.MethodGet, "/api/payments/phonepe/redirect?merchantTransactionId="+initiated.MerchantTransactionID, "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/order-success?orderId="+order.OrderNumber, rec.Header().Get("Location"))
}

func TestServer_AccessControl(t *testing.T) {
	h := newHarness(t)
	customer := h.token("user-7", "")

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/health", "", "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/payments/methods", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/orders", "", "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/admin/orders/pending-stats", customer, "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/payments/phonepe/refund", customer, `{}`).Code)

	rec := h.do(http.MethodGet, "/api/payments/phonepe/redirect", "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard?error=MissingTransactionId", rec.Header().Get("Location"))
}

func TestServer_AdminOperations(t *testing.T) {
	h := newHarness(t)
	admin := h.token("ops-1", middleware.RoleAdmin)

	rec := h.do(http.MethodPut, "/api/admin/settings/payment", admin, `{"codEnabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"phonepe":true,"cod":false}`, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/payments/methods", "", "")
	assert.JSONEq(t, `{"phonepe":true,"cod":false}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/api/admin/settings/payment", admin, `{}`).Code)

	rec = h.do(http.MethodGet, "/api/admin/orders/pending-stats", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalPending":0`)

	rec = h.do(http.MethodPost, "/api/admin/scheduler/force-cleanup", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/api/admin/scheduler/status", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lastRunAt"`)

	assert.Equal(t, http.StatusNotFound,
		h.do(http.MethodPut, "/api/admin/orders/ORD-missing/status", admin, `{"status":"shipped"}`).Code)
}

func mustField(t *testing.T, body []byte, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return string(m[field])
}
