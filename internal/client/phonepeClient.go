package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"anime-storefront/internal/config"

	"golang.org/x/time/rate"
)

const (
	phonePeSandboxURL        = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	phonePeProductionURL     = "https://api.phonepe.com/apis/pg"
	phonePeProductionAuthURL = "https://api.phonepe.com/apis/identity-manager"
)

var ErrPhonePeNotConfigured = errors.New("phonepe credentials not configured")

type PhonePeClient interface {
	// Configured is false when credentials are missing or placeholders (demo mode).
	Configured() bool
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error)
	OrderStatus(ctx context.Context, merchantOrderID string) (*OrderStatusResponse, error)
	Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)
	RefundStatus(ctx context.Context, merchantRefundID string) (*RefundResponse, error)
}

type CreatePaymentRequest struct {
	MerchantOrderID string
	Amount          int64 // paise
	RedirectURL     string
	Message         string
	MetaInfo        map[string]string
}

type CreatePaymentResponse struct {
	OrderID     string `json:"orderId"`
	State       string `json:"state"`
	ExpireAt    int64  `json:"expireAt"`
	RedirectURL string `json:"redirectUrl"`
}

type PaymentDetail struct {
	TransactionID     string `json:"transactionId"`
	PaymentMode       string `json:"paymentMode"`
	Timestamp         int64  `json:"timestamp"`
	Amount            int64  `json:"amount"`
	State             string `json:"state"`
	ErrorCode         string `json:"errorCode"`
	DetailedErrorCode string `json:"detailedErrorCode"`
}

type OrderStatusResponse struct {
	OrderID           string          `json:"orderId"`
	State             string          `json:"state"` // PENDING, COMPLETED, FAILED
	Amount            int64           `json:"amount"`
	ExpireAt          int64           `json:"expireAt"`
	ErrorCode         string          `json:"errorCode"`
	DetailedErrorCode string          `json:"detailedErrorCode"`
	PaymentDetails    []PaymentDetail `json:"paymentDetails"`
}

// LatestTransactionID returns the gateway id of the most recent payment attempt.
func (r *OrderStatusResponse) LatestTransactionID() string {
	if len(r.PaymentDetails) == 0 {
		return ""
	}
	return r.PaymentDetails[len(r.PaymentDetails)-1].TransactionID
}

type RefundRequest struct {
	MerchantRefundID        string `json:"merchantRefundId"`
	OriginalMerchantOrderID string `json:"originalMerchantOrderId"`
	Amount                  int64  `json:"amount"`
}

type RefundResponse struct {
	RefundID                string `json:"refundId"`
	MerchantRefundID        string `json:"merchantRefundId,omitempty"`
	OriginalMerchantOrderID string `json:"originalMerchantOrderId,omitempty"`
	Amount                  int64  `json:"amount"`
	State                   string `json:"state"`
	ErrorCode               string `json:"errorCode,omitempty"`
}

type phonePeClientImpl struct {
	httpClient    *http.Client
	limiter       *rate.Limiter
	baseApiURL    string
	authURL       string
	clientID      string
	clientSecret  string
	clientVersion string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPhonePeClient(cfg *config.PhonePe) PhonePeClient {
	baseURL, authURL := phonePeSandboxURL, phonePeSandboxURL
	if strings.EqualFold(cfg.Environment, "PRODUCTION") {
		baseURL, authURL = phonePeProductionURL, phonePeProductionAuthURL
	}
	if cfg.BaseApiURL != "" {
		baseURL = cfg.BaseApiURL
	}
	if cfg.AuthURL != "" {
		authURL = cfg.AuthURL
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &phonePeClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:       rate.NewLimiter(limit, 1),
		baseApiURL:    strings.TrimRight(baseURL, "/"),
		authURL:       strings.TrimRight(authURL, "/"),
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		clientVersion: cfg.ClientVersion,
	}
}

func (c *phonePeClientImpl) Configured() bool {
	return !isPlaceholder(c.clientID) && !isPlaceholder(c.clientSecret)
}

func isPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "" || v == "demo" || v == "changeme" || strings.HasPrefix(v, "your_") || strings.HasPrefix(v, "your-")
}

func (c *phonePeClientImpl) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_version", c.clientVersion)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL+"/v1/oauth/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("phonepe auth error %d: %s", resp.StatusCode, string(b))
	}

	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode phonepe token: %w", err)
	}
	if res.AccessToken == "" {
		return "", errors.New("phonepe returned empty access token")
	}

	c.accessToken = res.AccessToken
	// refresh a minute early
	c.tokenExpiry = time.Unix(res.ExpiresAt, 0).Add(-time.Minute)
	if res.ExpiresAt == 0 {
		c.tokenExpiry = time.Now().Add(10 * time.Minute)
	}

	return c.accessToken, nil
}

func (c *phonePeClientImpl) do(ctx context.Context, method, path string, payload, out interface{}) error {
	if !c.Configured() {
		return ErrPhonePeNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("get phonepe access token: %w", err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "O-Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("phonepe request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("phonepe error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode phonepe response: %w", err)
	}
	return nil
}

func (c *phonePeClientImpl) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	payload := map[string]interface{}{
		"merchantOrderId": req.MerchantOrderID,
		"amount":          req.Amount,
		"expireAfter":     1200,
		"metaInfo":        req.MetaInfo,
		"paymentFlow": map[string]interface{}{
			"type":    "PG_CHECKOUT",
			"message": req.Message,
			"merchantUrls": map[string]string{
				"redirectUrl": req.RedirectURL,
			},
		},
	}

	var result CreatePaymentResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/v2/pay", payload, &result); err != nil {
		return nil, err
	}
	if result.RedirectURL == "" {
		return nil, errors.New("phonepe response missing redirectUrl")
	}

	return &result, nil
}

func (c *phonePeClientImpl) OrderStatus(ctx context.Context, merchantOrderID string) (*OrderStatusResponse, error) {
	path := fmt.Sprintf("/checkout/v2/order/%s/status?details=false", url.PathEscape(merchantOrderID))

	var result OrderStatusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *phonePeClientImpl) Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error) {
	var result RefundResponse
	if err := c.do(ctx, http.MethodPost, "/payments/v2/refund", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *phonePeClientImpl) RefundStatus(ctx context.Context, merchantRefundID string) (*RefundResponse, error) {
	path := fmt.Sprintf("/payments/v2/refund/%s/status", url.PathEscape(merchantRefundID))

	var result RefundResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
