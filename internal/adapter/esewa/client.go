package esewa

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/suravi/checkout/internal/domain/model"
)

// ErrUnreachable indicates the gateway's verification endpoint could not be
// queried. Callers decide whether a fallback applies.
var ErrUnreachable = errors.New("gateway unreachable")

const (
	payFormPath      = "/api/epay/main/v2/form"
	statusPath       = "/api/epay/transaction/status/"
	signedFieldNames = "total_amount,transaction_uuid,product_code"
)

// Client exposes operations against the eSewa redirect gateway.
type Client interface {
	// PaymentForm builds the signed field set a browser posts to the gateway.
	PaymentForm(order *model.Order) SignedForm
	// CheckStatus re-verifies a transaction with the gateway's server-side
	// status endpoint.
	CheckStatus(ctx context.Context, transactionUUID string, totalAmount float64) (*model.GatewayStatus, error)
}

// SignedForm is a ready-to-submit payment initiation payload.
type SignedForm struct {
	GatewayURL string            `json:"gateway_url"`
	Fields     map[string]string `json:"fields"`
}

// HTTPClient implements Client via the gateway HTTP API.
type HTTPClient struct {
	baseURL     *url.URL
	productCode string
	secret      []byte
	callbackURL string
	failureURL  string
	httpClient  *http.Client
	logger      *slog.Logger
}

// statusResponse mirrors the gateway's status endpoint payload.
type statusResponse struct {
	ProductCode     string  `json:"product_code"`
	TransactionUUID string  `json:"transaction_uuid"`
	TotalAmount     float64 `json:"total_amount"`
	Status          string  `json:"status"`
	RefID           string  `json:"ref_id"`
}

// NewHTTPClient creates a gateway client with a bounded request timeout.
func NewHTTPClient(baseURL, productCode, secret, callbackURL, failureURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	return &HTTPClient{
		baseURL:     parsed,
		productCode: productCode,
		secret:      []byte(secret),
		callbackURL: callbackURL,
		failureURL:  failureURL,
		logger:      logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// PaymentForm builds the signed initiation payload for an order. The
// signature is HMAC-SHA256 over the ordered signed field list, base64
// encoded, per the gateway contract. It performs no I/O.
func (c *HTTPClient) PaymentForm(order *model.Order) SignedForm {
	totalAmount := formatAmount(order.TotalPrice)
	fields := map[string]string{
		"amount":                  formatAmount(order.ItemsPrice - order.CouponDiscount),
		"tax_amount":              "0",
		"product_service_charge":  "0",
		"product_delivery_charge": formatAmount(order.ShippingPrice),
		"total_amount":            totalAmount,
		"transaction_uuid":        order.GatewayRef,
		"product_code":            c.productCode,
		"success_url":             fmt.Sprintf("%s?oid=%d&amt=%s", c.callbackURL, order.ID, totalAmount),
		"failure_url":             c.failureURL,
		"signed_field_names":      signedFieldNames,
	}
	fields["signature"] = c.sign(totalAmount, order.GatewayRef)

	endpoint := *c.baseURL
	endpoint.Path = payFormPath
	return SignedForm{GatewayURL: endpoint.String(), Fields: fields}
}

// CheckStatus queries the gateway's transaction status endpoint.
func (c *HTTPClient) CheckStatus(ctx context.Context, transactionUUID string, totalAmount float64) (*model.GatewayStatus, error) {
	endpoint := *c.baseURL
	endpoint.Path = statusPath
	q := endpoint.Query()
	q.Set("product_code", c.productCode)
	q.Set("total_amount", formatAmount(totalAmount))
	q.Set("transaction_uuid", transactionUUID)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("gateway status request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, fmt.Errorf("gateway error: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var data statusResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	return &model.GatewayStatus{
		ProductCode:     data.ProductCode,
		TransactionUUID: data.TransactionUUID,
		TotalAmount:     data.TotalAmount,
		State:           model.GatewayState(data.Status),
		RefID:           data.RefID,
	}, nil
}

func (c *HTTPClient) sign(totalAmount, transactionUUID string) string {
	payload := fmt.Sprintf("total_amount=%s,transaction_uuid=%s,product_code=%s", totalAmount, transactionUUID, c.productCode)
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
