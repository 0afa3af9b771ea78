package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/suravi/checkout/internal/adapter/esewa"
	domainErrors "github.com/suravi/checkout/internal/domain/errors"
	"github.com/suravi/checkout/internal/domain/model"
	"github.com/suravi/checkout/internal/server/http/dto"
	"github.com/suravi/checkout/internal/server/http/middleware"
	testhelpers "github.com/suravi/checkout/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, routePath, requestPath string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, routePath, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, requestPath, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func asUser(id int64) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDContextKey, id)
	}
}

func TestCurrentUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentUserID(c); got != 0 {
		t.Fatalf("expected 0 when not set, got %d", got)
	}

	c.Set(middleware.UserIDContextKey, int64(42))
	if got := CurrentUserID(c); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestAuthHandlerRegister(t *testing.T) {
	login := testhelpers.RandomASCIIString(7, 14)
	password := testhelpers.RandomASCIIString(16, 32)
	body, _ := json.Marshal(dto.AuthRequest{Login: login, Password: password})
	handler := NewAuthHandler(testhelpers.AuthFacadeStub{RegisterFn: func(ctx context.Context, gotLogin, gotPassword string) (string, error) {
		if gotLogin != login || gotPassword != password {
			t.Fatalf("unexpected credentials passed to facade: %q %q", gotLogin, gotPassword)
		}
		return "session-token", nil
	}})

	resp := performRequest(t, http.MethodPost, "/register", "/register", handler.Register, nil, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Authorization"); got != "Bearer session-token" {
		t.Fatalf("unexpected authorization header %q", got)
	}

	result := resp.Result()
	t.Cleanup(func() {
		_ = result.Body.Close()
	})
	foundCookie := false
	for _, cookie := range result.Cookies() {
		if cookie.Name == "checkout_token" {
			if cookie.Value != "session-token" {
				t.Fatalf("unexpected token stored in cookie: %q", cookie.Value)
			}
			foundCookie = true
			break
		}
	}
	if !foundCookie {
		t.Fatal("expected auth cookie named checkout_token")
	}
}

func TestAuthHandlerRegisterFailures(t *testing.T) {
	tests := []struct {
		name   string
		facade testhelpers.AuthFacadeStub
		body   []byte
		status int
	}{
		{name: "bad json", body: []byte("not json"), status: http.StatusBadRequest},
		{name: "invalid credentials", body: []byte(`{"login":"","password":""}`), facade: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
			return "", domainErrors.ErrInvalidCredentials
		}}, status: http.StatusBadRequest},
		{name: "already exists", body: []byte(`{"login":"a","password":"b"}`), facade: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
			return "", domainErrors.ErrAlreadyExists
		}}, status: http.StatusConflict},
		{name: "internal", body: []byte(`{"login":"a","password":"b"}`), facade: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
			return "", errors.New("boom")
		}}, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performRequest(t, http.MethodPost, "/register", "/register", NewAuthHandler(tt.facade).Register, nil, tt.body)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	body, _ := json.Marshal(dto.AuthRequest{Login: "user", Password: "pass"})
	resp := performRequest(t, http.MethodPost, "/login", "/login", NewAuthHandler(testhelpers.AuthFacadeStub{}).Login, nil, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPost, "/login", "/login", NewAuthHandler(testhelpers.AuthFacadeStub{AuthenticateFn: func(context.Context, string, string) (string, error) {
		return "", domainErrors.ErrInvalidCredentials
	}}).Login, nil, body)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestOrderHandlerCreate(t *testing.T) {
	facade := testhelpers.OrderFacadeStub{CreateFn: func(_ context.Context, userID int64, itemIDs []int64, addressID int64, coupon string) (*model.Order, error) {
		if userID != 3 || len(itemIDs) != 1 || itemIDs[0] != 10 || addressID != 2 || coupon != "SAVE10" {
			t.Fatalf("unexpected arguments: user=%d items=%v address=%d coupon=%q", userID, itemIDs, addressID, coupon)
		}
		return &model.Order{
			ID:             1,
			UserID:         userID,
			Status:         model.OrderStatusPendingPayment,
			ItemsPrice:     1200,
			CouponCode:     coupon,
			CouponDiscount: 100,
			ShippingPrice:  150,
			TotalPrice:     1250,
		}, nil
	}}

	body, _ := json.Marshal(dto.CreateOrderRequest{ItemIDs: []int64{10}, AddressID: 2, CouponCode: "SAVE10"})
	resp := performRequest(t, http.MethodPost, "/orders", "/orders", NewOrderHandler(facade).Create, asUser(3), body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}

	var got dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.TotalPrice != 1250 || got.Status != "pending_payment" {
		t.Fatalf("unexpected response %+v", got)
	}
}

func TestOrderHandlerCreateFailures(t *testing.T) {
	valid, _ := json.Marshal(dto.CreateOrderRequest{ItemIDs: []int64{10}, AddressID: 2})
	tests := []struct {
		name   string
		err    error
		body   []byte
		status int
	}{
		{name: "bad json", body: []byte("not json"), status: http.StatusBadRequest},
		{name: "invalid address", err: domainErrors.ErrInvalidAddress, body: valid, status: http.StatusBadRequest},
		{name: "items not found", err: domainErrors.ErrItemsNotFound, body: valid, status: http.StatusUnprocessableEntity},
		{name: "insufficient stock", err: domainErrors.ErrInsufficientStock, body: valid, status: http.StatusConflict},
		{name: "internal", err: errors.New("boom"), body: valid, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.OrderFacadeStub{CreateFn: func(context.Context, int64, []int64, int64, string) (*model.Order, error) {
				return nil, tt.err
			}}
			resp := performRequest(t, http.MethodPost, "/orders", "/orders", NewOrderHandler(facade).Create, asUser(3), tt.body)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestOrderHandlerList(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/orders", "/orders", NewOrderHandler(testhelpers.OrderFacadeStub{}).List, asUser(3), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/orders", "/orders", NewOrderHandler(testhelpers.OrderFacadeStub{OrdersFn: func(context.Context, int64) ([]model.Order, error) {
		return nil, nil
	}}).List, asUser(3), nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/orders", "/orders", NewOrderHandler(testhelpers.OrderFacadeStub{OrdersFn: func(context.Context, int64) ([]model.Order, error) {
		return nil, errors.New("boom")
	}}).List, asUser(3), nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}

func TestOrderHandlerGet(t *testing.T) {
	facade := testhelpers.OrderFacadeStub{OrderFn: func(_ context.Context, orderID, userID int64) (*model.Order, error) {
		if orderID != 7 || userID != 3 {
			t.Fatalf("unexpected arguments: order=%d user=%d", orderID, userID)
		}
		return &model.Order{ID: orderID, UserID: userID}, nil
	}}
	resp := performRequest(t, http.MethodGet, "/orders/:id", "/orders/7", NewOrderHandler(facade).Get, asUser(3), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/orders/:id", "/orders/abc", NewOrderHandler(testhelpers.OrderFacadeStub{}).Get, asUser(3), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: domainErrors.ErrNotFound, status: http.StatusNotFound},
		{name: "not owner", err: domainErrors.ErrNotOwner, status: http.StatusForbidden},
		{name: "internal", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.OrderFacadeStub{OrderFn: func(context.Context, int64, int64) (*model.Order, error) {
				return nil, tt.err
			}}
			resp := performRequest(t, http.MethodGet, "/orders/:id", "/orders/7", NewOrderHandler(facade).Get, asUser(3), nil)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestOrderHandlerCancel(t *testing.T) {
	var gotReason string
	facade := testhelpers.OrderFacadeStub{CancelFn: func(_ context.Context, orderID, userID int64, reason string) (*model.Order, error) {
		gotReason = reason
		return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusCancelled, CancellationReason: reason}, nil
	}}

	body, _ := json.Marshal(dto.CancelOrderRequest{Reason: "changed my mind"})
	resp := performRequest(t, http.MethodPost, "/orders/:id/cancel", "/orders/7/cancel", NewOrderHandler(facade).Cancel, asUser(3), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if gotReason != "changed my mind" {
		t.Fatalf("unexpected reason %q", gotReason)
	}

	resp = performRequest(t, http.MethodPost, "/orders/:id/cancel", "/orders/7/cancel", NewOrderHandler(facade).Cancel, asUser(3), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 without body, got %d", resp.Code)
	}

	shipped := testhelpers.OrderFacadeStub{CancelFn: func(context.Context, int64, int64, string) (*model.Order, error) {
		return nil, domainErrors.ErrInvalidState
	}}
	resp = performRequest(t, http.MethodPost, "/orders/:id/cancel", "/orders/7/cancel", NewOrderHandler(shipped).Cancel, asUser(3), nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestOrderHandlerOnHold(t *testing.T) {
	var gotLimit int
	facade := testhelpers.OrderFacadeStub{OnHoldFn: func(_ context.Context, limit int) ([]model.Order, error) {
		gotLimit = limit
		return []model.Order{{ID: 7, Status: model.OrderStatusOnHold}}, nil
	}}

	resp := performRequest(t, http.MethodGet, "/orders/on-hold", "/orders/on-hold", NewOrderHandler(facade).OnHold, asUser(1), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if gotLimit != defaultOnHoldLimit {
		t.Fatalf("expected default limit, got %d", gotLimit)
	}

	resp = performRequest(t, http.MethodGet, "/orders/on-hold", "/orders/on-hold?limit=10", NewOrderHandler(facade).OnHold, asUser(1), nil)
	if resp.Code != http.StatusOK || gotLimit != 10 {
		t.Fatalf("expected limit 10, got status %d limit %d", resp.Code, gotLimit)
	}

	resp = performRequest(t, http.MethodGet, "/orders/on-hold", "/orders/on-hold?limit=nope", NewOrderHandler(facade).OnHold, asUser(1), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestPaymentHandlerInitiateEsewa(t *testing.T) {
	facade := testhelpers.PaymentFacadeStub{InitiateFn: func(_ context.Context, userID, orderID int64, method model.PaymentMethod) (*esewa.SignedForm, *model.Order, error) {
		if userID != 3 || orderID != 7 || method != model.PaymentMethodEsewa {
			t.Fatalf("unexpected arguments: user=%d order=%d method=%q", userID, orderID, method)
		}
		return &esewa.SignedForm{
				GatewayURL: "https://gateway.test/api/epay/main/v2/form",
				Fields:     map[string]string{"transaction_uuid": "ref-1"},
			}, &model.Order{ID: orderID, UserID: userID, PaymentMethod: method, Status: model.OrderStatusPendingPayment},
			nil
	}}

	body, _ := json.Marshal(dto.InitiatePaymentRequest{OrderID: 7, Method: "esewa"})
	resp := performRequest(t, http.MethodPost, "/payment", "/payment", NewPaymentHandler(facade).Initiate, asUser(3), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var got dto.InitiatePaymentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Form == nil || got.Form.Fields["transaction_uuid"] != "ref-1" {
		t.Fatalf("expected signed form, got %+v", got.Form)
	}
}

func TestPaymentHandlerInitiateCOD(t *testing.T) {
	body, _ := json.Marshal(dto.InitiatePaymentRequest{OrderID: 7, Method: "cod"})
	resp := performRequest(t, http.MethodPost, "/payment", "/payment", NewPaymentHandler(testhelpers.PaymentFacadeStub{}).Initiate, asUser(3), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var got dto.InitiatePaymentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Form != nil {
		t.Fatalf("cod must not produce a gateway form: %+v", got.Form)
	}
	if got.Order.Status != "processing" {
		t.Fatalf("unexpected order status %q", got.Order.Status)
	}
}

func TestPaymentHandlerInitiateFailures(t *testing.T) {
	valid, _ := json.Marshal(dto.InitiatePaymentRequest{OrderID: 7, Method: "esewa"})
	badMethod, _ := json.Marshal(dto.InitiatePaymentRequest{OrderID: 7, Method: "wallet"})
	tests := []struct {
		name   string
		err    error
		body   []byte
		status int
	}{
		{name: "bad json", body: []byte("not json"), status: http.StatusBadRequest},
		{name: "unknown method", body: badMethod, status: http.StatusBadRequest},
		{name: "not found", err: domainErrors.ErrNotFound, body: valid, status: http.StatusNotFound},
		{name: "not owner", err: domainErrors.ErrNotOwner, body: valid, status: http.StatusForbidden},
		{name: "already paid", err: domainErrors.ErrAlreadyPaid, body: valid, status: http.StatusConflict},
		{name: "not pending", err: domainErrors.ErrOrderNotPending, body: valid, status: http.StatusConflict},
		{name: "internal", err: errors.New("boom"), body: valid, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.PaymentFacadeStub{InitiateFn: func(context.Context, int64, int64, model.PaymentMethod) (*esewa.SignedForm, *model.Order, error) {
				return nil, nil, tt.err
			}}
			resp := performRequest(t, http.MethodPost, "/payment", "/payment", NewPaymentHandler(facade).Initiate, asUser(3), tt.body)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestPaymentHandlerInitiateLostStockRace(t *testing.T) {
	facade := testhelpers.PaymentFacadeStub{InitiateFn: func(_ context.Context, userID, orderID int64, _ model.PaymentMethod) (*esewa.SignedForm, *model.Order, error) {
		return nil, &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusOnHold}, domainErrors.ErrInsufficientStock
	}}

	body, _ := json.Marshal(dto.InitiatePaymentRequest{OrderID: 7, Method: "cod"})
	resp := performRequest(t, http.MethodPost, "/payment", "/payment", NewPaymentHandler(facade).Initiate, asUser(3), body)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}

	var got dto.InitiatePaymentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Order.Status != "on_hold" {
		t.Fatalf("expected on_hold order in response, got %+v", got.Order)
	}
}

func TestPaymentHandlerVerify(t *testing.T) {
	body, _ := json.Marshal(dto.VerifyPaymentRequest{OrderID: 7})
	resp := performRequest(t, http.MethodPost, "/payment/verify", "/payment/verify", NewPaymentHandler(testhelpers.PaymentFacadeStub{}).Verify, asUser(3), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPost, "/payment/verify", "/payment/verify", NewPaymentHandler(testhelpers.PaymentFacadeStub{}).Verify, asUser(3), []byte(`{}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without order id, got %d", resp.Code)
	}

	var got dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.PaymentStatus != "paid" {
		t.Fatalf("unexpected payment status %q", got.PaymentStatus)
	}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "verification failed", err: domainErrors.ErrVerificationFailed, status: http.StatusPaymentRequired},
		{name: "invalid state", err: domainErrors.ErrInvalidState, status: http.StatusConflict},
		{name: "not owner", err: domainErrors.ErrNotOwner, status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.PaymentFacadeStub{VerifyFn: func(context.Context, int64, int64) (*model.Order, error) {
				return nil, tt.err
			}}
			resp := performRequest(t, http.MethodPost, "/payment/verify", "/payment/verify", NewPaymentHandler(facade).Verify, asUser(3), body)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestPaymentHandlerCallback(t *testing.T) {
	facade := testhelpers.PaymentFacadeStub{CallbackFn: func(_ context.Context, orderID int64, amount float64) (string, error) {
		if orderID != 7 || amount != 1250 {
			t.Fatalf("unexpected arguments: order=%d amount=%v", orderID, amount)
		}
		return "https://shop.test/payment/success", nil
	}}

	resp := performRequest(t, http.MethodGet, "/payment/callback", "/payment/callback?oid=7&amt=1250", NewPaymentHandler(facade).Callback, nil, nil)
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", resp.Code)
	}
	if got := resp.Header().Get("Location"); got != "https://shop.test/payment/success" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func TestPaymentHandlerCallbackFailureRedirect(t *testing.T) {
	facade := testhelpers.PaymentFacadeStub{CallbackFn: func(context.Context, int64, float64) (string, error) {
		return "https://shop.test/payment/failure", domainErrors.ErrVerificationFailed
	}}

	resp := performRequest(t, http.MethodGet, "/payment/callback", "/payment/callback?oid=7&amt=1250", NewPaymentHandler(facade).Callback, nil, nil)
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", resp.Code)
	}
	if got := resp.Header().Get("Location"); got != "https://shop.test/payment/failure" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

type pingerStub struct {
	err error
}

func (p pingerStub) HealthCheck(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/health", "/health", NewHealthHandler(pingerStub{}).Health, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/health", "/health", NewHealthHandler(pingerStub{err: errors.New("down")}).Health, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.Code)
	}
}

func TestPaymentHandlerCallbackBadQuery(t *testing.T) {
	handler := NewPaymentHandler(testhelpers.PaymentFacadeStub{})
	for _, path := range []string{"/payment/callback", "/payment/callback?oid=7", "/payment/callback?oid=abc&amt=10", "/payment/callback?oid=7&amt=abc"} {
		resp := performRequest(t, http.MethodGet, "/payment/callback", path, handler.Callback, nil, nil)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %q, got %d", path, resp.Code)
		}
	}
}
