package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/teslimakintunde/shortlets-backend-api/internal/gateway"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(f *fixture, userID int64, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(f.svc)

	api := r.Group("/api")
	h.RegisterWebhookRoutes(api)

	protected := api.Group("")
	protected.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set("user_id", userID)
			c.Set("role", role)
		}
		c.Next()
	})
	h.RegisterProtectedRoutes(protected)
	h.RegisterStaffRoutes(protected)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestHandler_CreateIntent(t *testing.T) {
	f := newFixture(t, Config{})
	f.gw.On("CreateIntent", mock.Anything, mock.MatchedBy(func(p gateway.CreateIntentParams) bool {
		return p.IdempotencyKey == "req-42"
	})).Return(&gateway.Intent{ID: "pi_h", ClientSecret: "pi_h_secret"}, nil).Once()

	r := newRouter(f, f.renter.ID, "user")
	w, env := doJSON(t, r, http.MethodPost, "/api/payments/create-intent",
		map[string]any{"amount": 99.5, "currency": "usd"},
		map[string]string{"Idempotency-Key": "req-42"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res IntentResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "pi_h_secret", res.ClientSecret)
	assert.EqualValues(t, 9950, res.Amount)
	assert.Equal(t, "USD", res.Currency)
}

func TestHandler_CreateIntentErrors(t *testing.T) {
	f := newFixture(t, Config{})

	w, env := doJSON(t, newRouter(f, 0, ""), http.MethodPost, "/api/payments/create-intent", map[string]any{"amount": 10}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	r := newRouter(f, f.renter.ID, "user")
	w, env = doJSON(t, r, http.MethodPost, "/api/payments/create-intent", map[string]any{"amount": 10, "currency": "XYZ"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	f.gw.On("CreateIntent", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: down", gateway.ErrUnavailable)).Once()
	w, env = doJSON(t, r, http.MethodPost, "/api/payments/create-intent", map[string]any{"amount": 10}, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "GATEWAY_UNAVAILABLE", env.Error.Code)
}

func TestHandler_ConfirmPayment(t *testing.T) {
	f := newFixture(t, Config{})
	f.gw.On("RetrieveIntent", mock.Anything, "pi_http").
		Return(f.succeededIntent("pi_http", f.rent, 4500000), nil).Once()
	r := newRouter(f, f.renter.ID, "user")

	body := map[string]any{
		"paymentIntentId": "pi_http",
		"postId":          f.rent.ID,
		"bookingData":     map[string]any{"startDate": "2025-08-01", "endDate": "2025-08-05", "guests": 3},
	}
	w, env := doJSON(t, r, http.MethodPost, "/api/payments/confirm", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	w, env = doJSON(t, r, http.MethodPost, "/api/payments/confirm", body, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_TRANSACTION", env.Error.Code)
}

func TestHandler_Webhook(t *testing.T) {
	f := newFixture(t, Config{})
	r := newRouter(f, 0, "")

	f.gw.On("VerifyWebhook", mock.Anything, "bad").Return(nil, gateway.ErrInvalidSignature).Once()
	w, env := doJSON(t, r, http.MethodPost, "/api/payments/webhook", map[string]any{"id": "evt"}, map[string]string{"Stripe-Signature": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SIGNATURE", env.Error.Code)

	f.gw.On("VerifyWebhook", mock.Anything, "good").
		Return(&gateway.Event{ID: "evt", Type: gateway.EventPaymentSucceeded, Object: json.RawMessage(`{}`)}, nil).Once()
	w, _ = doJSON(t, r, http.MethodPost, "/api/payments/webhook", map[string]any{"id": "evt"}, map[string]string{"Stripe-Signature": "good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}

func TestHandler_GetPaymentAndSales(t *testing.T) {
	f := newFixture(t, Config{})
	tx := "pi_get"
	p := &Payment{Amount: 500, Currency: "NGN", PaymentMethod: MethodCreditCard, UserID: f.renter.ID, Status: StatusCompleted, TransactionID: &tx, TransactionType: TransactionSale}
	require.NoError(t, f.db.Create(p).Error)

	w, _ := doJSON(t, newRouter(f, f.renter.ID, "user"), http.MethodGet, fmt.Sprintf("/api/payments/%d", p.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, newRouter(f, f.owner.ID, "user"), http.MethodGet, fmt.Sprintf("/api/payments/%d", p.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, newRouter(f, f.renter.ID, "user"), http.MethodGet, "/api/payments/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := doJSON(t, newRouter(f, f.renter.ID, "user"), http.MethodGet, fmt.Sprintf("/api/sales/user/%d", f.renter.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page Page
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Total)

	w, _ = doJSON(t, newRouter(f, f.owner.ID, "user"), http.MethodGet, fmt.Sprintf("/api/sales/user/%d", f.renter.ID), nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_Cleanup(t *testing.T) {
	f := newFixture(t, Config{})
	w, env := doJSON(t, newRouter(f, f.owner.ID, "admin"), http.MethodPost, "/api/payments/cleanup", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report ReconcileReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Zero(t, report.Scanned)
}

func TestHandler_GetSale(t *testing.T) {
	f := newFixture(t, Config{})
	postID := f.forSale.ID
	saleTx, rentTx := "pi_sale", "pi_rental"
	sale := &Payment{Amount: 90000000, Currency: "NGN", PaymentMethod: MethodCreditCard, UserID: f.renter.ID, PostID: &postID, Status: StatusCompleted, TransactionID: &saleTx, TransactionType: TransactionSale}
	rental := &Payment{Amount: 4500000, Currency: "NGN", PaymentMethod: MethodCreditCard, UserID: f.renter.ID, Status: StatusCompleted, TransactionID: &rentTx, TransactionType: TransactionRental}
	require.NoError(t, f.db.Create(sale).Error)
	require.NoError(t, f.db.Create(rental).Error)

	salePath := fmt.Sprintf("/api/sales/%d", sale.ID)

	w, env := doJSON(t, newRouter(f, f.renter.ID, "user"), http.MethodGet, salePath, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got Payment
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, sale.ID, got.ID)

	w, _ = doJSON(t, newRouter(f, f.owner.ID, "user"), http.MethodGet, salePath, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, newRouter(f, 9999, "support"), http.MethodGet, salePath, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = doJSON(t, newRouter(f, 9999, "user"), http.MethodGet, salePath, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, _ = doJSON(t, newRouter(f, f.renter.ID, "user"), http.MethodGet, fmt.Sprintf("/api/sales/%d", rental.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, newRouter(f, 0, ""), http.MethodGet, salePath, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_UpdateSaleStatus(t *testing.T) {
	f := newFixture(t, Config{})
	saleTx, rentTx := "pi_sale_status", "pi_rent_status"
	sale := &Payment{Amount: 90000000, Currency: "NGN", PaymentMethod: MethodCreditCard, UserID: f.renter.ID, Status: StatusPending, TransactionID: &saleTx, TransactionType: TransactionSale}
	rental := &Payment{Amount: 4500000, Currency: "NGN", PaymentMethod: MethodCreditCard, UserID: f.renter.ID, Status: StatusPending, TransactionID: &rentTx, TransactionType: TransactionRental}
	require.NoError(t, f.db.Create(sale).Error)
	require.NoError(t, f.db.Create(rental).Error)

	r := newRouter(f, f.owner.ID, "admin")
	path := fmt.Sprintf("/api/sales/%d/status", sale.ID)

	w, env := doJSON(t, r, http.MethodPut, path, map[string]any{"status": "shipped"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	w, _ = doJSON(t, r, http.MethodPut, path, map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/sales/%d/status", rental.ID), map[string]any{"status": "refunded"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = doJSON(t, r, http.MethodPut, path, map[string]any{"status": "completed"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got Payment
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, StatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)

	var stored Payment
	require.NoError(t, f.db.First(&stored, sale.ID).Error)
	assert.Equal(t, StatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	var untouched Payment
	require.NoError(t, f.db.First(&untouched, rental.ID).Error)
	assert.Equal(t, StatusPending, untouched.Status)
}
