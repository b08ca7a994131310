package card

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
)

func newRouter(f *fixture, userID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	NewHandler(f.svc).RegisterRoutes(api)
	return r
}

func serve(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CardLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	f.gw.On("CreateCustomer", mock.Anything, mock.Anything).Return("cus_1", nil).Once()
	f.gw.On("SetDefaultPaymentMethod", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.gw.On("DetachPaymentMethod", mock.Anything, mock.Anything).Return(nil)
	f.expectAttach("tok_a", "4242")
	r := newRouter(f, f.user.ID)

	w := serve(r, http.MethodPost, "/api/payments/card", map[string]any{"token": "tok_a"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "•••• •••• •••• 4242", created.Data.CardNumber)

	w = serve(r, http.MethodGet, "/api/payments/card", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Data, 1)
	assert.NotContains(t, w.Body.String(), "pm_tok_a")

	w = serve(r, http.MethodPut, fmt.Sprintf("/api/payments/card/%d/default", created.Data.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodDelete, fmt.Sprintf("/api/payments/card/%d", created.Data.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodDelete, fmt.Sprintf("/api/payments/card/%d", created.Data.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_CardErrors(t *testing.T) {
	f := newFixture(t, nil)

	w := serve(newRouter(f, 0), http.MethodPost, "/api/payments/card", map[string]any{"token": "tok"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(newRouter(f, f.user.ID), http.MethodPost, "/api/payments/card", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(newRouter(f, f.user.ID), http.MethodDelete, "/api/payments/card/x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(newRouter(f, 0), http.MethodGet, "/api/payments/card", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
