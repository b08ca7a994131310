package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

type envelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func render(t *testing.T, err error) (int, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Fail(c, err)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestFail_MapsKinds(t *testing.T) {
	tests := []struct {
		kind   error
		status int
		code   string
	}{
		{apperror.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{apperror.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{apperror.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{apperror.ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
		{apperror.ErrPaymentNotCompleted, http.StatusBadRequest, "PAYMENT_NOT_COMPLETED"},
		{apperror.ErrDateConflict, http.StatusConflict, "DATE_CONFLICT"},
		{apperror.ErrDuplicateTransaction, http.StatusConflict, "DUPLICATE_TRANSACTION"},
		{apperror.ErrGatewayUnavailable, http.StatusBadGateway, "GATEWAY_UNAVAILABLE"},
		{apperror.ErrInvalidSignature, http.StatusBadRequest, "INVALID_SIGNATURE"},
		{apperror.ErrStorage, http.StatusInternalServerError, "STORAGE_FAILURE"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, body := render(t, apperror.New(tt.kind, "msg"))
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestFail_HidesStorageDetails(t *testing.T) {
	status, body := render(t, errors.New(`pq: duplicate key value violates unique constraint "users_pkey"`))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", body.Error.Message)
}
