package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/validator"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// Fail renders a service error with the status mapped from its kind and
// records the cause on the gin context for the request logger.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	kind := apperror.KindOf(err)
	status, code := Status(kind)
	message := apperror.Message(err)
	if errors.Is(kind, apperror.ErrStorage) {
		message = "internal error"
	}
	Error(c, status, code, message)
}

// Invalid renders a request binding failure with per-field details.
func Invalid(c *gin.Context, err error) {
	_ = c.Error(err)
	ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid request body", validator.Fields(err))
}

// Status maps an error kind to its HTTP status and response code.
func Status(kind error) (int, string) {
	switch kind {
	case apperror.ErrUnauthenticated:
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	case apperror.ErrForbidden:
		return http.StatusForbidden, "FORBIDDEN"
	case apperror.ErrNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case apperror.ErrValidation:
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case apperror.ErrPaymentNotCompleted:
		return http.StatusBadRequest, "PAYMENT_NOT_COMPLETED"
	case apperror.ErrDateConflict:
		return http.StatusConflict, "DATE_CONFLICT"
	case apperror.ErrDuplicateTransaction:
		return http.StatusConflict, "DUPLICATE_TRANSACTION"
	case apperror.ErrGatewayUnavailable:
		return http.StatusBadGateway, "GATEWAY_UNAVAILABLE"
	case apperror.ErrInvalidSignature:
		return http.StatusBadRequest, "INVALID_SIGNATURE"
	default:
		return http.StatusInternalServerError, "STORAGE_FAILURE"
	}
}
