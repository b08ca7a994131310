package apperror

import "errors"

// Kinds. Services return these (usually wrapped in *Error); the HTTP layer
// maps them to status codes in response.Fail.
var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrPaymentNotCompleted  = errors.New("payment not completed")
	ErrDateConflict         = errors.New("date conflict")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrGatewayUnavailable   = errors.New("gateway unavailable")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrStorage              = errors.New("storage failure")
)

// Error carries a kind, a message safe to show to clients and the
// underlying cause for logs.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both kind and cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the first known kind in err's chain, or ErrStorage for
// anything unclassified.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrStorage
}

// Message returns the client-safe message for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return KindOf(err).Error()
}

var kinds = []error{
	ErrUnauthenticated,
	ErrForbidden,
	ErrNotFound,
	ErrValidation,
	ErrPaymentNotCompleted,
	ErrDateConflict,
	ErrDuplicateTransaction,
	ErrGatewayUnavailable,
	ErrInvalidSignature,
	ErrStorage,
}
