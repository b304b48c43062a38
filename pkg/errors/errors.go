// Package errors defines the application error taxonomy shared by every
// layer of the storefront. Handlers translate these values into HTTP
// responses; services and repositories return them wrapped.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Match them with errors.Is.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInternal          = errors.New("internal error")
	ErrConflict          = errors.New("conflict")
	ErrServiceUnavail    = errors.New("service unavailable")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrWaitlistFull      = errors.New("waitlist full")
	ErrPromoInvalid      = errors.New("promo code invalid")
	ErrRateLimited       = errors.New("rate limited")
)

// AppError is an error carrying a machine readable code and the HTTP status
// it should be rendered with.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(code string, status int, sentinel error, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound creates a 404 error for a resource looked up by id.
func NotFound(resource, id string) *AppError {
	return newAppError("NOT_FOUND", http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s %s not found", resource, id))
}

// NotFoundMessage creates a 404 error with a caller supplied message.
func NotFoundMessage(message string) *AppError {
	return newAppError("NOT_FOUND", http.StatusNotFound, ErrNotFound, message)
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return newAppError("ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return newAppError("INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return newAppError("UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized, message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return newAppError("FORBIDDEN", http.StatusForbidden, ErrForbidden, message)
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return newAppError("CONFLICT", http.StatusConflict, ErrConflict, message)
}

// ServiceUnavailable creates a 503 error. Callers may retry the request.
func ServiceUnavailable(message string) *AppError {
	return newAppError("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail, message)
}

// ProviderUnavailable wraps a failure of an external provider (payment,
// shipping, identity) into a retryable 503.
func ProviderUnavailable(provider string, err error) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: fmt.Sprintf("%s provider unavailable", provider),
		Status:  http.StatusServiceUnavailable,
		Err:     fmt.Errorf("%w: %v", ErrServiceUnavail, err),
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// InsufficientStock creates a 409 error naming the variant that could not
// be reserved.
func InsufficientStock(productName, color, size string) *AppError {
	return newAppError("INSUFFICIENT_STOCK", http.StatusConflict, ErrInsufficientStock,
		fmt.Sprintf("Insufficient stock for %s (%s, %s)", productName, color, size))
}

// WaitlistFull creates a 409 error returned once the waitlist capacity is taken.
func WaitlistFull() *AppError {
	return newAppError("WAITLIST_FULL", http.StatusConflict, ErrWaitlistFull,
		"Sorry, the waitlist is full! Follow us on Instagram for future drops.")
}

// Promo rejection reasons.
const (
	PromoNotFound          = "PROMO_NOT_FOUND"
	PromoInactive          = "PROMO_INACTIVE"
	PromoExpired           = "PROMO_EXPIRED"
	PromoUsageLimitReached = "PROMO_USAGE_LIMIT"
	PromoBelowMinimum      = "PROMO_BELOW_MINIMUM"
)

// PromoInvalid creates an error for a promo code that cannot be applied.
// An unknown code maps to 404, every other reason to 400.
func PromoInvalid(reason, message string) *AppError {
	status := http.StatusBadRequest
	if reason == PromoNotFound {
		status = http.StatusNotFound
	}
	return &AppError{
		Code:    reason,
		Message: message,
		Status:  status,
		Err:     ErrPromoInvalid,
	}
}

// RateLimited creates a 429 error.
func RateLimited() *AppError {
	return newAppError("RATE_LIMITED", http.StatusTooManyRequests, ErrRateLimited, "too many requests")
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict),
		errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrWaitlistFull):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPromoInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
