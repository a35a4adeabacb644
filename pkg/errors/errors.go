package errors

import "fmt"

// ErrorType classifies the failures a scraping run can hit
type ErrorType string

const (
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeAuthRedirect ErrorType = "auth_redirect"
	ErrorTypeParsing      ErrorType = "parsing"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeServerError  ErrorType = "server_error"
	ErrorTypeZeroLength   ErrorType = "zero_length"
	ErrorTypeTemplate     ErrorType = "template"
	ErrorTypeCache        ErrorType = "cache"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Error represents a classified scraper error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a classified error without an HTTP status code
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// IsFatal reports whether an error type must abort the whole run rather than
// a single item. An expired session, a corrupt cache or a broken naming
// template makes every following download pointless or unsafe.
func IsFatal(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeAuthRedirect, ErrorTypeCache, ErrorTypeTemplate:
		return true
	default:
		return false
	}
}

// IsRetryable checks if an error type is worth another attempt
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // network error, no response
		return true
	case 429:
		return true
	case 401, 403, 404: // won't change on retry
		return false
	default:
		return statusCode >= 500
	}
}
