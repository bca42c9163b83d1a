package shared

import "errors"

// Error codes shared by every bounded context. The HTTP layer maps them onto
// status codes, so new codes need an entry there too.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeAlreadySyncing   = "ALREADY_SYNCING"
	CodeQuotaExceeded    = "QUOTA_EXCEEDED"
	CodeConnectionFailed = "CONNECTION_FAILED"
)

// DomainError is a business rule violation with a stable code and a message
// safe to show to API clients.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError with the same code, so a reworded error still
// satisfies errors.Is against its sentinel.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// WithMessage returns a copy of e carrying a different message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}
