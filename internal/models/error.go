package models

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeUnknownField       = "UNKNOWN_FIELD"
	ErrCodeRequestPending     = "REQUEST_PENDING"
	ErrCodeNothingToDismiss   = "NOTHING_TO_DISMISS"
	ErrCodeConfirmRequired    = "CONFIRMATION_REQUIRED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
