package errors

import "errors"

// Domain errors. These represent invalid events and unavailable
// collaborators, not transport-level failures.
var (
	// Event validation
	ErrUnknownEventKind    = errors.New("unknown event kind")
	ErrInvalidPayload      = errors.New("invalid event payload")
	ErrEquipmentIDRequired = errors.New("equipment ID is required")
	ErrStatusRequired      = errors.New("status is required")
	ErrItemIDRequired      = errors.New("item ID is required")
	ErrMessageRequired     = errors.New("message is required")

	// Store failures; a failed write drops the event without broadcasting
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrItemNotFound      = errors.New("inventory item not found")

	// Realtime sessions
	ErrSessionNotFound = errors.New("session not found")

	// Generic
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrInternal     = errors.New("internal server error")
)

// AppError wraps errors with context for HTTP responses on the REST
// surface (session management and the long-poll fallback transport).
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewRateLimitError() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    "Too many requests. Please try again later.",
		Code:       "RATE_LIMITED",
		StatusCode: 429,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}
