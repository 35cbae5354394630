package models

import "net/http"

// ErrorKind - категория ошибки, видимая клиенту.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation_error"
	KindForbidden        ErrorKind = "forbidden"
	KindNotFound         ErrorKind = "not_found"
	KindInvalidState     ErrorKind = "invalid_state"
	KindAlreadyTerminal  ErrorKind = "already_terminal"
	KindAlreadyAccepted  ErrorKind = "already_accepted"
	KindAlreadyConfirmed ErrorKind = "already_confirmed"
	KindConflict         ErrorKind = "conflict"
	KindInternal         ErrorKind = "internal_error"
)

// Эталонные ошибки для сравнения через errors.Is.
var (
	ErrValidation       = &ErrorResponse{Kind: KindValidation}
	ErrForbidden        = &ErrorResponse{Kind: KindForbidden}
	ErrNotFound         = &ErrorResponse{Kind: KindNotFound}
	ErrInvalidState     = &ErrorResponse{Kind: KindInvalidState}
	ErrAlreadyTerminal  = &ErrorResponse{Kind: KindAlreadyTerminal}
	ErrAlreadyAccepted  = &ErrorResponse{Kind: KindAlreadyAccepted}
	ErrAlreadyConfirmed = &ErrorResponse{Kind: KindAlreadyConfirmed}
	ErrConflict         = &ErrorResponse{Kind: KindConflict}
	ErrInternal         = &ErrorResponse{Kind: KindInternal}
)

// ErrorResponse описывает ошибку с кодом, категорией и сообщением.
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	Kind       ErrorKind `json:"kind,omitempty"`
	Message    string    `json:"reason"`
}

// NewErrorResponse создает новую ошибку с кодом и сообщением.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Kind:       kindForStatus(statusCode),
		Message:    message}
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}

// Is сравнивает ошибки по категории.
func (e *ErrorResponse) Is(target error) bool {
	t, ok := target.(*ErrorResponse)
	if !ok || t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

func ValidationError(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusBadRequest, Kind: KindValidation, Message: message}
}

func Forbidden(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusForbidden, Kind: KindForbidden, Message: message}
}

func NotFound(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusNotFound, Kind: KindNotFound, Message: message}
}

func InvalidState(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusConflict, Kind: KindInvalidState, Message: message}
}

func AlreadyTerminal(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusConflict, Kind: KindAlreadyTerminal, Message: message}
}

func AlreadyAccepted(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusConflict, Kind: KindAlreadyAccepted, Message: message}
}

func AlreadyConfirmed(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusConflict, Kind: KindAlreadyConfirmed, Message: message}
}

func Conflict(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusConflict, Kind: KindConflict, Message: message}
}

// InternalError скрывает детали сбоя хранилища от клиента.
func InternalError(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusInternalServerError, Kind: KindInternal, Message: message}
}

func kindForStatus(statusCode int) ErrorKind {
	switch statusCode {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}
