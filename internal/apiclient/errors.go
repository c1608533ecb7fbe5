package apiclient

import (
	"errors"
	"net/http"
)

// NetworkErrorMessage: сообщение для сбоев, при которых HTTP-ответ не получен.
const NetworkErrorMessage = "Network error or server unavailable"

// Error: типизированная ошибка вызова бэкенда.
// Status равен 0, если ответ не был получен; тогда Data содержит исходную ошибку.
type Error struct {
	Message string
	Status  int
	Data    any
}

func (e *Error) Error() string {
	if e == nil {
		return "api error"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	err, _ := e.Data.(error)
	return err
}

func (e *Error) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }
func (e *Error) IsForbidden() bool    { return e.Status == http.StatusForbidden }
func (e *Error) IsNotFound() bool     { return e.Status == http.StatusNotFound }
func (e *Error) IsServerError() bool  { return e.Status >= http.StatusInternalServerError }
func (e *Error) IsNetwork() bool      { return e.Status == 0 }

func networkError(err error) *Error {
	return &Error{Message: NetworkErrorMessage, Status: 0, Data: err}
}

// AsError извлекает *Error из цепочки err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Message возвращает текст, пригодный для показа пользователю.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsError(err); ok {
		return apiErr.Message
	}
	return err.Error()
}
