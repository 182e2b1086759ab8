package apperr

import (
	"errors"
	"net/http"
)

// Error — ошибка с HTTP-статусом, аналог ApiError из старого API.
// Закрытый набор конструкторов ниже покрывает всю таксономию:
// Unauthorized, NotFound, Conflict, Internal плюс валидационный BadRequest.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message}
}

// StatusOf возвращает HTTP-статус ошибки; всё неизвестное — 500.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf возвращает сообщение для клиента. Внутренние ошибки
// наружу не просачиваются.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}
