package domain

import (
	"errors"
	"fmt"
)

// Error — доменная ошибка экспорта с флагом фатальности.
// Фатальная ошибка прерывает всю работу, нефатальная — только текущий канал.
type Error struct {
	Message string
	Fatal   bool
	Err     error
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap возвращает вложенную причину ошибки.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError создает нефатальную ошибку с сообщением.
func NewError(message string) *Error {
	return &Error{Message: message}
}

// NewFatalError создает фатальную ошибку с сообщением.
func NewFatalError(message string) *Error {
	return &Error{Message: message, Fatal: true}
}

// WrapError оборачивает причину в нефатальную доменную ошибку.
func WrapError(message string, err error) *Error {
	return &Error{Message: message, Err: err}
}

// WrapFatalError оборачивает причину в фатальную доменную ошибку.
func WrapFatalError(message string, err error) *Error {
	return &Error{Message: message, Fatal: true, Err: err}
}

// IsFatal сообщает, является ли ошибка (или любая из её причин) фатальной.
func IsFatal(err error) bool {
	var domErr *Error
	if errors.As(err, &domErr) {
		return domErr.Fatal
	}
	return false
}

// ErrChannelEmpty возвращается, когда канал пуст или не содержит сообщений
// в запрошенном диапазоне. Ошибка нефатальна: файл с преамбулой и
// постамбулой всё равно создается.
var ErrChannelEmpty = NewError("channel does not contain any messages within the requested range")

// ErrUnsupportedChannel возвращается для каналов, экспорт которых не
// поддерживается (форумы не содержат собственных сообщений).
var ErrUnsupportedChannel = NewFatalError("channel of this kind cannot be exported directly")

// ErrInvalidToken возвращается, когда токен отвергнут API в обоих режимах
// аутентификации.
var ErrInvalidToken = NewFatalError("authentication token is invalid")

// ErrMissingIntent возвращается, когда у бота отключен привилегированный
// intent на содержимое сообщений.
var ErrMissingIntent = NewFatalError("message content intent is not enabled for this bot")
