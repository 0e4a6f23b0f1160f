package homework

import (
	"errors"
	"fmt"
)

var (
	ErrRequestFailed     = errors.New("ошибка запроса к API")
	ErrUnexpectedStatus  = errors.New("ошибка ответа от сервера")
	ErrMalformedResponse = errors.New("некорректный ответ API")
	ErrMissingField      = errors.New("отсутствует ключ")
	ErrUnknownStatus     = errors.New("неизвестный статус работы")
	ErrDecode            = errors.New("ошибка разбора json")
)

// StatusError reports a non-200 answer from the API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ошибка ответа от сервера: %d != 200", e.Code)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// FieldError reports a required key absent from a response or a record.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("в ответе нет ключа %q", e.Field)
}

func (e *FieldError) Is(target error) bool { return target == ErrMissingField }

// UnknownStatusError reports a status code missing from the catalog.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("неизвестный статус работы %q", e.Status)
}

func (e *UnknownStatusError) Is(target error) bool { return target == ErrUnknownStatus }

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, reason)
}
