package contactform

import "errors"

// Messages shown to the website visitor.
const (
	MsgMethodNotAllowed  = "Метод не поддерживается"
	MsgFillAllFields     = "Заполните все поля"
	MsgMailNotConfigured = "Настройки почты не заданы"
	MsgSubmitted         = "Заявка успешно отправлена"

	// MsgErrorPrefix precedes the failure detail of unexpected errors.
	MsgErrorPrefix = "Ошибка: "
)

var (
	// ErrMissingFields means name or phone is empty after trimming.
	ErrMissingFields = errors.New("name and phone are required")
	// ErrMalformedBody means the body is not a JSON object.
	ErrMalformedBody = errors.New("malformed request body")
)
