// Package response содержит единый формат JSON-ответов HTTP-обработчиков
// и отображение доменных ошибок в HTTP-статусы.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// Response стандартная структура JSON-ответа.
// Code машинно-читаемый код ошибки, Error её текст.
type Response struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Code   string `json:"code" example:"validation"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Коды ошибок.
const (
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeDeadlinePassed   = "deadline_passed"
	CodeOrderLocked      = "order_locked"
	CodeSignatureInvalid = "invalid_signature"
	CodeNotConfigured    = "not_configured"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal"
)

// OKWithData успешный ответ с данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error ответ с кодом и сообщением ошибки.
func Error(code, msg string) Response {
	return Response{
		Status: StatusError,
		Code:   code,
		Error:  msg,
	}
}

// ValidationError собирает нарушения валидации в одно сообщение.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "gte", "lte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is out of range", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Error(CodeValidation, strings.Join(errsMsgs, ", "))
}

// FromError отображает доменную ошибку в HTTP-статус и тело ответа.
// Текст внутренних ошибок наружу не отдаётся.
func FromError(err error) (int, Response) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, Error(CodeUnauthorized, "unauthorized")
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, Error(CodeForbidden, message(err, models.ErrForbidden))
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, Error(CodeValidation, message(err, models.ErrValidation))
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, Error(CodeNotFound, "not found")
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, Error(CodeConflict, "already exists")
	case errors.Is(err, models.ErrDeadlinePassed):
		return http.StatusConflict, Error(CodeDeadlinePassed, models.ErrDeadlinePassed.Error())
	case errors.Is(err, models.ErrOrderLocked):
		return http.StatusLocked, Error(CodeOrderLocked, models.ErrOrderLocked.Error())
	case errors.Is(err, models.ErrSignatureInvalid):
		return http.StatusUnauthorized, Error(CodeSignatureInvalid, models.ErrSignatureInvalid.Error())
	case errors.Is(err, models.ErrNotConfigured):
		return http.StatusServiceUnavailable, Error(CodeNotConfigured, models.ErrNotConfigured.Error())
	default:
		return http.StatusInternalServerError, Error(CodeInternal, "internal error")
	}
}

// RenderError пишет ответ для доменной ошибки.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := FromError(err)
	render.Status(r, status)
	render.JSON(w, r, body)
}

// message возвращает часть текста после сигнальной ошибки, без префиксов op.
func message(err, sentinel error) string {
	text := err.Error()
	if i := strings.Index(text, sentinel.Error()); i >= 0 {
		return text[i:]
	}
	return sentinel.Error()
}
