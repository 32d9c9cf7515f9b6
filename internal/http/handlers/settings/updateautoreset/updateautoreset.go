// Package updateautoreset меняет флаг и время автосброса.
package updateautoreset

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
)

// Service обновление настроек.
type Service interface {
	UpdateSettings(ctx context.Context, enabled bool, at string) error
}

// Request тело запроса.
type Request struct {
	Enabled *bool  `json:"enabled" validate:"required"`
	Time    string `json:"time" validate:"required" example:"00:05"`
}

// Handler обрабатывает PUT /settings/auto-reset.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить настройки автосброса
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Флаг и время HH:MM"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /settings/auto-reset [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.updateautoreset"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}
		log.Error("validation failed", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	if err := h.service.UpdateSettings(r.Context(), *req.Enabled, req.Time); err != nil {
		log.Error("failed to update auto-reset settings", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"enabled": *req.Enabled,
		"time":    req.Time,
	}))
}
