// Package cookingdays меняет диапазон дней недели с готовкой.
package cookingdays

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// Service хранение дней готовки.
type Service interface {
	UpdateCookingDays(ctx context.Context, days models.CookingDays) error
}

// Handler обрабатывает PUT /settings/cooking-days.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Дни готовки
// @Description Дни недели 0..6, 0 = воскресенье. start_day > end_day означает переход через конец недели.
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CookingDays true "Диапазон"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /settings/cooking-days [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.cookingdays"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var days models.CookingDays
	if err := json.NewDecoder(r.Body).Decode(&days); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "invalid request body"))
		return
	}

	if err := h.service.UpdateCookingDays(r.Context(), days); err != nil {
		log.Error("failed to update cooking days", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(days))
}
