// Package breakdown отдаёт прогноз питания на дату для кухни.
package breakdown

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/meal-ordering/internal/http/middlewarectx"
	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// Service расчёт прогноза.
type Service interface {
	Breakdown(ctx context.Context, tenantID, date string) (*models.Breakdown, error)
}

// Handler обрабатывает GET /forecast?date=.
type Handler struct {
	log     *slog.Logger
	service Service
	clock   clock.Clock
}

// New создает Handler. Без параметра date берётся текущая бизнес-дата.
func New(log *slog.Logger, service Service, clk clock.Clock) *Handler {
	return &Handler{
		log:     log,
		service: service,
		clock:   clk,
	}
}

// ServeHTTP godoc
// @Summary Прогноз питания
// @Tags Forecast
// @Produce json
// @Security BearerAuth
// @Param date query string false "Дата YYYY-MM-DD, по умолчанию сегодня"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /forecast [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.forecast.breakdown"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.RenderError(w, r, models.ErrUnauthorized)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = clock.TodayKey(h.clock)
	}
	if _, err := clock.ParseDate(date); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "date must be YYYY-MM-DD"))
		return
	}

	b, err := h.service.Breakdown(r.Context(), id.TenantID, date)
	if err != nil {
		log.Error("failed to build breakdown", slog.String("date", date), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(b))
}
