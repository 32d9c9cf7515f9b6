// Package autoreset реализует cron-эндпоинт запуска автосброса отказов.
package autoreset

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// Runner выполняет один запуск автосброса.
type Runner interface {
	Run(ctx context.Context) (*models.AutoResetResult, error)
}

// Handler обрабатывает POST /cron/auto-reset.
type Handler struct {
	log    *slog.Logger
	runner Runner
}

// New создает Handler.
func New(log *slog.Logger, runner Runner) *Handler {
	return &Handler{
		log:    log,
		runner: runner,
	}
}

// ServeHTTP godoc
// @Summary Запуск автосброса
// @Description Пропуск запуска возвращается как 200 со skipped=true и причиной.
// @Tags Cron
// @Produce json
// @Security CronSecret
// @Success 200 {object} models.AutoResetResult
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /cron/auto-reset [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cron.autoreset"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	result, err := h.runner.Run(r.Context())
	if err != nil {
		log.Error("auto-reset run failed", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}
