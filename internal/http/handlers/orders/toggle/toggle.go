// Package toggle реализует HTTP-обработчик переключения сегодняшнего заказа.
package toggle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/meal-ordering/internal/http/middlewarectx"
	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// Service описывает переключение заказа.
type Service interface {
	ToggleToday(ctx context.Context, userID string) (*models.Order, error)
}

// Handler обрабатывает POST /orders/today/toggle.
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
// @Summary Переключить заказ на сегодня
// @Description Меняет eating на not_eating и обратно до дедлайна, если заказ не заблокирован.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Заказа нет"
// @Failure 409 {object} response.ErrorResponse "Дедлайн прошёл"
// @Failure 423 {object} response.ErrorResponse "Заказ заблокирован"
// @Router /orders/today/toggle [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.orders.toggle"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.RenderError(w, r, models.ErrUnauthorized)
		return
	}

	order, err := h.service.ToggleToday(r.Context(), id.UserID)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrDeadlinePassed), errors.Is(err, models.ErrOrderLocked), errors.Is(err, models.ErrNotFound):
		log.Info("toggle rejected", slog.String("user_id", id.UserID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	default:
		log.Error("failed to toggle order", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("order toggled", slog.String("user_id", id.UserID), slog.String("status", string(order.Status)))
	render.JSON(w, r, response.OKWithData(order))
}
