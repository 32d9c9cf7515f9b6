// Package history реализует HTTP-обработчик истории заказов пользователя.
package history

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/meal-ordering/internal/http/middlewarectx"
	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// Service описывает выборку истории.
type Service interface {
	ListForRange(ctx context.Context, userID string, q models.OrderHistoryQuery) (*models.OrderPage, error)
}

// Handler обрабатывает GET /orders?from=&to=&page=&page_size=.
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
// @Summary История заказов
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param from query string true "Начало периода YYYY-MM-DD"
// @Param to query string true "Конец периода YYYY-MM-DD"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы, до 100"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /orders [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.orders.history"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.RenderError(w, r, models.ErrUnauthorized)
		return
	}

	query := r.URL.Query()
	q := models.OrderHistoryQuery{
		From: query.Get("from"),
		To:   query.Get("to"),
	}
	var err error
	if q.Page, err = intParam(query.Get("page")); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "page must be a number"))
		return
	}
	if q.PageSize, err = intParam(query.Get("page_size")); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "page_size must be a number"))
		return
	}

	page, err := h.service.ListForRange(r.Context(), id.UserID, q)
	if err != nil {
		log.Error("failed to list orders", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(page))
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
