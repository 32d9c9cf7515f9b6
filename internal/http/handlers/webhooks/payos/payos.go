// Package payos принимает уведомления об оплате PayOS.
package payos

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
)

const maxBodyBytes = 1 << 20

// Service обработка уведомления PayOS.
type Service interface {
	HandlePayOSWebhook(ctx context.Context, body []byte) error
}

// Handler обрабатывает POST /webhooks/payos.
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
// @Summary Вебхук PayOS
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 503 {object} response.ErrorResponse "PayOS не настроен"
// @Router /webhooks/payos [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhooks.payos"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "invalid request body"))
		return
	}

	if err := h.service.HandlePayOSWebhook(r.Context(), body); err != nil {
		log.Warn("payos webhook rejected", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"received": true})
}
