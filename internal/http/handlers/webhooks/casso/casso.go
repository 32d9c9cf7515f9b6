// Package casso принимает вебхуки банковских переводов Casso.
package casso

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// SignatureHeader заголовок подписи Casso.
const SignatureHeader = "X-Casso-Signature"

const maxBodyBytes = 1 << 20

// Service сверка банковских операций.
type Service interface {
	VerifyBankSignature(body []byte, signature string) error
	ProcessBankTransactions(ctx context.Context, txs []models.BankTransaction) *models.BankWebhookResult
}

// Handler обрабатывает POST /webhooks/casso.
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
// @Summary Вебхук Casso
// @Description Сверяет пачку банковских переводов с тенантами. Ответ содержит счётчики processed, failed и ignored.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Casso-Signature header string false "Подпись"
// @Success 200 {object} models.BankWebhookResult
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /webhooks/casso [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhooks.casso"
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

	if err := h.service.VerifyBankSignature(body, r.Header.Get(SignatureHeader)); err != nil {
		log.Warn("casso signature rejected", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	var payload models.CassoWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to decode casso payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "invalid request body"))
		return
	}

	result := h.service.ProcessBankTransactions(r.Context(), payload.Data)
	log.Info("casso webhook handled",
		slog.Int("processed", result.Processed),
		slog.Int("failed", result.Failed),
		slog.Int("ignored", result.Ignored),
	)
	render.JSON(w, r, result)
}
