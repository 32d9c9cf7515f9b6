// Package checkout создаёт оплату тарифа через выбранного провайдера.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/meal-ordering/internal/http/middlewarectx"
	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// Провайдеры в пути запроса.
const (
	ProviderVietQR = "vietqr"
	ProviderPayOS  = "payos"
	ProviderStripe = "stripe"
)

// Service создание оплаты.
type Service interface {
	CreateBankTransferCheckout(ctx context.Context, tenantID, plan string) (*models.Checkout, error)
	CreatePayOSCheckout(ctx context.Context, tenantID, plan string) (*models.Checkout, error)
	CreateStripeCheckout(ctx context.Context, tenantID, email, plan string) (*models.Checkout, error)
}

// Handler обрабатывает POST /billing/checkout/{provider}.
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
// @Summary Оплата тарифа
// @Description vietqr выдаёт QR для перевода с кодом ссылки, payos и stripe возвращают ссылку на оплату.
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param provider path string true "vietqr, payos или stripe"
// @Param request body models.CheckoutRequest true "Тариф"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Неизвестный провайдер"
// @Failure 503 {object} response.ErrorResponse "Провайдер не настроен"
// @Router /billing/checkout/{provider} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout"
	provider := chi.URLParam(r, "provider")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("provider", provider),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.RenderError(w, r, models.ErrUnauthorized)
		return
	}

	var req models.CheckoutRequest
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
		response.RenderError(w, r, err)
		return
	}

	var (
		checkout *models.Checkout
		err      error
	)
	switch provider {
	case ProviderVietQR:
		checkout, err = h.service.CreateBankTransferCheckout(r.Context(), id.TenantID, req.Plan)
	case ProviderPayOS:
		checkout, err = h.service.CreatePayOSCheckout(r.Context(), id.TenantID, req.Plan)
	case ProviderStripe:
		checkout, err = h.service.CreateStripeCheckout(r.Context(), id.TenantID, id.Email, req.Plan)
	default:
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(response.CodeNotFound, "unknown payment provider"))
		return
	}
	if err != nil {
		log.Error("failed to create checkout", slog.String("tenant_id", id.TenantID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("checkout created", slog.String("tenant_id", id.TenantID), slog.String("plan", req.Plan))
	render.JSON(w, r, response.OKWithData(checkout))
}
