// Package signup регистрирует нового тенанта в пробном периоде.
package signup

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
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// Service регистрация тенанта.
type Service interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.Tenant, error)
}

// Handler обрабатывает POST /tenants.
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
// @Summary Регистрация тенанта
// @Description Создаёт организацию с пробным периодом.
// @Tags Tenants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SignupRequest true "Название и slug"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Slug занят"
// @Router /tenants [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tenants.signup"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SignupRequest
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

	tenant, err := h.service.Signup(r.Context(), req)
	if err != nil {
		log.Warn("signup failed", slog.String("slug", req.Slug), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("tenant created", slog.String("tenant_id", tenant.ID), slog.String("slug", tenant.Slug))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(tenant))
}
