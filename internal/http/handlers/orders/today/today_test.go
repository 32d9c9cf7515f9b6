package today

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/meal-ordering/internal/http/middlewarectx"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/jwt"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) GetOrCreateToday(ctx context.Context, userID string) (*models.Order, error) {
	args := m.Called(ctx, userID)
	if o := args.Get(0); o != nil {
		return o.(*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestTodayHandler_ServeHTTP(t *testing.T) {
	t.Run("возвращает заказ", func(t *testing.T) {
		svc := new(MockService)
		svc.On("GetOrCreateToday", mock.Anything, "u1").
			Return(&models.Order{ID: 7, UserID: "u1", Date: "2025-06-10", Status: models.StatusEating}, nil)
		h := New(newNoopLogger(), svc)

		req := httptest.NewRequest(http.MethodGet, "/orders/today", nil)
		req = req.WithContext(middlewarectx.WithIdentity(req.Context(), jwt.Identity{UserID: "u1"}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Status string       `json:"status"`
			Data   models.Order `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "OK", body.Status)
		assert.Equal(t, "2025-06-10", body.Data.Date)
		assert.Equal(t, models.StatusEating, body.Data.Status)
	})

	t.Run("service error", func(t *testing.T) {
		svc := new(MockService)
		svc.On("GetOrCreateToday", mock.Anything, "u1").Return(nil, errors.New("db down"))
		h := New(newNoopLogger(), svc)

		req := httptest.NewRequest(http.MethodGet, "/orders/today", nil)
		req = req.WithContext(middlewarectx.WithIdentity(req.Context(), jwt.Identity{UserID: "u1"}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "db down")
	})
}
