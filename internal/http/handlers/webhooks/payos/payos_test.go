package payos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) HandlePayOSWebhook(ctx context.Context, body []byte) error {
	return m.Called(ctx, body).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestPayOSHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "acknowledged", wantStatus: http.StatusOK, wantBody: `"received":true`},
		{
			name:       "неверная подпись",
			err:        fmt.Errorf("billing.HandlePayOSWebhook: %w", models.ErrSignatureInvalid),
			wantStatus: http.StatusUnauthorized,
			wantBody:   "invalid_signature",
		},
		{
			name:       "not configured",
			err:        fmt.Errorf("billing.HandlePayOSWebhook: %w", models.ErrNotConfigured),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "not_configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("HandlePayOSWebhook", mock.Anything, []byte(`{"code":"00"}`)).Return(tt.err)
			h := New(newNoopLogger(), svc)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/webhooks/payos", bytes.NewBufferString(`{"code":"00"}`)))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
