package updateautoreset

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

func (m *MockService) UpdateSettings(ctx context.Context, enabled bool, at string) error {
	return m.Called(ctx, enabled, at).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestUpdateAutoResetHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(m *MockService)
		wantStatus int
		wantError  string
	}{
		{
			name: "valid update",
			body: `{"enabled":true,"time":"00:05"}`,
			setup: func(m *MockService) {
				m.On("UpdateSettings", mock.Anything, true, "00:05").Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "enabled отсутствует",
			body:       `{"time":"00:05"}`,
			setup:      func(m *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "field Enabled is a required field",
		},
		{
			name: "bad time format",
			body: `{"enabled":false,"time":"25:00"}`,
			setup: func(m *MockService) {
				m.On("UpdateSettings", mock.Anything, false, "25:00").
					Return(fmt.Errorf("%w: invalid time", models.ErrValidation))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `{`,
			setup:      func(m *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)
			h := New(newNoopLogger(), svc)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/settings/auto-reset", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantError != "" {
				assert.Contains(t, rr.Body.String(), tt.wantError)
			}
			svc.AssertExpectations(t)
		})
	}
}
