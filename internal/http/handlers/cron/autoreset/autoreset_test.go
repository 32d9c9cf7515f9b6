package autoreset

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

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context) (*models.AutoResetResult, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.(*models.AutoResetResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCronAutoResetHandler(t *testing.T) {
	count := int64(3)
	tests := []struct {
		name       string
		result     *models.AutoResetResult
		err        error
		wantStatus int
		want       models.AutoResetResult
	}{
		{
			name:       "пропуск",
			result:     &models.AutoResetResult{Skipped: true, Reason: "disabled"},
			wantStatus: http.StatusOK,
			want:       models.AutoResetResult{Skipped: true, Reason: "disabled"},
		},
		{
			name:       "executed",
			result:     &models.AutoResetResult{ResetCount: &count, ExecutedAt: "2025-06-10T00:05:00+07:00"},
			wantStatus: http.StatusOK,
			want:       models.AutoResetResult{ResetCount: &count, ExecutedAt: "2025-06-10T00:05:00+07:00"},
		},
		{
			name:       "store error",
			err:        errors.New("autoreset.Run: boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(MockRunner)
			runner.On("Run", mock.Anything).Return(tt.result, tt.err)
			h := New(newNoopLogger(), runner)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cron/auto-reset", nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.err == nil {
				var got models.AutoResetResult
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
