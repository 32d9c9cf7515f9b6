package lock

import (
	"bytes"
	"context"
	"encoding/json"
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
)

type MockService struct {
	mock.Mock
}

func (m *MockService) LockDay(ctx context.Context, tenantID, date string) (int64, error) {
	args := m.Called(ctx, tenantID, date)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLockHandler_ServeHTTP(t *testing.T) {
	svc := new(MockService)
	svc.On("LockDay", mock.Anything, "t1", "2025-06-10").Return(int64(12), nil)
	h := New(newNoopLogger(), svc)

	body, _ := json.Marshal(Request{Date: "2025-06-10"})
	req := httptest.NewRequest(http.MethodPost, "/orders/lock", bytes.NewReader(body))
	req = req.WithContext(middlewarectx.WithIdentity(req.Context(), jwt.Identity{UserID: "k1", TenantID: "t1", Role: "kitchen"}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data struct {
			Date   string `json:"date"`
			Locked int64  `json:"locked"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2025-06-10", resp.Data.Date)
	assert.Equal(t, int64(12), resp.Data.Locked)
	svc.AssertExpectations(t)
}

func TestLockHandler_InvalidBody(t *testing.T) {
	svc := new(MockService)
	h := New(newNoopLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/orders/lock", bytes.NewBufferString("not a json"))
	req = req.WithContext(middlewarectx.WithIdentity(req.Context(), jwt.Identity{UserID: "u1", TenantID: "t1"}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "LockDay", mock.Anything, mock.Anything, mock.Anything)
}
