package casso

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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

type MockService struct {
	mock.Mock
}

func (m *MockService) VerifyBankSignature(body []byte, signature string) error {
	return m.Called(body, signature).Error(0)
}

func (m *MockService) ProcessBankTransactions(ctx context.Context, txs []models.BankTransaction) *models.BankWebhookResult {
	return m.Called(ctx, txs).Get(0).(*models.BankWebhookResult)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCassoHandler_ServeHTTP(t *testing.T) {
	payload := `{"error":0,"data":[{"id":1,"tid":"FT1","description":"SUBPRO 1A2B3C4D","amount":500000,"when":"2025-06-10 09:00:00"}]}`

	t.Run("batch processed", func(t *testing.T) {
		svc := new(MockService)
		svc.On("VerifyBankSignature", []byte(payload), "secret").Return(nil)
		svc.On("ProcessBankTransactions", mock.Anything, mock.MatchedBy(func(txs []models.BankTransaction) bool {
			return len(txs) == 1 && txs[0].TID == "FT1" && txs[0].Amount == 500000
		})).Return(&models.BankWebhookResult{Processed: 1})
		h := New(newNoopLogger(), svc)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/casso", bytes.NewBufferString(payload))
		req.Header.Set(SignatureHeader, "secret")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var result models.BankWebhookResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, models.BankWebhookResult{Processed: 1}, result)
		svc.AssertExpectations(t)
	})

	t.Run("неверная подпись", func(t *testing.T) {
		svc := new(MockService)
		svc.On("VerifyBankSignature", mock.Anything, "wrong").
			Return(fmt.Errorf("billing.Verify: %w", models.ErrSignatureInvalid))
		h := New(newNoopLogger(), svc)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/casso", bytes.NewBufferString(payload))
		req.Header.Set(SignatureHeader, "wrong")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		svc.AssertNotCalled(t, "ProcessBankTransactions", mock.Anything, mock.Anything)
	})

	t.Run("invalid json", func(t *testing.T) {
		svc := new(MockService)
		svc.On("VerifyBankSignature", mock.Anything, "").Return(nil)
		h := New(newNoopLogger(), svc)

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/webhooks/casso", bytes.NewBufferString("{")))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "ProcessBankTransactions", mock.Anything, mock.Anything)
	})
}
