package models

import (
	"strconv"
	"time"
)

// PaymentStatus статус платёжной транзакции.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Платёжные каналы.
const (
	ProviderBank   = "bank"
	ProviderPayOS  = "payos"
	ProviderStripe = "stripe"
)

// PaymentTransaction попытка или завершённый платёж.
// TransactionID выдан провайдером и служит ключом идемпотентности.
type PaymentTransaction struct {
	ID               int64         `json:"id"`
	TenantID         string        `json:"tenant_id"`
	TransactionID    string        `json:"transaction_id"`
	Provider         string        `json:"provider"`
	Plan             Plan          `json:"plan"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	Status           PaymentStatus `json:"status"`
	Note             string        `json:"note,omitempty"`
	RawPayload       []byte        `json:"-"`
	ProcessedAt      *time.Time    `json:"processed_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// BankTransaction одна банковская операция из вебхука Casso.
type BankTransaction struct {
	ID          int64  `json:"id"`
	TID         string `json:"tid"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	When        string `json:"when"`
}

// ProviderID идентификатор транзакции у банка, tid приоритетнее внутреннего id Casso.
func (b BankTransaction) ProviderID() string {
	if b.TID != "" {
		return b.TID
	}
	if b.ID != 0 {
		return strconv.FormatInt(b.ID, 10)
	}
	return ""
}

// BankWebhookResult итог обработки пачки банковских операций.
type BankWebhookResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Ignored   int `json:"ignored"`
}

// Checkout ответ на создание оплаты.
type Checkout struct {
	Provider         string `json:"provider"`
	URL              string `json:"url"`
	PaymentReference string `json:"payment_reference,omitempty"`
	OrderCode        int64  `json:"order_code,omitempty"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
}

// CheckoutRequest запрос на создание оплаты тарифа.
type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required,oneof=basic pro enterprise"`
}

// CassoWebhook тело вебхука Casso.
type CassoWebhook struct {
	Error int               `json:"error"`
	Data  []BankTransaction `json:"data"`
}
