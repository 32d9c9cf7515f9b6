// Package paymentprovider оборачивает SDK платёжных провайдеров (PayOS, Stripe)
// и генератор ссылок VietQR, приводя их ответы к доменным структурам.
package paymentprovider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/payOSHQ/payos-lib-golang"

	"github.com/magabrotheeeer/meal-ordering/internal/config"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// PaymentLink параметры ссылки на оплату PayOS.
type PaymentLink struct {
	OrderCode   int64
	Amount      int64
	ItemName    string
	Description string
}

// PayOSNotification проверенный вебхук PayOS.
type PayOSNotification struct {
	Code      string
	Desc      string
	OrderCode int64
	Amount    int64
	Raw       []byte
}

// PayOS клиент PayOS.
type PayOS struct {
	returnURL string
	cancelURL string
}

// NewPayOS регистрирует ключи в SDK. Без ключей возвращает models.ErrNotConfigured.
func NewPayOS(cfg config.PayOS) (*PayOS, error) {
	const op = "paymentprovider.NewPayOS"
	if cfg.PayOSClientID == "" || cfg.PayOSAPIKey == "" || cfg.PayOSChecksumKey == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotConfigured)
	}
	if err := payos.Key(cfg.PayOSClientID, cfg.PayOSAPIKey, cfg.PayOSChecksumKey); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &PayOS{returnURL: cfg.PayOSReturnURL, cancelURL: cfg.PayOSCancelURL}, nil
}

// CreatePaymentLink создаёт ссылку оплаты и возвращает её URL.
func (p *PayOS) CreatePaymentLink(ctx context.Context, link PaymentLink) (string, error) {
	const op = "paymentprovider.PayOS.CreatePaymentLink"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	resp, err := payos.CreatePaymentLink(payos.CheckoutRequestType{
		OrderCode: link.OrderCode,
		Amount:    int(link.Amount),
		Items: []payos.Item{{
			Name:     link.ItemName,
			Price:    int(link.Amount),
			Quantity: 1,
		}},
		Description: link.Description,
		CancelUrl:   p.cancelURL,
		ReturnUrl:   p.returnURL,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return resp.CheckoutUrl, nil
}

// ParseWebhook разбирает тело вебхука и проверяет подпись через SDK.
// Любая ошибка разбора или подписи оборачивает models.ErrSignatureInvalid.
func (p *PayOS) ParseWebhook(body []byte) (*PayOSNotification, error) {
	const op = "paymentprovider.PayOS.ParseWebhook"

	var hook payos.WebhookType
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrSignatureInvalid, err)
	}
	if hook.Data == nil {
		return nil, fmt.Errorf("%s: %w: empty data", op, models.ErrSignatureInvalid)
	}
	data, err := payos.VerifyPaymentWebhookData(hook)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrSignatureInvalid, err)
	}
	return &PayOSNotification{
		Code:      hook.Code,
		Desc:      hook.Desc,
		OrderCode: data.OrderCode,
		Amount:    int64(data.Amount),
		Raw:       body,
	}, nil
}
