package models

import (
	"strings"
	"time"
)

// Plan тарифный план тенанта.
type Plan string

const (
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
	PlanTrial      Plan = "trial"
)

// DefaultPrices единая таблица цен в VND для всех платёжных каналов.
var DefaultPrices = map[Plan]int64{
	PlanBasic:      200000,
	PlanPro:        500000,
	PlanEnterprise: 1500000,
}

// ParsePlan разбирает платный тариф без учёта регистра.
func ParsePlan(s string) (Plan, bool) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlanBasic, PlanPro, PlanEnterprise:
		return p, true
	default:
		return "", false
	}
}

// PriceTable цены тарифов.
type PriceTable map[Plan]int64

// NewPriceTable накладывает переопределения из конфига на цены по умолчанию.
func NewPriceTable(overrides map[string]int64) PriceTable {
	t := make(PriceTable, len(DefaultPrices))
	for p, v := range DefaultPrices {
		t[p] = v
	}
	for k, v := range overrides {
		if p, ok := ParsePlan(k); ok && v > 0 {
			t[p] = v
		}
	}
	return t
}

// Price возвращает цену тарифа.
func (t PriceTable) Price(p Plan) (int64, bool) {
	v, ok := t[p]
	return v, ok
}

// SubscriptionStatus статус подписки тенанта.
type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	// SubscriptionTrialExpired вычисляется при чтении и не хранится в базе.
	SubscriptionTrialExpired SubscriptionStatus = "trial_expired"
)

// Tenant организация-клиент, единица биллинга.
type Tenant struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	Slug                 string             `json:"slug"`
	Plan                 Plan               `json:"plan"`
	SubscriptionStatus   SubscriptionStatus `json:"subscription_status"`
	TrialEndsAt          *time.Time         `json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool               `json:"cancel_at_period_end"`
	LastPaymentDate      *time.Time         `json:"last_payment_date,omitempty"`
	PaymentReference     string             `json:"payment_reference,omitempty"`
	StripeCustomerID     string             `json:"-"`
	StripeSubscriptionID string             `json:"-"`
	CreatedAt            time.Time          `json:"created_at"`
}

// EffectiveStatus учитывает истечение пробного периода на момент now.
func (t *Tenant) EffectiveStatus(now time.Time) SubscriptionStatus {
	if t.SubscriptionStatus == SubscriptionTrialing && t.TrialEndsAt != nil && !now.Before(*t.TrialEndsAt) {
		return SubscriptionTrialExpired
	}
	return t.SubscriptionStatus
}

// Activation поля тенанта, выставляемые при подтверждённой оплате.
type Activation struct {
	TenantID         string
	Plan             Plan // пустой план не меняет текущий
	PaidAt           time.Time
	CurrentPeriodEnd time.Time
}

// SignupRequest запрос на регистрацию тенанта.
type SignupRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required"`
}

// TenantStatus состояние подписки тенанта для клиента.
type TenantStatus struct {
	TenantID          string             `json:"tenant_id"`
	Name              string             `json:"name"`
	Plan              Plan               `json:"plan"`
	Status            SubscriptionStatus `json:"status"`
	TrialEndsAt       *time.Time         `json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd  *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool               `json:"cancel_at_period_end"`
}
