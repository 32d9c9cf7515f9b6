// Package payref кодирует и разбирает платёжные ссылки вида
// TENANT_{последние 8 символов id}_{ТАРИФ}_{YYYYMM} и числовые коды заказов PayOS.
package payref

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/month"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

const prefix = "TENANT_"

var (
	referenceRe = regexp.MustCompile(`^TENANT_([A-F0-9]+)_([A-Z]+)_(\d{6})$`)
	embeddedRe  = regexp.MustCompile(`TENANT_[A-F0-9]+_[A-Z]+_\d{6}`)
)

// Reference разобранная платёжная ссылка.
type Reference struct {
	TenantFragment string
	Plan           string
	YearMonth      string
}

// String собирает ссылку обратно.
func (r Reference) String() string {
	return prefix + r.TenantFragment + "_" + r.Plan + "_" + r.YearMonth
}

// TenantFragment последние 8 hex-символов id тенанта в верхнем регистре.
func TenantFragment(tenantID string) string {
	id := strings.ToUpper(strings.ReplaceAll(tenantID, "-", ""))
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return id
}

// Generate создаёт платёжную ссылку для тенанта, тарифа и месяца now.
func Generate(tenantID string, plan models.Plan, now time.Time) string {
	return Reference{
		TenantFragment: TenantFragment(tenantID),
		Plan:           strings.ToUpper(string(plan)),
		YearMonth:      month.YearMonth(now),
	}.String()
}

// Parse разбирает ссылку. При несовпадении с форматом возвращает false.
func Parse(reference string) (Reference, bool) {
	m := referenceRe.FindStringSubmatch(reference)
	if m == nil {
		return Reference{}, false
	}
	return Reference{TenantFragment: m[1], Plan: m[2], YearMonth: m[3]}, true
}

// Extract находит ссылку в произвольном тексте назначения платежа.
// Поиск идёт без учёта регистра.
func Extract(description string) (string, bool) {
	ref := embeddedRe.FindString(strings.ToUpper(description))
	return ref, ref != ""
}

// PlanCode числовой код тарифа для кодов заказа.
func PlanCode(plan models.Plan) int {
	switch plan {
	case models.PlanBasic:
		return 1
	case models.PlanPro:
		return 2
	case models.PlanEnterprise:
		return 3
	default:
		return 9
	}
}

// OrderCode числовой код заказа: код тарифа, хэш тенанта по модулю 1000
// и последние 6 цифр времени в миллисекундах. Уникальность обеспечивает база.
func OrderCode(tenantID string, plan models.Plan, now time.Time) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tenantID))
	s := fmt.Sprintf("%d%03d%06d", PlanCode(plan), h.Sum32()%1000, now.UnixMilli()%1_000_000)
	code, _ := strconv.ParseInt(s, 10, 64)
	return code
}
