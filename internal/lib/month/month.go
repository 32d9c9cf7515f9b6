// Package month считает границы оплаченных периодов подписки.
package month

import (
	"time"
)

// AddMonths сдвигает t на n календарных месяцев, прижимая день к концу
// короткого месяца: 31 января + 1 месяц = 28 (29) февраля.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := daysIn(first.Year(), first.Month(), t.Location())
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// PeriodEnd конец месячного периода, оплаченного в момент paidAt.
func PeriodEnd(paidAt time.Time) time.Time {
	return AddMonths(paidAt, 1)
}

// YearMonth возвращает YYYYMM.
func YearMonth(t time.Time) string {
	return t.Format("200601")
}

func daysIn(year int, m time.Month, loc *time.Location) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, loc).Day()
}
