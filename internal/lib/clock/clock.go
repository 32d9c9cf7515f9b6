// Package clock содержит функции работы со временем в бизнес-часовом поясе (UTC+7):
// ключи дат, дедлайн заказа и допуск по времени для автосброса.
package clock

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// DateLayout формат ключа даты.
const DateLayout = "2006-01-02"

// Location бизнес-часовой пояс, фиксированное смещение UTC+7.
var Location = time.FixedZone("ICT", 7*60*60)

// Clock источник текущего времени.
type Clock interface {
	Now() time.Time
}

// System возвращает реальное время в бизнес-часовом поясе.
type System struct{}

// Now текущее время.
func (System) Now() time.Time { return time.Now().In(Location) }

// Fixed часы, всегда возвращающие одно и то же время. Используются в тестах.
type Fixed struct {
	T time.Time
}

// Now возвращает зафиксированное время в бизнес-часовом поясе.
func (f Fixed) Now() time.Time { return f.T.In(Location) }

// DateKey возвращает YYYY-MM-DD для момента t в бизнес-часовом поясе.
func DateKey(t time.Time) string {
	return t.In(Location).Format(DateLayout)
}

// TodayKey ключ сегодняшней даты.
func TodayKey(c Clock) string {
	return DateKey(c.Now())
}

// ParseDate разбирает ключ даты как полночь бизнес-часового пояса.
func ParseDate(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", models.ErrValidation, key)
	}
	return t, nil
}

// Weekday день недели для ключа даты, 0 = воскресенье.
func Weekday(key string) (int, error) {
	t, err := ParseDate(key)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

// IsBeforeDeadline true, если час в бизнес-часовом поясе меньше cutoffHour.
func IsBeforeDeadline(t time.Time, cutoffHour int) bool {
	return t.In(Location).Hour() < cutoffHour
}

// FormatInstant форматирует момент в RFC3339 со смещением бизнес-пояса,
// так что префикс строки совпадает с ключом бизнес-даты.
func FormatInstant(t time.Time) string {
	return t.In(Location).Format(time.RFC3339)
}

// HHMM возвращает время суток момента t в формате HH:MM.
func HHMM(t time.Time) string {
	return t.In(Location).Format("15:04")
}

// ParseHHMM переводит HH:MM в минуты от полуночи.
func ParseHHMM(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", models.ErrValidation, s)
	}
	h, ok1 := twoDigits(s[0:2])
	m, ok2 := twoDigits(s[3:5])
	if !ok1 || !ok2 || h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", models.ErrValidation, s)
	}
	return h*60 + m, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// WithinTolerance true, если разница между scheduled и now не больше tolerance.
// Разница считается внутри суток без перехода через полночь.
func WithinTolerance(scheduledHHMM, nowHHMM string, tolerance time.Duration) (bool, error) {
	scheduled, err := ParseHHMM(scheduledHHMM)
	if err != nil {
		return false, err
	}
	now, err := ParseHHMM(nowHHMM)
	if err != nil {
		return false, err
	}
	diff := scheduled - now
	if diff < 0 {
		diff = -diff
	}
	return diff <= int(tolerance/time.Minute), nil
}
