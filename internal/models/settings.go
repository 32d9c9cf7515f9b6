package models

// Ключи системных настроек.
const (
	SettingAutoResetEnabled = "auto_reset_enabled"
	SettingAutoResetTime    = "auto_reset_time"
	SettingAutoResetLastRun = "auto_reset_last_run"
	SettingCookingDays      = "cooking_days"
)

// Setting строка таблицы system_settings.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CookingDays диапазон дней недели с готовкой, 0 = воскресенье.
// Если StartDay > EndDay, диапазон переходит через границу недели.
type CookingDays struct {
	StartDay int `json:"start_day" validate:"gte=0,lte=6"`
	EndDay   int `json:"end_day" validate:"gte=0,lte=6"`
}

// Contains проверяет, попадает ли день недели в диапазон.
func (c CookingDays) Contains(weekday int) bool {
	if c.StartDay <= c.EndDay {
		return weekday >= c.StartDay && weekday <= c.EndDay
	}
	return weekday >= c.StartDay || weekday <= c.EndDay
}

// AutoResetSettings настройки автосброса отказов.
type AutoResetSettings struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time" validate:"required"`
	LastRun string `json:"last_run,omitempty"`
}

// AutoResetResult результат запуска автосброса.
type AutoResetResult struct {
	Skipped    bool   `json:"skipped"`
	Reason     string `json:"reason,omitempty"`
	ResetCount *int64 `json:"reset_count,omitempty"`
	ExecutedAt string `json:"executed_at,omitempty"`
}
