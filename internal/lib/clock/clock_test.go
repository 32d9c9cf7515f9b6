package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

func TestDateKey_UsesBusinessTimezone(t *testing.T) {
	tests := []struct {
		name    string
		instant time.Time
		want    string
	}{
		{
			name:    "UTC evening is next business day",
			instant: time.Date(2025, 6, 9, 18, 30, 0, 0, time.UTC),
			want:    "2025-06-10",
		},
		{
			name:    "UTC morning is same business day",
			instant: time.Date(2025, 6, 10, 2, 0, 0, 0, time.UTC),
			want:    "2025-06-10",
		},
		{
			name:    "host timezone is ignored",
			instant: time.Date(2025, 6, 9, 20, 0, 0, 0, time.FixedZone("EDT", -4*3600)),
			want:    "2025-06-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DateKey(tt.instant))
		})
	}
}

func TestIsBeforeDeadline(t *testing.T) {
	tests := []struct {
		name    string
		instant time.Time
		want    bool
	}{
		{name: "05:30 ICT", instant: time.Date(2025, 6, 10, 5, 30, 0, 0, Location), want: true},
		{name: "05:59 ICT", instant: time.Date(2025, 6, 10, 5, 59, 59, 0, Location), want: true},
		{name: "06:00 ICT", instant: time.Date(2025, 6, 10, 6, 0, 0, 0, Location), want: false},
		{name: "06:15 ICT", instant: time.Date(2025, 6, 10, 6, 15, 0, 0, Location), want: false},
		{name: "23:00 UTC is 06:00 ICT", instant: time.Date(2025, 6, 9, 23, 0, 0, 0, time.UTC), want: false},
		{name: "22:30 UTC is 05:30 ICT", instant: time.Date(2025, 6, 9, 22, 30, 0, 0, time.UTC), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBeforeDeadline(tt.instant, 6))
		})
	}
}

func TestParseHHMM(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "06:30", want: 390},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "6:30", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHHMM(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		scheduled string
		now       string
		want      bool
	}{
		{name: "exact", scheduled: "00:00", now: "00:00", want: true},
		{name: "5 minutes after", scheduled: "00:00", now: "00:05", want: true},
		{name: "30 minutes before", scheduled: "08:00", now: "07:30", want: true},
		{name: "31 minutes after", scheduled: "08:00", now: "08:31", want: false},
		{name: "no wrap across midnight", scheduled: "00:00", now: "23:50", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WithinTolerance(tt.scheduled, tt.now, 30*time.Minute)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := WithinTolerance("bad", "00:00", time.Minute)
	assert.Error(t, err)
}

func TestFormatInstant_PrefixIsBusinessDate(t *testing.T) {
	instant := time.Date(2025, 6, 9, 17, 5, 0, 0, time.UTC)
	s := FormatInstant(instant)

	assert.Equal(t, "2025-06-10T00:05:00+07:00", s)
	assert.Equal(t, DateKey(instant), s[:len(DateLayout)])
}

func TestWeekday(t *testing.T) {
	wd, err := Weekday("2025-06-08")
	require.NoError(t, err)
	assert.Equal(t, 0, wd)

	_, err = Weekday("2025-13-01")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestFixedClock(t *testing.T) {
	c := Fixed{T: time.Date(2025, 6, 9, 22, 30, 0, 0, time.UTC)}
	assert.Equal(t, "2025-06-10", TodayKey(c))
	assert.Equal(t, "05:30", HHMM(c.Now()))
}
