package scheduler

import (
	"testing"
	_ "time/tzdata"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketHoursOpen(t *testing.T) {
	m, err := ParseMarketHours("Asia/Hong_Kong", []string{"09:30-12:00", "13:00-16:00"})
	require.NoError(t, err)
	hk, err := time.LoadLocation("Asia/Hong_Kong")
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before open", time.Date(2024, 3, 1, 9, 29, 59, 0, hk), false},
		{"at open", time.Date(2024, 3, 1, 9, 30, 0, 0, hk), true},
		{"lunch break", time.Date(2024, 3, 1, 12, 0, 0, 0, hk), false},
		{"afternoon", time.Date(2024, 3, 1, 15, 59, 0, 0, hk), true},
		{"at close", time.Date(2024, 3, 1, 16, 0, 0, 0, hk), false},
		{"saturday", time.Date(2024, 3, 2, 10, 0, 0, 0, hk), false},
		{"sunday", time.Date(2024, 3, 3, 10, 0, 0, 0, hk), false},
		// 02:00 UTC is 10:00 in Hong Kong.
		{"other zone", time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Open(tt.at))
		})
	}
}

func TestParseMarketHoursErrors(t *testing.T) {
	_, err := ParseMarketHours("Nowhere/City", nil)
	assert.Error(t, err)

	_, err = ParseMarketHours("UTC", []string{"9-12"})
	assert.Error(t, err)
}

func TestMarketHoursNoSessions(t *testing.T) {
	m, err := ParseMarketHours("UTC", nil)
	require.NoError(t, err)
	assert.False(t, m.Open(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
}
