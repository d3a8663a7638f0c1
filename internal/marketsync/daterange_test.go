package marketsync

import (
	"errors"
	"testing"
	"time"

	"stockpulse/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, market.Shanghai)
}

func TestResolveRange(t *testing.T) {
	cases := []struct {
		name  string
		now   time.Time
		dates []string
		start string
		end   string
	}{
		{"default before close", at(2024, 1, 10, 9), nil, "2024-01-09", "2024-01-09"},
		{"default after close", at(2024, 1, 10, 16), nil, "2024-01-09", "2024-01-10"},
		{"single date", at(2024, 1, 10, 18), []string{"2024-01-02"}, "2024-01-02", "2024-01-10"},
		{"two dates", at(2024, 1, 10, 9), []string{"2024-01-02", "2024-01-05"}, "2024-01-02", "2024-01-05"},
		{"reversed", at(2024, 1, 10, 9), []string{"2024-01-05", "2024-01-02"}, "2024-01-02", "2024-01-05"},
		{"blank entries ignored", at(2024, 1, 10, 9), []string{"", " "}, "2024-01-09", "2024-01-09"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, err := ResolveRange(tc.now, tc.dates)
			require.NoError(t, err)
			assert.Equal(t, tc.start, start.Format(dateLayout))
			assert.Equal(t, tc.end, end.Format(dateLayout))
		})
	}
}

func TestResolveRangeErrors(t *testing.T) {
	now := at(2024, 1, 10, 9)
	for _, dates := range [][]string{
		{"2024/01/02"},
		{"2024-01-01", "2024-01-02", "2024-01-03"},
		{"2024-01-20"},
	} {
		_, _, err := ResolveRange(now, dates)
		assert.True(t, errors.Is(err, ErrInvalidRequest), "%v", dates)
	}
}

func TestCountWeekdays(t *testing.T) {
	assert.Equal(t, 4, CountWeekdays(at(2024, 1, 2, 0), at(2024, 1, 5, 0)))
	assert.Equal(t, 5, CountWeekdays(at(2024, 1, 5, 0), at(2024, 1, 11, 23)))
	assert.Equal(t, 0, CountWeekdays(at(2024, 1, 6, 0), at(2024, 1, 7, 0)))
	assert.Equal(t, 0, CountWeekdays(at(2024, 1, 8, 0), at(2024, 1, 7, 0)))
}
