package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeTimeRemaining(t *testing.T) {
	t.Parallel()

	end := time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		expected TimeRemaining
		rendered string
	}{
		{
			name:     "exactly_at_end",
			now:      end,
			expected: TimeRemaining{Ended: true},
			rendered: "Auction ended",
		},
		{
			name:     "after_end",
			now:      end.Add(72 * time.Hour),
			expected: TimeRemaining{Ended: true},
			rendered: "Auction ended",
		},
		{
			name:     "one_second_before_end",
			now:      end.Add(-time.Second),
			expected: TimeRemaining{Seconds: 1},
			rendered: "1s",
		},
		{
			name:     "sub_second_remaining",
			now:      end.Add(-300 * time.Millisecond),
			expected: TimeRemaining{},
			rendered: "0s",
		},
		{
			name:     "minutes_only",
			now:      end.Add(-(12*time.Minute + 5*time.Second)),
			expected: TimeRemaining{Minutes: 12, Seconds: 5},
			rendered: "12m 5s",
		},
		{
			name:     "hours_suppress_days",
			now:      end.Add(-(3*time.Hour + 12*time.Minute)),
			expected: TimeRemaining{Hours: 3, Minutes: 12},
			rendered: "3h 12m 0s",
		},
		{
			name:     "all_units",
			now:      end.Add(-(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second)),
			expected: TimeRemaining{Days: 2, Hours: 3, Minutes: 4, Seconds: 5},
			rendered: "2d 3h 4m 5s",
		},
		{
			name:     "days_with_zero_lower_units",
			now:      end.Add(-24 * time.Hour),
			expected: TimeRemaining{Days: 1},
			rendered: "1d 0h 0m 0s",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ComputeTimeRemaining(tc.now, end)
			require.Equal(t, tc.expected, got)
			require.Equal(t, tc.rendered, got.String())
		})
	}
}

func TestTimeRemaining_Duration(t *testing.T) {
	end := time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)
	left := 26*time.Hour + 90*time.Second

	got := ComputeTimeRemaining(end.Add(-left), end)
	require.Equal(t, left, got.Duration())
	require.Zero(t, ComputeTimeRemaining(end, end).Duration())
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, at, Fixed(at).Now())
	require.Equal(t, time.UTC, Real{}.Now().Location())
}
