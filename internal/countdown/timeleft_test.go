package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target time.Time
		want   TimeLeft
	}{
		{
			name:   "one hour and one second out",
			target: now.Add(time.Hour + time.Second),
			want:   TimeLeft{Hours: 1, Seconds: 1},
		},
		{
			name:   "exactly one hour",
			target: now.Add(time.Hour),
			want:   TimeLeft{Hours: 1},
		},
		{
			name:   "full decomposition",
			target: now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second),
			want:   TimeLeft{Days: 2, Hours: 3, Minutes: 4, Seconds: 5},
		},
		{
			name:   "sub-second remainder truncates",
			target: now.Add(time.Second + 999*time.Millisecond),
			want:   TimeLeft{Seconds: 1},
		},
		{
			name:   "target equals now",
			target: now,
			want:   TimeLeft{},
		},
		{
			name:   "target in the past clamps to zero",
			target: now.Add(-5 * time.Minute),
			want:   TimeLeft{},
		},
		{
			name:   "just under a minute",
			target: now.Add(59*time.Second + 500*time.Millisecond),
			want:   TimeLeft{Seconds: 59},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(now, tt.target))
		})
	}
}

func TestComputeDecompositionRoundTrips(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 1 hour, 1 minute, 1 second out: each unit carries exactly once.
	tl := Compute(now, now.Add(3661*time.Second))
	assert.Equal(t, TimeLeft{Hours: 1, Minutes: 1, Seconds: 1}, tl)

	total := time.Duration(tl.Days)*24*time.Hour +
		time.Duration(tl.Hours)*time.Hour +
		time.Duration(tl.Minutes)*time.Minute +
		time.Duration(tl.Seconds)*time.Second
	assert.Equal(t, 3661*time.Second, total)
}

func TestTimeLeftIsZero(t *testing.T) {
	assert.True(t, TimeLeft{}.IsZero())
	assert.False(t, TimeLeft{Seconds: 1}.IsZero())
	assert.False(t, TimeLeft{Days: 1}.IsZero())
}
