package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHourBucketKey(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 14, 59, 59, 0, time.UTC)

	assert.Equal(t, "https://geizhals.at/a@2025-03-01-14", HourBucketKey("https://geizhals.at/a", at))
	assert.NotEqual(t,
		HourBucketKey("https://geizhals.at/a", at),
		HourBucketKey("https://geizhals.at/a", at.Add(time.Second)),
		"next hour gets a new key")
}

func TestTimeUntilNextHour(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{name: "start of hour", now: time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC), want: time.Hour},
		{name: "mid hour", now: time.Date(2025, 3, 1, 14, 45, 0, 0, time.UTC), want: 15 * time.Minute},
		{name: "last second", now: time.Date(2025, 3, 1, 14, 59, 59, 0, time.UTC), want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TimeUntilNextHour(tt.now))
		})
	}
}

func TestSafe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https_//geizhals.at/a_b@2025-03-01-14", safe("https://geizhals.at/a b@2025-03-01-14"))
}
