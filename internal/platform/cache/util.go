package cache

import (
	"strings"
	"time"
)

// bucketLayout groups cache keys by wall-clock hour.
const bucketLayout = "2006-01-02-15"

// HourBucketKey returns the cache key of url for the hour containing now.
// Keys change every hour, so a quote is never served across an hour boundary.
func HourBucketKey(url string, now time.Time) string {
	return url + "@" + now.Format(bucketLayout)
}

// TimeUntilNextHour returns the time left in the hour bucket containing now.
func TimeUntilNextHour(now time.Time) time.Duration {
	return now.Truncate(time.Hour).Add(time.Hour).Sub(now)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
