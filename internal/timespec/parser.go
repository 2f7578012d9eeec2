package timespec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// now is replaced in tests.
var now = time.Now

// Parse parses a time specification into an absolute time.
// Supports three formats:
//   - Go duration format: "1h", "30m", "1h30m", plus whole days "7d"
//   - RFC3339 timestamps: "2025-10-29T13:00:00Z"
//   - Calendar dates: "2025-10-29" (midnight UTC)
//
// Duration specifications are relative to the current time (subtracted from now).
// For example, "1h" means "1 hour ago".
func Parse(spec string) (time.Time, error) {
	if spec == "" {
		return time.Time{}, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.DateOnly, spec); err == nil {
		return t, nil
	}

	if days, ok := strings.CutSuffix(spec, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n >= 0 {
			return now().AddDate(0, 0, -n), nil
		}
	}

	if d, err := time.ParseDuration(spec); err == nil {
		return now().Add(-d), nil
	}

	return time.Time{}, fmt.Errorf("invalid time specification: %s (use duration like '1h30m' or '7d', a date like '2025-10-29', or RFC3339 like '2025-10-29T13:00:00Z')", spec)
}

// ParseRange parses both --since and --until flags into a time range.
// Zero values indicate "no bound" for that end of the range.
//
// Validates that since < until if both are specified.
func ParseRange(since, until string) (time.Time, time.Time, error) {
	var sinceT, untilT time.Time
	var err error

	if since != "" {
		sinceT, err = Parse(since)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		untilT, err = Parse(until)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if !sinceT.IsZero() && !untilT.IsZero() && !sinceT.Before(untilT) {
		return time.Time{}, time.Time{}, fmt.Errorf("--since must be before --until")
	}

	return sinceT, untilT, nil
}
