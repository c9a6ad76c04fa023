package agent

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"
)

// DefaultTimezone is used when a call carries no timezone parameter.
const DefaultTimezone = "UTC"

// timezoneCache caches parsed timezone locations.
var timezoneCache = struct {
	locations map[string]*time.Location
	mu        sync.RWMutex
}{
	locations: make(map[string]*time.Location),
}

// getTimezoneLocation gets a timezone location from cache or loads it.
// Unknown or empty names fall back to UTC.
func getTimezoneLocation(timezone string) *time.Location {
	if timezone == "" {
		timezone = DefaultTimezone
	}

	timezoneCache.mu.RLock()
	loc, ok := timezoneCache.locations[timezone]
	timezoneCache.mu.RUnlock()

	if ok {
		return loc
	}

	timezoneCache.mu.Lock()
	defer timezoneCache.mu.Unlock()

	if loc, ok := timezoneCache.locations[timezone]; ok {
		return loc
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Warn("failed to load timezone, using UTC", "timezone", timezone, "error", err)
		loc = time.UTC
	}

	timezoneCache.locations[timezone] = loc
	return loc
}

// parseCallTime parses an RFC3339 timestamp, or a zone-less wall-clock time
// ("2026-09-01T15:00:00" / "2026-09-01 15:00") interpreted in loc.
func parseCallTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}

// formatTime formats a Unix timestamp for display in the given timezone.
func formatTime(ts int64, timezone string) string {
	return time.Unix(ts, 0).In(getTimezoneLocation(timezone)).Format("2006-01-02 15:04 MST")
}

// getString gets a trimmed string value from the parameter map.
func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// hasKey reports whether the parameter map carries the key at all.
func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

// getInt gets an integer value from the parameter map. JSON numbers decode
// as float64, so both forms are accepted; fractional values are rejected.
func getInt(m map[string]any, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	}
	return 0, false
}
