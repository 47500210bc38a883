package sanitizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order for string dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.DateOnly,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// CoerceDate converts a loosely typed date to a time. Strings are parsed
// with the common layouts, numbers are milliseconds since the epoch, and
// anything unusable yields now. It never fails.
func CoerceDate(v any, now time.Time) time.Time {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return now
		}
		return d
	case *time.Time:
		if d == nil || d.IsZero() {
			return now
		}
		return *d
	case string:
		return parseDate(d, now)
	case json.Number:
		if f, err := d.Float64(); err == nil {
			return fromMillis(f, now)
		}
	case float64:
		return fromMillis(d, now)
	case float32:
		return fromMillis(float64(d), now)
	case int:
		return time.UnixMilli(int64(d))
	case int64:
		return time.UnixMilli(d)
	case int32:
		return time.UnixMilli(int64(d))
	case uint64:
		return fromMillis(float64(d), now)
	}
	return now
}

func parseDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromMillis(f, now)
	}
	return now
}

func fromMillis(ms float64, now time.Time) time.Time {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return now
	}
	return time.UnixMilli(int64(ms))
}
