package remote

import (
	"database/sql"
	"strconv"
	"time"
)

// millisecondFloor separates epoch-second values from epoch-millisecond
// values: anything below it is treated as seconds (covers dates until
// the year 5138 in seconds, and from 1973 onward in milliseconds).
const millisecondFloor = 100_000_000_000

// normalizeTimestamp converts any timestamp shape the driver may hand
// back into epoch milliseconds. Shapes are tried in a fixed order:
// native time values, raw numbers (milliseconds, or seconds when too
// small to be milliseconds), then textual forms. Anything unrecognized
// falls back to the current time.
func normalizeTimestamp(v any) int64 {
	switch t := v.(type) {
	case time.Time:
		return t.UnixMilli()
	case *time.Time:
		if t != nil {
			return t.UnixMilli()
		}
	case sql.NullTime:
		if t.Valid {
			return t.Time.UnixMilli()
		}
	case int64:
		return normalizeEpoch(t)
	case int:
		return normalizeEpoch(int64(t))
	case float64:
		return normalizeEpoch(int64(t))
	case []byte:
		return normalizeText(string(t))
	case string:
		return normalizeText(t)
	}
	return time.Now().UnixMilli()
}

// normalizeNullableTimestamp maps NULL to nil instead of "now"
func normalizeNullableTimestamp(v any) *int64 {
	if v == nil {
		return nil
	}
	if nt, ok := v.(sql.NullTime); ok && !nt.Valid {
		return nil
	}
	ms := normalizeTimestamp(v)
	return &ms
}

func normalizeEpoch(n int64) int64 {
	if n < millisecondFloor {
		return n * 1000
	}
	return n
}

func normalizeText(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return normalizeEpoch(n)
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UnixMilli()
	}
	return time.Now().UnixMilli()
}
