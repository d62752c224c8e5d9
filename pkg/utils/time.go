package utils

import "time"

// ISOMillis is the timestamp layout used in saved graphs.
const ISOMillis = "2006-01-02T15:04:05.000Z07:00"

// FormatISO formats t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}

// ParseISO accepts both millisecond and plain RFC3339 timestamps.
func ParseISO(s string) (time.Time, error) {
	if t, err := time.Parse(ISOMillis, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
