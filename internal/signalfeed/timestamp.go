package signalfeed

import (
	"strings"
	"time"
)

// Accepted timestamp layouts, tried in order. Fractional seconds are accepted
// after any seconds field. Date and time may also be separated by a space, and
// a single space may precede the offset.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04Z07",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 style date-time and returns it in UTC.
// Values without an offset are taken to be UTC already.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if len(value) > 10 && value[10] == ' ' {
		value = value[:10] + "T" + strings.TrimLeft(value[11:], " ")
	}

	// "09:30:00 +02:00" carries its offset after a space
	if len(value) > 11 {
		clock := value[11:]
		if i := strings.LastIndexAny(clock, "+-Z"); i > 0 && clock[i-1] == ' ' {
			value = value[:11] + clock[:i-1] + clock[i:]
		}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
