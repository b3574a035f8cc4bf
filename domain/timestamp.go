package domain

import (
	"fmt"
	"strings"
	"time"
)

// StorageLayout is fixed width so that text ordering in the database matches
// chronological ordering.
const StorageLayout = "2006-01-02T15:04:05.000000Z07:00"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 date-times with an optional Z or offset
// suffix. Values without a zone are taken as UTC. The result is always UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", s)
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(StorageLayout)
}
