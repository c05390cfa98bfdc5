package parser

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// intervalLayouts are the layouts MyEnergyData exports actually use. They are
// tried before the general-purpose fallback.
var intervalLayouts = []string{
	"2006-01-02T15:04Z07:00",
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// parseInstant reads a period start as an absolute instant in UTC. Values
// without a zone designator are taken to be UTC.
func parseInstant(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range intervalLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true
		}
	}
	t, err := cast.ToTimeInDefaultLocationE(text, time.UTC)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t.UTC(), true
}
