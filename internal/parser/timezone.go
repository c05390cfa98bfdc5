package parser

import (
	"strings"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

var (
	westernEuropean = models.TimezoneMeta{Name: "Western European Time (GMT)", OffsetHours: 0, ShortLabel: "GMT"}
	centralEuropean = models.TimezoneMeta{Name: "Central European Time (GMT+1)", OffsetHours: 1, ShortLabel: "GMT+1"}
	easternEuropean = models.TimezoneMeta{Name: "Eastern European Time (GMT+2)", OffsetHours: 2, ShortLabel: "GMT+2"}

	// UnknownTimezone is attached when the document itself could not be read.
	UnknownTimezone = models.TimezoneMeta{Name: "Unknown", OffsetHours: 0, ShortLabel: "GMT"}

	// AssumedTimezone is attached when the country code is absent or not in the table.
	AssumedTimezone = models.TimezoneMeta{Name: "Unknown (assuming GMT)", OffsetHours: 0, ShortLabel: "GMT"}
)

// countryTimezones maps market country codes to the zone their exports use.
var countryTimezones = map[string]models.TimezoneMeta{
	"PT": westernEuropean,
	"GB": westernEuropean,
	"IE": westernEuropean,
	"IS": westernEuropean,
	"DE": centralEuropean,
	"AT": centralEuropean,
	"FR": centralEuropean,
	"EE": easternEuropean,
	"FI": easternEuropean,
}

// ResolveTimezone picks the source timezone of a document. The mRID wins
// over the caller's hint whenever it is present.
func ResolveTimezone(mRID, countryHint string) models.TimezoneMeta {
	code := countryCode(mRID)
	if code == "" {
		code = countryCode(countryHint)
	}
	if tz, ok := countryTimezones[code]; ok {
		return tz
	}
	return AssumedTimezone
}

func countryCode(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 2 {
		s = s[:2]
	}
	return strings.ToUpper(s)
}
