// Package timezone holds the fixed table of display zones offered to users
// and re-zones samples for presentation.
//
// Zones are fixed offsets. Daylight saving variants are separate entries
// (CEST, EDT, ...), so no tz database lookup takes place.
package timezone

import (
	"math"
	"strconv"
	"time"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

// Default is the zone used for unknown values.
const Default = "UTC"

// Zone is one selectable display zone.
type Zone struct {
	Value  string  `json:"value"`
	Label  string  `json:"label"`
	Offset float64 `json:"offset_hours"`
}

// Option is a zone rendered for a picker.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Group is a named, ordered subset of zone values. A value may appear in
// several groups.
type Group struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

var zones = []Zone{
	{Value: "UTC", Label: "UTC (Coordinated Universal Time)", Offset: 0},
	{Value: "GMT", Label: "GMT (Greenwich Mean Time)", Offset: 0},
	{Value: "EST", Label: "EST (Eastern Standard Time)", Offset: -5},
	{Value: "CST", Label: "CST (Central Standard Time)", Offset: -6},
	{Value: "MST", Label: "MST (Mountain Standard Time)", Offset: -7},
	{Value: "PST", Label: "PST (Pacific Standard Time)", Offset: -8},
	{Value: "CET", Label: "CET (Central European Time)", Offset: 1},
	{Value: "EET", Label: "EET (Eastern European Time)", Offset: 2},
	{Value: "WET", Label: "WET (Western European Time)", Offset: 0},
	{Value: "JST", Label: "JST (Japan Standard Time)", Offset: 9},
	{Value: "CST_CN", Label: "CST (China Standard Time)", Offset: 8},
	{Value: "IST", Label: "IST (India Standard Time)", Offset: 5.5},
	{Value: "AEST", Label: "AEST (Australian Eastern Standard Time)", Offset: 10},
	{Value: "ACST", Label: "ACST (Australian Central Standard Time)", Offset: 9.5},
	{Value: "AWST", Label: "AWST (Australian Western Standard Time)", Offset: 8},
	{Value: "BRT", Label: "BRT (Brasília Time)", Offset: -3},
	{Value: "ART", Label: "ART (Argentina Time)", Offset: -3},
	{Value: "CLT", Label: "CLT (Chile Standard Time)", Offset: -3},
	{Value: "PET", Label: "PET (Peru Time)", Offset: -5},
	{Value: "SAST", Label: "SAST (South Africa Standard Time)", Offset: 2},
	{Value: "EAT", Label: "EAT (East Africa Time)", Offset: 3},
	{Value: "WAT", Label: "WAT (West Africa Time)", Offset: 1},
	{Value: "MSK", Label: "MSK (Moscow Standard Time)", Offset: 3},
	{Value: "GST", Label: "GST (Gulf Standard Time)", Offset: 4},
	{Value: "PKT", Label: "PKT (Pakistan Standard Time)", Offset: 5},
	{Value: "BST", Label: "BST (Bangladesh Standard Time)", Offset: 6},
	{Value: "ICT", Label: "ICT (Indochina Time)", Offset: 7},
	{Value: "KST", Label: "KST (Korea Standard Time)", Offset: 9},
	{Value: "NZST", Label: "NZST (New Zealand Standard Time)", Offset: 12},
	{Value: "FJT", Label: "FJT (Fiji Time)", Offset: 12},
	{Value: "HST", Label: "HST (Hawaii Standard Time)", Offset: -10},
	{Value: "AKST", Label: "AKST (Alaska Standard Time)", Offset: -9},
	{Value: "AST", Label: "AST (Atlantic Standard Time)", Offset: -4},
	{Value: "NST", Label: "NST (Newfoundland Standard Time)", Offset: -3.5},
	{Value: "CHST", Label: "CHST (Chamorro Standard Time)", Offset: 10},
	{Value: "SST", Label: "SST (Samoa Standard Time)", Offset: -11},
	{Value: "CHUT", Label: "CHUT (Chuuk Time)", Offset: 10},
	{Value: "PONT", Label: "PONT (Pohnpei Standard Time)", Offset: 11},
	{Value: "KOST", Label: "KOST (Kosrae Time)", Offset: 11},
	{Value: "MHT", Label: "MHT (Marshall Islands Time)", Offset: 12},
	{Value: "WAKT", Label: "WAKT (Wake Island Time)", Offset: 12},
	{Value: "CHADT", Label: "CHADT (Chatham Daylight Time)", Offset: 13.75},
	{Value: "NZDT", Label: "NZDT (New Zealand Daylight Time)", Offset: 13},
	{Value: "AEDT", Label: "AEDT (Australian Eastern Daylight Time)", Offset: 11},
	{Value: "ACDT", Label: "ACDT (Australian Central Daylight Time)", Offset: 10.5},
	{Value: "AWDT", Label: "AWDT (Australian Western Daylight Time)", Offset: 9},
	{Value: "EDT", Label: "EDT (Eastern Daylight Time)", Offset: -4},
	{Value: "CDT", Label: "CDT (Central Daylight Time)", Offset: -5},
	{Value: "MDT", Label: "MDT (Mountain Daylight Time)", Offset: -6},
	{Value: "PDT", Label: "PDT (Pacific Daylight Time)", Offset: -7},
	{Value: "ADT", Label: "ADT (Atlantic Daylight Time)", Offset: -3},
	{Value: "NDT", Label: "NDT (Newfoundland Daylight Time)", Offset: -2.5},
	{Value: "AKDT", Label: "AKDT (Alaska Daylight Time)", Offset: -8},
	{Value: "HADT", Label: "HADT (Hawaii-Aleutian Daylight Time)", Offset: -9},
	{Value: "BST_UK", Label: "BST (British Summer Time)", Offset: 1},
	{Value: "CEST", Label: "CEST (Central European Summer Time)", Offset: 2},
	{Value: "EEST", Label: "EEST (Eastern European Summer Time)", Offset: 3},
	{Value: "WEST", Label: "WEST (Western European Summer Time)", Offset: 1},
	{Value: "BRST", Label: "BRST (Brasília Summer Time)", Offset: -2},
	{Value: "ARST", Label: "ARST (Argentina Summer Time)", Offset: -2},
	{Value: "CLST", Label: "CLST (Chile Summer Time)", Offset: -2},
	{Value: "PEST", Label: "PEST (Peru Summer Time)", Offset: -4},
}

var groups = []Group{
	{Name: "Americas", Values: []string{"EST", "CST", "MST", "PST", "AST", "NST", "HST", "AKST", "BRT", "ART", "CLT", "PET"}},
	{Name: "Europe", Values: []string{"UTC", "GMT", "WET", "CET", "EET", "WEST", "CEST", "EEST", "BST_UK"}},
	{Name: "Asia", Values: []string{"JST", "CST_CN", "IST", "KST", "GST", "PKT", "BST", "ICT", "MSK"}},
	{Name: "Oceania", Values: []string{"AEST", "ACST", "AWST", "NZST", "FJT", "CHST", "CHUT", "PONT", "KOST", "MHT", "WAKT"}},
	{Name: "Africa", Values: []string{"SAST", "EAT", "WAT"}},
	{Name: "Pacific", Values: []string{"HST", "AKST", "CHST", "SST", "CHUT", "PONT", "KOST", "MHT", "WAKT"}},
	{Name: "Daylight Saving", Values: []string{"EDT", "CDT", "MDT", "PDT", "ADT", "NDT", "AKDT", "HADT", "BST_UK", "CEST", "EEST", "WEST", "BRST", "ARST", "CLST", "PEST", "CHADT", "NZDT", "AEDT", "ACDT", "AWDT"}},
}

var byValue = func() map[string]int {
	m := make(map[string]int, len(zones))
	for i, z := range zones {
		m[z.Value] = i
	}
	return m
}()

// Lookup returns the zone for value, falling back to UTC.
func Lookup(value string) Zone {
	if i, ok := byValue[value]; ok {
		return zones[i]
	}
	return zones[0]
}

// Known reports whether value names a zone in the table.
func Known(value string) bool {
	_, ok := byValue[value]
	return ok
}

// Offset returns the zone offset in hours.
func Offset(value string) float64 {
	return Lookup(value).Offset
}

// Location returns a fixed location named after the zone value.
func Location(value string) *time.Location {
	z := Lookup(value)
	return time.FixedZone(z.Value, int(math.Round(z.Offset*3600)))
}

// FromUTC presents t in the given zone. The instant does not change.
func FromUTC(t time.Time, value string) time.Time {
	return t.In(Location(value))
}

// Convert reads the wall clock of t as a time in zone from and returns the
// same instant presented in zone to.
func Convert(t time.Time, from, to string) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), Location(from)).In(Location(to))
}

// AdjustSamples returns a copy of samples with timestamps presented in the
// given zone. Samples without a timestamp are copied unchanged.
func AdjustSamples(samples []models.Sample, value string) []models.Sample {
	loc := Location(value)
	out := make([]models.Sample, len(samples))
	for i, s := range samples {
		if !s.Timestamp.IsZero() {
			s.Timestamp = s.Timestamp.In(loc)
		}
		out[i] = s
	}
	return out
}

// Label renders a zone as "<label> (UTC+<offset>)".
func Label(value string) string {
	z := Lookup(value)
	sign := ""
	if z.Offset >= 0 {
		sign = "+"
	}
	return z.Label + " (UTC" + sign + strconv.FormatFloat(z.Offset, 'f', -1, 64) + ")"
}

// Options lists every zone with its rendered label, in table order.
func Options() []Option {
	out := make([]Option, len(zones))
	for i, z := range zones {
		out[i] = Option{Value: z.Value, Label: Label(z.Value)}
	}
	return out
}

// Zones returns a copy of the table.
func Zones() []Zone {
	return append([]Zone(nil), zones...)
}

// Groups returns the regional grouping of zone values.
func Groups() []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = Group{Name: g.Name, Values: append([]string(nil), g.Values...)}
	}
	return out
}

// Detect picks the zone whose offset is closest to the offset of now's
// location. The first zone in table order wins a tie.
func Detect(now time.Time) string {
	_, secs := now.Zone()
	offset := float64(secs) / 3600
	best := zones[0]
	for _, z := range zones[1:] {
		if math.Abs(z.Offset-offset) < math.Abs(best.Offset-offset) {
			best = z
		}
	}
	return best.Value
}
