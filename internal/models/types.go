package models

import "time"

// Sample represents a single 15-minute interval reading
type Sample struct {
	Timestamp time.Time `json:"timestamp_utc"`
	EnergyKWh float64   `json:"energy_kwh"`
	PowerKW   float64   `json:"power_kw"`
	Position  int       `json:"position"`
}

// TimezoneMeta describes the timezone a document was originally recorded in
type TimezoneMeta struct {
	Name        string  `json:"name"`
	OffsetHours float64 `json:"offset_hours"`
	ShortLabel  string  `json:"short_label"`
}

// ParseReport counts what the parser saw and what it had to skip
type ParseReport struct {
	Periods        int `json:"periods"`
	SkippedPeriods int `json:"skipped_periods"`
	Points         int `json:"points"`
	SkippedPoints  int `json:"skipped_points"`
}

// ParseResult is the normalized output of a single document.
// An empty Samples slice means the document held no usable data.
type ParseResult struct {
	Samples  []Sample     `json:"samples"`
	Timezone TimezoneMeta `json:"timezone"`
	Report   ParseReport  `json:"report"`
}

// Energies returns the energy values of samples in order
func Energies(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.EnergyKWh
	}
	return out
}

// Powers returns the power values of samples in order
func Powers(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.PowerKW
	}
	return out
}
