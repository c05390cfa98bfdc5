package stats

import "github.com/tejusbharadwaj/meterlens/internal/models"

// Band is a coarse segment of the day used for the energy flow breakdown.
type Band string

const (
	BandPeak    Band = "peak"
	BandOffPeak Band = "off-peak"
	BandNight   Band = "night"
)

// Usage tiers the bands flow into.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// BandOf maps an hour to its band: 6-9 and 17-21 are peak, 10-16 off-peak,
// everything else night.
func BandOf(hour int) Band {
	switch {
	case (hour >= 6 && hour <= 9) || (hour >= 17 && hour <= 21):
		return BandPeak
	case hour >= 10 && hour <= 16:
		return BandOffPeak
	default:
		return BandNight
	}
}

// FlowLink is one edge of the energy flow diagram.
type FlowLink struct {
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	EnergyKWh float64 `json:"energy_kwh"`
	SharePct  float64 `json:"share_pct"`
}

// Flow splits consumption across the three bands. Potential rates the room
// for load shifting: high above 50% peak share, medium above 35%, low otherwise.
type Flow struct {
	TotalKWh   float64    `json:"total_kwh"`
	PeakKWh    float64    `json:"peak_kwh"`
	OffPeakKWh float64    `json:"off_peak_kwh"`
	NightKWh   float64    `json:"night_kwh"`
	PeakPct    float64    `json:"peak_pct"`
	OffPeakPct float64    `json:"off_peak_pct"`
	NightPct   float64    `json:"night_pct"`
	Potential  string     `json:"potential"`
	Links      []FlowLink `json:"links"`
}

// tierSplits is how each band's energy is attributed to usage tiers.
var tierSplits = []struct {
	band   Band
	tier   string
	factor float64
}{
	{BandPeak, TierHigh, 0.8},
	{BandPeak, TierMedium, 0.2},
	{BandOffPeak, TierMedium, 0.7},
	{BandOffPeak, TierLow, 0.3},
	{BandNight, TierLow, 0.9},
	{BandNight, TierMedium, 0.1},
}

// EnergyFlow sums energy per band. Samples without a timestamp count as night.
func EnergyFlow(samples []models.Sample) Flow {
	f := Flow{Links: []FlowLink{}}
	for _, s := range samples {
		f.TotalKWh += s.EnergyKWh
		switch BandOf(s.Timestamp.Hour()) {
		case BandPeak:
			f.PeakKWh += s.EnergyKWh
		case BandOffPeak:
			f.OffPeakKWh += s.EnergyKWh
		default:
			f.NightKWh += s.EnergyKWh
		}
	}
	f.PeakPct = ratioPct(f.PeakKWh, f.TotalKWh)
	f.OffPeakPct = ratioPct(f.OffPeakKWh, f.TotalKWh)
	f.NightPct = ratioPct(f.NightKWh, f.TotalKWh)

	switch {
	case f.PeakPct > 50:
		f.Potential = TierHigh
	case f.PeakPct > 35:
		f.Potential = TierMedium
	default:
		f.Potential = TierLow
	}

	if len(samples) == 0 {
		return f
	}
	byBand := map[Band]float64{BandPeak: f.PeakKWh, BandOffPeak: f.OffPeakKWh, BandNight: f.NightKWh}
	for _, band := range []Band{BandPeak, BandOffPeak, BandNight} {
		f.Links = append(f.Links, FlowLink{
			Source:    "source",
			Target:    string(band),
			EnergyKWh: byBand[band],
			SharePct:  ratioPct(byBand[band], f.TotalKWh),
		})
	}
	for _, split := range tierSplits {
		e := byBand[split.band] * split.factor
		f.Links = append(f.Links, FlowLink{
			Source:    string(split.band),
			Target:    split.tier,
			EnergyKWh: e,
			SharePct:  ratioPct(e, f.TotalKWh),
		})
	}
	return f
}
