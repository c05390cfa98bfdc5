package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

// intervalHours is the duration of one sample in hours.
const intervalHours = 0.25

// DurationPoint is one step of the load duration curve.
type DurationPoint struct {
	PowerKW     float64 `json:"power_kw"`
	DurationPct float64 `json:"duration_pct"`
	Hours       float64 `json:"hours"`
}

// LoadDurationCurve orders power from highest to lowest against the share of
// time it is met or exceeded.
type LoadDurationCurve struct {
	Points               []DurationPoint `json:"points"`
	PeakKW               float64         `json:"peak_kw"`
	MeanKW               float64         `json:"mean_kw"`
	BaseLoadKW           float64         `json:"base_load_kw"`
	ReductionPotentialKW float64         `json:"reduction_potential_kw"`
	HoursAboveBase       float64         `json:"hours_above_base"`
	LoadFactorPct        float64         `json:"load_factor_pct"`
}

// LoadDuration builds the curve. The base load is the 80th percentile of
// power, interpolated linearly.
func LoadDuration(samples []models.Sample) LoadDurationCurve {
	c := LoadDurationCurve{Points: []DurationPoint{}}
	n := len(samples)
	if n == 0 {
		return c
	}

	powers := models.Powers(samples)
	sorted := ascending(powers)
	for i := range sorted {
		p := sorted[n-1-i]
		c.Points = append(c.Points, DurationPoint{
			PowerKW:     p,
			DurationPct: float64(i+1) / float64(n) * 100,
			Hours:       float64(i+1) * intervalHours,
		})
	}

	c.PeakKW = floats.Max(powers)
	c.MeanKW = stat.Mean(powers, nil)
	c.BaseLoadKW = linearQuantile(sorted, 0.8)
	c.ReductionPotentialKW = c.PeakKW - c.BaseLoadKW
	above := 0
	for _, p := range powers {
		if p > c.BaseLoadKW {
			above++
		}
	}
	c.HoursAboveBase = float64(above) * intervalHours
	c.LoadFactorPct = ratioPct(c.MeanKW, c.PeakKW)
	return c
}

// BoxPlot summarizes the energy distribution of one hour of the day.
type BoxPlot struct {
	Hour         int       `json:"hour"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	LowerWhisker float64   `json:"lower_whisker"`
	UpperWhisker float64   `json:"upper_whisker"`
	Outliers     []float64 `json:"outliers"`
	Count        int       `json:"count"`
}

// HourlyBoxPlots returns one box per observed hour in ascending hour order.
// Quartiles are linearly interpolated; whiskers stop at the data range.
func HourlyBoxPlots(samples []models.Sample) []BoxPlot {
	out := []BoxPlot{}
	for hour, energies := range byHour(samples) {
		if len(energies) == 0 {
			continue
		}
		sorted := ascending(energies)
		b := BoxPlot{
			Hour:     hour,
			Q1:       linearQuantile(sorted, 0.25),
			Median:   linearQuantile(sorted, 0.5),
			Q3:       linearQuantile(sorted, 0.75),
			Outliers: []float64{},
			Count:    len(sorted),
		}
		iqr := b.Q3 - b.Q1
		b.LowerWhisker = max(b.Q1-1.5*iqr, sorted[0])
		b.UpperWhisker = min(b.Q3+1.5*iqr, sorted[len(sorted)-1])
		for _, e := range sorted {
			if e < b.LowerWhisker || e > b.UpperWhisker {
				b.Outliers = append(b.Outliers, e)
			}
		}
		out = append(out, b)
	}
	return out
}

// Routine kinds inferred from the hour with the highest median.
const (
	RoutineMorningPeak = "morning peak"
	RoutineEveningPeak = "evening peak"
	RoutineNight       = "night activity"
	RoutineDaytime     = "daytime usage"
	RoutineMixed       = "mixed"
)

// RoutineInsight interprets the hourly box plots.
type RoutineInsight struct {
	PeakMedianHour       int     `json:"peak_median_hour"`
	PeakMedianKWh        float64 `json:"peak_median_kwh"`
	LowMedianHour        int     `json:"low_median_hour"`
	LowMedianKWh         float64 `json:"low_median_kwh"`
	TotalOutliers        int     `json:"total_outliers"`
	HighVariabilityHours int     `json:"high_variability_hours"`
	Routine              string  `json:"routine"`
}

// Routine reports the hours with the highest and lowest median (first in hour
// order on ties), the outlier total, how many hours have (Q3-Q1)/median above
// 0.5, and the routine the peak hour suggests.
func Routine(boxes []BoxPlot) RoutineInsight {
	r := RoutineInsight{Routine: RoutineMixed}
	if len(boxes) == 0 {
		return r
	}
	peak, low := boxes[0], boxes[0]
	for _, b := range boxes {
		if b.Median > peak.Median {
			peak = b
		}
		if b.Median < low.Median {
			low = b
		}
		r.TotalOutliers += len(b.Outliers)
		if b.Median > 0 && (b.Q3-b.Q1)/b.Median > 0.5 {
			r.HighVariabilityHours++
		}
	}
	r.PeakMedianHour, r.PeakMedianKWh = peak.Hour, peak.Median
	r.LowMedianHour, r.LowMedianKWh = low.Hour, low.Median

	switch h := peak.Hour; {
	case h >= 6 && h <= 9:
		r.Routine = RoutineMorningPeak
	case h >= 17 && h <= 21:
		r.Routine = RoutineEveningPeak
	case h >= 22 || h <= 5:
		r.Routine = RoutineNight
	default:
		r.Routine = RoutineDaytime
	}
	return r
}
