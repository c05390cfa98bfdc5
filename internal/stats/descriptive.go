// Package stats derives descriptive statistics from a sample series.
//
// Every function is pure and total: empty or degenerate input produces a
// documented zero value (or ok == false) rather than NaN, +Inf, -Inf or a panic.
// Grouping by hour and by calendar day uses each sample's own location, so
// callers re-zone the series (see package timezone) before calling in.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

// PowerSummary holds the power extrema and the load factor.
type PowerSummary struct {
	MinKW  float64 `json:"min_kw"`
	MaxKW  float64 `json:"max_kw"`
	MeanKW float64 `json:"mean_kw"`
	// LoadFactorPct is MeanKW/MaxKW*100, or 0 when MaxKW is 0.
	LoadFactorPct float64 `json:"load_factor_pct"`
}

// Quartiles are nearest-rank quartiles of an ascending series.
type Quartiles struct {
	Q1  float64 `json:"q1"`
	Q2  float64 `json:"q2"`
	Q3  float64 `json:"q3"`
	IQR float64 `json:"iqr"`
}

// OutlierReport lists values outside the Tukey fences.
type OutlierReport struct {
	Count   int       `json:"count"`
	Percent float64   `json:"percent"`
	Lower   float64   `json:"lower_fence"`
	Upper   float64   `json:"upper_fence"`
	Values  []float64 `json:"values"`
}

// VariabilityReport holds the population standard deviation and the
// coefficient of variation in percent.
type VariabilityReport struct {
	StdDev float64 `json:"std_dev"`
	CVPct  float64 `json:"cv_pct"`
}

// Total returns the summed energy of samples in kWh.
func Total(samples []models.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	return floats.Sum(models.Energies(samples))
}

// Power summarizes the power column.
func Power(samples []models.Sample) PowerSummary {
	if len(samples) == 0 {
		return PowerSummary{}
	}
	powers := models.Powers(samples)
	p := PowerSummary{
		MinKW:  floats.Min(powers),
		MaxKW:  floats.Max(powers),
		MeanKW: stat.Mean(powers, nil),
	}
	p.LoadFactorPct = ratioPct(p.MeanKW, p.MaxKW)
	return p
}

// QuartilesOf computes Q1, Q2 and Q3 by nearest rank: the value at zero-based
// index floor(n*p) of the ascending series. No interpolation takes place.
func QuartilesOf(values []float64) (Quartiles, bool) {
	if len(values) == 0 {
		return Quartiles{}, false
	}
	sorted := ascending(values)
	q := Quartiles{
		Q1: nearestRank(sorted, 0.25),
		Q2: nearestRank(sorted, 0.5),
		Q3: nearestRank(sorted, 0.75),
	}
	q.IQR = q.Q3 - q.Q1
	return q, true
}

// Outliers applies Tukey's rule with fences at Q1-1.5*IQR and Q3+1.5*IQR.
// Outlying values are reported in ascending order.
func Outliers(values []float64) OutlierReport {
	q, ok := QuartilesOf(values)
	if !ok {
		return OutlierReport{Values: []float64{}}
	}
	r := OutlierReport{
		Lower:  q.Q1 - 1.5*q.IQR,
		Upper:  q.Q3 + 1.5*q.IQR,
		Values: []float64{},
	}
	for _, v := range ascending(values) {
		if v < r.Lower || v > r.Upper {
			r.Values = append(r.Values, v)
		}
	}
	r.Count = len(r.Values)
	r.Percent = float64(r.Count) / float64(len(values)) * 100
	return r
}

// Variability divides by n, not n-1.
func Variability(values []float64) VariabilityReport {
	if len(values) == 0 {
		return VariabilityReport{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return VariabilityReport{
		StdDev: std,
		CVPct:  ratioPct(std, mean),
	}
}

func nearestRank(sorted []float64, p float64) float64 {
	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// linearQuantile interpolates between closest ranks (R-7), the rule used for
// box plots and the base load.
func linearQuantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*(h-float64(lo))
}

func ascending(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

func ratioPct(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den * 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
