// Package digest renders a sample series as the fixed-layout text summary
// handed to a conversational model, and assembles the chat prompt around it.
//
// The field order and rounding of the digest are stable; a model reading it
// never sees the raw samples.
package digest

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tejusbharadwaj/meterlens/internal/models"
	"github.com/tejusbharadwaj/meterlens/internal/stats"
)

// Sentinels substituted for values that cannot be computed.
const (
	NoDataAvailable = "No data available"
	NoData          = "No data"
	NoHourlyData    = "No valid hourly data available"
	NoDailyData     = "No valid daily data available"
	NotAvailable    = "N/A"
)

// periodLayout renders dates as M/D/YYYY.
const periodLayout = "1/2/2006"

// Build returns the digest of samples, or NoDataAvailable when there are none.
func Build(samples []models.Sample) string {
	if len(samples) == 0 {
		return NoDataAvailable
	}
	return Render(stats.Summarize(samples))
}

// Render formats an already computed summary.
func Render(s stats.Summary) string {
	if s.Empty {
		return NoDataAvailable
	}

	loadFactor := NotAvailable
	if s.Power.MaxKW != 0 {
		loadFactor = fixed(s.Power.LoadFactorPct, 1)
	}
	cv := NotAvailable
	if s.TotalKWh != 0 {
		cv = fixed(s.Variability.CVPct, 1)
	}

	var b strings.Builder
	b.WriteString("Energy Data Summary:\n")
	fmt.Fprintf(&b, "- Data points: %d, Period: %s\n", s.Count, period(s))
	fmt.Fprintf(&b, "- Total energy: %s kWh\n", fixed(s.TotalKWh, 2))
	fmt.Fprintf(&b, "- Power range: %s kW to %s kW (avg: %s kW)\n",
		fixed(s.Power.MinKW, 2), fixed(s.Power.MaxKW, 2), fixed(s.Power.MeanKW, 2))
	fmt.Fprintf(&b, "- Load factor: %s%%\n", loadFactor)
	fmt.Fprintf(&b, "- Peak hours: %s\n", hourList(s.TopHours))
	fmt.Fprintf(&b, "- Low usage hours: %s\n", hourList(s.BottomHours))
	fmt.Fprintf(&b, "- Energy distribution: Q1: %s kWh, Median: %s kWh, Q3: %s kWh\n",
		fixed(s.Quartiles.Q1, 3), fixed(s.Quartiles.Q2, 3), fixed(s.Quartiles.Q3, 3))
	fmt.Fprintf(&b, "- Variability: Std dev: %s kWh, CV: %s%%\n", fixed(s.Variability.StdDev, 3), cv)
	fmt.Fprintf(&b, "- Outliers: %d outliers (%s%% of data)\n", s.Outliers.Count, fixed(s.Outliers.Percent, 1))
	fmt.Fprintf(&b, "- Hourly patterns: %s\n", hourlyPattern(s.TopHours))
	fmt.Fprintf(&b, "- Daily patterns: %s", dailyPattern(s))
	return b.String()
}

func period(s stats.Summary) string {
	if s.First.IsZero() || s.Last.IsZero() {
		return fmt.Sprintf("%d data points", s.Count)
	}
	return s.First.Format(periodLayout) + " to " + s.Last.Format(periodLayout)
}

func hourList(hours []stats.HourMean) string {
	if len(hours) == 0 {
		return NoData
	}
	return strings.Join(stats.HourLabels(hours), ", ")
}

func hourlyPattern(top []stats.HourMean) string {
	if len(top) == 0 {
		return NoHourlyData
	}
	parts := make([]string, len(top))
	for i, h := range top {
		parts[i] = fmt.Sprintf("%s (%s kWh)", h.Label(), fixed(h.MeanKWh, 3))
	}
	return "Peak hours: " + strings.Join(parts, ", ")
}

func dailyPattern(s stats.Summary) string {
	if s.HighestDay == nil || s.LowestDay == nil {
		return NoDailyData
	}
	return fmt.Sprintf("Highest day: %s (%s kWh), Lowest: %s (%s kWh)",
		s.HighestDay.Label, fixed(s.HighestDay.TotalKWh, 2),
		s.LowestDay.Label, fixed(s.LowestDay.TotalKWh, 2))
}

// exactDigits covers the longest fractional expansion of a float64.
const exactDigits = 1074

// fixed rounds the exact binary value of v half away from zero to places
// decimals, so 1.005 (stored just below 1.005) renders as "1.00".
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	exact := new(big.Float).SetFloat64(v).Text('f', exactDigits)
	return decimal.RequireFromString(exact).StringFixed(places)
}
