package stats

import (
	"time"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

// rankedHours is how many hours the top and bottom lists hold.
const rankedHours = 3

// Summary bundles every statistic derived from one series. A zero-sample
// series yields Summary{Empty: true} with non-nil empty collections.
type Summary struct {
	Empty       bool              `json:"empty"`
	Count       int               `json:"count"`
	First       time.Time         `json:"first"`
	Last        time.Time         `json:"last"`
	TotalKWh    float64           `json:"total_kwh"`
	Power       PowerSummary      `json:"power"`
	Quartiles   Quartiles         `json:"quartiles"`
	Variability VariabilityReport `json:"variability"`
	Outliers    OutlierReport     `json:"outliers"`
	Hourly      []HourMean        `json:"hourly"`
	TopHours    []HourMean        `json:"top_hours"`
	BottomHours []HourMean        `json:"bottom_hours"`
	Daily       []DayTotal        `json:"daily"`
	HighestDay  *DayTotal         `json:"highest_day,omitempty"`
	LowestDay   *DayTotal         `json:"lowest_day,omitempty"`
	MeanDaily   float64           `json:"mean_daily_kwh"`
	Flow        Flow              `json:"flow"`
	LoadCurve   LoadDurationCurve `json:"load_curve"`
	BoxPlots    []BoxPlot         `json:"box_plots"`
	Routine     RoutineInsight    `json:"routine"`
	Heatmap     []HeatCell        `json:"heatmap"`
	Busiest     *HeatCell         `json:"busiest,omitempty"`
}

// Summarize computes the full summary. Nothing is cached between calls.
func Summarize(samples []models.Sample) Summary {
	if len(samples) == 0 {
		return Summary{
			Empty:       true,
			Outliers:    OutlierReport{Values: []float64{}},
			Hourly:      []HourMean{},
			TopHours:    []HourMean{},
			BottomHours: []HourMean{},
			Daily:       []DayTotal{},
			Flow:        EnergyFlow(nil),
			LoadCurve:   LoadDuration(nil),
			BoxPlots:    []BoxPlot{},
			Routine:     Routine(nil),
			Heatmap:     []HeatCell{},
		}
	}

	energies := models.Energies(samples)
	s := Summary{
		Count:       len(samples),
		TotalKWh:    Total(samples),
		Power:       Power(samples),
		Variability: Variability(energies),
		Outliers:    Outliers(energies),
		Hourly:      HourlyMeans(samples),
		Daily:       DailyTotals(samples),
		Flow:        EnergyFlow(samples),
		LoadCurve:   LoadDuration(samples),
		BoxPlots:    HourlyBoxPlots(samples),
		Heatmap:     Heatmap(samples),
	}
	s.First, s.Last, _ = Range(samples)
	s.Quartiles, _ = QuartilesOf(energies)
	s.TopHours = TopHours(s.Hourly, rankedHours)
	s.BottomHours = BottomHours(s.Hourly, rankedHours)
	if high, low, ok := DailyExtremes(s.Daily); ok {
		s.HighestDay, s.LowestDay = &high, &low
	}
	s.MeanDaily = MeanDaily(s.Daily)
	s.Routine = Routine(s.BoxPlots)
	if cell, ok := Busiest(s.Heatmap); ok {
		s.Busiest = &cell
	}
	return s
}
