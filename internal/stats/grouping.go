package stats

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

// DayLabelLayout renders calendar days, e.g. "Mon Jan 01 2024".
const DayLabelLayout = "Mon Jan 02 2006"

// HourMean is the mean interval energy observed at one hour of the day.
type HourMean struct {
	Hour    int     `json:"hour"`
	MeanKWh float64 `json:"mean_kwh"`
	Count   int     `json:"count"`
}

// Label renders the hour as "{hour}:00".
func (h HourMean) Label() string {
	return HourLabel(h.Hour)
}

// DayTotal is the energy consumed on one calendar day.
type DayTotal struct {
	Date     time.Time `json:"date"`
	Label    string    `json:"label"`
	TotalKWh float64   `json:"total_kwh"`
	Count    int       `json:"count"`
}

// HeatCell is the energy consumed during one hour of one day.
type HeatCell struct {
	Date      time.Time `json:"date"`
	Hour      int       `json:"hour"`
	EnergyKWh float64   `json:"energy_kwh"`
}

// HourLabel renders an hour of the day as "{hour}:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%d:00", hour)
}

// byHour partitions samples by local hour. Samples without a timestamp are
// left out of the partition.
func byHour(samples []models.Sample) [24][]float64 {
	var groups [24][]float64
	for _, s := range samples {
		if s.Timestamp.IsZero() {
			continue
		}
		h := s.Timestamp.Hour()
		groups[h] = append(groups[h], s.EnergyKWh)
	}
	return groups
}

// HourlyMeans returns one entry per observed hour, in ascending hour order.
func HourlyMeans(samples []models.Sample) []HourMean {
	out := []HourMean{}
	for hour, energies := range byHour(samples) {
		if len(energies) == 0 {
			continue
		}
		out = append(out, HourMean{
			Hour:    hour,
			MeanKWh: stat.Mean(energies, nil),
			Count:   len(energies),
		})
	}
	return out
}

// TopHours returns up to n hours with the highest mean energy. Equal means
// keep ascending hour order.
func TopHours(hourly []HourMean, n int) []HourMean {
	return rankHours(hourly, n, func(a, b HourMean) bool { return a.MeanKWh > b.MeanKWh })
}

// BottomHours returns up to n hours with the lowest mean energy. Equal means
// keep ascending hour order.
func BottomHours(hourly []HourMean, n int) []HourMean {
	return rankHours(hourly, n, func(a, b HourMean) bool { return a.MeanKWh < b.MeanKWh })
}

func rankHours(hourly []HourMean, n int, less func(a, b HourMean) bool) []HourMean {
	ranked := make([]HourMean, len(hourly))
	copy(ranked, hourly)
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	if n < 0 {
		n = 0
	}
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// HourLabels maps hours to their "{hour}:00" labels.
func HourLabels(hours []HourMean) []string {
	labels := make([]string, len(hours))
	for i, h := range hours {
		labels[i] = h.Label()
	}
	return labels
}

// DailyTotals sums energy per calendar day, in chronological order.
func DailyTotals(samples []models.Sample) []DayTotal {
	index := map[time.Time]int{}
	out := []DayTotal{}
	for _, s := range samples {
		if s.Timestamp.IsZero() {
			continue
		}
		day := truncateDay(s.Timestamp)
		i, ok := index[day]
		if !ok {
			i = len(out)
			index[day] = i
			out = append(out, DayTotal{Date: day, Label: day.Format(DayLabelLayout)})
		}
		out[i].TotalKWh += s.EnergyKWh
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// DailyExtremes returns the first chronological day with the highest total
// and the first with the lowest total. Ties on either extreme resolve to the
// earliest day, never the latest.
func DailyExtremes(days []DayTotal) (high, low DayTotal, ok bool) {
	if len(days) == 0 {
		return DayTotal{}, DayTotal{}, false
	}
	high, low = days[0], days[0]
	for _, d := range days[1:] {
		if d.TotalKWh > high.TotalKWh {
			high = d
		}
		if d.TotalKWh < low.TotalKWh {
			low = d
		}
	}
	return high, low, true
}

// MeanDaily returns the average daily total, or 0 without days.
func MeanDaily(days []DayTotal) float64 {
	if len(days) == 0 {
		return 0
	}
	totals := make([]float64, len(days))
	for i, d := range days {
		totals[i] = d.TotalKWh
	}
	return floats.Sum(totals) / float64(len(totals))
}

// Heatmap sums energy per day and hour, ordered by day then hour.
func Heatmap(samples []models.Sample) []HeatCell {
	type key struct {
		day  time.Time
		hour int
	}
	index := map[key]int{}
	out := []HeatCell{}
	for _, s := range samples {
		if s.Timestamp.IsZero() {
			continue
		}
		k := key{day: truncateDay(s.Timestamp), hour: s.Timestamp.Hour()}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, HeatCell{Date: k.day, Hour: k.hour})
		}
		out[i].EnergyKWh += s.EnergyKWh
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

// Busiest returns the first cell holding the highest energy.
func Busiest(cells []HeatCell) (HeatCell, bool) {
	if len(cells) == 0 {
		return HeatCell{}, false
	}
	best := cells[0]
	for _, c := range cells[1:] {
		if c.EnergyKWh > best.EnergyKWh {
			best = c
		}
	}
	return best, true
}

// Range returns the timestamps of the first and last sample.
func Range(samples []models.Sample) (first, last time.Time, ok bool) {
	if len(samples) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return samples[0].Timestamp, samples[len(samples)-1].Timestamp, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
