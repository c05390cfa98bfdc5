package digest

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func series(from time.Time, energies ...float64) []models.Sample {
	out := make([]models.Sample, len(energies))
	for i, e := range energies {
		out[i] = models.Sample{
			Timestamp: from.Add(time.Duration(i) * 15 * time.Minute),
			EnergyKWh: e,
			PowerKW:   e * 4,
			Position:  i + 1,
		}
	}
	return out
}

func TestBuild_FourPoints(t *testing.T) {
	want := strings.Join([]string{
		"Energy Data Summary:",
		"- Data points: 4, Period: 1/1/2024 to 1/1/2024",
		"- Total energy: 4.00 kWh",
		"- Power range: 4.00 kW to 4.00 kW (avg: 4.00 kW)",
		"- Load factor: 100.0%",
		"- Peak hours: 0:00",
		"- Low usage hours: 0:00",
		"- Energy distribution: Q1: 1.000 kWh, Median: 1.000 kWh, Q3: 1.000 kWh",
		"- Variability: Std dev: 0.000 kWh, CV: 0.0%",
		"- Outliers: 0 outliers (0.0% of data)",
		"- Hourly patterns: Peak hours: 0:00 (1.000 kWh)",
		"- Daily patterns: Highest day: Mon Jan 01 2024 (4.00 kWh), Lowest: Mon Jan 01 2024 (4.00 kWh)",
	}, "\n")

	assert.Equal(t, want, Build(series(start, 1, 1, 1, 1)))
}

func TestBuild_Empty(t *testing.T) {
	assert.Equal(t, NoDataAvailable, Build(nil))
	assert.Equal(t, NoDataAvailable, Build([]models.Sample{}))
}

func TestBuild_ZeroConsumption(t *testing.T) {
	got := Build(series(start, 0, 0))

	assert.Contains(t, got, "- Load factor: N/A%")
	assert.Contains(t, got, "CV: N/A%")
	assert.NotContains(t, got, "NaN")
}

func TestBuild_MissingTimestamps(t *testing.T) {
	samples := []models.Sample{{EnergyKWh: 1, PowerKW: 4}, {EnergyKWh: 2, PowerKW: 8}}
	got := Build(samples)

	assert.Contains(t, got, "Period: 2 data points")
	assert.Contains(t, got, "- Peak hours: "+NoData+"\n")
	assert.Contains(t, got, "- Low usage hours: "+NoData+"\n")
	assert.Contains(t, got, "- Hourly patterns: "+NoHourlyData+"\n")
	assert.True(t, strings.HasSuffix(got, "- Daily patterns: "+NoDailyData))
}

func TestBuild_MultipleDays(t *testing.T) {
	var samples []models.Sample
	samples = append(samples, series(start.Add(18*time.Hour), 2, 2)...)
	samples = append(samples, series(start.AddDate(0, 0, 1).Add(6*time.Hour), 0.5)...)
	samples = append(samples, series(start.AddDate(0, 0, 1).Add(12*time.Hour), 1)...)

	got := Build(samples)
	assert.Contains(t, got, "Period: 1/1/2024 to 1/2/2024")
	assert.Contains(t, got, "- Peak hours: 18:00, 12:00, 6:00")
	assert.Contains(t, got, "- Low usage hours: 6:00, 12:00, 18:00")
	assert.Contains(t, got, "Hourly patterns: Peak hours: 18:00 (2.000 kWh), 12:00 (1.000 kWh), 6:00 (0.500 kWh)")
	assert.Contains(t, got, "Highest day: Mon Jan 01 2024 (4.00 kWh), Lowest: Tue Jan 02 2024 (1.50 kWh)")
}

func TestFixed(t *testing.T) {
	tests := []struct {
		v      float64
		places int32
		want   string
	}{
		{2.675, 2, "2.67"},
		{1.005, 2, "1.00"},
		{0.125, 2, "0.13"},
		{0.0005, 3, "0.001"},
		{-1.25, 1, "-1.3"},
		{100, 1, "100.0"},
		{math.NaN(), 2, NotAvailable},
		{math.Inf(1), 2, NotAvailable},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.v), func(t *testing.T) {
			assert.Equal(t, tt.want, fixed(tt.v, tt.places))
		})
	}
}

func TestBuild_RoundsBinaryValue(t *testing.T) {
	got := Build(series(start, 1.005))

	assert.Contains(t, got, "- Total energy: 1.00 kWh")
	assert.Contains(t, got, "(1.00 kWh), Lowest:")
	assert.Contains(t, got, "- Power range: 4.02 kW to 4.02 kW")
}

func TestMessages(t *testing.T) {
	var history []Message
	for i := 0; i < 6; i++ {
		history = Record(history, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	require.Len(t, history, 12)

	t.Run("with data", func(t *testing.T) {
		msgs := Messages(history, "when do I use most?", series(start, 1, 1, 1, 1), DefaultMaxHistory)

		require.Len(t, msgs, 13)
		assert.Equal(t, Message{Role: RoleSystem, Content: SystemPrompt}, msgs[0])
		assert.Equal(t, Message{Role: RoleUser, Content: "q1"}, msgs[1])
		assert.Equal(t, Message{Role: RoleAssistant, Content: "a5"}, msgs[10])
		assert.Equal(t, RoleSystem, msgs[11].Role)
		assert.True(t, strings.HasPrefix(msgs[11].Content, "You also have access to this energy data: Energy Data Summary:"))
		assert.Equal(t, Message{Role: RoleUser, Content: "when do I use most?"}, msgs[12])
	})

	t.Run("without data", func(t *testing.T) {
		msgs := Messages(nil, "hello", nil, 0)
		assert.Equal(t, []Message{
			{Role: RoleSystem, Content: SystemPrompt},
			{Role: RoleUser, Content: "hello"},
		}, msgs)
	})

	t.Run("custom limit", func(t *testing.T) {
		msgs := Messages(history, "q", nil, 2)
		require.Len(t, msgs, 4)
		assert.Equal(t, "q5", msgs[1].Content)
		assert.Equal(t, "a5", msgs[2].Content)
	})

	t.Run("history untouched", func(t *testing.T) {
		_ = Messages(history, "q", nil, 2)
		assert.Len(t, history, 12)
		assert.Equal(t, "q0", history[0].Content)
	})
}
