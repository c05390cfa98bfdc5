package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/meterlens/internal/digest"
	"github.com/tejusbharadwaj/meterlens/internal/models"
	"github.com/tejusbharadwaj/meterlens/internal/service"
	"github.com/tejusbharadwaj/meterlens/internal/source"
	"github.com/tejusbharadwaj/meterlens/internal/timezone"
)

const document = `<MyEnergyData_MarketDocument xmlns="urn:iec62325.351:tc57wg16:451-10:myenergydatamessage:1:0">
  <TimeSeries>
    <Period>
      <timeInterval><start>2024-01-01T00:00Z</start></timeInterval>
      <Point><position>1</position><quantity>0.5</quantity></Point>
      <Point><position>2</position><quantity>1.5</quantity></Point>
    </Period>
  </TimeSeries>
</MyEnergyData_MarketDocument>`

type fixture struct {
	router  http.Handler
	dataset *source.Dataset
}

func newFixture(t *testing.T, config Config) fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	metrics, err := service.NewMetrics(reg)
	require.NoError(t, err)

	if config.MaxDocumentBytes == 0 {
		config.MaxDocumentBytes = 4096
	}
	if config.RateLimit == 0 {
		config.RateLimit, config.RateLimitBurst = 100, 100
	}
	dataset := source.NewDataset()
	analyzer := service.NewAnalyzer(logger, metrics, "")
	h := NewHandler(analyzer, dataset, service.NewRequestValidator(int(config.MaxDocumentBytes)), config, "", logger)
	router := Wrap(NewRouter(h, reg, config), &bytes.Buffer{}, logger, config)
	return fixture{router: router, dataset: dataset}
}

func (f fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestParseEndpoint(t *testing.T) {
	f := newFixture(t, Config{})

	rec := f.do(t, "POST", "/api/v1/parse?country=FI", document)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	result := decode[models.ParseResult](t, rec)
	require.Len(t, result.Samples, 2)
	assert.Equal(t, 6.0, result.Samples[1].PowerKW)
	assert.Equal(t, 2.0, result.Timezone.OffsetHours)

	tests := []struct {
		name   string
		target string
		body   string
		code   int
	}{
		{"empty body", "/api/v1/parse", "", http.StatusBadRequest},
		{"bad country", "/api/v1/parse?country=9", document, http.StatusBadRequest},
		{"too large", "/api/v1/parse", strings.Repeat(" ", 5000), http.StatusBadRequest},
		{"malformed is not an error", "/api/v1/parse", "<<<", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, "POST", tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code != http.StatusOK {
				assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
			}
		})
	}

	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, "GET", "/api/v1/parse", "").Code)
}

func TestValidateEndpoint(t *testing.T) {
	f := newFixture(t, Config{})

	ok := decode[validateResponse](t, f.do(t, "POST", "/api/v1/validate", document))
	assert.Equal(t, validateResponse{Valid: true, Periods: 1}, ok)

	bad := decode[validateResponse](t, f.do(t, "POST", "/api/v1/validate", "<a><b></a>"))
	assert.False(t, bad.Valid)
	assert.Contains(t, bad.Error, "malformed XML")
}

func TestSummaryEndpoint(t *testing.T) {
	f := newFixture(t, Config{})

	rec := f.do(t, "POST", "/api/v1/summary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, "POST", "/api/v1/summary?tz=IST", document)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[service.Report](t, rec)
	assert.Equal(t, 2.0, report.Summary.TotalKWh)
	assert.Equal(t, "IST", report.Display.Value)
	assert.Equal(t, "5:00", report.Summary.TopHours[0].Label())
	assert.True(t, strings.HasPrefix(report.Digest, "Energy Data Summary:"))

	f.dataset.Set(models.ParseResult{Samples: []models.Sample{
		{Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), EnergyKWh: 3, PowerKW: 12, Position: 1},
	}}, "test")
	report = decode[service.Report](t, f.do(t, "POST", "/api/v1/summary", ""))
	assert.Equal(t, 3.0, report.Summary.TotalKWh)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/api/v1/summary?tz=Nowhere", "").Code)
}

func TestDatasetEndpoint(t *testing.T) {
	f := newFixture(t, Config{})
	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/api/v1/dataset", "").Code)

	f.dataset.Set(models.ParseResult{Samples: []models.Sample{
		{Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), EnergyKWh: 3, PowerKW: 12, Position: 1},
	}}, "file.xml")

	rec := f.do(t, "GET", "/api/v1/dataset?tz=CET", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Origin   string `json:"origin"`
		LoadedAt string `json:"loaded_at"`
		Samples  []struct {
			Timestamp string `json:"timestamp_utc"`
		} `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "file.xml", body.Origin)
	assert.True(t, strings.HasSuffix(body.LoadedAt, "+01:00"), body.LoadedAt)
	require.Len(t, body.Samples, 1)
	assert.Equal(t, "2024-03-01T13:00:00+01:00", body.Samples[0].Timestamp)
}

func TestTimezonesEndpoint(t *testing.T) {
	f := newFixture(t, Config{})
	resp := decode[timezonesResponse](t, f.do(t, "GET", "/api/v1/timezones", ""))
	assert.Equal(t, "UTC", resp.Default)
	assert.Equal(t, timezone.Detect(time.Now()), resp.Detected)
	assert.Len(t, resp.Options, 62)
	assert.Len(t, resp.Groups, 7)
}

func TestConvertEndpoint(t *testing.T) {
	f := newFixture(t, Config{})

	rec := f.do(t, "GET", "/api/v1/convert?time=2024-01-01T12:00:00&from=CET&to=JST", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		From string `json:"from"`
		To   string `json:"to"`
		Time string `json:"time"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CET", body.From)
	assert.Equal(t, "JST", body.To)
	assert.Equal(t, "2024-01-01T20:00:00+09:00", body.Time)

	rec = f.do(t, "GET", "/api/v1/convert?time=2024-01-01T12:00:00&from=EST", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UTC", body.To)
	assert.Equal(t, "2024-01-01T17:00:00Z", body.Time)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/api/v1/convert?from=CET", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/api/v1/convert?time=soon", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/api/v1/convert?time=2024-01-01T12:00:00&to=Mars", "").Code)
}

func TestPromptEndpoint(t *testing.T) {
	f := newFixture(t, Config{})

	body, err := json.Marshal(promptRequest{
		Question: "when is my peak?",
		History:  []digest.Message{{Role: digest.RoleUser, Content: "hi"}, {Role: digest.RoleAssistant, Content: "hello"}},
		Document: document,
	})
	require.NoError(t, err)

	rec := f.do(t, "POST", "/api/v1/prompt", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[promptResponse](t, rec)
	require.Len(t, resp.Messages, 5)
	assert.Equal(t, digest.SystemPrompt, resp.Messages[0].Content)
	assert.Equal(t, "hi", resp.Messages[1].Content)
	assert.Contains(t, resp.Messages[3].Content, "Data points: 2")
	assert.Equal(t, "when is my peak?", resp.Messages[4].Content)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/api/v1/prompt", `{"question":" "}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/api/v1/prompt", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "POST", "/api/v1/prompt", `{"question":"q"}`).Code)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, Config{RateLimit: 0.001, RateLimitBurst: 1})

	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/api/v1/timezones", "").Code)
	rec := f.do(t, "GET", "/api/v1/timezones", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decode[errorResponse](t, rec).Error)

	// Health and metrics are not rate limited.
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/healthz", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, Config{})
	f.do(t, "POST", "/api/v1/parse", document)

	health := decode[map[string]interface{}](t, f.do(t, "GET", "/healthz", ""))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["dataset_loaded"])

	rec := f.do(t, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `meterlens_documents_parsed_total{outcome="parsed"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, Config{AllowedOrigins: []string{"https://dashboard.example"}})

	req := httptest.NewRequest("OPTIONS", "/api/v1/parse", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
