package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/tejusbharadwaj/meterlens/internal/digest"
	"github.com/tejusbharadwaj/meterlens/internal/models"
	"github.com/tejusbharadwaj/meterlens/internal/service"
	"github.com/tejusbharadwaj/meterlens/internal/source"
	"github.com/tejusbharadwaj/meterlens/internal/timezone"
)

var errRateLimited = errors.New("rate limit exceeded")

// Handler serves the REST endpoints.
type Handler struct {
	analyzer    *service.Analyzer
	dataset     *source.Dataset
	validator   *service.RequestValidator
	maxBytes    int64
	defaultZone string
	logger      *logrus.Logger
}

func NewHandler(
	analyzer *service.Analyzer,
	dataset *source.Dataset,
	validator *service.RequestValidator,
	config Config,
	defaultZone string,
	logger *logrus.Logger,
) *Handler {
	if defaultZone == "" {
		defaultZone = timezone.Default
	}
	return &Handler{
		analyzer:    analyzer,
		dataset:     dataset,
		validator:   validator,
		maxBytes:    config.MaxDocumentBytes,
		defaultZone: defaultZone,
		logger:      logger,
	}
}

type validateResponse struct {
	Valid   bool   `json:"valid"`
	Periods int    `json:"periods"`
	Error   string `json:"error,omitempty"`
}

type datasetResponse struct {
	Origin   string              `json:"origin"`
	LoadedAt time.Time           `json:"loaded_at"`
	Source   models.TimezoneMeta `json:"source_timezone"`
	Display  timezone.Zone       `json:"display_timezone"`
	Report   models.ParseReport  `json:"report"`
	Samples  []models.Sample     `json:"samples"`
}

type timezonesResponse struct {
	Default  string            `json:"default"`
	Detected string            `json:"detected"`
	Options  []timezone.Option `json:"options"`
	Groups   []timezone.Group  `json:"groups"`
}

type convertResponse struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	Time time.Time `json:"time"`
}

type promptRequest struct {
	Question        string           `json:"question"`
	History         []digest.Message `json:"history"`
	MaxHistory      int              `json:"max_history"`
	Document        string           `json:"document"`
	CountryHint     string           `json:"country_hint"`
	DisplayTimezone string           `json:"display_timezone"`
}

type promptResponse struct {
	Messages []digest.Message `json:"messages"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	_, loaded := h.dataset.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"dataset_loaded": loaded,
	})
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	document, err := h.readDocument(r, true)
	if err == nil {
		err = h.validator.ValidateCountry(country)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.analyzer.Parse(r.Context(), document, country)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	document, err := h.readDocument(r, true)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	periods, err := h.analyzer.Validate(r.Context(), document)
	if isContextError(err) {
		h.fail(w, r, err)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusOK, validateResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Periods: periods})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	zone := query.Get("tz")
	if err := h.validator.ValidateTimezone(zone); err != nil {
		h.fail(w, r, err)
		return
	}
	document, err := h.readDocument(r, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.resolve(r.Context(), document, query.Get("country"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.analyzer.Summarize(result, zone))
}

func (h *Handler) datasetSnapshot(w http.ResponseWriter, r *http.Request) {
	zone := r.URL.Query().Get("tz")
	if err := h.validator.ValidateTimezone(zone); err != nil {
		h.fail(w, r, err)
		return
	}
	snap, ok := h.dataset.Snapshot()
	if !ok {
		h.fail(w, r, source.ErrNoDataset)
		return
	}
	if zone == "" {
		zone = h.defaultZone
	}

	writeJSON(w, http.StatusOK, datasetResponse{
		Origin:   snap.Origin,
		LoadedAt: timezone.FromUTC(snap.LoadedAt, zone),
		Source:   snap.Result.Timezone,
		Display:  timezone.Lookup(zone),
		Report:   snap.Result.Report,
		Samples:  timezone.AdjustSamples(snap.Result.Samples, zone),
	})
}

func (h *Handler) timezones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timezonesResponse{
		Default:  h.defaultZone,
		Detected: timezone.Detect(time.Now()),
		Options:  timezone.Options(),
		Groups:   timezone.Groups(),
	})
}

// convert reads the time parameter's wall clock in zone from and presents
// the same instant in zone to. Empty zones select the default.
func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")
	for _, zone := range []string{from, to} {
		if err := h.validator.ValidateTimezone(zone); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if from == "" {
		from = h.defaultZone
	}
	if to == "" {
		to = h.defaultZone
	}

	raw := query.Get("time")
	if raw == "" {
		h.fail(w, r, fmt.Errorf("%w: time is required", errBadRequest))
		return
	}
	wall, err := cast.ToTimeInDefaultLocationE(raw, time.UTC)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		From: from,
		To:   to,
		Time: timezone.Convert(wall, from, to),
	})
}

func (h *Handler) prompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	body := http.MaxBytesReader(w, r.Body, h.maxBytes*2+64*1024)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := h.validator.ValidateQuestion(req.Question); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validator.ValidateTimezone(req.DisplayTimezone); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validator.ValidateDocument(req.Document, false); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.resolve(r.Context(), req.Document, req.CountryHint)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msgs := h.analyzer.Prompt(req.History, req.Question, result, req.DisplayTimezone, req.MaxHistory)
	writeJSON(w, http.StatusOK, promptResponse{Messages: msgs})
}

// resolve parses document, or returns the current dataset when it is empty.
func (h *Handler) resolve(ctx context.Context, document, country string) (models.ParseResult, error) {
	if err := h.validator.ValidateCountry(country); err != nil {
		return models.ParseResult{}, err
	}
	if document == "" {
		snap, ok := h.dataset.Snapshot()
		if !ok {
			return models.ParseResult{}, source.ErrNoDataset
		}
		return snap.Result, nil
	}
	return h.analyzer.Parse(ctx, document, country)
}

// readDocument reads the request body, one byte past the limit so oversized
// documents are detected rather than truncated.
func (h *Handler) readDocument(r *http.Request, required bool) (string, error) {
	var reader io.Reader = r.Body
	if h.maxBytes > 0 {
		reader = io.LimitReader(r.Body, h.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	document := string(body)
	if err := h.validator.ValidateDocument(document, required); err != nil {
		return "", err
	}
	return document, nil
}
