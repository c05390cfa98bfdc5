// Package parser converts MyEnergyData (IEC 62325-351) XML exports into a
// chronologically ordered series of 15-minute samples.
//
// Parsing never fails outright. A document that cannot be decoded, or that has
// no TimeSeries element, yields an empty sample set; a period without a usable
// start instant and a point without a usable position or quantity are skipped
// individually while the rest of the document is kept.
//
// Example usage:
//
//	result := parser.Parse(xmlText, "AT")
//	for _, s := range result.Samples {
//	    fmt.Println(s.Timestamp, s.EnergyKWh, s.PowerKW)
//	}
package parser

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

const (
	// Namespace is the XML namespace URI of MyEnergyData messages.
	Namespace = "urn:iec62325.351:tc57wg16:451-10:myenergydatamessage:1:0"

	// Interval is the fixed duration of one point.
	Interval = 15 * time.Minute
)

// powerFactor converts energy per interval (kWh) into average power (kW).
const powerFactor = float64(time.Hour / Interval)

var (
	ErrMalformedXML = errors.New("malformed XML document")
	ErrNoTimeSeries = errors.New("no TimeSeries element found")
	ErrNoPeriods    = errors.New("no Period elements found")
)

// Parse extracts every valid sample from xmlText. countryHint is consulted
// only when the document carries no market evaluation point mRID.
func Parse(xmlText, countryHint string) models.ParseResult {
	doc, err := readDocument(xmlText)
	if err != nil {
		return emptyResult(UnknownTimezone)
	}

	series := findInDocument(doc, "TimeSeries")
	if series == nil {
		return emptyResult(UnknownTimezone)
	}

	var mRID string
	if point := findFirst(series, "MarketEvaluationPoint"); point != nil {
		mRID, _ = textOf(point, "mRID")
	}
	result := emptyResult(ResolveTimezone(mRID, countryHint))

	periods := findAll(series, "Period")
	result.Report.Periods = len(periods)
	for _, period := range periods {
		start, ok := periodStart(period)
		if !ok {
			result.Report.SkippedPeriods++
			continue
		}

		for _, point := range findAll(period, "Point") {
			result.Report.Points++
			sample, ok := readPoint(point, start)
			if !ok {
				result.Report.SkippedPoints++
				continue
			}
			result.Samples = append(result.Samples, sample)
		}
	}

	// Periods and points are not guaranteed to be in document order.
	sort.SliceStable(result.Samples, func(i, j int) bool {
		return result.Samples[i].Timestamp.Before(result.Samples[j].Timestamp)
	})

	return result
}

// Validate performs the minimal structural check used before accepting an
// upload. It reports how many periods the time series holds.
func Validate(xmlText string) (int, error) {
	doc, err := readDocument(xmlText)
	if err != nil {
		return 0, err
	}
	series := findInDocument(doc, "TimeSeries")
	if series == nil {
		return 0, ErrNoTimeSeries
	}
	periods := findAll(series, "Period")
	if len(periods) == 0 {
		return 0, ErrNoPeriods
	}
	return len(periods), nil
}

func readDocument(xmlText string) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromString(xmlText); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}
	return doc, nil
}

func emptyResult(tz models.TimezoneMeta) models.ParseResult {
	return models.ParseResult{
		Samples:  []models.Sample{},
		Timezone: tz,
	}
}

func periodStart(period *etree.Element) (time.Time, bool) {
	interval := findFirst(period, "timeInterval")
	if interval == nil {
		return time.Time{}, false
	}
	text, ok := textOf(interval, "start")
	if !ok {
		return time.Time{}, false
	}
	return parseInstant(text)
}

// maxOffsetSteps is the largest position offset whose duration fits in
// time.Duration.
const maxOffsetSteps = math.MaxInt64 / int64(Interval)

func readPoint(point *etree.Element, start time.Time) (models.Sample, bool) {
	posText, ok := textOf(point, "position")
	if !ok {
		return models.Sample{}, false
	}
	qtyText, ok := textOf(point, "quantity")
	if !ok {
		return models.Sample{}, false
	}

	position, err := strconv.Atoi(posText)
	if err != nil || position < 1 || int64(position-1) > maxOffsetSteps {
		return models.Sample{}, false
	}
	quantity, err := strconv.ParseFloat(strings.TrimSpace(qtyText), 64)
	if err != nil || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return models.Sample{}, false
	}

	return models.Sample{
		Timestamp: start.Add(time.Duration(position-1) * Interval),
		EnergyKWh: quantity,
		PowerKW:   quantity * powerFactor,
		Position:  position,
	}, true
}
