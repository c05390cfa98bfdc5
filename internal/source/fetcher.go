// Package source loads MyEnergyData documents from a file or an HTTP endpoint
// and keeps the most recent one available to the transports.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

var (
	ErrNoLocation       = errors.New("no document location configured")
	ErrFetchRequest     = errors.New("error requesting document")
	ErrFetchStatus      = errors.New("error status from document endpoint")
	ErrDocumentTooLarge = errors.New("document exceeds size limit")
	ErrEmptyDocument    = errors.New("document is empty")
	ErrNoSamples        = errors.New("document produced no samples")
	ErrNoDataset        = errors.New("no dataset loaded")
)

// DocumentParser turns document text into samples.
type DocumentParser interface {
	Parse(ctx context.Context, xmlText, countryHint string) (models.ParseResult, error)
}

// FetcherConfig configures where documents come from.
type FetcherConfig struct {
	// Location is a file path, a file:// URL or an http(s) URL.
	Location    string
	CountryHint string
	Timeout     time.Duration
	MaxBytes    int64
}

// Fetcher reads a document, parses it and publishes it to a Dataset.
type Fetcher struct {
	config  FetcherConfig
	client  *http.Client
	parser  DocumentParser
	dataset *Dataset
	logger  *logrus.Logger
}

func NewFetcher(config FetcherConfig, parser DocumentParser, dataset *Dataset, logger *logrus.Logger) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Fetcher{
		config:  config,
		client:  &http.Client{},
		parser:  parser,
		dataset: dataset,
		logger:  logger,
	}
}

// Fetch returns the raw document text.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	location := strings.TrimSpace(f.config.Location)
	if location == "" {
		return "", ErrNoLocation
	}

	var (
		body []byte
		err  error
	)
	if isHTTP(location) {
		body, err = f.fetchHTTP(ctx, location)
	} else {
		body, err = f.readFile(strings.TrimPrefix(location, "file://"))
	}
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", ErrEmptyDocument
	}
	return string(body), nil
}

// Load fetches and parses the document and, when it yields samples, makes it
// the current dataset. A document without samples leaves the dataset as it
// was.
func (f *Fetcher) Load(ctx context.Context) (models.ParseResult, error) {
	text, err := f.Fetch(ctx)
	if err != nil {
		return models.ParseResult{}, err
	}

	result, err := f.parser.Parse(ctx, text, f.config.CountryHint)
	if err != nil {
		return models.ParseResult{}, err
	}
	if len(result.Samples) == 0 {
		return result, fmt.Errorf("%w: %s", ErrNoSamples, f.config.Location)
	}

	f.dataset.Set(result, f.config.Location)
	f.logger.WithFields(logrus.Fields{
		"location": f.config.Location,
		"samples":  len(result.Samples),
		"timezone": result.Timezone.Name,
	}).Info("Dataset loaded")
	return result, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchRequest, err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: got %d", ErrFetchStatus, resp.StatusCode)
	}
	return f.readLimited(resp.Body)
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchRequest, err)
	}
	defer file.Close()
	return f.readLimited(file)
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	if f.config.MaxBytes > 0 {
		r = io.LimitReader(r, f.config.MaxBytes+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchRequest, err)
	}
	if f.config.MaxBytes > 0 && int64(len(body)) > f.config.MaxBytes {
		return nil, ErrDocumentTooLarge
	}
	return body, nil
}

func isHTTP(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
