// Package extract provides the raw-record producers consumed by the
// pipeline: the paginated Open Brewery DB API and local NDJSON snapshots
// for replay and filtered reprocessing.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/BartekS5/brewlake/internal/etl"
	"github.com/BartekS5/brewlake/pkg/logger"
	"github.com/BartekS5/brewlake/pkg/models"
)

const (
	DefaultBaseURL = "https://api.openbrewerydb.org/v1/breweries"
	DefaultPerPage = 200

	maxRetries = 3
	retrySleep = 5 * time.Second
)

// APISource pages through the Open Brewery DB listing endpoint. Retries here
// cover transient HTTP hiccups within one extraction; run-level retries
// belong to the orchestrator.
type APISource struct {
	BaseURL string
	PerPage int
	Client  *http.Client
}

func NewAPISource(baseURL string, perPage int) *APISource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if perPage <= 0 || perPage > DefaultPerPage {
		perPage = DefaultPerPage
	}
	return &APISource{
		BaseURL: baseURL,
		PerPage: perPage,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Extract fetches one page (1-based). more is false once a short page comes
// back. Numbers are decoded as json.Number so coordinates keep their source
// representation until validation.
func (s *APISource) Extract(ctx context.Context, page int) ([]models.RawRecord, bool, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(s.PerPage))
	endpoint := s.BaseURL + "?" + q.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		records, err := s.fetch(ctx, endpoint)
		if err == nil {
			return records, len(records) == s.PerPage, nil
		}
		lastErr = err
		logger.Warnf("brewery API request failed (attempt %d/%d): %v", attempt, maxRetries, err)

		if attempt < maxRetries {
			select {
			case <-time.After(retrySleep):
			case <-ctx.Done():
				return nil, false, ctx.Err()
			}
		}
	}
	return nil, false, fmt.Errorf("fetching page %d after %d attempts: %w", page, maxRetries, lastErr)
}

func (s *APISource) fetch(ctx context.Context, endpoint string) ([]models.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var records []models.RawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding brewery payload: %w", err)
	}
	return records, nil
}

// Drain pages through a source until exhausted and returns the materialized
// snapshot for one run.
func Drain(ctx context.Context, src etl.Extractor) ([]models.RawRecord, error) {
	var all []models.RawRecord
	for page := 1; ; page++ {
		records, more, err := src.Extract(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if !more {
			return all, nil
		}
	}
}
