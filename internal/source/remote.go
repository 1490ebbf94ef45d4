// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/kol-analytics/internal/httputil"
	"github.com/pdiddy/kol-analytics/internal/store"
	"github.com/pdiddy/kol-analytics/pkg/types"
)

// ErrUnavailable wraps every remote failure other than not-found: transport
// errors, timeouts, non-2xx statuses and undecodable bodies.
var ErrUnavailable = errors.New("remote source unavailable")

// Remote is the record source the loader prefers. HTTPRemote is the
// production implementation; tests substitute fakes.
type Remote interface {
	// Health is the liveness check. A nil error means healthy.
	Health(ctx context.Context) error

	// ListRecords returns the records matching the filter fields of spec.
	ListRecords(ctx context.Context, spec types.QuerySpec) ([]types.Record, error)

	// GetRecord returns store.ErrNotFound when id is absent.
	GetRecord(ctx context.Context, id string) (types.Record, error)

	// Stats returns the remote's precomputed aggregate report.
	Stats(ctx context.Context) (types.AggregateReport, error)

	Countries(ctx context.Context) ([]string, error)
	ExpertiseAreas(ctx context.Context) ([]string, error)
}

// API paths shared with internal/api.
const (
	PathHealth         = "/health"
	PathRecords        = "/api/kols"
	PathStats          = "/api/kols/stats"
	PathCountries      = "/api/kols/meta/countries"
	PathExpertiseAreas = "/api/kols/meta/expertise-areas"
)

// HTTPRemote talks to the KOL API over HTTP.
type HTTPRemote struct {
	BaseURL    string
	Client     *http.Client
	UserAgent  string
	MaxRetries int
	Logger     *zap.Logger
}

// NewHTTPRemote builds a client from cfg. The HTTP client timeout bounds
// each request.
func NewHTTPRemote(cfg types.SourceConfig, logger *zap.Logger) *HTTPRemote {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPRemote{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		Client:     &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger.Named("remote"),
	}
}

// Health calls /health and requires status "healthy".
func (r *HTTPRemote) Health(ctx context.Context) error {
	var h types.HealthResponse
	if err := r.getJSON(ctx, PathHealth, nil, &h, false); err != nil {
		return err
	}
	if h.Status != "healthy" {
		return fmt.Errorf("%w: health status %q", ErrUnavailable, h.Status)
	}
	return nil
}

// ListRecords fetches /api/kols, forwarding the filter fields of spec as
// query parameters.
func (r *HTTPRemote) ListRecords(ctx context.Context, spec types.QuerySpec) ([]types.Record, error) {
	var records []types.Record
	if err := r.getJSON(ctx, PathRecords, FilterParams(spec), &records, false); err != nil {
		return nil, err
	}
	return records, nil
}

// GetRecord fetches /api/kols/{id}.
func (r *HTTPRemote) GetRecord(ctx context.Context, id string) (types.Record, error) {
	var rec types.Record
	if err := r.getJSON(ctx, PathRecords+"/"+url.PathEscape(id), nil, &rec, true); err != nil {
		return types.Record{}, err
	}
	return rec, nil
}

// Stats fetches /api/kols/stats.
func (r *HTTPRemote) Stats(ctx context.Context) (types.AggregateReport, error) {
	var rep types.AggregateReport
	err := r.getJSON(ctx, PathStats, nil, &rep, false)
	return rep, err
}

// Countries fetches /api/kols/meta/countries.
func (r *HTTPRemote) Countries(ctx context.Context) ([]string, error) {
	var out []string
	err := r.getJSON(ctx, PathCountries, nil, &out, false)
	return out, err
}

// ExpertiseAreas fetches /api/kols/meta/expertise-areas.
func (r *HTTPRemote) ExpertiseAreas(ctx context.Context) ([]string, error) {
	var out []string
	err := r.getJSON(ctx, PathExpertiseAreas, nil, &out, false)
	return out, err
}

// getJSON fetches path and decodes the body into out. A 404 maps to
// store.ErrNotFound only for single-record lookups; anywhere else it means
// the remote is misconfigured and wraps ErrUnavailable.
func (r *HTTPRemote) getJSON(ctx context.Context, path string, params url.Values, out any, recordLookup bool) error {
	reqURL := r.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, r.Client, req, r.MaxRetries, r.Logger)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && recordLookup:
		return fmt.Errorf("%w: GET %s", store.ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: GET %s returned HTTP %d", ErrUnavailable, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: parsing %s response: %w", ErrUnavailable, path, err)
	}
	return nil
}

// FilterParams encodes the filter fields of spec as API query parameters.
// Unset filters are omitted.
func FilterParams(spec types.QuerySpec) url.Values {
	params := url.Values{}
	if spec.HasText() {
		params.Set("query", strings.TrimSpace(spec.Text))
	}
	if spec.HasCountry() {
		params.Set("country", spec.Country)
	}
	if spec.HasExpertiseArea() {
		params.Set("expertiseArea", spec.ExpertiseArea)
	}
	if spec.MinHIndex != nil {
		params.Set("minHIndex", strconv.Itoa(*spec.MinHIndex))
	}
	if spec.MaxHIndex != nil {
		params.Set("maxHIndex", strconv.Itoa(*spec.MaxHIndex))
	}
	return params
}

// ParseFilterParams is the inverse of FilterParams.
func ParseFilterParams(params url.Values) (types.QuerySpec, error) {
	spec := types.QuerySpec{
		Text:          params.Get("query"),
		Country:       params.Get("country"),
		ExpertiseArea: params.Get("expertiseArea"),
	}
	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"minHIndex", &spec.MinHIndex},
		{"maxHIndex", &spec.MaxHIndex},
	} {
		raw := params.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return types.QuerySpec{}, fmt.Errorf("%s must be a non-negative integer, got %q", p.name, raw)
		}
		*p.dst = &v
	}
	return spec, nil
}
