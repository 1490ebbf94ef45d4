// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kol-analytics/internal/httputil"
	"github.com/pdiddy/kol-analytics/internal/store"
	"github.com/pdiddy/kol-analytics/pkg/types"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestRemote(t *testing.T, h http.Handler) *HTTPRemote {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	remote := NewHTTPRemote(types.SourceConfig{
		BaseURL:    srv.URL + "/",
		HTTPConfig: types.HTTPConfig{Timeout: 2 * time.Second, UserAgent: "kol-test/1"},
		MaxRetries: 1,
	}, nil)
	t.Cleanup(remote.Client.CloseIdleConnections)
	return remote
}

func TestHTTPRemoteEndpoints(t *testing.T) {
	var gotQuery atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathHealth, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "kol-test/1", r.Header.Get("User-Agent"))
		writeJSON(w, types.HealthResponse{Status: "healthy", Version: "1.0.0"})
	})
	mux.HandleFunc("GET "+PathRecords, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		writeJSON(w, sampleRecords())
	})
	mux.HandleFunc("GET "+PathRecords+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, rec := range sampleRecords() {
			if rec.ID == r.PathValue("id") {
				writeJSON(w, rec)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, types.ErrorResponse{Error: "KOL not found", StatusCode: 404})
	})
	mux.HandleFunc("GET "+PathStats, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.AggregateReport{TotalRecords: 2, MeanHIndex: 36.5})
	})
	mux.HandleFunc("GET "+PathCountries, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []string{"China", "Spain"})
	})
	mux.HandleFunc("GET "+PathExpertiseAreas, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []string{"Dermatology", "Oncology"})
	})
	remote := newTestRemote(t, mux)
	ctx := context.Background()

	require.NoError(t, remote.Health(ctx))

	records, err := remote.ListRecords(ctx, types.QuerySpec{Country: "Spain", MinHIndex: types.IntPtr(20)})
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), records)
	assert.Equal(t, "country=Spain&minHIndex=20", gotQuery.Load())

	rec, err := remote.GetRecord(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Li Wei", rec.Name)

	_, err = remote.GetRecord(ctx, "999")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, ErrUnavailable)

	rep, err := remote.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 36.5, rep.MeanHIndex)

	countries, err := remote.Countries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"China", "Spain"}, countries)

	areas, err := remote.ExpertiseAreas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dermatology", "Oncology"}, areas)
}

func TestHTTPRemoteUnavailable(t *testing.T) {
	orig := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	t.Cleanup(func() { httputil.RetryBaseDelay = orig })

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"degraded status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, types.HealthResponse{Status: "degraded"})
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"overloaded", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{"health not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>oops</html>"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newTestRemote(t, tt.handler)
			assert.ErrorIs(t, remote.Health(context.Background()), ErrUnavailable)
		})
	}
}

func TestHTTPRemoteNotFoundOnlyForRecordLookup(t *testing.T) {
	remote := newTestRemote(t, http.NotFoundHandler())
	ctx := context.Background()

	calls := map[string]func() error{
		"health": func() error { return remote.Health(ctx) },
		"list": func() error {
			_, err := remote.ListRecords(ctx, types.QuerySpec{})
			return err
		},
		"stats": func() error {
			_, err := remote.Stats(ctx)
			return err
		},
		"countries": func() error {
			_, err := remote.Countries(ctx)
			return err
		},
		"expertise areas": func() error {
			_, err := remote.ExpertiseAreas(ctx)
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.NotErrorIs(t, err, store.ErrNotFound)
		})
	}

	_, err := remote.GetRecord(ctx, "1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestHTTPRemoteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	remote := NewHTTPRemote(types.SourceConfig{BaseURL: base, HTTPConfig: types.HTTPConfig{Timeout: time.Second}}, nil)
	_, err := remote.ListRecords(context.Background(), types.QuerySpec{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFilterParamsRoundTrip(t *testing.T) {
	spec := types.QuerySpec{
		Text:          "  smith ",
		Country:       "Spain",
		ExpertiseArea: "Dermatology",
		MinHIndex:     types.IntPtr(0),
		MaxHIndex:     types.IntPtr(40),
	}

	params := FilterParams(spec)
	assert.Equal(t, "smith", params.Get("query"))
	assert.Equal(t, "0", params.Get("minHIndex"))

	got, err := ParseFilterParams(params)
	require.NoError(t, err)
	assert.Equal(t, "smith", got.Text)
	assert.Equal(t, "Spain", got.Country)
	assert.Equal(t, "Dermatology", got.ExpertiseArea)
	assert.Equal(t, 0, *got.MinHIndex)
	assert.Equal(t, 40, *got.MaxHIndex)
}

func TestFilterParamsOmitsUnset(t *testing.T) {
	params := FilterParams(types.QuerySpec{Country: types.All, ExpertiseArea: "", Text: "   "})
	assert.Empty(t, params)
}

func TestParseFilterParamsRejects(t *testing.T) {
	for _, raw := range []string{"minHIndex=abc", "maxHIndex=-1", "minHIndex=1.5"} {
		t.Run(raw, func(t *testing.T) {
			params, err := url.ParseQuery(raw)
			require.NoError(t, err)
			_, err = ParseFilterParams(params)
			assert.Error(t, err)
		})
	}
}
