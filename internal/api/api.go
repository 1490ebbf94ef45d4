// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api serves the KOL API over the loader's current outcome. It is
// the server side of the contract that source.HTTPRemote consumes, so one
// instance can act as the remote source of another.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/kol-analytics/internal/metrics"
	"github.com/pdiddy/kol-analytics/internal/query"
	"github.com/pdiddy/kol-analytics/internal/source"
	"github.com/pdiddy/kol-analytics/internal/store"
	"github.com/pdiddy/kol-analytics/pkg/types"
)

// PathMetrics serves the Prometheus registry.
const PathMetrics = "/metrics"

// State supplies the data the handler serves. *source.Loader implements it.
type State interface {
	Current() source.Outcome
}

// Options configures a Handler.
type Options struct {
	State       State
	Version     string
	CORSOrigins []string
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// Handler routes API requests. Every response carries JSON; errors use
// types.ErrorResponse.
type Handler struct {
	state   State
	version string
	origins []string
	logger  *zap.Logger
	metrics *metrics.Metrics
	mux     *http.ServeMux
}

// NewHandler builds the handler and its routes.
func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &Handler{
		state:   opts.State,
		version: opts.Version,
		origins: opts.CORSOrigins,
		logger:  opts.Logger.Named("api"),
		metrics: opts.Metrics,
		mux:     http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /{$}", h.handleRoot)
	h.mux.HandleFunc("GET "+source.PathHealth, h.handleHealth)
	h.mux.HandleFunc("GET "+source.PathRecords, h.handleList)
	h.mux.HandleFunc("GET "+source.PathStats, h.handleStats)
	h.mux.HandleFunc("GET "+source.PathRecords+"/{id}", h.handleGet)
	h.mux.HandleFunc("GET "+source.PathCountries, h.handleCountries)
	h.mux.HandleFunc("GET "+source.PathExpertiseAreas, h.handleExpertiseAreas)
	if opts.Metrics != nil {
		h.mux.Handle("GET "+PathMetrics, opts.Metrics.Handler())
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.cors(w, r) {
		return
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	_, pattern := h.mux.Handler(r)
	h.mux.ServeHTTP(rec, r)

	route := strings.TrimPrefix(pattern, "GET ")
	if route == "" {
		route = "unmatched"
	}
	h.metrics.ObserveRequest(route, rec.status)
	h.logger.Debug("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
	)
}

// cors sets the CORS headers for allowed origins and answers preflight
// requests. It reports whether the request has been fully handled.
func (h *Handler) cors(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || !h.allowedOrigin(origin) {
		return false
	}
	hdr := w.Header()
	hdr.Set("Access-Control-Allow-Origin", origin)
	hdr.Set("Access-Control-Allow-Credentials", "true")
	hdr.Add("Vary", "Origin")

	if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
		return false
	}
	hdr.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
		hdr.Set("Access-Control-Allow-Headers", reqHeaders)
	}
	w.WriteHeader(http.StatusNoContent)
	return true
}

func (h *Handler) allowedOrigin(origin string) bool {
	return slices.Contains(h.origins, "*") || slices.Contains(h.origins, origin)
}

func (h *Handler) current() source.Outcome {
	if h.state == nil {
		return source.Outcome{Snapshot: store.Empty()}
	}
	return h.state.Current()
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "KOL Analytics API",
		"version": h.version,
		"status":  "running",
		"endpoints": map[string]any{
			"health": source.PathHealth,
			"kols": map[string]string{
				"list":       source.PathRecords,
				"single":     source.PathRecords + "/{id}",
				"statistics": source.PathStats,
			},
		},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	out := h.current()
	resp := types.HealthResponse{
		Status:     "healthy",
		Version:    h.version,
		DataSource: dataSource(out.Status),
		TotalKOLs:  out.Snapshot.Len(),
	}
	if out.Status == source.StatusFatal || out.Status == source.StatusPending {
		resp.Status = "unhealthy"
	}
	writeJSON(w, http.StatusOK, resp)
}

func dataSource(s source.Status) string {
	switch s {
	case source.StatusOK:
		return "remote"
	case source.StatusFallback:
		return "local"
	default:
		return "none"
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	spec, err := source.ParseFilterParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation Error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, query.Filter(h.current().Snapshot, spec))
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.current().Report)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.current().Snapshot.Get(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("KOL with id '%s' not found", id), "")
		return
	case err != nil:
		h.logger.Error("record lookup failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleCountries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.current().Countries))
}

func (h *Handler) handleExpertiseAreas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.current().ExpertiseAreas))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, types.ErrorResponse{Error: message, StatusCode: status, Detail: detail})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
