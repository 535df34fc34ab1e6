// CLAUDE:SUMMARY Read-only HTTP API, Prometheus /metrics and MCP /mcp over a loaded STORET database.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/hazyhaar/storet-normalizer/pkg/kit"
	"github.com/hazyhaar/storet-normalizer/pkg/observability"
	"github.com/hazyhaar/storet-normalizer/pkg/store"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configure NewRouter. Nil fields select defaults.
type Options struct {
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer // served on /metrics
	Logger   *slog.Logger
	Version  string
}

// NewRouter returns an http.Handler with all query routes, /metrics and
// /mcp.
func NewRouter(ds Dataset, opts Options) http.Handler {
	if opts.Metrics == nil {
		reg := prometheus.NewRegistry()
		opts.Metrics = observability.NewMetrics(reg)
		if opts.Gatherer == nil {
			opts.Gatherer = reg
		}
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	eps := newEndpoints(ds, opts.Metrics, opts.Logger)
	h := &handler{eps: eps}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.HandleFunc("GET /v1/counts", h.handleCounts)
	mux.HandleFunc("GET /v1/parameters/{code}", h.handleParameter)
	mux.HandleFunc("GET /v1/stations", h.handleListStations)
	mux.HandleFunc("GET /v1/stations/{id}", h.handleStation)
	mux.HandleFunc("GET /v1/stations/{id}/results", h.handleStationResults)
	mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/mcp", server.NewStreamableHTTPServer(newMCPServer(eps, opts.Version)))

	return cors(withRequestID(mux))
}

type handler struct {
	eps *endpoints
}

// --- health ---

type healthResponse struct {
	Status string       `json:"status"`
	Counts store.Counts `json:"counts"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.counts(r.Context(), nil)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Counts: resp.(store.Counts)})
}

// --- counts ---

func (h *handler) handleCounts(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.counts(r.Context(), nil)
	respond(w, resp, err)
}

// --- parameters ---

func (h *handler) handleParameter(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.parameter(r.Context(), &codeReq{Code: r.PathValue("code")})
	respond(w, resp, err)
}

// --- stations ---

func (h *handler) handleStation(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.station(r.Context(), &idReq{ID: r.PathValue("id")})
	respond(w, resp, err)
}

func (h *handler) handleListStations(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	resp, err := h.eps.listStations(r.Context(), &listStationsReq{
		County: r.URL.Query().Get("county"),
		Limit:  limit,
	})
	respond(w, resp, err)
}

func (h *handler) handleStationResults(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	resp, err := h.eps.stationResults(r.Context(), &stationResultsReq{
		ID:    r.PathValue("id"),
		Param: r.URL.Query().Get("param"),
		Limit: limit,
	})
	respond(w, resp, err)
}

// --- helpers ---

func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

func respond(w http.ResponseWriter, resp any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// withRequestID tags every request with an id, honouring X-Request-ID.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, Mcp-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
