package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/storet-normalizer/pkg/kit"
	"github.com/hazyhaar/storet-normalizer/pkg/observability"
	"github.com/hazyhaar/storet-normalizer/pkg/store"
	"github.com/hazyhaar/storet-normalizer/pkg/storet"
)

// Dataset is the read side of a loaded STORET database.
type Dataset interface {
	Counts(ctx context.Context) (store.Counts, error)
	Parameter(ctx context.Context, code string) (storet.Parameter, error)
	Station(ctx context.Context, id string) (storet.Station, error)
	StationsByCounty(ctx context.Context, county string, limit int) ([]storet.Station, error)
	StationResults(ctx context.Context, id, param string, limit int) ([]storet.Result, error)
}

// DefaultLimit applies when a list request names no limit.
const DefaultLimit = 100

// errBadRequest marks invalid arguments.
var errBadRequest = errors.New("bad request")

// Shared request/response types used by both HTTP and MCP transports.

type codeReq struct{ Code string }

type idReq struct{ ID string }

type listStationsReq struct {
	County string
	Limit  int
}

type stationResultsReq struct {
	ID    string
	Param string
	Limit int
}

type stationsResponse struct {
	County   string           `json:"county,omitempty"`
	Stations []storet.Station `json:"stations"`
}

type resultsResponse struct {
	StationID string          `json:"station_id"`
	Param     string          `json:"param,omitempty"`
	Results   []storet.Result `json:"results"`
}

type endpoints struct {
	counts         kit.Endpoint
	parameter      kit.Endpoint
	station        kit.Endpoint
	listStations   kit.Endpoint
	stationResults kit.Endpoint
}

func newEndpoints(ds Dataset, m *observability.Metrics, logger *slog.Logger) *endpoints {
	wrap := func(name string, e kit.Endpoint) kit.Endpoint {
		return kit.Chain(instrument(name, m), logRequests(name, logger))(e)
	}
	return &endpoints{
		counts:         wrap("counts", countsEndpoint(ds)),
		parameter:      wrap("parameter", parameterEndpoint(ds)),
		station:        wrap("station", stationEndpoint(ds)),
		listStations:   wrap("list_stations", listStationsEndpoint(ds)),
		stationResults: wrap("station_results", stationResultsEndpoint(ds)),
	}
}

func countsEndpoint(ds Dataset) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		return ds.Counts(ctx)
	}
}

func parameterEndpoint(ds Dataset) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*codeReq)
		if req.Code == "" {
			return nil, fmt.Errorf("%w: missing parameter code", errBadRequest)
		}
		return ds.Parameter(ctx, req.Code)
	}
}

func stationEndpoint(ds Dataset) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*idReq)
		if req.ID == "" {
			return nil, fmt.Errorf("%w: missing station id", errBadRequest)
		}
		return ds.Station(ctx, req.ID)
	}
}

func listStationsEndpoint(ds Dataset) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*listStationsReq)
		limit, err := checkLimit(req.Limit)
		if err != nil {
			return nil, err
		}
		stations, err := ds.StationsByCounty(ctx, req.County, limit)
		if err != nil {
			return nil, err
		}
		return stationsResponse{County: req.County, Stations: stations}, nil
	}
}

func stationResultsEndpoint(ds Dataset) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*stationResultsReq)
		if req.ID == "" {
			return nil, fmt.Errorf("%w: missing station id", errBadRequest)
		}
		limit, err := checkLimit(req.Limit)
		if err != nil {
			return nil, err
		}
		// Unknown stations are a 404, not an empty list.
		if _, err := ds.Station(ctx, req.ID); err != nil {
			return nil, err
		}
		results, err := ds.StationResults(ctx, req.ID, req.Param, limit)
		if err != nil {
			return nil, err
		}
		return resultsResponse{StationID: req.ID, Param: req.Param, Results: results}, nil
	}
}

func checkLimit(n int) (int, error) {
	switch {
	case n == 0:
		return DefaultLimit, nil
	case n < 0 || n > store.MaxLimit:
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", errBadRequest, store.MaxLimit)
	}
	return n, nil
}

// instrument records request counts and latency per endpoint.
func instrument(name string, m *observability.Metrics) kit.Middleware {
	return kit.Observe(func(_ context.Context, elapsed time.Duration, err error) {
		m.RequestDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.Requests.WithLabelValues(name, outcome).Inc()
	})
}

func logRequests(name string, logger *slog.Logger) kit.Middleware {
	return kit.Observe(func(ctx context.Context, elapsed time.Duration, err error) {
		attrs := []any{"endpoint", name, "transport", kit.GetTransport(ctx), "request_id", kit.GetRequestID(ctx), "elapsed", elapsed}
		if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, errBadRequest) {
			logger.Error("query failed", append(attrs, "error", err)...)
		} else {
			logger.Debug("query", attrs...)
		}
	})
}
