package api

import (
	"fmt"

	"github.com/hazyhaar/storet-normalizer/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// newMCPServer builds an MCP server exposing the query tools.
func newMCPServer(eps *endpoints, version string) *server.MCPServer {
	if version == "" {
		version = "dev"
	}
	srv := server.NewMCPServer("storet", version, server.WithToolCapabilities(false))
	registerMCPTools(srv, eps)
	return srv
}

func registerMCPTools(srv *server.MCPServer, eps *endpoints) {
	kit.RegisterMCPTool(srv, mcp.NewTool("dataset_counts",
		mcp.WithDescription("Row counts of the parameters, stations and results tables."),
	), eps.counts, func(mcp.CallToolRequest) (any, error) {
		return nil, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("get_parameter",
		mcp.WithDescription("Look up a STORET parameter by its 5-digit code (e.g. 00010 for water temperature)."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Parameter code")),
	), eps.parameter, func(req mcp.CallToolRequest) (any, error) {
		code, _ := req.GetArguments()["code"].(string)
		return &codeReq{Code: code}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("get_station",
		mcp.WithDescription("Look up a monitoring station by its station id."),
		mcp.WithString("station_id", mcp.Required(), mcp.Description("Station id")),
	), eps.station, func(req mcp.CallToolRequest) (any, error) {
		id, _ := req.GetArguments()["station_id"].(string)
		return &idReq{ID: id}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("list_stations",
		mcp.WithDescription("List monitoring stations, optionally restricted to one county."),
		mcp.WithString("county", mcp.Description("County name, case-insensitive")),
		mcp.WithNumber("limit", mcp.Description("Maximum stations returned (default 100)")),
	), eps.listStations, func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		county, _ := args["county"].(string)
		limit, err := intArg(args, "limit")
		if err != nil {
			return nil, err
		}
		return &listStationsReq{County: county, Limit: limit}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("station_results",
		mcp.WithDescription("Measurement results of one station in load order, optionally for one parameter code."),
		mcp.WithString("station_id", mcp.Required(), mcp.Description("Station id")),
		mcp.WithString("param", mcp.Description("Parameter code filter")),
		mcp.WithNumber("limit", mcp.Description("Maximum results returned (default 100)")),
	), eps.stationResults, func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		id, _ := args["station_id"].(string)
		param, _ := args["param"].(string)
		limit, err := intArg(args, "limit")
		if err != nil {
			return nil, err
		}
		return &stationResultsReq{ID: id, Param: param, Limit: limit}, nil
	})
}

// intArg reads an optional integer argument. JSON numbers arrive as float64.
func intArg(args map[string]any, name string) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, nil
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return int(f), nil
}
