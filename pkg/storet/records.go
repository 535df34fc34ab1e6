// CLAUDE:SUMMARY Normalised STORET entities (parameters, stations, results), their fixed column order, and file roles.
package storet

import (
	"math"
	"strconv"
)

// Role classifies a STORET export file by its filename suffix.
type Role int

const (
	RoleInventory Role = iota
	RoleStation
	RoleResult
)

// Roles lists every role in processing order.
var Roles = []Role{RoleInventory, RoleStation, RoleResult}

// String returns the filename suffix for the role (inv, sta, res).
func (r Role) String() string {
	switch r {
	case RoleInventory:
		return "inv"
	case RoleStation:
		return "sta"
	case RoleResult:
		return "res"
	default:
		return "unknown"
	}
}

// Parameter is a measurable quantity declared in an inventory file.
type Parameter struct {
	Code      string `json:"code"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
}

// Station is a monitoring location. Latitude and Longitude are nil when the
// source field is missing or not a number.
type Station struct {
	Agency      string   `json:"agency"`
	StationID   string   `json:"station_id"`
	StationName string   `json:"station_name"`
	AgencyName  string   `json:"agency_name"`
	State       string   `json:"state"`
	County      string   `json:"county"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	HUC         string   `json:"huc"`
	StationType string   `json:"station_type"`
	Description string   `json:"description"`
}

// Result is a single measurement. StartTime and ResultValue are kept exactly
// as they appear in the source.
type Result struct {
	Agency      string `json:"agency"`
	StationID   string `json:"station_id"`
	ParamCode   string `json:"param_code"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	ResultValue string `json:"result_value"`
	HUC         string `json:"huc"`
	SampleDepth string `json:"sample_depth"`
}

// Output column order. Never reordered.
var (
	ParameterColumns = []string{"code", "short_name", "long_name"}
	StationColumns   = []string{
		"agency", "station_id", "station_name", "agency_name", "state", "county",
		"latitude", "longitude", "huc", "station_type", "description",
	}
	ResultColumns = []string{
		"agency", "station_id", "param_code", "start_date",
		"start_time", "result_value", "huc", "sample_depth",
	}
)

// Row returns the parameter in ParameterColumns order.
func (p Parameter) Row() []string {
	return []string{p.Code, p.ShortName, p.LongName}
}

// Row returns the station in StationColumns order. Absent coordinates are
// rendered as empty strings.
func (s Station) Row() []string {
	return []string{
		s.Agency, s.StationID, s.StationName, s.AgencyName, s.State, s.County,
		FormatCoord(s.Latitude), FormatCoord(s.Longitude), s.HUC, s.StationType, s.Description,
	}
}

// Row returns the result in ResultColumns order.
func (r Result) Row() []string {
	return []string{
		r.Agency, r.StationID, r.ParamCode, r.StartDate,
		r.StartTime, r.ResultValue, r.HUC, r.SampleDepth,
	}
}

// ParseCoord parses a coordinate field. Anything that is not a finite
// float yields nil.
func ParseCoord(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FormatCoord is the inverse of ParseCoord for output.
func FormatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
