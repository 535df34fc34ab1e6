package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hazyhaar/storet-normalizer/pkg/storet"
)

// MaxLimit caps the rows returned by list queries.
const MaxLimit = 1000

// Counts returns the row count of each table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM parameters),
		(SELECT COUNT(*) FROM stations),
		(SELECT COUNT(*) FROM results)`).Scan(&c.Parameters, &c.Stations, &c.Results)
	if err != nil {
		return c, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

// Parameter returns the parameter with the given code.
func (s *Store) Parameter(ctx context.Context, code string) (storet.Parameter, error) {
	var p storet.Parameter
	err := s.db.QueryRowContext(ctx,
		`SELECT code, short_name, long_name FROM parameters WHERE code = ?`, code).
		Scan(&p.Code, &p.ShortName, &p.LongName)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("parameter %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("get parameter %s: %w", code, err)
	}
	return p, nil
}

const stationCols = `agency, station_id, station_name, agency_name, state, county,
	latitude, longitude, huc, station_type, description`

type scanner interface {
	Scan(dest ...any) error
}

func scanStation(sc scanner) (storet.Station, error) {
	var (
		st       storet.Station
		lat, lon sql.NullFloat64
	)
	err := sc.Scan(&st.Agency, &st.StationID, &st.StationName, &st.AgencyName, &st.State, &st.County,
		&lat, &lon, &st.HUC, &st.StationType, &st.Description)
	if lat.Valid {
		st.Latitude = &lat.Float64
	}
	if lon.Valid {
		st.Longitude = &lon.Float64
	}
	return st, err
}

// Station returns the station with the given id.
func (s *Store) Station(ctx context.Context, id string) (storet.Station, error) {
	st, err := scanStation(s.db.QueryRowContext(ctx,
		`SELECT `+stationCols+` FROM stations WHERE station_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return st, fmt.Errorf("station %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return st, fmt.Errorf("get station %s: %w", id, err)
	}
	return st, nil
}

// StationsByCounty lists stations of a county (case-insensitive), ordered
// by id. An empty county lists all stations.
func (s *Store) StationsByCounty(ctx context.Context, county string, limit int) ([]storet.Station, error) {
	limit = clampLimit(limit)
	var (
		rows *sql.Rows
		err  error
	)
	if county == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+stationCols+` FROM stations ORDER BY station_id LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+stationCols+` FROM stations WHERE county = ? COLLATE NOCASE ORDER BY station_id LIMIT ?`,
			county, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	stations := []storet.Station{}
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// StationResults returns the results of one station in load order,
// optionally restricted to a parameter code.
func (s *Store) StationResults(ctx context.Context, id, param string, limit int) ([]storet.Result, error) {
	limit = clampLimit(limit)
	q := `SELECT agency, station_id, param_code, start_date, start_time, result_value, huc, sample_depth
		FROM results WHERE station_id = ?`
	args := []any{id}
	if param != "" {
		q += ` AND param_code = ?`
		args = append(args, param)
	}
	q += ` ORDER BY id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("station results %s: %w", id, err)
	}
	defer rows.Close()

	results := []storet.Result{}
	for rows.Next() {
		var r storet.Result
		if err := rows.Scan(&r.Agency, &r.StationID, &r.ParamCode, &r.StartDate, &r.StartTime,
			&r.ResultValue, &r.HUC, &r.SampleDepth); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func clampLimit(n int) int {
	if n <= 0 || n > MaxLimit {
		return MaxLimit
	}
	return n
}
