package storet

// TablesDDL creates the three normalised tables. result_value is TEXT on
// purpose: qualifiers and scientific notation survive the load.
const TablesDDL = `DROP TABLE IF EXISTS results;
DROP TABLE IF EXISTS stations;
DROP TABLE IF EXISTS parameters;

CREATE TABLE parameters (
    code TEXT PRIMARY KEY,
    short_name TEXT,
    long_name TEXT
);

CREATE TABLE stations (
    agency TEXT,
    station_id TEXT PRIMARY KEY,
    station_name TEXT,
    agency_name TEXT,
    state TEXT,
    county TEXT,
    latitude REAL,
    longitude REAL,
    huc TEXT,
    station_type TEXT,
    description TEXT
);

CREATE TABLE results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    agency TEXT,
    station_id TEXT,
    param_code TEXT,
    start_date TEXT,
    start_time TEXT,
    result_value TEXT,
    huc TEXT,
    sample_depth TEXT,
    FOREIGN KEY (station_id) REFERENCES stations(station_id),
    FOREIGN KEY (param_code) REFERENCES parameters(code)
);
`

// IndexesDDL creates the four query indexes. Run it after bulk loading.
const IndexesDDL = `CREATE INDEX IF NOT EXISTS idx_results_station ON results(station_id);
CREATE INDEX IF NOT EXISTS idx_results_param ON results(param_code);
CREATE INDEX IF NOT EXISTS idx_results_date ON results(start_date);
CREATE INDEX IF NOT EXISTS idx_stations_county ON stations(county);
`

// IndexNames lists the indexes created by IndexesDDL.
var IndexNames = []string{
	"idx_results_station",
	"idx_results_param",
	"idx_results_date",
	"idx_stations_county",
}
