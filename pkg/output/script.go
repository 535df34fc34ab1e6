// CLAUDE:SUMMARY Generates schema.sql and the executable import_to_sqlite.sh that bulk-loads the three CSV tables.
package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/hazyhaar/storet-normalizer/pkg/storet"
)

// Generated file names.
const (
	SchemaFile       = "schema.sql"
	ImportScriptFile = "import_to_sqlite.sh"
)

// DatabaseName returns the default SQLite file name for a state, e.g.
// "New York" -> "new_york_water.db".
func DatabaseName(stateName string) string {
	s := strings.Join(strings.Fields(strings.ToLower(stateName)), "_")
	if s == "" {
		s = "storet"
	}
	return s + "_water.db"
}

var schemaTmpl = template.Must(template.New("schema").Parse(`-- SQLite schema for {{.State}} water quality data (EPA STORET)
-- Generated by storet

{{.Tables}}
{{.Indexes}}`))

// RenderSchema returns the full DDL: tables followed by indexes.
func RenderSchema(stateName string) ([]byte, error) {
	var buf bytes.Buffer
	err := schemaTmpl.Execute(&buf, map[string]string{
		"State":   stateName,
		"Tables":  storet.TablesDDL,
		"Indexes": storet.IndexesDDL,
	})
	if err != nil {
		return nil, fmt.Errorf("render schema: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSchema writes dir/schema.sql.
func WriteSchema(dir, stateName string) error {
	data, err := RenderSchema(stateName)
	if err != nil {
		return err
	}
	if err := ensureDir(dir); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, SchemaFile), data, 0o644)
}

var importTmpl = template.Must(template.New("import").Parse(`#!/usr/bin/env bash
# Import {{.State}} water quality data into SQLite.
# Generated by storet. Lives next to the CSV files it loads.

set -euo pipefail

cd "$(dirname "$0")"

DB_FILE="${DB_FILE:-../{{.DB}}}"

echo "================================================================"
echo "Importing {{.State}} water quality data to SQLite"
echo "================================================================"

for f in {{.Params}} {{.Stations}} {{.Results}}; do
    if [ ! -f "$f" ]; then
        if [ -f "$f{{.Partial}}" ]; then
            echo "ERROR: $f{{.Partial}} is an incomplete output. Re-run storet parse."
        else
            echo "ERROR: $f not found. Run storet parse first."
        fi
        exit 1
    fi
done

if [ -f "$DB_FILE" ]; then
    echo "Database $DB_FILE already exists. Skipping import."
    exit 0
fi

echo ""
echo "[1/5] Creating tables..."
sqlite3 "$DB_FILE" <<'SQL'
{{.Tables}}SQL

echo ""
echo "[2/5] Importing parameters..."
sqlite3 "$DB_FILE" <<'SQL'
.mode csv
.import --skip 1 {{.Params}} parameters
SQL
echo "  parameters: $(sqlite3 "$DB_FILE" "SELECT COUNT(*) FROM parameters;")"

echo ""
echo "[3/5] Importing stations..."
sqlite3 "$DB_FILE" <<'SQL'
.mode csv
CREATE TABLE staging_stations ({{.StationCols}});
.import --skip 1 {{.Stations}} staging_stations
INSERT INTO stations ({{.StationList}})
SELECT {{.StationSelect}} FROM staging_stations;
DROP TABLE staging_stations;
SQL
echo "  stations: $(sqlite3 "$DB_FILE" "SELECT COUNT(*) FROM stations;")"

echo ""
echo "[4/5] Importing results (this may take several minutes)..."
sqlite3 "$DB_FILE" <<'SQL'
.mode csv
CREATE TABLE staging_results ({{.ResultCols}});
.import --skip 1 {{.Results}} staging_results
INSERT INTO results ({{.ResultList}})
SELECT {{.ResultList}} FROM staging_results;
DROP TABLE staging_results;
SQL
echo "  results: $(sqlite3 "$DB_FILE" "SELECT COUNT(*) FROM results;")"

echo ""
echo "[5/5] Creating indexes..."
sqlite3 "$DB_FILE" <<'SQL'
{{.Indexes}}SQL
echo "  indexes: $(sqlite3 "$DB_FILE" ".indexes" | grep -c "idx_" || true)"

echo ""
echo "================================================================"
echo "Import complete"
echo "================================================================"
echo "Database: $DB_FILE"
echo "Size: $(du -h "$DB_FILE" | cut -f1)"
echo ""
echo "Row counts:"
sqlite3 "$DB_FILE" "SELECT 'parameters', COUNT(*) FROM parameters UNION ALL SELECT 'stations', COUNT(*) FROM stations UNION ALL SELECT 'results', COUNT(*) FROM results;"
`))

func textColumns(cols []string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c + " TEXT"
	}
	return strings.Join(defs, ", ")
}

// stationSelect turns empty coordinates into NULL so the REAL columns never
// hold ''.
func stationSelect() string {
	sel := make([]string, len(storet.StationColumns))
	for i, c := range storet.StationColumns {
		switch c {
		case "latitude", "longitude":
			sel[i] = fmt.Sprintf("CAST(NULLIF(%s, '') AS REAL)", c)
		default:
			sel[i] = c
		}
	}
	return strings.Join(sel, ", ")
}

// RenderImportScript returns the import shell script for a state. An empty
// dbName uses DatabaseName(stateName); DB_FILE overrides it at run time.
func RenderImportScript(stateName, dbName string) ([]byte, error) {
	if dbName == "" {
		dbName = DatabaseName(stateName)
	}
	var buf bytes.Buffer
	err := importTmpl.Execute(&buf, map[string]string{
		"State":         stateName,
		"DB":            dbName,
		"Partial":       PartialSuffix,
		"Params":        ParametersFile,
		"Stations":      StationsFile,
		"Results":       ResultsFile,
		"Tables":        storet.TablesDDL,
		"Indexes":       storet.IndexesDDL,
		"StationCols":   textColumns(storet.StationColumns),
		"StationList":   strings.Join(storet.StationColumns, ", "),
		"StationSelect": stationSelect(),
		"ResultCols":    textColumns(storet.ResultColumns),
		"ResultList":    strings.Join(storet.ResultColumns, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("render import script: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteImportScript writes dir/import_to_sqlite.sh with mode 0755.
func WriteImportScript(dir, stateName, dbName string) error {
	data, err := RenderImportScript(stateName, dbName)
	if err != nil {
		return err
	}
	if err := ensureDir(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, ImportScriptFile)
	if err := writeFile(path, data, 0o755); err != nil {
		return err
	}
	// os.WriteFile keeps the mode of an existing file.
	return os.Chmod(path, 0o755)
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
