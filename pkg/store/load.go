package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hazyhaar/storet-normalizer/pkg/output"
	"github.com/hazyhaar/storet-normalizer/pkg/storet"
)

// DefaultBatchSize is the number of rows inserted per transaction.
const DefaultBatchSize = 10_000

// Counts holds the row count of each table.
type Counts struct {
	Parameters int64 `json:"parameters"`
	Stations   int64 `json:"stations"`
	Results    int64 `json:"results"`
}

// Loader bulk-loads a parse output directory into a Store, the same way the
// generated import script does it through the sqlite3 shell.
type Loader struct {
	Store     *Store
	BatchSize int
	Logger    *slog.Logger
	Progress  io.Writer
}

// LoadDir creates the tables, loads parameters.csv, stations.csv and
// results.csv from dir, then creates the indexes. Partial output is refused.
func (l *Loader) LoadDir(ctx context.Context, dir string) (Counts, error) {
	var c Counts
	if !output.Complete(dir) {
		return c, fmt.Errorf("%s does not hold a complete parse output (missing tables or *%s files)", dir, output.PartialSuffix)
	}
	batch := l.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := l.Progress
	if progress == nil {
		progress = io.Discard
	}

	fmt.Fprintln(progress, "[1/5] Creating tables...")
	if err := l.Store.CreateTables(ctx); err != nil {
		return c, err
	}

	steps := []struct {
		label string
		file  string
		table string
		cols  []string
		conv  func([]string) []any
		n     *int64
	}{
		{"[2/5] Importing parameters...", output.ParametersFile, "parameters", storet.ParameterColumns, textArgs, &c.Parameters},
		{"[3/5] Importing stations...", output.StationsFile, "stations", storet.StationColumns, stationArgs, &c.Stations},
		{"[4/5] Importing results...", output.ResultsFile, "results", storet.ResultColumns, textArgs, &c.Results},
	}
	for _, st := range steps {
		fmt.Fprintln(progress, st.label)
		n, err := l.loadTable(ctx, filepath.Join(dir, st.file), st.table, st.cols, st.conv, batch)
		if err != nil {
			return c, err
		}
		*st.n = n
		logger.Debug("table loaded", "table", st.table, "rows", n)
		fmt.Fprintf(progress, "  %s: %s\n", st.table, humanize.Comma(n))
	}

	fmt.Fprintln(progress, "[5/5] Creating indexes...")
	if err := l.Store.CreateIndexes(ctx); err != nil {
		return c, err
	}
	return c, nil
}

// loadTable inserts every data row of a CSV file whose header must equal
// cols. Rows are committed every batch rows.
func (l *Loader) loadTable(ctx context.Context, path, table string, cols []string, conv func([]string) []any, batch int) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(cols)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header %s: %w", path, err)
	}
	if !slices.Equal(header, cols) {
		return 0, fmt.Errorf("%s: unexpected header %v", path, header)
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table,
		strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))

	var (
		n    int64
		tx   *sql.Tx
		stmt *sql.Stmt
	)
	begin := func() error {
		if tx, err = l.Store.db.BeginTx(ctx, nil); err != nil {
			return fmt.Errorf("begin %s: %w", table, err)
		}
		if stmt, err = tx.PrepareContext(ctx, q); err != nil {
			tx.Rollback()
			return fmt.Errorf("prepare %s: %w", table, err)
		}
		return nil
	}
	commit := func() error {
		stmt.Close()
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", table, err)
		}
		return nil
	}
	abort := func(err error) (int64, error) {
		stmt.Close()
		tx.Rollback()
		return n, err
	}

	if err := begin(); err != nil {
		return 0, err
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return abort(fmt.Errorf("read %s: %w", path, err))
		}
		if _, err := stmt.ExecContext(ctx, conv(rec)...); err != nil {
			return abort(fmt.Errorf("insert %s row %d: %w", table, n+1, err))
		}
		n++
		if n%int64(batch) == 0 {
			if err := commit(); err != nil {
				return n, err
			}
			if err := begin(); err != nil {
				return n, err
			}
		}
	}
	return n, commit()
}

func textArgs(rec []string) []any {
	args := make([]any, len(rec))
	for i, v := range rec {
		args[i] = v
	}
	return args
}

// stationArgs maps empty or unparsable coordinates to NULL.
func stationArgs(rec []string) []any {
	args := textArgs(rec)
	for i, col := range storet.StationColumns {
		if col != "latitude" && col != "longitude" {
			continue
		}
		if v := storet.ParseCoord(rec[i]); v != nil {
			args[i] = *v
		} else {
			args[i] = nil
		}
	}
	return args
}
