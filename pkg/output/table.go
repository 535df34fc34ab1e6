// CLAUDE:SUMMARY CSV table sinks written to <name>.partial and promoted to their final name only on Commit.
package output

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PartialSuffix marks a table file that was not completed.
const PartialSuffix = ".partial"

// Table is one CSV output file with a fixed header.
type Table struct {
	name    string
	final   string
	partial string
	f       *os.File
	bw      *bufio.Writer
	w       *csv.Writer
	rows    int
	closed  bool
}

// CreateTable creates dir/name+PartialSuffix and writes the header row.
func CreateTable(dir, name string, header []string) (*Table, error) {
	final := filepath.Join(dir, name)
	partial := final + PartialSuffix
	f, err := os.Create(partial)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", partial, err)
	}
	bw := bufio.NewWriterSize(f, 256*1024)
	t := &Table{name: name, final: final, partial: partial, f: f, bw: bw, w: csv.NewWriter(bw)}
	if err := t.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header %s: %w", partial, err)
	}
	return t, nil
}

// Write appends one data row. Errors from the underlying file, such as a
// full disk, are returned as they surface.
func (t *Table) Write(row []string) error {
	if err := t.w.Write(row); err != nil {
		return fmt.Errorf("write %s: %w", t.partial, err)
	}
	t.rows++
	return nil
}

// Rows returns the number of data rows written so far.
func (t *Table) Rows() int { return t.rows }

// Name returns the final file name (e.g. results.csv).
func (t *Table) Name() string { return t.name }

// Path returns the final path of the table.
func (t *Table) Path() string { return t.final }

func (t *Table) flushClose() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.w.Flush()
	err := t.w.Error()
	if err == nil {
		err = t.bw.Flush()
	}
	if err == nil {
		err = t.f.Sync()
	}
	if cerr := t.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("flush %s: %w", t.partial, err)
	}
	return nil
}

// Commit flushes, closes, and renames the partial file to its final name.
func (t *Table) Commit() error {
	if err := t.flushClose(); err != nil {
		return err
	}
	if err := os.Rename(t.partial, t.final); err != nil {
		return fmt.Errorf("promote %s: %w", t.final, err)
	}
	return nil
}

// Abort flushes and closes the file, leaving it under its partial name.
func (t *Table) Abort() error {
	return t.flushClose()
}

// Dataset groups the three normalised tables of a run.
type Dataset struct {
	Dir        string
	Parameters *Table
	Stations   *Table
	Results    *Table
}

// Table file names.
const (
	ParametersFile = "parameters.csv"
	StationsFile   = "stations.csv"
	ResultsFile    = "results.csv"
)

// OpenDataset creates dir if needed and opens the three tables. Stale
// final files from an earlier run are removed so a crash can never leave a
// mix of old and new tables behind.
func OpenDataset(dir string, params, stations, results []string) (*Dataset, error) {
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	for _, name := range []string{ParametersFile, StationsFile, ResultsFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale %s: %w", name, err)
		}
	}

	ds := &Dataset{Dir: dir}
	var err error
	if ds.Parameters, err = CreateTable(dir, ParametersFile, params); err != nil {
		return nil, err
	}
	if ds.Stations, err = CreateTable(dir, StationsFile, stations); err != nil {
		ds.Abort()
		return nil, err
	}
	if ds.Results, err = CreateTable(dir, ResultsFile, results); err != nil {
		ds.Abort()
		return nil, err
	}
	return ds, nil
}

func (ds *Dataset) tables() []*Table {
	var ts []*Table
	for _, t := range []*Table{ds.Parameters, ds.Stations, ds.Results} {
		if t != nil {
			ts = append(ts, t)
		}
	}
	return ts
}

// Commit promotes all tables. The first error is returned; remaining
// tables are still closed.
func (ds *Dataset) Commit() error {
	var first error
	for _, t := range ds.tables() {
		var err error
		if first == nil {
			err = t.Commit()
		} else {
			err = t.Abort()
		}
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Abort closes all tables and leaves them flagged as partial.
func (ds *Dataset) Abort() error {
	var errs []error
	for _, t := range ds.tables() {
		if err := t.Abort(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Complete reports whether all three final table files exist in dir.
func Complete(dir string) bool {
	for _, name := range []string{ParametersFile, StationsFile, ResultsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
