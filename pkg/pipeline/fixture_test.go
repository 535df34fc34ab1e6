package pipeline_test

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	invHeader = "Code\tShort Name\tLong Name"
	staHeader = "Agency\tStation\tStation Name\tAgency Name\tState Name\tCounty Name\tLatitude\tLongitude\tHUC\tStation Type\tRchmile Segment\tMiles Up Reach\tDescription"
	resHeader = "Agency\tStation\tStation Name\tAgency Name\tState Name\tCounty Name\tLatitude\tLongitude\tResult Value\tR\tHUC\tParam\tStart Date\tStart Time\tEnd Date\tEnd Time\tSample Depth"
)

func tsv(fields ...string) string { return strings.Join(fields, "\t") }

// writeSource writes a STORET file: header, dashed separator, data lines,
// encoded one byte per character.
func writeSource(t *testing.T, path, header string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var buf bytes.Buffer
	buf.WriteString(header + "\n")
	buf.WriteString(strings.Repeat("-", len(header)) + "\n")
	for _, l := range lines {
		buf.WriteString(l + "\n")
	}
	require.NoError(t, os.WriteFile(path, latin1(buf.String()), 0o644))
}

// latin1 encodes s rune-for-byte; test inputs only use runes below 256.
func latin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(r))
	}
	return out
}

func invLine(code, short, long string) string { return tsv(code, short, long) }

func staLine(id, county, lat, lon, desc string) string {
	return tsv("21WASH", id, "STATION "+id, "WA ECOLOGY", "WASHINGTON", county, lat, lon, "17060108", "STREAM", "", "", desc)
}

func resLine(station, param, date, tm, value string) string {
	return tsv("21WASH", station, "STATION", "WA ECOLOGY", "WASHINGTON", "ADAMS", "46.7", "-118.1",
		value, "", "17060108", param, date, tm, "", "", "0.5")
}

// stateTree builds a minimal WA tree:
// one inventory file, one station file, one result file per county.
func scenarioTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "WA_Adams_inv.txt"), invHeader,
		invLine("00010", "TEMP", "TEMPERATURE, WATER (FIRST)"),
		invLine("00010", "TEMP", "TEMPERATURE, WATER (SECOND)"),
	)
	writeSource(t, filepath.Join(root, "WA_Adams", "WA_Adams_sta_001.txt"), staHeader,
		staLine("ABC123", "ADAMS", "46.7589", "-118.1486", "Palouse River"),
	)
	writeSource(t, filepath.Join(root, "WA_Adams", "WA_Adams_res_001.txt"), resHeader,
		resLine("ABC123", "00010", "19750612", "2500", "12.5"),
		tsv("21WASH", "ABC123"),
		resLine("ABC123", "00010", "06/13/1975", "0930", "<0.5E-2"),
	)
	return root
}

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

// memSink collects rows in memory.
type memSink struct {
	rows [][]string
}

func (m *memSink) Write(row []string) error {
	m.rows = append(m.rows, append([]string(nil), row...))
	return nil
}

// failSink fails after n rows.
type failSink struct {
	n   int
	err error
}

func (f *failSink) Write([]string) error {
	if f.n == 0 {
		return f.err
	}
	f.n--
	return nil
}

func countyTree(t *testing.T, counties, filesPerCounty, rowsPerFile int) string {
	t.Helper()
	root := t.TempDir()
	for c := 0; c < counties; c++ {
		county := fmt.Sprintf("County%02d", c)
		writeSource(t, filepath.Join(root, "WA_"+county+"_inv.txt"), invHeader,
			invLine(fmt.Sprintf("%05d", c), "P", "param "+county))
		dir := filepath.Join(root, "WA_"+county)
		writeSource(t, filepath.Join(dir, "WA_"+county+"_sta_001.txt"), staHeader,
			staLine("S"+county, "", "47.0", "-120.0", "station "+county))
		for f := 0; f < filesPerCounty; f++ {
			lines := make([]string, rowsPerFile)
			for i := range lines {
				lines[i] = resLine("S"+county, fmt.Sprintf("%05d", c), "19800101", fmt.Sprintf("%04d", i%2400), fmt.Sprintf("%d.%d", f, i))
			}
			writeSource(t, filepath.Join(dir, fmt.Sprintf("WA_%s_res_%03d.txt", county, f+1)), resHeader, lines...)
		}
	}
	return root
}
