package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetricsForTesting()
	m.RowsWritten.WithLabelValues("res").Add(9)
	m.RowsSkipped.WithLabelValues("res", "short").Inc()

	if got := testutil.ToFloat64(m.RowsWritten.WithLabelValues("res")); got != 9 {
		t.Errorf("rows_written{res} = %v, want 9", got)
	}
	if got := testutil.ToFloat64(m.RowsSkipped.WithLabelValues("res", "short")); got != 1 {
		t.Errorf("rows_skipped{res,short} = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RunComplete.Set(1)
	m.LinesRead.WithLabelValues("inv").Add(3)

	path := filepath.Join(t.TempDir(), "storet.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{"storet_run_complete 1", `storet_lines_read_total{role="inv"} 3`} {
		if !strings.Contains(s, want) {
			t.Errorf("textfile missing %q:\n%s", want, s)
		}
	}
}
