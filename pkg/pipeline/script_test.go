package pipeline_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/storet-normalizer/pkg/output"
	"github.com/hazyhaar/storet-normalizer/pkg/pipeline"
	"github.com/hazyhaar/storet-normalizer/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportScript_RoundTripWithSqlite3(t *testing.T) {
	for _, bin := range []string{"sqlite3", "bash"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not on PATH", bin)
		}
	}
	root := countyTree(t, 2, 2, 40)
	out := t.TempDir()
	rep, err := newPipeline(pipeline.Options{}).Build(context.Background(), root, out, "", false)
	require.NoError(t, err)

	db := filepath.Join(t.TempDir(), "water.db")
	cmd := exec.Command("bash", filepath.Join(out, output.ImportScriptFile))
	cmd.Env = append(os.Environ(), "DB_FILE="+db)
	outBytes, err := cmd.CombinedOutput()
	require.NoError(t, err, string(outBytes))

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()
	c, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(rep.Summary.Results.Written), c.Results)
	assert.Equal(t, int64(rep.Summary.Stations.Written), c.Stations)
	assert.Equal(t, int64(rep.Summary.Parameters.Written), c.Parameters)

	st, err := s.Station(context.Background(), "SCounty00")
	require.NoError(t, err)
	require.NotNil(t, st.Latitude, "coordinates load as REAL")
	assert.InDelta(t, 47.0, *st.Latitude, 1e-9)

	idx, err := s.Indexes(context.Background())
	require.NoError(t, err)
	assert.Len(t, idx, 4)
}
