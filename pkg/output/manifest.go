// CLAUDE:SUMMARY Run manifest (manifest.yaml) recording run id, state, counts per role and whether the output is complete.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ManifestFile is written next to the tables after every run.
const ManifestFile = "manifest.yaml"

// Manifest describes one parse run. Complete is false when the run was
// interrupted or failed; the tables are then left with PartialSuffix.
type Manifest struct {
	RunID      string               `yaml:"run_id"`
	State      string               `yaml:"state"`
	StateAbbr  string               `yaml:"state_abbr"`
	Root       string               `yaml:"root"`
	Encoding   string               `yaml:"encoding"`
	Complete   bool                 `yaml:"complete"`
	Error      string               `yaml:"error,omitempty"`
	StartedAt  time.Time            `yaml:"started_at"`
	FinishedAt time.Time            `yaml:"finished_at"`
	Roles      map[string]RoleStats `yaml:"roles"`
	Tables     []TableInfo          `yaml:"tables"`
}

// RoleStats summarises one input category.
type RoleStats struct {
	Files      int            `yaml:"files"`
	Unreadable int            `yaml:"unreadable,omitempty"`
	Lines      int            `yaml:"lines"`
	Written    int            `yaml:"written"`
	Duplicates int            `yaml:"duplicates,omitempty"`
	Skipped    map[string]int `yaml:"skipped,omitempty"`
}

// TableInfo records one produced table.
type TableInfo struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
	Rows int    `yaml:"rows"`
}

// NewManifest starts a manifest with a fresh run id.
func NewManifest(state, stateAbbr, root, encoding string, started time.Time) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		State:     state,
		StateAbbr: stateAbbr,
		Root:      root,
		Encoding:  encoding,
		StartedAt: started.UTC(),
		Roles:     make(map[string]RoleStats),
	}
}

// WriteManifest writes m as YAML to dir/manifest.yaml.
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := ensureDir(dir); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

// LoadManifest reads dir/manifest.yaml.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.RunID == "" {
		return nil, fmt.Errorf("manifest %s: missing run_id", path)
	}
	return &m, nil
}

// UpToDate reports whether dir holds a complete previous run of the same
// state and input root: all three tables present and a manifest marked
// complete whose state, abbreviation and root match.
func UpToDate(dir, state, stateAbbr, root string) bool {
	if !Complete(dir) {
		return false
	}
	m, err := LoadManifest(dir)
	if err != nil || !m.Complete {
		return false
	}
	return m.State == state &&
		strings.EqualFold(m.StateAbbr, stateAbbr) &&
		filepath.Clean(m.Root) == filepath.Clean(root)
}
