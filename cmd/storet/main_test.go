package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseArgs_Interspersed(t *testing.T) {
	var c common
	fs := newFlagSet("parse", &c)
	pos, err := parseArgs(fs, []string{"data", "-s", "OR", "-n", "Oregon", "-o", "out"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if !reflect.DeepEqual(pos, []string{"data"}) {
		t.Fatalf("positionals = %v", pos)
	}
	if c.fl.StateAbbr != "OR" || c.fl.StateName != "Oregon" || c.fl.OutputDir != "out" {
		t.Fatalf("flags = %+v", c.fl)
	}
}

func TestResolve_FlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storet.yaml")
	data := []byte("state_abbr: IL\nstate_name: Illinois\noutput_dir: il-out\nworkers: 4\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	var c common
	fs := newFlagSet("parse", &c)
	fs.IntVar(&c.fl.Workers, "workers", c.fl.Workers, "")
	if _, err := parseArgs(fs, []string{"-config", path, "-o", "mine", "root"}); err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	cfg, _, err := c.resolve(fs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if cfg.StateAbbr != "IL" || cfg.StateName != "Illinois" {
		t.Fatalf("config file values lost: %+v", cfg)
	}
	if cfg.OutputDir != "mine" {
		t.Fatalf("explicit -o should win, got %q", cfg.OutputDir)
	}
	if cfg.Workers != 4 {
		t.Fatalf("workers = %d, want 4 from file", cfg.Workers)
	}
	if cfg.Encoding != "latin1" {
		t.Fatalf("default encoding lost: %q", cfg.Encoding)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	var c common
	fs := newFlagSet("schema", &c)
	if _, err := parseArgs(fs, []string{"-config", filepath.Join(t.TempDir(), "absent.yaml")}); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := c.resolve(fs)
	if err != nil {
		t.Fatalf("missing config must not fail: %v", err)
	}
	if cfg != defaultConfig() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("workers: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	var c common
	fs := newFlagSet("schema", &c)
	if _, err := parseArgs(fs, []string{"-config", path}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.resolve(fs); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDBPath(t *testing.T) {
	cfg := defaultConfig()
	cfg.OutputDir = filepath.Join("data", "output")
	cfg.StateName = "New York"
	if got, want := dbPath(cfg), filepath.Join("data", "new_york_water.db"); got != want {
		t.Fatalf("dbPath = %q, want %q", got, want)
	}
	cfg.DBPath = "x.db"
	if got := dbPath(cfg); got != "x.db" {
		t.Fatalf("explicit db path ignored: %q", got)
	}
}

func TestSchemaCommand(t *testing.T) {
	dir := t.TempDir()
	if err := cmdSchema([]string{"-config", filepath.Join(dir, "none.yaml"), "-o", dir, "-n", "Oregon"}); err != nil {
		t.Fatalf("cmdSchema: %v", err)
	}
	fi, err := os.Stat(filepath.Join(dir, "import_to_sqlite.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm()&0o100 == 0 {
		t.Fatalf("script not executable: %v", fi.Mode())
	}
	if _, err := os.Stat(filepath.Join(dir, "schema.sql")); err != nil {
		t.Fatal(err)
	}
}
