package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/hazyhaar/storet-normalizer/pkg/output"
	"github.com/hazyhaar/storet-normalizer/pkg/store"
)

// dbPath is the configured database, or <state>_water.db next to the output
// directory, where the import script puts it too.
func dbPath(cfg config) string {
	if cfg.DBPath != "" {
		return cfg.DBPath
	}
	return filepath.Join(filepath.Dir(filepath.Clean(cfg.OutputDir)), output.DatabaseName(cfg.StateName))
}

func cmdLoad(args []string) error {
	var c common
	fs := newFlagSet("load", &c)
	fs.StringVar(&c.fl.DBPath, "db", "", "SQLite database to create (default ../<state>_water.db relative to the output dir)")
	batch := fs.Int("batch", store.DefaultBatchSize, "rows per transaction")
	force := fs.Bool("force", false, "replace an existing database")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	cfg, logger, err := c.resolve(fs)
	if err != nil {
		return err
	}
	path := dbPath(cfg)

	ctx, stop := signalContext()
	defer stop()

	s, err := store.Create(path, *force)
	if errors.Is(err, store.ErrExists) {
		fmt.Printf("Database %s already exists. Skipping import (use -force to replace).\n", path)
		return nil
	}
	if err != nil {
		logger.Error("open database", "error", err)
		return err
	}
	defer s.Close()

	fmt.Println("================================================================")
	fmt.Printf("Importing %s water quality data to SQLite\n", cfg.StateName)
	fmt.Println("================================================================")

	l := &store.Loader{Store: s, BatchSize: *batch, Logger: logger, Progress: os.Stdout}
	counts, err := l.LoadDir(ctx, cfg.OutputDir)
	if err != nil {
		logger.Error("load failed", "dir", cfg.OutputDir, "db", path, "error", err)
		return err
	}

	size := "?"
	if fi, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	fmt.Println()
	fmt.Println("Import complete")
	fmt.Printf("Database: %s (%s)\n", path, size)
	fmt.Printf("  parameters: %s\n", humanize.Comma(counts.Parameters))
	fmt.Printf("  stations:   %s\n", humanize.Comma(counts.Stations))
	fmt.Printf("  results:    %s\n", humanize.Comma(counts.Results))
	return nil
}
