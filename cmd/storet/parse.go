package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hazyhaar/storet-normalizer/pkg/observability"
	"github.com/hazyhaar/storet-normalizer/pkg/output"
	"github.com/hazyhaar/storet-normalizer/pkg/pipeline"
	"github.com/hazyhaar/storet-normalizer/pkg/storet"
	"github.com/prometheus/client_golang/prometheus"
)

func cmdParse(args []string) error {
	var c common
	fs := newFlagSet("parse", &c)
	fs.IntVar(&c.fl.Workers, "workers", c.fl.Workers, "result files decoded in parallel")
	fs.IntVar(&c.fl.ProgressEvery, "progress-every", c.fl.ProgressEvery, "result rows between progress lines (negative disables)")
	fs.StringVar(&c.fl.Encoding, "encoding", c.fl.Encoding, "source file encoding")
	fs.StringVar(&c.fl.DBPath, "db", "", "database file named in the import script (default <state>_water.db)")
	force := fs.Bool("force", false, "parse even if the output directory already holds a complete run")
	metricsFile := fs.String("metrics-file", "", "write Prometheus metrics to this textfile when done")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: storet parse [flags] <data_dir>")
		fs.PrintDefaults()
	}

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	cfg, logger, err := c.resolve(fs)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		fs.Usage()
		return errors.New("expected exactly one data directory")
	}

	enc, err := storet.LookupEncoding(cfg.Encoding)
	if err != nil {
		logger.Error("invalid encoding", "error", err)
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	p := pipeline.New(pipeline.Options{
		StateAbbr:     cfg.StateAbbr,
		StateName:     cfg.StateName,
		Encoding:      enc,
		EncodingName:  cfg.Encoding,
		Workers:       cfg.Workers,
		ProgressEvery: cfg.ProgressEvery,
		Progress:      os.Stdout,
		Logger:        logger,
		Metrics:       metrics,
	})

	ctx, stop := signalContext()
	defer stop()

	fmt.Println("================================================================")
	fmt.Printf("Parsing %s water quality data (%s)\n", cfg.StateName, cfg.StateAbbr)
	fmt.Println("================================================================")

	rep, err := p.Build(ctx, pos[0], cfg.OutputDir, cfg.DBPath, *force)
	if rep != nil {
		pipeline.PrintSummary(os.Stdout, rep)
	}
	if *metricsFile != "" {
		if merr := observability.WriteTextfile(*metricsFile, reg); merr != nil {
			logger.Error("metrics export failed", "error", merr)
		}
	}
	switch {
	case errors.Is(err, pipeline.ErrInterrupted):
		logger.Error("parse interrupted, tables left as partial output", "dir", cfg.OutputDir, "suffix", output.PartialSuffix)
		return err
	case err != nil:
		logger.Error("parse failed", "error", err)
		return err
	}
	return nil
}

func cmdSchema(args []string) error {
	var c common
	fs := newFlagSet("schema", &c)
	fs.StringVar(&c.fl.DBPath, "db", "", "database file named in the import script (default <state>_water.db)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	cfg, logger, err := c.resolve(fs)
	if err != nil {
		return err
	}

	if err := output.WriteSchema(cfg.OutputDir, cfg.StateName); err != nil {
		logger.Error("write schema", "error", err)
		return err
	}
	if err := output.WriteImportScript(cfg.OutputDir, cfg.StateName, cfg.DBPath); err != nil {
		logger.Error("write import script", "error", err)
		return err
	}
	fmt.Printf("Wrote %s and %s to %s\n", output.SchemaFile, output.ImportScriptFile, cfg.OutputDir)
	return nil
}
