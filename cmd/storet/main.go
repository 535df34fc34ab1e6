package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"
)

var version = "dev"

// config is the optional storet.yaml. Flags set on the command line win.
type config struct {
	StateAbbr     string `yaml:"state_abbr"`
	StateName     string `yaml:"state_name"`
	OutputDir     string `yaml:"output_dir"`
	Workers       int    `yaml:"workers"`
	ProgressEvery int    `yaml:"progress_every"`
	Encoding      string `yaml:"encoding"`
	DBPath        string `yaml:"db_path"`
	Addr          string `yaml:"addr"`
}

func defaultConfig() config {
	return config{
		StateAbbr:     "WA",
		StateName:     "Washington",
		OutputDir:     "output",
		Workers:       1,
		ProgressEvery: 100_000,
		Encoding:      "latin1",
		Addr:          ":8421",
	}
}

func main() {
	args := os.Args[1:]
	cmd := "parse"
	if len(args) > 0 {
		switch args[0] {
		case "parse", "load", "serve", "schema":
			cmd, args = args[0], args[1:]
		case "help", "-h", "-help", "--help":
			usage()
			return
		case "version":
			fmt.Println(version)
			return
		}
	}

	var err error
	switch cmd {
	case "parse":
		err = cmdParse(args)
	case "load":
		err = cmdLoad(args)
	case "serve":
		err = cmdServe(args)
	case "schema":
		err = cmdSchema(args)
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: storet [command] [flags] [args]

Commands:
  parse <data_dir>   Normalise STORET flat files into CSV + import script (default)
  load               Load a parse output directory into SQLite
  serve              Serve a loaded database over HTTP and MCP
  schema             Write schema.sql and import_to_sqlite.sh only

Run "storet <command> -h" for flags.
`)
}

// common holds the flags shared by every subcommand.
type common struct {
	cfgPath string
	verbose bool
	fl      config
}

// newFlagSet binds the shared flags. Short aliases follow the STORET
// parser's historical -s/-n/-o.
func newFlagSet(name string, c *common) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	def := defaultConfig()
	c.fl = def
	fs.StringVar(&c.cfgPath, "config", "storet.yaml", "path to YAML config file")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
	fs.StringVar(&c.fl.StateAbbr, "state-abbr", def.StateAbbr, "two-letter state abbreviation")
	fs.StringVar(&c.fl.StateAbbr, "s", def.StateAbbr, "shorthand for -state-abbr")
	fs.StringVar(&c.fl.StateName, "state-name", def.StateName, "full state name")
	fs.StringVar(&c.fl.StateName, "n", def.StateName, "shorthand for -state-name")
	fs.StringVar(&c.fl.OutputDir, "output", def.OutputDir, "output directory for CSV and SQL files")
	fs.StringVar(&c.fl.OutputDir, "o", def.OutputDir, "shorthand for -output")
	return fs
}

// parseArgs parses flags that may appear before or after positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

// resolve merges defaults, the config file and explicitly set flags.
func (c *common) resolve(fs *flag.FlagSet) (config, *slog.Logger, error) {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(c.cfgPath, logger)
	if err != nil {
		logger.Error("load config", "path", c.cfgPath, "error", err)
		return cfg, logger, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s", "state-abbr":
			cfg.StateAbbr = c.fl.StateAbbr
		case "n", "state-name":
			cfg.StateName = c.fl.StateName
		case "o", "output":
			cfg.OutputDir = c.fl.OutputDir
		case "workers":
			cfg.Workers = c.fl.Workers
		case "progress-every":
			cfg.ProgressEvery = c.fl.ProgressEvery
		case "encoding":
			cfg.Encoding = c.fl.Encoding
		case "db":
			cfg.DBPath = c.fl.DBPath
		case "addr":
			cfg.Addr = c.fl.Addr
		}
	})
	return cfg, logger, nil
}

func loadConfig(path string, logger *slog.Logger) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no config file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
