package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hazyhaar/storet-normalizer/pkg/api"
	"github.com/hazyhaar/storet-normalizer/pkg/observability"
	"github.com/hazyhaar/storet-normalizer/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func cmdServe(args []string) error {
	var c common
	fs := newFlagSet("serve", &c)
	fs.StringVar(&c.fl.DBPath, "db", "", "SQLite database to serve (default ../<state>_water.db relative to the output dir)")
	fs.StringVar(&c.fl.Addr, "addr", c.fl.Addr, "listen address")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	cfg, logger, err := c.resolve(fs)
	if err != nil {
		return err
	}
	path := dbPath(cfg)

	s, err := store.OpenExisting(path)
	if err != nil {
		logger.Error("open database", "error", err)
		return err
	}
	defer s.Close()

	ctx, stop := signalContext()
	defer stop()

	counts, err := s.Counts(ctx)
	if err != nil {
		logger.Error("database is not loaded, run storet load first", "db", path, "error", err)
		return err
	}
	logger.Info("database opened", "db", path, "parameters", counts.Parameters, "stations", counts.Stations, "results", counts.Results)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	router := api.NewRouter(s, api.Options{
		Metrics:  observability.NewMetrics(reg),
		Gatherer: reg,
		Logger:   logger,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("storet listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
