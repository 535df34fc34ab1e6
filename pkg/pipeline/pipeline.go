// CLAUDE:SUMMARY Single-pass STORET normalisation: registers parameters and stations, streams results to the sink, then flushes registries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hazyhaar/storet-normalizer/pkg/observability"
	"github.com/hazyhaar/storet-normalizer/pkg/storet"
	"github.com/jonboulle/clockwork"
	"golang.org/x/text/encoding"
)

// ErrInterrupted is returned when the run was cancelled before completion.
var ErrInterrupted = errors.New("run interrupted")

// DefaultProgressEvery is the result-row interval between progress lines.
const DefaultProgressEvery = 100_000

// checkEvery is how many lines are read between cancellation checks.
const checkEvery = 1024

// RowWriter receives normalised rows in output column order.
type RowWriter interface {
	Write(row []string) error
}

// Sinks are the three output tables of a run.
type Sinks struct {
	Parameters RowWriter
	Stations   RowWriter
	Results    RowWriter
}

// Options configure a Pipeline. Zero values select defaults.
type Options struct {
	StateAbbr     string
	StateName     string
	Encoding      encoding.Encoding
	EncodingName  string
	Workers       int
	ProgressEvery int
	Progress      io.Writer
	Logger        *slog.Logger
	Metrics       *observability.Metrics
	Clock         clockwork.Clock
}

// Pipeline converts a discovered worklist into normalised rows. Registries
// and counters live in the Run call, so a Pipeline can be reused.
type Pipeline struct {
	stateAbbr string
	stateName string
	enc       encoding.Encoding
	encName   string
	workers   int
	every     int
	progress  io.Writer
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		stateAbbr: opts.StateAbbr,
		stateName: opts.StateName,
		enc:       opts.Encoding,
		encName:   opts.EncodingName,
		workers:   opts.Workers,
		every:     opts.ProgressEvery,
		progress:  opts.Progress,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		clock:     opts.Clock,
	}
	if p.stateAbbr == "" {
		p.stateAbbr = "WA"
	}
	if p.stateName == "" {
		p.stateName = "Washington"
	}
	if p.enc == nil {
		p.enc, _ = storet.LookupEncoding(storet.DefaultEncoding)
		p.encName = storet.DefaultEncoding
	}
	if p.workers < 1 {
		p.workers = 1
	}
	if p.every == 0 {
		p.every = DefaultProgressEvery
	}
	if p.progress == nil {
		p.progress = io.Discard
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.metrics == nil {
		p.metrics = observability.NewMetricsForTesting()
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	return p
}

// Run processes wl in three phases: inventory and station files feed the
// registries, result files stream straight into sinks.Results, and finally
// the registries are flushed in first-seen order. Malformed lines are
// counted, never fatal. Sink write errors and read errors abort the run.
func (p *Pipeline) Run(ctx context.Context, wl *storet.Worklist, sinks Sinks) (*Summary, error) {
	sum := newSummary(p.clock.Now())
	for _, role := range storet.Roles {
		sum.Role(role).Files = len(wl.Files(role))
	}

	params := storet.NewRegistry[string, storet.Parameter]()
	stations := storet.NewRegistry[string, storet.Station]()

	err := p.registerAll(ctx, wl.Inventory, &sum.Parameters, func(h storet.Header, _ storet.FileRef) lineFunc {
		dec := storet.NewInventoryDecoder(h)
		return func(line string) error {
			d := dec.Decode(line)
			if !d.OK() {
				sum.Parameters.skip(d.Skip)
				return nil
			}
			if !params.Register(d.Record.Code, d.Record) {
				sum.Parameters.Duplicates++
			}
			return nil
		}
	})
	if err != nil {
		return p.finish(sum, err)
	}
	fmt.Fprintf(p.progress, "  %d unique parameters from %d inventory files\n", params.Len(), sum.Parameters.Files)

	err = p.registerAll(ctx, wl.Stations, &sum.Stations, func(h storet.Header, ref storet.FileRef) lineFunc {
		dec := storet.NewStationDecoder(h, p.stateName, ref.County)
		return func(line string) error {
			d := dec.Decode(line)
			if !d.OK() {
				sum.Stations.skip(d.Skip)
				return nil
			}
			if !stations.Register(d.Record.StationID, d.Record) {
				sum.Stations.Duplicates++
			}
			return nil
		}
	})
	if err != nil {
		return p.finish(sum, err)
	}
	fmt.Fprintf(p.progress, "  %d unique stations from %d station files\n", stations.Len(), sum.Stations.Files)

	if err := p.streamResults(ctx, wl.Results, sinks.Results, &sum.Results); err != nil {
		return p.finish(sum, err)
	}

	for _, prm := range params.All() {
		if err := sinks.Parameters.Write(prm.Row()); err != nil {
			return p.finish(sum, err)
		}
		sum.Parameters.Written++
	}
	for _, st := range stations.All() {
		if err := sinks.Stations.Write(st.Row()); err != nil {
			return p.finish(sum, err)
		}
		sum.Stations.Written++
	}
	return p.finish(sum, nil)
}

func (p *Pipeline) finish(sum *Summary, err error) (*Summary, error) {
	sum.FinishedAt = p.clock.Now()
	p.observe(sum)
	return sum, err
}

// observe publishes the run counters.
func (p *Pipeline) observe(sum *Summary) {
	for _, role := range storet.Roles {
		s := sum.Role(role)
		r := role.String()
		p.metrics.FilesDiscovered.WithLabelValues(r).Set(float64(s.Files))
		p.metrics.FilesUnreadable.WithLabelValues(r).Add(float64(s.Unreadable))
		p.metrics.LinesRead.WithLabelValues(r).Add(float64(s.Lines))
		p.metrics.RowsWritten.WithLabelValues(r).Add(float64(s.Written))
		p.metrics.Duplicates.WithLabelValues(r).Add(float64(s.Duplicates))
		for reason, n := range s.Skipped {
			p.metrics.RowsSkipped.WithLabelValues(r, string(reason)).Add(float64(n))
		}
	}
	p.metrics.RunDuration.Set(sum.Duration().Seconds())
}

// lineFunc handles one data line of a source file.
type lineFunc func(line string) error

// registerAll scans files in order on the calling goroutine.
func (p *Pipeline) registerAll(ctx context.Context, files []storet.FileRef, stats *RoleStats, setup func(storet.Header, storet.FileRef) lineFunc) error {
	for _, ref := range files {
		f, err := os.Open(ref.Path)
		if err != nil {
			p.warnUnreadable(ref, err)
			stats.Unreadable++
			continue
		}
		err = p.eachLine(ctx, f, ref, stats, func(h storet.Header) lineFunc { return setup(h, ref) })
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) warnUnreadable(ref storet.FileRef, err error) {
	p.logger.Warn("cannot open source file, skipping", "role", ref.Role.String(), "path", ref.Path, "error", err)
}

// eachLine discards the header and separator lines, builds the line handler
// from the header, and feeds it every remaining line.
func (p *Pipeline) eachLine(ctx context.Context, r io.Reader, ref storet.FileRef, stats *RoleStats, setup func(storet.Header) lineFunc) error {
	p.logger.Debug("reading source file", "role", ref.Role.String(), "path", ref.Path)
	lr := storet.NewLineReader(r, p.enc)

	header, err := lr.Next()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", ref.Path, err)
	}
	if _, err := lr.Next(); err == io.EOF {
		return nil
	} else if err != nil {
		return fmt.Errorf("read %s: %w", ref.Path, err)
	}

	handle := setup(storet.ParseHeader(header))
	for n := 0; ; n++ {
		if n%checkEvery == 0 && ctx.Err() != nil {
			return interrupted(ctx)
		}
		line, err := lr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s line %d: %w", ref.Path, lr.Line()+1, err)
		}
		stats.Lines++
		if err := handle(line); err != nil {
			return err
		}
	}
}

func interrupted(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
}
