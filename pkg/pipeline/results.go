package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hazyhaar/storet-normalizer/pkg/storet"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const (
	resultBatchSize = 1024
	// batches buffered per in-flight file
	streamDepth = 4
)

// fileStream carries the decoded results of one file from its producer to
// the writer. stats and err are only read after batches is closed.
type fileStream struct {
	ref     storet.FileRef
	batches chan []storet.Result
	stats   RoleStats
	err     error
}

// streamResults decodes result files with up to p.workers producers and
// writes rows from a single writer in discovery order, so the output is the
// same for any worker count. At most workers*streamDepth batches are held
// in memory.
func (p *Pipeline) streamResults(ctx context.Context, files []storet.FileRef, sink RowWriter, stats *RoleStats) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	streams := make(chan *fileStream, p.workers)
	var g errgroup.Group
	g.SetLimit(p.workers)

	go func() {
		defer close(streams)
		for _, ref := range files {
			fs := &fileStream{
				ref:     ref,
				batches: make(chan []storet.Result, streamDepth),
				stats:   newRoleStats(),
			}
			select {
			case streams <- fs:
			case <-ctx.Done():
				return
			}
			g.Go(func() error {
				p.produce(ctx, fs)
				return nil
			})
		}
	}()

	prog := newProgress(p.progress, p.every, p.clock)
	var werr error
	for fs := range streams {
		for batch := range fs.batches {
			if werr != nil {
				continue
			}
			for _, r := range batch {
				if err := sink.Write(r.Row()); err != nil {
					werr = err
					cancel(err)
					break
				}
				stats.Written++
				prog.tick(stats.Written)
			}
		}
		stats.merge(fs.stats)
		if fs.err != nil && werr == nil {
			werr = fs.err
			cancel(fs.err)
		}
	}
	g.Wait()

	if werr != nil {
		return werr
	}
	fmt.Fprintf(p.progress, "  %s results written from %d result files\n", humanize.Comma(int64(stats.Written)), len(files))
	return nil
}

// produce decodes one result file into batches. An unopenable file is a
// warning; a read error or cancellation is recorded in fs.err.
func (p *Pipeline) produce(ctx context.Context, fs *fileStream) {
	defer close(fs.batches)

	f, err := os.Open(fs.ref.Path)
	if err != nil {
		p.warnUnreadable(fs.ref, err)
		fs.stats.Unreadable++
		return
	}
	defer f.Close()

	batch := make([]storet.Result, 0, resultBatchSize)
	send := func() error {
		if len(batch) == 0 {
			return nil
		}
		select {
		case fs.batches <- batch:
			batch = make([]storet.Result, 0, resultBatchSize)
			return nil
		case <-ctx.Done():
			return interrupted(ctx)
		}
	}

	err = p.eachLine(ctx, f, fs.ref, &fs.stats, func(h storet.Header) lineFunc {
		dec := storet.NewResultDecoder(h)
		return func(line string) error {
			d := dec.Decode(line)
			if !d.OK() {
				fs.stats.skip(d.Skip)
				return nil
			}
			batch = append(batch, d.Record)
			if len(batch) == resultBatchSize {
				return send()
			}
			return nil
		}
	})
	if err == nil {
		err = send()
	}
	fs.err = err
}

// progress prints a line every n written rows.
type progress struct {
	w     io.Writer
	every int
	clock clockwork.Clock
	start time.Time
}

func newProgress(w io.Writer, every int, clock clockwork.Clock) *progress {
	return &progress{w: w, every: every, clock: clock, start: clock.Now()}
}

func (pr *progress) tick(written int) {
	if pr.every <= 0 || written%pr.every != 0 {
		return
	}
	rate := ""
	if elapsed := pr.clock.Since(pr.start); elapsed > 0 {
		rate = fmt.Sprintf(" (%s rows/s)", humanize.Comma(int64(float64(written)/elapsed.Seconds())))
	}
	fmt.Fprintf(pr.w, "  Processed %s results%s...\n", humanize.Comma(int64(written)), rate)
}
