package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrNotJSONFile is returned by RunFile for paths without a .json extension.
var ErrNotJSONFile = errors.New("input must be a .json file")

// BatchOptions configures Run.
type BatchOptions struct {
	Workers   int
	BatchSize int // progress is logged every BatchSize documents
	Logger    *slog.Logger
	Counters  Counters
	Errors    ErrorSink
}

// Summary is the final tally of a run.
type Summary struct {
	Read            int
	Processed       int
	Inserted        int
	Errored         int
	Rejections      int
	PersistFailures int
	Elapsed         time.Duration
	Interrupted     bool
}

func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("read", s.Read),
		slog.Int("processed", s.Processed),
		slog.Int("inserted", s.Inserted),
		slog.Int("errored", s.Errored),
		slog.Int("rejections", s.Rejections),
		slog.Int("persist_failures", s.PersistFailures),
		slog.Duration("elapsed", s.Elapsed),
		slog.Bool("interrupted", s.Interrupted),
	)
}

type job struct {
	n   int
	raw json.RawMessage
}

type tally struct {
	done, processed, inserted, errored, rejections, failed atomic.Int64
}

// RunFile opens path and calls Run on it.
func RunFile(ctx context.Context, path string, p *Processor, opts BatchOptions) (Summary, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return Summary{}, fmt.Errorf("%w: %s", ErrNotJSONFile, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()
	return Run(ctx, f, p, opts)
}

// Run streams the JSON array in r one item at a time into a worker pool.
// Cancelling ctx stops reading; documents already queued are finished on a
// context that is not cancelled. The summary is marked interrupted only if
// items were left unread. A malformed array stops reading and is returned
// after the queue drains.
func Run(ctx context.Context, r io.Reader, p *Processor, opts BatchOptions) (Summary, error) {
	start := time.Now()
	workers := max(opts.Workers, 1)
	batch := max(opts.BatchSize, 1)
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	counters := opts.Counters
	if counters == nil {
		counters = nopCounters{}
	}

	queue := make(chan job, 2*workers)
	work := context.WithoutCancel(ctx)
	var t tally
	var read int
	var interrupted bool

	var g errgroup.Group
	g.Go(func() error {
		defer close(queue)
		var err error
		read, interrupted, err = stream(ctx, r, queue)
		return err
	})
	for range workers {
		g.Go(func() error {
			for j := range queue {
				out := p.Process(work, j.raw)
				if done := account(work, j.n, out, &t, counters, opts.Errors, log); done%int64(batch) == 0 {
					log.Info("ingest: progress", "documents", done, "processed", t.processed.Load(), "inserted", t.inserted.Load())
				}
			}
			return nil
		})
	}
	err := g.Wait()

	s := Summary{
		Read:            read,
		Processed:       int(t.processed.Load()),
		Inserted:        int(t.inserted.Load()),
		Errored:         int(t.errored.Load()),
		Rejections:      int(t.rejections.Load()),
		PersistFailures: int(t.failed.Load()),
		Elapsed:         time.Since(start),
		Interrupted:     interrupted,
	}
	log.Info("ingest: done", "summary", s)
	return s, err
}

// stream sends each array item to queue, numbering them from 1. It returns
// the number of items sent and whether ctx stopped it before the end of the
// array.
func stream(ctx context.Context, r io.Reader, queue chan<- job) (n int, interrupted bool, err error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return 0, false, fmt.Errorf("read input: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return 0, false, fmt.Errorf("read input: expected a JSON array, got %v", tok)
	}

	for dec.More() {
		if ctx.Err() != nil {
			return n, true, nil
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return n, false, fmt.Errorf("read document %d: %w", n+1, err)
		}
		select {
		case queue <- job{n: n + 1, raw: raw}:
			n++
		case <-ctx.Done():
			return n, true, nil
		}
	}
	if _, err := dec.Token(); err != nil {
		return n, false, fmt.Errorf("read input: %w", err)
	}
	return n, false, nil
}

// account records one outcome and returns how many documents are done.
func account(ctx context.Context, n int, out Outcome, t *tally, c Counters, sink ErrorSink, log *slog.Logger) int64 {
	t.rejections.Add(int64(len(out.Rejections)))
	c.RecordsRejected(len(out.Rejections))
	c.DocumentDuration(out.Duration)

	if out.State == StateRejected {
		t.errored.Add(1)
		c.DocumentErrored()
		log.Warn("ingest: document skipped", "document", n, "document_id", out.DocumentID, "error", out.Err)
		if sink != nil {
			if err := sink.Emit(ctx, newDocumentError(n, out)); err != nil {
				log.Error("ingest: error sink", "document", n, "error", err)
			}
		}
		return t.done.Add(1)
	}

	t.processed.Add(1)
	t.inserted.Add(int64(out.Inserted))
	t.failed.Add(int64(out.PersistFailures))
	c.DocumentProcessed()
	c.RecordsInserted(out.Inserted)
	c.PersistFailed(out.PersistFailures)
	return t.done.Add(1)
}
