// Package ingest turns raw travel-order documents into graph writes. A
// Processor runs one document through decode, entity extraction, relationship
// extraction and persistence; Run drives a stream of documents through a
// worker pool.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/daytrip-loader/engine/domain"
	"github.com/WessleyAI/daytrip-loader/engine/extract"
	"github.com/WessleyAI/daytrip-loader/engine/graph"
	"github.com/WessleyAI/daytrip-loader/pkg/fn"
	"github.com/WessleyAI/daytrip-loader/pkg/resilience"
	"golang.org/x/time/rate"
)

// State is where a document is in the pipeline.
type State string

const (
	StatePending            State = "pending"
	StateEntitiesExtracted  State = "entities_extracted"
	StateRelationsExtracted State = "relations_extracted"
	StatePersisted          State = "persisted"
	StateRejected           State = "rejected"
)

// Stage names, also used as span names.
const (
	StageDecode    = "decode"
	StageEntities  = "entities"
	StageRelations = "relations"
	StagePersist   = "persist"
)

// StageError is an extractor-level failure: the document is skipped and no
// writes are issued for it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Outcome reports what happened to one document.
type Outcome struct {
	DocumentID      string
	State           State
	Err             error // *StageError when State is StateRejected
	Rejections      []domain.Rejection
	Vertices        int
	Edges           int
	Inserted        int
	PersistFailures int
	Duration        time.Duration
}

// extraction carries a document between stages.
type extraction struct {
	doc       *domain.Document
	entities  extract.Entities
	index     *extract.Index
	relations extract.Relations
	state     State
}

// Options configures a Processor. Zero values pick the defaults.
type Options struct {
	Logger    *slog.Logger
	Retry     *fn.RetryOpts
	Breaker   *resilience.BreakerOpts
	WriteRate float64 // upserts per second, 0 for unlimited
}

// Processor runs single documents through the pipeline. It is safe for
// concurrent use.
type Processor struct {
	store    graph.Store
	log      *slog.Logger
	retry    fn.RetryOpts
	breaker  *resilience.Breaker
	limiter  *rate.Limiter
	pipeline fn.Stage[[]byte, extraction]
	persist  fn.Stage[extraction, writes]
}

// NewProcessor builds a Processor writing to store.
func NewProcessor(store graph.Store, opts Options) *Processor {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	retry := fn.DefaultRetry
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	retry.Retryable = transient
	retry.OnRetry = func(attempt int, err error) {
		log.Warn("ingest: write retry", "attempt", attempt, "error", err)
	}

	bo := resilience.DefaultBreakerOpts
	if opts.Breaker != nil {
		bo = *opts.Breaker
	}
	bo.IsFailure = transient
	bo.OnStateChange = func(from, to resilience.State) {
		log.Warn("ingest: store breaker", "from", from.String(), "to", to.String())
	}

	p := &Processor{
		store:   store,
		log:     log,
		retry:   retry,
		breaker: resilience.NewBreaker(bo),
	}
	if opts.WriteRate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.WriteRate), max(1, int(opts.WriteRate)))
	}

	p.pipeline = fn.Then(
		stage(StageDecode, decode),
		fn.Then(stage(StageEntities, extractEntities), stage(StageRelations, extractRelations)),
	)
	p.persist = stage[extraction, writes](StagePersist, p.write)
	return p
}

// stage adds tracing, a panic boundary and the stage name to errors.
func stage[In, Out any](name string, s fn.Stage[In, Out]) fn.Stage[In, Out] {
	guarded := fn.TracedStage(name, fn.Guard(s))
	return func(ctx context.Context, in In) fn.Result[Out] {
		r := guarded(ctx, in)
		if r.IsErr() {
			return fn.Err[Out](&StageError{Stage: name, Err: r.Error()})
		}
		return r
	}
}

var decode fn.Stage[[]byte, extraction] = func(_ context.Context, raw []byte) fn.Result[extraction] {
	doc, err := domain.DecodeDocument(raw)
	if err != nil {
		return fn.Err[extraction](err)
	}
	return fn.Ok(extraction{doc: doc, state: StatePending})
}

var extractEntities fn.Stage[extraction, extraction] = func(_ context.Context, x extraction) fn.Result[extraction] {
	x.entities = extract.ExtractEntities(x.doc)
	x.index = extract.NewIndex(x.entities)
	x.state = StateEntitiesExtracted
	return fn.Ok(x)
}

var extractRelations fn.Stage[extraction, extraction] = func(_ context.Context, x extraction) fn.Result[extraction] {
	x.relations = extract.ExtractRelations(x.doc, x.index)
	x.state = StateRelationsExtracted
	return fn.Ok(x)
}

// Process runs raw through every stage. Field rejections and per-record write
// failures are reported in the Outcome; only decode errors and extractor
// panics reject the whole document.
func (p *Processor) Process(ctx context.Context, raw []byte) Outcome {
	start := time.Now()
	x, err := p.pipeline(ctx, raw).Unwrap()
	if err != nil {
		p.log.Error("ingest: document rejected", "error", err)
		return Outcome{State: StateRejected, Err: err, Duration: time.Since(start)}
	}

	out := Outcome{
		DocumentID: x.doc.ID.String(),
		Rejections: append(x.entities.Rejections(), x.relations.Rejections()...),
	}
	p.log.Debug("ingest: extracted", "document_id", out.DocumentID, "state", x.state, "rejections", len(out.Rejections))
	for _, r := range out.Rejections {
		p.log.Warn("ingest: record rejected", "document_id", out.DocumentID, "kind", r.Kind, "key", r.Key, "ref", r.Ref, "reason", r.Reason(), "detail", r.Detail)
	}

	persisted := p.persist(ctx, x)
	if persisted.IsErr() {
		// only a panic in the store gets here; writes may have happened
		out.State, out.Err = StateRejected, persisted.Error()
		p.log.Error("ingest: persist aborted", "document_id", out.DocumentID, "error", out.Err)
	} else {
		w := persisted.UnwrapOr(writes{})
		out.State = StatePersisted
		out.Vertices, out.Edges = w.vertices, w.edges
		out.Inserted, out.PersistFailures = w.inserted, w.failed
	}
	out.Duration = time.Since(start)
	return out
}

type writes struct {
	vertices, edges, inserted, failed int
}

// write persists vertices before the edges that reference them. A failed
// write is logged and counted; the next record is still attempted.
func (p *Processor) write(ctx context.Context, x extraction) fn.Result[writes] {
	var w writes
	record := func(kind domain.Collection, key string, err error) {
		if err != nil {
			w.failed++
			p.log.Error("ingest: write failed", "document_id", x.doc.ID.String(), "collection", kind, "key", key, "error", err)
			return
		}
		w.inserted++
	}

	for _, v := range x.entities.Vertices() {
		w.vertices++
		_, err := p.upsert(ctx, func(ctx context.Context) (string, error) { return p.store.UpsertVertex(ctx, v) })
		record(v.Collection(), v.Key(), wrapWrite(v.Collection(), v.Key(), err))
	}
	for _, e := range x.relations.Edges() {
		w.edges++
		_, err := p.upsert(ctx, func(ctx context.Context) (string, error) { return p.store.UpsertEdge(ctx, e) })
		record(e.Kind, e.From+"->"+e.To, wrapWrite(e.Kind, e.From+"->"+e.To, err))
	}
	return fn.Ok(w)
}

func wrapWrite(kind domain.Collection, key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("upsert %s %s: %w", kind, key, err)
}

// upsert paces, retries and breaker-guards one store call.
func (p *Processor) upsert(ctx context.Context, f func(context.Context) (string, error)) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return fn.Retry(ctx, p.retry, func(ctx context.Context) fn.Result[string] {
		return resilience.CallResult(p.breaker, ctx, func(ctx context.Context) fn.Result[string] {
			return fn.FromPair(f(ctx))
		})
	}).Unwrap()
}

// transient reports whether a store error may succeed on another attempt.
// Data errors and an open breaker are final.
func transient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, graph.ErrEndpointMissing),
		errors.Is(err, graph.ErrInvalidFilter),
		errors.Is(err, domain.ErrUnknownCollection),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
