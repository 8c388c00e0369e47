package runner

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"loadprobe/internal/results"
	"loadprobe/internal/stats"
)

// Runner drives the warmup and measured phases in fixed-size batches.
// Batch k+1 never starts before every request of batch k has settled, so
// no more than Cfg.Concurrency requests are ever in flight.
type Runner struct {
	Cfg    Config
	RunID  string
	Client *http.Client
	Live   *stats.Live

	// Event Channel
	Updates ProgressChan

	observers []Observer

	inflight     int64
	peakInflight int64

	mu          sync.Mutex
	store       *results.Store
	interrupted bool
	running     bool
	started     time.Time
	elapsed     time.Duration
}

// NewRunner validates cfg and builds the HTTP client. The error is a setup
// fault: nothing has been dispatched yet.
func NewRunner(cfg Config, updates ProgressChan, observers ...Observer) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRunAborted, err)
	}

	if updates == nil {
		// Avoid nil panics if not provided
		updates = make(ProgressChan, 10)
	}

	return &Runner{
		Cfg:       cfg,
		RunID:     uuid.New().String(),
		Client:    client,
		Live:      stats.NewLive(),
		Updates:   updates,
		observers: observers,
		store:     results.NewStore(0),
	}, nil
}

// Warmup sends one discarded batch of Cfg.Concurrency requests, then waits
// Cfg.WarmupPause. The pause ends early if ctx is cancelled; the batch
// itself always runs to completion.
func (r *Runner) Warmup(ctx context.Context) (err error) {
	defer r.recoverFault(&err)

	exec := r.executor()
	size := r.Cfg.Concurrency
	r.runBatch(ctx, exec, 0, size, func(results.Outcome) {})
	r.sendUpdate(Progress{Phase: PhaseWarmup, Dispatched: size, Total: size, Batch: size})

	if r.Cfg.WarmupPause <= 0 {
		return nil
	}
	timer := time.NewTimer(r.Cfg.WarmupPause)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return nil
}

// Run executes the measured phase and returns every outcome collected. A
// non-nil error means the run was aborted by a fault outside a request;
// the returned set then holds whatever completed before the fault.
// Cancelling ctx stops the run at the next batch boundary.
func (r *Runner) Run(ctx context.Context) (set results.Set, err error) {
	store := results.NewStore(r.Cfg.Total)
	r.mu.Lock()
	r.store = store
	r.interrupted = false
	r.running = true
	r.started = time.Now()
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.elapsed = time.Since(r.started)
		r.mu.Unlock()
		set = store.Snapshot()
	}()
	defer r.recoverFault(&err)

	exec := r.executor()
	total := r.Cfg.Total
	dispatched := 0

	for dispatched < total {
		if ctx.Err() != nil {
			r.mu.Lock()
			r.interrupted = true
			r.mu.Unlock()
			break
		}

		batch := min(r.Cfg.Concurrency, total-dispatched)
		batchStart := time.Now()
		r.runBatch(ctx, exec, dispatched, batch, func(o results.Outcome) {
			store.Append(o)
			r.observe(o)
		})
		r.observeBatch(batch, time.Since(batchStart))

		dispatched += batch
		r.sendUpdate(r.snapshot(dispatched, batch))
	}

	return store.Snapshot(), nil
}

// runBatch dispatches size concurrent requests with ids start..start+size-1
// and blocks until all of them have settled. A panic in any of them is
// re-raised here after the whole batch has finished.
func (r *Runner) runBatch(ctx context.Context, exec *Executor, start, size int, record func(results.Outcome)) {
	p := pool.New().WithMaxGoroutines(size)
	for i := 0; i < size; i++ {
		id := start + i
		p.Go(func() {
			r.enter()
			defer r.leave()
			record(exec.Execute(ctx, id))
		})
	}
	p.Wait()
}

func (r *Runner) executor() *Executor {
	return &Executor{
		Client:  r.Client,
		URL:     r.Cfg.URL,
		Timeout: r.Cfg.Timeout(),
	}
}

func (r *Runner) observe(o results.Outcome) {
	r.Live.Observe(o)
	for _, obs := range r.observers {
		obs.Observe(o)
	}
}

func (r *Runner) observeBatch(size int, elapsed time.Duration) {
	for _, obs := range r.observers {
		if bo, ok := obs.(BatchObserver); ok {
			bo.ObserveBatch(size, elapsed)
		}
	}
}

func (r *Runner) enter() {
	n := atomic.AddInt64(&r.inflight, 1)
	for {
		peak := atomic.LoadInt64(&r.peakInflight)
		if n <= peak || atomic.CompareAndSwapInt64(&r.peakInflight, peak, n) {
			return
		}
	}
}

func (r *Runner) leave() {
	atomic.AddInt64(&r.inflight, -1)
}

func (r *Runner) recoverFault(err *error) {
	if rec := recover(); rec != nil {
		*err = fmt.Errorf("%w: %v", ErrRunAborted, rec)
	}
}

func (r *Runner) snapshot(dispatched, batch int) Progress {
	return Progress{
		Phase:      PhaseMeasured,
		Dispatched: dispatched,
		Total:      r.Cfg.Total,
		Batch:      batch,
		Success:    atomic.LoadUint64(&r.Live.Success),
		Fail:       atomic.LoadUint64(&r.Live.Fail),
		Inflight:   atomic.LoadInt64(&r.inflight),
		ErrorRate:  r.Live.ErrorRate(),
		Errors:     r.Live.GetErrorCounts(),
		MeanMs:     r.Live.ResponseTime.MeanMs(),
		P50Ms:      r.Live.GetP50(),
		P95Ms:      r.Live.GetP95(),
		P99Ms:      r.Live.GetP99(),
		MaxMs:      r.Live.ResponseTime.MaxMs(),
	}
}

func (r *Runner) sendUpdate(p Progress) {
	// Non-blocking send
	select {
	case r.Updates <- p:
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

// Results returns what the current (or last) measured phase has collected.
func (r *Runner) Results() results.Set {
	r.mu.Lock()
	store := r.store
	r.mu.Unlock()
	return store.Snapshot()
}

// Interrupted reports whether the last Run stopped before dispatching
// every request.
func (r *Runner) Interrupted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interrupted
}

// Elapsed is the wall time of the last measured phase, or of the current
// one so far while Run is still going.
func (r *Runner) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return time.Since(r.started)
	}
	return r.elapsed
}

func (r *Runner) GetInflight() int64 {
	return atomic.LoadInt64(&r.inflight)
}

// PeakInflight is the highest number of simultaneous requests seen.
func (r *Runner) PeakInflight() int64 {
	return atomic.LoadInt64(&r.peakInflight)
}

// Summary computes the final statistics over the last measured phase.
func (r *Runner) Summary() stats.Summary {
	s := stats.Compute(r.Results()).WithElapsed(r.Elapsed())
	s.RunID = r.RunID
	s.Interrupted = r.Interrupted()
	return s
}

// AddObserver registers obs for measured-phase outcomes. Call before Run.
func (r *Runner) AddObserver(obs Observer) {
	r.observers = append(r.observers, obs)
}
