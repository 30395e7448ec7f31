package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rohmanhakim/pdfcrawler/internal/frontier"
)

// Outcome is what a Processor reports back for one Task, driving the
// pool's retry/drop/success bookkeeping.
type Outcome int

const (
	// OutcomeSuccess: the page was fetched, parsed, and its links handled.
	OutcomeSuccess Outcome = iota
	// OutcomeRetry: a transient failure; re-enqueue with RetryCount+1 if
	// under the retry budget, else drop and count as failed.
	OutcomeRetry
	// OutcomeDrop: a permanent failure (4xx, parse error); never retried.
	OutcomeDrop
)

// Processor does the actual work for one Task — fetch, classify links,
// push PDFs to the download dispatcher, push same-host links back onto
// the frontier. The pool only cares about the Outcome it reports.
type Processor func(ctx context.Context, task frontier.Task) Outcome

// Options configures the adaptive scaling rule and shutdown timers.
type Options struct {
	InitialWorkers int
	MinWorkers     int
	MaxWorkers     int
	ErrorThreshold int
	MaxRetries     int
	ScaleInterval  time.Duration
	IdleWindow     time.Duration
	HardCapWindow  time.Duration
}

func (o Options) withDefaults() Options {
	if o.InitialWorkers == 0 {
		o.InitialWorkers = 12
	}
	if o.MinWorkers == 0 {
		o.MinWorkers = 1
	}
	if o.MaxWorkers == 0 {
		o.MaxWorkers = o.InitialWorkers * 4
	}
	if o.ErrorThreshold == 0 {
		o.ErrorThreshold = 5
	}
	if o.ScaleInterval == 0 {
		o.ScaleInterval = 5 * time.Second
	}
	if o.IdleWindow == 0 {
		o.IdleWindow = 10 * time.Second
	}
	if o.HardCapWindow == 0 {
		o.HardCapWindow = 30 * time.Second
	}
	return o
}

// CrawlPool is the adaptive crawl-side worker pool (§4.8 of spec.md). It
// pre-spawns MaxWorkers goroutines but only lets the first `target` of
// them (by slot index) pull work at any moment — growing or shrinking
// `target` is therefore just an atomic store, with no goroutine
// start/stop churn on every scaling decision.
type CrawlPool struct {
	opts     Options
	frontier *frontier.Frontier
	counters *Counters
	process  Processor

	target     atomic.Int32
	errorCount atomic.Int32
	inFlight   atomic.Int32
	lastActive atomic.Int64

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	wg           sync.WaitGroup
}

// New builds a CrawlPool. Run must be called to start it.
func New(fr *frontier.Frontier, counters *Counters, process Processor, opts Options) *CrawlPool {
	opts = opts.withDefaults()
	p := &CrawlPool{
		opts:       opts,
		frontier:   fr,
		counters:   counters,
		process:    process,
		shutdownCh: make(chan struct{}),
	}
	p.target.Store(int32(opts.InitialWorkers))
	p.touch()
	return p
}

// Run blocks until the pool shuts down (idle timeout, hard cap, or ctx
// cancellation), spawning MaxWorkers worker goroutines plus one scaling
// loop.
func (p *CrawlPool) Run(ctx context.Context) {
	p.counters.setActiveWorkers(p.target.Load())

	for i := 0; i < p.opts.MaxWorkers; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx, int32(i))
	}

	p.wg.Add(1)
	go p.scaleLoop(ctx)

	p.wg.Wait()
}

// Done reports the shutdown channel, closed exactly once when the pool
// decides to stop (idle window, hard cap, or context cancellation).
func (p *CrawlPool) Done() <-chan struct{} {
	return p.shutdownCh
}

// Shutdown requests an orderly stop, idempotent and safe to call from any
// goroutine (e.g. the orchestrator's outer deadline).
func (p *CrawlPool) Shutdown() {
	p.shutdownOnce.Do(func() { close(p.shutdownCh) })
}

func (p *CrawlPool) workerLoop(ctx context.Context, slot int32) {
	defer p.wg.Done()

	const parkInterval = 20 * time.Millisecond
	for {
		select {
		case <-p.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		if slot >= p.target.Load() {
			time.Sleep(parkInterval)
			continue
		}

		task, ok := p.frontier.Pop()
		if !ok {
			time.Sleep(parkInterval)
			continue
		}

		p.counters.DecQueued()
		p.inFlight.Add(1)
		// Only a task seen for the first time counts as activity; a pool
		// cycling through retries alone still reaches the hard cap.
		fresh := task.RetryCount == 0
		if fresh {
			p.touch()
		}

		outcome := p.process(ctx, task)

		p.inFlight.Add(-1)
		if fresh {
			p.touch()
		}
		p.recordOutcome(task, outcome)
	}
}

func (p *CrawlPool) recordOutcome(task frontier.Task, outcome Outcome) {
	switch outcome {
	case OutcomeSuccess:
		p.recordSuccess()
	case OutcomeRetry:
		p.recordError()
		if task.RetryCount < p.opts.MaxRetries {
			p.counters.IncQueued()
			p.frontier.PushRetry(task.Retry())
		} else {
			p.counters.IncFailed()
		}
	case OutcomeDrop:
		p.recordError()
		p.counters.IncFailed()
	}
}

// recordSuccess decrements the error counter with a floor of zero, per
// spec.md §4.8 ("Each successful page decrements the error counter by
// one").
func (p *CrawlPool) recordSuccess() {
	for {
		old := p.errorCount.Load()
		if old <= 0 {
			return
		}
		if p.errorCount.CompareAndSwap(old, old-1) {
			return
		}
	}
}

func (p *CrawlPool) recordError() {
	p.errorCount.Add(1)
}

func (p *CrawlPool) scaleLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opts.ScaleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Shutdown()
			return
		case <-p.shutdownCh:
			return
		case <-ticker.C:
			cur := p.target.Load()
			next := int32(NextTarget(int(cur), p.opts.MinWorkers, p.opts.MaxWorkers,
				int(p.errorCount.Load()), p.opts.ErrorThreshold))
			p.target.Store(next)
			p.counters.setActiveWorkers(next)

			if p.shouldShutdown() {
				p.Shutdown()
				return
			}
		}
	}
}

func (p *CrawlPool) shouldShutdown() bool {
	idle := time.Since(p.lastActiveTime())
	if idle >= p.opts.HardCapWindow {
		return true
	}
	empty := p.frontier.Size() == 0 && p.inFlight.Load() == 0
	return empty && idle >= p.opts.IdleWindow
}

func (p *CrawlPool) touch() {
	p.lastActive.Store(time.Now().UnixNano())
}

func (p *CrawlPool) lastActiveTime() time.Time {
	return time.Unix(0, p.lastActive.Load())
}
