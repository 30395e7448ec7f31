// Package workerpool is the adaptive concurrency engine: a crawl-side
// worker pool that grows and shrinks with the observed error rate, a
// global socket semaphore shared by every network call, and a
// bounded-concurrency download dispatcher fed by the classifier.
//
// None of the three pieces know anything about HTTP, HTML, or PDFs — they
// take a Processor callback and move Tasks/DownloadJobs through it. The
// orchestrator supplies the callback; this package supplies the
// concurrency shape.
package workerpool

import "sync/atomic"

// Counters are the four monotonic counters spec.md's data model calls
// "packed": downloaded, failed, queued, cache_hits, read independently
// and cheaply (plain atomic loads/stores, Relaxed ordering — no lock, and
// no attempt to keep all four consistent with one another at an instant).
type Counters struct {
	downloaded atomic.Int64
	failed     atomic.Int64
	queued     atomic.Int64
	cacheHits  atomic.Int64
	_          [4]int64 // pad to a cache line so the four counters above,
	// which workers update on every task, don't false-share with
	// activeWorkers, which only the scaling loop writes.
	activeWorkers atomic.Int32
}

// Snapshot is a point-in-time, non-atomic-as-a-whole read of all counters,
// suitable for display or for the journal's periodic metadata update.
type Snapshot struct {
	Downloaded    int64
	Failed        int64
	Queued        int64
	CacheHits     int64
	ActiveWorkers int32
}

func (c *Counters) IncDownloaded()      { c.downloaded.Add(1) }
func (c *Counters) IncFailed()          { c.failed.Add(1) }
func (c *Counters) IncQueued()          { c.queued.Add(1) }
func (c *Counters) DecQueued()          { c.queued.Add(-1) }
func (c *Counters) IncCacheHits()       { c.cacheHits.Add(1) }
func (c *Counters) setActiveWorkers(n int32) { c.activeWorkers.Store(n) }

// Snapshot reads all four counters plus the current worker gauge. The
// four reads are independent; a caller comparing two fields from the same
// Snapshot may observe a combination that never existed as a single
// instant in the crawl — acceptable per spec.md §3 ("need not be
// transactionally consistent across the four").
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Downloaded:    c.downloaded.Load(),
		Failed:        c.failed.Load(),
		Queued:        c.queued.Load(),
		CacheHits:     c.cacheHits.Load(),
		ActiveWorkers: c.activeWorkers.Load(),
	}
}
