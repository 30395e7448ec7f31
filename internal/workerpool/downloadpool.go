package workerpool

import (
	"context"
	"net/url"
	"sync"
)

// DownloadJob is one classified-PDF link waiting to be downloaded,
// carrying enough context (source page, depth, anchor text) for the
// journal to record a full PDFRecord without the downloader needing to
// know about the journal's schema.
type DownloadJob struct {
	URL        *url.URL
	SourcePage string
	Depth      int
	AnchorText string
}

// DownloadProcessor performs one download. It owns its own validation/
// commit logic (internal/downloader) and reports results by
// whatever side-channel the orchestrator wires it to (the journal); the
// dispatcher only cares about running it with bounded concurrency.
type DownloadProcessor func(ctx context.Context, job DownloadJob)

// DownloadDispatcher fans jobs out across ConcurrentDownloads goroutines
// at a time — grounded on the same "one queue, N workers with a fixed
// concurrency cap" shape the crawl side's multi-interface download
// manager uses, collapsed here to a single shared channel since this
// crawler has one network path to share, not several NICs to round-robin
// across.
type DownloadDispatcher struct {
	jobs    chan DownloadJob
	process DownloadProcessor
	sem     chan struct{}
	wg      sync.WaitGroup
}

// NewDownloadDispatcher builds a dispatcher with a channel buffered to
// bufferSize and at most concurrency downloads running at once.
func NewDownloadDispatcher(bufferSize, concurrency int, process DownloadProcessor) *DownloadDispatcher {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &DownloadDispatcher{
		jobs:    make(chan DownloadJob, bufferSize),
		process: process,
		sem:     make(chan struct{}, concurrency),
	}
}

// Enqueue submits job, blocking if the buffer is full, until ctx is
// canceled or the dispatcher has been closed (in which case it panics,
// same as sending on any closed channel — callers must stop enqueueing
// before calling Close).
func (d *DownloadDispatcher) Enqueue(ctx context.Context, job DownloadJob) bool {
	select {
	case d.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run drains jobs until the channel is closed, running process for each
// one with at most `concurrency` in flight. Blocks until the channel is
// closed (or ctx is canceled) and every in-flight job has returned.
func (d *DownloadDispatcher) Run(ctx context.Context) {
	for job := range d.jobs {
		job := job
		select {
		case d.sem <- struct{}{}:
		case <-ctx.Done():
			d.wg.Wait()
			return
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer func() { <-d.sem }()
			d.process(ctx, job)
		}()
	}
	d.wg.Wait()
}

// Close stops accepting new jobs. The crawl side calls this once every
// crawl worker has exited, per spec.md §4.8's shutdown sequencing ("the
// download channel is closed when crawl workers exit").
func (d *DownloadDispatcher) Close() {
	close(d.jobs)
}
