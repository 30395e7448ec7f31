package orchestrator

import (
	"context"

	"github.com/rohmanhakim/pdfcrawler/internal/crawlerr"
	"github.com/rohmanhakim/pdfcrawler/internal/frontier"
	"github.com/rohmanhakim/pdfcrawler/internal/journal"
	"github.com/rohmanhakim/pdfcrawler/internal/linkextract"
	"github.com/rohmanhakim/pdfcrawler/internal/urlid"
	"github.com/rohmanhakim/pdfcrawler/internal/workerpool"
)

// processPage is the crawl pool's Processor: fetch the page, extract its
// links, classify each one, and either hand it to the download dispatcher
// (it's a PDF) or push it back onto the frontier (it's a same-host page
// within the depth bound) or drop it (cross-host, non-PDF — P3: only
// same-host links are traversed, but every link is still a classification
// candidate regardless of host).
func (o *Orchestrator) processPage(ctx context.Context, task frontier.Task) workerpool.Outcome {
	host := task.URL.Hostname()

	if !o.robotsGate.Allowed(ctx, task.URL.Scheme, host) {
		return workerpool.OutcomeDrop
	}

	if err := o.rates.Wait(ctx, host); err != nil {
		return workerpool.OutcomeDrop // ctx canceled; nothing to retry against
	}

	if err := o.sockets.Acquire(ctx); err != nil {
		return workerpool.OutcomeDrop
	}
	result, cerr := o.fetcher.Fetch(ctx, task.URL)
	o.sockets.Release()

	if cerr != nil {
		return o.handleFetchError(host, cerr)
	}
	o.rates.Recovered(host)

	o.journal.IncPages()
	o.metrics.PagesCrawled.Inc()

	links, err := linkextract.Extract(result.FinalURL, result.Body)
	if err != nil {
		// the page fetched fine; a parse error on its links doesn't mean
		// the page itself should be retried or counted as failed.
		return workerpool.OutcomeSuccess
	}

	for _, link := range links {
		o.handleLink(ctx, task, link)
	}

	return workerpool.OutcomeSuccess
}

func (o *Orchestrator) handleFetchError(host string, cerr *crawlerr.Error) workerpool.Outcome {
	if cerr.Kind == crawlerr.KindTransientNetwork {
		o.rates.Throttled(host)
		return workerpool.OutcomeRetry
	}
	return workerpool.OutcomeDrop
}

func (o *Orchestrator) handleLink(ctx context.Context, task frontier.Task, link linkextract.Link) {
	_, hash, err := urlid.Identity(link.URL)
	if err != nil {
		return
	}

	if link.AnchorText != "" {
		o.anchors.Put(hash, link.AnchorText)
	}

	isPDF, cerr := o.classifier.Classify(ctx, link, hash)
	if cerr != nil {
		return
	}

	if isPDF {
		job := workerpool.DownloadJob{
			URL:        link.URL,
			SourcePage: task.URL.String(),
			Depth:      task.Depth + 1,
			AnchorText: link.AnchorText,
		}
		o.downloads.Enqueue(ctx, job)
		return
	}

	if !sameHost(link.URL, task.URL) {
		return
	}
	if task.Depth+1 > o.cfg.MaxDepth() {
		return
	}

	child, err := frontier.NewTask(link.URL, task.Depth+1)
	if err != nil {
		return
	}
	if o.frontier.Push(child) {
		o.counters.IncQueued()
	}
}

// processDownload is the download dispatcher's Processor: download,
// validate, and record one classified PDF. Failures are counted but
// never retried here — the downloader's own streaming validation already
// ruled out anything recoverable by re-reading the same response.
func (o *Orchestrator) processDownload(ctx context.Context, job workerpool.DownloadJob) {
	host := job.URL.Hostname()

	if err := o.rates.Wait(ctx, host); err != nil {
		return
	}

	if err := o.sockets.Acquire(ctx); err != nil {
		return
	}
	rec, cerr := o.downloader.Download(ctx, job.URL)
	o.sockets.Release()

	if cerr != nil {
		o.counters.IncFailed()
		o.metrics.Failed.Inc()
		o.journal.AddFailedVerification()
		o.logger.WithURL(job.URL.String()).WithStage("download").Warn(cerr.Error())
		return
	}

	o.counters.IncDownloaded()
	o.metrics.Downloaded.Inc()

	o.journal.AddPDF(journal.PDFRecord{
		URL:           job.URL.String(),
		SourcePage:    job.SourcePage,
		Depth:         job.Depth,
		ContentType:   rec.ContentType,
		ContentLength: rec.SizeBytes,
		Verified:      true,
	})
}
