// Package orchestrator wires every leaf package — frontier, rate limiter,
// robots gate, classifier, downloader, journal, worker pools — into one
// running crawl. Nothing in this package does HTTP, HTML parsing, or PDF
// validation itself; it only decides which piece to call next and in
// what order, so the leaf packages stay testable in isolation.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rohmanhakim/pdfcrawler/internal/classifier"
	"github.com/rohmanhakim/pdfcrawler/internal/config"
	"github.com/rohmanhakim/pdfcrawler/internal/downloader"
	"github.com/rohmanhakim/pdfcrawler/internal/fetcher"
	"github.com/rohmanhakim/pdfcrawler/internal/frontier"
	"github.com/rohmanhakim/pdfcrawler/internal/httpclient"
	"github.com/rohmanhakim/pdfcrawler/internal/journal"
	"github.com/rohmanhakim/pdfcrawler/internal/linkextract"
	"github.com/rohmanhakim/pdfcrawler/internal/ratelimit"
	"github.com/rohmanhakim/pdfcrawler/internal/robots"
	"github.com/rohmanhakim/pdfcrawler/internal/telemetry"
	"github.com/rohmanhakim/pdfcrawler/internal/workerpool"
)

// Summary is what Run returns once the crawl has stopped, independent of
// the on-disk report. Run fills Downloaded, Failed and ReportPath;
// PagesCrawled and VerifiedPDFs are left at zero, and those counts are
// only in the journal's JSON.
type Summary struct {
	PagesCrawled int64
	Downloaded   int64
	Failed       int64
	VerifiedPDFs int
	ReportPath   string
}

// Orchestrator holds every wired component for a single crawl run. Build
// one with New and call Run exactly once.
type Orchestrator struct {
	cfg config.Config

	client     *http.Client
	frontier   *frontier.Frontier
	rates      *ratelimit.Registry
	robotsGate *robots.Gate
	anchors    *linkextract.AnchorCache
	classifier *classifier.Classifier
	fetcher    *fetcher.Fetcher
	downloader *downloader.Downloader
	journal    *journal.Journal
	logger     *telemetry.Logger
	metrics    *telemetry.Metrics
	counters   *workerpool.Counters
	sockets    *workerpool.Semaphore

	crawlPool  *workerpool.CrawlPool
	downloads  *workerpool.DownloadDispatcher
}

// New builds every component named in cfg but starts nothing; call Run
// to actually crawl.
func New(cfg config.Config) (*Orchestrator, error) {
	startURL := cfg.StartURL()
	if startURL.Host == "" {
		return nil, fmt.Errorf("orchestrator: config has no start URL")
	}

	client := httpclient.New(httpclient.Options{
		UserAgent:      cfg.UserAgent(),
		RequestTimeout: cfg.RequestTimeout(),
		ConnectTimeout: cfg.ConnectTimeout(),
		MaxIdlePerHost: cfg.ConnectionPool(),
		MaxRedirects:   cfg.MaxRedirects(),
	})

	logger := telemetry.New(cfg.LogLevel())
	metrics := telemetry.NewMetrics()

	j, err := journal.New(cfg.OutputPath(), startURL.String(), cfg.MaxDepth(), cfg.VerifyPDFs())
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	anchors := linkextract.NewAnchorCache(cfg.CacheCapacity())

	o := &Orchestrator{
		cfg:        cfg,
		client:     client,
		frontier:   frontier.New(),
		rates:      ratelimit.New(cfg.HostRateLimit(), cfg.RateLimitBurst()),
		robotsGate: robots.New(client, cfg.UserAgent(), cfg.RespectRobots()),
		anchors:    anchors,
		classifier: classifier.New(client, cfg.UserAgent(), anchors, classifier.Options{
			CacheCapacity:          cfg.CacheCapacity(),
			PositiveTTL:            cfg.CacheTTL(),
			NegativeTTL:            cfg.NegativeCacheTTL(),
			ProbeTimeout:           cfg.ProbeTimeout(),
			NetworkProbesDisabled:  !cfg.VerifyPDFs(),
		}),
		fetcher: fetcher.New(client, cfg.UserAgent(), 0),
		downloader: downloader.New(client, cfg.UserAgent(), cfg.DownloadDir(), downloader.Options{
			MaxTotalBytes: cfg.MaxDownloadBytes(),
			Resume:        cfg.Resume(),
			Timeout:       cfg.DownloadTimeout(),
		}),
		journal:  j,
		logger:   logger,
		metrics:  metrics,
		counters: &workerpool.Counters{},
		sockets:  workerpool.NewSemaphore(cfg.GlobalSocketLimit()),
	}

	o.downloads = workerpool.NewDownloadDispatcher(cfg.ConcurrentDownloads()*4, cfg.ConcurrentDownloads(), o.processDownload)
	o.crawlPool = workerpool.New(o.frontier, o.counters, o.processPage, workerpool.Options{
		InitialWorkers: cfg.InitialWorkers(),
		MinWorkers:     cfg.MinWorkers(),
		MaxWorkers:     cfg.MaxWorkers(),
		ErrorThreshold: cfg.ErrorThreshold(),
		MaxRetries:     cfg.MaxRetries(),
		ScaleInterval:  cfg.ScaleInterval(),
		IdleWindow:     cfg.IdleWindow(),
		HardCapWindow:  cfg.HardCapWindow(),
	})

	return o, nil
}

// Run seeds the frontier with the configured start URL and drives the
// crawl to completion: natural exhaustion (frontier empty, idle window
// elapsed), the hard cap, or the outer deadline, whichever comes first.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	startURL := o.cfg.StartURL()

	seed, err := frontier.NewTask(&startURL, 0)
	if err != nil {
		o.journal.Failed()
		o.journal.Finish()
		return Summary{}, fmt.Errorf("orchestrator: seeding start URL: %w", err)
	}

	if o.cfg.MetricsAddr() != "" {
		go func() {
			if err := o.metrics.Serve(o.cfg.MetricsAddr()); err != nil {
				o.logger.WithStage("metrics").WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if d := o.cfg.OuterDeadline(); d > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	o.frontier.Push(seed)
	o.counters.IncQueued()
	o.journal.Started()
	o.logger.WithURL(startURL.String()).Info("crawl started")

	downloadsDone := make(chan struct{})
	go func() {
		o.downloads.Run(runCtx)
		close(downloadsDone)
	}()

	o.crawlPool.Run(runCtx)

	// Every crawl worker has exited (idle window, hard cap, or outer
	// deadline): no more pages will be enqueued, so no more PDFs will be
	// discovered. Closing the channel lets the dispatcher drain whatever
	// is already queued and then return.
	o.downloads.Close()
	<-downloadsDone

	if runCtx.Err() != nil && ctx.Err() == nil {
		// outer deadline fired, not an external cancellation
		o.logger.Warn("outer deadline reached; crawl stopped early")
	}

	_ = o.metrics.Shutdown(context.Background())

	snap := o.counters.Snapshot()
	o.journal.Finish()

	summary := Summary{
		PagesCrawled: 0, // tracked by the journal's own page counter, not duplicated here
		Downloaded:   snap.Downloaded,
		Failed:       snap.Failed,
		ReportPath:   o.cfg.OutputPath(),
	}
	o.logger.WithStage("summary").Infof("crawl finished: downloaded=%d failed=%d", summary.Downloaded, summary.Failed)
	return summary, nil
}

// sameHost reports whether a and b share a hostname, ignoring port and
// scheme — used to decide whether a discovered link is a same-site
// traversal candidate or only ever a classification candidate (P3).
func sameHost(a, b *url.URL) bool {
	return a != nil && b != nil && a.Hostname() == b.Hostname()
}
