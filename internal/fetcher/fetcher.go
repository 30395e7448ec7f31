// Package fetcher performs the single GET used to retrieve a candidate
// HTML page during traversal, gating on content type and classifying
// non-2xx responses into retryable vs permanent failures.
//
// This is deliberately not the same code path the downloader uses: a page
// fetch always reads the whole body into memory (pages are small relative
// to PDFs) and rejects anything that isn't text/html before doing so.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/pdfcrawler/internal/crawlerr"
	"github.com/rohmanhakim/pdfcrawler/pkg/failure"
	"github.com/rohmanhakim/pdfcrawler/pkg/retry"
	"github.com/rohmanhakim/pdfcrawler/pkg/timeutil"
)

// Result is a successfully fetched HTML page.
type Result struct {
	URL         *url.URL
	FinalURL    *url.URL
	Body        []byte
	ContentType string
	StatusCode  int
}

// Fetcher issues page-fetch GET requests against the shared HTTP client.
type Fetcher struct {
	client     httpDoer
	userAgent  string
	maxBody    int64
	retryParam retry.RetryParam
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// New builds a Fetcher. maxBody caps how many bytes of an HTML page are
// read; 0 means unbounded. A single page fetch gets one quick,
// short-backoff retry of its own for a transient network error, on top
// of (not instead of) the frontier's own coarser re-enqueue retry — this
// one absorbs a single dropped connection without paying for a full
// round trip back through the crawl queue.
func New(client httpDoer, userAgent string, maxBody int64) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		maxBody:   maxBody,
		retryParam: retry.NewRetryParam(
			100*time.Millisecond,
			50*time.Millisecond,
			time.Now().UnixNano(),
			2,
			timeutil.NewBackoffParam(100*time.Millisecond, 2.0, time.Second),
		),
	}
}

// Fetch retrieves u and returns its body if it is an HTML document.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) (Result, *crawlerr.Error) {
	result := retry.Retry(f.retryParam, func() (Result, failure.ClassifiedError) {
		res, cerr := f.fetchOnce(ctx, u)
		if cerr != nil {
			return Result{}, cerr
		}
		return res, nil
	})

	if result.IsFailure() {
		var cerr *crawlerr.Error
		if errors.As(result.Err(), &cerr) {
			return Result{}, cerr
		}
		return Result{}, crawlerr.New(crawlerr.KindTransientNetwork, "fetcher.Fetch", result.Err())
	}
	return result.Value(), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, u *url.URL) (Result, *crawlerr.Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, crawlerr.New(crawlerr.KindPermanentHTTP, "fetcher.Fetch", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, crawlerr.New(crawlerr.KindShutdown, "fetcher.Fetch", ctx.Err())
		}
		return Result{}, crawlerr.New(crawlerr.KindTransientNetwork, "fetcher.Fetch", err)
	}
	defer resp.Body.Close()

	if cerr := classifyStatus(resp.StatusCode); cerr != nil {
		return Result{}, cerr
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContent(contentType) {
		return Result{}, crawlerr.New(crawlerr.KindParse, "fetcher.Fetch",
			fmt.Errorf("non-HTML content-type %q", contentType))
	}

	var reader io.Reader = resp.Body
	if f.maxBody > 0 {
		reader = io.LimitReader(resp.Body, f.maxBody)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return Result{}, crawlerr.New(crawlerr.KindTransientNetwork, "fetcher.Fetch", err)
	}

	finalURL := u
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	return Result{
		URL:         u,
		FinalURL:    finalURL,
		Body:        body,
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
	}, nil
}

func classifyStatus(status int) *crawlerr.Error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable,
		status == http.StatusBadGateway, status == http.StatusGatewayTimeout:
		return crawlerr.New(crawlerr.KindTransientNetwork, "fetcher.classifyStatus",
			fmt.Errorf("retryable HTTP status %d", status))
	case status >= 300 && status < 400:
		// net/http already follows redirects; reaching here means the
		// redirect chain was cut short by CheckRedirect.
		return crawlerr.New(crawlerr.KindPermanentHTTP, "fetcher.classifyStatus",
			fmt.Errorf("unresolved redirect, status %d", status))
	default:
		return crawlerr.New(crawlerr.KindPermanentHTTP, "fetcher.classifyStatus",
			fmt.Errorf("non-retryable HTTP status %d", status))
	}
}

func isHTMLContent(contentType string) bool {
	if contentType == "" {
		return true // be permissive; many misconfigured servers omit it
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
