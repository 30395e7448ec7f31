// Package downloader streams a classified PDF link to disk, validating it
// at three points — before the body is trusted, as it streams, and once
// more on the complete body before it is committed to disk — so a server returning an error
// page under a 200 status never ends up silently saved as a "PDF".
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/pdfcrawler/internal/crawlerr"
)

const (
	firstChunkSize        = 512
	defaultMaxTotalBytes  = 100 * 1024 * 1024 // 100MB cumulative ceiling
	defaultDownloadTimeout = 120 * time.Second
)

// Record is what the downloader reports back for one completed (or
// rejected) PDF, independent of the journal's on-disk schema.
type Record struct {
	URL         string
	Path        string
	SizeBytes   int64
	ContentType string
	Resumed     bool
}

// Options configures download behavior.
type Options struct {
	MaxTotalBytes int64
	Resume        bool
	Timeout       time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxTotalBytes == 0 {
		o.MaxTotalBytes = defaultMaxTotalBytes
	}
	if o.Timeout == 0 {
		o.Timeout = defaultDownloadTimeout
	}
	return o
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Downloader streams and validates one PDF at a time; callers fan it out
// across goroutines themselves (internal/workerpool).
type Downloader struct {
	client      httpDoer
	userAgent   string
	downloadDir string
	opts        Options
}

func New(client httpDoer, userAgent, downloadDir string, opts Options) *Downloader {
	return &Downloader{
		client:      client,
		userAgent:   userAgent,
		downloadDir: downloadDir,
		opts:        opts.withDefaults(),
	}
}

// Download fetches u, validates it as a PDF at every stage, and commits it
// atomically into the download directory. The returned error, if any, is
// crawlerr.KindDownloadValidation, crawlerr.KindTransientNetwork,
// crawlerr.KindPermanentHTTP (a non-2xx status), or crawlerr.KindIO (the
// write to disk).
func (d *Downloader) Download(ctx context.Context, u *url.URL) (Record, *crawlerr.Error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Record{}, crawlerr.New(crawlerr.KindDownloadValidation, "downloader.Download", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return Record{}, crawlerr.New(crawlerr.KindTransientNetwork, "downloader.Download", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Record{}, crawlerr.New(crawlerr.KindPermanentHTTP, "downloader.Download",
			fmt.Errorf("status %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return Record{}, crawlerr.New(crawlerr.KindDownloadValidation, "downloader.Download",
			fmt.Errorf("server returned HTML for %s", u.String()))
	}

	finalPath, cerr := d.resolveSafePath(resp, u)
	if cerr != nil {
		return Record{}, cerr
	}

	if d.opts.Resume && fileIsValidPDF(finalPath) {
		info, _ := os.Stat(finalPath)
		var size int64
		if info != nil {
			size = info.Size()
		}
		return Record{URL: u.String(), Path: finalPath, SizeBytes: size, ContentType: contentType, Resumed: true}, nil
	}

	declaredLength := int64(-1)
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			declaredLength = n
		}
	}

	data, cerr := d.streamAndValidate(resp.Body, u.String())
	if cerr != nil {
		return Record{}, cerr
	}

	if declaredLength >= 0 && int64(len(data)) != declaredLength {
		return Record{}, crawlerr.New(crawlerr.KindDownloadValidation, "downloader.Download",
			fmt.Errorf("content-length mismatch: declared %d, got %d", declaredLength, len(data)))
	}

	if !ValidateComplete(data) {
		return Record{}, crawlerr.New(crawlerr.KindDownloadValidation, "downloader.Download",
			fmt.Errorf("failed structural validation for %s", u.String()))
	}

	if cerr := commitAtomically(finalPath, data); cerr != nil {
		return Record{}, cerr
	}

	return Record{
		URL:         u.String(),
		Path:        finalPath,
		SizeBytes:   int64(len(data)),
		ContentType: contentType,
	}, nil
}

// streamAndValidate reads body in bounded chunks, rejecting early on an
// HTML body or a cumulative size past the ceiling, without ever holding
// more than opts.MaxTotalBytes+firstChunkSize in memory at once.
func (d *Downloader) streamAndValidate(body io.Reader, srcURL string) ([]byte, *crawlerr.Error) {
	limited := io.LimitReader(body, d.opts.MaxTotalBytes+1)

	first := make([]byte, firstChunkSize)
	n, _ := io.ReadFull(limited, first)
	first = first[:n]

	if isLikelyHTMLOrXML(first) {
		return nil, crawlerr.New(crawlerr.KindDownloadValidation, "downloader.streamAndValidate",
			fmt.Errorf("first chunk looks like HTML for %s", srcURL))
	}
	if !isLikelyPDFStart(first) {
		return nil, crawlerr.New(crawlerr.KindDownloadValidation, "downloader.streamAndValidate",
			fmt.Errorf("first chunk does not look like a PDF for %s", srcURL))
	}

	rest, err := io.ReadAll(limited)
	if err != nil {
		return nil, crawlerr.New(crawlerr.KindTransientNetwork, "downloader.streamAndValidate", err)
	}

	data := append(first, rest...)
	if int64(len(data)) > d.opts.MaxTotalBytes {
		return nil, crawlerr.New(crawlerr.KindDownloadValidation, "downloader.streamAndValidate",
			fmt.Errorf("exceeded %d byte ceiling for %s", d.opts.MaxTotalBytes, srcURL))
	}

	return data, nil
}

// resolveSafePath picks the destination filename and guards against the
// result escaping downloadDir via a crafted Content-Disposition/path.
func (d *Downloader) resolveSafePath(resp *http.Response, u *url.URL) (string, *crawlerr.Error) {
	filename := resolveFilename(resp, u)
	candidate := filepath.Join(d.downloadDir, filename)

	rel, err := filepath.Rel(d.downloadDir, candidate)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", crawlerr.New(crawlerr.KindDownloadValidation, "downloader.resolveSafePath",
			fmt.Errorf("resolved path escapes download directory: %q", filename))
	}
	return candidate, nil
}

func fileIsValidPDF(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return ValidateComplete(data)
}

// commitAtomically writes data to a temp file alongside finalPath, syncs
// it, and renames it into place — the rename is atomic on any POSIX
// filesystem, so a concurrent reader of finalPath never observes a
// partially written file.
func commitAtomically(finalPath string, data []byte) *crawlerr.Error {
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return crawlerr.New(crawlerr.KindIO, "downloader.commitAtomically", err)
	}

	tmpPath := finalPath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return crawlerr.New(crawlerr.KindIO, "downloader.commitAtomically", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return crawlerr.New(crawlerr.KindIO, "downloader.commitAtomically", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return crawlerr.New(crawlerr.KindIO, "downloader.commitAtomically", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return crawlerr.New(crawlerr.KindIO, "downloader.commitAtomically", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return crawlerr.New(crawlerr.KindIO, "downloader.commitAtomically", err)
	}
	return nil
}
