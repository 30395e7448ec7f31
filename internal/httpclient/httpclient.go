// Package httpclient builds the single *http.Client shared by every fetch
// and download in the crawl. It exists mostly to fix, once and for all,
// the failure mode where a client's deadline gets silently widened by a
// later reconstruction: the client returned by New is built exactly once,
// its Timeout is set in the same literal that constructs it, and nothing
// later overwrites that field.
package httpclient

import (
	"compress/gzip"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/http2"
)

// Options configures the shared client. Zero values fall back to sane
// crawler defaults.
type Options struct {
	UserAgent         string
	RequestTimeout    time.Duration
	ConnectTimeout    time.Duration
	IdleConnTimeout   time.Duration
	MaxIdlePerHost    int
	MaxRedirects      int
	DisableKeepAlives bool
}

func (o Options) withDefaults() Options {
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 12 * time.Second
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	if o.IdleConnTimeout == 0 {
		o.IdleConnTimeout = 90 * time.Second
	}
	if o.MaxIdlePerHost == 0 {
		o.MaxIdlePerHost = 300
	}
	if o.MaxRedirects == 0 {
		o.MaxRedirects = 5
	}
	if o.UserAgent == "" {
		o.UserAgent = "pdfcrawler/1.0 (+https://example.invalid/bot)"
	}
	return o
}

// New constructs the shared HTTP client. http2.ConfigureTransport is best
// effort: on failure the client still works over HTTP/1.1.
func New(opts Options) *http.Client {
	opts = opts.withDefaults()

	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        opts.MaxIdlePerHost * 4,
		MaxIdleConnsPerHost: opts.MaxIdlePerHost,
		IdleConnTimeout:     opts.IdleConnTimeout,
		DisableKeepAlives:   opts.DisableKeepAlives,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2:   true,
	}
	_ = http2.ConfigureTransport(transport)

	rt := &zstdAwareTransport{base: transport}

	client := &http.Client{
		Transport: rt,
		Timeout:   opts.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= opts.MaxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return client
}

// zstdAwareTransport advertises gzip and zstd support and transparently
// decodes both. Setting Accept-Encoding by hand turns off net/http's own
// gzip decoding, so gzip is decoded here alongside zstd.
type zstdAwareTransport struct {
	base *http.Transport
}

func (t *zstdAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, zstd")
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, gerr := gzip.NewReader(resp.Body)
		if gerr != nil {
			return resp, nil
		}
		resp.Body = struct {
			io.Reader
			io.Closer
		}{gz, resp.Body}
		resp.Header.Del("Content-Encoding")
		resp.Header.Del("Content-Length")
		resp.ContentLength = -1
	case "zstd":
		dec, derr := zstd.NewReader(resp.Body)
		if derr != nil {
			return resp, nil
		}
		resp.Body = zstdReadCloser{dec: dec, underlying: resp.Body}
		resp.Header.Del("Content-Encoding")
		resp.Header.Del("Content-Length")
		resp.ContentLength = -1
	}
	return resp, nil
}

type zstdReadCloser struct {
	dec        *zstd.Decoder
	underlying io.ReadCloser
}

func (z zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z zstdReadCloser) Close() error {
	z.dec.Close()
	return z.underlying.Close()
}
