// Package classifier decides whether a discovered link points at a PDF,
// without downloading it — a five-stage pipeline of increasingly
// expensive checks, each one cheap enough to skip the rest when it's
// conclusive.
//
// Stage order: cached verdict, URL pattern, URL clue text, anchor text,
// HEAD content-type probe, ranged byte-magic probe. The first four stages
// are pure string matching; only the last two touch the network, and only
// when nothing cheaper settled the question.
package classifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rohmanhakim/pdfcrawler/internal/crawlerr"
	"github.com/rohmanhakim/pdfcrawler/internal/linkextract"
)

// Options configures cache sizing/TTL and network probe behavior.
type Options struct {
	CacheCapacity   int
	PositiveTTL     time.Duration
	NegativeTTL     time.Duration
	HeaderCheckSize int64
	ProbeTimeout    time.Duration
	// NetworkProbesDisabled skips stages 4 (HEAD) and 5 (Range+magic
	// bytes) entirely, per spec.md §6's --verify-pdfs flag: when false,
	// only the URL/clue/anchor-text stages run and a URL that needs a
	// network probe to resolve is classified No.
	NetworkProbesDisabled bool
}

func (o Options) withDefaults() Options {
	if o.CacheCapacity == 0 {
		o.CacheCapacity = 120_000
	}
	if o.PositiveTTL == 0 {
		o.PositiveTTL = time.Hour
	}
	if o.NegativeTTL == 0 {
		o.NegativeTTL = 30 * time.Second
	}
	if o.HeaderCheckSize == 0 {
		o.HeaderCheckSize = 1024
	}
	if o.ProbeTimeout == 0 {
		o.ProbeTimeout = 3 * time.Second
	}
	return o
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Classifier holds the two verdict caches (one per TTL, since the
// expirable LRU only supports a single TTL per instance and this pipeline
// needs a short negative TTL and a long positive one) plus the anchor
// text cache populated by internal/linkextract during page parsing.
type Classifier struct {
	client    httpDoer
	userAgent string
	opts      Options
	anchors   *linkextract.AnchorCache

	positive *lru.LRU[uint64, bool]
	negative *lru.LRU[uint64, bool]
}

// New builds a Classifier. anchors may be nil, in which case the
// anchor-text stage is always skipped.
func New(client httpDoer, userAgent string, anchors *linkextract.AnchorCache, opts Options) *Classifier {
	opts = opts.withDefaults()
	return &Classifier{
		client:    client,
		userAgent: userAgent,
		opts:      opts,
		anchors:   anchors,
		positive:  lru.NewLRU[uint64, bool](opts.CacheCapacity, nil, opts.PositiveTTL),
		negative:  lru.NewLRU[uint64, bool](opts.CacheCapacity, nil, opts.NegativeTTL),
	}
}

// Classify reports whether link is a PDF. linkHash is the link's URL
// identity hash (internal/urlid.Hash), reused as the cache key so the
// classifier never has to re-hash the URL itself.
func (c *Classifier) Classify(ctx context.Context, link linkextract.Link, linkHash uint64) (bool, *crawlerr.Error) {
	if v, ok := c.positive.Get(linkHash); ok {
		return v, nil
	}
	if v, ok := c.negative.Get(linkHash); ok {
		return v, nil
	}

	verdict, cerr := c.classifyUncached(ctx, link, linkHash)
	if cerr != nil {
		return false, cerr
	}

	if verdict {
		c.positive.Add(linkHash, true)
	} else {
		c.negative.Add(linkHash, false)
	}
	return verdict, nil
}

func (c *Classifier) classifyUncached(ctx context.Context, link linkextract.Link, linkHash uint64) (bool, *crawlerr.Error) {
	url := link.URL.String()

	if matchesURLPattern(url) {
		return true, nil
	}
	if clueRegex.MatchString(url) {
		return true, nil
	}

	anchorText := link.AnchorText
	if anchorText == "" && c.anchors != nil {
		if text, ok := c.anchors.Get(linkHash); ok {
			anchorText = text
		}
	}
	if anchorText != "" && anchorTextRegex.MatchString(anchorText) {
		return true, nil
	}

	if c.opts.NetworkProbesDisabled {
		return false, nil
	}

	if verdict, conclusive, cerr := c.probeHead(ctx, link.URL.String()); cerr != nil {
		return false, cerr
	} else if conclusive {
		return verdict, nil
	}

	verdict, cerr := c.probeRange(ctx, link.URL.String())
	if cerr != nil {
		// a probe failure counts as No but is still cached under the
		// negative TTL: a dead/unreachable URL shouldn't cost a fresh
		// round trip on every rediscovery of the same link.
		return false, nil
	}
	return verdict, nil
}

func (c *Classifier) probeHead(ctx context.Context, url string) (verdict bool, conclusive bool, cerr *crawlerr.Error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		return false, false, nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, false, nil // inconclusive, not fatal: fall through to range probe
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, false, nil
	}

	return isPDFContentType(resp.Header.Get("Content-Type")), true, nil
}

func (c *Classifier) probeRange(ctx context.Context, url string) (bool, *crawlerr.Error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false, crawlerr.New(crawlerr.KindClassifierProbe, "classifier.probeRange", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", c.opts.HeaderCheckSize-1))

	resp, err := c.client.Do(req)
	if err != nil {
		return false, crawlerr.New(crawlerr.KindClassifierProbe, "classifier.probeRange", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return false, nil
	}

	buf := make([]byte, c.opts.HeaderCheckSize)
	n, _ := resp.Body.Read(buf)
	return hasMagicPDFPrefix(buf[:n]), nil
}
