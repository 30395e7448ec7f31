// Package journal owns the on-disk crawl report: a single JSON document
// that is valid and complete at every instant it exists on disk, updated
// incrementally as PDFs are found rather than assembled once at the end.
//
// A lone actor goroutine owns all report state. Every other package talks
// to it over a channel; nothing outside this package ever touches the
// metadata or pdfs slice directly, so there is no lock to get wrong.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rohmanhakim/pdfcrawler/pkg/fileutil"
)

// PDFRecord is one discovered PDF, as reported by the classifier/downloader.
type PDFRecord struct {
	URL           string
	SourcePage    string
	Depth         int
	Title         string
	SizeHint      string
	ContentType   string
	ContentLength int64
	Verified      bool
}

type pdfInfo struct {
	URL           string  `json:"url"`
	SourcePage    string  `json:"source_page"`
	Depth         int     `json:"depth"`
	Title         *string `json:"title,omitempty"`
	SizeHint      *string `json:"size_hint,omitempty"`
	ContentType   *string `json:"content_type,omitempty"`
	ContentLength *int64  `json:"content_length,omitempty"`
	DiscoveredAt  string  `json:"discovered_at"`
	Verified      bool    `json:"verified"`
}

type crawlMetadata struct {
	StartURL             string `json:"start_url"`
	MaxDepth             int    `json:"max_depth"`
	TotalPagesCrawled    int    `json:"total_pages_crawled"`
	TotalPDFsFound       int    `json:"total_pdfs_found"`
	VerifiedPDFs         int    `json:"verified_pdfs"`
	FailedVerifications  int    `json:"failed_verifications"`
	CrawlTimestamp       string `json:"crawl_timestamp"`
	Status               string `json:"status"`
	VerificationEnabled  bool   `json:"verification_enabled"`
}

type crawlResults struct {
	Metadata crawlMetadata `json:"metadata"`
	PDFs     []pdfInfo     `json:"pdfs"`
}

type msgKind int

const (
	msgAddPDF msgKind = iota
	msgFailedVerification
	msgIncPages
	msgStarted
	msgFailed
	msgFinish
)

type message struct {
	kind  msgKind
	pdf   PDFRecord
	reply chan struct{}
}

// Journal is the single-writer report actor.
type Journal struct {
	path  string
	msgs  chan message
	done  chan struct{}
}

// New starts the actor goroutine and writes the initial (empty) report.
func New(path, startURL string, maxDepth int, verificationEnabled bool) (*Journal, error) {
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	j := &Journal{
		path: path,
		msgs: make(chan message, 64),
		done: make(chan struct{}),
	}

	state := crawlResults{
		Metadata: crawlMetadata{
			StartURL:            startURL,
			MaxDepth:            maxDepth,
			CrawlTimestamp:      time.Now().UTC().Format(time.RFC3339),
			Status:              "initializing",
			VerificationEnabled: verificationEnabled,
		},
		PDFs: []pdfInfo{},
	}

	if err := writeAtomic(path, state); err != nil {
		return nil, err
	}

	go j.run(state)
	return j, nil
}

func (j *Journal) run(state crawlResults) {
	seen := make(map[string]struct{}, len(state.PDFs))
	for _, p := range state.PDFs {
		seen[p.URL] = struct{}{}
	}

	for m := range j.msgs {
		switch m.kind {
		case msgAddPDF:
			if _, dup := seen[m.pdf.URL]; !dup {
				seen[m.pdf.URL] = struct{}{}
				state.PDFs = append(state.PDFs, toPDFInfo(m.pdf))
				state.Metadata.TotalPDFsFound++
				if m.pdf.Verified {
					state.Metadata.VerifiedPDFs++
				} else {
					state.Metadata.FailedVerifications++
				}
				_ = writeAtomic(j.path, state)
			}
		case msgFailedVerification:
			state.Metadata.FailedVerifications++
			_ = writeAtomic(j.path, state)
		case msgIncPages:
			state.Metadata.TotalPagesCrawled++
			_ = writeAtomic(j.path, state)
		case msgStarted:
			state.Metadata.Status = "in_progress"
			_ = writeAtomic(j.path, state)
		case msgFailed:
			state.Metadata.Status = "failed"
			_ = writeAtomic(j.path, state)
		case msgFinish:
			if state.Metadata.Status != "failed" {
				state.Metadata.Status = "completed"
			}
			_ = writeAtomic(j.path, state)
		}
		if m.reply != nil {
			close(m.reply)
		}
	}
	close(j.done)
}

func toPDFInfo(r PDFRecord) pdfInfo {
	p := pdfInfo{
		URL:          r.URL,
		SourcePage:   r.SourcePage,
		Depth:        r.Depth,
		DiscoveredAt: time.Now().UTC().Format(time.RFC3339),
		Verified:     r.Verified,
	}
	if r.Title != "" {
		p.Title = &r.Title
	}
	if r.SizeHint != "" {
		p.SizeHint = &r.SizeHint
	}
	if r.ContentType != "" {
		p.ContentType = &r.ContentType
	}
	if r.ContentLength > 0 {
		p.ContentLength = &r.ContentLength
	}
	return p
}

// AddPDF records a discovered PDF, deduplicated by URL. Blocks until the
// actor has handled it; for a new URL, the updated report has been synced
// and renamed into place by the time AddPDF returns.
func (j *Journal) AddPDF(rec PDFRecord) {
	reply := make(chan struct{})
	j.msgs <- message{kind: msgAddPDF, pdf: rec, reply: reply}
	<-reply
}

// AddFailedVerification records that a candidate PDF was downloaded (or
// partially downloaded) and rejected by validation, without adding a
// pdfs[] entry for it — the download never became a reportable PDF.
func (j *Journal) AddFailedVerification() {
	reply := make(chan struct{})
	j.msgs <- message{kind: msgFailedVerification, reply: reply}
	<-reply
}

// IncPages records that one more page was crawled.
func (j *Journal) IncPages() {
	reply := make(chan struct{})
	j.msgs <- message{kind: msgIncPages, reply: reply}
	<-reply
}

// Started transitions the report from "initializing" to "in_progress",
// once the frontier has been seeded and the worker pool is about to run.
func (j *Journal) Started() {
	reply := make(chan struct{})
	j.msgs <- message{kind: msgStarted, reply: reply}
	<-reply
}

// Failed marks the report "failed" instead of "completed" at Finish,
// for a crawl that aborted on a fatal I/O error mid-run.
func (j *Journal) Failed() {
	reply := make(chan struct{})
	j.msgs <- message{kind: msgFailed, reply: reply}
	<-reply
}

// Finish marks the report complete and stops the actor. Safe to call once.
func (j *Journal) Finish() {
	reply := make(chan struct{})
	j.msgs <- message{kind: msgFinish, reply: reply}
	<-reply
	close(j.msgs)
	<-j.done
}

// writeAtomic serializes state to a temp file beside path, syncs it, and
// renames it into place — the report is never observed half-written.
func writeAtomic(path string, state crawlResults) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("journal: marshal: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("journal: open temp: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("journal: write temp: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("journal: sync temp: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("journal: close temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("journal: rename: %w", err)
	}
	return nil
}
