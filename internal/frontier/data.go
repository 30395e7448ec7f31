package frontier

import (
	"net/url"

	"github.com/rohmanhakim/pdfcrawler/internal/urlid"
)

// Task is a unit of crawl work: a URL to fetch at a given depth from the
// seed, plus how many times it has already been retried after a transient
// failure.
type Task struct {
	URL        *url.URL
	Canonical  string
	Hash       uint64
	Depth      int
	RetryCount int
}

// NewTask computes the task's canonical form and identity hash once, at
// construction, so every later dedup/shard lookup reuses the same value
// instead of re-hashing the URL on every queue operation.
func NewTask(u *url.URL, depth int) (Task, error) {
	canon, hash, err := urlid.Identity(u)
	if err != nil {
		return Task{}, err
	}
	return Task{
		URL:       u,
		Canonical: canon,
		Hash:      hash,
		Depth:     depth,
	}, nil
}

// Retry returns a copy of the task with RetryCount incremented, for
// re-enqueueing after a transient failure.
func (t Task) Retry() Task {
	t.RetryCount++
	return t
}
