package workerpool

import "context"

// Semaphore bounds the number of concurrently open sockets across the
// whole crawl, independent of how many crawl or download workers are
// currently active. The page path holds it only for the fetch and
// releases it before HTML parsing, so a slow parse doesn't starve other
// workers of a socket; the download path holds it until Download returns,
// which includes the PDF structural validation and the write to disk.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore returns a Semaphore admitting at most n concurrent holders.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		n = 1
	}
	return &Semaphore{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is canceled.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot to the pool. Calling Release without a matching
// successful Acquire either frees a slot another holder still owns (so
// more than n holders get in) or, on an empty semaphore, blocks the
// caller; callers MUST pair every successful Acquire with exactly one
// Release, typically via defer.
func (s *Semaphore) Release() {
	<-s.slots
}
