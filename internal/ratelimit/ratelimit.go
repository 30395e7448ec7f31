// Package ratelimit hands out a per-host token bucket for steady-state
// pacing, layered with an exponential backoff escalator that kicks in only
// when a host starts returning 429/503 or refusing connections.
//
// The two layers are kept separate on purpose: x/time/rate's token bucket
// enforces "no more than N requests per second to this host" regardless of
// how the host is behaving, while the backoff escalator reacts to signals
// from the host itself and decays back to zero once it recovers.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rohmanhakim/pdfcrawler/pkg/limiter"
	"golang.org/x/time/rate"
)

// Registry lazily creates one rate.Limiter per host on first use.
type Registry struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	limit      rate.Limit
	burst      int
	backoff    limiter.RateLimiter
}

// New builds a registry that allows requestsPerSecond steady-state
// requests per host, with the given burst allowance.
func New(requestsPerSecond float64, burst int) *Registry {
	backoff := limiter.NewConcurrentRateLimiter()
	backoff.SetBaseDelay(0)
	return &Registry{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
		backoff:  backoff,
	}
}

func (r *Registry) getOrCreate(host string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[host]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters[host] = l
	}
	return l
}

// Wait blocks until host's token bucket admits a request and any active
// backoff escalation for host has elapsed, or ctx is canceled first.
func (r *Registry) Wait(ctx context.Context, host string) error {
	l := r.getOrCreate(host)
	if err := l.Wait(ctx); err != nil {
		return err
	}

	if delay := r.backoff.ResolveDelay(host); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.backoff.MarkLastFetchAsNow(host)
	return nil
}

// Throttled escalates host's backoff delay, called after a 429/503 or a
// connection refusal from that host.
func (r *Registry) Throttled(host string) {
	r.backoff.Backoff(host)
}

// Recovered resets host's backoff delay, called after a successful fetch.
func (r *Registry) Recovered(host string) {
	r.backoff.ResetBackoff(host)
}
