// Package frontier holds the set of discovered-but-not-yet-fetched URLs,
// partitioned per host so that a round-robin Pop never lets one deep host
// starve the others out of worker attention — the same load-balancing
// shape a multi-interface download manager uses to round-robin across
// network interfaces, applied here to hosts instead of NICs.
//
// Frontier only drops/dedups; it has no opinion on policy (robots, depth
// limits, host allowlists). Those checks happen before Push is called.
package frontier

import "sync"

// Frontier is a host-partitioned FIFO queue with a sharded identity-hash
// dedup set. All methods are safe for concurrent use.
type Frontier struct {
	mu         sync.Mutex
	hostQueues map[string][]Task
	hostOrder  []string
	cursor     int
	seen       *dedupSet
	queued     int
}

// New returns an empty Frontier.
func New() *Frontier {
	return &Frontier{
		hostQueues: make(map[string][]Task),
		seen:       newDedupSet(),
	}
}

// Push enqueues task if its URL has not been seen before. Returns false
// (no-op) if the URL was already admitted to the frontier, once, ever.
func (f *Frontier) Push(task Task) bool {
	if !f.seen.insertIfAbsent(task.Hash) {
		return false
	}
	f.enqueue(task)
	return true
}

// PushRetry re-enqueues task after a transient failure, bypassing the
// dedup set entirely — the URL was already admitted once and retrying it
// is not a new discovery.
func (f *Frontier) PushRetry(task Task) {
	f.enqueue(task)
}

func (f *Frontier) enqueue(task Task) {
	host := task.URL.Host

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.hostQueues[host]; !exists {
		f.hostOrder = append(f.hostOrder, host)
	}
	f.hostQueues[host] = append(f.hostQueues[host], task)
	f.queued++
}

// Pop removes and returns the next task, round-robining across hosts so
// that a host with a long backlog does not monopolize worker attention.
// Returns (Task{}, false) when the frontier is empty.
func (f *Frontier) Pop() (Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.hostOrder)
	for i := 0; i < n; i++ {
		idx := (f.cursor + i) % n
		host := f.hostOrder[idx]
		q := f.hostQueues[host]
		if len(q) == 0 {
			continue
		}
		task := q[0]
		f.hostQueues[host] = q[1:]
		f.cursor = (idx + 1) % n
		f.queued--
		f.compactHostOrderLocked()
		return task, true
	}
	return Task{}, false
}

// compactHostOrderLocked drops hosts whose queue has drained, so hostOrder
// doesn't grow without bound over a long crawl touching many hosts once
// each. Caller must hold f.mu.
func (f *Frontier) compactHostOrderLocked() {
	if len(f.hostOrder) < 2*len(f.hostQueues)+8 {
		return
	}
	next := f.hostOrder[:0]
	for _, h := range f.hostOrder {
		if len(f.hostQueues[h]) > 0 {
			next = append(next, h)
		} else {
			delete(f.hostQueues, h)
		}
	}
	f.hostOrder = next
	f.cursor = 0
}

// Size returns the number of tasks currently queued across all hosts.
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queued
}

// SeenLen returns the number of distinct URL identities ever admitted.
func (f *Frontier) SeenLen() int {
	return f.seen.len()
}
