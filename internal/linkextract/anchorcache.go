package linkextract

import (
	"container/list"
	"sync"
)

// AnchorCache remembers the anchor text a link was discovered under, so
// the classifier's anchor-text heuristic can consult it later without
// threading the text through every queue entry. It is capacity-bounded,
// not time-bounded — unlike the classifier's verdict cache, a stale
// anchor text is harmless (worst case, a weaker signal), so eviction is
// plain least-recently-used.
type AnchorCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[uint64]*list.Element
}

type anchorEntry struct {
	hash uint64
	text string
}

// NewAnchorCache returns an AnchorCache holding at most capacity entries.
func NewAnchorCache(capacity int) *AnchorCache {
	if capacity <= 0 {
		capacity = 50_000
	}
	return &AnchorCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[uint64]*list.Element),
	}
}

// Put records text as the anchor text seen for the link identified by hash.
func (c *AnchorCache) Put(hash uint64, text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[hash]; ok {
		el.Value.(*anchorEntry).text = text
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&anchorEntry{hash: hash, text: text})
	c.items[hash] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*anchorEntry).hash)
		}
	}
}

// Get returns the anchor text recorded for hash, if any.
func (c *AnchorCache) Get(hash uint64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[hash]
	if !ok {
		return "", false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*anchorEntry).text, true
}
