package frontier

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const dedupShardCount = 256

// dedupSet is a sharded set of already-seen URL identity hashes. Sharding
// by a second, independent hash (xxhash over the identity hash's bytes,
// rather than the identity hash itself) keeps the insert-if-absent
// test-and-set in Push from serializing on one global lock while avoiding
// correlating shard choice with the BLAKE3-derived key it shards.
type dedupSet struct {
	shards [dedupShardCount]dedupShard
}

type dedupShard struct {
	mu   sync.Mutex
	seen map[uint64]struct{}
}

func newDedupSet() *dedupSet {
	d := &dedupSet{}
	for i := range d.shards {
		d.shards[i].seen = make(map[uint64]struct{})
	}
	return d
}

func (d *dedupSet) shardFor(hash uint64) *dedupShard {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], hash)
	idx := xxhash.Sum64(buf[:]) % dedupShardCount
	return &d.shards[idx]
}

// insertIfAbsent atomically tests and inserts hash, returning true if it
// was newly inserted (i.e. the caller owns this URL) and false if another
// caller already claimed it.
func (d *dedupSet) insertIfAbsent(hash uint64) bool {
	s := d.shardFor(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[hash]; ok {
		return false
	}
	s.seen[hash] = struct{}{}
	return true
}

func (d *dedupSet) len() int {
	total := 0
	for i := range d.shards {
		d.shards[i].mu.Lock()
		total += len(d.shards[i].seen)
		d.shards[i].mu.Unlock()
	}
	return total
}
