package workerpool

import (
	"context"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDownloadDispatcher_BoundsConcurrency(t *testing.T) {
	var inFlight, maxSeen atomic.Int32
	process := func(_ context.Context, _ DownloadJob) {
		n := inFlight.Add(1)
		for {
			cur := maxSeen.Load()
			if n <= cur || maxSeen.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	}

	d := NewDownloadDispatcher(32, 3, process)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() { d.Run(ctx); close(done) }()

	u, _ := url.Parse("http://example.test/a.pdf")
	for i := 0; i < 12; i++ {
		assert.True(t, d.Enqueue(ctx, DownloadJob{URL: u}))
	}
	d.Close()

	<-done
	assert.LessOrEqual(t, maxSeen.Load(), int32(3))
	assert.Equal(t, int32(3), maxSeen.Load())
}

func TestDownloadDispatcher_RunsEveryJob(t *testing.T) {
	var count atomic.Int32
	d := NewDownloadDispatcher(4, 2, func(_ context.Context, _ DownloadJob) {
		count.Add(1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() { d.Run(ctx); close(done) }()

	for i := 0; i < 10; i++ {
		d.Enqueue(ctx, DownloadJob{})
	}
	d.Close()
	<-done

	assert.Equal(t, int32(10), count.Load())
}
