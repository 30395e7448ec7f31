package frontier_test

import (
	"net/url"
	"sync"
	"testing"

	"github.com/rohmanhakim/pdfcrawler/internal/frontier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(t *testing.T, raw string, depth int) frontier.Task {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	tk, err := frontier.NewTask(u, depth)
	require.NoError(t, err)
	return tk
}

func TestPushDedupsByIdentity(t *testing.T) {
	f := frontier.New()

	ok1 := f.Push(task(t, "http://example.com/a", 0))
	ok2 := f.Push(task(t, "http://EXAMPLE.com/a/", 0))

	assert.True(t, ok1)
	assert.False(t, ok2)
	assert.Equal(t, 1, f.Size())
	assert.Equal(t, 1, f.SeenLen())
}

func TestPushRetryBypassesDedup(t *testing.T) {
	f := frontier.New()
	tk := task(t, "http://example.com/a", 0)

	require.True(t, f.Push(tk))
	_, _ = f.Pop()
	f.PushRetry(tk.Retry())

	assert.Equal(t, 1, f.Size())
	popped, ok := f.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, popped.RetryCount)
}

func TestPopRoundRobinsAcrossHosts(t *testing.T) {
	f := frontier.New()
	require.True(t, f.Push(task(t, "http://a.com/1", 0)))
	require.True(t, f.Push(task(t, "http://a.com/2", 0)))
	require.True(t, f.Push(task(t, "http://b.com/1", 0)))

	first, ok := f.Pop()
	require.True(t, ok)
	second, ok := f.Pop()
	require.True(t, ok)

	assert.NotEqual(t, first.URL.Host, second.URL.Host)
}

func TestPopEmpty(t *testing.T) {
	f := frontier.New()
	_, ok := f.Pop()
	assert.False(t, ok)
}

func TestConcurrentPushPop(t *testing.T) {
	f := frontier.New()
	const n = 500

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, _ := url.Parse("http://example.com/" + string(rune('a'+i%26)) + "/" + itoa(i))
			tk, err := frontier.NewTask(u, 0)
			if err == nil {
				f.Push(tk)
			}
		}(i)
	}
	wg.Wait()

	count := 0
	for {
		if _, ok := f.Pop(); !ok {
			break
		}
		count++
	}
	assert.Equal(t, f.SeenLen(), count)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
