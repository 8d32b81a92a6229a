package syncutil_test

import (
	"sync"
	"testing"

	"github.com/grit-scm/grit/internal/syncutil"
	"github.com/stretchr/testify/assert"
)

func TestNamedMutex(t *testing.T) {
	t.Parallel()

	t.Run("should serialize writers on the same key", func(t *testing.T) {
		t.Parallel()

		mu := syncutil.NewNamedMutex(101)
		key := []byte("some-key")

		count := 0
		wg := sync.WaitGroup{}
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				mu.Lock(key)
				defer mu.Unlock(key)
				count++
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, count)
	})

	t.Run("a capacity below 2 should be bumped to 2", func(t *testing.T) {
		t.Parallel()

		mu := syncutil.NewNamedMutex(0)
		mu.Lock([]byte("a"))
		mu.Unlock([]byte("a"))
	})
}
