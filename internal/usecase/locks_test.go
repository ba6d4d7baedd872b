package usecase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThreadLocks_SerializesSameThread(t *testing.T) {
	locks := newThreadLocks()

	const workers = 8
	const iterations = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				release := locks.acquire("same-thread")
				counter++
				release()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, workers*iterations, counter)
}

func TestThreadLocks_ReleasesEntries(t *testing.T) {
	locks := newThreadLocks()

	release := locks.acquire("t1")
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	require.Empty(t, locks.locks)
}

func TestThreadLocks_IndependentThreadsDoNotBlock(t *testing.T) {
	locks := newThreadLocks()

	releaseA := locks.acquire("thread-a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB := locks.acquire("thread-b")
		releaseB()
		close(done)
	}()
	<-done
}
