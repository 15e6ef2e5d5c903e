package member

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailLocks_Serializes(t *testing.T) {
	locks := newEmailLocks()

	var inCritical, max int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.lock("jane@example.com")
			defer release()

			mu.Lock()
			inCritical++
			if inCritical > max {
				max = inCritical
			}
			mu.Unlock()

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max)
}

func TestEmailLocks_EntriesAreReclaimed(t *testing.T) {
	locks := newEmailLocks()

	release := locks.lock("jane@example.com")
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries)
}

func TestEmailLocks_IndependentEmails(t *testing.T) {
	locks := newEmailLocks()

	releaseA := locks.lock("a@example.com")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB := locks.lock("b@example.com")
		releaseB()
		close(done)
	}()
	<-done
}
