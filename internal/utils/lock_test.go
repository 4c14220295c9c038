// internal/utils/lock_test.go
package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexMutualExclusion(t *testing.T) {
	km := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("counter")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyedMutexUnrelatedKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on unrelated key blocked")
	}
}

func TestKeyedMutexLockAllOverlappingSets(t *testing.T) {
	km := NewKeyedMutex()

	// Opposite declaration order must not deadlock: LockAll sorts keys.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := km.LockAll([]string{"a", "b"})
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := km.LockAll([]string{"b", "a"})
			unlock()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("overlapping LockAll calls deadlocked")
	}
}

func TestKeyedMutexLockAllDuplicates(t *testing.T) {
	km := NewKeyedMutex()

	// Duplicate keys collapse; this must not self-deadlock.
	unlock := km.LockAll([]string{"a", "a", "a"})
	unlock()

	// The entry map is drained once the last holder releases.
	assert.Empty(t, km.locks)
}
