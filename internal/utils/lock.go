// internal/utils/lock.go
package utils

import (
	"sort"
	"sync"
)

// KeyedMutex serializes work per string key. It backs the per-pool and
// per-asset serialization of the allocation engine: allocate/release against
// one license pool happens under that pool's lock, while operations on
// unrelated keys never contend.
//
// Entries are reference-counted and removed when the last holder releases,
// so the map does not grow with the id space.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*keyedLock),
	}
}

// Lock blocks until the key's lock is held and returns the unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedLock{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// LockAll acquires the given keys in sorted order so that callers locking
// overlapping sets cannot deadlock. Duplicate keys are collapsed. The
// returned function releases all of them.
func (k *KeyedMutex) LockAll(keys []string) func() {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			unique = append(unique, key)
		}
	}
	sort.Strings(unique)

	unlocks := make([]func(), 0, len(unique))
	for _, key := range unique {
		unlocks = append(unlocks, k.Lock(key))
	}

	return func() {
		// Release in reverse acquisition order.
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
