// Package lock provides keyed in-process locking. The settlement engine
// uses it to serialize settlement runs per match within one process;
// cross-process safety comes from the per-wager state CAS at the store.
package lock

import (
	"sync"
)

// keyedMutex wraps a mutex with reference counting for cleanup.
type keyedMutex struct {
	mu       sync.Mutex
	refCount int
}

// KeyedLock provides per-key locking.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[string]*keyedMutex
}

// NewKeyedLock creates a new KeyedLock instance.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: make(map[string]*keyedMutex)}
}

// acquire retrieves or creates the mutex for key and registers interest.
func (kl *KeyedLock) acquire(key string) *keyedMutex {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	m, ok := kl.locks[key]
	if !ok {
		m = &keyedMutex{}
		kl.locks[key] = m
	}
	m.refCount++
	return m
}

// release drops interest in key and evicts the mutex when unused.
func (kl *KeyedLock) release(key string) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	m, ok := kl.locks[key]
	if !ok {
		return
	}
	m.refCount--
	if m.refCount <= 0 {
		delete(kl.locks, key)
	}
}

// Lock acquires the lock for key, blocking until it is available.
func (kl *KeyedLock) Lock(key string) {
	kl.acquire(key).mu.Lock()
}

// Unlock releases the lock for key.
func (kl *KeyedLock) Unlock(key string) {
	kl.mu.Lock()
	m, ok := kl.locks[key]
	kl.mu.Unlock()
	if !ok {
		return
	}
	m.mu.Unlock()
	kl.release(key)
}

// TryLock attempts to acquire the lock for key without blocking.
// Returns true if the lock was acquired.
func (kl *KeyedLock) TryLock(key string) bool {
	m := kl.acquire(key)
	if m.mu.TryLock() {
		return true
	}
	kl.release(key)
	return false
}

// WithLock executes fn while holding the lock for key.
func (kl *KeyedLock) WithLock(key string, fn func() error) error {
	kl.Lock(key)
	defer kl.Unlock(key)
	return fn()
}
