package memory

import "sync"

// LockManager hands out one mutex per key so writers to different products
// never wait on each other.
type LockManager struct {
	locks    map[string]*sync.Mutex
	locksMux sync.RWMutex
}

func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*sync.Mutex)}
}

// Get returns the mutex for key, creating it on first use.
func (lm *LockManager) Get(key string) *sync.Mutex {
	lm.locksMux.RLock()
	if lock, ok := lm.locks[key]; ok {
		lm.locksMux.RUnlock()
		return lock
	}
	lm.locksMux.RUnlock()

	lm.locksMux.Lock()
	defer lm.locksMux.Unlock()

	// another goroutine may have created it meanwhile
	if lock, ok := lm.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	lm.locks[key] = lock
	return lock
}

// With runs fn while holding the mutex for key.
func (lm *LockManager) With(key string, fn func() error) error {
	lock := lm.Get(key)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

// Len reports how many keys currently own a mutex.
func (lm *LockManager) Len() int {
	lm.locksMux.RLock()
	defer lm.locksMux.RUnlock()
	return len(lm.locks)
}
