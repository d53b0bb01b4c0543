package locks

import "sync"

// KeyedMutex hands out one mutex per string key.
// Entries are reference-counted and dropped once no goroutine
// holds or waits on them, so the map doesn't grow with every key ever seen
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry is the value type for the internal map
type entry struct {
	sync.Mutex
	refs int
}

// NewKeyedMutex creates a new instance of KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*entry),
	}
}

// Lock blocks until the mutex for key is held,
// and returns the function that releases it
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}

// Len returns the number of keys currently held or waited on
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.entries)
}
