package gamenight

import "sync"

// Keyed holds one value per team, created on first use. The zero value is
// ready to use. Values carry their own locks; Keyed only guards the map.
type Keyed[T any] struct {
	mu sync.RWMutex
	m  map[string]*T
}

// Get returns the value for team, creating it if needed.
func (k *Keyed[T]) Get(team string) *T {
	k.mu.RLock()
	v, ok := k.m[team]
	k.mu.RUnlock()
	if ok {
		return v
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	// Double-check after acquiring write lock.
	if v, ok := k.m[team]; ok {
		return v
	}
	if k.m == nil {
		k.m = make(map[string]*T)
	}
	v = new(T)
	k.m[team] = v
	return v
}
