package collection

import "sync"

// SyncMap is a map guarded by a read/write mutex.
type SyncMap[K comparable, V any] struct {
	m   map[K]V
	mux sync.RWMutex
}

func (m *SyncMap[K, V]) Get(k K) (V, bool) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	v, ok := m.m[k]
	return v, ok
}

func (m *SyncMap[K, V]) Put(k K, v V) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.m[k] = v
}

func (m *SyncMap[K, V]) Delete(keys ...K) {
	m.mux.Lock()
	defer m.mux.Unlock()
	for _, k := range keys {
		delete(m.m, k)
	}
}

// Len returns number of entries
func (m *SyncMap[K, V]) Len() int {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return len(m.m)
}

// Snapshot returns a shallow copy of the map.
func (m *SyncMap[K, V]) Snapshot() map[K]V {
	m.mux.RLock()
	defer m.mux.RUnlock()
	ret := make(map[K]V, len(m.m))
	for k, v := range m.m {
		ret[k] = v
	}
	return ret
}

// Range iterates over a snapshot so f may modify the map.
func (m *SyncMap[K, V]) Range(f func(key K, value V) bool) {
	for k, v := range m.Snapshot() {
		if !f(k, v) {
			return
		}
	}
}

func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{m: make(map[K]V)}
}
