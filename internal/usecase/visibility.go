package usecase

import "sync"

// VisibilityStore is the dashboard's visible-hub set. The engine marks each
// hub once on seed; afterwards only callers toggle it.
type VisibilityStore struct {
	mu sync.RWMutex
	m  map[string]bool
}

func NewVisibilityStore() *VisibilityStore {
	return &VisibilityStore{m: make(map[string]bool)}
}

// Show marks hub visible.
func (v *VisibilityStore) Show(hub string) { v.Set(hub, true) }

func (v *VisibilityStore) Set(hub string, visible bool) {
	v.mu.Lock()
	v.m[hub] = visible
	v.mu.Unlock()
}

func (v *VisibilityStore) Visible(hub string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.m[hub]
}

// Count returns how many hubs are currently visible.
func (v *VisibilityStore) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n := 0
	for _, on := range v.m {
		if on {
			n++
		}
	}
	return n
}
