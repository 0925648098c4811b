package translation

import (
	"strings"
	"sync"
)

// Registry tracks the jobs currently running in this process.
type Registry struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		running: make(map[string]struct{}),
	}
}

// TryClaim registers key and reports whether the caller now owns it.
func (r *Registry) TryClaim(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.running[key]; ok {
		return false
	}
	r.running[key] = struct{}{}
	return true
}

// Release removes key
func (r *Registry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, key)
}

// InFlight reports whether key is claimed
func (r *Registry) InFlight(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[key]
	return ok
}

// InFlightFor reports whether any job for profileID is claimed
func (r *Registry) InFlightFor(profileID string) bool {
	prefix := profileID + ":"
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.running {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// Len returns the number of claimed jobs
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}
