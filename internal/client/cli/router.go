package cli

import "sync"

// Router holds the current route. It is the guards' Navigator.
type Router struct {
	mu      sync.RWMutex
	current string
	history []string
}

func NewRouter(start string) *Router {
	return &Router{current: start}
}

// Replace swaps the current route, like a browser's location.replace.
// Every call is recorded for Replacements.
func (r *Router) Replace(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = path
	r.history = append(r.history, path)
}

func (r *Router) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Replacements lists every path passed to Replace, oldest first.
func (r *Router) Replacements() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.history...)
}
