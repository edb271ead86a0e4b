package state

import "sync"

// Handlers maps state names to the handler responsible for that step.
type Handlers[H any] struct {
	mu sync.RWMutex
	m  map[string]H
}

// NewHandlers returns an empty handler table.
func NewHandlers[H any]() *Handlers[H] {
	return &Handlers[H]{m: make(map[string]H)}
}

// Register associates a state name with its handler. A later call for the
// same name replaces the earlier one.
func (h *Handlers[H]) Register(name string, handler H) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.m[name] = handler
}

// Lookup returns the handler for name.
func (h *Handlers[H]) Lookup(name string) (H, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handler, ok := h.m[name]
	return handler, ok
}
