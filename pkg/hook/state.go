package hook

import "sync"

// HostState is the narrow mutable handle the engine grants to source-mode
// entry points and contract-parsing middleware. Keys and semantics are
// owned by the host program; the engine never reads or writes it.
type HostState struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewHostState returns an empty host state
func NewHostState() *HostState {
	return &HostState{values: make(map[string]interface{})}
}

// Set stores value under key
func (h *HostState) Set(key string, value interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.values == nil {
		h.values = make(map[string]interface{})
	}
	h.values[key] = value
}

// Get returns the value stored under key
func (h *HostState) Get(key string) (interface{}, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.values[key]
	return v, ok
}

// Bool reports whether key holds the boolean true
func (h *HostState) Bool(key string) bool {
	v, ok := h.Get(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// String returns the string stored under key, or "" when absent or not a
// string
func (h *HostState) String(key string) string {
	v, ok := h.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Delete removes key
func (h *HostState) Delete(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.values, key)
}

// Clear removes every stored value
func (h *HostState) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = make(map[string]interface{})
}
