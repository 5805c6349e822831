package story

import (
	"maps"
	"sync"
)

// Environment holds properties shared by every story evaluated by the same
// host (the `shared` declarations of the DSL). Each reading starts from a
// copy and never writes back. Safe for concurrent use.
type Environment struct {
	mu    sync.RWMutex
	props map[string]any
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{props: make(map[string]any)}
}

// Get returns a property value.
func (e *Environment) Get(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.props[name]
	return v, ok
}

// Set stores a property value.
func (e *Environment) Set(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.props[name] = value
}

// GetOrInit returns the current value, storing def first when the property is unset.
func (e *Environment) GetOrInit(name string, def any) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.props[name]; ok {
		return v
	}
	e.props[name] = def
	return def
}

// Snapshot copies every property.
func (e *Environment) Snapshot() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.props)
}

// Reset drops every property.
func (e *Environment) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.props)
}
