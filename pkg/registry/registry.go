// Package registry holds host functions that story scripts can call like
// builtins, e.g. `option "Buy" if can_afford(gold, 10)`.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrFunctionNotFound is returned when a script calls an unregistered function.
var ErrFunctionNotFound = errors.New("function not found")

// Function is a host function. Arguments arrive as script values: float64,
// string, bool or nil. The result must be one of those types as well.
type Function func(ctx context.Context, args []any) (any, error)

// Registry manages the available functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Function),
	}
}

// Register adds a function to the registry.
// If a function with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// Names lists the registered functions, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Call looks up a function by name and executes it.
func (r *Registry) Call(ctx context.Context, name string, args []any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}
	return fn(ctx, args)
}
