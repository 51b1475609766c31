package bot

import (
	"slices"
	"sync"
)

// Registry collects the modules compiled into the binary. Feature packages
// register themselves from init(), so the import list in main decides which
// modules the bot ships with.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a module. Registration order is preserved and determines
// init, command registration and shutdown order.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = append(r.modules, m)
}

// Modules returns a snapshot of the registered modules. Later registrations
// do not show up in a snapshot already handed out.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.modules)
}

var globalRegistry = NewRegistry()

// Register adds a module to the global registry. Called from feature
// package init() functions.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry swaps in a fresh global registry. Tests only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
