package tatte

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownImplementation is returned by GetImplementation for unregistered names.
var ErrUnknownImplementation = errors.New("unknown implementation")

// Factory constructs a fresh implementation.
type Factory func() Interface

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes an implementation available under name. It is meant to be
// called from an init function and panics on duplicate or empty names.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if name == "" || factory == nil {
		panic("tatte: Register with empty name or nil factory")
	}
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("tatte: implementation %q registered twice", name))
	}
	registry[name] = factory
}

// GetImplementation returns a new instance of the named implementation.
func GetImplementation(name string) (Interface, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownImplementation, name)
	}
	return factory(), nil
}

// Implementations lists registered names in sorted order.
func Implementations() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
