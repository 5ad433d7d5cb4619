package adapter

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrDuplicateCode = errors.New("adapter code already registered")
	ErrUnknownCode   = errors.New("unknown adapter code")
)

// Registry maps adapter codes to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// Default is the process-wide registry adapters add themselves to from init.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

func (r *Registry) Register(code string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[code]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCode, code)
	}
	r.factories[code] = factory
	return nil
}

// MustRegister is Register for init functions.
func (r *Registry) MustRegister(code string, factory Factory) {
	if err := r.Register(code, factory); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(code string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCode, code)
	}
	return factory, nil
}

// Codes lists registered codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.factories))
	for code := range r.factories {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
