package skills

import (
	"fmt"
	"sort"
	"sync"
)

// Skill is implemented by every skill definition discoverable through the
// registry.
type Skill interface {
	Slug() string
}

// Factory produces a fresh instance of a registered skill.
type Factory func() Skill

// Registry is a name-to-factory lookup for skill definitions. It is
// populated by explicit Register calls during application bootstrap rather
// than by package-level side effects, so the set of available skills is
// always visible at the wiring site.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a skill factory under the given name. Duplicate names are
// rejected.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("skill name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("skill %q: factory must not be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("skill %q is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is Register for bootstrap paths where a duplicate is a
// programming error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Get returns the factory registered under name.
func (r *Registry) Get(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("skill %q is not registered", name)
	}
	return factory, nil
}

// Contains reports whether a skill is registered under name
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns all registered skill names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered skills
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}
