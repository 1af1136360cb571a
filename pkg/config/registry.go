package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/petrijr/stepflow/pkg/api"
)

// StepFactory builds a step from its parameters.
type StepFactory func(p Params) (api.Step, error)

// PredicateFactory builds a decision predicate from its parameters.
type PredicateFactory func(p Params) (api.Predicate, error)

// ErrorHandlerFactory builds an error handler from its parameters.
type ErrorHandlerFactory func(p Params) (api.ErrorHandler, error)

// RestartFilterFactory builds a restart filter from its parameters.
type RestartFilterFactory func(p Params) (api.RestartFilter, error)

// Registry maps names to component factories. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	steps      map[string]StepFactory
	predicates map[string]PredicateFactory
	handlers   map[string]ErrorHandlerFactory
	filters    map[string]RestartFilterFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		steps:      make(map[string]StepFactory),
		predicates: make(map[string]PredicateFactory),
		handlers:   make(map[string]ErrorHandlerFactory),
		filters:    make(map[string]RestartFilterFactory),
	}
}

// RegisterStep adds a step factory under name. Overwrites any existing registration.
func (r *Registry) RegisterStep(name string, f StepFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.steps == nil {
		r.steps = make(map[string]StepFactory)
	}
	r.steps[name] = f
}

// RegisterStepValue registers a fixed step that ignores its parameters.
func (r *Registry) RegisterStepValue(name string, step api.Step) {
	r.RegisterStep(name, func(Params) (api.Step, error) { return step, nil })
}

// RegisterPredicate adds a predicate factory under name.
func (r *Registry) RegisterPredicate(name string, f PredicateFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.predicates == nil {
		r.predicates = make(map[string]PredicateFactory)
	}
	r.predicates[name] = f
}

// RegisterErrorHandler adds an error handler factory under name.
func (r *Registry) RegisterErrorHandler(name string, f ErrorHandlerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[string]ErrorHandlerFactory)
	}
	r.handlers[name] = f
}

// RegisterRestartFilter adds a restart filter factory under name.
func (r *Registry) RegisterRestartFilter(name string, f RestartFilterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filters == nil {
		r.filters = make(map[string]RestartFilterFactory)
	}
	r.filters[name] = f
}

// Step returns the step factory for name, or nil and false if not found.
func (r *Registry) Step(name string) (StepFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.steps[name]
	return f, ok
}

// Predicate returns the predicate factory for name.
func (r *Registry) Predicate(name string) (PredicateFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.predicates[name]
	return f, ok
}

// ErrorHandler returns the error handler factory for name.
func (r *Registry) ErrorHandler(name string) (ErrorHandlerFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.handlers[name]
	return f, ok
}

// RestartFilter returns the restart filter factory for name.
func (r *Registry) RestartFilter(name string) (RestartFilterFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// MustStep returns the step factory for name, or panics if not found.
func (r *Registry) MustStep(name string) StepFactory {
	f, ok := r.Step(name)
	if !ok {
		panic(fmt.Sprintf("config: step %q not registered", name))
	}
	return f
}

// StepNames returns all registered step names, sorted.
func (r *Registry) StepNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.steps)
}

// PredicateNames returns all registered predicate names, sorted.
func (r *Registry) PredicateNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.predicates)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
