package stepflow

import (
	"errors"
	"fmt"

	"github.com/petrijr/stepflow/internal/engine"
	"github.com/petrijr/stepflow/pkg/api"
)

var (
	// ErrStepAfterDecision is the panic value raised when a step is added
	// after a Decision. A Decision must be the last step of its list.
	ErrStepAfterDecision = errors.New("stepflow: can't add another step after a decision")

	// ErrNilStep is the panic value raised when a nil step is added.
	ErrNilStep = errors.New("stepflow: step must not be nil")
)

// Builder provides a fluent API for assembling pipelines:
//
//	p := stepflow.New("approve-order").
//	    Add(fetchOrder, checkCredit).
//	    Add(stepflow.Decide(isPremium, premiumSteps, standardSteps)).
//	    OnError(handler).
//	    SetRestartLimit(3).
//	    Build()
//
//	out := p.Run(ctx, orderID)
//
// Misuse (nil steps, a step after a Decision, a negative restart limit)
// panics immediately.
type Builder struct {
	name          string
	steps         []api.LoggingDecorator
	handler       api.ErrorHandler
	filter        api.RestartFilter
	restartLimit  int
	statusFactory func() api.StatusManager
	logging       bool
	observer      api.Observer
}

// New creates a new pipeline builder with the given name.
func New(name string) *Builder {
	return &Builder{
		name:          name,
		handler:       api.PassThrough,
		restartLimit:  api.NoRestartLimit,
		statusFactory: api.NewStatusManager,
	}
}

// Name returns the pipeline name.
func (b *Builder) Name() string {
	return b.name
}

// Len returns the number of top-level steps added so far.
func (b *Builder) Len() int {
	return len(b.steps)
}

// Add appends steps in order. Each step is wrapped in a logging decorator.
func (b *Builder) Add(steps ...api.Step) *Builder {
	for _, s := range steps {
		if s == nil {
			panic(ErrNilStep)
		}
		b.ensureNotAfterDecision()
		b.steps = append(b.steps, api.WithLogging(s, nil, b.logging))
	}
	return b
}

// AddFactory appends the step returned by factory.
func (b *Builder) AddFactory(factory func() api.Step) *Builder {
	if factory == nil {
		panic(ErrNilStep)
	}
	b.ensureNotAfterDecision()
	return b.Add(factory())
}

// AddType appends a zero-valued *T, which must implement Step:
//
//	stepflow.AddType[LoadCustomer](b)
func AddType[T any, PT interface {
	*T
	api.Step
}](b *Builder) *Builder {
	b.ensureNotAfterDecision()
	return b.Add(PT(new(T)))
}

func (b *Builder) ensureNotAfterDecision() {
	if len(b.steps) == 0 {
		return
	}
	if endsInDecision(b.steps[len(b.steps)-1]) {
		panic(ErrStepAfterDecision)
	}
}

// wrapper is implemented by combinators that run a single inner step and
// forward its Decision outcome, such as Map and WithTimeout.
type wrapper interface {
	wrapped() Step
}

// endsInDecision reports whether step is a Decision once decorators and
// wrapping combinators are peeled off.
func endsInDecision(step Step) bool {
	for {
		step = api.Unwrap(step)
		if _, ok := step.(*Decision); ok {
			return true
		}
		w, ok := step.(wrapper)
		if !ok {
			return false
		}
		step = w.wrapped()
	}
}

// OnError sets the handler invoked for every Error outcome. A nil handler
// restores the pass-through default.
func (b *Builder) OnError(handler api.ErrorHandler) *Builder {
	if handler == nil {
		handler = api.PassThrough
	}
	b.handler = handler
	return b
}

// SetRestartLimit caps the number of restarts per Run. Use NoRestartLimit
// to remove the cap.
func (b *Builder) SetRestartLimit(limit int) *Builder {
	if limit < 0 && limit != api.NoRestartLimit {
		panic(fmt.Sprintf("stepflow: restart limit must not be negative, got %d", limit))
	}
	b.restartLimit = limit
	return b
}

// OnRestart sets the filter that computes the input of the next attempt.
func (b *Builder) OnRestart(filter api.RestartFilter) *Builder {
	b.filter = filter
	return b
}

// SetStatusManager sets the factory used to create the run-scoped status
// manager of every Run.
func (b *Builder) SetStatusManager(factory func() api.StatusManager) *Builder {
	if factory == nil {
		factory = api.NewStatusManager
	}
	b.statusFactory = factory
	return b
}

// EnableLogging turns the logging decorators and run events on or off.
func (b *Builder) EnableLogging(enable bool) *Builder {
	b.logging = enable
	return b
}

// WithObserver sets the sink that receives run and step events when logging
// is enabled. Without one, a LoggingObserver on slog.Default() is used.
func (b *Builder) WithObserver(obs api.Observer) *Builder {
	b.observer = obs
	return b
}

// Build returns an immutable Pipeline. The builder can keep being used; later
// changes do not affect pipelines already built.
func (b *Builder) Build() api.Pipeline {
	var obs api.Observer = api.NoopObserver{}
	if b.logging {
		obs = b.observer
		if obs == nil {
			obs = api.NewLoggingObserver(nil)
		}
	}

	steps := make([]api.Step, 0, len(b.steps))
	for _, s := range b.steps {
		steps = append(steps, s.Rebind(b.name, obs, b.logging))
	}

	return engine.New(engine.Config{
		Name:             b.name,
		Steps:            steps,
		ErrorHandler:     b.handler,
		RestartFilter:    b.filter,
		RestartLimit:     b.restartLimit,
		NewStatusManager: b.statusFactory,
		Observer:         obs,
	})
}
