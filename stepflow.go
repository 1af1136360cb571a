package stepflow

import (
	"github.com/petrijr/stepflow/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Pipeline             = api.Pipeline
	Step                 = api.Step
	Gate                 = api.Gate
	GatedStep            = api.GatedStep
	StepFunc             = api.StepFunc
	GateFunc             = api.GateFunc
	Outcome              = api.Outcome
	OutcomeKind          = api.OutcomeKind
	GateOutcome          = api.GateOutcome
	GateKind             = api.GateKind
	FlowState            = api.FlowState
	Predicate            = api.Predicate
	Decision             = api.Decision
	ErrorHandler         = api.ErrorHandler
	ErrorHandlerFunc     = api.ErrorHandlerFunc
	RestartFilter        = api.RestartFilter
	RestartFilterFunc    = api.RestartFilterFunc
	StatusManager        = api.StatusManager
	PanicError           = api.PanicError
	Observer             = api.Observer
	RunInfo              = api.RunInfo
	StepCall             = api.StepCall
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export outcome and gate constructors.

var (
	Success             = api.Success
	Error               = api.Error
	ErrorWithValue      = api.ErrorWithValue
	Errorf              = api.Errorf
	GoToEnd             = api.GoToEnd
	Restart             = api.Restart
	RestartLimitReached = api.RestartLimitReached

	Continue     = api.Continue
	Skip         = api.Skip
	GateError    = api.GateError
	GateFromBool = api.GateFromBool

	NewDecision          = api.NewDecision
	NewStatusManager     = api.NewStatusManager
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver

	PassThrough       = api.PassThrough
	ErrInvalidOutcome = api.ErrInvalidOutcome
	ErrGateFailed     = api.ErrGateFailed
)

// Re-export outcome kinds for convenience.

const (
	OutcomeSuccess             = api.OutcomeSuccess
	OutcomeError               = api.OutcomeError
	OutcomeGoToEnd             = api.OutcomeGoToEnd
	OutcomeRestart             = api.OutcomeRestart
	OutcomeRestartLimitReached = api.OutcomeRestartLimitReached

	NoRestartLimit = api.NoRestartLimit
)
