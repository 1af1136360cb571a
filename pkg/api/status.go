package api

// StatusManager holds the run-scoped counters used to build FlowState.
//
// The engine asks its factory for a fresh StatusManager on every Run, so an
// implementation only ever serves one run at a time.
type StatusManager interface {
	Reset()
	RecordInitialInput(input any)
	IncrementRestartCount()
	RestartCount() int
	BuildState(last Outcome) FlowState
}

// DefaultStatusManager is the StatusManager used when none is configured.
type DefaultStatusManager struct {
	restartCount int
	initialInput any
}

var _ StatusManager = (*DefaultStatusManager)(nil)

// NewStatusManager returns a zeroed DefaultStatusManager. Its signature
// matches the factory expected by the builder.
func NewStatusManager() StatusManager {
	return &DefaultStatusManager{}
}

func (m *DefaultStatusManager) Reset() {
	m.restartCount = 0
	m.initialInput = nil
}

func (m *DefaultStatusManager) RecordInitialInput(input any) { m.initialInput = input }

func (m *DefaultStatusManager) IncrementRestartCount() { m.restartCount++ }

func (m *DefaultStatusManager) RestartCount() int { return m.restartCount }

func (m *DefaultStatusManager) BuildState(Outcome) FlowState {
	return FlowState{
		RestartCount: m.restartCount,
		InitialInput: m.initialInput,
	}
}
