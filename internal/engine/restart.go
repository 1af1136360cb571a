package engine

import (
	"context"

	"github.com/petrijr/stepflow/pkg/api"
)

// runWithRestarts runs the step list and applies the restart policy until
// the outcome is something other than Restart. The restart counter and the
// recorded initial input survive across attempts.
func (p *Pipeline) runWithRestarts(ctx context.Context, r *run, input any) api.Outcome {
	for {
		out, state := p.runOnce(ctx, r, input)
		if !out.IsRestart() {
			return out
		}
		if p.limitReached(r.status.RestartCount()) {
			return api.RestartLimitReached(out)
		}

		next, err := p.nextInput(ctx, out, state)
		if err != nil {
			return api.Error(err)
		}
		r.status.IncrementRestartCount()
		p.observer.OnRestart(ctx, r.info, r.status.RestartCount(), next)
		input = next
	}
}

func (p *Pipeline) limitReached(count int) bool {
	return p.restartLimit != api.NoRestartLimit && count >= p.restartLimit
}

// nextInput applies the restart filter, if any. Without a filter the
// restart value is reused as-is.
func (p *Pipeline) nextInput(ctx context.Context, restart api.Outcome, state api.FlowState) (next any, err error) {
	if p.filter == nil {
		return restart.Value, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = api.NewPanicError(rec)
		}
	}()
	return p.filter.Transform(ctx, restart, state), nil
}
