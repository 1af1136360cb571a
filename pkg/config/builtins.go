package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/petrijr/stepflow"
	"github.com/petrijr/stepflow/pkg/api"
)

// RegisterBuiltins adds the general-purpose components every registry can
// use:
//
//	steps:      identity, constant, fail, goto-end, restart, increment, json-get, json-set
//	predicates: equals, is-nil, restart-count-below
//	handlers:   pass-through, recover-to, restart
//	filters:    reset-input, keep
func RegisterBuiltins(reg *Registry) {
	reg.RegisterStepValue("identity", stepflow.Identity())
	reg.RegisterStep("constant", func(p Params) (api.Step, error) {
		if !p.Has("value") {
			return nil, fmt.Errorf("param %q: required", "value")
		}
		return stepflow.Constant(p.Any("value", nil)), nil
	})
	reg.RegisterStep("fail", func(p Params) (api.Step, error) {
		msg, err := p.String("message", "failed")
		if err != nil {
			return nil, err
		}
		return api.StepFunc(func(_ context.Context, input any, _ api.FlowState) api.Outcome {
			return api.ErrorWithValue(errors.New(msg), input)
		}), nil
	})
	reg.RegisterStepValue("goto-end", api.StepFunc(func(_ context.Context, input any, _ api.FlowState) api.Outcome {
		return api.GoToEnd(input)
	}))
	reg.RegisterStep("restart", func(p Params) (api.Step, error) {
		value, hasValue := p["value"]
		return api.StepFunc(func(_ context.Context, input any, _ api.FlowState) api.Outcome {
			if hasValue {
				return api.Restart(value)
			}
			return api.Restart(input)
		}), nil
	})
	reg.RegisterStep("increment", incrementStep)
	reg.RegisterStep("json-get", func(p Params) (api.Step, error) {
		path, err := p.RequiredString("path")
		if err != nil {
			return nil, err
		}
		return stepflow.Func(func(_ context.Context, input any, _ api.FlowState) (any, error) {
			res, err := Lookup(input, path)
			if err != nil {
				return nil, err
			}
			if !res.Exists() {
				return nil, fmt.Errorf("json-get: path %q: not found", path)
			}
			return res.Value(), nil
		}), nil
	})
	reg.RegisterStep("json-set", func(p Params) (api.Step, error) {
		path, err := p.RequiredString("path")
		if err != nil {
			return nil, err
		}
		value := p.Any("value", nil)
		return stepflow.Func(func(_ context.Context, input any, _ api.FlowState) (any, error) {
			return Set(input, path, value)
		}), nil
	})

	reg.RegisterPredicate("equals", func(p Params) (api.Predicate, error) {
		path, err := p.String("path", "")
		if err != nil {
			return nil, err
		}
		want := p.Any("value", nil)
		return func(_ context.Context, input any, _ api.FlowState) (bool, error) {
			got, err := Lookup(input, path)
			if err != nil {
				return false, err
			}
			return valuesEqual(got.Value(), want), nil
		}, nil
	})
	reg.RegisterPredicate("is-nil", func(p Params) (api.Predicate, error) {
		path, err := p.String("path", "")
		if err != nil {
			return nil, err
		}
		return func(_ context.Context, input any, _ api.FlowState) (bool, error) {
			if input == nil {
				return true, nil
			}
			got, err := Lookup(input, path)
			if err != nil {
				return false, err
			}
			return !got.Exists() || got.Value() == nil, nil
		}, nil
	})
	reg.RegisterPredicate("restart-count-below", func(p Params) (api.Predicate, error) {
		n, err := p.Int("count", 1)
		if err != nil {
			return nil, err
		}
		return func(_ context.Context, _ any, state api.FlowState) (bool, error) {
			return state.RestartCount < n, nil
		}, nil
	})

	reg.RegisterErrorHandler("pass-through", func(Params) (api.ErrorHandler, error) {
		return api.PassThrough, nil
	})
	reg.RegisterErrorHandler("recover-to", func(p Params) (api.ErrorHandler, error) {
		if !p.Has("value") {
			return nil, fmt.Errorf("param %q: required", "value")
		}
		value := p.Any("value", nil)
		return api.ErrorHandlerFunc(func(context.Context, api.Outcome) api.Outcome {
			return api.Success(value)
		}), nil
	})
	reg.RegisterErrorHandler("restart", func(p Params) (api.ErrorHandler, error) {
		value, hasValue := p["value"]
		return api.ErrorHandlerFunc(func(_ context.Context, failed api.Outcome) api.Outcome {
			if hasValue {
				return api.Restart(value)
			}
			return api.Restart(failed.Value)
		}), nil
	})

	reg.RegisterRestartFilter("reset-input", func(Params) (api.RestartFilter, error) {
		return stepflow.ResetInput, nil
	})
	reg.RegisterRestartFilter("keep", func(Params) (api.RestartFilter, error) {
		return api.RestartFilterFunc(func(_ context.Context, restart api.Outcome, _ api.FlowState) any {
			return restart.Value
		}), nil
	})
}

func incrementStep(p Params) (api.Step, error) {
	by, err := p.Float("by", 1)
	if err != nil {
		return nil, err
	}
	return stepflow.Func(func(_ context.Context, input any, _ api.FlowState) (any, error) {
		switch n := input.(type) {
		case nil:
			return by, nil
		case int:
			if by == float64(int(by)) {
				return n + int(by), nil
			}
			return float64(n) + by, nil
		case int64:
			if by == float64(int64(by)) {
				return n + int64(by), nil
			}
			return float64(n) + by, nil
		case float64:
			return n + by, nil
		default:
			return nil, fmt.Errorf("increment: expected a number, got %T", input)
		}
	}), nil
}

// valuesEqual compares a value decoded from JSON with one decoded from YAML.
// Numbers are compared by value whatever their Go type.
func valuesEqual(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
