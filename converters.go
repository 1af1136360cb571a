package stepflow

import "fmt"

// Converter turns a value of some foreign type into the input type a typed
// step expects.
type Converter interface {
	CanConvert(v any) bool
	Convert(v any) (any, error)
}

// ConvertFrom builds a Converter from a function over a concrete source type.
//
//	stepflow.ConvertFrom(func(s string) (int, error) { return strconv.Atoi(s) })
func ConvertFrom[F, T any](fn func(F) (T, error)) Converter {
	return funcConverter[F, T](fn)
}

type funcConverter[F, T any] func(F) (T, error)

func (c funcConverter[F, T]) CanConvert(v any) bool {
	_, ok := v.(F)
	return ok
}

func (c funcConverter[F, T]) Convert(v any) (any, error) {
	f, ok := v.(F)
	if !ok {
		var zero F
		return nil, fmt.Errorf("convert: %w: expected %T, got %T", ErrInputType, zero, v)
	}
	return c(f)
}

// convertInput asserts input to I, falling back to the first converter that
// accepts it.
func convertInput[I any](input any, converters []Converter) (I, error) {
	var zero I
	if in, ok := input.(I); ok {
		return in, nil
	}
	for _, c := range converters {
		if !c.CanConvert(input) {
			continue
		}
		v, err := c.Convert(input)
		if err != nil {
			return zero, err
		}
		in, ok := v.(I)
		if !ok {
			return zero, fmt.Errorf("converter produced %T: %w: expected %T", v, ErrInputType, zero)
		}
		return in, nil
	}
	return zero, fmt.Errorf("%w: expected %T, got %T", ErrInputType, zero, input)
}
