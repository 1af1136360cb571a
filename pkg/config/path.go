package config

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ToJSON returns the JSON form of a pipeline value. Strings and byte slices
// that already hold valid JSON are used as-is; anything else is marshaled.
func ToJSON(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		if gjson.ValidBytes(x) {
			return x, nil
		}
	case string:
		if gjson.Valid(x) {
			return []byte(x), nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T as json: %w", v, err)
	}
	return data, nil
}

// Lookup evaluates a gjson path against the JSON form of input. An empty
// path selects the whole value.
//
//	Lookup(map[string]any{"order": map[string]any{"id": 7}}, "order.id").Int() // 7
func Lookup(input any, path string) (gjson.Result, error) {
	data, err := ToJSON(input)
	if err != nil {
		return gjson.Result{}, err
	}
	if path == "" {
		return gjson.ParseBytes(data), nil
	}
	return gjson.GetBytes(data, path), nil
}

// LookupAll resolves each path against input and returns the plain Go values,
// ready to be used as SQL arguments.
func LookupAll(input any, paths []string) ([]any, error) {
	data, err := ToJSON(input)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(paths))
	for _, p := range paths {
		res := gjson.GetBytes(data, p)
		if !res.Exists() {
			return nil, fmt.Errorf("path %q: not found in input", p)
		}
		out = append(out, res.Value())
	}
	return out, nil
}

// Set writes value at path in the JSON form of input and returns the result
// decoded into plain Go values (maps, slices, float64, string, bool, nil).
func Set(input any, path string, value any) (any, error) {
	data, err := ToJSON(input)
	if err != nil {
		return nil, err
	}
	out, err := sjson.SetBytes(data, path, value)
	if err != nil {
		return nil, fmt.Errorf("set %q: %w", path, err)
	}
	return gjson.ParseBytes(out).Value(), nil
}
