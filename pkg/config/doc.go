// Package config builds stepflow pipelines from YAML definitions.
//
// Steps, decision predicates, error handlers and restart filters are looked
// up by name in a Registry. RegisterBuiltins adds a set of general-purpose
// components; applications register their own next to them.
//
//	reg := config.NewRegistry()
//	config.RegisterBuiltins(reg)
//	reg.RegisterStepValue("fetch-order", fetchOrder)
//
//	cfg, err := config.ParseFile("order.yaml")
//	p, err := config.Build(reg, cfg, nil)
//
// Step inputs are addressed with gjson paths (for example "order.items.0.id")
// by the predicates and steps that take a "path" parameter.
package config
