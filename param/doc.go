// Package param implements typed, declarative parameter slots for pipeline
// processors.
//
// 🚀 What is a parameter slot?
//
//	A Spec declares a named value with an allowed type-set, an optional
//	default and a mandatory flag. Specs are collected into an ordered
//	Registry; a Registry is bound to concrete overrides to produce Values,
//	the per-instance storage every processor carries.
//
// ✨ Key properties:
//   - declaration order is preserved across Extend (derived registries
//     append new slots and override inherited ones in place)
//   - three resolution layers on read: explicit value → instance default →
//     spec default
//   - all validation happens at bind time: unknown names, type mismatches
//     and unsatisfiable mandatory slots fail with ErrConfiguration before
//     any instance exists
//
// ⚙️ Usage:
//
//	var knnParams = param.NewRegistry(
//	    param.Spec{Name: "n_neighbors", Types: param.Types(param.Int), Default: 10},
//	    param.Spec{Name: "symmetric", Types: param.Types(param.Bool), Default: true},
//	)
//
//	values, err := knnParams.Bind(map[string]any{"n_neighbors": 5})
//	if err != nil {
//	    // unknown name or wrong type
//	}
//	k := values.Int("n_neighbors") // 5
//
// Registry construction panics on malformed Specs (programmer error);
// everything driven by caller data returns ErrConfiguration.
package param
