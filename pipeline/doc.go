// Package pipeline is the composable execution engine: processors are named,
// parameterized functions from input to output; combinators compose them
// into trees; schemas declare ordered, inheritable stage lists; a Pipeline
// binds one node per stage and threads data through them.
//
// 🚀 Building blocks
//
//   - Processor: the atomic unit: declared parameter slots (package param)
//     plus a single Function(data) (any, error).
//   - Sequential: folds data through child nodes in order.
//   - Parallel: fans input out to child nodes and collects a Tuple of
//     results; with Broadcast every child sees the same input, without it the
//     input must be a Tuple whose length matches the child count.
//   - Schema / Task: an ordered stage registry; Extend inherits stages,
//     overriding by name in place.
//   - Pipeline: binds nodes to schema stages, executes them in order and
//     surfaces every node flagged as output in a flat Tuple.
//
// ✨ Semantics worth remembering
//
//   - configuration errors (unknown stage, unknown parameter, bad type) are
//     raised at construction, never at call time
//   - a child failure aborts the whole evaluation: no partial results
//   - Parallel is a data-fan-out abstraction; it runs sequentially unless
//     Workers(n) opts into concurrent branch evaluation, which still keeps
//     declaration order in the result Tuple and propagates the first error
//   - a Pipeline value holds no per-invocation state: the same instance may
//     serve concurrent Process calls over different inputs as long as its
//     parameters are not mutated mid-flight
//
// ⚙️ Usage
//
//	pipe, err := pipeline.New(schema,
//	    pipeline.Stage("affinity", knn),
//	    pipeline.Stage("clustering", fanout),
//	)
//	out, err := pipe.Process(samples)
//
// See the root spectral package for the concrete spectral-analysis schema.
package pipeline
