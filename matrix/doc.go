// Package matrix provides the numeric kernels shared by the spectral
// pipeline stages: a row-major dense matrix, a compressed-sparse-row matrix
// for affinity graphs, Jacobi eigendecomposition and a thin QR factorization.
//
// Design goals (in order):
//   - Deterministic behavior: fixed loop orders, no global state, no hidden
//     randomness. The same input always produces the same output.
//   - Safe by construction: constructors validate shape; public indexers
//     return errors instead of panicking; NaN/Inf is rejected where a kernel
//     assumes finite values.
//   - Only what the pipeline exercises: this is not a general linear-algebra
//     library. Every exported kernel has a caller in a stage package.
//
// All user-triggered failures return package sentinels (errors.go) and are
// matched with errors.Is.
package matrix
