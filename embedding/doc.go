// Package embedding turns matrices into lower-dimensional representations.
//
// 🚀 Processors
//
//   - EigenDecomposition: the spectral embedding itself: the k
//     largest-magnitude eigenpairs of a graph Laplacian, computed with
//     seeded subspace iteration (QR re-orthogonalization + Rayleigh–Ritz).
//     Eigenvalues are reported as 1−λ so that larger-is-more-similar matches
//     the affinity semantics; eigenvector rows are L2-normalized onto the
//     unit hypersphere, which makes Euclidean clustering on the embedding
//     behave like clustering on graph similarity.
//   - PCA: linear projection onto the top principal components.
//   - TSNE: exact t-SNE gradient descent for 2-d visualization.
//   - UMAP: fuzzy simplicial set + SGD layout for 2-d visualization.
//
// All processors are deterministic for a fixed seed parameter. Non-linear
// embeddings accept either a raw *matrix.Dense or the *Spectrum produced by
// EigenDecomposition (they operate on its eigenvector rows), so they can sit
// directly behind the embedding stage in a fan-out.
package embedding
