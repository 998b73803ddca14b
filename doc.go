// Package spectral is a composable spectral-analysis toolkit for clustering
// model attributions, from raw attribution tensors to eigenvector
// embeddings and cluster labels.
//
// 🚀 What is spectral?
//
//	A deterministic, pure-Go pipeline engine plus the numeric stages it runs:
//		• Parameter slots: typed, ordered, validated at construction
//		• Combinators: Sequential folds, Parallel fan-outs, nested Pipelines
//		• Distances: Euclidean, squared, Manhattan, cosine, Chebyshev
//		• Affinities: sparse k-NN graphs, radial-basis kernels
//		• Laplacians: symmetric and random-walk normalizations
//		• Embeddings: eigendecomposition, PCA, t-SNE, UMAP
//		• Clusterings: k-means, DBSCAN, HDBSCAN, agglomerative
//
// ✨ Why choose spectral?
//
//   - Declarative pipelines – schemas name the stages, bindings fill them
//   - Deterministic – seeded randomness, index-ordered tie-breaks
//   - Composable – every pipeline is itself a processor, so they nest
//
// Under the hood, everything is organized under focused subpackages:
//
//	param/      - typed parameter slots, registries, binding
//	pipeline/   - processors, combinators, schemas, pipelines
//	tensor/     - attribution arrays & reductions
//	matrix/     - dense & CSR sparse matrices, Jacobi eigen, thin QR
//	preprocess/ - flatten, absolute, channel sums, normalization, histograms
//	distance/   - pairwise distance matrices
//	affinity/   - sparse k-NN & RBF affinity graphs
//	laplacian/  - normalized graph Laplacians
//	embedding/  - eigen decomposition, PCA, t-SNE, UMAP
//	cluster/    - k-means, DBSCAN, HDBSCAN, agglomerative
//	analysis/   - the full fan-out analysis runner & its YAML config
//
// The root package assembles the canonical pipelines: SpectralEmbedding
// (attributions → eigenvector embedding) and SpectralClustering (the same,
// plus a clustering stage on top).
package spectral
