// Package cluster groups samples of a spectral embedding into labels.
//
// 🚀 Processors
//
//   - KMeans       : Lloyd iterations with k-means++ seeding
//   - DBSCAN       : density clustering by ε-neighborhood expansion
//   - HDBSCAN      : hierarchical density clustering: mutual-reachability
//     distances, a Prim minimum spanning tree, and
//     excess-of-mass cluster extraction
//   - Agglomerative: bottom-up merging with Lance–Williams updates
//     (ward, complete, average, single linkages)
//
// Every processor is a pure function of its input and parameter values:
// labels come back as []int aligned with sample rows, −1 marking noise for
// the density methods. All accept either a raw sample matrix or the
// *embedding.Spectrum produced by the embedding stage, so they drop
// directly into the clustering fan-out.
//
// Determinism: k-means and everything touching randomness take a seed
// parameter; ties break by array order everywhere.
package cluster
