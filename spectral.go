package spectral

import (
	"github.com/katalvlaran/spectral/affinity"
	"github.com/katalvlaran/spectral/cluster"
	"github.com/katalvlaran/spectral/distance"
	"github.com/katalvlaran/spectral/embedding"
	"github.com/katalvlaran/spectral/laplacian"
	"github.com/katalvlaran/spectral/pipeline"
)

// Stage names of the canonical schemas, for use with pipeline.Stage.
const (
	StagePreprocessing = "preprocessing"
	StageDistance      = "pairwise_distance"
	StageAffinity      = "affinity"
	StageLaplacian     = "laplacian"
	StageEmbedding     = "embedding"
	StageClustering    = "clustering"
)

// must unwraps a processor constructor at schema-build time. Defaults are
// authored in this file with no overrides, so an error is a programmer error.
func must[N pipeline.Node](n N, err error) N {
	if err != nil {
		panic(err)
	}

	return n
}

// EmbeddingSchema declares the spectral-embedding stages in execution order:
//
//	preprocessing → pairwise_distance → affinity → laplacian → embedding
//
// Defaults: identity preprocessing, Euclidean distances, a symmetric 10-NN
// affinity graph, the symmetric normalized Laplacian and a 32-eigenvector
// decomposition whose result is the pipeline output. Every stage can be
// rebound through pipeline.Stage; the numeric stages only accept nodes of
// their declared kind, so a mismatched binding fails at construction.
func EmbeddingSchema() *pipeline.Schema {
	return pipeline.MustSchema(
		pipeline.Task{Name: StagePreprocessing},
		pipeline.Task{
			Name:    StageDistance,
			Kind:    pipeline.KindOf[distance.Metric](),
			Default: must(distance.NewPairwise()),
		},
		pipeline.Task{
			Name:    StageAffinity,
			Kind:    pipeline.KindOf[affinity.Kernel](),
			Default: must(affinity.NewSparseKNN()),
		},
		pipeline.Task{
			Name:    StageLaplacian,
			Kind:    pipeline.KindOf[laplacian.Operator](),
			Default: must(laplacian.NewSymmetricNormal()),
		},
		pipeline.Task{
			Name:    StageEmbedding,
			Kind:    pipeline.KindOf[embedding.Embedder](),
			Default: must(embedding.NewEigenDecomposition()),
			Output:  true,
		},
	)
}

// ClusteringSchema extends EmbeddingSchema with a clustering stage fed by the
// embedding. Both the embedding and the cluster labels are pipeline outputs.
// The clustering stage declares no kind: besides single cluster.Clusterer
// nodes it takes whole fan-out combinators of sweeps and 2-d layouts.
func ClusteringSchema() *pipeline.Schema {
	return EmbeddingSchema().Extend(
		pipeline.Task{Name: StageClustering, Default: must(cluster.NewKMeans()), Output: true},
	)
}

// NewSpectralEmbedding builds the canonical embedding pipeline; bindings
// override stage defaults. Process maps an attribution input (whatever the
// bound preprocessing accepts, samples×features by default) to an
// *embedding.Spectrum.
func NewSpectralEmbedding(bindings ...pipeline.Binding) (*pipeline.Pipeline, error) {
	return pipeline.NewNamed("spectral.SpectralEmbedding", EmbeddingSchema(), bindings...)
}

// NewSpectralClustering builds the canonical clustering pipeline; bindings
// override stage defaults. Process returns a pipeline.Tuple of the
// *embedding.Spectrum and the []int cluster labels, in stage order.
func NewSpectralClustering(bindings ...pipeline.Binding) (*pipeline.Pipeline, error) {
	return pipeline.NewNamed("spectral.SpectralClustering", ClusteringSchema(), bindings...)
}
