package analysis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/spectral"
	"github.com/katalvlaran/spectral/affinity"
	"github.com/katalvlaran/spectral/cluster"
	"github.com/katalvlaran/spectral/embedding"
	"github.com/katalvlaran/spectral/matrix"
	"github.com/katalvlaran/spectral/pipeline"
	"github.com/katalvlaran/spectral/tensor"
)

// ErrNilCollaborator is returned by NewRunner for a missing loader or sink.
var ErrNilCollaborator = fmt.Errorf("analysis: nil loader or sink: %w", pipeline.ErrConfiguration)

// Runner drives the full meta-analysis: per class it runs the spectral
// clustering pipeline with the configured preprocessing variant and a
// clustering fan-out (k-means / DBSCAN / agglomerative sweeps, HDBSCAN,
// t-SNE and UMAP layouts), then writes every result into the Sink.
type Runner struct {
	cfg    Config
	loader Loader
	sink   Sink
	log    zerolog.Logger
}

// NewRunner validates the config and wires the collaborators.
func NewRunner(cfg Config, loader Loader, sink Sink, log zerolog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if loader == nil || sink == nil {
		return nil, ErrNilCollaborator
	}

	return &Runner{cfg: cfg, loader: loader, sink: sink, log: log}, nil
}

// Run analyzes every configured class, up to cfg.Workers concurrently. The
// first class failure cancels the rest; the sink then holds the groups of
// the classes that completed before the failure.
func (r *Runner) Run(ctx context.Context) error {
	classes := r.cfg.Classes
	if len(classes) == 0 {
		classes = r.loader.Classes()
	}
	runID := uuid.New()
	r.log.Info().
		Str("run", runID.String()).
		Str("variant", r.cfg.Variant).
		Ints("classes", classes).
		Msg("analysis started")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for _, class := range classes {
		class := class
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.analyzeClass(class, runID); err != nil {
				return fmt.Errorf("class %d: %w", class, err)
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.log.Error().Str("run", runID.String()).Err(err).Msg("analysis failed")

		return err
	}
	r.log.Info().Str("run", runID.String()).Msg("analysis finished")

	return nil
}

// branch names one fan-out leaf and the metadata its sink group carries.
type branch struct {
	name  string
	attrs map[string]string
}

func (r *Runner) analyzeClass(class int, runID uuid.UUID) error {
	data, indices, err := r.loader.LoadClass(class)
	if err != nil {
		return err
	}
	r.log.Debug().
		Str("run", runID.String()).
		Int("class", class).
		Ints("shape", data.Shape()).
		Msg("class loaded")

	pipe, branches, err := r.buildPipeline(data)
	if err != nil {
		return err
	}
	out, err := pipe.Process(data)
	if err != nil {
		return err
	}

	// Tuple{*Spectrum, Tuple{sweep Tuples and bare results}} per the output
	// contract; the sweeps flatten to one leaf per branch.
	results, ok := out.(pipeline.Tuple)
	if !ok || len(results) != 2 {
		return fmt.Errorf("got %T: %w", out, pipeline.ErrArity)
	}
	spectrum, ok := results[0].(*embedding.Spectrum)
	if !ok {
		return fmt.Errorf("embedding stage returned %T: %w", results[0], pipeline.ErrShape)
	}
	fanout, ok := results[1].(pipeline.Tuple)
	if !ok {
		return fmt.Errorf("clustering stage returned %T: %w", results[1], pipeline.ErrArity)
	}
	leaves := flattenFanout(fanout)
	if len(leaves) != len(branches) {
		return fmt.Errorf("fan-out yielded %d results for %d branches: %w",
			len(leaves), len(branches), pipeline.ErrArity)
	}

	prefix := fmt.Sprintf("%03d", class)
	base := map[string]string{"run": runID.String(), "class": strconv.Itoa(class)}
	if err = r.sink.WriteGroup(prefix+"/spectral", spectrumGroup(spectrum, indices, base)); err != nil {
		return err
	}
	for i, b := range branches {
		group, groupErr := resultGroup(leaves[i], indices, merge(base, b.attrs))
		if groupErr != nil {
			return fmt.Errorf("%s: %w", b.name, groupErr)
		}
		if err = r.sink.WriteGroup(prefix+"/"+b.name, group); err != nil {
			return err
		}
	}
	r.log.Info().
		Str("run", runID.String()).
		Int("class", class).
		Int("samples", data.Samples()).
		Int("groups", len(branches)+1).
		Msg("class analyzed")

	return nil
}

// buildPipeline assembles the class pipeline: variant preprocessing, the
// configured affinity and embedding widths, and the clustering fan-out.
func (r *Runner) buildPipeline(data *tensor.Array) (*pipeline.Pipeline, []branch, error) {
	pre, err := Preprocessing(r.cfg.Variant, data.Rank(), r.cfg.HistogramBins)
	if err != nil {
		return nil, nil, err
	}
	knn, err := affinity.NewSparseKNN(pipeline.WithParam("n_neighbors", r.cfg.NNeighbors))
	if err != nil {
		return nil, nil, err
	}
	eig, err := embedding.NewEigenDecomposition(
		pipeline.WithParam("n_eigval", r.cfg.NEigval),
		pipeline.WithParam("seed", r.cfg.Seed),
	)
	if err != nil {
		return nil, nil, err
	}
	fanout, branches, err := r.buildFanout()
	if err != nil {
		return nil, nil, err
	}

	pipe, err := spectral.NewSpectralClustering(
		pipeline.Stage(spectral.StagePreprocessing, pre),
		pipeline.Stage(spectral.StageAffinity, knn),
		pipeline.Stage(spectral.StageEmbedding, eig),
		pipeline.Stage(spectral.StageClustering, fanout),
	)
	if err != nil {
		return nil, nil, err
	}

	return pipe, branches, nil
}

// buildFanout declares the clustering stage: one top-level broadcast
// Parallel whose slots are the per-method sweeps, each itself a broadcast
// Parallel over the n_clusters schedule, plus the bare HDBSCAN node and the
// 2-d layout pair. Every slot is fed the same *Spectrum. branches lists the
// leaves in traversal order for sink naming.
func (r *Runner) buildFanout() (*pipeline.Parallel, []branch, error) {
	var (
		slots    []pipeline.Node
		branches []branch
	)
	leaf := func(node pipeline.Node, err error, name string, attrs map[string]string) (pipeline.Node, error) {
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch{name: name, attrs: attrs})

		return node, nil
	}
	sweep := func(build func(k int) (pipeline.Node, error)) error {
		nodes := make([]pipeline.Node, 0, len(r.cfg.NClusters))
		for _, k := range r.cfg.NClusters {
			node, err := build(k)
			if err != nil {
				return err
			}
			nodes = append(nodes, node)
		}
		par, err := pipeline.NewParallel(nodes, pipeline.Broadcast())
		if err != nil {
			return err
		}
		slots = append(slots, par)

		return nil
	}

	if err := sweep(func(k int) (pipeline.Node, error) {
		km, err := cluster.NewKMeans(
			pipeline.WithParam("n_clusters", k),
			pipeline.WithParam("seed", r.cfg.Seed),
		)

		return leaf(km, err, fmt.Sprintf("kmeans-%02d", k),
			map[string]string{"clustering": "kmeans", "k": strconv.Itoa(k)})
	}); err != nil {
		return nil, nil, err
	}
	if err := sweep(func(k int) (pipeline.Node, error) {
		// The sweep doubles as an eps schedule for DBSCAN.
		eps := float64(k) / 10
		db, err := cluster.NewDBSCAN(pipeline.WithParam("eps", eps))

		return leaf(db, err, fmt.Sprintf("dbscan-%.1f", eps),
			map[string]string{"clustering": "dbscan", "eps": strconv.FormatFloat(eps, 'f', 1, 64)})
	}); err != nil {
		return nil, nil, err
	}

	hd, hdErr := cluster.NewHDBSCAN()
	node, err := leaf(hd, hdErr, "hdbscan", map[string]string{"clustering": "hdbscan"})
	if err != nil {
		return nil, nil, err
	}
	slots = append(slots, node)

	if err = sweep(func(k int) (pipeline.Node, error) {
		ag, aggErr := cluster.NewAgglomerative(pipeline.WithParam("n_clusters", k))

		return leaf(ag, aggErr, fmt.Sprintf("agglomerative-%02d", k),
			map[string]string{"clustering": "agglomerative", "k": strconv.Itoa(k)})
	}); err != nil {
		return nil, nil, err
	}

	um, umErr := embedding.NewUMAP(pipeline.WithParam("seed", r.cfg.Seed))
	umNode, err := leaf(um, umErr, "umap", map[string]string{"embedding": "umap"})
	if err != nil {
		return nil, nil, err
	}
	ts, tsErr := embedding.NewTSNE(pipeline.WithParam("seed", r.cfg.Seed))
	tsNode, err := leaf(ts, tsErr, "tsne", map[string]string{"embedding": "tsne"})
	if err != nil {
		return nil, nil, err
	}
	layouts, err := pipeline.NewParallel([]pipeline.Node{umNode, tsNode}, pipeline.Broadcast())
	if err != nil {
		return nil, nil, err
	}
	slots = append(slots, layouts)

	fanout, err := pipeline.NewParallel(slots,
		pipeline.Broadcast(),
		pipeline.AsOutput(),
		pipeline.Workers(r.cfg.Workers),
	)
	if err != nil {
		return nil, nil, err
	}

	return fanout, branches, nil
}

// flattenFanout expands the per-sweep Tuples of the nested fan-out into
// leaf results, in declaration order.
func flattenFanout(t pipeline.Tuple) []any {
	out := make([]any, 0, len(t))
	for _, v := range t {
		if inner, ok := v.(pipeline.Tuple); ok {
			out = append(out, inner...)
			continue
		}
		out = append(out, v)
	}

	return out
}

// spectrumGroup packages the eigenvalues and row-major eigenvectors.
func spectrumGroup(s *embedding.Spectrum, indices []int, attrs map[string]string) Group {
	a := merge(attrs, map[string]string{
		"embedding": "spectral",
		"rows":      strconv.Itoa(s.Vectors.Rows()),
		"cols":      strconv.Itoa(s.Vectors.Cols()),
	})

	return Group{
		Attrs: a,
		Floats: map[string][]float64{
			"eigenvalues":  s.Values,
			"eigenvectors": s.Vectors.Data(),
		},
		Ints: map[string][]int{"index": indices},
	}
}

// resultGroup packages one fan-out result: []int labels or a 2-d layout.
func resultGroup(result any, indices []int, attrs map[string]string) (Group, error) {
	switch v := result.(type) {
	case []int:
		return Group{
			Attrs:  attrs,
			Ints:   map[string][]int{"labels": v, "index": indices},
			Floats: map[string][]float64{},
		}, nil
	case *matrix.Dense:
		attrs = merge(attrs, map[string]string{
			"rows": strconv.Itoa(v.Rows()),
			"cols": strconv.Itoa(v.Cols()),
		})

		return Group{
			Attrs:  attrs,
			Floats: map[string][]float64{"points": v.Data()},
			Ints:   map[string][]int{"index": indices},
		}, nil
	default:
		return Group{}, fmt.Errorf("unexpected result %T: %w", result, pipeline.ErrShape)
	}
}

func merge(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}

	return out
}
