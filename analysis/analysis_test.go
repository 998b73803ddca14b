package analysis_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spectral/analysis"
	"github.com/katalvlaran/spectral/pipeline"
	"github.com/katalvlaran/spectral/tensor"
)

// TestConfig_Validate walks the validation matrix.
func TestConfig_Validate(t *testing.T) {
	valid := analysis.DefaultConfig()
	require.NoError(t, valid.Validate())

	cases := map[string]func(*analysis.Config){
		"unknown variant": func(c *analysis.Config) { c.Variant = "pca" },
		"zero eigval":     func(c *analysis.Config) { c.NEigval = 0 },
		"zero neighbors":  func(c *analysis.Config) { c.NNeighbors = 0 },
		"empty sweep":     func(c *analysis.Config) { c.NClusters = nil },
		"bad sweep entry": func(c *analysis.Config) { c.NClusters = []int{2, 0} },
		"zero workers":    func(c *analysis.Config) { c.Workers = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := analysis.DefaultConfig()
			mutate(&cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, pipeline.ErrConfiguration)
		})
	}
}

// TestLoadConfig verifies YAML parsing over the defaults.
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"variant: histogram\nn_eigval: 8\nn_clusters: [2, 3]\nworkers: 4\n",
	), 0o644))

	cfg, err := analysis.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, analysis.VariantHistogram, cfg.Variant)
	assert.Equal(t, 8, cfg.NEigval)
	assert.Equal(t, []int{2, 3}, cfg.NClusters)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 10, cfg.NNeighbors, "absent keys keep their defaults")
}

// TestLoadConfig_Invalid verifies that a parsed but invalid config fails.
func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variant: nonsense\n"), 0o644))

	_, err := analysis.LoadConfig(path)
	assert.ErrorIs(t, err, analysis.ErrBadVariant)
}

// TestCSVLoader verifies header handling, class grouping and the original
// row indices.
func TestCSVLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"class,f0,f1\n"+
			"1,0.5,1.5\n"+
			"0,2.0,3.0\n"+
			"1,4.0,5.0\n",
	), 0o644))

	loader, err := analysis.NewCSVLoader(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, loader.Classes())

	arr, indices, err := loader.LoadClass(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, arr.Shape())
	assert.Equal(t, []float64{0.5, 1.5, 4.0, 5.0}, arr.Data())
	assert.Equal(t, []int{0, 2}, indices, "indices refer to data rows after the header")

	_, _, err = loader.LoadClass(9)
	assert.ErrorIs(t, err, analysis.ErrUnknownClass)
}

// TestCSVLoader_Malformed verifies eager parse errors.
func TestCSVLoader_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv")
	require.NoError(t, os.WriteFile(path, []byte("0,1.0\n1,oops\n"), 0o644))

	_, err := analysis.NewCSVLoader(path)
	assert.ErrorIs(t, err, analysis.ErrBadCSV)
}

// TestMemorySink verifies write order and the duplicate guard.
func TestMemorySink(t *testing.T) {
	sink := analysis.NewMemorySink()
	require.NoError(t, sink.WriteGroup("b", analysis.Group{}))
	require.NoError(t, sink.WriteGroup("a", analysis.Group{}))

	assert.Equal(t, []string{"b", "a"}, sink.Names())
	assert.ErrorIs(t, sink.WriteGroup("a", analysis.Group{}), analysis.ErrDuplicateGroup)

	_, ok := sink.Group("a")
	assert.True(t, ok)
	_, ok = sink.Group("z")
	assert.False(t, ok)
}

// TestPreprocessing_Variants verifies that every variant builds and runs on
// a rank-3 batch, and that rank-2 input takes the flat path.
func TestPreprocessing_Variants(t *testing.T) {
	batch, err := tensor.FromData(randomData(t, 2*2*4), 2, 2, 4)
	require.NoError(t, err)
	flat, err := tensor.FromData(randomData(t, 2*8), 2, 8)
	require.NoError(t, err)

	variants := []string{
		analysis.VariantAbsSpectral,
		analysis.VariantSpectral,
		analysis.VariantFullSpectral,
		analysis.VariantHistogram,
	}
	for _, variant := range variants {
		t.Run(variant, func(t *testing.T) {
			for _, in := range []*tensor.Array{batch, flat} {
				chain, err := analysis.Preprocessing(variant, in.Rank(), 8)
				require.NoError(t, err)
				out, err := pipeline.Run(chain, in)
				require.NoError(t, err)
				assert.NotNil(t, out)
			}
		})
	}

	_, err = analysis.Preprocessing("nonsense", 3, 8)
	assert.ErrorIs(t, err, analysis.ErrBadVariant)
}

// memLoader serves synthetic per-class tensors.
type memLoader struct {
	data map[int]*tensor.Array
}

func (l *memLoader) Classes() []int {
	classes := make([]int, 0, len(l.data))
	for c := range l.data {
		classes = append(classes, c)
	}
	// Two known keys; keep it deterministic without importing sort.
	if len(classes) == 2 && classes[0] > classes[1] {
		classes[0], classes[1] = classes[1], classes[0]
	}

	return classes
}

func (l *memLoader) LoadClass(class int) (*tensor.Array, []int, error) {
	arr, ok := l.data[class]
	if !ok {
		return nil, nil, analysis.ErrUnknownClass
	}
	indices := make([]int, arr.Samples())
	for i := range indices {
		indices[i] = class*100 + i
	}

	return arr, indices, nil
}

// blobTensor builds 12 samples of 4 features in two separated groups.
func blobTensor(t *testing.T, seed int64) *tensor.Array {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, 0, 12*4)
	for i := 0; i < 12; i++ {
		base := 1.0
		if i >= 6 {
			base = 9.0
		}
		for j := 0; j < 4; j++ {
			data = append(data, base+rng.Float64())
		}
	}
	arr, err := tensor.FromData(data, 12, 4)
	require.NoError(t, err)

	return arr
}

// TestRunner_EndToEnd drives the whole meta-analysis over two synthetic
// classes and checks the sink layout.
func TestRunner_EndToEnd(t *testing.T) {
	cfg := analysis.Config{
		Variant:       analysis.VariantSpectral,
		NEigval:       2,
		NNeighbors:    3,
		NClusters:     []int{2},
		HistogramBins: 16,
		Workers:       2,
		Seed:          1,
	}
	loader := &memLoader{data: map[int]*tensor.Array{
		0: blobTensor(t, 5),
		1: blobTensor(t, 6),
	}}
	sink := analysis.NewMemorySink()

	runner, err := analysis.NewRunner(cfg, loader, sink, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, runner.Run(context.Background()))

	// Per class: spectral + kmeans + dbscan + hdbscan + agglomerative +
	// umap + tsne.
	names := sink.Names()
	assert.Len(t, names, 14)
	for _, class := range []int{0, 1} {
		prefix := fmt.Sprintf("%03d", class)
		for _, suffix := range []string{
			"spectral", "kmeans-02", "dbscan-0.2", "hdbscan", "agglomerative-02", "umap", "tsne",
		} {
			_, ok := sink.Group(prefix + "/" + suffix)
			assert.True(t, ok, "missing group %s/%s", prefix, suffix)
		}
	}

	// The spectral group carries the embedding and the sample indices.
	g, ok := sink.Group("000/spectral")
	require.True(t, ok)
	assert.Len(t, g.Floats["eigenvalues"], 2)
	assert.Len(t, g.Floats["eigenvectors"], 12*2)
	assert.Equal(t, "12", g.Attrs["rows"])
	assert.Equal(t, "2", g.Attrs["cols"])
	assert.Len(t, g.Ints["index"], 12)

	// A clustering group carries labels aligned with the indices.
	g, ok = sink.Group("001/kmeans-02")
	require.True(t, ok)
	assert.Len(t, g.Ints["labels"], 12)
	assert.Equal(t, "kmeans", g.Attrs["clustering"])
	assert.Equal(t, "2", g.Attrs["k"])

	// A layout group carries 2-d points.
	g, ok = sink.Group("000/umap")
	require.True(t, ok)
	assert.Len(t, g.Floats["points"], 12*2)
	assert.Equal(t, "umap", g.Attrs["embedding"])
}

// TestNewRunner_Validation verifies collaborator and config checks.
func TestNewRunner_Validation(t *testing.T) {
	cfg := analysis.DefaultConfig()

	_, err := analysis.NewRunner(cfg, nil, analysis.NewMemorySink(), zerolog.Nop())
	assert.ErrorIs(t, err, analysis.ErrNilCollaborator)

	cfg.Variant = "bogus"
	_, err = analysis.NewRunner(cfg, &memLoader{}, analysis.NewMemorySink(), zerolog.Nop())
	assert.ErrorIs(t, err, analysis.ErrBadVariant)
}

func randomData(t *testing.T, n int) []float64 {
	t.Helper()
	rng := rand.New(rand.NewSource(17))
	data := make([]float64, n)
	for i := range data {
		data[i] = rng.Float64() + 0.1
	}

	return data
}
