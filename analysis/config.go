package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/spectral/pipeline"
)

// Preprocessing variants accepted by Config.
const (
	VariantAbsSpectral  = "absspectral"
	VariantSpectral     = "spectral"
	VariantFullSpectral = "fullspectral"
	VariantHistogram    = "histogram"
)

var (
	// ErrBadConfig is returned for a config that fails validation.
	ErrBadConfig = fmt.Errorf("analysis: invalid config: %w", pipeline.ErrConfiguration)

	// ErrBadVariant is returned for an unknown preprocessing variant.
	ErrBadVariant = fmt.Errorf("analysis: unknown variant: %w", pipeline.ErrConfiguration)
)

// Config drives one analysis run: which preprocessing variant feeds the
// spectral pipeline, which classes to analyze and the sweep of cluster
// counts applied by every parameterized clustering.
type Config struct {
	// Variant selects the preprocessing chain (absspectral, spectral,
	// fullspectral, histogram).
	Variant string `yaml:"variant"`

	// Classes restricts the run; empty means every class the Loader offers.
	Classes []int `yaml:"classes"`

	// NEigval is the embedding width (eigenvector count).
	NEigval int `yaml:"n_eigval"`

	// NNeighbors is the k of the sparse k-NN affinity graph.
	NNeighbors int `yaml:"n_neighbors"`

	// NClusters is the sweep list for k-means, agglomerative and the
	// DBSCAN eps schedule (eps = k/10).
	NClusters []int `yaml:"n_clusters"`

	// HistogramBins applies to the histogram variant only.
	HistogramBins int `yaml:"histogram_bins"`

	// Workers caps concurrent class analyses; 1 means sequential.
	Workers int `yaml:"workers"`

	// Seed feeds every seeded stage (eigensolver, k-means, t-SNE, UMAP).
	Seed int `yaml:"seed"`
}

// DefaultConfig mirrors the stage defaults of the root schemas.
func DefaultConfig() Config {
	return Config{
		Variant:       VariantAbsSpectral,
		NEigval:       32,
		NNeighbors:    10,
		NClusters:     []int{2, 3, 4, 5, 6, 7, 8},
		HistogramBins: 256,
		Workers:       1,
	}
}

// LoadConfig reads and validates a YAML config file. Absent keys keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("analysis: read config: %w", err)
	}
	cfg := DefaultConfig()
	if err = yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("analysis: parse config: %w: %v", ErrBadConfig, err)
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the cross-field constraints LoadConfig relies on.
func (c Config) Validate() error {
	switch c.Variant {
	case VariantAbsSpectral, VariantSpectral, VariantFullSpectral, VariantHistogram:
	default:
		return fmt.Errorf("variant=%q: %w", c.Variant, ErrBadVariant)
	}
	if c.NEigval < 1 {
		return fmt.Errorf("n_eigval=%d: %w", c.NEigval, ErrBadConfig)
	}
	if c.NNeighbors < 1 {
		return fmt.Errorf("n_neighbors=%d: %w", c.NNeighbors, ErrBadConfig)
	}
	if len(c.NClusters) == 0 {
		return fmt.Errorf("empty n_clusters sweep: %w", ErrBadConfig)
	}
	for _, k := range c.NClusters {
		if k < 1 {
			return fmt.Errorf("n_clusters=%d: %w", k, ErrBadConfig)
		}
	}
	if c.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins=%d: %w", c.HistogramBins, ErrBadConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers=%d: %w", c.Workers, ErrBadConfig)
	}

	return nil
}
