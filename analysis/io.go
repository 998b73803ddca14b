package analysis

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/katalvlaran/spectral/tensor"
)

var (
	// ErrUnknownClass is returned by LoadClass for a class the source lacks.
	ErrUnknownClass = fmt.Errorf("analysis: unknown class")

	// ErrBadCSV is returned for rows that do not parse as label + features.
	ErrBadCSV = fmt.Errorf("analysis: malformed csv")

	// ErrDuplicateGroup is returned when a group name is written twice.
	ErrDuplicateGroup = fmt.Errorf("analysis: duplicate group")
)

// Loader feeds attribution data into the Runner, one class at a time.
// Implementations face the actual storage (CSV here, HDF5 or a service
// elsewhere); the Runner only sees tensors.
type Loader interface {
	// Classes lists the available class indices, ascending.
	Classes() []int

	// LoadClass returns the class's attribution tensor (first axis =
	// samples) and the global dataset index of each sample row.
	LoadClass(class int) (*tensor.Array, []int, error)
}

// Group is one named result bundle: float and int arrays plus string
// attributes carrying sweep metadata (embedding, k, eps, rows, cols, ...).
type Group struct {
	Attrs  map[string]string
	Floats map[string][]float64
	Ints   map[string][]int
}

// Sink receives analysis results. Implementations face the analysis
// database; MemorySink is the in-process reference.
type Sink interface {
	WriteGroup(name string, group Group) error
}

// MemorySink collects groups in memory, preserving write order. Safe for
// concurrent writers.
type MemorySink struct {
	mu     sync.Mutex
	names  []string
	groups map[string]Group
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{groups: make(map[string]Group)}
}

// WriteGroup stores group under name; writing a name twice fails.
func (s *MemorySink) WriteGroup(name string, group Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.groups[name]; dup {
		return fmt.Errorf("%q: %w", name, ErrDuplicateGroup)
	}
	s.names = append(s.names, name)
	s.groups[name] = group

	return nil
}

// Names returns the stored group names in write order (copy).
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.names...)
}

// Group returns the stored group under name.
func (s *MemorySink) Group(name string) (Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[name]

	return g, ok
}

// Summary renders one line per group, sorted by name, for CLI output.
func (s *MemorySink) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := append([]string(nil), s.names...)
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		g := s.groups[name]
		fmt.Fprintf(&b, "%s:", name)
		keys := make([]string, 0, len(g.Floats)+len(g.Ints))
		for k := range g.Floats {
			keys = append(keys, k)
		}
		for k := range g.Ints {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v, ok := g.Floats[k]; ok {
				fmt.Fprintf(&b, " %s[%d]", k, len(v))
			} else {
				fmt.Fprintf(&b, " %s[%d]", k, len(g.Ints[k]))
			}
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// CSVLoader reads a whole dataset from one CSV file: column 0 is the integer
// class label, the remaining columns are the flat feature vector. A
// non-numeric first row is treated as a header and skipped.
type CSVLoader struct {
	classes []int
	rows    map[int][]csvRow
}

type csvRow struct {
	index    int
	features []float64
}

// NewCSVLoader reads and parses the file eagerly, so load errors surface at
// construction rather than mid-run.
func NewCSVLoader(path string) (*CSVLoader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("analysis: open csv: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("analysis: read csv: %w: %v", ErrBadCSV, err)
	}
	if len(records) > 0 {
		if _, headErr := strconv.Atoi(records[0][0]); headErr != nil {
			records = records[1:]
		}
	}

	l := &CSVLoader{rows: make(map[int][]csvRow)}
	width := -1
	for i, record := range records {
		if len(record) < 2 {
			return nil, fmt.Errorf("row %d has %d columns: %w", i, len(record), ErrBadCSV)
		}
		if width == -1 {
			width = len(record)
		} else if len(record) != width {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(record), width, ErrBadCSV)
		}
		class, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d class %q: %w", i, record[0], ErrBadCSV)
		}
		features := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			if features[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j+1, ErrBadCSV)
			}
		}
		l.rows[class] = append(l.rows[class], csvRow{index: i, features: features})
	}
	for class := range l.rows {
		l.classes = append(l.classes, class)
	}
	sort.Ints(l.classes)

	return l, nil
}

// Classes lists the parsed class labels, ascending.
func (l *CSVLoader) Classes() []int {
	return append([]int(nil), l.classes...)
}

// LoadClass assembles the class's samples×features tensor and the original
// row index of each sample.
func (l *CSVLoader) LoadClass(class int) (*tensor.Array, []int, error) {
	rows, ok := l.rows[class]
	if !ok {
		return nil, nil, fmt.Errorf("class %d: %w", class, ErrUnknownClass)
	}
	features := len(rows[0].features)
	data := make([]float64, 0, len(rows)*features)
	indices := make([]int, len(rows))
	for i, row := range rows {
		data = append(data, row.features...)
		indices[i] = row.index
	}
	arr, err := tensor.FromData(data, len(rows), features)
	if err != nil {
		return nil, nil, err
	}

	return arr, indices, nil
}
