package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	metadataFile  = "metadata.json"
	positionsFile = "positions.csv"
)

var ErrMalformed = errors.New("storage: malformed run data")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type BodyInfo struct {
	Label    string  `json:"label"`
	Mass     float64 `json:"mass"`
	Diameter float64 `json:"diameter,omitempty"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Source     string             `json:"source"`
	Timestamp  time.Time          `json:"timestamp"`
	Dimensions int                `json:"dimensions"`
	TStart     float64            `json:"t_start"`
	TStep      float64            `json:"t_step"`
	TEnd       *float64           `json:"t_end,omitempty"`
	Gravity    float64            `json:"gravity"`
	Softening  float64            `json:"softening,omitempty"`
	Bodies     []BodyInfo         `json:"bodies"`
	Steps      int                `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes meta and tr under a new run directory and returns its ID.
// Non-finite metric values are dropped since JSON cannot carry them.
func (s *Store) Save(name string, meta RunMetadata, tr *Trajectory) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", sanitize(name), now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Steps = tr.Len()
	meta.Metrics = finite(meta.Metrics)

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, positionsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(tr.header()); err != nil {
		return "", err
	}
	for i, t := range tr.Times {
		row := make([]string, 0, 1+len(tr.Positions[i]))
		row = append(row, strconv.FormatFloat(t, 'g', -1, 64))
		for _, val := range tr.Positions[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrajectory reads the positions of a stored run. The header decides
// labels and dimension.
func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", ErrMalformed, positionsFile)
	}

	labels, dims, err := parseHeader(records[0])
	if err != nil {
		return nil, err
	}

	tr := NewTrajectory(labels, dims)
	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			vals[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %v", ErrMalformed, i+1, j, err)
			}
		}
		tr.Times = append(tr.Times, vals[0])
		tr.Positions = append(tr.Positions, vals[1:])
	}

	return tr, nil
}

func parseHeader(header []string) ([]string, int, error) {
	if len(header) < 2 || header[0] != "t" {
		return nil, 0, fmt.Errorf("%w: bad header %v", ErrMalformed, header)
	}

	var labels []string
	counts := map[string]int{}
	for _, col := range header[1:] {
		i := strings.LastIndex(col, ".")
		if i <= 0 {
			return nil, 0, fmt.Errorf("%w: bad column %q", ErrMalformed, col)
		}
		label := col[:i]
		if counts[label] == 0 {
			labels = append(labels, label)
		}
		counts[label]++
	}

	dims := counts[labels[0]]
	for _, l := range labels {
		if counts[l] != dims {
			return nil, 0, fmt.Errorf("%w: %q has %d columns, want %d", ErrMalformed, l, counts[l], dims)
		}
	}
	return labels, dims, nil
}

func sanitize(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || name == "." {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, name)
}

func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}
