package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/drivectl/internal/control"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "ticks.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Strategy   string             `json:"strategy"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Integrator string             `json:"integrator"`
	Distance   float64            `json:"distance"`
	Power      float64            `json:"power"`
	Goal       float64            `json:"goal"`
	Ticks      int                `json:"ticks"`
	KS         float64            `json:"ks"`
	KP         float64            `json:"kp"`
	KD         float64            `json:"kd"`
	DeadBand   float64            `json:"dead_band"`
	TickMs     float64            `json:"tick_ms"`
	Outcome    string             `json:"outcome"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes metadata and the tick trace under a new run directory. ID,
// Timestamp and the result-derived fields of meta are filled in.
func (s *Store) Save(meta RunMetadata, result *control.Result) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Strategy, now.UnixNano())
	meta.Timestamp = now
	if result != nil {
		meta.Goal = result.Goal
		meta.Ticks = result.Ticks
		meta.Metrics = result.Metrics
	}
	if meta.Outcome == "" {
		meta.Outcome = "ok"
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

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

	csvFile, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	var trace []control.TickRecord
	if result != nil {
		trace = result.Trace
	}
	if err := WriteTrace(csvFile, trace); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every readable run, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
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

func (s *Store) LoadTrace(runID string) ([]control.TickRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadTrace(file)
}
