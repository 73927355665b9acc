// Package storage persists finished runs as a directory per run holding
// metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/blobsim/internal/config"
	"github.com/san-kum/blobsim/internal/sim"
	"github.com/san-kum/blobsim/internal/vmath"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrNotFound = errors.New("storage: run not found")

var statesHeader = []string{"time", "id", "x", "y", "vx", "vy"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunInfo struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	Blobs      int                `json:"blobs"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	StepsTaken int                `json:"steps_taken"`
	Physics    config.Constants   `json:"physics"`
	Metrics    map[string]float64 `json:"metrics"`
}

// NewRunID returns blobs_<yyyymmdd-hhmmss>_<first 8 hex digits of a uuid>.
func NewRunID(now time.Time) string {
	return fmt.Sprintf("blobs_%s_%s", now.Format("20060102-150405"), uuid.NewString()[:8])
}

// Save writes meta and the result's snapshots under a new run directory
// and returns the run id. meta.ID and meta.Timestamp are filled in when
// empty.
func (s *Store) Save(meta RunInfo, result *sim.Result) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Timestamp)
	}
	meta.StepsTaken = result.StepsTaken
	meta.Metrics = finiteMetrics(result.Metrics)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta RunInfo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeStates(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(statesHeader); err != nil {
		return err
	}

	for i, snap := range result.Snapshots {
		t := strconv.FormatFloat(result.Times[i], 'f', 6, 64)
		for _, b := range snap {
			row := []string{
				t,
				strconv.Itoa(b.ID),
				formatFloat(b.Position.X),
				formatFloat(b.Position.Y),
				formatFloat(b.Velocity.X),
				formatFloat(b.Velocity.Y),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// finiteMetrics drops NaN and Inf values, which JSON cannot encode.
func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for name, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[name] = v
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunInfo{}, nil
		}
		return nil, err
	}

	runs := make([]RunInfo, 0)
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
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunInfo
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSnapshots reads states.csv back. Rows sharing a time form one
// snapshot.
func (s *Store) LoadSnapshots(runID string) ([]sim.Snapshot, []float64, error) {
	f, err := s.OpenStates(runID)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(statesHeader)

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return []sim.Snapshot{}, []float64{}, nil
		}
		return nil, nil, err
	}

	snapshots := make([]sim.Snapshot, 0)
	times := make([]float64, 0)
	lastTime := ""

	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		b, t, err := parseRow(record)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: %s line %d: %w", statesFile, line, err)
		}

		if len(snapshots) == 0 || record[0] != lastTime {
			snapshots = append(snapshots, sim.Snapshot{})
			times = append(times, t)
			lastTime = record[0]
		}
		last := len(snapshots) - 1
		snapshots[last] = append(snapshots[last], b)
	}

	return snapshots, times, nil
}

// OpenStates opens the raw states.csv of a run.
func (s *Store) OpenStates(runID string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	return f, nil
}

func parseRow(record []string) (sim.BlobState, float64, error) {
	var vals [5]float64
	t, err := strconv.ParseFloat(record[0], 64)
	if err != nil {
		return sim.BlobState{}, 0, err
	}
	id, err := strconv.Atoi(record[1])
	if err != nil {
		return sim.BlobState{}, 0, err
	}
	for i, field := range record[2:] {
		if vals[i], err = strconv.ParseFloat(field, 64); err != nil {
			return sim.BlobState{}, 0, err
		}
	}
	return sim.BlobState{
		ID:       id,
		Position: vmath.Vector2f{X: vals[0], Y: vals[1]},
		Velocity: vmath.Vector2f{X: vals[2], Y: vals[3]},
	}, t, nil
}
