package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/blobsim/internal/sim"
)

type ExportData struct {
	Run       RunInfo        `json:"run"`
	Times     []float64      `json:"times"`
	Snapshots []sim.Snapshot `json:"snapshots"`
}

// ExportJSON writes a run's metadata and every snapshot as one JSON
// document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	snapshots, times, err := s.LoadSnapshots(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: *meta, Times: times, Snapshots: snapshots})
}

// ExportCSV copies a run's states.csv to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := s.OpenStates(runID)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
