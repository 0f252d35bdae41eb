// Package store holds the in-memory entity snapshot the report engine reads
// from, plus the bootstrap loaders (Excel workbook, Postgres) that build it
// at startup. A snapshot is immutable once built, so any number of report
// generations may read it concurrently without coordination. Reloading means
// building a new snapshot and swapping the pointer, never mutating in place.
package store

import (
	"github.com/agrisense/cropscan/api/schemas"
)

// Snapshot is an immutable, id-indexed view of the four entity collections.
type Snapshot struct {
	algos   map[int64]schemas.Algo
	widgets map[int64]schemas.Widget
	scans   []schemas.Scan
	// results is grouped by scan id, preserving source order within a scan.
	results map[int64][]schemas.ScanResult
}

// NewSnapshot indexes the given collections. Scan order is preserved as the
// canonical listing order. The input slices are not retained except for
// scans, so callers must not mutate that slice afterwards.
func NewSnapshot(algos []schemas.Algo, widgets []schemas.Widget, scans []schemas.Scan, results []schemas.ScanResult) *Snapshot {
	s := &Snapshot{
		algos:   make(map[int64]schemas.Algo, len(algos)),
		widgets: make(map[int64]schemas.Widget, len(widgets)),
		scans:   scans,
		results: make(map[int64][]schemas.ScanResult, len(scans)),
	}
	for _, a := range algos {
		s.algos[a.ID] = a
	}
	for _, w := range widgets {
		s.widgets[w.ID] = w
	}
	for _, r := range results {
		s.results[r.ScanID] = append(s.results[r.ScanID], r)
	}
	return s
}

// GetAlgo looks up an algorithm by id.
func (s *Snapshot) GetAlgo(id int64) (schemas.Algo, bool) {
	a, ok := s.algos[id]
	return a, ok
}

// GetWidget looks up a widget by id.
func (s *Snapshot) GetWidget(id int64) (schemas.Widget, bool) {
	w, ok := s.widgets[id]
	return w, ok
}

// ListScans returns all scans in load order. Callers must treat the returned
// slice as read-only.
func (s *Snapshot) ListScans() []schemas.Scan {
	return s.scans
}

// ResultsForScan returns the results belonging to one scan, in load order.
// Unknown scan ids yield an empty slice.
func (s *Snapshot) ResultsForScan(scanID int64) []schemas.ScanResult {
	return s.results[scanID]
}

// Counts reports the collection sizes, for startup logging.
func (s *Snapshot) Counts() (algos, widgets, scans, results int) {
	for _, rs := range s.results {
		results += len(rs)
	}
	return len(s.algos), len(s.widgets), len(s.scans), results
}
