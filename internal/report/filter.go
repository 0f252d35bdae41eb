package report

import (
	"time"

	"github.com/agrisense/cropscan/api/schemas"
)

// Filter narrows the scan collection before report rows are built. Zero-value
// fields impose no constraint; supplied predicates are conjunctive. User and
// device comparisons are exact and case sensitive, date bounds are inclusive
// on both ends.
type Filter struct {
	UserID   string
	DeviceID string
	From     *time.Time
	To       *time.Time
}

// Apply returns the subsequence of scans satisfying every supplied predicate,
// preserving the input order. An inverted date range (From after To) matches
// nothing and is not an error. Scans with dangling widget or algo references
// pass through untouched; integrity checking belongs to the builder.
func (f Filter) Apply(scans []schemas.Scan) []schemas.Scan {
	out := make([]schemas.Scan, 0, len(scans))
	for _, scan := range scans {
		if f.matches(scan) {
			out = append(out, scan)
		}
	}
	return out
}

func (f Filter) matches(scan schemas.Scan) bool {
	if f.UserID != "" && scan.UserID != f.UserID {
		return false
	}
	if f.DeviceID != "" && scan.DeviceID != f.DeviceID {
		return false
	}
	if f.From != nil && scan.SampledAt.Before(*f.From) {
		return false
	}
	if f.To != nil && scan.SampledAt.After(*f.To) {
		return false
	}
	return true
}
