package report

import (
	"errors"

	"go.uber.org/zap"

	"github.com/agrisense/cropscan/api/schemas"
)

// Service is the report-generation engine: it filters the scan collection and
// produces one formatted report row per matching scan. It holds no state
// besides the snapshot accessor, so concurrent calls need no coordination.
type Service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates a report service over the given entity-store snapshot.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo: repo,
		log:  logger.Named("report"),
	}
}

// Generate returns one report row per scan matching the filter, in store
// order. An empty match yields an empty slice and a nil error.
//
// Scans with dangling widget or algo references are skipped, not fatal: the
// good rows are still returned, and the joined MissingReferenceError set is
// returned alongside them so a single bad record cannot silently hide the
// rest of the result set. A non-finite predicted value is corrupt ingestion
// and aborts the whole call.
func (s *Service) Generate(filter Filter) ([]schemas.ReportRow, error) {
	scans := filter.Apply(s.repo.ListScans())

	rows := make([]schemas.ReportRow, 0, len(scans))
	var faults []error
	for _, scan := range scans {
		row, err := BuildRow(s.repo, scan)
		if err != nil {
			var missing *MissingReferenceError
			if errors.As(err, &missing) {
				s.log.Warn("Skipping scan with dangling reference",
					zap.Int64("scan_id", missing.ScanID),
					zap.String("kind", missing.Kind),
					zap.Int64("ref_id", missing.ID))
				faults = append(faults, err)
				continue
			}
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, errors.Join(faults...)
}
