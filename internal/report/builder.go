package report

import (
	"math"
	"sort"
	"strings"

	"github.com/agrisense/cropscan/api/schemas"
)

// Repository is the read-only view of the entity store the report engine
// consumes. Implementations must behave as immutable snapshots for the
// duration of a generation call.
type Repository interface {
	GetAlgo(id int64) (schemas.Algo, bool)
	GetWidget(id int64) (schemas.Widget, bool)
	ListScans() []schemas.Scan
	ResultsForScan(scanID int64) []schemas.ScanResult
}

// BuildRow resolves one scan against the entity store and produces its report
// row. A dangling widget or algo reference yields a MissingReferenceError; a
// NaN or infinite predicted value yields a NonFiniteValueError.
func BuildRow(repo Repository, scan schemas.Scan) (schemas.ReportRow, error) {
	widget, ok := repo.GetWidget(scan.WidgetID)
	if !ok {
		return schemas.ReportRow{}, &MissingReferenceError{Kind: KindWidget, ID: scan.WidgetID, ScanID: scan.ID}
	}
	algo, ok := repo.GetAlgo(scan.AlgoID)
	if !ok {
		return schemas.ReportRow{}, &MissingReferenceError{Kind: KindAlgo, ID: scan.AlgoID, ScanID: scan.ID}
	}

	results := repo.ResultsForScan(scan.ID)
	rendered, err := renderResults(widget, scan.ID, results)
	if err != nil {
		return schemas.ReportRow{}, err
	}

	return schemas.ReportRow{
		SampledAt:  scan.SampledAt,
		UserID:     scan.UserID,
		DeviceID:   scan.DeviceID,
		WidgetName: widget.Name,
		AlgoName:   algo.Name,
		Results:    rendered,
	}, nil
}

// renderResults formats all of a scan's parameters in display order and wraps
// them as "{Name: value, Name2: value2}". Parameters named in the widget's
// param_order come first in that exact order; the rest follow alphabetically.
// An ordered parameter with no result for this scan is skipped outright.
func renderResults(widget schemas.Widget, scanID int64, results []schemas.ScanResult) (string, error) {
	values := make(map[string]float64, len(results))
	for _, r := range results {
		values[r.ParameterName] = r.PredictedValue
	}

	ordered := make([]string, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, name := range widget.ParamOrder {
		if _, ok := values[name]; ok && !seen[name] {
			ordered = append(ordered, name)
			seen[name] = true
		}
	}

	var rest []string
	for _, r := range results {
		if !seen[r.ParameterName] {
			rest = append(rest, r.ParameterName)
			seen[r.ParameterName] = true
		}
	}
	sort.Strings(rest)
	ordered = append(ordered, rest...)

	parts := make([]string, 0, len(ordered))
	for _, name := range ordered {
		value := values[name]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return "", &NonFiniteValueError{ScanID: scanID, Parameter: name, Value: value}
		}

		label := name
		rule := RuleDefault
		if spec, ok := widget.ParamConfig[name]; ok {
			if spec.DisplayName != "" {
				label = spec.DisplayName
			}
			rule = RuleForUnit(spec.Unit)
		}
		parts = append(parts, label+": "+Format(value, rule))
	}

	return "{" + strings.Join(parts, ", ") + "}", nil
}
