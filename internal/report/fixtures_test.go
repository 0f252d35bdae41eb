package report

import (
	"time"

	"github.com/agrisense/cropscan/api/schemas"
)

// fakeRepo is a minimal in-memory Repository for exercising the engine
// without the store package.
type fakeRepo struct {
	algos   map[int64]schemas.Algo
	widgets map[int64]schemas.Widget
	scans   []schemas.Scan
	results map[int64][]schemas.ScanResult
}

func (f *fakeRepo) GetAlgo(id int64) (schemas.Algo, bool) {
	a, ok := f.algos[id]
	return a, ok
}

func (f *fakeRepo) GetWidget(id int64) (schemas.Widget, bool) {
	w, ok := f.widgets[id]
	return w, ok
}

func (f *fakeRepo) ListScans() []schemas.Scan { return f.scans }

func (f *fakeRepo) ResultsForScan(scanID int64) []schemas.ScanResult {
	return f.results[scanID]
}

func date(day, hour, minute, sec int) time.Time {
	return time.Date(2025, time.November, day, hour, minute, sec, 0, time.UTC)
}

// newFixtureRepo builds the canonical three-scan data set: two users (ariel,
// dan), two devices (d1, d2), a corn widget rendering moisture as a
// percentage and a soybean widget rendering oil and protein with two fixed
// decimals.
func newFixtureRepo() *fakeRepo {
	return &fakeRepo{
		algos: map[int64]schemas.Algo{
			1: {ID: 1, Name: "Corn Algo", Version: 1},
			2: {ID: 2, Name: "Soybean Algo", Version: 1},
		},
		widgets: map[int64]schemas.Widget{
			1: {
				ID:     1,
				Name:   "Corn Widget",
				AlgoID: 1,
				ParamConfig: map[string]schemas.ParamSpec{
					"moisture": {Name: "moisture", DisplayName: "Moisture", Unit: "%"},
				},
				ParamOrder: []string{"moisture"},
			},
			2: {
				ID:     2,
				Name:   "Soybean Widget",
				AlgoID: 2,
				ParamConfig: map[string]schemas.ParamSpec{
					"oil":     {Name: "oil", DisplayName: "Oil", Unit: "float_2_dig"},
					"protein": {Name: "protein", DisplayName: "Protein", Unit: "float_2_dig"},
				},
				ParamOrder: []string{"oil", "protein"},
			},
		},
		scans: []schemas.Scan{
			{ID: 1, UserID: "ariel", DeviceID: "d1", WidgetID: 1, AlgoID: 1, SampledAt: date(20, 13, 2, 5)},
			{ID: 2, UserID: "ariel", DeviceID: "d2", WidgetID: 2, AlgoID: 2, SampledAt: date(30, 10, 27, 33)},
			{ID: 3, UserID: "dan", DeviceID: "d1", WidgetID: 2, AlgoID: 2, SampledAt: date(13, 11, 59, 4)},
		},
		results: map[int64][]schemas.ScanResult{
			1: {{ScanID: 1, ParameterName: "moisture", PredictedValue: 16.5}},
			2: {
				{ScanID: 2, ParameterName: "oil", PredictedValue: 14.5},
				{ScanID: 2, ParameterName: "protein", PredictedValue: 22.0},
			},
			3: {
				{ScanID: 3, ParameterName: "oil", PredictedValue: 12.3},
				{ScanID: 3, ParameterName: "protein", PredictedValue: 12.5},
			},
		},
	}
}

func timePtr(t time.Time) *time.Time { return &t }
