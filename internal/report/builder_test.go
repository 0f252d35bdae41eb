package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/cropscan/api/schemas"
)

func TestBuildRow(t *testing.T) {
	repo := newFixtureRepo()

	t.Run("builds a complete row from the resolved entities", func(t *testing.T) {
		row, err := BuildRow(repo, repo.scans[0])
		require.NoError(t, err)

		assert.Equal(t, date(20, 13, 2, 5), row.SampledAt)
		assert.Equal(t, "ariel", row.UserID)
		assert.Equal(t, "d1", row.DeviceID)
		assert.Equal(t, "Corn Widget", row.WidgetName)
		assert.Equal(t, "Corn Algo", row.AlgoName)
		assert.Equal(t, "{Moisture: 16.5 %}", row.Results)
	})

	t.Run("renders multiple parameters in param_order", func(t *testing.T) {
		row, err := BuildRow(repo, repo.scans[1])
		require.NoError(t, err)
		assert.Equal(t, "{Oil: 14.50, Protein: 22.00}", row.Results)
	})

	t.Run("missing widget is a data integrity fault", func(t *testing.T) {
		scan := repo.scans[0]
		scan.WidgetID = 99

		_, err := BuildRow(repo, scan)
		require.Error(t, err)

		var missing *MissingReferenceError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, KindWidget, missing.Kind)
		assert.Equal(t, int64(99), missing.ID)
		assert.Equal(t, scan.ID, missing.ScanID)
	})

	t.Run("missing algo is a data integrity fault", func(t *testing.T) {
		scan := repo.scans[0]
		scan.AlgoID = 42

		_, err := BuildRow(repo, scan)
		var missing *MissingReferenceError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, KindAlgo, missing.Kind)
		assert.Equal(t, int64(42), missing.ID)
	})

	t.Run("non-finite value aborts the row", func(t *testing.T) {
		bad := newFixtureRepo()
		bad.results[1] = []schemas.ScanResult{
			{ScanID: 1, ParameterName: "moisture", PredictedValue: math.NaN()},
		}

		_, err := BuildRow(bad, bad.scans[0])
		var nonFinite *NonFiniteValueError
		require.ErrorAs(t, err, &nonFinite)
		assert.Equal(t, "moisture", nonFinite.Parameter)
	})
}

func TestRenderResults(t *testing.T) {
	widget := schemas.Widget{
		ID:   7,
		Name: "Wheat Widget",
		ParamConfig: map[string]schemas.ParamSpec{
			"protein":  {Name: "protein", DisplayName: "Protein", Unit: "float_2_dig"},
			"moisture": {Name: "moisture", DisplayName: "Moisture", Unit: "%"},
		},
		ParamOrder: []string{"Protein", "Moisture"},
	}
	// param_order entries are parameter names as stored, lower case here.
	widget.ParamOrder = []string{"protein", "moisture"}

	t.Run("ordered parameters come first with their rules applied", func(t *testing.T) {
		out, err := renderResults(widget, 7, []schemas.ScanResult{
			{ScanID: 7, ParameterName: "moisture", PredictedValue: 22.1},
			{ScanID: 7, ParameterName: "protein", PredictedValue: 12.5},
		})
		require.NoError(t, err)
		assert.Equal(t, "{Protein: 12.50, Moisture: 22.1 %}", out)
	})

	t.Run("parameters outside param_order follow alphabetically with default rendering", func(t *testing.T) {
		out, err := renderResults(widget, 7, []schemas.ScanResult{
			{ScanID: 7, ParameterName: "starch", PredictedValue: 3.25},
			{ScanID: 7, ParameterName: "protein", PredictedValue: 12.5},
			{ScanID: 7, ParameterName: "ash", PredictedValue: 1.0},
		})
		require.NoError(t, err)
		assert.Equal(t, "{Protein: 12.50, ash: 1, starch: 3.25}", out)
	})

	t.Run("ordered parameter without a result is skipped", func(t *testing.T) {
		out, err := renderResults(widget, 7, []schemas.ScanResult{
			{ScanID: 7, ParameterName: "moisture", PredictedValue: 16.5},
		})
		require.NoError(t, err)
		assert.Equal(t, "{Moisture: 16.5 %}", out)
	})

	t.Run("no results renders an empty pair set", func(t *testing.T) {
		out, err := renderResults(widget, 7, nil)
		require.NoError(t, err)
		assert.Equal(t, "{}", out)
	})
}
