package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// writeWorkbook builds a minimal source workbook in a temp dir and returns
// its path. Rows maps sheet name to its rows, header first.
func writeWorkbook(t *testing.T, rows map[string][][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := true
	for sheet, sheetRows := range rows {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", sheet))
			first = false
		} else {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		for i, row := range sheetRows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "source.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func validWorkbookRows() map[string][][]any {
	return map[string][][]any{
		SheetAlgos: {
			{"id", "name", "version"},
			{1, "Corn Algo", 1},
			{2, "Soybean Algo", 2},
		},
		SheetWidgets: {
			{"id", "name", "algo_id", "param_config", "param_order"},
			{1, "Corn Widget", 1,
				`{"moisture":{"name":"moisture","display_name":"Moisture","unit":"%"}}`,
				`["moisture"]`},
			{2, "Soybean Widget", 2,
				`{"oil":{"name":"oil","display_name":"Oil","unit":"float_2_dig"},"protein":{"name":"protein","display_name":"Protein","unit":"float_2_dig"}}`,
				`["oil","protein"]`},
		},
		SheetScans: {
			{"id", "user_id", "device_id", "widget_id", "algo_id", "sampled_at"},
			{1, "ariel", "d1", 1, 1, "2025-11-20T13:02:05"},
			{2, "dan", "d1", 2, 2, "2025-11-13T11:59:04"},
		},
		SheetScanResults: {
			{"scan_id", "parameter_name", "predicted_value"},
			{1, "moisture", 16.5},
			{2, "oil", 12.3},
			{2, "protein", 12.5},
		},
	}
}

func TestLoadExcel(t *testing.T) {
	t.Run("loads a complete workbook", func(t *testing.T) {
		path := writeWorkbook(t, validWorkbookRows())

		snap, err := LoadExcel(path, zaptest.NewLogger(t))
		require.NoError(t, err)

		na, nw, ns, nr := snap.Counts()
		assert.Equal(t, 2, na)
		assert.Equal(t, 2, nw)
		assert.Equal(t, 2, ns)
		assert.Equal(t, 3, nr)

		widget, ok := snap.GetWidget(2)
		require.True(t, ok)
		assert.Equal(t, "Soybean Widget", widget.Name)
		assert.Equal(t, []string{"oil", "protein"}, widget.ParamOrder)
		assert.Equal(t, "float_2_dig", widget.ParamConfig["oil"].Unit)
		assert.Equal(t, "Oil", widget.ParamConfig["oil"].DisplayName)

		scans := snap.ListScans()
		require.Len(t, scans, 2)
		assert.Equal(t, "ariel", scans[0].UserID)
		assert.Equal(t, time.Date(2025, 11, 20, 13, 2, 5, 0, time.UTC), scans[0].SampledAt)
	})

	t.Run("missing workbook", func(t *testing.T) {
		_, err := LoadExcel(filepath.Join(t.TempDir(), "nope.xlsx"), zap.NewNop())
		require.Error(t, err)
	})

	t.Run("missing sheet", func(t *testing.T) {
		rows := validWorkbookRows()
		delete(rows, SheetScanResults)
		path := writeWorkbook(t, rows)

		_, err := LoadExcel(path, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), SheetScanResults)
	})

	t.Run("missing column", func(t *testing.T) {
		rows := validWorkbookRows()
		rows[SheetAlgos] = [][]any{
			{"id", "name"},
			{1, "Corn Algo"},
		}
		path := writeWorkbook(t, rows)

		_, err := LoadExcel(path, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "version")
	})

	t.Run("malformed param_config is an ingestion error", func(t *testing.T) {
		rows := validWorkbookRows()
		rows[SheetWidgets][1][3] = `{not json`
		path := writeWorkbook(t, rows)

		_, err := LoadExcel(path, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "param_config")
	})

	t.Run("malformed timestamp is an ingestion error", func(t *testing.T) {
		rows := validWorkbookRows()
		rows[SheetScans][1][5] = "20/11/2025"
		path := writeWorkbook(t, rows)

		_, err := LoadExcel(path, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timestamp")
	})
}
