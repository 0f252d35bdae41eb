package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/agrisense/cropscan/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sheet names expected in the source workbook.
const (
	SheetAlgos       = "algos"
	SheetWidgets     = "widgets"
	SheetScans       = "scans"
	SheetScanResults = "scan_results"
)

// Timestamp layouts accepted in the scans sheet.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// LoadExcel builds a snapshot from an .xlsx workbook holding the four entity
// sheets. The first row of each sheet is a header naming the columns; widget
// param_config and param_order cells hold JSON. A malformed row is an
// ingestion error, never silently skipped.
func LoadExcel(path string, logger *zap.Logger) (*Snapshot, error) {
	log := logger.Named("store")

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn("Failed to close workbook cleanly.", zap.Error(closeErr))
		}
	}()

	algos, err := readAlgos(f)
	if err != nil {
		return nil, err
	}
	widgets, err := readWidgets(f)
	if err != nil {
		return nil, err
	}
	scans, err := readScans(f)
	if err != nil {
		return nil, err
	}
	results, err := readScanResults(f)
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot(algos, widgets, scans, results)
	na, nw, ns, nr := snap.Counts()
	log.Info("Entity snapshot loaded from workbook",
		zap.String("path", path),
		zap.Int("algos", na),
		zap.Int("widgets", nw),
		zap.Int("scans", ns),
		zap.Int("results", nr))
	return snap, nil
}

// sheetReader walks a sheet's data rows and resolves cells by header name.
type sheetReader struct {
	sheet   string
	columns map[string]int
	rows    [][]string
}

func newSheetReader(f *excelize.File, sheet string) (*sheetReader, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is missing its header row", sheet)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.TrimSpace(name)] = i
	}
	return &sheetReader{sheet: sheet, columns: columns, rows: rows[1:]}, nil
}

// cell returns the named column of a data row. Trailing empty cells are
// omitted by the reader, so out-of-range access is an empty string.
func (r *sheetReader) cell(row []string, column string) (string, error) {
	idx, ok := r.columns[column]
	if !ok {
		return "", fmt.Errorf("sheet %q is missing column %q", r.sheet, column)
	}
	if idx >= len(row) {
		return "", nil
	}
	return strings.TrimSpace(row[idx]), nil
}

func (r *sheetReader) int64Cell(row []string, column string) (int64, error) {
	raw, err := r.cell(row, column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sheet %q column %q: invalid integer %q", r.sheet, column, raw)
	}
	return v, nil
}

func (r *sheetReader) floatCell(row []string, column string) (float64, error) {
	raw, err := r.cell(row, column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("sheet %q column %q: invalid number %q", r.sheet, column, raw)
	}
	return v, nil
}

func (r *sheetReader) timeCell(row []string, column string) (time.Time, error) {
	raw, err := r.cell(row, column)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range timeLayouts {
		if ts, parseErr := time.Parse(layout, raw); parseErr == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("sheet %q column %q: unrecognized timestamp %q", r.sheet, column, raw)
}

func readAlgos(f *excelize.File) ([]schemas.Algo, error) {
	r, err := newSheetReader(f, SheetAlgos)
	if err != nil {
		return nil, err
	}

	algos := make([]schemas.Algo, 0, len(r.rows))
	for i, row := range r.rows {
		id, err := r.int64Cell(row, "id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		name, err := r.cell(row, "name")
		if err != nil {
			return nil, err
		}
		version, err := r.int64Cell(row, "version")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		algos = append(algos, schemas.Algo{ID: id, Name: name, Version: int(version)})
	}
	return algos, nil
}

func readWidgets(f *excelize.File) ([]schemas.Widget, error) {
	r, err := newSheetReader(f, SheetWidgets)
	if err != nil {
		return nil, err
	}

	widgets := make([]schemas.Widget, 0, len(r.rows))
	for i, row := range r.rows {
		id, err := r.int64Cell(row, "id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		name, err := r.cell(row, "name")
		if err != nil {
			return nil, err
		}
		algoID, err := r.int64Cell(row, "algo_id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		rawConfig, err := r.cell(row, "param_config")
		if err != nil {
			return nil, err
		}
		paramConfig := map[string]schemas.ParamSpec{}
		if rawConfig != "" {
			if err := json.UnmarshalFromString(rawConfig, &paramConfig); err != nil {
				return nil, fmt.Errorf("sheet %q row %d: invalid param_config JSON: %w", SheetWidgets, i+2, err)
			}
		}

		rawOrder, err := r.cell(row, "param_order")
		if err != nil {
			return nil, err
		}
		var paramOrder []string
		if rawOrder != "" {
			if err := json.UnmarshalFromString(rawOrder, &paramOrder); err != nil {
				return nil, fmt.Errorf("sheet %q row %d: invalid param_order JSON: %w", SheetWidgets, i+2, err)
			}
		}

		widgets = append(widgets, schemas.Widget{
			ID:          id,
			Name:        name,
			AlgoID:      algoID,
			ParamConfig: paramConfig,
			ParamOrder:  paramOrder,
		})
	}
	return widgets, nil
}

func readScans(f *excelize.File) ([]schemas.Scan, error) {
	r, err := newSheetReader(f, SheetScans)
	if err != nil {
		return nil, err
	}

	scans := make([]schemas.Scan, 0, len(r.rows))
	for i, row := range r.rows {
		id, err := r.int64Cell(row, "id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		userID, err := r.cell(row, "user_id")
		if err != nil {
			return nil, err
		}
		deviceID, err := r.cell(row, "device_id")
		if err != nil {
			return nil, err
		}
		widgetID, err := r.int64Cell(row, "widget_id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		algoID, err := r.int64Cell(row, "algo_id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		sampledAt, err := r.timeCell(row, "sampled_at")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		scans = append(scans, schemas.Scan{
			ID:        id,
			UserID:    userID,
			DeviceID:  deviceID,
			WidgetID:  widgetID,
			AlgoID:    algoID,
			SampledAt: sampledAt,
		})
	}
	return scans, nil
}

func readScanResults(f *excelize.File) ([]schemas.ScanResult, error) {
	r, err := newSheetReader(f, SheetScanResults)
	if err != nil {
		return nil, err
	}

	results := make([]schemas.ScanResult, 0, len(r.rows))
	for i, row := range r.rows {
		scanID, err := r.int64Cell(row, "scan_id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		name, err := r.cell(row, "parameter_name")
		if err != nil {
			return nil, err
		}
		value, err := r.floatCell(row, "predicted_value")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		results = append(results, schemas.ScanResult{
			ScanID:         scanID,
			ParameterName:  name,
			PredictedValue: value,
		})
	}
	return results, nil
}
