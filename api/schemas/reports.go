package schemas

import "time"

// Unit tokens recognized by the report formatter. Any other value (including
// the empty string) falls back to plain numeric rendering.
const (
	UnitPercentage = "%"
	UnitFloat2Dig  = "float_2_dig"
	UnitFloat1Dig  = "float_1_dig"
)

// Algo identifies a prediction algorithm. Reference data, immutable for the
// lifetime of the process.
type Algo struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// ParamSpec describes how a single predicted parameter is displayed. Unit
// carries the raw display-rule token ("%", "float_2_dig", "float_1_dig" or
// empty for the default rendering).
type ParamSpec struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Unit        string `json:"unit"`
}

// Widget is the display configuration for one algorithm's output: which
// parameters to show, in what order, and with which formatting rule.
// ParamConfig is keyed by parameter name and need not cover every parameter
// an algorithm ever produces; uncovered parameters use the default rendering.
type Widget struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	AlgoID      int64                `json:"algo_id"`
	ParamConfig map[string]ParamSpec `json:"param_config"`
	ParamOrder  []string             `json:"param_order"`
}

// Scan is a single crop-scan measurement record taken by a device on behalf
// of a user. The widget and algorithm it references live in the entity store.
type Scan struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	WidgetID  int64     `json:"widget_id"`
	AlgoID    int64     `json:"algo_id"`
	SampledAt time.Time `json:"sampled_at"`
}

// ScanResult is one predicted parameter value belonging to a scan. A scan has
// one result per predicted parameter.
type ScanResult struct {
	ScanID         int64   `json:"scan_id"`
	ParameterName  string  `json:"parameter_name"`
	PredictedValue float64 `json:"predicted_value"`
}

// ReportRow is the flattened, human-readable summary of a single scan.
// Results holds all of the scan's parameters rendered in display order, e.g.
// "{Protein: 12.50, Moisture: 22.1 %}". Derived at query time, never stored.
type ReportRow struct {
	SampledAt  time.Time `json:"sampled_at"`
	UserID     string    `json:"user_id"`
	DeviceID   string    `json:"device_id"`
	WidgetName string    `json:"widget_name"`
	AlgoName   string    `json:"algo_name"`
	Results    string    `json:"results"`
}
