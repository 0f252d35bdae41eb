package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/agrisense/cropscan/api/schemas"
)

// DBPool abstracts the pgxpool.Pool so the loader can be mocked in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Queries used by the Postgres loader. Scan listing order follows the id
// sequence, which is the ingestion order of the source tables.
const (
	sqlSelectAlgos = `
        SELECT id, name, version
        FROM algos
        ORDER BY id ASC;
    `
	sqlSelectWidgets = `
        SELECT id, name, algo_id, param_config, param_order
        FROM widgets
        ORDER BY id ASC;
    `
	sqlSelectScans = `
        SELECT id, user_id, device_id, widget_id, algo_id, sampled_at
        FROM scans
        ORDER BY id ASC;
    `
	sqlSelectScanResults = `
        SELECT scan_id, parameter_name, predicted_value
        FROM scan_results
        ORDER BY scan_id ASC, parameter_name ASC;
    `
)

// PostgresLoader bootstraps an entity snapshot from the four source tables.
type PostgresLoader struct {
	pool DBPool
	log  *zap.Logger
}

// NewPostgresLoader creates a loader and verifies the connection.
func NewPostgresLoader(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresLoader, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresLoader{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// LoadSnapshot reads all four entity tables and builds an immutable snapshot.
func (l *PostgresLoader) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	algos, err := l.loadAlgos(ctx)
	if err != nil {
		return nil, err
	}
	widgets, err := l.loadWidgets(ctx)
	if err != nil {
		return nil, err
	}
	scans, err := l.loadScans(ctx)
	if err != nil {
		return nil, err
	}
	results, err := l.loadScanResults(ctx)
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot(algos, widgets, scans, results)
	na, nw, ns, nr := snap.Counts()
	l.log.Info("Entity snapshot loaded from database",
		zap.Int("algos", na),
		zap.Int("widgets", nw),
		zap.Int("scans", ns),
		zap.Int("results", nr))
	return snap, nil
}

func (l *PostgresLoader) loadAlgos(ctx context.Context) ([]schemas.Algo, error) {
	rows, err := l.pool.Query(ctx, sqlSelectAlgos)
	if err != nil {
		return nil, fmt.Errorf("failed to query algos: %w", err)
	}
	defer rows.Close()

	var algos []schemas.Algo
	for rows.Next() {
		var a schemas.Algo
		if err := rows.Scan(&a.ID, &a.Name, &a.Version); err != nil {
			return nil, fmt.Errorf("failed to scan algo row: %w", err)
		}
		algos = append(algos, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during algo row iteration: %w", err)
	}
	return algos, nil
}

func (l *PostgresLoader) loadWidgets(ctx context.Context) ([]schemas.Widget, error) {
	rows, err := l.pool.Query(ctx, sqlSelectWidgets)
	if err != nil {
		return nil, fmt.Errorf("failed to query widgets: %w", err)
	}
	defer rows.Close()

	var widgets []schemas.Widget
	for rows.Next() {
		var (
			w         schemas.Widget
			rawConfig []byte
			rawOrder  []byte
		)
		if err := rows.Scan(&w.ID, &w.Name, &w.AlgoID, &rawConfig, &rawOrder); err != nil {
			return nil, fmt.Errorf("failed to scan widget row: %w", err)
		}

		w.ParamConfig = map[string]schemas.ParamSpec{}
		if len(rawConfig) > 0 && string(rawConfig) != "null" {
			if err := json.Unmarshal(rawConfig, &w.ParamConfig); err != nil {
				return nil, fmt.Errorf("widget %d: invalid param_config JSON: %w", w.ID, err)
			}
		}
		if len(rawOrder) > 0 && string(rawOrder) != "null" {
			if err := json.Unmarshal(rawOrder, &w.ParamOrder); err != nil {
				return nil, fmt.Errorf("widget %d: invalid param_order JSON: %w", w.ID, err)
			}
		}
		widgets = append(widgets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during widget row iteration: %w", err)
	}
	return widgets, nil
}

func (l *PostgresLoader) loadScans(ctx context.Context) ([]schemas.Scan, error) {
	rows, err := l.pool.Query(ctx, sqlSelectScans)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []schemas.Scan
	for rows.Next() {
		var s schemas.Scan
		if err := rows.Scan(&s.ID, &s.UserID, &s.DeviceID, &s.WidgetID, &s.AlgoID, &s.SampledAt); err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during scan row iteration: %w", err)
	}
	return scans, nil
}

func (l *PostgresLoader) loadScanResults(ctx context.Context) ([]schemas.ScanResult, error) {
	rows, err := l.pool.Query(ctx, sqlSelectScanResults)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan results: %w", err)
	}
	defer rows.Close()

	var results []schemas.ScanResult
	for rows.Next() {
		var r schemas.ScanResult
		if err := rows.Scan(&r.ScanID, &r.ParameterName, &r.PredictedValue); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during result row iteration: %w", err)
	}
	return results, nil
}
