package internal

import (
	"context"
	"fmt"
	"strings"
	"time"

	tb "github.com/lychee-technology/tablebridge"
)

// EngineSession wraps the embedded DuckDB connection pool plus the session
// defaults every caller of the Scan Builder, Find-Files, and Data Checker
// shares: a fixed schema search path, applied with SET search_path.
// Identifier case handling is left at DuckDB's default. One EngineSession is
// created per Config and its Engine() is the value threaded through
// BuildScanPlan, FindFiles, and CheckBatch as their SQLEngine parameter.
type EngineSession struct {
	client     *DuckDBClient
	engine     *DuckDBEngine
	SearchPath []string
}

// EngineSessionOption configures a session beyond the engine/object-store
// config needed to open the connection.
type EngineSessionOption func(*engineSessionOptions)

type engineSessionOptions struct {
	searchPath   []string
	queryTimeout time.Duration
}

// WithSearchPath fixes the schema resolution order DuckDB uses when a
// query references an unqualified table name (§4.9: "a default schema
// search path"). Later entries are queried only when earlier ones miss.
func WithSearchPath(schemas ...string) EngineSessionOption {
	return func(o *engineSessionOptions) { o.searchPath = schemas }
}

// WithQueryTimeout overrides the per-query timeout used by the session's
// engine; NewEngineSession defaults to 30s, matching cmd/planfixture.
func WithQueryTimeout(d time.Duration) EngineSessionOption {
	return func(o *engineSessionOptions) { o.queryTimeout = d }
}

// NewEngineSession opens a DuckDB client for cfg/objStore and applies the
// session defaults, returning a session whose Engine() is ready to pass to
// BuildScanPlan/FindFiles/CheckBatch.
func NewEngineSession(cfg tb.EngineConfig, objStore tb.ObjectStoreConfig, opts ...EngineSessionOption) (*EngineSession, error) {
	o := engineSessionOptions{queryTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := NewDuckDBClient(cfg, objStore)
	if err != nil {
		return nil, err
	}

	if len(o.searchPath) > 0 {
		stmt := fmt.Sprintf("SET search_path = '%s';", strings.Join(o.searchPath, ","))
		if _, err := client.DB.Exec(stmt); err != nil {
			client.Close()
			return nil, tb.NewInternalError("setting duckdb search_path", err)
		}
	}

	return &EngineSession{
		client:     client,
		engine:     NewDuckDBEngine(client, o.queryTimeout),
		SearchPath: o.searchPath,
	}, nil
}

// Engine returns the session's SQLEngine/ColumnarReader, the value every
// planning/checking entry point takes as its engine parameter.
func (s *EngineSession) Engine() *DuckDBEngine {
	return s.engine
}

// Close releases the session's underlying DuckDB connection.
func (s *EngineSession) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}

// HealthCheck delegates to the underlying client, letting callers verify a
// session survived startup before handing it to the planner.
func (s *EngineSession) HealthCheck(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("engine session is nil")
	}
	return s.client.HealthCheck(ctx)
}
