package tablebridge

import "time"

// Config aggregates every ambient setting this module needs outside of a
// single scan request: the embedded SQL engine, the default object store,
// default scan behavior, logging, and metrics. Mirrors the teacher
// codebase's nested-struct-plus-DefaultConfig-plus-Validate shape.
type Config struct {
	Engine      EngineConfig      `json:"engine"`
	ObjectStore ObjectStoreConfig `json:"objectStore"`
	Scan        ScanConfig        `json:"scan"`
	Logging     LoggingConfig     `json:"logging"`
	Metrics     MetricsConfig     `json:"metrics"`
}

// EngineConfig configures the embedded DuckDB-backed SQLEngine/ColumnarReader.
type EngineConfig struct {
	DBPath         string        `json:"dbPath"` // ":memory:" for an in-process engine
	MaxConnections int           `json:"maxConnections"`
	QueryTimeout   time.Duration `json:"queryTimeout"`
	EnableHTTPFS   bool          `json:"enableHttpfs"`
	EnableParquet  bool          `json:"enableParquet"`
	Extensions     []string      `json:"extensions"`
}

// ObjectStoreConfig selects and configures the default ObjectStore
// implementation for table roots not otherwise registered.
type ObjectStoreConfig struct {
	DefaultScheme string        `json:"defaultScheme"` // "s3" or "file"
	S3Region      string        `json:"s3Region"`
	S3Endpoint    string        `json:"s3Endpoint"`
	RequestTimeout time.Duration `json:"requestTimeout"`
	LocalRoot     string        `json:"localRoot"`
}

// LoggingConfig configures zap's production/development preset selection.
type LoggingConfig struct {
	Level            string `json:"level"`
	Development      bool   `json:"development"`
	EnableStacktrace bool   `json:"enableStacktrace"`
}

// MetricsConfig configures whether and how the Metrics bag attached to a
// ScanPlan is additionally exported; the bag itself is always populated
// regardless of this config (see Metrics in types.go).
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace"`
}

// DefaultConfig returns production defaults: an in-memory DuckDB engine
// with httpfs+parquet loaded, S3 as the default object-store scheme, info
// logging, metrics enabled.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DBPath:         ":memory:",
			MaxConnections: 1,
			QueryTimeout:   30 * time.Second,
			EnableHTTPFS:   true,
			EnableParquet:  true,
		},
		ObjectStore: ObjectStoreConfig{
			DefaultScheme:  "s3",
			RequestTimeout: 30 * time.Second,
		},
		Scan: DefaultScanConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "tablebridge",
		},
	}
}

// Validate checks invariants DefaultConfig always satisfies but a caller-
// supplied Config might not.
func (c *Config) Validate() error {
	if c.Engine.MaxConnections <= 0 {
		return &ConfigError{Field: "engine.maxConnections", Message: "must be greater than 0"}
	}
	if c.Engine.DBPath == "" {
		return &ConfigError{Field: "engine.dbPath", Message: "must not be empty"}
	}
	if c.ObjectStore.DefaultScheme != "s3" && c.ObjectStore.DefaultScheme != "file" {
		return &ConfigError{Field: "objectStore.defaultScheme", Message: "must be 's3' or 'file'"}
	}
	if c.Scan.IncludeFilePathColumn && c.Scan.FilePathColumnName == "" {
		// an explicit name is optional; the assembler falls back to the
		// default synthetic name and its collision-avoidance suffixing.
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
