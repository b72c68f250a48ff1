package tablebridge

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// FileAction describes one on-disk data file belonging to a table snapshot.
// It is created by the (out-of-scope) transaction-log reader, never mutated,
// and discarded along with the snapshot that produced it.
type FileAction struct {
	Path             string            `json:"path"`
	SizeBytes        int64             `json:"sizeBytes"`
	ModificationTime time.Time         `json:"modificationTime"`
	PartitionValues  map[string]*string `json:"partitionValues"`
	Stats            *FileStats        `json:"stats,omitempty"`
	DeletionVector   *DeletionVector   `json:"deletionVector,omitempty"`
}

// DeletionVector is an opaque reference to a file's soft-deleted rows; this
// module never interprets its contents, only carries the reference through.
type DeletionVector struct {
	StorageType string `json:"storageType"`
	PathOrInline string `json:"pathOrInline"`
	Offset      *int64 `json:"offset,omitempty"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// FileStats holds per-column statistics for one FileAction, used by the
// Pruner and by statistics composition in the Scan Builder.
type FileStats struct {
	NumRows int64                 `json:"numRows"`
	Columns map[string]ColumnStats `json:"columns"`
}

// ColumnStats carries the three signals the Pruner needs for a single
// column of one file: typed min/max bounds and a null count. Min/Max are
// the zero Scalar (IsZero) when unknown; NullCount is nil when unknown.
type ColumnStats struct {
	Min       Scalar `json:"min,omitempty"`
	Max       Scalar `json:"max,omitempty"`
	NullCount *int64 `json:"nullCount,omitempty"`
}

// AggregateStatistics summarizes FileStats across a set of files; nil
// fields mean "unknown", not zero.
type AggregateStatistics struct {
	NumRows *int64                        `json:"numRows,omitempty"`
	Columns map[string]*AggregateColumnStat `json:"columns,omitempty"`
}

// AggregateColumnStat is the per-column component of AggregateStatistics.
type AggregateColumnStat struct {
	Min       Scalar `json:"min,omitempty"`
	Max       Scalar `json:"max,omitempty"`
	NullCount *int64 `json:"nullCount,omitempty"`
}

// ScanConfig is the request-time configuration accepted by the Scan
// Builder. The zero value is not valid; use DefaultScanConfig.
type ScanConfig struct {
	IncludeFilePathColumn bool
	FilePathColumnName    string
	WrapPartitionValues   bool
	PushdownFilters       bool
	OverrideSchema        *arrow.Schema
}

// DefaultScanConfig returns the spec-mandated defaults: no synthetic path
// column, partition values wrapped in a dictionary, pushdown enabled.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		IncludeFilePathColumn: false,
		WrapPartitionValues:   true,
		PushdownFilters:       true,
	}
}

// Metrics is the single-writer-then-read-only counter bag attached to one
// ScanPlan. Values are set once during Build and read by callers afterward.
type Metrics struct {
	counters map[string]int64
}

// NewMetrics returns a Metrics bag with the two mandatory counters present
// at zero.
func NewMetrics() *Metrics {
	return &Metrics{counters: map[string]int64{
		"files_scanned": 0,
		"files_pruned":  0,
	}}
}

// Set assigns a counter value. Intended to be called once per key during
// plan construction.
func (m *Metrics) Set(key string, value int64) {
	m.counters[key] = value
}

// Get returns a counter value, or 0 if the key was never set.
func (m *Metrics) Get(key string) int64 {
	return m.counters[key]
}

// Snapshot returns a copy of all counters, safe to hand to a caller.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

// FileGroup is a set of files sharing one partition-value tuple, the unit
// the columnar reader schedules as one partition of work.
type FileGroup struct {
	PartitionValues map[string]Scalar `json:"partitionValues"`
	Files           []FileAction      `json:"files"`
}

// ScanPlan is the Scan Builder's output: everything the columnar reader
// needs to execute a partitioned, pruned, schema-reconciled scan.
type ScanPlan struct {
	TableURI       string
	Config         ScanConfig
	LogicalSchema  *arrow.Schema
	PhysicalSchema *arrow.Schema
	PartitionSchema *arrow.Schema
	FileGroups     []FileGroup
	Projection     []int
	Limit          *int64
	Predicate      Expr
	Statistics     AggregateStatistics
	Metrics        *Metrics

	// Child is the query engine's deserialized input node, reattached by
	// the Plan Codec's Decode rather than rebuilt; nil when the plan was
	// produced directly by the Scan Builder instead of round-tripped
	// through Encode/Decode.
	Child RecordBatchStream
}

// CheckKind discriminates the three declarative-check flavors the Data
// Checker evaluates. Modeled as a tagged variant rather than an interface
// hierarchy: all three share (name, expression) and differ only in which
// SQL projection target they use.
type CheckKind string

const (
	CheckInvariant       CheckKind = "invariant"
	CheckConstraint      CheckKind = "constraint"
	CheckGeneratedColumn CheckKind = "generated_column"
)

// Check is one declarative rule the Data Checker evaluates against a batch.
type Check struct {
	Kind       CheckKind
	Name       string
	Expression string
}

// projectionTarget returns the SQL projection list used when probing this
// check: "*" for constraints (report full row), the check's own name
// otherwise (report just the computed/declared column).
func (c Check) projectionTarget() string {
	if c.Kind == CheckConstraint {
		return "*"
	}
	return c.Name
}

// Violation describes one failed nullability/constraint/invariant check,
// including the offending row rendered as literal values.
type Violation struct {
	Message string `json:"message"`
	Row     string `json:"row,omitempty"`
}
