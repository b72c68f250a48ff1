package tablebridge

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Snapshot is the consumed contract for an immutable view of a table at a
// committed version (§6). Implementations are produced by the out-of-scope
// transaction-log reader; this module only reads from them.
type Snapshot interface {
	// Schema returns the logical schema: an ordered, stable-for-the-life-
	// of-the-snapshot sequence of fields.
	Schema() *arrow.Schema

	// PartitionColumns returns the ordered list of partition column names,
	// each of which must also name a field in Schema().
	PartitionColumns() []string

	// FileActions returns every data file tracked by this snapshot, in a
	// stable order.
	FileActions() []FileAction

	// NumContainers reports len(FileActions()) without materializing it,
	// mirroring the source's num_containers().
	NumContainers() int

	// Statistics returns the snapshot's precomputed aggregate statistics,
	// used by the Scan Builder when no pruning narrows the file set.
	Statistics() AggregateStatistics

	// AddActionsTable returns an in-memory relation of (path, partition
	// columns...) used by Find-Files' partition-only fast path. When
	// flattenPartitions is true partition columns are individual top-level
	// columns; otherwise they are nested under a single struct column.
	AddActionsTable(flattenPartitions bool) (arrow.Record, error)
}
