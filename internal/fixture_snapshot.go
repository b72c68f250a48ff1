package internal

import (
	"encoding/json"

	"github.com/apache/arrow-go/v18/arrow"
	tb "github.com/lychee-technology/tablebridge"
)

// FixtureSchemaField is one entry of a fixture's "schemaFields" array,
// mirroring fixtureSchemaJSON's shape.
type FixtureSchemaField struct {
	Name        string `json:"name"`
	ArrowType   string `json:"arrowType"`
	Nullable    bool   `json:"nullable"`
	IsPartition bool   `json:"isPartition"`
}

// FixtureFileAction is one entry of a fixture's "fileActions" array.
type FixtureFileAction struct {
	Path             string             `json:"path"`
	SizeBytes        int64              `json:"sizeBytes"`
	ModificationTime string             `json:"modificationTime"`
	PartitionValues  map[string]*string `json:"partitionValues"`
	NumRows          *int64             `json:"numRows"`
	Stats            map[string]columnStatsJSON `json:"stats"`
}

// Fixture is the fully-decoded shape of a snapshot fixture file.
type Fixture struct {
	SchemaFields []FixtureSchemaField `json:"schemaFields"`
	FileActions  []FixtureFileAction  `json:"fileActions"`
}

// FixtureSnapshot is an in-memory Snapshot built directly from a decoded
// fixture, used by tests and the planfixture command rather than standing
// up Postgres or a real transaction log.
type FixtureSnapshot struct {
	schema           *arrow.Schema
	partitionColumns []string
	files            []tb.FileAction
}

// DecodeFixture validates data against fixtureSchemaJSON, decodes it, and
// builds the Snapshot it describes.
func DecodeFixture(data []byte) (*FixtureSnapshot, error) {
	if err := ValidateFixture(data); err != nil {
		return nil, err
	}

	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, tb.NewSerializationError("decoding fixture", err)
	}

	var fields []arrow.Field
	var partitionColumns []string
	for _, sf := range fixture.SchemaFields {
		dt, err := ArrowTypeFromName(sf.ArrowType)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: sf.Name, Type: dt, Nullable: sf.Nullable})
		if sf.IsPartition {
			partitionColumns = append(partitionColumns, sf.Name)
		}
	}
	schema := arrow.NewSchema(fields, nil)

	files := make([]tb.FileAction, 0, len(fixture.FileActions))
	for _, ffa := range fixture.FileActions {
		var stats *tb.FileStats
		if ffa.NumRows != nil {
			columns := make(map[string]tb.ColumnStats, len(ffa.Stats))
			for name, raw := range ffa.Stats {
				idx, ok := fieldIndexByName(schema, name)
				if !ok {
					continue
				}
				fieldType := schema.Field(idx).Type
				cs := tb.ColumnStats{NullCount: raw.NullCount}
				if raw.Min != nil {
					if sc, matched, err := ScalarFromToken(*raw.Min, fieldType); err == nil && matched {
						cs.Min = sc
					}
				}
				if raw.Max != nil {
					if sc, matched, err := ScalarFromToken(*raw.Max, fieldType); err == nil && matched {
						cs.Max = sc
					}
				}
				columns[name] = cs
			}
			stats = &tb.FileStats{NumRows: *ffa.NumRows, Columns: columns}
		}
		files = append(files, tb.FileAction{
			Path: ffa.Path, SizeBytes: ffa.SizeBytes,
			PartitionValues: ffa.PartitionValues, Stats: stats,
		})
	}

	return &FixtureSnapshot{schema: schema, partitionColumns: partitionColumns, files: files}, nil
}

func (s *FixtureSnapshot) Schema() *arrow.Schema        { return s.schema }
func (s *FixtureSnapshot) PartitionColumns() []string   { return s.partitionColumns }
func (s *FixtureSnapshot) FileActions() []tb.FileAction { return s.files }
func (s *FixtureSnapshot) NumContainers() int           { return len(s.files) }

func (s *FixtureSnapshot) Statistics() tb.AggregateStatistics {
	return aggregateStatistics([]tb.FileGroup{{Files: s.files}}, s.schema)
}

func (s *FixtureSnapshot) AddActionsTable(flattenPartitions bool) (arrow.Record, error) {
	ps := &PostgresSnapshot{schema: s.schema, partitionColumns: s.partitionColumns, files: s.files}
	return ps.AddActionsTable(flattenPartitions)
}
