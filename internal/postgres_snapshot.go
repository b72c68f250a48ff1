package internal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/jackc/pgx/v5"
	tb "github.com/lychee-technology/tablebridge"
	"go.uber.org/zap"
)

// queryPool is the minimal interface this loader needs from a pgx pool,
// satisfied by both *pgxpool.Pool and pgxmock's pool for tests.
type queryPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	schemaFieldsTable = "tablebridge_schema_fields"
	fileActionsTable  = "tablebridge_file_actions"
)

// PostgresSnapshot is a reference Snapshot backed by two catalog tables in
// Postgres rather than a Delta transaction log — useful for fixtures and
// integration tests that want a real, queryable snapshot source without
// standing up a log reader. Grounded on the teacher's pgxpool-querying and
// zap-logging idiom for database discovery.
type PostgresSnapshot struct {
	schema           *arrow.Schema
	partitionColumns []string
	files            []tb.FileAction
}

type schemaFieldRow struct {
	Ordinal     int
	Name        string
	ArrowType   string
	Nullable    bool
	IsPartition bool
}

// LoadPostgresSnapshot queries tableRoot's schema fields and file actions
// out of the catalog tables and assembles a PostgresSnapshot.
func LoadPostgresSnapshot(ctx context.Context, pool queryPool, tableRoot string) (*PostgresSnapshot, error) {
	zap.S().Infow("loading postgres snapshot", "tableRoot", tableRoot)

	fieldRows, err := pool.Query(ctx,
		`SELECT ordinal, name, arrow_type, nullable, is_partition FROM `+schemaFieldsTable+`
WHERE table_root = $1 ORDER BY ordinal`, tableRoot)
	if err != nil {
		return nil, tb.NewObjectStoreError("querying schema fields for '"+tableRoot+"'", err)
	}
	defer fieldRows.Close()

	var fields []arrow.Field
	var partitionColumns []string
	for fieldRows.Next() {
		var r schemaFieldRow
		if err := fieldRows.Scan(&r.Ordinal, &r.Name, &r.ArrowType, &r.Nullable, &r.IsPartition); err != nil {
			return nil, tb.NewObjectStoreError("scanning schema field row", err)
		}
		dt, err := ArrowTypeFromName(r.ArrowType)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: r.Name, Type: dt, Nullable: r.Nullable})
		if r.IsPartition {
			partitionColumns = append(partitionColumns, r.Name)
		}
	}
	if err := fieldRows.Err(); err != nil {
		return nil, tb.NewObjectStoreError("iterating schema field rows", err)
	}
	if len(fields) == 0 {
		return nil, tb.NewNotFoundError("no schema fields registered for table root '" + tableRoot + "'")
	}
	schema := arrow.NewSchema(fields, nil)

	files, err := loadFileActions(ctx, pool, tableRoot, schema)
	if err != nil {
		return nil, err
	}
	zap.S().Infow("postgres snapshot loaded", "tableRoot", tableRoot, "files", len(files))

	return &PostgresSnapshot{schema: schema, partitionColumns: partitionColumns, files: files}, nil
}

type columnStatsJSON struct {
	Min       *string `json:"min"`
	Max       *string `json:"max"`
	NullCount *int64  `json:"nullCount"`
}

type deletionVectorJSON struct {
	StorageType  string `json:"storageType"`
	PathOrInline string `json:"pathOrInline"`
	Offset       *int64 `json:"offset"`
	SizeBytes    int64  `json:"sizeBytes"`
}

func loadFileActions(ctx context.Context, pool queryPool, tableRoot string, schema *arrow.Schema) ([]tb.FileAction, error) {
	rows, err := pool.Query(ctx,
		`SELECT path, size_bytes, modification_time, partition_values, num_rows, column_stats, deletion_vector
FROM `+fileActionsTable+` WHERE table_root = $1 ORDER BY path`, tableRoot)
	if err != nil {
		return nil, tb.NewObjectStoreError("querying file actions for '"+tableRoot+"'", err)
	}
	defer rows.Close()

	var files []tb.FileAction
	for rows.Next() {
		var (
			path                string
			sizeBytes           int64
			modTime             time.Time
			partitionValuesJSON []byte
			numRows             *int64
			columnStatsJSONRaw  []byte
			deletionVectorRaw   []byte
		)
		if err := rows.Scan(&path, &sizeBytes, &modTime, &partitionValuesJSON, &numRows, &columnStatsJSONRaw, &deletionVectorRaw); err != nil {
			return nil, tb.NewObjectStoreError("scanning file action row", err)
		}

		var partitionValues map[string]*string
		if len(partitionValuesJSON) > 0 {
			if err := json.Unmarshal(partitionValuesJSON, &partitionValues); err != nil {
				return nil, tb.NewSerializationError("decoding partition values for '"+path+"'", err)
			}
		}

		var stats *tb.FileStats
		if numRows != nil {
			var rawColumns map[string]columnStatsJSON
			if len(columnStatsJSONRaw) > 0 {
				if err := json.Unmarshal(columnStatsJSONRaw, &rawColumns); err != nil {
					return nil, tb.NewSerializationError("decoding column stats for '"+path+"'", err)
				}
			}
			columns := make(map[string]tb.ColumnStats, len(rawColumns))
			for name, raw := range rawColumns {
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
			stats = &tb.FileStats{NumRows: *numRows, Columns: columns}
		}

		var dv *tb.DeletionVector
		if len(deletionVectorRaw) > 0 {
			var raw deletionVectorJSON
			if err := json.Unmarshal(deletionVectorRaw, &raw); err != nil {
				return nil, tb.NewSerializationError("decoding deletion vector for '"+path+"'", err)
			}
			dv = &tb.DeletionVector{StorageType: raw.StorageType, PathOrInline: raw.PathOrInline, Offset: raw.Offset, SizeBytes: raw.SizeBytes}
		}

		files = append(files, tb.FileAction{
			Path: path, SizeBytes: sizeBytes, ModificationTime: modTime,
			PartitionValues: partitionValues, Stats: stats, DeletionVector: dv,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, tb.NewObjectStoreError("iterating file action rows", err)
	}
	return files, nil
}

func (s *PostgresSnapshot) Schema() *arrow.Schema          { return s.schema }
func (s *PostgresSnapshot) PartitionColumns() []string     { return s.partitionColumns }
func (s *PostgresSnapshot) FileActions() []tb.FileAction   { return s.files }
func (s *PostgresSnapshot) NumContainers() int             { return len(s.files) }

func (s *PostgresSnapshot) Statistics() tb.AggregateStatistics {
	groups := []tb.FileGroup{{Files: s.files}}
	return aggregateStatistics(groups, s.schema)
}

// AddActionsTable builds an in-memory (path, partition columns...) or
// (path, partitionValues struct) relation over every tracked file.
func (s *PostgresSnapshot) AddActionsTable(flattenPartitions bool) (arrow.Record, error) {
	mem := memory.NewGoAllocator()
	pathBuilder := array.NewStringBuilder(mem)
	defer pathBuilder.Release()

	fields := []arrow.Field{{Name: "path", Type: arrow.BinaryTypes.String}}

	if flattenPartitions {
		partBuilders := make([]array.Builder, len(s.partitionColumns))
		partTypes := make([]arrow.DataType, len(s.partitionColumns))
		for i, name := range s.partitionColumns {
			idx, _ := fieldIndexByName(s.schema, name)
			t := s.schema.Field(idx).Type
			partTypes[i] = t
			partBuilders[i] = array.NewBuilder(mem, t)
			fields = append(fields, arrow.Field{Name: name, Type: t, Nullable: true})
			defer partBuilders[i].Release()
		}

		for _, f := range s.files {
			pathBuilder.Append(f.Path)
			for i, name := range s.partitionColumns {
				raw := f.PartitionValues[name]
				if raw == nil {
					partBuilders[i].AppendNull()
					continue
				}
				sc, matched, err := ScalarFromToken(*raw, partTypes[i])
				if err != nil {
					return nil, err
				}
				if !matched || sc.Null {
					partBuilders[i].AppendNull()
					continue
				}
				if err := appendScalarValue(partBuilders[i], sc); err != nil {
					return nil, err
				}
			}
		}

		arrays := make([]arrow.Array, 0, len(fields))
		pathArr := pathBuilder.NewArray()
		defer pathArr.Release()
		arrays = append(arrays, pathArr)
		for _, b := range partBuilders {
			a := b.NewArray()
			defer a.Release()
			arrays = append(arrays, a)
		}
		return array.NewRecord(arrow.NewSchema(fields, nil), arrays, int64(len(s.files))), nil
	}

	partitionFields := make([]arrow.Field, len(s.partitionColumns))
	for i, name := range s.partitionColumns {
		idx, _ := fieldIndexByName(s.schema, name)
		partitionFields[i] = s.schema.Field(idx)
	}
	structType := arrow.StructOf(partitionFields...)
	structBuilder := array.NewStructBuilder(mem, structType)
	defer structBuilder.Release()

	for _, f := range s.files {
		pathBuilder.Append(f.Path)
		structBuilder.Append(true)
		for i, name := range s.partitionColumns {
			child := structBuilder.FieldBuilder(i)
			raw := f.PartitionValues[name]
			if raw == nil {
				child.AppendNull()
				continue
			}
			sc, matched, err := ScalarFromToken(*raw, partitionFields[i].Type)
			if err != nil {
				return nil, err
			}
			if !matched || sc.Null {
				child.AppendNull()
				continue
			}
			if err := appendScalarValue(child, sc); err != nil {
				return nil, err
			}
		}
	}

	fields = append(fields, arrow.Field{Name: "partitionValues", Type: structType, Nullable: true})
	pathArr := pathBuilder.NewArray()
	defer pathArr.Release()
	structArr := structBuilder.NewArray()
	defer structArr.Release()
	return array.NewRecord(arrow.NewSchema(fields, nil), []arrow.Array{pathArr, structArr}, int64(len(s.files))), nil
}

func appendScalarValue(b array.Builder, sc tb.Scalar) error {
	switch builder := b.(type) {
	case *array.BooleanBuilder:
		builder.Append(sc.Value.(bool))
	case *array.Int64Builder:
		builder.Append(sc.Value.(int64))
	case *array.Float64Builder:
		builder.Append(sc.Value.(float64))
	case *array.StringBuilder:
		builder.Append(sc.Value.(string))
	case *array.BinaryBuilder:
		builder.Append(sc.Value.([]byte))
	default:
		return tb.NewUnsupportedError("actions table: unsupported partition builder type")
	}
	return nil
}
