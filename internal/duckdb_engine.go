package internal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	tb "github.com/lychee-technology/tablebridge"
)

// DuckDBEngine is the embedded SQLEngine and ColumnarReader, backed by a
// DuckDBClient's shared connection. Registration creates a real table
// (dropped on Deregister) rather than a DuckDB TEMP TABLE, since a
// connection pool of size > 1 would otherwise scope a temp table to
// whichever connection happened to create it.
type DuckDBEngine struct {
	client       *DuckDBClient
	queryTimeout time.Duration
}

// NewDuckDBEngine wraps client as a SQLEngine/ColumnarReader pair.
func NewDuckDBEngine(client *DuckDBClient, queryTimeout time.Duration) *DuckDBEngine {
	return &DuckDBEngine{client: client, queryTimeout: queryTimeout}
}

func (e *DuckDBEngine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.queryTimeout)
}

// RegisterBatch materializes batch as a DuckDB table under name.
func (e *DuckDBEngine) RegisterBatch(ctx context.Context, name string, batch arrow.Record) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	schema := batch.Schema()
	cols := make([]string, schema.NumFields())
	placeholders := make([]string, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		ddType, err := DuckDBTypeFor(f.Type)
		if err != nil {
			return err
		}
		cols[i] = fmt.Sprintf("%s %s", quoteIdent(f.Name), ddType)
		placeholders[i] = "?"
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s);", quoteIdent(name), strings.Join(cols, ", "))
	if _, err := e.client.DB.ExecContext(ctx, createSQL); err != nil {
		return tb.NewInternalError("creating registration table '"+name+"'", err)
	}

	if batch.NumRows() == 0 {
		return nil
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s);", quoteIdent(name), strings.Join(placeholders, ", "))
	stmt, err := e.client.DB.PrepareContext(ctx, insertSQL)
	if err != nil {
		return tb.NewInternalError("preparing insert into '"+name+"'", err)
	}
	defer stmt.Close()

	for row := 0; row < int(batch.NumRows()); row++ {
		args := make([]any, schema.NumFields())
		for col := 0; col < int(batch.NumCols()); col++ {
			v, err := arrowValueAt(batch.Column(col), row)
			if err != nil {
				return err
			}
			args[col] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return tb.NewInternalError("inserting row into '"+name+"'", err)
		}
	}
	return nil
}

// Deregister drops the table created by RegisterBatch.
func (e *DuckDBEngine) Deregister(ctx context.Context, name string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	if _, err := e.client.DB.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)+";"); err != nil {
		return tb.NewInternalError("dropping registration table '"+name+"'", err)
	}
	return nil
}

// Query executes sql and returns its result as a single Arrow record.
func (e *DuckDBEngine) Query(ctx context.Context, sql string) ([]arrow.Record, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	rows, err := e.client.DB.QueryContext(ctx, sql)
	if err != nil {
		return nil, tb.NewInternalError("executing query", err)
	}
	rec, err := RowsToRecord(rows)
	if err != nil {
		return nil, err
	}
	return []arrow.Record{rec}, nil
}

// Simplify applies a bounded number of syntactic rewrite passes — constant
// folding of boolean literals and double-negation collapse — stopping
// once a pass makes no further change or maxCycles is reached. It never
// changes an expression's meaning, only its shape.
func (e *DuckDBEngine) Simplify(ctx context.Context, expr tb.Expr, schema *arrow.Schema, maxCycles int) (tb.Expr, error) {
	current := expr
	for i := 0; i < maxCycles; i++ {
		next, changed := simplifyOnce(current)
		current = next
		if !changed {
			break
		}
	}
	return current, nil
}

func simplifyOnce(e tb.Expr) (tb.Expr, bool) {
	switch n := e.(type) {
	case tb.Not:
		inner, changed := simplifyOnce(n.Expr)
		if innerNot, ok := inner.(tb.Not); ok {
			return innerNot.Expr, true
		}
		if lit, ok := literalBool(inner); ok {
			return tb.Literal{Value: tb.NewScalar(lit.Type, !lit.Value.(bool))}, true
		}
		return tb.Not{Expr: inner}, changed
	case tb.BinaryExpr:
		left, lChanged := simplifyOnce(n.Left)
		right, rChanged := simplifyOnce(n.Right)
		if n.Op == tb.OpAnd {
			if lb, ok := literalBool(left); ok {
				if lb.Value.(bool) {
					return right, true
				}
				return lb, true
			}
			if rb, ok := literalBool(right); ok {
				if rb.Value.(bool) {
					return left, true
				}
				return rb, true
			}
		}
		if n.Op == tb.OpOr {
			if lb, ok := literalBool(left); ok {
				if lb.Value.(bool) {
					return lb, true
				}
				return right, true
			}
			if rb, ok := literalBool(right); ok {
				if rb.Value.(bool) {
					return rb, true
				}
				return left, true
			}
		}
		return tb.BinaryExpr{Left: left, Op: n.Op, Right: right}, lChanged || rChanged
	default:
		return e, false
	}
}

func literalBool(e tb.Expr) (tb.Scalar, bool) {
	lit, ok := e.(tb.Literal)
	if !ok || lit.Value.Null {
		return tb.Scalar{}, false
	}
	_, ok = lit.Value.Value.(bool)
	if !ok {
		return tb.Scalar{}, false
	}
	return lit.Value, true
}

// Scan reads every file referenced by plan, in file-group order, as a
// single UNION ALL over DuckDB's read_parquet table function, with
// partition and synthetic-path columns supplied as per-file literals.
func (e *DuckDBEngine) Scan(ctx context.Context, plan *tb.ScanPlan) (tb.RecordBatchStream, error) {
	var selects []string
	for _, g := range plan.FileGroups {
		for _, f := range g.Files {
			sel, err := e.buildFileSelectSQL(ctx, plan, g, f)
			if err != nil {
				return nil, err
			}
			selects = append(selects, sel)
		}
	}
	if len(selects) == 0 {
		return &sliceRecordStream{}, nil
	}

	query := strings.Join(selects, " UNION ALL ")
	if plan.Limit != nil {
		query = fmt.Sprintf("SELECT * FROM (%s) AS scan_result LIMIT %d", query, *plan.Limit)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	rows, err := e.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, tb.NewInternalError("executing scan query", err)
	}
	rec, err := RowsToRecord(rows)
	if err != nil {
		return nil, err
	}
	return &sliceRecordStream{records: []arrow.Record{rec}}, nil
}

// buildFileSelectSQL renders one file's contribution to the UNION ALL scan
// query. A physical (non-partition, non-path) logical column absent from
// this specific file's on-disk schema — the §4.1/S7 file-to-logical
// adaptation case, e.g. an older file written before a column was added —
// is filled with a typed NULL rather than referenced directly, which would
// otherwise make DuckDB raise a binder error for the whole UNION.
func (e *DuckDBEngine) buildFileSelectSQL(ctx context.Context, plan *tb.ScanPlan, group tb.FileGroup, file tb.FileAction) (string, error) {
	pathColumn := ""
	if plan.Config.IncludeFilePathColumn {
		pathColumn = plan.LogicalSchema.Field(plan.LogicalSchema.NumFields() - 1).Name
	}

	uri := joinURI(plan.TableURI, file.Path)

	// probed stays false when there is no physical schema to adapt
	// against (e.g. a plan assembled without going through the Scan
	// Builder); in that case every physical column is assumed present
	// rather than defaulting to NULL on missing information.
	probed := false
	present := map[string]bool{}
	if plan.PhysicalSchema != nil && plan.PhysicalSchema.NumFields() > 0 {
		fileSchema, err := e.describeFileSchema(ctx, uri)
		if err != nil {
			return "", err
		}
		filePlan, err := AdaptFileSchema(fileSchema, plan.PhysicalSchema)
		if err != nil {
			return "", err
		}
		probed = true
		for _, cs := range filePlan.Columns {
			present[cs.Field.Name] = cs.FromFile
		}
	}

	cols := make([]string, 0, plan.LogicalSchema.NumFields())
	for i := 0; i < plan.LogicalSchema.NumFields(); i++ {
		f := plan.LogicalSchema.Field(i)
		switch {
		case f.Name == pathColumn:
			cols = append(cols, fmt.Sprintf("'%s' AS %s", strings.ReplaceAll(file.Path, "'", "''"), quoteIdent(f.Name)))
		case group.PartitionValues != nil && isPartitionField(group, f.Name):
			lit, err := renderLiteral(group.PartitionValues[f.Name])
			if err != nil {
				return "", err
			}
			ddType, err := DuckDBTypeFor(f.Type)
			if err != nil {
				return "", err
			}
			cols = append(cols, fmt.Sprintf("CAST(%s AS %s) AS %s", lit, ddType, quoteIdent(f.Name)))
		case !probed || present[f.Name]:
			cols = append(cols, quoteIdent(f.Name))
		default:
			ddType, err := DuckDBTypeFor(f.Type)
			if err != nil {
				return "", err
			}
			cols = append(cols, fmt.Sprintf("CAST(NULL AS %s) AS %s", ddType, quoteIdent(f.Name)))
		}
	}

	sel := fmt.Sprintf("SELECT %s FROM read_parquet('%s')", strings.Join(cols, ", "), strings.ReplaceAll(uri, "'", "''"))
	if plan.Config.PushdownFilters && plan.Predicate != nil {
		where, err := RenderExpr(plan.Predicate)
		if err != nil {
			return "", err
		}
		sel += " WHERE " + where
	}
	return sel, nil
}

// describeFileSchema queries DuckDB's column introspection for a single
// parquet file, used to decide which physical columns buildFileSelectSQL
// can reference directly versus fill with NULL.
func (e *DuckDBEngine) describeFileSchema(ctx context.Context, uri string) (*arrow.Schema, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("DESCRIBE SELECT * FROM read_parquet('%s')", strings.ReplaceAll(uri, "'", "''"))
	rows, err := e.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, tb.NewInternalError("describing physical schema for '"+uri+"'", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, tb.NewInternalError("reading describe result columns", err)
	}

	var fields []arrow.Field
	for rows.Next() {
		scanBuf := make([]any, len(cols))
		scanDest := make([]any, len(cols))
		for i := range scanBuf {
			scanDest[i] = &scanBuf[i]
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, tb.NewInternalError("scanning describe result row", err)
		}
		name := stringify(scanBuf[0])
		typeName := stringify(scanBuf[1])
		fields = append(fields, arrow.Field{Name: name, Type: arrowTypeFromDuckDBTypeName(typeName), Nullable: true})
	}
	if err := rows.Err(); err != nil {
		return nil, tb.NewInternalError("iterating describe result rows", err)
	}
	return arrow.NewSchema(fields, nil), nil
}

func isPartitionField(group tb.FileGroup, name string) bool {
	_, ok := group.PartitionValues[name]
	return ok
}

func joinURI(base, rel string) string {
	if base == "" {
		return rel
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}

// sliceRecordStream adapts a pre-materialized slice of records to
// RecordBatchStream.
type sliceRecordStream struct {
	records []arrow.Record
	pos     int
}

func (s *sliceRecordStream) Next(ctx context.Context) (arrow.Record, error) {
	if s.pos >= len(s.records) {
		return nil, nil
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

func (s *sliceRecordStream) Close() error {
	return nil
}
