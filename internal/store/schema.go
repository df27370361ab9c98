package store

import (
	"context"
	"fmt"
	"strings"

	"repoql/internal/ir"
)

// EnsureTable creates the backing table for a record spec if it does not
// exist. Idempotent. Column order follows field declaration order.
func (s *Store) EnsureTable(ctx context.Context, record ir.RecordSpec) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("ensure table: %w", err)
	}

	key, _ := record.KeyField()
	cols := make([]string, 0, len(record.Fields))
	for _, f := range record.Fields {
		col := fmt.Sprintf("%s %s", f.Name, sqliteType(f.Type))
		if f.Name == key.Name {
			col += " PRIMARY KEY"
		}
		cols = append(cols, col)
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", record.Table, strings.Join(cols, ", "))
	if _, err := s.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure table %s: %w", record.Table, err)
	}
	s.logger.Debug("table ensured", "table", record.Table, "fields", len(record.Fields))
	return nil
}

// TableFields introspects a live table into an ordered FieldSpec list via
// PRAGMA table_info. SQLite storage classes collapse the declared types:
// TEXT maps back to string (including time fields), INTEGER to int
// (including bool fields), REAL to float.
func (s *Store) TableFields(ctx context.Context, table string) ([]ir.FieldSpec, error) {
	rows, err := s.Query(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var fields []ir.FieldSpec
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		fields = append(fields, ir.FieldSpec{
			Name:       name,
			Type:       fieldTypeOf(colType),
			PrimaryKey: pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info %s: %w", table, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return fields, nil
}

func sqliteType(t ir.FieldType) string {
	switch t {
	case ir.TypeInt, ir.TypeBool:
		return "INTEGER"
	case ir.TypeFloat:
		return "REAL"
	default:
		// string and time are stored as TEXT (time as RFC 3339).
		return "TEXT"
	}
}

func fieldTypeOf(colType string) ir.FieldType {
	switch strings.ToUpper(colType) {
	case "INTEGER":
		return ir.TypeInt
	case "REAL":
		return ir.TypeFloat
	default:
		return ir.TypeString
	}
}
