package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultTable is the table read by an SQLiteSource when none is given.
const DefaultTable = "financials"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads the financial table from an SQLite database.
type SQLiteSource struct {
	path  string
	table string
}

// NewSQLiteSource creates a source reading table from the database at path.
func NewSQLiteSource(path, table string) *SQLiteSource {
	if table == "" {
		table = DefaultTable
	}
	return &SQLiteSource{path: path, table: table}
}

// Path returns the database file the source reads.
func (s *SQLiteSource) Path() string {
	return s.path
}

// Describe implements Source.
func (s *SQLiteSource) Describe() string {
	return fmt.Sprintf("sqlite:%s#%s", s.path, s.table)
}

// Load implements Source.
func (s *SQLiteSource) Load(ctx context.Context) (*Table, error) {
	if !identifierPattern.MatchString(s.table) {
		return nil, fmt.Errorf("invalid table name %q", s.table)
	}
	if err := statSource(s.path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, s.table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	table := &Table{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if v := convertSQLValue(col, values[i]); v != nil {
				row[col] = v
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	if table.Empty() {
		return nil, ErrEmptySource
	}
	return table, nil
}

// convertSQLValue maps a driver value onto the Row value types.
func convertSQLValue(col string, v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int64:
		return float64(val)
	case float64:
		return val
	case bool:
		if val {
			return 1.0
		}
		return 0.0
	case time.Time:
		return val
	case []byte:
		return parseCell(col, string(val))
	case string:
		return parseCell(col, val)
	default:
		return fmt.Sprint(val)
	}
}
