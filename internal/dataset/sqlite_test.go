package dataset_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ShayCichocki/finagent/internal/dataset"

	_ "modernc.org/sqlite"
)

func seedSQLite(t *testing.T, rows int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "financials.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE financials (
		"Segment" TEXT, "Country" TEXT, "Units Sold" INTEGER,
		"Gross Sales" REAL, "Profit" REAL, "Date" TEXT
	)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < rows; i++ {
		if _, err := db.Exec(`INSERT INTO financials VALUES (?, ?, ?, ?, ?, ?)`,
			"Government", "Canada", 10+i, 400.0+float64(i), 100.0+float64(i), "2024-01-15"); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return path
}

func TestSQLiteSource_Load(t *testing.T) {
	path := seedSQLite(t, 3)

	table, err := dataset.NewSQLiteSource(path, "").Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("rows = %d, want 3", table.Len())
	}
	row := table.Rows[2]
	if v, ok := row.Float(dataset.ColUnitsSold); !ok || v != 12 {
		t.Errorf("units = %v (ok=%v)", v, ok)
	}
	if v, ok := row.Float(dataset.ColProfit); !ok || v != 102 {
		t.Errorf("profit = %v (ok=%v)", v, ok)
	}
	if _, ok := row.Time(dataset.ColDate); !ok {
		t.Errorf("date not parsed: %#v", row[dataset.ColDate])
	}
	if s, _ := row.String(dataset.ColSegment); s != "Government" {
		t.Errorf("segment = %q", s)
	}
}

func TestSQLiteSource_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := dataset.NewSQLiteSource(filepath.Join(t.TempDir(), "x.db"), "").Load(ctx); !errors.Is(err, dataset.ErrSourceNotFound) {
		t.Errorf("missing db error = %v, want ErrSourceNotFound", err)
	}

	path := seedSQLite(t, 0)
	if _, err := dataset.NewSQLiteSource(path, "").Load(ctx); !errors.Is(err, dataset.ErrEmptySource) {
		t.Errorf("empty table error = %v, want ErrEmptySource", err)
	}

	if _, err := dataset.NewSQLiteSource(path, `financials"; DROP TABLE x; --`).Load(ctx); err == nil {
		t.Error("invalid table name should be rejected")
	}
}
