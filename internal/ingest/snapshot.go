package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/spiview/internal/monitoring"
	_ "modernc.org/sqlite"
)

// SnapshotExt is the extension of the parsed-data cache written next to a
// source file.
const SnapshotExt = ".spidb"

const snapshotTable = "components"

// SnapshotPath returns the cache path for source: same directory and base
// name with SnapshotExt.
func SnapshotPath(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + SnapshotExt
}

// Cache stores normalised frames keyed by source path.
type Cache interface {
	// Load returns the cached frame for source. A missing entry yields an
	// error wrapping fs.ErrNotExist; a stale one wraps ErrSchemaMismatch.
	Load(ctx context.Context, source string) (*Frame, error)
	// Save replaces the cached frame for source.
	Save(ctx context.Context, source string, f *Frame) error
}

// SnapshotCache keeps frames in sqlite files beside their sources.
//
// A snapshot is accepted when its table has exactly the schema column names.
// Types and row counts are not checked.
type SnapshotCache struct{}

// Load reads the snapshot for source.
func (SnapshotCache) Load(ctx context.Context, source string) (*Frame, error) {
	path := SnapshotPath(source)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := openSnapshot(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	cols, err := snapshotColumns(ctx, db)
	if err != nil {
		return nil, err
	}
	if !sameColumnSet(cols) {
		return nil, fmt.Errorf("%s: %w: have [%s]", path, ErrSchemaMismatch, strings.Join(cols, ", "))
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+snapshotTable).Scan(&n); err != nil {
		return nil, fmt.Errorf("count snapshot rows: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT "+strings.Join(SchemaNames(), ", ")+" FROM "+snapshotTable+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	f := newFrame(n)
	vals := make([]any, len(Schema))
	ptrs := make([]any, len(Schema))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	r := 0
	for rows.Next() {
		if r >= n {
			return nil, fmt.Errorf("snapshot %s grew while reading", path)
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan snapshot row %d: %w", r+1, err)
		}
		for i, c := range Schema {
			if err := f.setValue(c, r, vals[i]); err != nil {
				return nil, &ValueError{Row: r + 1, Column: c.Name, Value: fmt.Sprint(vals[i]), Err: err}
			}
		}
		r++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	f.n = r
	return f, nil
}

// Save writes f to a temporary file and renames it over the snapshot.
func (SnapshotCache) Save(ctx context.Context, source string, f *Frame) error {
	path := SnapshotPath(source)
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := writeSnapshot(ctx, tmp, f); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("install snapshot: %w", err)
	}
	return nil
}

func writeSnapshot(ctx context.Context, path string, f *Frame) error {
	db, err := openSnapshot(path)
	if err != nil {
		return err
	}
	defer db.Close()

	defs := make([]string, len(Schema))
	marks := make([]string, len(Schema))
	for i, c := range Schema {
		defs[i] = c.Name + " " + c.Kind.sqlType()
		marks[i] = "?"
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE "+snapshotTable+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+snapshotTable+" ("+strings.Join(SchemaNames(), ", ")+") VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(Schema))
	for r := 0; r < f.Len(); r++ {
		for i, c := range Schema {
			args[i] = f.value(c, r)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert snapshot row %d: %w", r+1, err)
		}
	}
	return tx.Commit()
}

func openSnapshot(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func snapshotColumns(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", snapshotTable)
	if err != nil {
		return nil, fmt.Errorf("read snapshot columns: %w", err)
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// setValue stores a value scanned from sqlite. The driver reports INTEGER
// as int64, REAL as float64 and TEXT as string.
func (f *Frame) setValue(c Column, row int, v any) error {
	switch c.Kind {
	case KindInt:
		switch x := v.(type) {
		case int64:
			f.ints[c.Name][row] = x
			return nil
		case float64:
			return f.set(c, row, fmt.Sprint(x))
		case string:
			return f.set(c, row, x)
		}
	case KindFloat:
		switch x := v.(type) {
		case float64:
			f.floats[c.Name][row] = x
			return nil
		case int64:
			f.floats[c.Name][row] = float64(x)
			return nil
		case string:
			return f.set(c, row, x)
		}
	case KindText:
		switch x := v.(type) {
		case string:
			f.texts[c.Name][row] = x
		case []byte:
			f.texts[c.Name][row] = string(x)
		case nil:
			f.texts[c.Name][row] = ""
		default:
			f.texts[c.Name][row] = fmt.Sprint(x)
		}
		return nil
	}
	return fmt.Errorf("unexpected %T", v)
}

// loadCached consults c and turns every failure into a miss. Only unexpected
// failures are logged.
func loadCached(ctx context.Context, c Cache, source string, progress ProgressFunc) (*Frame, bool) {
	if c == nil {
		return nil, false
	}
	f, err := c.Load(ctx, source)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false
	}
	progress("Loading proxy file: " + SnapshotPath(source))
	switch {
	case err == nil:
		return f, true
	case errors.Is(err, ErrSchemaMismatch):
		monitoring.Logf("[ingest] stale snapshot for %s, re-parsing: %v", source, err)
	default:
		monitoring.Logf("[ingest] unreadable snapshot for %s, re-parsing: %v", source, err)
	}
	return nil, false
}
