// Package store manages the per-day SQLite files holding persisted logs.
// One database per local calendar day, named yyyy_mm_dd.db.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/ticklog/ticklog/internal/model"
)

// FileExt is the extension of day-store files.
const FileExt = ".db"

// OpenDB opens (or creates) a SQLite database at path with recommended
// pragmas: WAL journal mode, synchronous=NORMAL, foreign_keys=ON,
// busy_timeout=5000.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}

	// Single-writer: only one connection needed.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q on %s: %w", p, path, err)
		}
	}

	return db, nil
}

// OpenReadOnly opens an existing day-store file for queries. The returned
// connection is owned exclusively by the caller.
func OpenReadOnly(path string) (*sql.DB, error) {
	dsn := path + "?mode=ro"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// DayStore is the writable handle to one day's database. It owns the
// connection used for a flush; schema creation is idempotent.
type DayStore struct {
	Name string // yyyy_mm_dd
	Path string
	DB   *sql.DB
}

// DayPath returns the store file path for a day name in dir.
func DayPath(dir, dayName string) string {
	return filepath.Join(dir, dayName+FileExt)
}

// Open opens (or creates) the day store for the given day name,
// creating the directory and applying schema migrations as needed.
func Open(dir, dayName string) (*DayStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("day store mkdir %s: %w", dir, err)
	}
	path := DayPath(dir, dayName)
	db, err := OpenDB(path)
	if err != nil {
		return nil, fmt.Errorf("day store open: %w", err)
	}
	if err := MigrateDayDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("day store migrate %s: %w", path, err)
	}
	return &DayStore{Name: dayName, Path: path, DB: db}, nil
}

// Close closes the underlying database.
func (s *DayStore) Close() error {
	if s.DB != nil {
		err := s.DB.Close()
		s.DB = nil
		return err
	}
	return nil
}

// Checkpoint truncates the WAL of the day store. Safe to run while the
// store is idle.
func (s *DayStore) Checkpoint() error {
	if s.DB == nil {
		return fmt.Errorf("day store %s: closed", s.Name)
	}
	if _, err := s.DB.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("day store %s: checkpoint: %w", s.Name, err)
	}
	return nil
}

// FileExists reports whether a day-store file exists at path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Exists reports whether a day-store file exists for the given date.
func Exists(dir string, date time.Time) bool {
	return FileExists(DayPath(dir, model.DayNameFromTime(date)))
}

// ListDays returns the dates of all day-store files in dir, ascending.
// Files that do not match the yyyy_mm_dd naming scheme are ignored.
func ListDays(dir string) ([]time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("day store list dir %s: %w", dir, err)
	}
	var days []time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, FileExt) {
			continue
		}
		day, err := time.ParseInLocation("2006_01_02", strings.TrimSuffix(name, FileExt), time.Local)
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}
