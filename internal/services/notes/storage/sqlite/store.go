package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	sqlitemigrate "github.com/louisbranch/notekeep/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/notekeep/internal/services/notes/account"
	"github.com/louisbranch/notekeep/internal/services/notes/note"
	"github.com/louisbranch/notekeep/internal/services/notes/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// connectionPragmas are applied by the driver to every pooled connection.
const connectionPragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// foldFunction is the SQL name of the Unicode case-folding scalar used by
// note search.
const foldFunction = "casefold"

var (
	registerFoldOnce sync.Once
	registerFoldErr  error
)

// registerFold installs casefold(x) on the driver. Registration is global to
// the process, so it runs once.
func registerFold() error {
	registerFoldOnce.Do(func() {
		registerFoldErr = msqlite.RegisterDeterministicScalarFunction(foldFunction, 1,
			func(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch value := args[0].(type) {
				case nil:
					return nil, nil
				case string:
					return foldString(value), nil
				case []byte:
					return foldString(string(value)), nil
				default:
					return value, nil
				}
			})
	})
	return registerFoldErr
}

// foldString applies Unicode full case folding.
func foldString(value string) string {
	return cases.Fold().String(value)
}

// Store implements notekeep persistence over SQLite.
type Store struct {
	sqlDB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

// DB returns the raw database handle.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Open opens a SQLite store at path, creating parent directories, and applies
// bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	if err := registerFold(); err != nil {
		return nil, fmt.Errorf("register %s: %w", foldFunction, err)
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", cleanPath+"?"+connectionPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.sqlDB.PingContext(ctx)
}

// runMigrations applies embedded DDL in file order.
func (s *Store) runMigrations(ctx context.Context) error {
	return sqlitemigrate.ApplyMigrations(ctx, s.sqlDB, migrations.FS)
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// column (for example "users.email").
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return strings.Contains(sqliteErr.Error(), column)
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, strings.ToLower(column))
}

var (
	_ account.Store = (*Store)(nil)
	_ note.Store    = (*Store)(nil)
)
