// Package archive writes read-only SQLite snapshots of the feedback store.
package archive

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kalambet/complaintctl/internal/feedback"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Archive wraps a SQLite database holding one exported snapshot.
type Archive struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the archive at path and runs pending migrations.
// Pass ":memory:" for an in-memory database (used by tests).
func Open(path string) (*Archive, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging archive: %w", err)
	}

	// One connection keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	a := &Archive{db: db, now: time.Now}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return a, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) migrate() error {
	if _, err := a.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := a.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := a.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (a *Archive) AppliedMigrations() ([]int, error) {
	rows, err := a.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Export replaces the archived snapshot with records, preserving their order.
func (a *Archive) Export(ctx context.Context, records []feedback.Record) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning export: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM feedback"); err != nil {
		return fmt.Errorf("clearing archive: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feedback (id, position, type, company, product, message, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	exportedAt := a.now().UTC().Format(time.RFC3339)
	for i, r := range records {
		e := r.StructuredForm()
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), i, e.Type, e.Company, e.Product, e.Message, exportedAt); err != nil {
			return fmt.Errorf("archiving record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing export: %w", err)
	}
	return nil
}

// Records reads the archived snapshot back in its original order.
func (a *Archive) Records(ctx context.Context) ([]feedback.Record, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT type, company, product, message
		FROM feedback ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var out []feedback.Record
	for rows.Next() {
		var e feedback.Entry
		if err := rows.Scan(&e.Type, &e.Company, &e.Product, &e.Message); err != nil {
			return nil, err
		}
		out = append(out, feedback.New(feedback.KindFromTag(e.Type), e.Company, e.Product, e.Message))
	}
	return out, rows.Err()
}

// Count returns the number of archived records.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting archive: %w", err)
	}
	return n, nil
}
