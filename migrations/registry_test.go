package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	integrations "github.com/goliatone/go-integrations"
	_ "github.com/mattn/go-sqlite3"
)

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}

	var postgresFound bool
	var sqliteFound bool
	for _, entry := range filesystems {
		matches, globErr := fs.Glob(entry.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", entry.Dialect, globErr)
		}
		if len(matches) == 0 {
			t.Fatalf("expected %s migration files, got none", entry.Dialect)
		}
		switch entry.Dialect {
		case DialectPostgres:
			postgresFound = true
		case DialectSQLite:
			sqliteFound = true
		}
	}

	if !postgresFound {
		t.Fatalf("expected postgres filesystem")
	}
	if !sqliteFound {
		t.Fatalf("expected sqlite filesystem")
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	_, err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 registration call, got %d", len(calls))
	}
	if calls[0] != DialectSQLite {
		t.Fatalf("expected sqlite registration, got %q", calls[0])
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected nil register function to be rejected")
	}
}

func TestConnectionSchemaMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := integrations.GetCoreMigrationsFS()
	paths := []string{
		"data/sql/migrations/20250301000000_create_integration_connections.up.sql",
		"data/sql/migrations/20250301000000_create_integration_connections.down.sql",
		"data/sql/migrations/20250301000001_create_integration_activity_tables.up.sql",
		"data/sql/migrations/20250301000001_create_integration_activity_tables.down.sql",
		"data/sql/migrations/sqlite/20250301000000_create_integration_connections.up.sql",
		"data/sql/migrations/sqlite/20250301000000_create_integration_connections.down.sql",
		"data/sql/migrations/sqlite/20250301000001_create_integration_activity_tables.up.sql",
		"data/sql/migrations/sqlite/20250301000001_create_integration_activity_tables.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteConnectionSchemaMigrations_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-connection-schema?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	root := integrations.GetCoreMigrationsFS()
	sqliteMigrations, err := fs.Sub(root, "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}

	ups := []string{
		"20250301000000_create_integration_connections.up.sql",
		"20250301000001_create_integration_activity_tables.up.sql",
	}
	for _, migration := range ups {
		if err := execSQLMigration(context.Background(), db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply migration %s: %v", migration, err)
		}
	}

	requiredTables := []string{
		"integration_connections",
		"integration_webhooks",
		"integration_sync_progress",
		"integration_audit_events",
	}
	for _, tableName := range requiredTables {
		var count int
		if err := db.QueryRowContext(
			context.Background(),
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
			tableName,
		).Scan(&count); err != nil {
			t.Fatalf("query sqlite_master for %s: %v", tableName, err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist after up migrations", tableName)
		}
	}

	if _, err := db.ExecContext(
		context.Background(),
		`INSERT INTO integration_connections
			(id, integration_id, user_id, status, granted_scopes, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"conn_migration_1",
		"google-calendar",
		"user_migration_1",
		"connected",
		`["calendar.readonly"]`,
		"{}",
		"2026-01-01T00:00:00Z",
		"2026-01-01T00:00:00Z",
	); err != nil {
		t.Fatalf("insert connection: %v", err)
	}

	if _, err := db.ExecContext(
		context.Background(),
		`INSERT INTO integration_sync_progress
			(id, connection_id, status, started_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"progress_migration_1",
		"conn_migration_1",
		"running",
		"2026-01-01T00:00:00Z",
		"2026-01-01T00:00:00Z",
		"2026-01-01T00:00:00Z",
	); err != nil {
		t.Fatalf("insert sync progress: %v", err)
	}

	if _, err := db.ExecContext(
		context.Background(),
		`INSERT INTO integration_sync_progress
			(id, connection_id, status, started_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"progress_migration_2",
		"conn_migration_1",
		"running",
		"2026-01-01T00:01:00Z",
		"2026-01-01T00:01:00Z",
		"2026-01-01T00:01:00Z",
	); err == nil {
		t.Fatalf("expected unique connection_id violation on sync progress")
	}

	downs := []string{
		"20250301000001_create_integration_activity_tables.down.sql",
		"20250301000000_create_integration_connections.down.sql",
	}
	for _, migration := range downs {
		if err := execSQLMigration(context.Background(), db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply down migration %s: %v", migration, err)
		}
	}

	var remaining int
	if err := db.QueryRowContext(
		context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name LIKE 'integration_%'`,
	).Scan(&remaining); err != nil {
		t.Fatalf("query sqlite_master after down migrations: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected all integration tables dropped, %d remain", remaining)
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
