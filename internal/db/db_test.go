package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestNew_InMemory(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cfg := Config{
		Driver:         "sqlite",
		DBPath:         ":memory:",
		MigrationsPath: "",
	}

	database, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := database.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
}

func TestNew_WithMigrations(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cfg := Config{
		Driver:         "sqlite",
		DBPath:         ":memory:",
		MigrationsPath: "./migrations",
	}

	database, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("Failed to create database with migrations: %v", err)
	}
	defer database.Close()

	ctx := context.Background()

	version, err := database.GetMigrationVersion(ctx)
	if err != nil {
		t.Fatalf("Failed to read migration version: %v", err)
	}
	if version == 0 {
		t.Fatal("Expected at least one migration to be applied")
	}

	// Core tables from the initial migration
	for _, table := range []string{"users", "projects", "tickets", "sprints", "sprint_snapshots"} {
		var count int
		err = database.QueryRowContext(ctx,
			"SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check for %s table: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Expected %s table to exist after migrations", table)
		}
	}
}

func TestNew_WithFileDB(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data", "test.db")

	cfg := Config{
		Driver:         "sqlite",
		DBPath:         dbPath,
		MigrationsPath: "",
	}

	database, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("Failed to create file database: %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("Expected database file to be created")
	}
}

func TestNew_MigrationsIdempotent(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cfg := Config{
		Driver:         "sqlite",
		DBPath:         ":memory:",
		MigrationsPath: "./migrations",
	}

	database, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("First New failed: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	count1, err := database.GetMigrationVersion(ctx)
	if err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}

	// Run migrations again on same DB
	if err := database.runMigrations(ctx, cfg.MigrationsPath, "sqlite"); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}

	count2, err := database.GetMigrationVersion(ctx)
	if err != nil {
		t.Fatalf("Failed to count migrations after second run: %v", err)
	}

	if count1 != count2 {
		t.Errorf("Migration count changed: %d -> %d (expected idempotent)", count1, count2)
	}
}

func TestNew_NonExistentMigrationsDir(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cfg := Config{
		DBPath:         ":memory:",
		MigrationsPath: "/nonexistent/path/migrations",
	}

	// Should succeed with a warning (non-existent dir is skipped)
	database, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("Expected success with non-existent migrations dir: %v", err)
	}
	defer database.Close()
}

func TestNew_UnknownDriver(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := New(Config{Driver: "oracle"}, logger)
	if err == nil {
		t.Fatal("Expected error for unsupported driver")
	}
}

func TestClose(t *testing.T) {
	logger := zaptest.NewLogger(t)

	database, err := New(Config{DBPath: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	if err := database.Close(); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}

	if err := database.PingContext(context.Background()); err == nil {
		t.Fatal("Expected error after closing database")
	}
}

func TestHealthCheck(t *testing.T) {
	logger := zaptest.NewLogger(t)

	database, err := New(Config{DBPath: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer database.Close()

	if err := database.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed on open database: %v", err)
	}
}

func TestHealthCheck_ClosedDB(t *testing.T) {
	logger := zaptest.NewLogger(t)

	database, err := New(Config{DBPath: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	database.Close()

	if err := database.HealthCheck(context.Background()); err == nil {
		t.Fatal("Expected HealthCheck to fail on closed database")
	}
}

func TestNew_PragmasApplied(t *testing.T) {
	logger := zaptest.NewLogger(t)

	database, err := New(Config{DBPath: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()

	var fkEnabled int
	if err := database.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("Failed to check foreign_keys: %v", err)
	}
	if fkEnabled != 1 {
		t.Errorf("Expected foreign_keys=1, got %d", fkEnabled)
	}

	// WAL for file-based databases, memory journal for :memory:
	var journalMode string
	if err := database.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to check journal_mode: %v", err)
	}
	if journalMode != "wal" && journalMode != "memory" {
		t.Errorf("Expected journal_mode=wal or memory, got %s", journalMode)
	}
}

func TestRunMigrations_WithTempDir(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tmpDir := t.TempDir()
	migration := `CREATE TABLE test_table (id INTEGER PRIMARY KEY, name TEXT);`
	if err := os.WriteFile(filepath.Join(tmpDir, "001_test.sql"), []byte(migration), 0644); err != nil {
		t.Fatalf("Failed to write migration: %v", err)
	}

	cfg := Config{
		DBPath:         ":memory:",
		MigrationsPath: tmpDir,
	}

	database, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	var count int
	err = database.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type='table' AND name='test_table'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check for test_table: %v", err)
	}
	if count != 1 {
		t.Fatal("Expected test_table to exist")
	}

	var version string
	err = database.QueryRowContext(ctx,
		"SELECT version FROM schema_migrations WHERE version = '001_test'").Scan(&version)
	if err != nil {
		t.Fatalf("Failed to find migration record: %v", err)
	}
}

func TestRunMigrations_InvalidSQL(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "001_bad.sql"), []byte("THIS IS NOT VALID SQL;"), 0644); err != nil {
		t.Fatalf("Failed to write migration: %v", err)
	}

	cfg := Config{
		DBPath:         ":memory:",
		MigrationsPath: tmpDir,
	}

	if _, err := New(cfg, logger); err == nil {
		t.Fatal("Expected error from invalid migration SQL")
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		query  string
		want   string
	}{
		{
			name:   "sqlite passthrough",
			driver: "sqlite",
			query:  "SELECT 1 FROM project_members WHERE project_id = ? AND user_id = ?",
			want:   "SELECT 1 FROM project_members WHERE project_id = ? AND user_id = ?",
		},
		{
			name:   "postgres numbers placeholders in order",
			driver: "postgres",
			query:  "SELECT 1 FROM project_members WHERE project_id = ? AND user_id = ?",
			want:   "SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2",
		},
		{
			name:   "postgres insert with returning",
			driver: "postgres",
			query:  "INSERT INTO labels (project_id, name, color) VALUES (?, ?, ?) RETURNING id",
			want:   "INSERT INTO labels (project_id, name, color) VALUES ($1, $2, $3) RETURNING id",
		},
		{
			name:   "postgres no placeholders untouched",
			driver: "postgres",
			query:  "SELECT COUNT(*) FROM sprints",
			want:   "SELECT COUNT(*) FROM sprints",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rebind(tt.driver, tt.query); got != tt.want {
				t.Errorf("rebind(%q, %q) = %q, want %q", tt.driver, tt.query, got, tt.want)
			}
		})
	}
}

func TestRebind_ThroughDB(t *testing.T) {
	logger := zaptest.NewLogger(t)

	database, err := New(Config{DBPath: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// SQLite connection leaves `?` placeholders alone.
	got := database.Rebind("SELECT email FROM users WHERE id = ?")
	if got != "SELECT email FROM users WHERE id = ?" {
		t.Errorf("Rebind on sqlite rewrote query: %q", got)
	}

	pg := &DB{driver: "postgres"}
	got = pg.Rebind("UPDATE tickets SET version = version + 1 WHERE id = ?")
	if got != "UPDATE tickets SET version = version + 1 WHERE id = $1" {
		t.Errorf("Rebind on postgres = %q", got)
	}
}
