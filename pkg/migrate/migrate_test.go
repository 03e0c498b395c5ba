package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestActionsMigrationContainsSchema(t *testing.T) {
	matches, err := fs.Glob(Embedded(), "migrations/*_create_actions.sql")
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one actions migration, got %v", matches)
	}
	data, err := fs.ReadFile(Embedded(), matches[0])
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS actions",
		"status VARCHAR(32) NOT NULL DEFAULT 'in_progress'",
		"CREATE INDEX IF NOT EXISTS idx_actions_customer_id",
		"DROP TABLE IF EXISTS actions",
	} {
		if !strings.Contains(string(data), sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsCheckedInMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateDirRejectsBadName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Action Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_action_notes.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestRunEmbeddedOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Run(context.Background(), sqlDB, "sqlite", "", "up"); err != nil {
		t.Fatalf("goose up: %v", err)
	}
	if !conn.Migrator().HasTable("actions") {
		t.Fatal("expected actions table after migration")
	}
}

func TestDialect(t *testing.T) {
	if d, _ := Dialect("postgres"); d != "postgres" {
		t.Fatalf("unexpected dialect %q", d)
	}
	if d, _ := Dialect("sqlite"); d != "sqlite3" {
		t.Fatalf("unexpected dialect %q", d)
	}
	if _, err := Dialect("oracle"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidateEmbedded(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("embedded migrations: %v", err)
	}
}

func TestCreateSQLMigrationBumpsVersion(t *testing.T) {
	dir := t.TempDir()
	future := time.Now().UTC().Add(24 * time.Hour).Format(versionLayout)
	if err := os.WriteFile(filepath.Join(dir, future+"_seed.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "notes"); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := List(os.DirFS(dir), ".")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[1].Version <= future || !strings.HasSuffix(list[1].Name, "_notes.sql") {
		t.Fatalf("unexpected order %+v", list)
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := CreateSQLMigration(t.TempDir(), " !! "); err == nil {
		t.Fatal("expected error for unusable name")
	}
}
