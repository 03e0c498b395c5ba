package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/yoypulse/pkg/config"
)

// DefaultDir is where create and validate look when -dir is not given.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded exposes the compiled-in migrations rooted at "migrations".
func Embedded() fs.FS {
	return embedded
}

// Dialect maps a configured db driver onto its goose dialect.
func Dialect(driver string) (goose.Dialect, error) {
	switch driver {
	case config.DBDriverPostgres:
		return goose.DialectPostgres, nil
	case config.DBDriverSQLite, "":
		return goose.DialectSQLite3, nil
	}
	return "", fmt.Errorf("no goose dialect for driver %q", driver)
}

// NewProvider builds a goose provider over dir, or over the embedded set
// when dir is empty.
func NewProvider(db *sql.DB, driver, dir string) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	dialect, err := Dialect(driver)
	if err != nil {
		return nil, err
	}
	var fsys fs.FS
	if dir == "" {
		if fsys, err = fs.Sub(embedded, "migrations"); err != nil {
			return nil, err
		}
	} else {
		fsys = os.DirFS(dir)
	}
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Run applies command ("up", "down" or "redo").
func Run(ctx context.Context, db *sql.DB, driver, dir string, command string) error {
	p, err := NewProvider(db, driver, dir)
	if err != nil {
		return err
	}
	switch command {
	case "up":
		_, err = p.Up(ctx)
	case "down":
		_, err = p.Down(ctx)
	case "redo":
		if _, err = p.Down(ctx); err == nil {
			_, err = p.UpByOne(ctx)
		}
	default:
		return fmt.Errorf("unsupported goose command %q", command)
	}
	if err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Status reports every known migration and whether it has been applied.
func Status(ctx context.Context, db *sql.DB, driver, dir string) ([]*goose.MigrationStatus, error) {
	p, err := NewProvider(db, driver, dir)
	if err != nil {
		return nil, err
	}
	return p.Status(ctx)
}

// MigrateToVersion moves the schema up or down to targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, driver, dir string, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (want YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	p, err := NewProvider(db, driver, dir)
	if err != nil {
		return err
	}
	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read db version: %w", err)
	}
	switch {
	case current < target:
		_, err = p.UpTo(ctx, target)
	case current > target:
		_, err = p.DownTo(ctx, target)
	}
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return nil
}
