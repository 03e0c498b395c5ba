package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/yoypulse/pkg/config"
	"github.com/angelmondragon/yoypulse/pkg/db"
	"github.com/angelmondragon/yoypulse/pkg/logger"
	"github.com/angelmondragon/yoypulse/pkg/migrate"
)

const usage = "up|down|redo|status|version|create|validate|list"

func main() {
	cmd := flag.String("cmd", "up", "migration command: "+usage)
	dir := flag.String("dir", "", "goose migrations directory; empty uses the embedded set")
	name := flag.String("name", "", "migration name (create)")
	target := flag.String("version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Parse()

	_ = godotenv.Load()

	bootLog := logger.New(logger.Options{ServiceName: "migrate"})
	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(orDefault(*dir), *name)
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := validate(*dir); err != nil {
			fail("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	case "list":
		if err := list(*dir); err != nil {
			fail("list migrations: %v", err)
		}
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to extract sql handle", err)
		os.Exit(1)
	}
	driver := dbClient.Driver()
	ctx = logg.WithField(ctx, "driver", driver)

	switch *cmd {
	case "up", "down", "redo":
		err = migrate.Run(ctx, sqlDB, driver, *dir, *cmd)
	case "status":
		err = status(ctx, sqlDB, driver, *dir)
	case "version":
		if *target == "" {
			fail("missing -version for version")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, driver, *dir, *target)
	default:
		fail("unknown -cmd %q (want %s)", *cmd, usage)
	}
	if err != nil {
		logg.Error(ctx, "goose "+*cmd+" failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "goose "+*cmd+" complete")
}

func orDefault(dir string) string {
	if dir == "" {
		return migrate.DefaultDir
	}
	return dir
}

func validate(dir string) error {
	if dir == "" {
		return migrate.ValidateEmbedded()
	}
	return migrate.ValidateDir(dir)
}

func list(dir string) error {
	fsys, root := migrate.Embedded(), "migrations"
	if dir != "" {
		fsys, root = os.DirFS(dir), "."
	}
	items, err := migrate.List(fsys, root)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tFILE")
	for _, m := range items {
		fmt.Fprintf(w, "%s\t%s\n", m.Version, m.Name)
	}
	return w.Flush()
}

func status(ctx context.Context, sqlDB *sql.DB, driver, dir string) error {
	rows, err := migrate.Status(ctx, sqlDB, driver, dir)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, m := range rows {
		applied := "-"
		if !m.AppliedAt.IsZero() {
			applied = m.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.Source.Version, m.State, applied, filepath.Base(m.Source.Path))
	}
	return w.Flush()
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
