package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
)

var migrationNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

var errNoMigrations = errors.New("no migrations found")

// Migration is one goose file discovered on disk or in the embedded set.
type Migration struct {
	Version string
	Name    string
}

// ValidateDir checks the migrations directory used by -dir and create.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	_, err := List(os.DirFS(dir), ".")
	return err
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	_, err := List(Embedded(), "migrations")
	return err
}

// List returns the migrations under dir ordered by version. Every .sql file
// must be named <version>_<name>.sql, carry both goose markers and use a
// version no other file uses.
func List(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	byVersion := make(map[string]string, len(entries))
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		m := migrationNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (want YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		if prev, dup := byVersion[m[1]]; dup {
			return nil, fmt.Errorf("version %s used by both %q and %q", m[1], prev, e.Name())
		}
		byVersion[m[1]] = e.Name()

		if err := checkMarkers(fsys, path.Join(dir, e.Name())); err != nil {
			return nil, err
		}
		out = append(out, Migration{Version: m[1], Name: e.Name()})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in %q", errNoMigrations, dir)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func checkMarkers(fsys fs.FS, name string) error {
	body, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %q: %w", name, err)
	}
	for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(string(body), marker) {
			return fmt.Errorf("migration %q missing %q", path.Base(name), marker)
		}
	}
	return nil
}
