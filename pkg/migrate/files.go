package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/partfinderz-backend/pkg/config"
)

const versionLayout = "20060102150405"

var (
	migrationNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugRe          = regexp.MustCompile(`[^a-z0-9]+`)

	// postgres only syntax that breaks the sqlite schema used in dev and tests
	postgresOnlyTokens = []string{"create extension", "gin_trgm_ops", "text[]", "::", "gen_random_uuid", "timestamptz", "using gin"}
)

type migrationFile struct {
	version string
	name    string
}

func listMigrations(dir string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := migrationNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		files = append(files, migrationFile{version: m[1], name: e.Name()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// ValidateDir checks migration filenames, goose annotations and, for the
// sqlite dialect, that no postgres only syntax slipped into the schema. Every
// problem found is reported, not just the first.
func ValidateDir(dir, dialect string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	files, err := listMigrations(dir)
	if err != nil {
		return err
	}

	var problems []error
	for i, f := range files {
		if i > 0 && files[i-1].version == f.version {
			problems = append(problems, fmt.Errorf("duplicate migration version %s in %q and %q", f.version, files[i-1].name, f.name))
		}

		raw, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			problems = append(problems, fmt.Errorf("read %q: %w", f.name, err))
			continue
		}
		body := string(raw)
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(body, marker) {
				problems = append(problems, fmt.Errorf("migration %q missing %q", f.name, marker))
			}
		}
		if dialect == config.DriverSQLite {
			lower := strings.ToLower(body)
			for _, token := range postgresOnlyTokens {
				if strings.Contains(lower, token) {
					problems = append(problems, fmt.Errorf("sqlite migration %q uses postgres only syntax %q", f.name, token))
				}
			}
		}
	}
	return errors.Join(problems...)
}

// CreateSQLMigration writes an empty goose migration into dir and returns its
// path. The version is always newer than the latest migration already there.
func CreateSQLMigration(dir, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now().UTC())
}

func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	existing, err := listMigrations(dir)
	if err != nil {
		return "", err
	}

	version := now.Format(versionLayout)
	if n := len(existing); n > 0 && existing[n-1].version >= version {
		latest, err := time.Parse(versionLayout, existing[n-1].version)
		if err != nil {
			return "", fmt.Errorf("parse version %q: %w", existing[n-1].version, err)
		}
		version = latest.Add(time.Second).Format(versionLayout)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, slug))
	body := fmt.Sprintf("-- +goose Up\n-- +goose StatementBegin\n-- %[1]s\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\n-- rollback %[1]s\n-- +goose StatementEnd\n", slug)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}
