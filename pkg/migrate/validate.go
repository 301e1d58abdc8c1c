package migrate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
)

// ValidateDir runs ValidateFS over an on-disk migrations directory.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateFS checks every .sql file under dir: a YYYYMMDDHHMMSS_slug.sql
// name, a version no other file uses, and both goose annotations.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[int64]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		version, err := parseVersion(name)
		if err != nil {
			return err
		}
		if prev, dup := seen[version]; dup {
			return fmt.Errorf("duplicate migration version %d in %q and %q", version, prev, name)
		}
		seen[version] = name

		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		if err := checkAnnotations(name, body); err != nil {
			return err
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	invalid := fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)

	stamp, slug, ok := strings.Cut(strings.TrimSuffix(name, ".sql"), "_")
	if !ok || migrationSlug(slug) != slug {
		return 0, invalid
	}
	if _, err := time.Parse(versionLayout, stamp); err != nil {
		return 0, invalid
	}
	version, err := goose.NumericComponent(name)
	if err != nil || strconv.FormatInt(version, 10) != stamp {
		return 0, invalid
	}
	return version, nil
}

// checkAnnotations requires "-- +goose Up" before "-- +goose Down".
func checkAnnotations(name string, body []byte) error {
	up, down := -1, -1
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for line := 0; scanner.Scan(); line++ {
		switch strings.TrimSpace(scanner.Text()) {
		case "-- +goose Up":
			up = line
		case "-- +goose Down":
			down = line
		}
	}
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case down < up:
		return fmt.Errorf("migration %q has its Down section before Up", name)
	}
	return nil
}
