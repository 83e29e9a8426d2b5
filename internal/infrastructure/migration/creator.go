package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FilePair is the up/down SQL file pair for one migration version
type FilePair struct {
	Version  string
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty up/down migration pair into dir. The
// version prefix is the current timestamp so files sort in creation order.
func CreateMigration(dir, name string) (*FilePair, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	slug := slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q contains no usable characters", name)
	}

	version := time.Now().Format("20060102150405")
	base := version + "_" + slug

	pair := &FilePair{
		Version:  version,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	upHeader := fmt.Sprintf("-- %s\n\n", name)
	downHeader := fmt.Sprintf("-- revert: %s\n\n", name)

	if err := os.WriteFile(pair.UpPath, []byte(upHeader), 0o644); err != nil {
		return nil, fmt.Errorf("write up migration: %w", err)
	}
	if err := os.WriteFile(pair.DownPath, []byte(downHeader), 0o644); err != nil {
		_ = os.Remove(pair.UpPath)
		return nil, fmt.Errorf("write down migration: %w", err)
	}

	return pair, nil
}

// ListMigrations returns the base names of all migrations in dir,
// sorted by version
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}

// slugify lowercases a migration name and collapses everything that is
// not a letter or digit into single underscores
func slugify(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}
