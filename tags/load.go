package tags

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a catalog from a JSON or YAML list of {name, description}.
func LoadFile(path string) ([]Tag, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tags: read %s: %w", path, err)
	}

	var catalog []Tag
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &catalog)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &catalog)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("tags: parse %s: %w", path, err)
	}
	return catalog, nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadSQL reads a catalog from the name and description columns of table,
// in rowid order. A NULL description reads as empty.
func LoadSQL(ctx context.Context, db *sql.DB, table string) ([]Tag, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT name, description FROM %s ORDER BY rowid", table))
	if err != nil {
		return nil, fmt.Errorf("tags: query %s: %w", table, err)
	}
	defer rows.Close()

	var catalog []Tag
	for rows.Next() {
		var (
			name string
			desc sql.NullString
		)
		if err := rows.Scan(&name, &desc); err != nil {
			return nil, fmt.Errorf("tags: scan %s: %w", table, err)
		}
		catalog = append(catalog, Tag{Name: name, Description: desc.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tags: read %s: %w", table, err)
	}
	return catalog, nil
}
