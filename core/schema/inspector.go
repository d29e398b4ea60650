// Package schema provides the read-only schema/context capability the
// resolution attempts consume. Introspection results are cached; the core
// treats the blob as opaque input.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Inspector reads table layouts from a SQLite database.
type Inspector struct {
	db *sql.DB
}

// NewInspector creates an Inspector over an open handle.
func NewInspector(db *sql.DB) *Inspector {
	return &Inspector{db: db}
}

// TableNames lists the user tables in name order.
func (i *Inspector) TableNames(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Summary renders every user table as one "TABLE name (col type, ...)" line.
func (i *Inspector) Summary(ctx context.Context) (string, error) {
	names, err := i.TableNames(ctx)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		line, err := i.describeTable(ctx, name)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func (i *Inspector) describeTable(ctx context.Context, name string) (string, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", name, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &primaryKey); err != nil {
			return "", fmt.Errorf("scan column of %s: %w", name, err)
		}
		columns = append(columns, colName+" "+colType)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("TABLE %s (%s)", name, strings.Join(columns, ", ")), nil
}
