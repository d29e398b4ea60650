// Package database executes candidate SQL against the backing store. The
// orchestrator uses it to validate and realize candidate answers; a failed
// execution feeds the retry loop rather than surfacing to the caller.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const defaultMaxRows = 500

// ErrNotReadOnly is returned for candidate statements that are not plain
// queries. Only reads ever reach the database from this engine.
var ErrNotReadOnly = errors.New("statement is not read-only")

// Config configures the executor.
type Config struct {
	Path    string `yaml:"path"`
	MaxRows int    `yaml:"max_rows"`
}

// DefaultConfig returns an in-memory database configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:    ":memory:",
		MaxRows: defaultMaxRows,
	}
}

// ResultSet holds the realized rows for a candidate query.
type ResultSet struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
}

// RowCount returns the number of realized rows.
func (rs *ResultSet) RowCount() int {
	return len(rs.Rows)
}

// SQLExecutor runs read-only queries with a row-count bound.
type SQLExecutor struct {
	db      *sql.DB
	maxRows int
}

// Open opens the database at the configured path.
func Open(config *Config) (*SQLExecutor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	maxRows := config.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &SQLExecutor{db: db, maxRows: maxRows}, nil
}

// NewWithDB wraps an existing database handle. Used by tests and by callers
// that manage the connection themselves.
func NewWithDB(db *sql.DB, maxRows int) *SQLExecutor {
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &SQLExecutor{db: db, maxRows: maxRows}
}

// DB exposes the underlying handle for schema introspection.
func (e *SQLExecutor) DB() *sql.DB {
	return e.db
}

// Execute runs a read-only query and realizes up to MaxRows rows.
func (e *SQLExecutor) Execute(ctx context.Context, query string) (*ResultSet, error) {
	if err := checkReadOnly(query); err != nil {
		return nil, err
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	return e.scan(rows)
}

func (e *SQLExecutor) scan(rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &ResultSet{Columns: columns}

	for rows.Next() {
		if len(result.Rows) >= e.maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// Close closes the database handle.
func (e *SQLExecutor) Close() error {
	return e.db.Close()
}

// checkReadOnly verifies a statement only reads. A bare SELECT passes. A
// WITH prologue is scanned past its CTE bodies before checking the main
// verb, because SQLite allows a CTE to prefix DELETE, INSERT, and UPDATE.
// Anything the scanner cannot follow is rejected.
func checkReadOnly(query string) error {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	if strings.HasPrefix(trimmed, "select") {
		return nil
	}
	if strings.HasPrefix(trimmed, "with") && verbAfterCTE(trimmed) == "select" {
		return nil
	}
	return fmt.Errorf("%w: %.40q", ErrNotReadOnly, query)
}

// verbAfterCTE returns the keyword beginning the main statement after a WITH
// prologue, or "" when the prologue does not scan.
func verbAfterCTE(lowered string) string {
	pos := skipSpaces(lowered, len("with"))
	if word, next := readWord(lowered, pos); word == "recursive" {
		pos = skipSpaces(lowered, next)
	}

	for {
		name, next := readWord(lowered, pos)
		if name == "" {
			return ""
		}
		pos = skipSpaces(lowered, next)

		// optional column list
		if pos < len(lowered) && lowered[pos] == '(' {
			end, ok := skipParens(lowered, pos)
			if !ok {
				return ""
			}
			pos = skipSpaces(lowered, end)
		}

		word, next := readWord(lowered, pos)
		if word != "as" {
			return ""
		}
		pos = skipSpaces(lowered, next)

		if word, next = readWord(lowered, pos); word == "not" {
			pos = skipSpaces(lowered, next)
			word, next = readWord(lowered, pos)
		}
		if word == "materialized" {
			pos = skipSpaces(lowered, next)
		}

		if pos >= len(lowered) || lowered[pos] != '(' {
			return ""
		}
		end, ok := skipParens(lowered, pos)
		if !ok {
			return ""
		}
		pos = skipSpaces(lowered, end)

		if pos < len(lowered) && lowered[pos] == ',' {
			pos = skipSpaces(lowered, pos+1)
			continue
		}
		break
	}

	verb, _ := readWord(lowered, pos)
	return verb
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func readWord(s string, i int) (string, int) {
	start := i
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	return s[start:i], i
}

func isWordByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('0' <= b && b <= '9')
}

// skipParens advances past a balanced parenthesized group, ignoring parens
// inside string literals and quoted identifiers.
func skipParens(s string, i int) (int, bool) {
	depth := 0
	for i < len(s) {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		case '\'', '"', '`':
			end, ok := skipQuoted(s, i)
			if !ok {
				return 0, false
			}
			i = end
			continue
		}
		i++
	}
	return 0, false
}

func skipQuoted(s string, i int) (int, bool) {
	quote := s[i]
	i++
	for i < len(s) {
		if s[i] == quote {
			// a doubled quote is an escape, not a terminator
			if i+1 < len(s) && s[i+1] == quote {
				i += 2
				continue
			}
			return i + 1, true
		}
		i++
	}
	return 0, false
}
