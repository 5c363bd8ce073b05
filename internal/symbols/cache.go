package symbols

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/loamdev/loam/internal/apperr"
)

const cacheSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path        TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	indexed_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS symbols (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	qualified_name TEXT NOT NULL,
	kind           TEXT NOT NULL,
	file_path      TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	line_start     INTEGER NOT NULL,
	line_end       INTEGER NOT NULL,
	parent         TEXT NOT NULL DEFAULT '',
	preview        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(qualified_name);
`

// Cache is the SQLite-backed symbol store. It is a pure cache: every row
// can be reproduced by re-indexing the same paths, and clearing it never
// touches graph or event data.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (or creates) the cache database and applies the
// schema. WAL mode keeps concurrent readers off the writer's back;
// foreign keys make file deletion cascade to its symbols.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "open symbol cache")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "connect symbol cache")
	}

	// SQLite allows one writer; a second connection just queues on the
	// busy timeout.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(cacheSchemaSQL); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "apply cache schema")
	}
	return &Cache{db: db}, nil
}

// Close closes the cache connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Fingerprint returns the stored content fingerprint for a path, and
// whether the path is indexed at all.
func (c *Cache) Fingerprint(path string) (string, bool, error) {
	var fp string
	err := c.db.QueryRow(`SELECT fingerprint FROM files WHERE path = ?`, path).Scan(&fp)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "read fingerprint")
	}
	return fp, true, nil
}

// ReplacePath atomically replaces all records for one file. The delete
// and inserts share a transaction, so a failed parse or a crash mid-way
// can never leave a path half-indexed.
func (c *Cache) ReplacePath(path, fingerprint string, records []Record) error {
	tx, err := c.db.Begin()
	if err != nil {
		return apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "begin replace")
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "drop stale rows")
	}
	if _, err := tx.Exec(`INSERT INTO files (path, fingerprint) VALUES (?, ?)`, path, fingerprint); err != nil {
		return apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "insert file row")
	}

	stmt, err := tx.Prepare(`
		INSERT INTO symbols (qualified_name, kind, file_path, line_start, line_end, parent, preview)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "prepare insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.QualifiedName, string(r.Kind), r.FilePath, r.LineStart, r.LineEnd, r.Parent, r.Preview); err != nil {
			return apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "insert symbol %s", r.QualifiedName)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "commit replace")
	}
	return nil
}

// RemovePaths drops the given files and their symbols. Returns how many
// file rows were removed.
func (c *Cache) RemovePaths(paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	tx, err := c.db.Begin()
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "begin remove")
	}
	defer tx.Rollback()

	removed := 0
	for _, p := range paths {
		res, err := tx.Exec(`DELETE FROM files WHERE path = ?`, p)
		if err != nil {
			return 0, apperr.Wrap(apperr.CodeStoreUnavailable, p, err, "remove path")
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "commit remove")
	}
	return removed, nil
}

// Paths returns every indexed file path, sorted.
func (c *Cache) Paths() ([]string, error) {
	rows, err := c.db.Query(`SELECT path FROM files ORDER BY path`)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "list paths")
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "scan path")
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "iterate paths")
	}
	return paths, nil
}

// AllRecords returns every symbol record, ordered by path, then line,
// then name, so downstream ranking starts from a deterministic base.
func (c *Cache) AllRecords() ([]Record, error) {
	rows, err := c.db.Query(`
		SELECT qualified_name, kind, file_path, line_start, line_end, parent, preview
		FROM symbols
		ORDER BY file_path ASC, line_start ASC, qualified_name ASC
	`)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "query symbols")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var kind string
		if err := rows.Scan(&r.QualifiedName, &kind, &r.FilePath, &r.LineStart, &r.LineEnd, &r.Parent, &r.Preview); err != nil {
			return nil, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "scan symbol")
		}
		r.Kind = Kind(kind)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "iterate symbols")
	}
	return records, nil
}

// Count returns the number of symbol records.
func (c *Cache) Count() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM symbols`).Scan(&n); err != nil {
		return 0, apperr.Wrap(apperr.CodeStoreUnavailable, "", err, "count symbols")
	}
	return n, nil
}
