// Package db is the DuckDB catalogue of indexed crates, their items and
// their reexports.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_crate_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_item_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_reexport_id START 1;`,

		`CREATE TABLE IF NOT EXISTS crates (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			fetched_at TIMESTAMP,
			processed_at TIMESTAMP,
			last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(name, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crates_name ON crates (name)`,

		// Rows are removed per crate inside transactions; DuckDB checks
		// foreign keys against the committed state, so crate_id carries none.
		// Reexported copies share the ast id of their target, so neither
		// (crate_id, ast_id) nor (crate_id, path) is unique.
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER NOT NULL,
			ast_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			module TEXT NOT NULL,
			path TEXT NOT NULL,
			kind TEXT NOT NULL,
			brief TEXT NOT NULL DEFAULT '',
			signature TEXT NOT NULL DEFAULT '',
			reexport BOOLEAN NOT NULL DEFAULT false,
			content_hash TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_crate ON items (crate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_path ON items (path)`,
		`CREATE INDEX IF NOT EXISTS idx_items_hash ON items (content_hash)`,

		`CREATE TABLE IF NOT EXISTS reexports (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER NOT NULL,
			local_prefix TEXT NOT NULL,
			source_crate TEXT NOT NULL,
			source_prefix TEXT NOT NULL,
			UNIQUE(crate_id, local_prefix)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reexports_crate ON reexports (crate_id)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Crate operations ---

type Crate struct {
	ID          int
	Name        string
	Version     string
	FetchedAt   *time.Time
	ProcessedAt *time.Time
	LastUsedAt  time.Time
}

const crateColumns = `id, name, version, fetched_at, processed_at, last_used_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCrate(s scanner) (*Crate, error) {
	var c Crate
	if err := s.Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) UpsertCrate(name, version string) (*Crate, error) {
	c, err := db.GetCrate(name, version)
	if err != nil {
		return nil, fmt.Errorf("checking crate: %w", err)
	}
	if c != nil {
		return c, nil
	}

	var id int
	err = db.conn.QueryRow(
		`INSERT INTO crates (id, name, version) VALUES (nextval('seq_crate_id'), ?, ?) RETURNING id`,
		name, version,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("inserting crate: %w", err)
	}

	return &Crate{ID: id, Name: name, Version: version, LastUsedAt: time.Now()}, nil
}

func (db *DB) MarkCrateFetched(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET fetched_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) MarkCrateProcessed(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET processed_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) TouchCrate(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

// GetCrate returns nil without an error when the crate is unknown.
func (db *DB) GetCrate(name, version string) (*Crate, error) {
	c, err := scanCrate(db.conn.QueryRow(
		`SELECT `+crateColumns+` FROM crates WHERE name = ? AND version = ?`,
		name, version,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// GetLatestCrate returns the most recently processed crate with the given name.
func (db *DB) GetLatestCrate(name string) (*Crate, error) {
	c, err := scanCrate(db.conn.QueryRow(
		`SELECT `+crateColumns+`
		 FROM crates WHERE name = ? AND processed_at IS NOT NULL
		 ORDER BY processed_at DESC LIMIT 1`, name,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (db *DB) ListCrates() ([]Crate, error) {
	rows, err := db.conn.Query(`SELECT ` + crateColumns + ` FROM crates ORDER BY name, version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crates []Crate
	for rows.Next() {
		c, err := scanCrate(rows)
		if err != nil {
			return nil, err
		}
		crates = append(crates, *c)
	}
	return crates, rows.Err()
}

// DeleteCrate removes a crate together with its items and reexports.
func (db *DB) DeleteCrate(crateID int) error {
	return db.inTx(func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM items WHERE crate_id = ?`,
			`DELETE FROM reexports WHERE crate_id = ?`,
			`DELETE FROM crates WHERE id = ?`,
		} {
			if _, err := tx.Exec(q, crateID); err != nil {
				return fmt.Errorf("deleting crate %d: %w", crateID, err)
			}
		}
		return nil
	})
}

// Reset empties every table.
func (db *DB) Reset() error {
	return db.inTx(func(tx *sql.Tx) error {
		for _, table := range []string{"items", "reexports", "crates"} {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}

// --- Item operations ---

// Item is the catalogue row for one documented item. Path is the qualified
// path ("serde::de::Deserialize") and Module the path of the module that
// lists it.
type Item struct {
	ID          int
	CrateID     int
	AstID       int
	Name        string
	Module      string
	Path        string
	Kind        string
	Brief       string
	Signature   string
	Reexport    bool
	ContentHash string
}

const itemColumns = `id, crate_id, ast_id, name, module, path, kind, brief, signature, reexport, content_hash`

func scanItem(s scanner) (*Item, error) {
	var it Item
	err := s.Scan(&it.ID, &it.CrateID, &it.AstID, &it.Name, &it.Module, &it.Path, &it.Kind,
		&it.Brief, &it.Signature, &it.Reexport, &it.ContentHash)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ReplaceItems swaps the items of a crate for items in one transaction and
// fills in their row ids.
func (db *DB) ReplaceItems(crateID int, items []Item) error {
	return db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM items WHERE crate_id = ?`, crateID); err != nil {
			return fmt.Errorf("deleting items: %w", err)
		}
		stmt, err := tx.Prepare(
			`INSERT INTO items (id, crate_id, ast_id, name, module, path, kind, brief, signature, reexport, content_hash)
			 VALUES (nextval('seq_item_id'), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		)
		if err != nil {
			return fmt.Errorf("preparing item insert: %w", err)
		}
		defer stmt.Close()

		for i := range items {
			it := &items[i]
			it.CrateID = crateID
			err := stmt.QueryRow(it.CrateID, it.AstID, it.Name, it.Module, it.Path, it.Kind,
				it.Brief, it.Signature, it.Reexport, it.ContentHash).Scan(&it.ID)
			if err != nil {
				return fmt.Errorf("inserting item %s: %w", it.Path, err)
			}
		}
		return nil
	})
}

// GetItemByPath prefers the original item over reexported copies at the same
// path.
func (db *DB) GetItemByPath(crateID int, path string) (*Item, error) {
	it, err := scanItem(db.conn.QueryRow(
		`SELECT `+itemColumns+`
		 FROM items WHERE crate_id = ? AND path = ?
		 ORDER BY reexport, id LIMIT 1`,
		crateID, path,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

// ItemFilter narrows ListItems. Empty fields match everything. Recursive
// includes items of nested modules.
type ItemFilter struct {
	Module    string
	Kind      string
	Recursive bool
}

func (db *DB) ListItems(crateID int, f ItemFilter) ([]Item, error) {
	where := []string{"crate_id = ?"}
	params := []any{crateID}
	if f.Module != "" {
		if f.Recursive {
			where = append(where, "(module = ? OR starts_with(module, ?))")
			params = append(params, f.Module, f.Module+"::")
		} else {
			where = append(where, "module = ?")
			params = append(params, f.Module)
		}
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		params = append(params, f.Kind)
	}

	rows, err := db.conn.Query(
		`SELECT `+itemColumns+` FROM items WHERE `+strings.Join(where, " AND ")+` ORDER BY id`,
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (db *DB) CountItems(crateID int) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM items WHERE crate_id = ?`, crateID).Scan(&count)
	return count, err
}

// --- Reexport operations ---

type Reexport struct {
	LocalPrefix  string
	SourceCrate  string
	SourcePrefix string
}

// ReplaceReexports swaps the reexports recorded for a crate. The old rows are
// deleted before the transaction starts: DuckDB rejects reinserting a unique
// key deleted in the same transaction.
func (db *DB) ReplaceReexports(crateID int, reexports []Reexport) error {
	if _, err := db.conn.Exec(`DELETE FROM reexports WHERE crate_id = ?`, crateID); err != nil {
		return fmt.Errorf("deleting reexports: %w", err)
	}
	return db.inTx(func(tx *sql.Tx) error {
		for _, r := range reexports {
			_, err := tx.Exec(
				`INSERT INTO reexports (id, crate_id, local_prefix, source_crate, source_prefix)
				 VALUES (nextval('seq_reexport_id'), ?, ?, ?, ?)
				 ON CONFLICT (crate_id, local_prefix) DO UPDATE SET source_crate = ?, source_prefix = ?`,
				crateID, r.LocalPrefix, r.SourceCrate, r.SourcePrefix, r.SourceCrate, r.SourcePrefix,
			)
			if err != nil {
				return fmt.Errorf("inserting reexport %s: %w", r.LocalPrefix, err)
			}
		}
		return nil
	})
}

// ResolveReexport checks if the given path matches a re-export in this crate.
// Tries exact match first, then longest prefix match (for glob re-exports).
// Returns the source crate name and resolved source path.
func (db *DB) ResolveReexport(crateID int, path string) (sourceCrate, sourcePath string, found bool) {
	var localPrefix, srcCrate, srcPrefix string
	err := db.conn.QueryRow(
		`SELECT local_prefix, source_crate, source_prefix FROM reexports
		 WHERE crate_id = ? AND (local_prefix = ? OR starts_with(?, local_prefix || '::'))
		 ORDER BY length(local_prefix) DESC LIMIT 1`,
		crateID, path, path,
	).Scan(&localPrefix, &srcCrate, &srcPrefix)
	if err != nil {
		return "", "", false
	}

	if localPrefix == path {
		return srcCrate, srcPrefix, true
	}
	suffix := path[len(localPrefix):]
	return srcCrate, srcPrefix + suffix, true
}

func (db *DB) inTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}
