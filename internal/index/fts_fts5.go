//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			ref UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsClear(tx *sql.Tx) {
	_, _ = tx.Exec(`DELETE FROM records_fts`)
}

func ftsInsert(tx *sql.Tx, r Record) error {
	_, err := tx.Exec(`INSERT INTO records_fts (ref, title, body) VALUES (?, ?, ?)`,
		r.Ref, r.Title, r.Body)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching records
// with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT r.ref,
		       r.kind,
		       r.date,
		       r.title,
		       snippet(records_fts, 2, '<b>', '</b>', '...', 64)
		FROM records_fts f
		JOIN records r ON r.ref = f.ref
		WHERE records_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Ref, &r.Kind, &r.Date, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
