package index

import (
	"fmt"
	"strings"
	"time"

	"github.com/chrisd/bautagebuch/internal/models"
)

// Record kinds.
const (
	KindEntry     = "entry"
	KindMilestone = "milestone"
)

// Record is one indexable row derived from the document.
type Record struct {
	Ref   string // "entry:<id>" or "milestone:<id>"
	Kind  string
	Date  string
	Title string
	Body  string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Ref     string `json:"ref"`
	Kind    string `json:"kind"`
	Date    string `json:"date"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Rebuild replaces the whole index with the given records in one
// transaction. The document saves as an atomic whole, so the index
// follows suit instead of diffing row by row.
func (db *DB) Rebuild(records []Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM records`); err != nil {
		return fmt.Errorf("index: clear records: %w", err)
	}
	ftsClear(tx)

	stmt, err := tx.Prepare(`
		INSERT INTO records (ref, kind, date, title, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range records {
		if _, err := stmt.Exec(r.Ref, r.Kind, r.Date, r.Title, r.Body, now); err != nil {
			return fmt.Errorf("index: insert %s: %w", r.Ref, err)
		}
		if err := ftsInsert(tx, r); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Count returns the number of indexed records.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// DocumentRecords flattens a document snapshot into indexable rows.
func DocumentRecords(doc *models.Document) []Record {
	out := make([]Record, 0, len(doc.DailyEntries)+len(doc.Milestones))
	for _, e := range doc.DailyEntries {
		out = append(out, Record{
			Ref:   fmt.Sprintf("%s:%d", KindEntry, e.ID),
			Kind:  KindEntry,
			Date:  e.Date,
			Title: "Tagesbericht " + e.Date,
			Body:  entryBody(e),
		})
	}
	for _, m := range doc.Milestones {
		out = append(out, Record{
			Ref:   fmt.Sprintf("%s:%s", KindMilestone, m.ID),
			Kind:  KindMilestone,
			Date:  m.Date,
			Title: m.Title,
			Body:  joinFields(m.Description, m.Category, m.Priority, m.Status),
		})
	}
	return out
}

func entryBody(e models.DailyEntry) string {
	return joinFields(
		e.Weather, e.Temperature, e.Personal, e.Equipment, e.Materials,
		e.Progress, e.Issues, e.Inspections, e.Safety, e.PhotoDescription,
	)
}

func joinFields(fields ...string) string {
	kept := fields[:0]
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, "\n")
}
