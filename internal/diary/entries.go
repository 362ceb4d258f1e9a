package diary

import (
	"fmt"

	"github.com/chrisd/bautagebuch/internal/apperr"
	"github.com/chrisd/bautagebuch/internal/models"
)

// DailyEntryUpdate carries field edits for a daily entry. Nil fields are
// left untouched, so the form layer can write back exactly what changed.
type DailyEntryUpdate struct {
	Date             *string `json:"date,omitempty"`
	Weather          *string `json:"weather,omitempty"`
	Temperature      *string `json:"temperature,omitempty"`
	Personal         *string `json:"personal,omitempty"`
	Equipment        *string `json:"equipment,omitempty"`
	Materials        *string `json:"materials,omitempty"`
	Progress         *string `json:"progress,omitempty"`
	Issues           *string `json:"issues,omitempty"`
	Inspections      *string `json:"inspections,omitempty"`
	Safety           *string `json:"safety,omitempty"`
	PhotoDescription *string `json:"photoDescription,omitempty"`
}

// CreateDailyEntry appends a new entry defaulted to today's date with the
// next free id, persists, and returns it for the caller to render.
func (s *Store) CreateDailyEntry() (models.DailyEntry, error) {
	s.mu.Lock()
	entry := models.DailyEntry{
		ID:   s.nextEntryID,
		Date: s.now().Format("2006-01-02"),
	}
	s.nextEntryID++
	s.doc.DailyEntries = append(s.doc.DailyEntries, entry)
	err := s.saveLocked()
	s.mu.Unlock()

	s.emit("entry.created", fmt.Sprintf("%d", entry.ID))
	return entry, err
}

// UpdateDailyEntry writes the non-nil fields of upd into the entry with
// the given id and persists.
func (s *Store) UpdateDailyEntry(id int, upd DailyEntryUpdate) (models.DailyEntry, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.doc.DailyEntries {
		if s.doc.DailyEntries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.DailyEntry{}, fmt.Errorf("diary: entry %d: %w", id, apperr.ErrNotFound)
	}

	e := &s.doc.DailyEntries[idx]
	applyString(&e.Date, upd.Date)
	applyString(&e.Weather, upd.Weather)
	applyString(&e.Temperature, upd.Temperature)
	applyString(&e.Personal, upd.Personal)
	applyString(&e.Equipment, upd.Equipment)
	applyString(&e.Materials, upd.Materials)
	applyString(&e.Progress, upd.Progress)
	applyString(&e.Issues, upd.Issues)
	applyString(&e.Inspections, upd.Inspections)
	applyString(&e.Safety, upd.Safety)
	applyString(&e.PhotoDescription, upd.PhotoDescription)
	entry := *e
	err := s.saveLocked()
	s.mu.Unlock()

	s.emit("entry.updated", fmt.Sprintf("%d", id))
	return entry, err
}

// DeleteDailyEntry removes the entry with the given id. An unknown id is
// a no-op; the document is only persisted when something was removed.
func (s *Store) DeleteDailyEntry(id int) error {
	s.mu.Lock()
	before := len(s.doc.DailyEntries)
	kept := s.doc.DailyEntries[:0]
	for _, e := range s.doc.DailyEntries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.doc.DailyEntries = kept
	if len(kept) == before {
		s.mu.Unlock()
		return nil
	}
	err := s.saveLocked()
	s.mu.Unlock()

	s.emit("entry.deleted", fmt.Sprintf("%d", id))
	return err
}

// ListDailyEntries returns the entries in display order.
func (s *Store) ListDailyEntries() []models.DailyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DailyEntry, len(s.doc.DailyEntries))
	copy(out, s.doc.DailyEntries)
	return out
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
