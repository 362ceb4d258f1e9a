// Package diary implements the document store and the daily-entry and
// milestone registries on top of it. The store is the single owner of the
// in-memory document; every mutation funnels back through its save path.
package diary

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/chrisd/bautagebuch/internal/apperr"
	"github.com/chrisd/bautagebuch/internal/checksum"
	"github.com/chrisd/bautagebuch/internal/models"
	"github.com/chrisd/bautagebuch/internal/storage"
)

// DocumentFile is the name of the persisted document inside the data directory.
const DocumentFile = "bautagebuch.json"

// Section names of the free-form field maps.
const (
	SectionPre  = "preConstruction"
	SectionPost = "postConstruction"
)

// EventCallback is invoked after a successful mutation.
// kind is e.g. "entry.created", "milestone.updated", "document.imported".
type EventCallback func(kind, id string)

// Store owns the diary document and persists it as a single JSON file.
type Store struct {
	mu     sync.Mutex
	files  storage.Provider
	logger *slog.Logger

	doc         *models.Document
	nextEntryID int
	lastSaved   string // checksum of the bytes this process last wrote

	onChange EventCallback
	now      func() time.Time
}

// NewStore creates a store backed by the given file provider. Call Load
// before use.
func NewStore(files storage.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		files:  files,
		logger: logger,
		doc:    models.NewDocument(),
		now:    time.Now,
	}
}

// SetOnChange registers a mutation callback. Must be called before the
// store is shared across goroutines.
func (s *Store) SetOnChange(cb EventCallback) { s.onChange = cb }

// emit notifies the change listener. Callers must not hold s.mu.
func (s *Store) emit(kind, id string) {
	if s.onChange != nil {
		s.onChange(kind, id)
	}
}

// Load reads the persisted document. Missing or unreadable data is not an
// error: the store falls back to an empty document and logs a warning, so
// a corrupt file behaves like a fresh install.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.files.Read(DocumentFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("diary: unreadable document, starting empty",
				slog.String("error", err.Error()))
		}
		s.doc = models.NewDocument()
		s.nextEntryID = 1
		return
	}

	doc := &models.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Warn("diary: corrupt document, starting empty",
			slog.String("error", err.Error()))
		s.doc = models.NewDocument()
		s.nextEntryID = 1
		return
	}
	doc.Normalize()
	s.doc = doc
	s.nextEntryID = nextEntryID(doc)
	s.lastSaved = checksum.Sum(data)
	s.logger.Info("diary: document loaded",
		slog.Int("daily_entries", len(doc.DailyEntries)),
		slog.Int("milestones", len(doc.Milestones)))
}

// Save serialises the whole document and overwrites the persisted file.
func (s *Store) Save() error {
	s.mu.Lock()
	err := s.saveLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	// Emit outside the lock: change listeners may read back through the store.
	s.emit("document.saved", "")
	return nil
}

// saveLocked persists the current document. Callers hold s.mu.
func (s *Store) saveLocked() error {
	data, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("diary: encode document: %w", err)
	}
	if err := s.files.Write(DocumentFile, data); err != nil {
		s.logger.Error("diary: save failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", apperr.ErrStorageWrite, err)
	}
	s.lastSaved = checksum.Sum(data)
	return nil
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Export returns the download filename and the pretty-printed document.
func (s *Store) Export() (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("diary: encode export: %w", err)
	}
	name := fmt.Sprintf("bautagebuch-%s.json", s.now().Format("2006-01-02"))
	return name, data, nil
}

// Import parses data as a document, replaces the in-memory document and
// persists it immediately. On parse failure the current document is left
// untouched and ErrImportParse is returned.
func (s *Store) Import(data []byte) error {
	doc := &models.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrImportParse, err)
	}
	doc.Normalize()

	s.mu.Lock()
	s.doc = doc
	s.nextEntryID = nextEntryID(doc)
	err := s.saveLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.emit("document.imported", "")
	return nil
}

// Reload re-reads the persisted file, replacing the in-memory document.
// Used by the watcher when the file changes outside this process. A
// missing or corrupt file leaves the current document in place.
func (s *Store) Reload() error {
	data, err := s.files.Read(DocumentFile)
	if err != nil {
		return fmt.Errorf("diary: reload: %w", err)
	}
	doc := &models.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("diary: reload: %w", err)
	}
	doc.Normalize()

	s.mu.Lock()
	s.doc = doc
	s.nextEntryID = nextEntryID(doc)
	s.lastSaved = checksum.Sum(data)
	s.mu.Unlock()
	s.emit("document.reloaded", "")
	return nil
}

// LastSavedChecksum returns the digest of the bytes this process last
// wrote, used by the watcher to ignore self-inflicted file events.
func (s *Store) LastSavedChecksum() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// Section returns a copy of the named field map.
func (s *Store) Section(name string) (models.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch name {
	case SectionPre:
		return s.doc.PreConstruction.Clone(), nil
	case SectionPost:
		return s.doc.PostConstruction.Clone(), nil
	}
	return nil, fmt.Errorf("diary: section %q: %w", name, apperr.ErrNotFound)
}

// ReplaceSection swaps the named field map wholesale, mirroring how the
// form layer submits a full snapshot of its inputs. It does not persist;
// section edits ride the debounced autosave.
func (s *Store) ReplaceSection(name string, fields models.Section) error {
	if fields == nil {
		fields = models.Section{}
	}
	s.mu.Lock()
	switch name {
	case SectionPre:
		s.doc.PreConstruction = fields
	case SectionPost:
		s.doc.PostConstruction = fields
	default:
		s.mu.Unlock()
		return fmt.Errorf("diary: section %q: %w", name, apperr.ErrNotFound)
	}
	s.mu.Unlock()
	s.emit("section.updated", name)
	return nil
}

// nextEntryID recomputes the daily-entry id counter as max(existing)+1,
// so entries created after a load or import can never collide.
func nextEntryID(doc *models.Document) int {
	next := 1
	for _, e := range doc.DailyEntries {
		if e.ID >= next {
			next = e.ID + 1
		}
	}
	return next
}
