package diary

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/chrisd/bautagebuch/internal/apperr"
	"github.com/chrisd/bautagebuch/internal/models"
	"github.com/chrisd/bautagebuch/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	s := NewStore(files, quietLogger())
	s.Load()
	return s, dir
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	doc := s.Snapshot()
	if len(doc.DailyEntries) != 0 || len(doc.Milestones) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
	entry, err := s.CreateDailyEntry()
	if err != nil {
		t.Fatalf("CreateDailyEntry: %v", err)
	}
	if entry.ID != 1 {
		t.Errorf("first id = %d, want 1", entry.ID)
	}
}

func TestLoadCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DocumentFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	files, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore(files, quietLogger())
	s.Load()
	if len(s.Snapshot().DailyEntries) != 0 {
		t.Error("corrupt file should behave like no data")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s, dir := newTestStore(t)
	if _, err := s.CreateDailyEntry(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateMilestone(CreateMilestoneInput{Title: "Rohbau", Date: "2024-03-15"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceSection(SectionPre, models.Section{"bauherr": models.TextValue("Mustermann")}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	files, _ := storage.NewFS(dir)
	reloaded := NewStore(files, quietLogger())
	reloaded.Load()
	if !reflect.DeepEqual(s.Snapshot(), reloaded.Snapshot()) {
		t.Error("reloaded document differs from saved document")
	}
}

func TestSaveIdempotentBytes(t *testing.T) {
	s, dir := newTestStore(t)
	if _, err := s.CreateMilestone(CreateMilestoneInput{Title: "A", Date: "2024-01-01"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(filepath.Join(dir, DocumentFile))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(filepath.Join(dir, DocumentFile))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("two saves with no mutation produced different bytes")
	}
}

func TestExportFilenameAndFormat(t *testing.T) {
	s, _ := newTestStore(t)
	s.now = func() time.Time { return time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC) }

	name, data, err := s.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if name != "bautagebuch-2024-03-15.json" {
		t.Errorf("filename = %q", name)
	}
	if !strings.Contains(string(data), "\n  \"") {
		t.Error("export should be pretty-printed with 2-space indent")
	}
}

func TestImportInvalidJSONLeavesDocument(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateMilestone(CreateMilestoneInput{Title: "Keep", Date: "2024-01-01"}); err != nil {
		t.Fatal(err)
	}

	err := s.Import([]byte("definitely not json"))
	if !errors.Is(err, apperr.ErrImportParse) {
		t.Fatalf("err = %v, want ErrImportParse", err)
	}
	if got := s.ListMilestones(); len(got) != 1 || got[0].Title != "Keep" {
		t.Errorf("document changed by failed import: %+v", got)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateDailyEntry(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateMilestone(CreateMilestoneInput{Title: "Rohbau", Date: "2024-03-15", Duration: "5"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceSection(SectionPost, models.Section{
		"abnahme": models.TextValue("2024-10-01"),
		"fotos":   models.FilesValue(models.FileMetadata{Name: "a.jpg", Size: 1, Type: "image/jpeg"}),
	}); err != nil {
		t.Fatal(err)
	}

	_, data, err := s.Export()
	if err != nil {
		t.Fatal(err)
	}

	other, _ := newTestStore(t)
	if err := other.Import(data); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !reflect.DeepEqual(s.Snapshot(), other.Snapshot()) {
		t.Error("import(export(doc)) != doc")
	}
}

func TestImportPersistsImmediately(t *testing.T) {
	s, dir := newTestStore(t)
	if err := s.Import([]byte(`{"milestones":[{"id":"m1","title":"X"}]}`)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, DocumentFile))
	if err != nil {
		t.Fatalf("document not persisted after import: %v", err)
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Milestones) != 1 || doc.Milestones[0].ID != "m1" {
		t.Errorf("persisted document = %+v", doc)
	}
}

func TestImportRecomputesEntryCounter(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Import([]byte(`{"dailyEntries":[{"id":5},{"id":9}]}`)); err != nil {
		t.Fatal(err)
	}
	entry, err := s.CreateDailyEntry()
	if err != nil {
		t.Fatal(err)
	}
	if entry.ID != 10 {
		t.Errorf("id after import = %d, want 10", entry.ID)
	}
}

func TestReplaceSectionUnknownName(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.ReplaceSection("duringConstruction", models.Section{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSectionArbitraryKeys(t *testing.T) {
	s, _ := newTestStore(t)
	fields := models.Section{
		"völlig-frei-gewählter-schlüssel": models.TextValue("ja"),
		"anlagen": models.FilesValue(
			models.FileMetadata{Name: "plan.pdf", Size: 2048, Type: "application/pdf", LastModified: 1700000000000},
		),
	}
	if err := s.ReplaceSection(SectionPre, fields); err != nil {
		t.Fatal(err)
	}
	got, err := s.Section(SectionPre)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, fields) {
		t.Errorf("section = %+v, want %+v", got, fields)
	}
}

func TestReloadPicksUpExternalEdit(t *testing.T) {
	s, dir := newTestStore(t)
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	external := []byte(`{"milestones":[{"id":"x","title":"Von außen"}]}`)
	if err := os.WriteFile(filepath.Join(dir, DocumentFile), external, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := s.ListMilestones(); len(got) != 1 || got[0].Title != "Von außen" {
		t.Errorf("milestones after reload = %+v", got)
	}
}

func TestOnChangeEvents(t *testing.T) {
	s, _ := newTestStore(t)
	var kinds []string
	s.SetOnChange(func(kind, id string) { kinds = append(kinds, kind) })

	entry, _ := s.CreateDailyEntry()
	_, _ = s.CreateMilestone(CreateMilestoneInput{Title: "T", Date: "2024-01-01"})
	_ = s.DeleteDailyEntry(entry.ID)
	_ = s.Save()

	want := []string{"entry.created", "milestone.created", "entry.deleted", "document.saved"}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
}
