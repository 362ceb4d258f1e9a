package diary

import (
	"errors"
	"testing"
	"time"

	"github.com/chrisd/bautagebuch/internal/apperr"
)

func strptr(s string) *string { return &s }

func TestCreateDailyEntryAssignsIncreasingIDs(t *testing.T) {
	s, _ := newTestStore(t)
	seen := map[int]bool{}
	for i := 1; i <= 5; i++ {
		entry, err := s.CreateDailyEntry()
		if err != nil {
			t.Fatalf("CreateDailyEntry: %v", err)
		}
		if entry.ID != i {
			t.Errorf("id = %d, want %d", entry.ID, i)
		}
		if seen[entry.ID] {
			t.Errorf("duplicate id %d", entry.ID)
		}
		seen[entry.ID] = true
	}
}

func TestCreateDailyEntryDefaultsToToday(t *testing.T) {
	s, _ := newTestStore(t)
	s.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	entry, err := s.CreateDailyEntry()
	if err != nil {
		t.Fatal(err)
	}
	if entry.Date != "2024-03-15" {
		t.Errorf("date = %q, want 2024-03-15", entry.Date)
	}
}

func TestUpdateDailyEntryWritesBackOnlyGivenFields(t *testing.T) {
	s, _ := newTestStore(t)
	entry, err := s.CreateDailyEntry()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateDailyEntry(entry.ID, DailyEntryUpdate{Weather: strptr("sonnig"), Temperature: strptr("18")}); err != nil {
		t.Fatal(err)
	}
	got, err := s.UpdateDailyEntry(entry.ID, DailyEntryUpdate{Issues: strptr("Lieferverzug")})
	if err != nil {
		t.Fatal(err)
	}
	if got.Weather != "sonnig" || got.Temperature != "18" || got.Issues != "Lieferverzug" {
		t.Errorf("merge lost fields: %+v", got)
	}
	if got.Date != entry.Date {
		t.Errorf("date changed from %q to %q", entry.Date, got.Date)
	}
}

func TestUpdateDailyEntryUnknownID(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.UpdateDailyEntry(99, DailyEntryUpdate{Weather: strptr("regen")})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteDailyEntry(t *testing.T) {
	s, _ := newTestStore(t)
	a, _ := s.CreateDailyEntry()
	b, _ := s.CreateDailyEntry()

	if err := s.DeleteDailyEntry(a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got := s.ListDailyEntries()
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("entries after delete = %+v", got)
	}
}

func TestDeleteDailyEntryUnknownIDIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateDailyEntry(); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteDailyEntry(42); err != nil {
		t.Errorf("unknown id should be a no-op, got %v", err)
	}
	if len(s.ListDailyEntries()) != 1 {
		t.Error("no-op delete changed the collection")
	}
}

func TestEntryIDsNeverReused(t *testing.T) {
	s, _ := newTestStore(t)
	a, _ := s.CreateDailyEntry()
	b, _ := s.CreateDailyEntry()
	if err := s.DeleteDailyEntry(b.ID); err != nil {
		t.Fatal(err)
	}
	c, _ := s.CreateDailyEntry()
	if c.ID == a.ID || c.ID == b.ID {
		t.Errorf("id %d reused after delete", c.ID)
	}
	if c.ID != b.ID+1 {
		t.Errorf("id = %d, want %d", c.ID, b.ID+1)
	}
}
