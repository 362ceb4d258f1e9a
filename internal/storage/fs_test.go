package storage

import (
	"testing"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempFS(t)
	content := []byte(`{"milestones":[]}`)
	if err := s.Write("bautagebuch.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("bautagebuch.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteOverwrites(t *testing.T) {
	s := tempFS(t)
	_ = s.Write("doc.json", []byte("v1"))
	if err := s.Write("doc.json", []byte("v2")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("doc.json")
	if string(got) != "v2" {
		t.Errorf("content = %q, want v2", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempFS(t)
	_ = s.Write("del.json", []byte("bye"))
	if err := s.Delete("del.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.json"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestExists(t *testing.T) {
	s := tempFS(t)
	if s.Exists("missing.json") {
		t.Error("missing file reported as existing")
	}
	_ = s.Write("here.json", []byte("x"))
	if !s.Exists("here.json") {
		t.Error("written file not reported as existing")
	}
}

func TestRejectsTraversal(t *testing.T) {
	s := tempFS(t)
	if _, err := s.Read("../outside.json"); err == nil {
		t.Error("expected traversal to be rejected")
	}
	if err := s.Write("/etc/passwd", []byte("x")); err == nil {
		t.Error("expected absolute path to be rejected")
	}
	if _, err := s.Read(""); err == nil {
		t.Error("expected empty name to be rejected")
	}
}
