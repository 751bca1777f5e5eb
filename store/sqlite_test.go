package store

import (
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSaveAndLoadSnapshot(t *testing.T) {
	s := newTestSQLite(t)

	stateJSON := []byte(`{"encounter_id":"derelict","tokens":{},"room_visibility":{},"door_status":{}}`)
	if err := s.SaveSnapshot("active", stateJSON); err != nil {
		t.Fatalf("failed to save snapshot: %v", err)
	}

	data, ok, err := s.LoadSnapshot("active")
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to exist")
	}
	if string(data) != string(stateJSON) {
		t.Errorf("expected %s, got %s", stateJSON, data)
	}
}

func TestSQLiteLoadMissingSnapshot(t *testing.T) {
	s := newTestSQLite(t)

	_, ok, err := s.LoadSnapshot("active")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no snapshot")
	}
}

func TestSQLiteOverwriteSnapshot(t *testing.T) {
	s := newTestSQLite(t)

	if err := s.SaveSnapshot("active", []byte(`{"encounter_id":"a"}`)); err != nil {
		t.Fatalf("failed to save original: %v", err)
	}
	if err := s.SaveSnapshot("active", []byte(`{"encounter_id":"b"}`)); err != nil {
		t.Fatalf("failed to save updated: %v", err)
	}

	data, ok, err := s.LoadSnapshot("active")
	if err != nil || !ok {
		t.Fatalf("failed to load snapshot: ok=%v err=%v", ok, err)
	}
	if string(data) != `{"encounter_id":"b"}` {
		t.Errorf("expected updated snapshot, got %s", data)
	}
}

func TestSQLiteDeleteSnapshot(t *testing.T) {
	s := newTestSQLite(t)

	if err := s.SaveSnapshot("active", []byte(`{}`)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := s.DeleteSnapshot("active"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}

	if _, ok, _ := s.LoadSnapshot("active"); ok {
		t.Error("expected snapshot gone after delete")
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := s.SaveSnapshot("active", []byte(`{"encounter_id":"derelict"}`)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	data, ok, err := reopened.LoadSnapshot("active")
	if err != nil || !ok {
		t.Fatalf("failed to load after reopen: ok=%v err=%v", ok, err)
	}
	if string(data) != `{"encounter_id":"derelict"}` {
		t.Errorf("unexpected snapshot after reopen: %s", data)
	}
}

func TestSQLiteEmptyPath(t *testing.T) {
	if _, err := NewSQLite(""); err == nil {
		t.Error("expected error for empty path")
	}
}
