package store

import (
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st, dbPath
}

func TestOpenAndPing(t *testing.T) {
	st, _ := setupTestStore(t)

	if err := st.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestClassificationRoundtrip(t *testing.T) {
	st, _ := setupTestStore(t)

	payload := `{"title": "The Wire", "type": "show"}`
	if err := st.PutClassification("dir|ep.mkv", payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := st.GetClassification("dir|ep.mkv")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if got != payload {
		t.Errorf("Payload mismatch: got %q, expected %q", got, payload)
	}
}

func TestClassificationMiss(t *testing.T) {
	st, _ := setupTestStore(t)

	_, ok, err := st.GetClassification("never-stored")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Expected a cache miss")
	}
}

func TestClassificationUpsert(t *testing.T) {
	st, _ := setupTestStore(t)

	if err := st.PutClassification("key", "old"); err != nil {
		t.Fatalf("First put failed: %v", err)
	}
	if err := st.PutClassification("key", "new"); err != nil {
		t.Fatalf("Second put failed: %v", err)
	}

	got, ok, err := st.GetClassification("key")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if got != "new" {
		t.Errorf("Expected replaced payload 'new', got %q", got)
	}

	count, err := st.CountClassifications()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row after upsert, got %d", count)
	}
}

func TestSidecarRoleRoundtrip(t *testing.T) {
	st, _ := setupTestStore(t)

	if err := st.PutSidecarRole("base|folder.jpg", "poster"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	role, ok, err := st.GetSidecarRole("base|folder.jpg")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if role != "poster" {
		t.Errorf("Expected 'poster', got %q", role)
	}
}

func TestSidecarRoleEmptyCached(t *testing.T) {
	st, _ := setupTestStore(t)

	// An empty role is a real answer ("no role"), not a miss
	if err := st.PutSidecarRole("base|notes.txt", ""); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	role, ok, err := st.GetSidecarRole("base|notes.txt")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Error("Expected a hit for the cached empty role")
	}
	if role != "" {
		t.Errorf("Expected empty role, got %q", role)
	}
}

func TestReopenPersists(t *testing.T) {
	st, dbPath := setupTestStore(t)

	if err := st.PutClassification("key", "payload"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.GetClassification("key")
	if err != nil || !ok {
		t.Fatalf("Get after reopen failed: ok=%v err=%v", ok, err)
	}
	if got != "payload" {
		t.Errorf("Expected persisted payload, got %q", got)
	}
}
