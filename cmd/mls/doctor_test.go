package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/franz/media-linker/internal/linker"
	"github.com/franz/media-linker/internal/store"
)

func TestCheckCacheDB_NonExistent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nonexistent.db")

	result := checkCacheDB(dbPath)

	// The database is created on first open, so this must succeed
	if result.error || result.warning {
		t.Errorf("non-existent database check should pass: %s", result.message)
	}
}

func TestCheckCacheDB_Existing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := db.PutClassification("dir|ep.mkv", `{"title":"X"}`); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}
	db.Close()

	result := checkCacheDB(dbPath)

	if result.error || result.warning {
		t.Errorf("existing database check failed: %s", result.message)
	}
	if result.message == "" {
		t.Error("expected cache statistics in message")
	}
}

func TestCheckSourceDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "a.mkv"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	result := checkSourceDirectory(tmpDir)
	if result.error {
		t.Errorf("readable source check failed: %s", result.message)
	}

	result = checkSourceDirectory(filepath.Join(tmpDir, "missing"))
	if !result.error {
		t.Error("expected error for a missing source directory")
	}
}

func TestCheckTargetDirectory(t *testing.T) {
	// The target is created when absent
	target := filepath.Join(t.TempDir(), "new-target")

	result := checkTargetDirectory(target)
	if result.error {
		t.Errorf("target check failed: %s", result.message)
	}

	if _, err := os.Stat(target); err != nil {
		t.Errorf("expected target directory created: %v", err)
	}
}

func TestCheckLinkCapability(t *testing.T) {
	target := t.TempDir()

	result := checkLinkCapability(target, linker.LinkSoft)
	if result.error {
		t.Errorf("soft link check failed: %s", result.message)
	}

	result = checkLinkCapability(target, linker.LinkHard)
	if result.error {
		t.Errorf("hard link check failed: %s", result.message)
	}

	// Probe files must be cleaned up
	entries, err := os.ReadDir(target)
	if err != nil {
		t.Fatalf("failed to read target: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected probe files removed, found %d entries", len(entries))
	}
}

func TestCheckSameFilesystem(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "source")
	target := filepath.Join(tmpDir, "target")
	for _, dir := range []string{source, target} {
		if err := os.Mkdir(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	result := checkSameFilesystem(source, target)
	if result.error || result.warning {
		t.Errorf("sibling directories should share a filesystem: %s", result.message)
	}
}
