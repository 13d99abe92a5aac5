package classify

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/franz/media-linker/internal/store"
)

// countingClassifier records how often each method is called
type countingClassifier struct {
	primaryCalls int
	roleCalls    int
	primaryErr   error
}

func (c *countingClassifier) ClassifyPrimary(ctx context.Context, filename, parentDir string) (*MediaInfo, error) {
	c.primaryCalls++
	if c.primaryErr != nil {
		return nil, c.primaryErr
	}
	return &MediaInfo{Title: "Cached Show", Type: TypeShow, Year: 2020}, nil
}

func (c *countingClassifier) ClassifySidecarRole(ctx context.Context, baseName, sidecarName string) (string, error) {
	c.roleCalls++
	return "poster", nil
}

func (c *countingClassifier) CanonicalizeTitles(ctx context.Context, titles []string) (map[string]string, error) {
	return map[string]string{"a": "b"}, nil
}

func setupCache(t *testing.T) (*CachedClassifier, *countingClassifier) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	inner := &countingClassifier{}
	return NewCachedClassifier(inner, st), inner
}

func TestCachedClassifyPrimary(t *testing.T) {
	cached, inner := setupCache(t)
	ctx := context.Background()

	first, err := cached.ClassifyPrimary(ctx, "ep.mkv", "Show Season 1")
	if err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	second, err := cached.ClassifyPrimary(ctx, "ep.mkv", "Show Season 1")
	if err != nil {
		t.Fatalf("Second call failed: %v", err)
	}

	if inner.primaryCalls != 1 {
		t.Errorf("Expected 1 inner call, got %d", inner.primaryCalls)
	}
	if first.Title != second.Title || first.Year != second.Year {
		t.Errorf("Cached result differs: %+v vs %+v", first, second)
	}
}

func TestCachedClassifyPrimaryKeyedByParentDir(t *testing.T) {
	cached, inner := setupCache(t)
	ctx := context.Background()

	if _, err := cached.ClassifyPrimary(ctx, "ep.mkv", "dir-a"); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if _, err := cached.ClassifyPrimary(ctx, "ep.mkv", "dir-b"); err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if inner.primaryCalls != 2 {
		t.Errorf("Distinct parent dirs must not share cache entries, got %d calls", inner.primaryCalls)
	}
}

func TestCachedClassifyPrimaryErrorNotCached(t *testing.T) {
	cached, inner := setupCache(t)
	inner.primaryErr = errors.New("model down")
	ctx := context.Background()

	if _, err := cached.ClassifyPrimary(ctx, "ep.mkv", "dir"); err == nil {
		t.Fatal("Expected error from inner classifier")
	}

	// After recovery the classification goes through and is cached
	inner.primaryErr = nil
	if _, err := cached.ClassifyPrimary(ctx, "ep.mkv", "dir"); err != nil {
		t.Fatalf("Call after recovery failed: %v", err)
	}
	if _, err := cached.ClassifyPrimary(ctx, "ep.mkv", "dir"); err != nil {
		t.Fatalf("Cached call failed: %v", err)
	}

	if inner.primaryCalls != 3 {
		t.Errorf("Expected 3 inner calls (fail, miss, hit), got %d", inner.primaryCalls)
	}
}

func TestCachedSidecarRole(t *testing.T) {
	cached, inner := setupCache(t)
	ctx := context.Background()

	role, err := cached.ClassifySidecarRole(ctx, "Show S01E01", "folder.jpg")
	if err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	if role != "poster" {
		t.Errorf("Expected 'poster', got %q", role)
	}

	if _, err := cached.ClassifySidecarRole(ctx, "Show S01E01", "folder.jpg"); err != nil {
		t.Fatalf("Second call failed: %v", err)
	}
	if inner.roleCalls != 1 {
		t.Errorf("Expected 1 inner role call, got %d", inner.roleCalls)
	}
}

func TestCachedCanonicalizePassesThrough(t *testing.T) {
	cached, _ := setupCache(t)

	mapping, err := cached.CanonicalizeTitles(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("CanonicalizeTitles failed: %v", err)
	}
	if mapping["a"] != "b" {
		t.Errorf("Expected passthrough mapping, got %v", mapping)
	}
}
