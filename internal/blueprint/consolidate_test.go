package blueprint

import (
	"context"
	"errors"
	"testing"

	"github.com/franz/media-linker/internal/classify"
	"github.com/franz/media-linker/internal/report"
)

// stubCanonicalizer answers CanonicalizeTitles with a canned mapping
type stubCanonicalizer struct {
	mapping map[string]string
	err     error
	calls   int
}

func (s *stubCanonicalizer) ClassifyPrimary(ctx context.Context, filename, parentDir string) (*classify.MediaInfo, error) {
	return nil, errors.New("not used")
}

func (s *stubCanonicalizer) ClassifySidecarRole(ctx context.Context, baseName, sidecarName string) (string, error) {
	return "", errors.New("not used")
}

func (s *stubCanonicalizer) CanonicalizeTitles(ctx context.Context, titles []string) (map[string]string, error) {
	s.calls++
	return s.mapping, s.err
}

func newTestConsolidator(stub *stubCanonicalizer) *Consolidator {
	return NewConsolidator(&ConsolidateConfig{
		Classifier: stub,
		Logger:     report.NullLogger(),
	})
}

func buildRawBlueprint(t *testing.T) *Blueprint {
	t.Helper()

	bp := New()
	// Two items under the Chinese title, one vote each for 2020
	bp.Fold(showItem("瑞克和莫蒂", 2020, 1, 1))
	bp.Fold(showItem("瑞克和莫蒂", 2020, 1, 2))
	// Three items under the English title, split year votes
	bp.Fold(showItem("Rick and Morty", 2021, 4, 1))
	bp.Fold(showItem("Rick and Morty", 0, 4, 2))
	bp.Fold(showItem("Rick and Morty", 0, 4, 3))
	return bp
}

func TestConsolidateMergesVariants(t *testing.T) {
	stub := &stubCanonicalizer{
		mapping: map[string]string{
			"瑞克和莫蒂":          "Rick and Morty",
			"Rick and Morty": "Rick and Morty",
		},
	}

	raw := buildRawBlueprint(t)
	out := newTestConsolidator(stub).Consolidate(context.Background(), raw)

	if out.Len() != 1 {
		t.Fatalf("Expected 1 canonical record, got %d", out.Len())
	}

	rec := out.Get("Rick and Morty")
	if rec == nil {
		t.Fatal("Expected 'Rick and Morty' record")
	}
	if len(rec.Items) != 5 {
		t.Errorf("Expected 5 merged items, got %d", len(rec.Items))
	}
	if rec.TitleVotes["瑞克和莫蒂"] != 2 || rec.TitleVotes["Rick and Morty"] != 3 {
		t.Errorf("Unexpected merged title votes: %v", rec.TitleVotes)
	}
	if rec.CanonicalTitle != "Rick and Morty" {
		t.Errorf("Expected canonical title stamped, got %q", rec.CanonicalTitle)
	}
	// 2020 has two votes, 2021 one
	if rec.CanonicalYear != 2020 {
		t.Errorf("Expected elected year 2020, got %d", rec.CanonicalYear)
	}
}

func TestConsolidateEmptyBlueprint(t *testing.T) {
	stub := &stubCanonicalizer{}

	out := newTestConsolidator(stub).Consolidate(context.Background(), New())

	if out.Len() != 0 {
		t.Errorf("Expected empty output, got %d records", out.Len())
	}
	if stub.calls != 0 {
		t.Errorf("Expected no collaborator call for empty blueprint, got %d", stub.calls)
	}
}

func TestConsolidateFallbackOnError(t *testing.T) {
	stub := &stubCanonicalizer{err: errors.New("model unavailable")}

	raw := buildRawBlueprint(t)
	out := newTestConsolidator(stub).Consolidate(context.Background(), raw)

	// No merging happens; every record keeps its raw title as canonical
	if out.Len() != 2 {
		t.Fatalf("Expected 2 records after fallback, got %d", out.Len())
	}
	for _, title := range out.Titles() {
		rec := out.Get(title)
		if rec.CanonicalTitle != title {
			t.Errorf("Expected canonical title %q, got %q", title, rec.CanonicalTitle)
		}
	}
	if out.Get("瑞克和莫蒂").CanonicalYear != 2020 {
		t.Errorf("Expected fallback year election, got %d", out.Get("瑞克和莫蒂").CanonicalYear)
	}
}

func TestConsolidateFallbackOnEmptyMapping(t *testing.T) {
	stub := &stubCanonicalizer{mapping: map[string]string{}}

	raw := buildRawBlueprint(t)
	out := newTestConsolidator(stub).Consolidate(context.Background(), raw)

	if out.Len() != 2 {
		t.Errorf("Expected 2 records after empty-mapping fallback, got %d", out.Len())
	}
}

func TestConsolidateUnmappedTitleKeepsItself(t *testing.T) {
	stub := &stubCanonicalizer{
		mapping: map[string]string{
			"瑞克和莫蒂": "Rick and Morty",
			// "Rick and Morty" deliberately absent from the mapping
		},
	}

	raw := buildRawBlueprint(t)
	out := newTestConsolidator(stub).Consolidate(context.Background(), raw)

	// The Chinese title folds into "Rick and Morty"; the unmapped
	// English title maps onto itself, so the two still merge
	if out.Len() != 1 {
		t.Fatalf("Expected 1 record, got %d", out.Len())
	}
	if len(out.Get("Rick and Morty").Items) != 5 {
		t.Errorf("Expected 5 items, got %d", len(out.Get("Rick and Morty").Items))
	}
}

func TestConsolidateIgnoresUnknownMappingKeys(t *testing.T) {
	stub := &stubCanonicalizer{
		mapping: map[string]string{
			"瑞克和莫蒂":          "Rick and Morty",
			"Rick and Morty": "Rick and Morty",
			"Never Scanned":  "Phantom Title",
		},
	}

	raw := buildRawBlueprint(t)
	out := newTestConsolidator(stub).Consolidate(context.Background(), raw)

	if out.Len() != 1 {
		t.Fatalf("Expected 1 record, got %d", out.Len())
	}
	if out.Get("Phantom Title") != nil {
		t.Error("Mapping keys that were never scanned must not create records")
	}
}

func TestConsolidateTypeFromFirstMergedSource(t *testing.T) {
	bp := New()
	bp.Fold(showItem("Alias A", 2000, 1, 1))
	bp.Fold(&Item{
		Primary: MediaFile{Name: "b.mkv"},
		Info:    classify.MediaInfo{Title: "Alias B", Type: classify.TypeMovie, Year: 2000},
	})

	stub := &stubCanonicalizer{
		mapping: map[string]string{
			"Alias A": "Merged",
			"Alias B": "Merged",
		},
	}

	out := newTestConsolidator(stub).Consolidate(context.Background(), bp)

	rec := out.Get("Merged")
	if rec == nil {
		t.Fatal("Expected 'Merged' record")
	}
	if rec.Type != classify.TypeShow {
		t.Errorf("Expected type from first merged source (show), got %q", rec.Type)
	}
}
