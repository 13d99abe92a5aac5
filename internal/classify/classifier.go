package classify

import (
	"context"
	"strings"
)

// MediaType is the coarse kind of a classified media file
type MediaType string

const (
	TypeShow    MediaType = "show"
	TypeMovie   MediaType = "movie"
	TypeUnknown MediaType = "unknown"
)

// MediaInfo is the structured classification of a primary media file.
// Season and Episode are nil when the classifier could not determine
// them (movies, specials without numbering). Year is 0 when unknown.
type MediaInfo struct {
	Title   string    `json:"title"`
	Type    MediaType `json:"type"`
	Season  *int      `json:"season,omitempty"`
	Episode *int      `json:"episode,omitempty"`
	Year    int       `json:"year,omitempty"`
}

// DisplayName returns the name a linked file should carry for this
// classification, without extension. Empty when the classification is
// unusable.
func (m *MediaInfo) DisplayName() string {
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m.Title)
}

// Classifier is the capability consumed by the scan and consolidation
// engines. Implementations must not panic across the boundary; a
// failed classification is reported as an error and the caller treats
// it as "no result".
type Classifier interface {
	// ClassifyPrimary classifies a primary media file given its
	// filename and the name of its parent directory.
	ClassifyPrimary(ctx context.Context, filename, parentDir string) (*MediaInfo, error)

	// ClassifySidecarRole tags a sidecar file (poster, fanart,
	// subtitle, ...) relative to the standardized base name of its
	// primary file. An empty role with nil error means "no role".
	ClassifySidecarRole(ctx context.Context, baseName, sidecarName string) (string, error)

	// CanonicalizeTitles maps each raw title to its canonical form
	// (merging language and formatting variants).
	CanonicalizeTitles(ctx context.Context, titles []string) (map[string]string, error)
}
