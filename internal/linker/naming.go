package linker

import (
	"fmt"
	"regexp"
	"strings"
)

// Link types and path modes accepted by the synchronizer
const (
	LinkSoft = "soft"
	LinkHard = "hard"

	PathAbsolute = "absolute"
	PathRelative = "relative"
)

// sameNameExts are sidecar extensions media servers expect directly
// under the primary's name: subtitles, info files, captions, lyrics.
// These never get a role suffix.
var sameNameExts = map[string]bool{
	".srt": true,
	".sub": true,
	".idx": true,
	".ass": true,
	".ssa": true,
	".vtt": true,
	".smi": true,
	".nfo": true,
	".lrc": true,
}

// episodePattern matches the SxxEyy marker in generated filenames
var episodePattern = regexp.MustCompile(`(?i)S(\d{1,3})E(\d{1,3})`)

// yearSuffixPattern matches a trailing " (1999)" on a series directory
var yearSuffixPattern = regexp.MustCompile(`\s*\(\d{4}\)$`)

// SanitizeName strips characters illegal in filesystem names and trims
// surrounding whitespace.
func SanitizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(cleaned)
}

// EpisodeIdentity derives the canonical identity string for one
// episode: series name plus unpadded season and episode numbers. A
// trailing year suffix is stripped here, so a title that natively ends
// in " (2005)" yields the same identity as its year-suffixed target
// directory. Identities from the probe and from the synchronizer must
// agree, so both sides build them here.
func EpisodeIdentity(seriesName string, season, episode int) string {
	return fmt.Sprintf("%s-S%dE%d", StripYearSuffix(seriesName), season, episode)
}

// StripYearSuffix removes a trailing parenthesized 4-digit year from a
// series directory name.
func StripYearSuffix(name string) string {
	return yearSuffixPattern.ReplaceAllString(name, "")
}

// ParseEpisodeMarker extracts season and episode numbers from an
// SxxEyy marker in a filename. Returns ok=false when no marker exists.
func ParseEpisodeMarker(name string) (season, episode int, ok bool) {
	m := episodePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	fmt.Sscanf(m[1], "%d", &season)
	fmt.Sscanf(m[2], "%d", &episode)
	return season, episode, true
}
