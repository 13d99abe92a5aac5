package blueprint

import (
	"encoding/json"
	"sort"

	"github.com/franz/media-linker/internal/classify"
)

// MediaFile is one file discovered in a source tree. Role is only set
// for sidecar files, after role classification.
type MediaFile struct {
	SourcePath string `json:"source_path"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
}

// PrimaryGroup is a transient base-name cluster inside one directory:
// one primary media file plus the sidecars sharing its base name.
type PrimaryGroup struct {
	Primary  MediaFile
	Sidecars []MediaFile
}

// Item is one classified unit (an episode or a movie). It is created
// once after successful classification and owned by exactly one
// Record afterwards.
type Item struct {
	Season   *int               `json:"season,omitempty"`
	Episode  *int               `json:"episode,omitempty"`
	Primary  MediaFile          `json:"primary"`
	Sidecars []MediaFile        `json:"sidecars,omitempty"`
	Info     classify.MediaInfo `json:"classification"`
}

// Record aggregates every item classified under one title, together
// with the vote tallies used to elect canonical metadata. Canonical
// fields stay empty until consolidation.
type Record struct {
	Type           classify.MediaType `json:"type"`
	TitleVotes     map[string]int     `json:"title_votes"`
	YearVotes      map[int]int        `json:"year_votes,omitempty"`
	Items          []*Item            `json:"items"`
	CanonicalTitle string             `json:"canonical_title,omitempty"`
	CanonicalYear  int                `json:"canonical_year,omitempty"`
}

// ElectYear returns the year with the strictly highest vote count.
// Years are examined in ascending order, so a tie resolves to the
// earliest year. Returns 0 when there are no year votes.
func (r *Record) ElectYear() int {
	if len(r.YearVotes) == 0 {
		return 0
	}

	years := make([]int, 0, len(r.YearVotes))
	for year := range r.YearVotes {
		years = append(years, year)
	}
	sort.Ints(years)

	best, bestVotes := 0, 0
	for _, year := range years {
		if r.YearVotes[year] > bestVotes {
			best = year
			bestVotes = r.YearVotes[year]
		}
	}
	return best
}

// Blueprint maps titles to Records. Iteration follows insertion order
// so merges and tie-breaks are reproducible across runs.
type Blueprint struct {
	records map[string]*Record
	titles  []string
}

// New creates an empty blueprint
func New() *Blueprint {
	return &Blueprint{
		records: make(map[string]*Record),
	}
}

// Len returns the number of records
func (b *Blueprint) Len() int {
	return len(b.records)
}

// Titles returns the record keys in insertion order
func (b *Blueprint) Titles() []string {
	out := make([]string, len(b.titles))
	copy(out, b.titles)
	return out
}

// Get returns the record for title, or nil
func (b *Blueprint) Get(title string) *Record {
	return b.records[title]
}

// ItemCount returns the total number of items across all records
func (b *Blueprint) ItemCount() int {
	count := 0
	for _, rec := range b.records {
		count += len(rec.Items)
	}
	return count
}

// getOrCreate returns the record for title, creating it with the given
// type on first use.
func (b *Blueprint) getOrCreate(title string, mediaType classify.MediaType) *Record {
	if rec, ok := b.records[title]; ok {
		return rec
	}
	rec := &Record{
		Type:       mediaType,
		TitleVotes: make(map[string]int),
		YearVotes:  make(map[int]int),
	}
	b.records[title] = rec
	b.titles = append(b.titles, title)
	return rec
}

// Fold inserts a classified item under its raw title: the record is
// created on first sight, the item appended, and the title and year
// tallies incremented. Callers must not fold concurrently; the scan
// engine drains each classification chunk before folding its results.
func (b *Blueprint) Fold(item *Item) {
	title := item.Info.Title
	rec := b.getOrCreate(title, item.Info.Type)

	rec.Items = append(rec.Items, item)
	rec.TitleVotes[title]++
	if item.Info.Year != 0 {
		rec.YearVotes[item.Info.Year]++
	}
}

// MarshalJSON serializes the blueprint as a title-keyed object
func (b *Blueprint) MarshalJSON() ([]byte, error) {
	out := make(map[string]*Record, len(b.records))
	for title, rec := range b.records {
		out[title] = rec
	}
	return json.Marshal(out)
}
