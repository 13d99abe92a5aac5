package blueprint

import (
	"context"

	"github.com/franz/media-linker/internal/classify"
	"github.com/franz/media-linker/internal/report"
	"github.com/franz/media-linker/internal/util"
)

// Consolidator merges raw-title records into canonical-title records
type Consolidator struct {
	classifier classify.Classifier
	logger     *report.EventLogger
}

// ConsolidateConfig holds consolidator configuration
type ConsolidateConfig struct {
	Classifier classify.Classifier
	Logger     *report.EventLogger
}

// NewConsolidator creates a new Consolidator
func NewConsolidator(cfg *ConsolidateConfig) *Consolidator {
	return &Consolidator{
		classifier: cfg.Classifier,
		logger:     cfg.Logger,
	}
}

// Consolidate builds a new blueprint keyed by canonical title. Records
// whose raw titles map to the same canonical title are merged: items
// appended, vote tallies summed, record type taken from the first
// merged source. Every output record gets its canonical title set and
// its canonical year elected from the merged year votes.
//
// Consolidation is best-effort: when the collaborator yields no usable
// mapping, each record keeps its own raw title as canonical and no
// renaming occurs.
func (c *Consolidator) Consolidate(ctx context.Context, raw *Blueprint) *Blueprint {
	titles := raw.Titles()
	if len(titles) == 0 {
		return New()
	}

	util.InfoLog("Consolidating %d raw titles", len(titles))

	mapping, err := c.classifier.CanonicalizeTitles(ctx, titles)
	if err != nil || len(mapping) == 0 {
		if err != nil {
			util.WarnLog("Title canonicalization failed, keeping raw titles: %v", err)
			c.logger.LogError("", err)
		} else {
			util.WarnLog("Title canonicalization returned no mapping, keeping raw titles")
		}
		return c.fallback(raw, titles)
	}

	out := New()
	for _, rawTitle := range titles {
		source := raw.Get(rawTitle)
		if source == nil {
			// The mapping may reference titles that were never
			// scanned; those never reach this loop, but guard the
			// lookup anyway.
			continue
		}

		canonical := mapping[rawTitle]
		if canonical == "" {
			// A title the collaborator skipped keeps itself rather
			// than being dropped from the collection.
			canonical = rawTitle
		}

		target := out.getOrCreate(canonical, source.Type)
		target.Items = append(target.Items, source.Items...)
		for title, votes := range source.TitleVotes {
			target.TitleVotes[title] += votes
		}
		for year, votes := range source.YearVotes {
			target.YearVotes[year] += votes
		}

		if canonical != rawTitle {
			util.DebugLog("Merged %q into %q (%d items)", rawTitle, canonical, len(source.Items))
		}
		c.logger.LogConsolidate(rawTitle, canonical, len(source.Items))
	}

	for _, title := range out.titles {
		rec := out.records[title]
		rec.CanonicalTitle = title
		rec.CanonicalYear = rec.ElectYear()
	}

	util.SuccessLog("Consolidation complete: %d raw titles -> %d canonical titles",
		len(titles), out.Len())
	return out
}

// fallback stamps each record with its own raw title so the rest of
// the pipeline still runs when the collaborator is unavailable.
func (c *Consolidator) fallback(raw *Blueprint, titles []string) *Blueprint {
	for _, title := range titles {
		rec := raw.Get(title)
		rec.CanonicalTitle = title
		rec.CanonicalYear = rec.ElectYear()
	}
	return raw
}
