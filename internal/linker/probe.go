package linker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/media-linker/internal/report"
	"github.com/franz/media-linker/internal/util"
)

// Probe discovers which (series, season, episode) identities already
// exist as live links in the target tree, so re-runs only add what is
// missing.
type Probe struct {
	linkType string
	logger   *report.EventLogger
}

// ProbeConfig holds probe configuration
type ProbeConfig struct {
	LinkType string
	Logger   *report.EventLogger
}

// NewProbe creates a new Probe
func NewProbe(cfg *ProbeConfig) *Probe {
	return &Probe{
		linkType: cfg.LinkType,
		logger:   cfg.Logger,
	}
}

// Existing returns the set of episode identities already linked under
// targetDir.
//
// Hard links are indistinguishable from ordinary files by inspection,
// so hard-link runs return an empty set immediately and rely on the
// synchronizer's already-exists tolerance instead. For symbolic links
// the probe walks two levels (series dir, then case-insensitive
// "season" dirs), Lstat-verifies each entry really is a symlink and
// parses its SxxEyy marker. Any I/O error other than a missing target
// degrades to an empty or partial set with a warning, never an abort.
func (p *Probe) Existing(targetDir string) map[string]bool {
	existing := make(map[string]bool)

	if p.linkType == LinkHard {
		util.DebugLog("Hard link mode: skipping target probe")
		return existing
	}

	seriesEntries, err := os.ReadDir(targetDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			util.WarnLog("Cannot probe target %s, assuming empty: %v", targetDir, err)
			p.logger.LogError(targetDir, err)
		}
		return existing
	}

	for _, series := range seriesEntries {
		if !series.IsDir() {
			continue
		}
		seriesName := series.Name()
		seriesPath := filepath.Join(targetDir, seriesName)

		seasonEntries, err := os.ReadDir(seriesPath)
		if err != nil {
			util.WarnLog("Cannot read series directory %s: %v", seriesPath, err)
			continue
		}

		for _, season := range seasonEntries {
			if !season.IsDir() || !strings.HasPrefix(strings.ToLower(season.Name()), "season") {
				continue
			}
			seasonPath := filepath.Join(seriesPath, season.Name())

			episodes, err := os.ReadDir(seasonPath)
			if err != nil {
				util.WarnLog("Cannot read season directory %s: %v", seasonPath, err)
				continue
			}

			for _, episode := range episodes {
				entryPath := filepath.Join(seasonPath, episode.Name())

				isLink, err := util.IsSymlink(entryPath)
				if err != nil || !isLink {
					continue
				}
				seasonNum, episodeNum, ok := ParseEpisodeMarker(episode.Name())
				if !ok {
					continue
				}

				identity := EpisodeIdentity(seriesName, seasonNum, episodeNum)
				existing[identity] = true
				p.logger.LogProbe(identity, entryPath)
			}
		}
	}

	util.InfoLog("Probe found %d existing episode links", len(existing))
	return existing
}
