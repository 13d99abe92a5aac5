package linker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/media-linker/internal/blueprint"
	"github.com/franz/media-linker/internal/classify"
	"github.com/franz/media-linker/internal/report"
	"github.com/franz/media-linker/internal/util"
)

// Synchronizer materializes a consolidated blueprint into the target
// tree as link files. The target is treated as append-only: existing
// files are never overwritten, only probed or extended.
type Synchronizer struct {
	targetDir   string
	linkType    string
	pathMode    string
	existing    map[string]bool
	retryConfig *util.RetryConfig
	logger      *report.EventLogger
}

// SyncConfig holds synchronizer configuration
type SyncConfig struct {
	TargetDir   string
	LinkType    string // "soft" or "hard"
	PathMode    string // "absolute" or "relative"
	Existing    map[string]bool
	RetryConfig *util.RetryConfig // nil = default
	Logger      *report.EventLogger
}

// NewSynchronizer creates a new Synchronizer
func NewSynchronizer(cfg *SyncConfig) *Synchronizer {
	if cfg.LinkType == "" {
		cfg.LinkType = LinkSoft
	}
	if cfg.PathMode == "" {
		cfg.PathMode = PathAbsolute
	}
	if cfg.Existing == nil {
		cfg.Existing = make(map[string]bool)
	}
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = util.DefaultRetryConfig()
	}

	return &Synchronizer{
		targetDir:   cfg.TargetDir,
		linkType:    cfg.LinkType,
		pathMode:    cfg.PathMode,
		existing:    cfg.Existing,
		retryConfig: cfg.RetryConfig,
		logger:      cfg.Logger,
	}
}

// Result represents synchronization results
type Result struct {
	LinksCreated  int
	LinksExisting int
	ItemsSkipped  int
	Errors        []error
}

// Sync creates the target layout and link files for every item in the
// blueprint that is not already present. Per-link errors are logged
// and collected; they never abort the rest of the synchronization.
func (l *Synchronizer) Sync(ctx context.Context, bp *blueprint.Blueprint) (*Result, error) {
	util.InfoLog("Starting link synchronization")
	util.InfoLog("Target: %s", l.targetDir)
	util.InfoLog("Link type: %s, path mode: %s", l.linkType, l.pathMode)

	result := &Result{
		Errors: make([]error, 0),
	}

	for _, title := range bp.Titles() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec := bp.Get(title)
		if rec.CanonicalTitle == "" {
			util.DebugLog("Skipping record without canonical title: %q", title)
			result.ItemsSkipped += len(rec.Items)
			continue
		}

		clean := SanitizeName(rec.CanonicalTitle)
		if clean == "" {
			util.WarnLog("Title %q sanitizes to nothing, skipping", rec.CanonicalTitle)
			result.ItemsSkipped += len(rec.Items)
			continue
		}

		dirName := clean
		if rec.Type == classify.TypeMovie && rec.CanonicalYear != 0 {
			dirName = fmt.Sprintf("%s (%d)", clean, rec.CanonicalYear)
		}

		for _, item := range rec.Items {
			l.syncItem(rec, item, clean, dirName, result)
		}
	}

	util.SuccessLog("Synchronization complete: %d links created, %d already present, %d items skipped, %d errors",
		result.LinksCreated, result.LinksExisting, result.ItemsSkipped, len(result.Errors))

	return result, nil
}

// syncItem links one item's primary file and sidecars
func (l *Synchronizer) syncItem(rec *blueprint.Record, item *blueprint.Item, clean, dirName string, result *Result) {
	var destDir, base string

	switch rec.Type {
	case classify.TypeMovie:
		// Movies share the series directory name; several items
		// under one canonical title deliberately collide
		destDir = filepath.Join(l.targetDir, dirName)
		base = dirName
	default:
		if item.Season == nil || item.Episode == nil {
			util.DebugLog("Skipping %s: show item without season/episode", item.Primary.SourcePath)
			l.logger.LogSkip(item.Primary.SourcePath, "missing season or episode")
			result.ItemsSkipped++
			return
		}
		season, episode := *item.Season, *item.Episode

		identity := EpisodeIdentity(clean, season, episode)
		if l.existing[identity] {
			util.DebugLog("Already linked: %s", identity)
			l.logger.LogSkip(item.Primary.SourcePath, "already linked")
			result.LinksExisting++
			return
		}

		destDir = filepath.Join(l.targetDir, dirName, fmt.Sprintf("Season %02d", season))
		base = fmt.Sprintf("%s S%02dE%02d", clean, season, episode)
	}

	if err := util.RetryableMkdirAll(destDir, 0755, l.retryConfig); err != nil {
		util.ErrorLog("Failed to create %s: %v", destDir, err)
		result.Errors = append(result.Errors, err)
		return
	}

	l.linkFile(item.Primary.SourcePath, filepath.Join(destDir, base+filepath.Ext(item.Primary.Name)), result)

	for _, sidecar := range item.Sidecars {
		ext := filepath.Ext(sidecar.Name)
		name := base + ext
		if !sameNameExts[strings.ToLower(ext)] && sidecar.Role != "" {
			name = base + "-" + sidecar.Role + ext
		}
		l.linkFile(sidecar.SourcePath, filepath.Join(destDir, name), result)
	}
}

// linkFile creates one link, counting an already-existing destination
// as success.
func (l *Synchronizer) linkFile(srcPath, destPath string, result *Result) {
	existed, err := l.createLink(srcPath, destPath)
	l.logger.LogLink(srcPath, destPath, l.linkType, existed, err)

	switch {
	case err != nil:
		util.ErrorLog("Failed to link %s -> %s: %v", srcPath, destPath, err)
		result.Errors = append(result.Errors, err)
	case existed:
		result.LinksExisting++
	default:
		util.DebugLog("Linked: %s -> %s", srcPath, destPath)
		result.LinksCreated++
	}
}

// createLink creates the link file at destPath pointing at srcPath.
// Soft links point at the absolute source path, or at a path relative
// to the destination's directory in relative mode; hard links always
// use the absolute source path.
func (l *Synchronizer) createLink(srcPath, destPath string) (existed bool, err error) {
	absSrc, err := filepath.Abs(srcPath)
	if err != nil {
		return false, fmt.Errorf("failed to resolve source path: %w", err)
	}

	linkTarget := absSrc
	if l.linkType == LinkSoft && l.pathMode == PathRelative {
		rel, err := filepath.Rel(filepath.Dir(destPath), absSrc)
		if err != nil {
			return false, fmt.Errorf("failed to relativize source path: %w", err)
		}
		linkTarget = rel
	}

	err = util.Retry(l.retryConfig, "link", func() error {
		if l.linkType == LinkHard {
			return os.Link(absSrc, destPath)
		}
		return os.Symlink(linkTarget, destPath)
	})

	if errors.Is(err, os.ErrExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s link: %w", l.linkType, err)
	}
	return false, nil
}
