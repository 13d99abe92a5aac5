package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/media-linker/internal/blueprint"
	"github.com/franz/media-linker/internal/classify"
	"github.com/franz/media-linker/internal/report"
	"github.com/franz/media-linker/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
)

// DefaultConcurrency bounds how many classification requests are in
// flight at once
const DefaultConcurrency = 10

// Scanner walks a source tree depth-first, groups each directory's
// files into primary/sidecar sets and drives their classification at
// bounded concurrency, folding successes into a blueprint.
type Scanner struct {
	classifier  classify.Classifier
	concurrency int
	logger      *report.EventLogger
}

// Config holds scanner configuration
type Config struct {
	Classifier  classify.Classifier
	Concurrency int
	Logger      *report.EventLogger
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	return &Scanner{
		classifier:  cfg.Classifier,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Result represents a scan result
type Result struct {
	GroupsFound     int
	ItemsClassified int
	ItemsDropped    int
	DirsSkipped     int
	Errors          []error
}

// groupResult is the settled outcome of one group's classification
type groupResult struct {
	item *blueprint.Item
	err  error
}

// Scan walks sourcePath depth-first and folds every successfully
// classified primary group into bp. Classification failures drop
// their item; unreadable directories are skipped with a warning.
// Neither aborts the walk.
func (s *Scanner) Scan(ctx context.Context, sourcePath string, bp *blueprint.Blueprint) (*Result, error) {
	util.InfoLog("Starting scan of: %s", sourcePath)
	util.InfoLog("Concurrency: %d", s.concurrency)

	result := &Result{
		Errors: make([]error, 0),
	}

	// Visual progress only on a TTY; counts classified groups
	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() {
		// Leave room for the description and counters
		barWidth := util.TerminalWidth(80) - 40
		if barWidth > 40 {
			barWidth = 40
		}
		if barWidth < 10 {
			barWidth = 10
		}
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Classifying"),
			progressbar.OptionSetWidth(barWidth),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("groups"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	if err := s.scanDir(ctx, sourcePath, bp, result, bar); err != nil {
		return result, err
	}

	if bar != nil {
		bar.Finish()
	}

	util.SuccessLog("Scan complete: %d groups found, %d classified, %d dropped, %d dirs skipped",
		result.GroupsFound, result.ItemsClassified, result.ItemsDropped, result.DirsSkipped)

	return result, nil
}

// scanDir processes one directory's files, then recurses depth-first
// into its subdirectories.
func (s *Scanner) scanDir(ctx context.Context, dir string, bp *blueprint.Blueprint, result *Result, bar *progressbar.ProgressBar) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Permission problems and races are per-subtree, never fatal
		util.WarnLog("Skipping unreadable directory %s: %v", dir, err)
		s.logger.LogError(dir, err)
		result.DirsSkipped++
		return nil
	}

	var files []blueprint.MediaFile
	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry.Name())
			continue
		}
		files = append(files, blueprint.MediaFile{
			SourcePath: filepath.Join(dir, entry.Name()),
			Name:       entry.Name(),
		})
	}

	groups := SplitGroups(GroupByBase(files))
	result.GroupsFound += len(groups)
	for _, g := range groups {
		s.logger.LogGroup(g.Primary.SourcePath, len(g.Sidecars))
	}

	parentDir := filepath.Base(dir)

	// Fixed-size chunks processed strictly sequentially; within a
	// chunk every classification settles independently, and results
	// are folded only after the whole chunk has drained. That keeps
	// the blueprint single-writer without any locking.
	for start := 0; start < len(groups); start += s.concurrency {
		end := start + s.concurrency
		if end > len(groups) {
			end = len(groups)
		}
		chunk := groups[start:end]

		p := pool.NewWithResults[groupResult]()
		for _, group := range chunk {
			group := group
			p.Go(func() groupResult {
				return s.classifyGroup(ctx, group, parentDir)
			})
		}

		for _, settled := range p.Wait() {
			if bar != nil {
				bar.Add(1)
			}
			if settled.err != nil {
				util.DebugLog("Dropping group: %v", settled.err)
				s.logger.LogSkip("", settled.err.Error())
				result.ItemsDropped++
				result.Errors = append(result.Errors, settled.err)
				continue
			}
			bp.Fold(settled.item)
			result.ItemsClassified++
		}
	}

	for _, name := range subdirs {
		if err := s.scanDir(ctx, filepath.Join(dir, name), bp, result, bar); err != nil {
			return err
		}
	}
	return nil
}

// classifyGroup classifies one primary group. Any failure (missing
// extension, classifier error, unknown type) yields an error result
// and the group contributes nothing to the blueprint.
func (s *Scanner) classifyGroup(ctx context.Context, group blueprint.PrimaryGroup, parentDir string) groupResult {
	primary := group.Primary

	if filepath.Ext(primary.Name) == "" {
		return groupResult{err: fmt.Errorf("%s: %w", primary.SourcePath, util.ErrNoExtension)}
	}

	info, err := s.classifier.ClassifyPrimary(ctx, primary.Name, parentDir)
	if err != nil {
		s.logger.LogClassify(primary.SourcePath, "", "", err)
		return groupResult{err: fmt.Errorf("%s: %w", primary.SourcePath, err)}
	}
	if info == nil || info.Type == classify.TypeUnknown || info.DisplayName() == "" {
		s.logger.LogClassify(primary.SourcePath, "", string(classify.TypeUnknown), nil)
		return groupResult{err: fmt.Errorf("%s: %w", primary.SourcePath, util.ErrUnclassifiable)}
	}

	s.logger.LogClassify(primary.SourcePath, info.Title, string(info.Type), nil)

	// Role-tag the sidecars against the standardized base name. Each
	// sidecar settles on its own; a failed role lookup just leaves
	// that sidecar roleless.
	sidecars := append([]blueprint.MediaFile(nil), group.Sidecars...)
	baseName := info.DisplayName()

	var wg conc.WaitGroup
	for i := range sidecars {
		i := i
		wg.Go(func() {
			role, err := s.classifier.ClassifySidecarRole(ctx, baseName, sidecars[i].Name)
			if err != nil {
				util.DebugLog("No role for sidecar %s: %v", sidecars[i].Name, err)
				return
			}
			sidecars[i].Role = role
		})
	}
	wg.Wait()

	return groupResult{item: &blueprint.Item{
		Season:   info.Season,
		Episode:  info.Episode,
		Primary:  primary,
		Sidecars: sidecars,
		Info:     *info,
	}}
}
