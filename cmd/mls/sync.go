package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/franz/media-linker/internal/blueprint"
	"github.com/franz/media-linker/internal/classify"
	"github.com/franz/media-linker/internal/linker"
	"github.com/franz/media-linker/internal/report"
	"github.com/franz/media-linker/internal/scan"
	"github.com/franz/media-linker/internal/store"
	"github.com/franz/media-linker/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// blueprintFilename is where --debug serializes the consolidated
// blueprint, inside the target directory.
const blueprintFilename = "blueprint.json"

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scan sources and synchronize the target link tree",
	Long: `Scan every source tree, classify the discovered media file sets,
consolidate title variants, and create any missing links in the target tree.

The sync is idempotent: links that already exist are detected (via the
target-state probe for symbolic links, via already-exists tolerance for hard
links) and never recreated or overwritten.

With --debug, the consolidated blueprint is written as JSON into the target
directory instead of creating any links.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringSliceP("source", "s", nil, "source directory (repeatable)")
	syncCmd.Flags().StringP("target", "t", "", "target directory for the link tree")
	syncCmd.Flags().String("link-type", linker.LinkSoft, "link type: soft or hard")
	syncCmd.Flags().String("path-mode", linker.PathAbsolute, "symlink target paths: absolute or relative")
	syncCmd.Flags().IntP("concurrency", "c", scan.DefaultConcurrency, "concurrent classification requests")
	syncCmd.Flags().Bool("debug", false, "write the blueprint as JSON instead of creating links")
	syncCmd.Flags().Bool("no-cache", false, "bypass the classification cache")

	viper.BindPFlag("source", syncCmd.Flags().Lookup("source"))
	viper.BindPFlag("target", syncCmd.Flags().Lookup("target"))
	viper.BindPFlag("link-type", syncCmd.Flags().Lookup("link-type"))
	viper.BindPFlag("path-mode", syncCmd.Flags().Lookup("path-mode"))
	viper.BindPFlag("concurrency", syncCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("debug", syncCmd.Flags().Lookup("debug"))
	viper.BindPFlag("no-cache", syncCmd.Flags().Lookup("no-cache"))
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
	util.SetColors(util.IsTerminal(os.Stderr.Fd()))

	// Fatal setup failures are the only conditions that abort a run;
	// everything past this point degrades per item instead.
	sources := viper.GetStringSlice("source")
	if len(sources) == 0 {
		return fmt.Errorf("at least one source directory is required (use --source/-s or set in config)")
	}
	target := viper.GetString("target")
	if target == "" {
		return fmt.Errorf("target directory is required (use --target/-t or set in config)")
	}

	linkType := viper.GetString("link-type")
	if linkType != linker.LinkSoft && linkType != linker.LinkHard {
		return fmt.Errorf("invalid link type %q (want soft or hard): %w", linkType, util.ErrInvalidConfig)
	}
	pathMode := viper.GetString("path-mode")
	if pathMode != linker.PathAbsolute && pathMode != linker.PathRelative {
		return fmt.Errorf("invalid path mode %q (want absolute or relative): %w", pathMode, util.ErrInvalidConfig)
	}

	for _, source := range sources {
		if _, err := os.Stat(source); err != nil {
			return fmt.Errorf("source directory not accessible: %s: %w", source, err)
		}
	}

	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("cannot create target directory: %w", err)
	}
	if err := util.IsWritableDir(target); err != nil {
		return fmt.Errorf("target directory not writable: %s: %w", target, err)
	}

	llmCfg := classify.LLMConfig{
		APIKey:         viper.GetString("llm.api-key"),
		BaseURL:        viper.GetString("llm.base-url"),
		Model:          viper.GetString("llm.model"),
		TimeoutSeconds: viper.GetInt("llm.timeout-seconds"),
	}
	if llmCfg.APIKey == "" {
		return fmt.Errorf("classifier API key is required (set llm.api-key or MLS_LLM_API_KEY)")
	}

	// Event logger: audit trail of every pipeline decision
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}
	logger, err := report.NewEventLogger(viper.GetString("artifacts"), logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()
	if logger.Path() != "" {
		util.InfoLog("Event log: %s (run %s)", logger.Path(), logger.RunID())
	}

	// Classifier, optionally behind the SQLite cache
	var classifier classify.Classifier = classify.NewLLMClassifier(llmCfg)
	if !viper.GetBool("no-cache") {
		db, err := store.Open(viper.GetString("db"))
		if err != nil {
			return fmt.Errorf("failed to open classification cache: %w", err)
		}
		defer db.Close()
		classifier = classify.NewCachedClassifier(classifier, db)
	}

	// Phase 1: scan every source root into one blueprint
	util.InfoLog("=== Phase 1: Scan ===")
	bp := blueprint.New()
	scanner := scan.New(&scan.Config{
		Classifier:  classifier,
		Concurrency: viper.GetInt("concurrency"),
		Logger:      logger,
	})
	for _, source := range sources {
		if _, err := scanner.Scan(ctx, source, bp); err != nil {
			return fmt.Errorf("scan of %s failed: %w", source, err)
		}
	}
	util.InfoLog("Blueprint: %d titles, %d items", bp.Len(), bp.ItemCount())

	// Phase 2: consolidate title variants
	util.InfoLog("=== Phase 2: Consolidate ===")
	consolidator := blueprint.NewConsolidator(&blueprint.ConsolidateConfig{
		Classifier: classifier,
		Logger:     logger,
	})
	consolidated := consolidator.Consolidate(ctx, bp)

	if viper.GetBool("debug") {
		return writeBlueprint(consolidated, target)
	}

	// Phase 3: probe existing target state
	util.InfoLog("=== Phase 3: Probe ===")
	probe := linker.NewProbe(&linker.ProbeConfig{
		LinkType: linkType,
		Logger:   logger,
	})
	existing := probe.Existing(target)

	// Phase 4: create missing links
	util.InfoLog("=== Phase 4: Link ===")
	sync := linker.NewSynchronizer(&linker.SyncConfig{
		TargetDir: target,
		LinkType:  linkType,
		PathMode:  pathMode,
		Existing:  existing,
		Logger:    logger,
	})
	result, err := sync.Sync(ctx, consolidated)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	util.SuccessLog("Sync finished: %d links created, %d already present, %d errors",
		result.LinksCreated, result.LinksExisting, len(result.Errors))
	return nil
}

// writeBlueprint serializes the consolidated blueprint into the target
// directory, replacing any prior file. No links are created.
func writeBlueprint(bp *blueprint.Blueprint, target string) error {
	path := filepath.Join(target, blueprintFilename)

	encoded, err := json.MarshalIndent(bp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode blueprint: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write blueprint: %w", err)
	}

	util.SuccessLog("Blueprint written to %s", path)
	return nil
}
