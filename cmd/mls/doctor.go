package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/franz/media-linker/internal/linker"
	"github.com/franz/media-linker/internal/store"
	"github.com/franz/media-linker/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure mls can operate correctly.

This command checks:
- Classifier credentials (llm.api-key / MLS_LLM_API_KEY)
- Source directory readability
- Target directory writability
- Link capability (actually creates and removes a probe link)
- Hard-link feasibility (source and target on one filesystem)
- Classification cache database accessibility

Use this command to troubleshoot issues before running a sync.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringSliceP("source", "s", nil, "source directories to check")
	doctorCmd.Flags().StringP("target", "t", "", "target directory to check")
	doctorCmd.Flags().String("link-type", linker.LinkSoft, "link type to probe: soft or hard")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetColors(util.IsTerminal(os.Stderr.Fd()))

	util.InfoLog("=== MLS Doctor - System Diagnostics ===")

	results := []checkResult{}

	// 1. Classifier credentials
	results = append(results, checkAPIKey())

	// 2. Cache database
	results = append(results, checkCacheDB(viper.GetString("db")))

	sources, _ := cmd.Flags().GetStringSlice("source")
	if len(sources) == 0 {
		sources = viper.GetStringSlice("source")
	}
	target, _ := cmd.Flags().GetString("target")
	if target == "" {
		target = viper.GetString("target")
	}
	linkType, _ := cmd.Flags().GetString("link-type")

	// 3. Source directories
	for _, source := range sources {
		results = append(results, checkSourceDirectory(source))
	}

	// 4. Target directory and link capability
	if target != "" {
		results = append(results, checkTargetDirectory(target))
		results = append(results, checkLinkCapability(target, linkType))
		if linkType == linker.LinkHard && len(sources) > 0 {
			results = append(results, checkSameFilesystem(sources[0], target))
		}
	}

	failed := 0
	for _, r := range results {
		switch {
		case r.error:
			util.ErrorLog("%-24s %s", r.name+":", r.message)
			failed++
		case r.warning:
			util.WarnLog("%-24s %s", r.name+":", r.message)
		default:
			util.SuccessLog("%-24s %s", r.name+":", r.message)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	util.SuccessLog("All checks passed")
	return nil
}

func checkAPIKey() checkResult {
	if viper.GetString("llm.api-key") == "" {
		return checkResult{
			name:    "classifier key",
			message: "missing: set llm.api-key in config or MLS_LLM_API_KEY",
			error:   true,
		}
	}
	return checkResult{name: "classifier key", message: "configured"}
}

func checkCacheDB(path string) checkResult {
	db, err := store.Open(path)
	if err != nil {
		return checkResult{
			name:    "cache database",
			message: fmt.Sprintf("cannot open %s: %v", path, err),
			warning: true, // sync can run with --no-cache
		}
	}
	defer db.Close()

	count, err := db.CountClassifications()
	if err != nil {
		return checkResult{
			name:    "cache database",
			message: fmt.Sprintf("opened but unreadable: %v", err),
			warning: true,
		}
	}
	return checkResult{
		name:    "cache database",
		message: fmt.Sprintf("%s (%d cached classifications)", path, count),
	}
}

func checkSourceDirectory(source string) checkResult {
	name := "source " + source
	entries, err := os.ReadDir(source)
	if err != nil {
		return checkResult{name: name, message: fmt.Sprintf("not readable: %v", err), error: true}
	}
	return checkResult{name: name, message: fmt.Sprintf("readable (%d entries)", len(entries))}
}

func checkTargetDirectory(target string) checkResult {
	if err := os.MkdirAll(target, 0755); err != nil {
		return checkResult{name: "target", message: fmt.Sprintf("cannot create: %v", err), error: true}
	}
	if err := util.IsWritableDir(target); err != nil {
		return checkResult{name: "target", message: fmt.Sprintf("not writable: %v", err), error: true}
	}
	return checkResult{name: "target", message: target + " writable"}
}

// checkLinkCapability creates and removes a probe link of the chosen
// type inside the target, proving the filesystem supports it.
func checkLinkCapability(target, linkType string) checkResult {
	name := linkType + " links"

	probeSrc := filepath.Join(target, ".mls-doctor-src")
	probeLink := filepath.Join(target, ".mls-doctor-link")
	defer os.Remove(probeLink)
	defer os.Remove(probeSrc)

	if err := os.WriteFile(probeSrc, []byte("mls doctor probe"), 0644); err != nil {
		return checkResult{name: name, message: fmt.Sprintf("cannot create probe file: %v", err), error: true}
	}

	var err error
	if linkType == linker.LinkHard {
		err = os.Link(probeSrc, probeLink)
	} else {
		err = os.Symlink(probeSrc, probeLink)
	}
	if err != nil {
		return checkResult{name: name, message: fmt.Sprintf("not supported on target: %v", err), error: true}
	}
	return checkResult{name: name, message: "supported"}
}

func checkSameFilesystem(source, target string) checkResult {
	same, err := util.IsSameFilesystem(source, target)
	if err != nil {
		return checkResult{name: "hard link filesystem", message: fmt.Sprintf("cannot compare: %v", err), warning: true}
	}
	if !same {
		return checkResult{
			name:    "hard link filesystem",
			message: "source and target are on different filesystems; hard links will fail",
			error:   true,
		}
	}
	return checkResult{name: "hard link filesystem", message: "source and target share a filesystem"}
}
