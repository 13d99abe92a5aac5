package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/franz/media-linker/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "mls",
		Short: "Media Library Symlinker - build a normalized link tree for your media server",
		Long: `mls (Media Library Symlinker) scans one or more messy media source trees,
classifies every file set through a language-model classifier, and materializes
a clean, deduplicated Plex/Jellyfin-style directory of symbolic or hard links.
Re-running mls is an incremental, idempotent sync, not a rebuild.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./mls.yaml)")
	rootCmd.PersistentFlags().String("db", "mls-cache.db", "classification cache database file")
	rootCmd.PersistentFlags().String("artifacts", "artifacts", "directory for event logs")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("artifacts", rootCmd.PersistentFlags().Lookup("artifacts"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/mls")
		viper.SetConfigName("mls")
		viper.SetConfigType("yaml")
	}

	// Environment variables: MLS_LLM_API_KEY maps to llm.api-key
	viper.SetEnvPrefix("MLS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
