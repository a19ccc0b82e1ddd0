// Package main is the entry point for the calkg CLI. It exposes each
// pipeline stage as a subcommand so a graph build can be run, inspected,
// and resumed step by step from saved artifacts.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/calkg/calkg/internal/llm"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the calkg CLI.
var rootCmd = &cobra.Command{
	Use:   "calkg",
	Short: "Build layered knowledge graphs from technical documents",
	Long: `calkg turns a structured technical document into a multi-layer
knowledge graph: sections are matched against the table of contents,
each section is distilled into concept/technology/application nodes,
cross-section connections are analyzed, and everything is fused into
one unified graph.

Each stage is a subcommand (split, mainlogic, extract, connect, fuse)
that reads and writes JSON artifacts under a shared directory, so a
long build can be resumed from any stage. Use run to execute the whole
pipeline in one shot.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./calkg.yaml or ~/.config/calkg/config.yaml)")
	rootCmd.PersistentFlags().String("artifacts", "artifacts", "directory for stage artifacts")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("calkg")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "calkg"))
		}
	}

	viper.SetEnvPrefix("CALKG")
	viper.AutomaticEnv()
	viper.SetDefault("model", "claude-sonnet-4-5-20250929")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the CLI logger. Output goes to stderr so stage
// results on stdout stay machine-readable.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient builds the Claude client from config. The API key comes
// from CALKG_ANTHROPIC_API_KEY or the anthropic_api_key config entry.
func newClient() (*llm.Claude, error) {
	apiKey := viper.GetString("anthropic_api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key required: set ANTHROPIC_API_KEY or anthropic_api_key in the config file")
	}
	return llm.NewClaude(apiKey, viper.GetString("model"), llm.NewStats(time.Hour)), nil
}

func artifactsDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("artifacts")
	return dir
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
