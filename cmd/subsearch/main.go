package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"subsearch/internal/domain"
)

var version = "dev"

func main() {
	// Контекст с сигналами завершения
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for bad settings and 1 for everything else.
func exitCode(err error) int {
	if domain.IsConfiguration(err) {
		return 2
	}
	return 1
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "subsearch",
		Short: "Semantic search over movie subtitles",
		Long: `subsearch indexes a directory of subtitle files (.srt, .vtt, .ass, .nfo)
into a local vector index and finds the scenes closest to a quote or an
audio clip.

Settings come from the environment (or an .env file), e.g.:
  CORPUS_DIR   subtitle directory (default: ./subtitles)
  DATA_DIR     index location (default: ./data)
  EMBEDDER     ollama | openai | hash (default: ollama)
  RANK_ORDER   desc | asc (default: desc)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON (overrides LOG_JSON)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional .env file to load")

	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(countCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(restoreCmd())

	return rootCmd
}
