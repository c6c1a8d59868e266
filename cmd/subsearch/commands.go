package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"subsearch/internal/app"
	"subsearch/internal/config"
	"subsearch/internal/logger"
)

// loadConfig reads the optional .env file, parses the environment and sets up
// logging. Flags win over environment values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		// Загружаем .env (опционально)
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON, _ = cmd.Flags().GetBool("log-json")
	}
	logger.Setup(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	return cfg, nil
}

type initMode int

const (
	skipInit initMode = iota
	// requireInit aborts the command when the backend check fails.
	requireInit
	// tryInit only logs a failed check; queries then report the embedder
	// as unavailable in their warnings.
	tryInit
)

// openApp builds the app and, depending on mode, checks the embedding backend.
func openApp(cmd *cobra.Command, mode initMode) (*app.App, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create app: %w", err)
	}
	switch mode {
	case requireInit:
		if err := a.Init(cmd.Context()); err != nil {
			return nil, nil, err
		}
	case tryInit:
		if err := a.Init(cmd.Context()); err != nil {
			logger.Get().Warn("embedding backend not ready", "err", err)
		}
	}
	return a, cfg, nil
}

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the index from CORPUS_DIR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cfg, err := openApp(cmd, requireInit)
			if err != nil {
				return err
			}
			report, err := a.Index(cmd.Context())
			if report != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "📊 Summary:")
				fmt.Fprintf(out, "   Files seen:    %d\n", report.FilesSeen)
				fmt.Fprintf(out, "   ✅ Indexed:     %d\n", report.FilesIndexed)
				fmt.Fprintf(out, "   ❌ Skipped:     %d\n", report.FilesSkipped)
				fmt.Fprintf(out, "   Chunks:        %d\n", report.Chunks)
				fmt.Fprintf(out, "   Persisted:     %d\n", report.Persisted)
				fmt.Fprintf(out, "   Collection:    %s\n", cfg.Collection)
				if report.BackupFile != "" {
					fmt.Fprintf(out, "💾 Backup saved to: %s\n", report.BackupFile)
				}
			}
			return err
		},
	}
}

func queryCmd() *cobra.Command {
	var (
		topK     int
		audio    string
		language string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Find subtitle chunks matching a quote or an audio clip",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" && audio == "" {
				return errors.New("either query text or --audio is required")
			}
			a, _, err := openApp(cmd, tryInit)
			if err != nil {
				return err
			}

			var report *app.QueryReport
			if audio != "" {
				report, err = a.QueryAudio(cmd.Context(), audio, language, topK)
			} else {
				report, err = a.Query(cmd.Context(), text, topK)
			}
			if err != nil {
				return err
			}
			report.Print(cmd.OutOrStdout())

			if output != "" {
				if err := report.Save(output); err != nil {
					return fmt.Errorf("failed to save report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "💾 Results saved to: %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of results (default TOP_K)")
	cmd.Flags().StringVar(&audio, "audio", "", "Audio file to transcribe and use as the query")
	cmd.Flags().StringVar(&language, "language", "", "Language hint for transcription (default WHISPER_LANGUAGE)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Save a report (.md, or .html)")

	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Interactive search: read queries from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := openApp(cmd, tryInit)
			if err != nil {
				return err
			}
			if err := a.Run(cmd.Context()); err != nil {
				return fmt.Errorf("app stopped with error: %w", err)
			}
			return nil
		},
	}
}

func countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of indexed chunks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cfg, err := openApp(cmd, skipInit)
			if err != nil {
				return err
			}
			n, err := a.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks\n", cfg.Collection, n)
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every chunk from the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cfg, err := openApp(cmd, skipInit)
			if err != nil {
				return err
			}
			if err := a.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Cleared %s\n", cfg.Collection)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Token statistics of the subtitle corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := openApp(cmd, skipInit)
			if err != nil {
				return err
			}
			summary, skipped, err := a.Stats(cmd.Context(), top)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📌 Top %d largest subtitle files by token count:\n", len(summary.Largest))
			for i, f := range summary.Largest {
				fmt.Fprintf(out, "%d. %s - %d tokens\n", i+1, f.ID, f.Tokens)
			}
			fmt.Fprintf(out, "\n✅ Total files analyzed: %d\n", summary.Files)
			fmt.Fprintf(out, "📊 Average tokens per file: %d\n", summary.Average)
			for _, e := range skipped {
				fmt.Fprintf(out, "⚠️  %v\n", e)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Number of largest files to list")

	return cmd
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup.json>",
		Short: "Replace the collection with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, err := openApp(cmd, skipInit)
			if err != nil {
				return err
			}
			n, err := a.Restore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Restored %d chunks into %s\n", n, cfg.Collection)
			return nil
		},
	}
}
