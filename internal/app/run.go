package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"subsearch/internal/transcribe"
)

// Run reads queries from stdin, one per line, until EOF or ctx is cancelled.
// A line naming an existing audio file is transcribed first. Query failures
// are printed and the loop goes on.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("Application started")
	fmt.Fprintln(a.out, "Enter a quote or a path to an audio file (one per line). Ctrl+C to exit.")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.in)

		// Увеличим буфер, если строки будут длинные
		const maxLineSize = 1024 * 1024
		buf := make([]byte, 64*1024)
		scanner.Buffer(buf, maxLineSize)

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("Shutting down application")
			return nil
		case line, ok := <-lines:
			if !ok {
				// scanErr is filled before lines is closed unless ctx stopped the reader
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("stdin error: %w", err)
					}
				default:
				}
				a.log.Info("stdin closed")
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			a.handleLine(ctx, line)
		}
	}
}

func (a *App) handleLine(ctx context.Context, line string) {
	var (
		report *QueryReport
		err    error
	)
	if info, statErr := os.Stat(line); statErr == nil && !info.IsDir() && transcribe.IsAudioFile(line) {
		report, err = a.QueryAudio(ctx, line, "", 0)
	} else {
		report, err = a.Query(ctx, line, 0)
	}
	if err != nil {
		a.log.Warn("query failed", "input", line, "err", err)
		report = &QueryReport{Query: line, Warnings: []string{err.Error()}}
	}
	report.Print(a.out)
	fmt.Fprintln(a.out)
}
