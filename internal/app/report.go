package app

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	rankStyle     = lipgloss.NewStyle().Bold(true)
	distanceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// Print writes the report to w for the console.
func (r *QueryReport) Print(w io.Writer) {
	if r.AudioFile != "" {
		fmt.Fprintf(w, "🎧 %s\n", r.AudioFile)
	}
	fmt.Fprintln(w, titleStyle.Render("Query: "+r.Query))
	for _, warn := range r.Warnings {
		fmt.Fprintln(w, warnStyle.Render("⚠️  "+warn))
	}
	if len(r.Results) == 0 {
		fmt.Fprintln(w, emptyStyle.Render("❌ No relevant subtitles found."))
		return
	}
	for _, res := range r.Results {
		fmt.Fprintf(w, "%s %s %s\n",
			rankStyle.Render(fmt.Sprintf("%d.", res.Rank)),
			res.Display,
			distanceStyle.Render(fmt.Sprintf("(distance: %.4f)", res.Distance)),
		)
	}
}

// Markdown renders the report as a Markdown document.
func (r *QueryReport) Markdown() string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("# Subtitle search: %s\n\n", r.Query))
	buf.WriteString(fmt.Sprintf("**Date:** %s\n\n", r.At.Format("2006-01-02 15:04:05")))
	if r.AudioFile != "" {
		buf.WriteString(fmt.Sprintf("**Audio:** %s (%s)\n\n", filepath.Base(r.AudioFile), r.Language))
	}
	buf.WriteString(fmt.Sprintf("**Collection:** %s\n\n", r.Collection))
	buf.WriteString(fmt.Sprintf("**Ranking:** %s\n\n", r.RankOrder))
	buf.WriteString(fmt.Sprintf("**Results:** %d\n\n", len(r.Results)))

	if len(r.Warnings) > 0 {
		buf.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			buf.WriteString(fmt.Sprintf("- %s\n", w))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Results\n\n")
	if len(r.Results) == 0 {
		buf.WriteString("No relevant subtitles found.\n")
		return buf.String()
	}
	for _, res := range r.Results {
		buf.WriteString(fmt.Sprintf("### %d. %s\n\n", res.Rank, res.Display))
		buf.WriteString(fmt.Sprintf("**Distance:** %.4f\n\n", res.Distance))
		buf.WriteString(fmt.Sprintf("**ID:** `%s`\n\n", res.ID))
		if res.Text != res.Display {
			buf.WriteString("> " + res.Text + "\n\n")
		}
		buf.WriteString("---\n\n")
	}
	return buf.String()
}

// HTML renders the Markdown report through goldmark into a standalone page.
func (r *QueryReport) HTML() (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(r.Markdown()), &body); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	page.WriteString("<title>Subtitle search</title>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}

// Save writes the report to path, as HTML for .html/.htm and Markdown
// otherwise.
func (r *QueryReport) Save(path string) error {
	var content string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		html, err := r.HTML()
		if err != nil {
			return err
		}
		content = html
	default:
		content = r.Markdown()
	}
	return os.WriteFile(path, []byte(content), 0644)
}
