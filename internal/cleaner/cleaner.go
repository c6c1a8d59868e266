// Package cleaner prepares retrieved chunks for display: it strips URLs and
// subtitle-site boilerplate and caps the length.
package cleaner

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxLen = 300
	Ellipsis      = "..."
)

var (
	urlRe         = regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.\-]*://\S+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	releaseNameRe = regexp.MustCompile(`(?i)Release Name\s*[:\-]\s*(.+)`)
)

// Denylist maps a lowercase phrase to the reason lines containing it are
// dropped.
type Denylist map[string]string

// DefaultDenylist returns the phrases that mark subtitle-site boilerplate.
func DefaultDenylist() Denylist {
	return Denylist{
		"movie information":     "release metadata",
		"imdb link":             "release metadata",
		"uploader":              "uploader credit",
		"download":              "site promotion",
		"filename":              "release metadata",
		"nfo created":           "release metadata",
		"md5":                   "release metadata",
		"fps":                   "release metadata",
		"language":              "release metadata",
		"format":                "release metadata",
		"subtitles":             "site promotion",
		"www.opensubtitles.org": "site name",
		"we set the standards":  "site slogan",
		"the benchmark":         "site slogan",
		"score":                 "site rating",
		"org":                   "site name",
	}
}

// LoadDenylist reads a YAML mapping of phrase: reason and merges it over the
// defaults. An empty reason removes a default phrase.
func LoadDenylist(path string) (Denylist, error) {
	d := DefaultDenylist()
	if path == "" {
		return d, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read denylist: %w", err)
	}
	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse denylist %s: %w", path, err)
	}
	for phrase, reason := range extra {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase == "" {
			continue
		}
		if reason == "" {
			delete(d, phrase)
			continue
		}
		d[phrase] = reason
	}
	return d, nil
}

// Phrases returns the denylisted phrases in sorted order.
func (d Denylist) Phrases() []string {
	out := make([]string, 0, len(d))
	for p := range d {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type Cleaner struct {
	phrases []string
	maxLen  int
}

func New(denylist Denylist, maxLen int) *Cleaner {
	if denylist == nil {
		denylist = DefaultDenylist()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Cleaner{phrases: denylist.Phrases(), maxLen: maxLen}
}

func (c *Cleaner) boilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range c.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Clean strips URLs and boilerplate lines, collapses whitespace and truncates
// to maxLen characters. If every line is boilerplate the URL-stripped input is
// used instead, so non-empty input never comes back empty.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return ""
	}
	stripped := urlRe.ReplaceAllString(text, "")

	var kept []string
	for _, line := range strings.Split(stripped, "\n") {
		if c.boilerplate(line) {
			continue
		}
		line = strings.TrimSpace(whitespaceRe.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	out := strings.TrimSpace(strings.Join(kept, " "))
	if out == "" {
		out = strings.TrimSpace(stripped)
	}
	return truncate(out, c.maxLen)
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + Ellipsis
}

// ReleaseName extracts the value of a "Release Name: X" or "Release Name - X"
// line, or "" when there is none.
func ReleaseName(text string) string {
	m := releaseNameRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Display labels a hit by its release name when the chunk carries one,
// otherwise by its cleaned text.
func (c *Cleaner) Display(text string) string {
	if name := ReleaseName(text); name != "" {
		return "Movie: " + name
	}
	return c.Clean(text)
}
