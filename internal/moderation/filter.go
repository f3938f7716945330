// Package moderation screens user-submitted tag text against a blocklist
// of slurs and abusive terms before it reaches storage.
package moderation

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	_ "embed"
)

//go:embed blocklist.txt
var defaultBlocklist string

// leetMap folds common character substitutions back to their letter so
// "r4p3" normalizes to the same string as "rape". Characters not present
// in the map pass through unchanged.
var leetMap = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'@': 'a',
	'$': 's',
	'!': 'i',
	'|': 'i',
}

// allowedTerms are innocent words whose normalized form happens to
// contain a blocked term. They are scrubbed from the text before
// matching, so "grape" and "grapefruit" pass while "rape" standing on
// its own still trips the filter. Derived forms pass too because they
// contain the base word ("scraped" contains "scrape").
var allowedTerms = []string{
	"ashkenazi",
	"drape",
	"grape",
	"parapet",
	"scrape",
	"trapeze",
}

// Filter decides whether a piece of text contains blocked content.
// A nil Filter blocks nothing, so callers don't need to nil-check.
type Filter struct {
	mu      sync.RWMutex
	blocked []string

	watcher *fsnotify.Watcher
	logger  *slog.Logger
	done    chan struct{}
}

// NewFilter creates a filter seeded with the embedded default blocklist.
func NewFilter(logger *slog.Logger) *Filter {
	f := &Filter{logger: logger}
	f.blocked = parseBlocklist(defaultBlocklist)
	return f
}

// NewFilterFromFile creates a filter whose blocklist is loaded from path
// and reloaded whenever the file changes on disk. The embedded defaults
// are always included so a truncated file can never disable filtering.
func NewFilterFromFile(path string, logger *slog.Logger) (*Filter, error) {
	f := NewFilter(logger)

	if err := f.loadFile(path); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create blocklist watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		//nolint:errcheck // Watcher cleanup on the error path, nothing to report
		_ = watcher.Close()
		return nil, fmt.Errorf("watch blocklist file: %w", err)
	}

	f.watcher = watcher
	f.done = make(chan struct{})
	go f.watch(path)

	return f, nil
}

// Close stops the file watcher if one is running.
func (f *Filter) Close() error {
	if f == nil || f.watcher == nil {
		return nil
	}
	close(f.done)
	return f.watcher.Close()
}

// IsBlocked reports whether the text contains a blocked term after
// normalization. Matching is substring containment, so "r4p3fest" is
// blocked just like "r4p3". Known benign containments on the allowed
// list are scrubbed first, so "grape" is not blocked even though its
// normalized form contains "rape".
func (f *Filter) IsBlocked(text string) bool {
	if f == nil {
		return false
	}

	normalized := Normalize(text)
	if normalized == "" {
		return false
	}

	for _, allow := range allowedTerms {
		normalized = strings.ReplaceAll(normalized, allow, "")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, term := range f.blocked {
		if strings.Contains(normalized, term) {
			return true
		}
	}
	return false
}

// Normalize lowercases the text, strips everything outside [a-z0-9@!$|],
// then folds leetspeak substitutions to letters. The stripped character
// set keeps the symbols the leet map needs while removing separators,
// so "r.a.p.e" collapses to "rape".
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lowered))

	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9', r == '@', r == '!', r == '$', r == '|':
			if folded, ok := leetMap[r]; ok {
				b.WriteRune(folded)
			} else {
				b.WriteRune(r)
			}
		}
	}

	return b.String()
}

// TermCount returns the number of active blocked terms.
func (f *Filter) TermCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.blocked)
}

// loadFile merges the terms from path with the embedded defaults and
// swaps the active blocklist.
func (f *Filter) loadFile(path string) error {
	//#nosec G304 -- Blocklist path comes from validated configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read blocklist: %w", err)
	}

	merged := parseBlocklist(defaultBlocklist + "\n" + string(data))

	f.mu.Lock()
	f.blocked = merged
	f.mu.Unlock()

	return nil
}

// watch reloads the blocklist when the file changes. Editors that do
// atomic saves fire Rename/Remove, so the path is re-added after those.
func (f *Filter) watch(path string) {
	for {
		select {
		case <-f.done:
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				//nolint:errcheck // The file may not exist yet after an atomic save
				_ = f.watcher.Add(path)
			}
			if err := f.loadFile(path); err != nil {
				if f.logger != nil {
					f.logger.Warn("failed to reload blocklist", "path", path, "error", err)
				}
				continue
			}
			if f.logger != nil {
				f.logger.Info("blocklist reloaded", "path", path, "terms", f.TermCount())
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			if f.logger != nil {
				f.logger.Warn("blocklist watcher error", "error", err)
			}
		}
	}
}

// parseBlocklist normalizes one term per line, skipping blanks and
// comments, and deduplicates the result.
func parseBlocklist(raw string) []string {
	seen := make(map[string]struct{})
	var terms []string

	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		term := Normalize(line)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	return terms
}
