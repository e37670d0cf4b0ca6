// Package localeconf reads and rewrites the two locale keys in a game
// Config.wtf file. Only `SET audioLocale "…"` and `SET textLocale "…"` are
// recognized; every other line passes through untouched.
package localeconf

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// MaxFileSize is the size guard: a config file at or above this size is
	// never opened for read or write.
	MaxFileSize = 8192

	// TooLargeSentinel replaces both cached values when the size guard trips.
	TooLargeSentinel = "(file too large)"
)

const (
	audioKey = "SET audioLocale"
	textKey  = "SET textLocale"
)

var (
	ErrNotConfigured = errors.New("config path is not set")
	ErrNotFound      = errors.New("config path does not exist or is not a file")
	ErrTooLarge      = errors.New("config file is too large to safely edit")
)

// Subscriber is told which single file the store wants change notifications
// for. The store keeps exactly one path watched: the currently configured one.
type Subscriber interface {
	Watch(path string) error
	Unwatch(path string) error
}

// Store caches the two locale values parsed from the configured file.
// Re-parsing is keyed on path identity: Refresh with the same path is a no-op
// until ForceRefresh or a successful Update invalidates the cache.
type Store struct {
	sub Subscriber

	lastPath string
	hasLast  bool

	audio *string
	text  *string
}

// NewStore returns a store that keeps sub's watched path in step with the
// configured config path. sub may be nil.
func NewStore(sub Subscriber) *Store {
	return &Store{sub: sub}
}

// AudioLocale returns the cached audioLocale value, if one was parsed.
func (s *Store) AudioLocale() (string, bool) {
	if s.audio == nil {
		return "", false
	}
	return *s.audio, true
}

// TextLocale returns the cached textLocale value, if one was parsed.
func (s *Store) TextLocale() (string, bool) {
	if s.text == nil {
		return "", false
	}
	return *s.text, true
}

// Refresh re-parses the file at path unless path is the same one that was
// parsed last time. An empty or missing path clears both cached values; that
// is the "not yet configured" state, not an error.
func (s *Store) Refresh(path string) {
	if s.hasLast && s.lastPath == path {
		return
	}

	oldPath := ""
	if s.hasLast {
		oldPath = s.lastPath
	}
	s.lastPath = path
	s.hasLast = path != ""

	// Keep the watcher pointed at the configured file. Best effort: a file
	// that does not exist yet simply fails to register.
	if s.sub != nil {
		if oldPath != "" && oldPath != path {
			_ = s.sub.Unwatch(oldPath)
		}
		if path != "" && oldPath != path {
			_ = s.sub.Watch(path)
		}
	}

	s.audio = nil
	s.text = nil

	if path == "" {
		return
	}
	fi, err := os.Stat(path)
	if err != nil {
		return
	}
	if fi.Size() >= MaxFileSize {
		sentinel := TooLargeSentinel
		s.audio = &sentinel
		s.text = &sentinel
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range splitLines(string(data)) {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, audioKey):
			if v, ok := firstQuoted(t); ok {
				s.audio = &v
			}
		case strings.HasPrefix(t, textKey):
			if v, ok := firstQuoted(t); ok {
				s.text = &v
			}
		}
	}
}

// ForceRefresh re-parses regardless of path identity. Used when the file is
// known to have changed underneath us (watch notification, post-update).
func (s *Store) ForceRefresh(path string) {
	s.hasLast = false
	s.Refresh(path)
}

// Update rewrites both locale keys at path to newLocale, preserving every
// other line and the original line order. A key absent from the file is
// appended at the end. The whole file is written back with a trailing
// newline. On success the cache is invalidated and refreshed immediately.
func (s *Store) Update(path, newLocale string) error {
	if path == "" {
		return ErrNotConfigured
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return ErrNotFound
	}
	if fi.Size() >= MaxFileSize {
		return ErrTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	lines := splitLines(string(data))
	foundAudio := false
	foundText := false
	for i, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, audioKey):
			lines[i] = audioKey + " \"" + newLocale + "\""
			foundAudio = true
		case strings.HasPrefix(t, textKey):
			lines[i] = textKey + " \"" + newLocale + "\""
			foundText = true
		}
	}
	if !foundAudio {
		lines = append(lines, audioKey+" \""+newLocale+"\"")
	}
	if !foundText {
		lines = append(lines, textKey+" \""+newLocale+"\"")
	}

	out := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	s.ForceRefresh(path)
	return nil
}

// splitLines splits on \n, strips a trailing \r from each line, and drops the
// empty tail produced by a trailing newline. CRLF files come back normalized
// to LF on the next write.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// firstQuoted extracts the first double-quoted substring of s.
func firstQuoted(s string) (string, bool) {
	i := strings.IndexByte(s, '"')
	if i < 0 {
		return "", false
	}
	rest := s[i+1:]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}
