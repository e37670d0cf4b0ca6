// Package orchestrator composes the locale config store, the file-change
// watcher, and the launch sequencer behind a poll-based facade. The
// presentation layer calls Poll once per tick and renders the events it gets
// back; it holds no business logic of its own.
package orchestrator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/jask/entitan/internal/launch"
	"github.com/jask/entitan/internal/localeconf"
	"github.com/jask/entitan/internal/watch"
)

// DefaultLocale is the fallback when a preferred-locale value normalizes to
// nothing.
const DefaultLocale = "enUS"

// ExeExt is the extension both launch targets must carry.
const ExeExt = "exe"

var (
	ErrBadLauncherPath = errors.New("Battle.net path must point to an existing .exe")
	ErrBadGamePath     = errors.New("WoW executable must point to an existing .exe")
)

// EventKind classifies a Poll event.
type EventKind int

const (
	// EventStatus is a human-readable status update.
	EventStatus EventKind = iota
	// EventConfigReloaded means the config file changed on disk and was
	// re-parsed.
	EventConfigReloaded
	// EventRunFinished means the run sequence reached a terminal state and a
	// new Start will be accepted.
	EventRunFinished
)

// Event is one unit of feedback surfaced by Poll, in order of occurrence.
type Event struct {
	Kind EventKind
	Text string
}

// Facade owns the current paths, the preferred locale, and the pending run.
type Facade struct {
	store   *localeconf.Store
	watcher watch.Adapter
	seq     *launch.Sequencer

	cfgPath      string
	launcherPath string
	gamePath     string
	preferred    string

	progress  <-chan string
	runActive bool
}

// New builds a facade over the given watch adapter (may be nil when no
// watcher could be created; change detection is then disabled).
func New(w watch.Adapter) *Facade {
	var sub localeconf.Subscriber
	if w != nil {
		sub = w
	}
	return &Facade{
		store:     localeconf.NewStore(sub),
		watcher:   w,
		seq:       &launch.Sequencer{},
		preferred: DefaultLocale,
	}
}

// SetSequencer swaps the launch sequencer. Tests use this to inject a fake
// spawner and a fast tick.
func (f *Facade) SetSequencer(seq *launch.Sequencer) {
	f.seq = seq
}

func (f *Facade) ConfigPath() string   { return f.cfgPath }
func (f *Facade) LauncherPath() string { return f.launcherPath }
func (f *Facade) GamePath() string     { return f.gamePath }

// SetConfigPath records the config file path and refreshes the store. The
// store's path-identity cache makes repeated calls with an unchanged path
// cheap, so this is safe to drive every tick.
func (f *Facade) SetConfigPath(p string) {
	f.cfgPath = p
	f.store.Refresh(p)
}

func (f *Facade) SetLauncherPath(p string) { f.launcherPath = p }
func (f *Facade) SetGamePath(p string)     { f.gamePath = p }

// PreferredLocale returns the current (always normalized) preferred locale.
func (f *Facade) PreferredLocale() string { return f.preferred }

// SetPreferredLocale normalizes v and stores the result, which it returns.
// Called on every observation of user-edited input, not only on commit.
func (f *Facade) SetPreferredLocale(v string) string {
	f.preferred = NormalizeLocale(v)
	return f.preferred
}

// AudioLocale returns the cached audioLocale value from the config file.
func (f *Facade) AudioLocale() (string, bool) { return f.store.AudioLocale() }

// TextLocale returns the cached textLocale value from the config file.
func (f *Facade) TextLocale() (string, bool) { return f.store.TextLocale() }

// RunActive reports whether a launch sequence is pending completion.
func (f *Facade) RunActive() bool { return f.runActive }

// RunID identifies the current or most recent launch sequence.
func (f *Facade) RunID() string { return f.seq.RunID() }

// UpdateConfig rewrites both locale keys in the config file to the preferred
// locale. The store refreshes itself on success.
func (f *Facade) UpdateConfig() error {
	return f.store.Update(f.cfgPath, f.preferred)
}

// StartRun validates both executables and starts the launch sequence.
// Progress surfaces through Poll. Rejected while a run is active.
func (f *Facade) StartRun() error {
	if f.runActive {
		return launch.ErrAlreadyRunning
	}
	if !IsFileWithExt(f.launcherPath, ExeExt) {
		return ErrBadLauncherPath
	}
	if !IsFileWithExt(f.gamePath, ExeExt) {
		return ErrBadGamePath
	}
	ch, err := f.seq.Start(f.launcherPath, f.gamePath)
	if err != nil {
		return err
	}
	f.progress = ch
	f.runActive = true
	return nil
}

// Poll drives one cooperative tick: an identity-cached refresh, a
// non-blocking drain of watch notifications, and a non-blocking drain of run
// progress. It never blocks and returns events in order of occurrence.
func (f *Facade) Poll() []Event {
	var events []Event

	f.store.Refresh(f.cfgPath)

	if f.watcher != nil {
		for _, n := range f.watcher.Drain() {
			if n.Err != nil {
				events = append(events, Event{EventStatus, "File watcher error: " + n.Err.Error()})
				continue
			}
			if f.cfgPath == "" || filepath.Clean(n.Path) != filepath.Clean(f.cfgPath) {
				continue
			}
			f.store.ForceRefresh(f.cfgPath)
			events = append(events, Event{EventConfigReloaded, "Config.wtf changed on disk; reloaded"})
		}
	}

	for f.progress != nil {
		select {
		case msg, ok := <-f.progress:
			if !ok {
				f.progress = nil
				continue
			}
			if msg == launch.Finished {
				f.runActive = false
				events = append(events, Event{EventRunFinished, "Run sequence completed"})
				continue
			}
			events = append(events, Event{EventStatus, msg})
		default:
			return events
		}
	}
	return events
}

// NormalizeLocale strips everything but ASCII letters, truncates to four
// characters, and falls back to DefaultLocale when nothing is left. It is
// idempotent.
func NormalizeLocale(v string) string {
	var b strings.Builder
	for i := 0; i < len(v) && b.Len() < 4; i++ {
		c := v[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return DefaultLocale
	}
	return b.String()
}

// IsFileWithExt reports whether path names a regular file whose extension
// matches ext (without the dot), case-insensitively.
func IsFileWithExt(path, ext string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), "."+ext)
}
