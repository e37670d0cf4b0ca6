package orchestrator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/entitan/internal/launch"
	"github.com/jask/entitan/internal/watch"
)

// fakeAdapter queues notifications for Poll to drain.
type fakeAdapter struct {
	queued    []watch.Notification
	watched   []string
	unwatched []string
}

func (f *fakeAdapter) Watch(path string) error {
	f.watched = append(f.watched, path)
	return nil
}

func (f *fakeAdapter) Unwatch(path string) error {
	f.unwatched = append(f.unwatched, path)
	return nil
}

func (f *fakeAdapter) Drain() []watch.Notification {
	out := f.queued
	f.queued = nil
	return out
}

func (f *fakeAdapter) Close() error { return nil }

// okSpawner never fails.
type okSpawner struct{}

func (okSpawner) Spawn(string) error { return nil }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalizeLocale(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"enUS", "enUS"},
		{"frFR", "frFR"},
		{"en-US", "enUS"},
		{"de_DE extra", "deDE"},
		{"FRFRFR", "FRFR"},
		{"12 34", "enUS"},
		{"", "enUS"},
		{"  ", "enUS"},
		{"ptBR!", "ptBR"},
	}
	for _, c := range cases {
		got := NormalizeLocale(c.in)
		require.Equal(t, c.want, got, "input %q", c.in)
		// Normalization is idempotent.
		require.Equal(t, got, NormalizeLocale(got), "input %q", c.in)
	}
}

func TestIsFileWithExt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exe := writeFile(t, dir, "Launcher.EXE", "bin")
	wtf := writeFile(t, dir, "Config.wtf", "")

	require.True(t, IsFileWithExt(exe, "exe"))
	require.True(t, IsFileWithExt(wtf, "wtf"))
	require.False(t, IsFileWithExt(exe, "wtf"))
	require.False(t, IsFileWithExt(dir, "exe"))
	require.False(t, IsFileWithExt(filepath.Join(dir, "missing.exe"), "exe"))
	require.False(t, IsFileWithExt("", "exe"))
}

func TestStartRunValidatesPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	launcher := writeFile(t, dir, "bnet.exe", "bin")
	game := writeFile(t, dir, "wow.exe", "bin")
	notExe := writeFile(t, dir, "readme.txt", "")

	f := New(nil)
	f.SetSequencer(&launch.Sequencer{Spawn: okSpawner{}, Tick: time.Millisecond})

	f.SetLauncherPath(notExe)
	f.SetGamePath(game)
	require.ErrorIs(t, f.StartRun(), ErrBadLauncherPath)

	f.SetLauncherPath(launcher)
	f.SetGamePath(filepath.Join(dir, "missing.exe"))
	require.ErrorIs(t, f.StartRun(), ErrBadGamePath)

	f.SetGamePath(game)
	require.NoError(t, f.StartRun())
	require.True(t, f.RunActive())
}

func TestStartRunRejectedWhileActive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	launcher := writeFile(t, dir, "bnet.exe", "bin")
	game := writeFile(t, dir, "wow.exe", "bin")

	f := New(nil)
	f.SetSequencer(&launch.Sequencer{Spawn: okSpawner{}, Tick: time.Millisecond})
	f.SetLauncherPath(launcher)
	f.SetGamePath(game)

	require.NoError(t, f.StartRun())
	require.ErrorIs(t, f.StartRun(), launch.ErrAlreadyRunning)

	// Polling eventually observes the terminal sentinel, after which a new
	// run is accepted.
	require.Eventually(t, func() bool {
		for _, ev := range f.Poll() {
			if ev.Kind == EventRunFinished {
				return true
			}
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)

	require.False(t, f.RunActive())
	require.NoError(t, f.StartRun())
}

func TestPollDrainsProgressInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	launcher := writeFile(t, dir, "bnet.exe", "bin")
	game := writeFile(t, dir, "wow.exe", "bin")

	f := New(nil)
	f.SetSequencer(&launch.Sequencer{Spawn: okSpawner{}, Tick: time.Millisecond})
	f.SetLauncherPath(launcher)
	f.SetGamePath(game)
	require.NoError(t, f.StartRun())

	var texts []string
	require.Eventually(t, func() bool {
		for _, ev := range f.Poll() {
			texts = append(texts, ev.Text)
			if ev.Kind == EventRunFinished {
				return true
			}
		}
		return false
	}, 5*time.Second, time.Millisecond)

	require.Equal(t, "Launched Battle.net", texts[0])
	require.Equal(t, "Run sequence completed", texts[len(texts)-1])
	// 73 progress messages plus the translated sentinel.
	require.Len(t, texts, 74)
}

func TestPollForcesRefreshOnWatchNotification(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := writeFile(t, dir, "Config.wtf", `SET audioLocale "enUS"`+"\n"+`SET textLocale "enUS"`+"\n")

	ad := &fakeAdapter{}
	f := New(ad)
	f.SetConfigPath(cfg)

	v, ok := f.AudioLocale()
	require.True(t, ok)
	require.Equal(t, "enUS", v)

	// External edit: identity cache would hide it without the notification.
	require.NoError(t, os.WriteFile(cfg, []byte(`SET audioLocale "frFR"`+"\n"), 0o644))
	ad.queued = []watch.Notification{{Path: cfg}}

	events := f.Poll()
	require.Len(t, events, 1)
	require.Equal(t, EventConfigReloaded, events[0].Kind)
	require.Equal(t, "Config.wtf changed on disk; reloaded", events[0].Text)

	v, ok = f.AudioLocale()
	require.True(t, ok)
	require.Equal(t, "frFR", v)
}

func TestPollIgnoresOtherPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := writeFile(t, dir, "Config.wtf", `SET audioLocale "enUS"`+"\n")
	other := writeFile(t, dir, "Other.wtf", `SET audioLocale "frFR"`+"\n")

	ad := &fakeAdapter{}
	f := New(ad)
	f.SetConfigPath(cfg)

	ad.queued = []watch.Notification{{Path: other}}
	require.Empty(t, f.Poll())

	v, _ := f.AudioLocale()
	require.Equal(t, "enUS", v)
}

func TestPollDowngradesWatchErrors(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{queued: []watch.Notification{{Err: errors.New("inotify overflow")}}}
	f := New(ad)

	events := f.Poll()
	require.Len(t, events, 1)
	require.Equal(t, EventStatus, events[0].Kind)
	require.Contains(t, events[0].Text, "File watcher error")
	require.Contains(t, events[0].Text, "inotify overflow")
}

func TestUpdateConfigUsesPreferredLocale(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := writeFile(t, dir, "Config.wtf", `SET audioLocale "enUS"`+"\n"+`SET textLocale "deDE"`+"\n")

	f := New(nil)
	f.SetConfigPath(cfg)
	f.SetPreferredLocale("frFR")
	require.NoError(t, f.UpdateConfig())

	a, _ := f.AudioLocale()
	x, _ := f.TextLocale()
	require.Equal(t, "frFR", a)
	require.Equal(t, "frFR", x)
}

func TestUpdateConfigWithoutPath(t *testing.T) {
	t.Parallel()

	f := New(nil)
	require.Error(t, f.UpdateConfig())
}

func TestSetConfigPathMovesWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.wtf", "")
	b := writeFile(t, dir, "b.wtf", "")

	ad := &fakeAdapter{}
	f := New(ad)

	f.SetConfigPath(a)
	f.SetConfigPath(b)
	require.Equal(t, []string{a, b}, ad.watched)
	require.Equal(t, []string{a}, ad.unwatched)
}
