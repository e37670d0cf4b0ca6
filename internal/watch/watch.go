// Package watch delivers file-change notifications for a single watched
// config file. Consumers drain pending notifications non-blockingly once per
// poll tick; nothing here ever blocks the polling side.
package watch

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Notification is one drained watch event: either a modified path or an
// adapter-level error. Errors are informational, never fatal.
type Notification struct {
	Path string
	Err  error
}

// Adapter is the change-watch interface the core consumes.
type Adapter interface {
	Watch(path string) error
	Unwatch(path string) error
	Drain() []Notification
	Close() error
}

// queueSize bounds the pending notification queue. A full queue drops new
// notifications rather than blocking the pump; the consumer force-reloads on
// any surviving notification for its path, so drops only coalesce bursts.
const queueSize = 64

// FSAdapter implements Adapter on top of fsnotify.
type FSAdapter struct {
	w       *fsnotify.Watcher
	pending chan Notification
}

// NewFS creates an adapter backed by an OS-level file watcher.
func NewFS() (*FSAdapter, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	a := &FSAdapter{
		w:       w,
		pending: make(chan Notification, queueSize),
	}
	go a.pump()
	return a, nil
}

func (a *FSAdapter) pump() {
	for {
		select {
		case ev, ok := <-a.w.Events:
			if !ok {
				return
			}
			a.push(Notification{Path: ev.Name})
		case err, ok := <-a.w.Errors:
			if !ok {
				return
			}
			a.push(Notification{Err: err})
		}
	}
}

func (a *FSAdapter) push(n Notification) {
	select {
	case a.pending <- n:
	default:
	}
}

// Watch registers path for change notifications.
func (a *FSAdapter) Watch(path string) error {
	return a.w.Add(path)
}

// Unwatch removes path from the watch set.
func (a *FSAdapter) Unwatch(path string) error {
	return a.w.Remove(path)
}

// Drain returns every pending notification without blocking.
func (a *FSAdapter) Drain() []Notification {
	var out []Notification
	for {
		select {
		case n := <-a.pending:
			out = append(out, n)
		default:
			return out
		}
	}
}

// Close shuts down the underlying watcher and its pump goroutine.
func (a *FSAdapter) Close() error {
	return a.w.Close()
}
