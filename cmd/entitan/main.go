package main

import (
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/entitan/internal/config"
	"github.com/jask/entitan/internal/orchestrator"
	"github.com/jask/entitan/internal/settings"
	"github.com/jask/entitan/internal/tui"
	"github.com/jask/entitan/internal/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	st, err := settings.Load(cfg.Settings.Path)
	if err != nil {
		log.Printf("warn: settings unreadable, starting fresh: %v", err)
		st = settings.Settings{}
	}

	// The app stays usable without a watcher; external edits just won't be
	// picked up automatically.
	var adapter watch.Adapter
	if fs, err := watch.NewFS(); err != nil {
		log.Printf("warn: file watcher unavailable: %v", err)
	} else {
		adapter = fs
		defer fs.Close()
	}

	fac := orchestrator.New(adapter)
	app := tui.New(fac, st, time.Duration(cfg.UI.TickMs)*time.Millisecond)

	p := tea.NewProgram(app, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		log.Fatalf("ui: %v", err)
	}

	if a, ok := final.(tui.App); ok {
		if err := settings.Save(cfg.Settings.Path, a.Snapshot()); err != nil {
			log.Printf("warn: save settings: %v", err)
		}
	}
}
