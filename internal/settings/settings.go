// Package settings persists the app state between runs as a plain five-line
// file: launcher path, config path, game path, preferred locale, and an
// optional x,y,w,h window geometry line.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const settingsFile = "settings.txt"

// Geometry is a saved window position and size.
type Geometry struct {
	X, Y int
	W, H float64
}

// Settings is everything read at startup and written at shutdown.
type Settings struct {
	LauncherPath    string
	ConfigPath      string
	GamePath        string
	PreferredLocale string
	Geometry        *Geometry
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "entitan", settingsFile), nil
}

// Load reads settings from path. A missing file yields zero settings, not an
// error.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	lines := strings.Split(string(data), "\n")
	get := func(i int) string {
		if i < len(lines) {
			return strings.TrimSpace(lines[i])
		}
		return ""
	}
	return Settings{
		LauncherPath:    get(0),
		ConfigPath:      get(1),
		GamePath:        get(2),
		PreferredLocale: get(3),
		Geometry:        parseGeometry(get(4)),
	}, nil
}

// Save writes settings to path atomically (temp file + rename), creating the
// directory if needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir settings dir: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n%s\n%s\n", s.LauncherPath, s.ConfigPath, s.GamePath, s.PreferredLocale)
	if g := s.Geometry; g != nil {
		fmt.Fprintf(&b, "%d,%d,%g,%g\n", g.X, g.Y, g.W, g.H)
	} else {
		b.WriteString("\n")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, path)
}

func parseGeometry(s string) *Geometry {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return nil
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil {
		return nil
	}
	return &Geometry{X: x, Y: y, W: w, H: h}
}
