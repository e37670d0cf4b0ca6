// Package config loads app-level configuration. Env var overrides use the
// prefix ENTITAN_.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/jask/entitan/internal/settings"
)

// Config holds application configuration.
type Config struct {
	Settings SettingsConfig
	UI       UIConfig
}

// SettingsConfig locates the persisted-settings file.
type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	TickMs int `mapstructure:"tick_ms"`
}

// Load reads configuration from file and env. The config file is optional;
// defaults cover everything.
func Load() (Config, error) {
	v := viper.New()

	defSettings, err := settings.DefaultPath()
	if err != nil {
		defSettings = filepath.Join(os.TempDir(), "entitan", "settings.txt")
	}
	v.SetDefault("settings.path", defSettings)
	v.SetDefault("ui.tick_ms", 250)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("ENTITAN_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "entitan"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ENTITAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
