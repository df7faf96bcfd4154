package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Preferences persists ui preferences in the config file.
type Preferences struct {
	mu sync.Mutex
	v  *viper.Viper
}

func NewPreferences(v *viper.Viper) *Preferences {
	return &Preferences{v: v}
}

// Theme returns the theme, dark unless light was chosen.
func (p *Preferences) Theme() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.themeLocked()
}

func (p *Preferences) themeLocked() string {
	if p.v.GetString("theme") == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

// SetTheme stores theme and writes it to the config file.
func (p *Preferences) SetTheme(theme string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setThemeLocked(theme)
}

// ToggleTheme flips between light and dark and returns the new theme. The
// theme changes even if it could not be saved.
func (p *Preferences) ToggleTheme() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := ThemeLight
	if p.themeLocked() == ThemeLight {
		next = ThemeDark
	}
	return next, p.setThemeLocked(next)
}

// setThemeLocked sets theme and saves it. Only what the file already holds
// plus the theme is written back; defaults and environment overrides stay
// out of the file.
func (p *Preferences) setThemeLocked(theme string) error {
	p.v.Set("theme", theme)

	path := p.v.ConfigFileUsed()
	if path == "" {
		return errors.New("no config file to save the theme to")
	}

	file := viper.New()
	file.SetConfigFile(path)
	if err := file.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	file.Set("theme", theme)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return file.WriteConfig()
}
