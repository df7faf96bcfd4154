package utils

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the cofiguration for the application
type Config struct {
	Root             string        `mapstructure:"root"`              // Base URL or directory documents are fetched from.
	Manifest         string        `mapstructure:"manifest"`          // Manifest path relative to root, empty scans root.
	Extensions       []string      `mapstructure:"extensions"`        // Extensions picked up when scanning.
	SearchDelay      time.Duration `mapstructure:"search_delay"`      // Quiet period before searching bodies.
	FetchConcurrency int           `mapstructure:"fetch_concurrency"` // Max body fetches per search, 0 is unlimited.
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`     // Per request timeout.
	FetchRate        float64       `mapstructure:"fetch_rate"`        // Requests per second, 0 is unlimited.
	Editor           string        `mapstructure:"editor"`            // Editor to open local documents with.
	Theme            string        `mapstructure:"theme"`             // light or dark.
	Wrap             int           `mapstructure:"wrap"`              // Rendered width.
	ShareBase        string        `mapstructure:"share_base"`        // Base of shareable links.
	BookmarkFile     string        `mapstructure:"bookmark_file"`     // Where the last opened document is kept.
	LogFile          string        `mapstructure:"log_file"`
	LogLevel         string        `mapstructure:"log_level"`
}

// ConfigDir is where config, bookmark and log live by default.
func ConfigDir() string {
	homedir, _ := os.UserHomeDir()
	return path.Join(homedir, "/.config/papers_search")
}

// DefaultConfigPath returns the config file used when none is given.
func DefaultConfigPath() string {
	return path.Join(ConfigDir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	v.SetDefault("root", ".")
	v.SetDefault("manifest", "papers.json")
	v.SetDefault("extensions", []string{".md", ".markdown", ".pdf"})
	v.SetDefault("search_delay", 300*time.Millisecond)
	v.SetDefault("fetch_concurrency", 0)
	v.SetDefault("fetch_timeout", 15*time.Second)
	v.SetDefault("fetch_rate", 0)
	v.SetDefault("editor", editor)
	v.SetDefault("theme", "dark")
	v.SetDefault("wrap", 80)
	v.SetDefault("share_base", "")
	v.SetDefault("bookmark_file", path.Join(ConfigDir(), "bookmark.json"))
	v.SetDefault("log_file", path.Join(ConfigDir(), "debug.log"))
	v.SetDefault("log_level", "info")
}

// LoadConfig reads configPath (DefaultConfigPath when empty). A missing file
// is fine, the defaults are used. Settings can be overridden with PAPERS_*
// environment variables.
func LoadConfig(configPath string) (*Config, *viper.Viper, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("papers")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, nil, fmt.Errorf("unable to parse the config file: %w", err)
	}

	return config, v, nil
}
