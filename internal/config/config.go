package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const defaultRepeatIntervalSec = 60

var (
	// ErrConfiguration marks fatal configuration problems that abort the run.
	ErrConfiguration = errors.New("configuration error")
	// ErrNeedsSetup indicates the static config is still the generated skeleton.
	ErrNeedsSetup = errors.New("config file needs to be set up")
)

// Document is the loaded static settings document.
// Params: run-level settings plus the raw layered sync/megathread sections.
// Returns: input for Resolve and for ambient-stack setup.
type Document struct {
	RepeatIntervalSec int
	Accounts          map[string]AccountConfig
	Defaults          map[string]any
	Sync              Section
	Megathread        Section
	Log               LogConfig
	Notify            NotifyConfig
}

// Section is one static-config section (sync pairs or megathreads).
// Params: section enable flag, section-level defaults, and raw item maps.
// Returns: layered input consumed by the resolver.
type Section struct {
	Enabled  bool
	Defaults map[string]any
	Items    map[string]map[string]any
}

// AccountConfig holds platform credentials for one named account.
// Params: OAuth2 script-app credentials; refresh-token and password
// grants are both supported.
// Returns: client construction settings.
type AccountConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
}

// LogConfig contains console/file logging sinks.
// Params: sink settings for each output target.
// Returns: logger setup options.
type LogConfig struct {
	Console LogSinkConfig `mapstructure:"console"`
	File    LogSinkConfig `mapstructure:"file"`
}

// LogSinkConfig defines one logging sink.
// Params: sink enable flag, level, format, and path.
// Returns: sink-specific behavior.
type LogSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Path    string `mapstructure:"path"`
}

// NotifyConfig defines optional operator notifications.
// Params: per-channel transport settings.
// Returns: notification controls; everything is off by default.
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig defines the Telegram operator channel.
// Params: enabled flag, bot token, chat ID, and API base URL.
// Returns: Telegram sender configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// DefaultPaths returns the default static and dynamic document paths.
// Params: none.
// Returns: paths under the user config directory.
func DefaultPaths() (string, string) {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	dir := filepath.Join(base, "submanager")
	return filepath.Join(dir, "config.toml"), filepath.Join(dir, "config_dynamic.json")
}

// LoadStatic loads the static settings document, creating it if needed.
// Params: path to the TOML document.
// Returns: parsed document; ErrNeedsSetup when the file is still the
// generated skeleton, wrapped ErrConfiguration for format problems.
func LoadStatic(path string) (Document, error) {
	body, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if writeErr := writeSkeleton(path); writeErr != nil {
			return Document{}, writeErr
		}
		return Document{}, fmt.Errorf("%w: generated default config at %s", ErrNeedsSetup, path)
	}
	if err != nil {
		return Document{}, fmt.Errorf("read config file %q: %w", path, err)
	}
	if bytes.Equal(bytes.TrimSpace(body), bytes.TrimSpace([]byte(defaultStaticTOML))) {
		return Document{}, fmt.Errorf("%w: edit %s before running", ErrNeedsSetup, path)
	}

	var raw map[string]any
	if err := toml.Unmarshal(body, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: decode %q: %v", ErrConfiguration, path, err)
	}
	return parseDocument(raw)
}

// parseDocument extracts typed and layered parts from the raw document map.
// Params: decoded TOML map.
// Returns: document with defaults filled; missing sections become empty maps.
func parseDocument(raw map[string]any) (Document, error) {
	doc := Document{
		RepeatIntervalSec: intOr(raw["repeat_interval_s"], defaultRepeatIntervalSec),
		Defaults:          asMap(raw["defaults"]),
		Sync:              parseSection(asMap(raw["sync"]), "pairs"),
		Megathread:        parseSection(asMap(raw["megathread"]), "megathreads"),
	}

	if err := decodeMap(asMap(raw["accounts"]), &doc.Accounts); err != nil {
		return Document{}, fmt.Errorf("%w: accounts: %v", ErrConfiguration, err)
	}
	if err := decodeMap(asMap(raw["log"]), &doc.Log); err != nil {
		return Document{}, fmt.Errorf("%w: log: %v", ErrConfiguration, err)
	}
	if err := decodeMap(asMap(raw["notify"]), &doc.Notify); err != nil {
		return Document{}, fmt.Errorf("%w: notify: %v", ErrConfiguration, err)
	}
	applyLogDefaults(&doc.Log)
	return doc, nil
}

// parseSection extracts one sync/megathread section.
// Params: raw section map and the key holding its item table.
// Returns: section with enabled defaulting to true.
func parseSection(raw map[string]any, itemsKey string) Section {
	section := Section{
		Enabled:  boolOr(raw["enabled"], true),
		Defaults: asMap(raw["defaults"]),
		Items:    map[string]map[string]any{},
	}
	for id, item := range asMap(raw[itemsKey]) {
		section.Items[id] = asMap(item)
	}
	return section
}

// applyLogDefaults fills omitted logging fields with safe defaults.
// Params: log config pointer.
// Returns: defaults applied in place.
func applyLogDefaults(cfg *LogConfig) {
	if cfg.Console.Level == "" {
		cfg.Console.Level = "info"
	}
	if cfg.Console.Format == "" {
		cfg.Console.Format = "line"
	}
	if cfg.File.Level == "" {
		cfg.File.Level = "info"
	}
	if cfg.File.Format == "" {
		cfg.File.Format = "json"
	}
	if !cfg.Console.Enabled && !cfg.File.Enabled {
		cfg.Console.Enabled = true
	}
}

// writeSkeleton writes the documented default config skeleton.
// Params: destination path.
// Returns: write error.
func writeSkeleton(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultStaticTOML), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
