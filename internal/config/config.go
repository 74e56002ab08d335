// Package config provides configuration types and defaults for kinship.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zjrosen/kinship/internal/kql"
	"github.com/zjrosen/kinship/internal/log"
	"github.com/zjrosen/kinship/internal/tracing"
	"github.com/zjrosen/kinship/internal/ui/markdown"
)

// Config holds all configuration options for kinship.
type Config struct {
	Document            string            `mapstructure:"document"` // default document when none is given
	AutoRefresh         bool              `mapstructure:"auto_refresh"`
	AutoRefreshDebounce time.Duration     `mapstructure:"auto_refresh_debounce"`
	Log                 LogConfig         `mapstructure:"log"`
	Query               QueryConfig       `mapstructure:"query"`
	UI                  UIConfig          `mapstructure:"ui"`
	Theme               ThemeConfig       `mapstructure:"theme"`
	Keybindings         KeybindingsConfig `mapstructure:"keybindings"`
	Views               []ViewConfig      `mapstructure:"views"`
	Tracing             tracing.Config    `mapstructure:"tracing"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	Path  string `mapstructure:"path"`  // empty disables logging unless --debug is set
	Level string `mapstructure:"level"` // debug, info (default), warn, error
}

// QueryConfig holds query engine options.
type QueryConfig struct {
	// CacheTTL is how long compiled queries are kept. Zero disables the cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowStatusBar bool `mapstructure:"show_status_bar"`
	ShowKeys      bool `mapstructure:"show_keys"` // Show child keys next to names
	ShowIDs       bool `mapstructure:"show_ids"`
	Mouse         bool `mapstructure:"mouse"` // click to select, wheel to move
	// MarkdownStyle renders descriptions: auto, dark, light, notty or ascii.
	MarkdownStyle string `mapstructure:"markdown_style"`
}

// ThemeConfig overrides individual colors. Values are hex colors.
type ThemeConfig struct {
	Accent string `mapstructure:"accent"`
	Muted  string `mapstructure:"muted"`
	Error  string `mapstructure:"error"`
}

// KeybindingsConfig overrides browser keys. Each value is a comma-separated
// key list, e.g. "ctrl+f,/". Empty values keep the default.
type KeybindingsConfig struct {
	Search   string `mapstructure:"search"`
	Refocus  string `mapstructure:"refocus"`
	Back     string `mapstructure:"back"`
	Original string `mapstructure:"original"`
	Details  string `mapstructure:"details"`
	Reload   string `mapstructure:"reload"`
	NextView string `mapstructure:"next_view"`
	PrevView string `mapstructure:"prev_view"`
}

// ViewConfig is a named query the browser can cycle through.
type ViewConfig struct {
	Name  string `mapstructure:"name"`
	Query string `mapstructure:"query"`
	// From is the entry path the query runs from. Empty means the root.
	From string `mapstructure:"from"`
}

// DefaultViews returns the views used when none are configured.
func DefaultViews() []ViewConfig {
	return []ViewConfig{
		{Name: "Everything", Query: "hierarchy"},
		{Name: "Children", Query: "children"},
	}
}

// GetViews returns the configured views, or DefaultViews() if none configured.
func (c Config) GetViews() []ViewConfig {
	if len(c.Views) == 0 {
		return DefaultViews()
	}
	return c.Views
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks every section and returns the first problem found.
func Validate(c Config) error {
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	if c.Query.CacheTTL < 0 {
		return fmt.Errorf("query.cache_ttl must not be negative")
	}
	if c.AutoRefreshDebounce < 0 {
		return fmt.Errorf("auto_refresh_debounce must not be negative")
	}
	if !markdown.ValidStyle(c.UI.MarkdownStyle) {
		return fmt.Errorf("ui.markdown_style: unknown style %q (use %s)", c.UI.MarkdownStyle, strings.Join(markdown.Styles, ", "))
	}
	if err := ValidateTheme(c.Theme); err != nil {
		return err
	}
	if err := ValidateKeybindings(c.Keybindings); err != nil {
		return err
	}
	if err := tracing.Validate(c.Tracing); err != nil {
		return err
	}
	return ValidateViews(c.Views)
}

// ValidateLog checks the log level.
func ValidateLog(l LogConfig) error {
	if _, err := log.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ValidateTheme checks that every set color is a hex color.
func ValidateTheme(t ThemeConfig) error {
	for name, value := range map[string]string{"accent": t.Accent, "muted": t.Muted, "error": t.Error} {
		if value != "" && !hexColor.MatchString(value) {
			return fmt.Errorf("theme.%s: invalid color %q (use #RGB or #RRGGBB)", name, value)
		}
	}
	return nil
}

// ValidateKeybindings checks that overrides are well formed and that no key
// is bound to two actions.
func ValidateKeybindings(kb KeybindingsConfig) error {
	bound := make(map[string]string)
	for _, b := range kb.Pairs() {
		if b.Keys == "" {
			continue
		}
		for _, k := range SplitKeys(b.Keys) {
			if k == "" {
				return fmt.Errorf("keybindings.%s: empty key in %q", b.Action, b.Keys)
			}
			if other, ok := bound[k]; ok {
				return fmt.Errorf("keybindings.%s: %q is already bound to %s", b.Action, k, other)
			}
			bound[k] = b.Action
		}
	}
	return nil
}

// KeybindingPair is one configured action.
type KeybindingPair struct {
	Action string
	Keys   string
}

// Pairs lists the configured overrides in a fixed order.
func (kb KeybindingsConfig) Pairs() []KeybindingPair {
	return []KeybindingPair{
		{"search", kb.Search},
		{"refocus", kb.Refocus},
		{"back", kb.Back},
		{"original", kb.Original},
		{"details", kb.Details},
		{"reload", kb.Reload},
		{"next_view", kb.NextView},
		{"prev_view", kb.PrevView},
	}
}

// SplitKeys splits a comma-separated key list, trimming spaces.
func SplitKeys(keys string) []string {
	parts := strings.Split(keys, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ValidateViews checks view configuration for errors.
// Returns nil if views are valid or empty (will use defaults).
func ValidateViews(views []ViewConfig) error {
	seen := make(map[string]bool)
	for i, v := range views {
		if v.Name == "" {
			return fmt.Errorf("view %d: name is required", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("view %d: duplicate name %q", i, v.Name)
		}
		seen[v.Name] = true
		if _, err := kql.Parse(v.Query); err != nil {
			return fmt.Errorf("view %d (%s): invalid query: %w", i, v.Name, err)
		}
	}
	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		AutoRefresh:         true,
		AutoRefreshDebounce: 300 * time.Millisecond,
		Log: LogConfig{
			Level: "info",
		},
		Query: QueryConfig{
			CacheTTL: 5 * time.Minute,
		},
		UI: UIConfig{
			ShowStatusBar: true,
			ShowKeys:      true,
			Mouse:         true,
			MarkdownStyle: "auto",
		},
		Views:   DefaultViews(),
		Tracing: tracing.DefaultConfig(),
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Kinship Configuration

# Document opened when no path is given
# document: ./family.yaml

# Reload the browser when the document changes on disk
auto_refresh: true
auto_refresh_debounce: 300ms

# Debug log (also enabled with --debug)
log:
  # path: ./kinship.log
  level: info  # debug, info, warn, error

# Query engine
query:
  cache_ttl: 5m  # How long compiled queries are cached, 0 disables

# UI settings
ui:
  show_status_bar: true  # Show status bar at bottom
  show_keys: true        # Show child keys next to entry names
  show_ids: false        # Show entry ids
  mouse: true            # Click selects, clicking the selection focuses it
  markdown_style: auto   # Description style: auto, dark, light, notty, ascii

# Theme colors (hex)
# theme:
#   accent: "#54A0FF"
#   muted: "#696969"
#   error: "#FF8787"

# Keybinding overrides, comma-separated
# keybindings:
#   search: "/,ctrl+f"
#   refocus: enter
#   back: backspace
#   original: u
#   details: i
#   reload: r
#   next_view: tab
#   prev_view: shift+tab

# Views - named queries, cycle with tab / shift+tab
views:
  - name: Everything
    query: hierarchy

  - name: Children
    query: children

# View options:
#   name: Display name (required)
#   query: KQL query (required, may be empty for "children")
#   from: Entry path the query runs from (default: root)
#
# KQL Query Syntax:
#   [find|has|assert] {selector} [where filter]
#   Selectors: children siblings descendants parents ancestors hierarchy parent root
#              descendants|hierarchy filtered (filter) / except (filter)
#              "or" unions selectors, "in" is filler
#   Fields: name kind id label key path attr.<key>
#   Operators: = != ~ (contains) !~ in not-in, and or not
#   Examples:
#     descendants where kind = person
#     children or siblings where label in (elder, travels)
#     hierarchy except (kind = place) where name ~ grand

# Tracing (OpenTelemetry spans for document loads and queries)
tracing:
  enabled: false
  exporter: file          # none, file, stdout, otlp
  # file_path: ./traces.jsonl  # default: traces.jsonl next to this file
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
  service_name: kinship
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
