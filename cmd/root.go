// Package cmd implements the kinship command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/kinship/internal/config"
	"github.com/zjrosen/kinship/internal/document"
	"github.com/zjrosen/kinship/internal/log"
	"github.com/zjrosen/kinship/internal/tracing"
	"github.com/zjrosen/kinship/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in the query input.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

// defaultConfigPath is where a config is created when none is found.
const defaultConfigPath = ".kinship/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugMode bool
	logPath   string
	cfg       config.Config
	cfgErr    error
	logClose  func()

	traceProvider *tracing.Provider
	commandSpan   trace.Span
)

var rootCmd = &cobra.Command{
	Use:   "kinship [document]",
	Short: "Browse and query tree documents",
	Long: `Browse and query YAML tree documents.

A document is a tree of named entries. Each entry may carry a kind, labels,
attributes and a "children" mapping of further entries:

  name: GrandPa
  kind: person
  children:
    mom:
      name: Mom
      children:
        you: { name: You }

Without a subcommand kinship opens the interactive browser.`,
	Version:      version,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runBrowse,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnFinalize(finish)
	rootCmd.PersistentPreRunE = setup

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .kinship/config.yaml or ~/.config/kinship/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "",
		"debug log file (default: kinship.log with --debug)")
	rootCmd.Flags().Bool("no-auto-refresh", false,
		"disable automatic reload when the document changes")

	_ = viper.BindPFlag("log.path", rootCmd.PersistentFlags().Lookup("log"))
}

func initConfig() {
	viper.SetEnvPrefix("KINSHIP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	defaults := config.Defaults()
	viper.SetDefault("auto_refresh", defaults.AutoRefresh)
	viper.SetDefault("auto_refresh_debounce", defaults.AutoRefreshDebounce)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("query.cache_ttl", defaults.Query.CacheTTL)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.show_keys", defaults.UI.ShowKeys)
	viper.SetDefault("ui.show_ids", defaults.UI.ShowIDs)
	viper.SetDefault("ui.mouse", defaults.UI.Mouse)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .kinship/config.yaml (current directory)
		// 2. ~/.config/kinship/config.yaml (user config)
		if _, err := os.Stat(defaultConfigPath); err == nil {
			viper.SetConfigFile(defaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "kinship"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			// No config file - create a default one
			path := cfgFile
			if path == "" {
				path = defaultConfigPath
			}
			if writeErr := config.WriteDefaultConfig(path); writeErr == nil {
				viper.SetConfigFile(path)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		default:
			cfgErr = fmt.Errorf("reading config: %w", err)
			return
		}
	}

	cfg = config.Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		cfgErr = fmt.Errorf("decoding config: %w", err)
		return
	}
	cfgErr = nil
}

// setup validates the loaded config, starts logging and applies the theme.
func setup(cmd *cobra.Command, _ []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", configPath(), err)
	}

	if debugMode || cfg.Log.Path != "" {
		path := cfg.Log.Path
		if path == "" {
			path = "kinship.log"
		}
		var (
			cleanup func()
			err     error
		)
		if cmd == browseCmd || cmd == rootCmd {
			cleanup, err = log.InitWithTeaLog(path, "kinship")
		} else {
			cleanup, err = log.Init(path)
		}
		if err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
		logClose = cleanup

		level, _ := log.ParseLevel(cfg.Log.Level)
		if debugMode {
			level = log.LevelDebug
		}
		log.SetMinLevel(level)
	}

	if err := startTracing(cmd); err != nil {
		return err
	}

	styles.ApplyTheme(cfg.Theme.Accent, cfg.Theme.Muted, cfg.Theme.Error)
	log.Debug(log.CatCLI, "Starting command", "command", cmd.CommandPath(), "config", configPath())
	return nil
}

// startTracing installs the tracer provider and opens a span covering the
// whole command. The file exporter defaults to traces.jsonl next to the
// config file.
func startTracing(cmd *cobra.Command) error {
	tcfg := cfg.Tracing
	if tcfg.Enabled && tcfg.Exporter == tracing.ExporterFile && tcfg.FilePath == "" {
		tcfg.FilePath = filepath.Join(filepath.Dir(configPath()), "traces.jsonl")
	}
	provider, err := tracing.NewProvider(tcfg)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	traceProvider = provider

	ctx, span := tracing.Start(cmd.Context(), tracing.SpanPrefixCLI+cmd.Name(),
		attribute.String(tracing.AttrCommand, cmd.CommandPath()))
	commandSpan = span
	cmd.SetContext(ctx)
	if provider.Enabled() {
		log.Debug(log.CatCLI, "Tracing enabled", "exporter", tcfg.Exporter)
	}
	return nil
}

// finish ends the command span, flushes traces and closes the log.
func finish() {
	if commandSpan != nil {
		commandSpan.End()
		commandSpan = nil
	}
	if traceProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := traceProvider.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatCLI, "Flushing traces failed", err)
		}
		cancel()
		traceProvider = nil
	}
	if logClose != nil {
		logClose()
		logClose = nil
	}
}

// configPath returns the config file in use, where saved views are written.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return defaultConfigPath
}

// documentPath picks the document argument, falling back to the configured
// default document.
func documentPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Document != "" {
		return cfg.Document, nil
	}
	return "", errors.New("no document given and no default document configured")
}

func loadDocument(ctx context.Context, path string) (*document.Entry, error) {
	_, span := tracing.Start(ctx, tracing.SpanDocumentLoad, attribute.String(tracing.AttrDocumentPath, path))
	doc, err := document.Load(path)
	if err != nil {
		err = fmt.Errorf("loading %s: %w", path, err)
		tracing.End(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(tracing.AttrEntryCount, len(document.Flatten(doc))))
	tracing.End(span, nil)
	return doc, nil
}

func saveDocument(ctx context.Context, path string, doc *document.Entry) error {
	_, span := tracing.Start(ctx, tracing.SpanDocumentSave, attribute.String(tracing.AttrDocumentPath, path))
	err := document.Save(path, doc)
	tracing.End(span, err)
	return err
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
