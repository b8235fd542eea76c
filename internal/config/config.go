package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/fds-extractor/internal/hazard"
	"github.com/a3tai/fds-extractor/internal/pdf"
	"github.com/a3tai/fds-extractor/internal/pictogram"
	"github.com/a3tai/fds-extractor/internal/report"
)

// Command selects the flag set and positional arguments parsed by Load
type Command string

const (
	CommandExtract    Command = "fds-extractor"
	CommandPictograms Command = "fds-pictograms"
	CommandMCP        Command = "fds-mcp"
)

const (
	// Default values
	DefaultFormat      = string(report.FormatJSON)
	DefaultMode        = string(pdf.ModeMapped)
	DefaultFilter      = string(hazard.FilterPictogram)
	DefaultPages       = "0"
	DefaultWorkers     = 1
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultServerName  = "fds-extractor"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "FDS"
)

// ErrVersionRequested is returned by Load when --version was given
var ErrVersionRequested = errors.New("version requested")

// Config holds the settings of one run
type Config struct {
	Command Command

	// Inputs
	InputDir    string
	MappingFile string
	OutputDir   string
	ConfigFile  string

	// Text scanning
	Format           string
	Mode             string
	Filter           string
	Pages            string
	Workers          int
	MappingDelimiter string

	// Product identifiers read from the first page
	ProductData bool
	NameLabel   string
	CodeLabel   string
	UFILabel    string

	// Pictogram matching
	PictogramDir string
	ExtractDir   string
	Strategy     string
	Threshold    float64
	MinWidth     int
	MinHeight    int
	SkipGray     bool
	RenderPages  bool
	DPI          int
	Pdftoppm     string

	// MCP tool shell
	RootDir    string
	ServerName string

	// Application configuration
	Version     string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig(cmd Command) *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	filter := pdf.DefaultImageFilter()
	labels := pdf.DefaultProductLabels()
	return &Config{
		Command:          cmd,
		Format:           DefaultFormat,
		Mode:             DefaultMode,
		Filter:           DefaultFilter,
		Pages:            DefaultPages,
		Workers:          DefaultWorkers,
		MappingDelimiter: string(hazard.DefaultMappingDelimiter),
		NameLabel:        labels.Name,
		CodeLabel:        labels.Code,
		UFILabel:         labels.UFI,
		Strategy:         pictogram.StrategyDescriptor,
		MinWidth:         filter.MinWidth,
		MinHeight:        filter.MinHeight,
		SkipGray:         filter.SkipGray,
		DPI:              pdf.DefaultDPI,
		Pdftoppm:         pdf.DefaultPdftoppm,
		RootDir:          currentDir,
		ServerName:       DefaultServerName,
		Version:          "1.0.0",
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
	}
}

// Load parses args (without the program name) for cmd. Precedence is flag,
// then FDS_* environment variable, then the --config file, then default.
func Load(cmd Command, args []string) (*Config, error) {
	cfg := DefaultConfig(cmd)

	v := viper.New()
	setupViperEnvironment(v, cfg)

	fs := pflag.NewFlagSet(string(cmd), pflag.ContinueOnError)
	defineCommandLineFlags(fs, cfg)
	setupUsageMessage(fs, cmd)
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if ok, _ := fs.GetBool("version"); ok {
		return nil, ErrVersionRequested
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	populateConfigFromViper(v, cfg)
	if err := cfg.setPositional(fs.Args()); err != nil {
		fs.Usage()
		return nil, err
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("format", cfg.Format)
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("filter", cfg.Filter)
	v.SetDefault("pages", cfg.Pages)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("mapping-delimiter", cfg.MappingDelimiter)
	v.SetDefault("name-label", cfg.NameLabel)
	v.SetDefault("code-label", cfg.CodeLabel)
	v.SetDefault("ufi-label", cfg.UFILabel)
	v.SetDefault("strategy", cfg.Strategy)
	v.SetDefault("min-width", cfg.MinWidth)
	v.SetDefault("min-height", cfg.MinHeight)
	v.SetDefault("skip-gray", cfg.SkipGray)
	v.SetDefault("dpi", cfg.DPI)
	v.SetDefault("pdftoppm", cfg.Pdftoppm)
	v.SetDefault("dir", cfg.RootDir)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
}

func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolP("version", "v", false, "Print version information and exit")
	fs.String("config", "", "Optional YAML configuration file")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")

	if cfg.Command == CommandMCP {
		fs.String("dir", cfg.RootDir, "Directory the tools are allowed to read")
		defineScanFlags(fs, cfg)
		return
	}

	fs.Int("workers", cfg.Workers, "Number of documents processed in parallel")
	fs.String("extract-dir", "", "Keep extracted images under this directory (default: temporary)")
	definePictogramFlags(fs, cfg)

	if cfg.Command == CommandExtract {
		fs.String("format", cfg.Format, "Output format (json, csv, xlsx)")
		fs.String("output", "", "Directory for csv/xlsx output (default: input folder)")
		fs.String("pictograms", "", "Folder of reference pictograms; enables image matching")
		defineScanFlags(fs, cfg)
	}
}

func defineScanFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Scan mode: 'mapped' reports categories, 'raw' reports hazard codes")
	fs.String("filter", cfg.Filter, "Mapping entries searched in mapped mode (pictogram, text, all)")
	fs.String("pages", cfg.Pages, "Zero-based pages to scan, comma separated, or 'all'")
	fs.String("mapping-delimiter", cfg.MappingDelimiter, "Column delimiter of the mapping file")
	fs.Bool("product-data", false, "Read product name, code and UFI from the first page")
	fs.String("name-label", cfg.NameLabel, "Label preceding the product name")
	fs.String("code-label", cfg.CodeLabel, "Label preceding the product code")
	fs.String("ufi-label", cfg.UFILabel, "Label preceding the UFI")
}

func definePictogramFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("strategy", cfg.Strategy, "Image comparison strategy (descriptor, pixel, template)")
	fs.Float64("threshold", 0, "Match threshold in [0,1); 0 uses the strategy default")
	fs.Int("min-width", cfg.MinWidth, "Ignore embedded images narrower than this")
	fs.Int("min-height", cfg.MinHeight, "Ignore embedded images shorter than this")
	fs.Bool("skip-gray", cfg.SkipGray, "Ignore DeviceGray embedded images")
	fs.Bool("render-pages", false, "Also compare rendered pages (requires pdftoppm)")
	fs.Int("dpi", cfg.DPI, "Resolution of rendered pages")
	fs.String("pdftoppm", cfg.Pdftoppm, "Path to the pdftoppm binary")
}

func setupUsageMessage(fs *pflag.FlagSet, cmd Command) {
	fs.Usage = func() {
		out := fs.Output()
		switch cmd {
		case CommandExtract:
			fmt.Fprintf(out, "Usage: %s [flags] <input-folder> <mapping.csv>\n", cmd)
			fmt.Fprintf(out, "\nExtracts hazard labels from safety data sheet PDFs\n\n")
		case CommandPictograms:
			fmt.Fprintf(out, "Usage: %s [flags] <input-folder> <pictogram-folder>\n", cmd)
			fmt.Fprintf(out, "\nReports the hazard pictograms found in safety data sheet PDFs\n\n")
		case CommandMCP:
			fmt.Fprintf(out, "Usage: %s [flags]\n", cmd)
			fmt.Fprintf(out, "\nServes the extractor as MCP tools over stdio\n\n")
		}
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		fmt.Fprintf(out, "  %s_<FLAG>  any flag, upper case with '-' as '_' (e.g. %s_MIN_WIDTH)\n", envPrefix, envPrefix)
	}
}

func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.ConfigFile = v.GetString("config")
	cfg.LogLevel = strings.ToLower(v.GetString("loglevel"))
	cfg.MaxFileSize = v.GetInt64("maxfilesize")

	cfg.Format = v.GetString("format")
	cfg.Mode = v.GetString("mode")
	cfg.Filter = v.GetString("filter")
	cfg.Pages = v.GetString("pages")
	cfg.Workers = v.GetInt("workers")
	cfg.MappingDelimiter = v.GetString("mapping-delimiter")
	cfg.ProductData = v.GetBool("product-data")
	cfg.NameLabel = v.GetString("name-label")
	cfg.CodeLabel = v.GetString("code-label")
	cfg.UFILabel = v.GetString("ufi-label")
	cfg.OutputDir = v.GetString("output")

	cfg.PictogramDir = v.GetString("pictograms")
	cfg.ExtractDir = v.GetString("extract-dir")
	cfg.Strategy = v.GetString("strategy")
	cfg.Threshold = v.GetFloat64("threshold")
	cfg.MinWidth = v.GetInt("min-width")
	cfg.MinHeight = v.GetInt("min-height")
	cfg.SkipGray = v.GetBool("skip-gray")
	cfg.RenderPages = v.GetBool("render-pages")
	cfg.DPI = v.GetInt("dpi")
	cfg.Pdftoppm = v.GetString("pdftoppm")

	cfg.RootDir = v.GetString("dir")
}

func (c *Config) setPositional(args []string) error {
	switch c.Command {
	case CommandExtract:
		if len(args) != 2 {
			return fmt.Errorf("expected <input-folder> <mapping.csv>, got %d argument(s)", len(args))
		}
		c.InputDir, c.MappingFile = args[0], args[1]
	case CommandPictograms:
		if len(args) != 2 {
			return fmt.Errorf("expected <input-folder> <pictogram-folder>, got %d argument(s)", len(args))
		}
		c.InputDir, c.PictogramDir = args[0], args[1]
	case CommandMCP:
		if len(args) != 0 {
			return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
		}
	default:
		return fmt.Errorf("unknown command %q", c.Command)
	}
	return nil
}

func (c *Config) expandPaths() {
	for _, p := range []*string{&c.InputDir, &c.MappingFile, &c.OutputDir, &c.PictogramDir, &c.ExtractDir, &c.RootDir} {
		if *p == "" {
			continue
		}
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}
	if c.OutputDir == "" {
		c.OutputDir = c.InputDir
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	switch c.Command {
	case CommandExtract:
		if err := c.validateScan(); err != nil {
			return err
		}
		if _, err := report.ParseFormat(c.Format); err != nil {
			return err
		}
		if err := requireDir("input folder", c.InputDir); err != nil {
			return err
		}
		if err := requireFile("mapping file", c.MappingFile); err != nil {
			return err
		}
		if c.PictogramDir != "" {
			if err := requireDir("pictogram folder", c.PictogramDir); err != nil {
				return err
			}
			if err := c.validatePictograms(); err != nil {
				return err
			}
		}
		if c.OutputDir != "" {
			if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
			}
		}
		return c.validateWorkers()
	case CommandPictograms:
		if err := requireDir("input folder", c.InputDir); err != nil {
			return err
		}
		if err := requireDir("pictogram folder", c.PictogramDir); err != nil {
			return err
		}
		if err := c.validatePictograms(); err != nil {
			return err
		}
		return c.validateWorkers()
	case CommandMCP:
		if err := c.validateScan(); err != nil {
			return err
		}
		return requireDir("directory", c.RootDir)
	default:
		return fmt.Errorf("unknown command %q", c.Command)
	}
}

func (c *Config) validateScan() error {
	if _, err := pdf.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := hazard.ParseFilter(c.Filter); err != nil {
		return err
	}
	if _, err := pdf.ParsePages(c.Pages); err != nil {
		return err
	}
	if _, err := c.Delimiter(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePictograms() error {
	if _, err := pictogram.NewStrategy(c.Strategy); err != nil {
		return err
	}
	if c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("threshold must be in [0,1), got %g", c.Threshold)
	}
	if c.MinWidth < 0 || c.MinHeight < 0 {
		return errors.New("minimum image size cannot be negative")
	}
	if c.RenderPages && c.DPI <= 0 {
		return errors.New("dpi must be positive")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	return nil
}

// Delimiter returns the mapping delimiter as a single rune
func (c *Config) Delimiter() (rune, error) {
	if utf8.RuneCountInString(c.MappingDelimiter) != 1 {
		return 0, fmt.Errorf("mapping delimiter must be a single character, got %q", c.MappingDelimiter)
	}
	r, _ := utf8.DecodeRuneInString(c.MappingDelimiter)
	return r, nil
}

// ProductLabels returns the identifier labels, or nil when product data is off
func (c *Config) ProductLabels() *pdf.ProductLabels {
	if !c.ProductData {
		return nil
	}
	return &pdf.ProductLabels{Name: c.NameLabel, Code: c.CodeLabel, UFI: c.UFILabel}
}

// SlogLevel converts LogLevel for log/slog
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
}

// ImageFilter returns the pre-filter applied to embedded images
func (c *Config) ImageFilter() pdf.ImageFilter {
	return pdf.ImageFilter{MinWidth: c.MinWidth, MinHeight: c.MinHeight, SkipGray: c.SkipGray}
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Command: %s, InputDir: %s, MappingFile: %s, Format: %s, Mode: %s, Filter: %s, "+
		"Pages: %s, Workers: %d, PictogramDir: %s, Strategy: %s, Threshold: %g, LogLevel: %s, MaxFileSize: %d}",
		c.Command, c.InputDir, c.MappingFile, c.Format, c.Mode, c.Filter,
		c.Pages, c.Workers, c.PictogramDir, c.Strategy, c.Threshold, c.LogLevel, c.MaxFileSize)
}

func requireDir(what, path string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s %s: %w", what, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %s is not a directory", what, path)
	}
	return nil
}

func requireFile(what, path string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s %s: %w", what, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s %s is a directory", what, path)
	}
	return nil
}
