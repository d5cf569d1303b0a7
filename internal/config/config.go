package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/fileutil"
	"github.com/alnah/go-pdfprint/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength      = 4096
	MaxURLLength       = 2048 // Browser limit
	MaxSurfaceIDLength = 100
	MaxCommandArgs     = 32
)

// Host drivers.
const (
	DriverRod      = "rod"
	DriverChromedp = "chromedp"
	DriverSpool    = "spool"
)

// Log levels.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config holds all configuration for a print run.
type Config struct {
	Print  pdfprint.PrintParameters `yaml:"print"`
	Host   HostConfig               `yaml:"host"`
	Output OutputConfig             `yaml:"output"`
	Log    LogConfig                `yaml:"log"`
}

// HostConfig selects and configures the surface host.
type HostConfig struct {
	Driver     string `yaml:"driver"`     // rod, chromedp, spool (default: rod)
	BrowserBin string `yaml:"browserBin"` // Chrome binary (rod, chromedp)
	NoSandbox  bool   `yaml:"noSandbox"`
	RemoteURL  string `yaml:"remoteURL"` // DevTools URL of a running browser (chromedp)
	Download   bool   `yaml:"download"`  // fetch a managed Chromium (chromedp)
	Timeout    string `yaml:"timeout"`   // Go duration, e.g. "45s"

	SpoolDir     string   `yaml:"spoolDir"`     // spool root (spool)
	PrintCommand []string `yaml:"printCommand"` // e.g. ["lp", "-d", "office"] (spool)
}

// OutputConfig defines where printed PDFs go.
type OutputConfig struct {
	Path string `yaml:"path"` // Empty = <input stem>.printed.pdf
}

// LogConfig defines logging options.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: warn)
}

// Validate checks every section.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("print.surfaceId", c.Print.SurfaceID, MaxSurfaceIDLength); err != nil {
		return err
	}
	if err := c.Print.Validate(); err != nil {
		return fmt.Errorf("print: %w", err)
	}

	switch strings.ToLower(c.Host.Driver) {
	case "", DriverRod, DriverChromedp, DriverSpool:
		// valid
	default:
		return fmt.Errorf("%w: host.driver %q (must be rod, chromedp, or spool)", ErrInvalidValue, c.Host.Driver)
	}
	if err := validateFieldLength("host.browserBin", c.Host.BrowserBin, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("host.remoteURL", c.Host.RemoteURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("host.spoolDir", c.Host.SpoolDir, MaxPathLength); err != nil {
		return err
	}
	if len(c.Host.PrintCommand) > MaxCommandArgs {
		return fmt.Errorf("%w: host.printCommand (%d args, max %d)", ErrFieldTooLong, len(c.Host.PrintCommand), MaxCommandArgs)
	}
	if _, err := c.Host.TimeoutDuration(); err != nil {
		return err
	}

	if err := validateFieldLength("output.path", c.Output.Path, MaxPathLength); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "", LevelDebug, LevelInfo, LevelWarn, LevelError:
		// valid
	default:
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}

	return nil
}

// TimeoutDuration parses Timeout. Empty means no timeout (zero).
func (h HostConfig) TimeoutDuration() (time.Duration, error) {
	if h.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(h.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: host.timeout %q: %v", ErrInvalidValue, h.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: host.timeout %q (must be positive)", ErrInvalidValue, h.Timeout)
	}
	return d, nil
}

// DriverName returns the normalized driver, defaulting to rod.
func (h HostConfig) DriverName() string {
	if h.Driver == "" {
		return DriverRod
	}
	return strings.ToLower(h.Driver)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns default print parameters on the rod host.
func DefaultConfig() *Config {
	return &Config{
		Print: *pdfprint.DefaultPrintParameters(),
		Host:  HostConfig{Driver: DriverRod},
		Log:   LogConfig{Level: LevelWarn},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values missing from the file keep their defaults.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg := DefaultConfig()
	if err := yamlutil.DecodeStrict(f, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-pdfprint/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-pdfprint", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
