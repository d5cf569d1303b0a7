package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath   string // PDFPRINT_CONFIG: config file name or path
	Host         string // PDFPRINT_HOST: rod, chromedp, spool
	Output       string // PDFPRINT_OUTPUT: output PDF path
	Timeout      string // PDFPRINT_TIMEOUT: Go duration
	DPI          int    // PDFPRINT_DPI: print resolution
	Layout       string // PDFPRINT_LAYOUT: none, portrait, landscape, fixed
	PrintCommand string // PDFPRINT_PRINT_COMMAND: spool print command, space separated
	SpoolDir     string // PDFPRINT_SPOOL_DIR: spool root
	RemoteURL    string // PDFPRINT_REMOTE_URL: DevTools URL for chromedp
	LogLevel     string // PDFPRINT_LOG_LEVEL: debug, info, warn, error
}

// knownEnvVars lists valid PDFPRINT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"PDFPRINT_CONFIG":        true,
	"PDFPRINT_HOST":          true,
	"PDFPRINT_OUTPUT":        true,
	"PDFPRINT_TIMEOUT":       true,
	"PDFPRINT_DPI":           true,
	"PDFPRINT_LAYOUT":        true,
	"PDFPRINT_PRINT_COMMAND": true,
	"PDFPRINT_SPOOL_DIR":     true,
	"PDFPRINT_REMOTE_URL":    true,
	"PDFPRINT_LOG_LEVEL":     true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed or non-positive numbers are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:   os.Getenv("PDFPRINT_CONFIG"),
		Host:         os.Getenv("PDFPRINT_HOST"),
		Output:       os.Getenv("PDFPRINT_OUTPUT"),
		Timeout:      os.Getenv("PDFPRINT_TIMEOUT"),
		Layout:       os.Getenv("PDFPRINT_LAYOUT"),
		PrintCommand: os.Getenv("PDFPRINT_PRINT_COMMAND"),
		SpoolDir:     os.Getenv("PDFPRINT_SPOOL_DIR"),
		RemoteURL:    os.Getenv("PDFPRINT_REMOTE_URL"),
		LogLevel:     os.Getenv("PDFPRINT_LOG_LEVEL"),
	}

	if dpi := os.Getenv("PDFPRINT_DPI"); dpi != "" {
		if d, err := strconv.Atoi(dpi); err == nil && d > 0 {
			cfg.DPI = d
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized PDFPRINT_* variables.
// Helps catch typos like PDFPRINT_DIP instead of PDFPRINT_DPI.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PDFPRINT_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values over the config file.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Host != "" {
		cfg.Host.Driver = env.Host
	}
	if env.Output != "" {
		cfg.Output.Path = env.Output
	}
	if env.Timeout != "" {
		cfg.Host.Timeout = env.Timeout
	}
	if env.DPI > 0 {
		cfg.Print.Resolution = env.DPI
	}
	if env.Layout != "" {
		cfg.Print.Layout = pdfprint.LayoutMode(env.Layout)
	}
	if env.PrintCommand != "" {
		cfg.Host.PrintCommand = strings.Fields(env.PrintCommand)
	}
	if env.SpoolDir != "" {
		cfg.Host.SpoolDir = env.SpoolDir
	}
	if env.RemoteURL != "" {
		cfg.Host.RemoteURL = env.RemoteURL
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
}
