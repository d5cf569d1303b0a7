package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/cdphost"
	"github.com/alnah/go-pdfprint/internal/config"
	"github.com/alnah/go-pdfprint/internal/fileutil"
	"github.com/alnah/go-pdfprint/internal/hints"
	"github.com/alnah/go-pdfprint/internal/rodhost"
	"github.com/alnah/go-pdfprint/internal/sink"
	"github.com/alnah/go-pdfprint/internal/spoolhost"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput        = errors.New("no input specified")
	ErrTooManyInputs  = errors.New("print takes exactly one input")
	ErrUnknownCommand = errors.New("unknown command")
)

// printedSuffix names default output files: report.pdf -> report.printed.pdf.
const printedSuffix = ".printed.pdf"

// runPrint prints one document and reports page progress.
func runPrint(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parsePrintFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	input, err := singleInput(positional)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(flags, env)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, cfg.Log.Level)
	defer func() { _ = logger.Sync() }()

	out := outputSink(cfg, input)
	host, err := env.NewHost(cfg, out, logger)
	if err != nil {
		return fmt.Errorf("creating %s host: %w", cfg.Host.DriverName(), err)
	}
	defer func() {
		if err := host.Close(); err != nil {
			logger.Warn("closing host", zap.Error(err))
		}
	}()

	opts := []pdfprint.Option{pdfprint.WithLogger(logger)}
	if env.Inspector != nil {
		opts = append(opts, pdfprint.WithInspector(env.Inspector))
	}
	if timeout, _ := cfg.Host.TimeoutDuration(); timeout > 0 {
		opts = append(opts, pdfprint.WithTimeout(timeout))
	}
	printer, err := pdfprint.NewPrinter(env.NewRenderer(), host, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = printer.Close() }()

	quiet := flags.common.quiet
	if !quiet {
		unsubscribe := printer.OnProgress(func(ev pdfprint.ProgressEvent) {
			fmt.Fprintf(env.Stderr, "page %d/%d\n", ev.Index, ev.TotalCount)
		})
		defer unsubscribe()
	}

	start := env.Now()
	if err := printer.PrintDocument(ctx, pdfprint.Source{Locator: input}, &cfg.Print); err != nil {
		return withHint(err, cfg)
	}

	if !quiet {
		fmt.Fprintf(env.Stdout, "printed %s via %s in %v%s\n",
			input, cfg.Host.DriverName(), env.Now().Sub(start).Round(time.Millisecond), describeOutput(out))
	}
	return nil
}

// singleInput returns the one positional argument print accepts.
func singleInput(positional []string) (string, error) {
	switch len(positional) {
	case 0:
		return "", ErrNoInput
	case 1:
		return positional[0], nil
	default:
		return "", fmt.Errorf("%w: got %d", ErrTooManyInputs, len(positional))
	}
}

// resolveConfig layers config file, environment and flags, then validates.
func resolveConfig(flags *printFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	name := flags.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(triedPaths(err)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// triedPaths extracts the search list from a config-not-found error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// outputSink picks where the printed PDF goes. Without an explicit path,
// browser hosts write next to the working directory and a spool host with a
// print command hands off to the printer only.
func outputSink(cfg *config.Config, input string) sink.Sink {
	if cfg.Output.Path != "" {
		return &sink.File{Path: cfg.Output.Path}
	}
	if cfg.Host.DriverName() == config.DriverSpool && len(cfg.Host.PrintCommand) > 0 {
		return sink.Discard{}
	}
	return &sink.File{Path: defaultOutputPath(input)}
}

// defaultOutputPath derives "<stem>.printed.pdf" from a path or URL.
// Data URLs and bare hosts fall back to "document".
func defaultOutputPath(input string) string {
	var base string
	switch {
	case strings.HasPrefix(input, "data:"):
	case fileutil.IsURL(input):
		if u, err := url.Parse(input); err == nil && strings.Trim(u.Path, "/") != "" {
			base = path.Base(u.Path)
		}
	default:
		base = filepath.Base(input)
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		stem = "document"
	}
	return stem + printedSuffix
}

func describeOutput(out sink.Sink) string {
	if f, ok := out.(*sink.File); ok {
		return " -> " + f.Path
	}
	return ""
}

// withHint appends advice for the errors users can act on.
func withHint(err error, cfg *config.Config) error {
	var hint string
	switch {
	case errors.Is(err, pdfprint.ErrStrategyUnsupported):
		hint = hints.ForStrategyUnsupported(cfg.Print.ForceRaster)
	case errors.Is(err, pdfprint.ErrDocumentDecode):
		hint = hints.ForDocumentDecode()
	case errors.Is(err, spoolhost.ErrPrintCommand):
		hint = hints.ForPrintCommand()
	case errors.Is(err, rodhost.ErrBrowserConnect), errors.Is(err, cdphost.ErrBrowserStart):
		hint = hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		hint = hints.ForTimeout()
	case errors.Is(err, os.ErrPermission):
		hint = hints.ForOutputDirectory()
	}
	if hint == "" {
		return err
	}
	return fmt.Errorf("%w%s", err, hint)
}
