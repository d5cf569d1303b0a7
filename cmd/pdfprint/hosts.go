package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-pdfprint/internal/cdphost"
	"github.com/alnah/go-pdfprint/internal/config"
	"github.com/alnah/go-pdfprint/internal/rodhost"
	"github.com/alnah/go-pdfprint/internal/sink"
	"github.com/alnah/go-pdfprint/internal/spoolhost"
)

// newHost builds the configured surface host. Browser hosts start their
// browser lazily, so this never launches Chrome.
func newHost(cfg *config.Config, out sink.Sink, logger *zap.Logger) (Host, error) {
	timeout, err := cfg.Host.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	logger = logger.Named(cfg.Host.DriverName())

	switch cfg.Host.DriverName() {
	case config.DriverRod:
		return rodhost.New(rodhost.Config{
			BrowserBin: cfg.Host.BrowserBin,
			NoSandbox:  cfg.Host.NoSandbox,
			Timeout:    timeout,
			Sink:       out,
			Logger:     logger,
		}), nil
	case config.DriverChromedp:
		return cdphost.New(cdphost.Config{
			ExecPath:  cfg.Host.BrowserBin,
			RemoteURL: cfg.Host.RemoteURL,
			Download:  cfg.Host.Download,
			NoSandbox: cfg.Host.NoSandbox,
			Timeout:   timeout,
			Sink:      out,
			Logger:    logger,
		})
	case config.DriverSpool:
		return spoolhost.New(spoolhost.Config{
			Dir:          cfg.Host.SpoolDir,
			PrintCommand: cfg.Host.PrintCommand,
			Sink:         out,
			Logger:       logger,
		})
	default:
		return nil, fmt.Errorf("%w: host.driver %q", config.ErrInvalidValue, cfg.Host.Driver)
	}
}
