package main

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/config"
	"github.com/alnah/go-pdfprint/internal/mupdf"
	"github.com/alnah/go-pdfprint/internal/pdfinfo"
	"github.com/alnah/go-pdfprint/internal/sink"
)

// Host is a surface host the CLI owns and must close.
type Host interface {
	pdfprint.SurfaceHost
	Close() error
}

// HostFactory builds the host named by cfg.Host.Driver.
type HostFactory func(cfg *config.Config, out sink.Sink, logger *zap.Logger) (Host, error)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, and the adapters behind the print pipeline.
type Environment struct {
	Now         func() time.Time
	Stdout      io.Writer
	Stderr      io.Writer
	NewRenderer func() pdfprint.PageRenderer
	NewHost     HostFactory
	Inspector   *pdfinfo.Inspector
}

// DefaultEnv returns the production environment: MuPDF rendering, pdfcpu
// inspection, and hosts chosen from config.
func DefaultEnv() *Environment {
	return &Environment{
		Now:         time.Now,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		NewRenderer: func() pdfprint.PageRenderer { return mupdf.New() },
		NewHost:     newHost,
		Inspector:   pdfinfo.New(),
	}
}
