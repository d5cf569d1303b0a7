// Package spoolhost prints through a spool directory: every surface is a
// directory holding the document to print, which is handed to an optional
// print command and then delivered to a sink.
package spoolhost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/fileutil"
	"github.com/alnah/go-pdfprint/internal/process"
	"github.com/alnah/go-pdfprint/internal/sink"
)

const (
	dirPermissions  = 0o750
	filePermissions = 0o600

	surfacePrefix = "surface-"
	documentName  = "document.pdf"
	containerName = "index.html"
)

// Sentinel errors.
var (
	ErrNotMounted       = errors.New("nothing mounted on surface")
	ErrUnsupportedImage = errors.New("unsupported page image source")
	ErrForeignSurface   = errors.New("surface was not created by this host")
	ErrPrintCommand     = errors.New("print command failed")
)

var disableConfigDir sync.Once

// Compile-time interface implementation check.
var _ pdfprint.SurfaceHost = (*Host)(nil)

// Config configures a Host.
type Config struct {
	Dir          string      // spool root; empty = a new temp dir
	PrintCommand []string    // run with the spooled PDF appended; empty = none
	Sink         sink.Sink   // receives the printed PDF; nil = discard
	Logger       *zap.Logger // nil = no logging
}

// Host is a pdfprint.SurfaceHost backed by spool directories.
type Host struct {
	dir     string
	command []string
	sink    sink.Sink
	logger  *zap.Logger
	conf    *model.Configuration
	ownsDir bool
}

// New creates a spool host.
func New(cfg Config) (*Host, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	h := &Host{
		dir:     cfg.Dir,
		command: cfg.PrintCommand,
		sink:    cfg.Sink,
		logger:  cfg.Logger,
		conf:    model.NewDefaultConfiguration(),
	}
	if h.sink == nil {
		h.sink = sink.Discard{}
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}

	if h.dir == "" {
		dir, err := os.MkdirTemp("", "pdfprint-spool-*")
		if err != nil {
			return nil, fmt.Errorf("creating spool dir: %w", err)
		}
		h.dir, h.ownsDir = dir, true
	} else if err := os.MkdirAll(h.dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating spool dir: %w", err)
	}
	return h, nil
}

// Dir returns the spool root.
func (h *Host) Dir() string { return h.dir }

// Close removes the spool root if the host created it.
func (h *Host) Close() error {
	if !h.ownsDir {
		return nil
	}
	return os.RemoveAll(h.dir)
}

// Capabilities reports native embed and raster support. Page images may be
// files.
func (h *Host) Capabilities() pdfprint.HostCapabilities {
	return pdfprint.HostCapabilities{
		SupportsNativeEmbed: true,
		SupportsRaster:      true,
		SupportsBlobOutput:  true,
	}
}

// surface is a spool directory.
type surface struct {
	id  string
	dir string
}

func (s *surface) ID() string { return s.id }

// surfaceDir maps id to its own directory directly under the spool root.
// The hex form keeps every id, including "", "..", and ids with separators,
// distinct and inside the root.
func (h *Host) surfaceDir(id string) string {
	return filepath.Join(h.dir, surfacePrefix+hex.EncodeToString([]byte(id)))
}

// Create makes an empty spool directory for id.
func (h *Host) Create(ctx context.Context, id string) (pdfprint.Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := h.surfaceDir(id)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating spool surface: %w", err)
	}
	return &surface{id: id, dir: dir}, nil
}

// DestroyIfExists removes whatever is spooled under id.
func (h *Host) DestroyIfExists(_ context.Context, id string) error {
	return os.RemoveAll(h.surfaceDir(id))
}

// Teardown removes the surface's spool directory.
func (h *Host) Teardown(_ context.Context, s pdfprint.Surface) error {
	sf, err := h.own(s)
	if err != nil {
		return err
	}
	return os.RemoveAll(sf.dir)
}

// Mount spools the document: the embedded PDF as is, or the raster pages
// imported into a new PDF at the container's page size.
func (h *Host) Mount(ctx context.Context, s pdfprint.Surface, c *pdfprint.Content) error {
	sf, err := h.own(s)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var pdf []byte
	switch {
	case c.EmbedURL != "":
		pdf, err = readEmbed(c.EmbedURL)
	case len(c.Pages) > 0:
		pdf, err = h.assemble(c)
	default:
		return fmt.Errorf("%w: content has no document and no pages", pdfprint.ErrSurfaceUnavailable)
	}
	if err != nil {
		return err
	}

	if c.HTML != "" {
		if err := os.WriteFile(filepath.Join(sf.dir, containerName), []byte(c.HTML), filePermissions); err != nil {
			return fmt.Errorf("spooling container: %w", err)
		}
	}
	if err := os.WriteFile(filepath.Join(sf.dir, documentName), pdf, filePermissions); err != nil {
		return fmt.Errorf("spooling document: %w", err)
	}
	h.logger.Debug("document spooled", zap.String("surface", sf.id), zap.Int("bytes", len(pdf)))
	return nil
}

// Print runs the print command on the spooled PDF and delivers it to the sink.
func (h *Host) Print(ctx context.Context, s pdfprint.Surface) error {
	sf, err := h.own(s)
	if err != nil {
		return err
	}

	path := filepath.Join(sf.dir, documentName)
	pdf, err := os.ReadFile(path) // #nosec G304 -- path is inside our spool dir
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotMounted
		}
		return err
	}

	if len(h.command) > 0 {
		if err := h.runCommand(ctx, path); err != nil {
			return err
		}
	}
	return h.sink.Write(ctx, pdf)
}

func (h *Host) runCommand(ctx context.Context, path string) error {
	args := append(append([]string(nil), h.command[1:]...), path)
	// #nosec G204 -- the print command is operator configuration
	cmd := exec.CommandContext(ctx, h.command[0], args...)
	process.Isolate(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	h.logger.Info("sending to printer", zap.Strings("command", h.command), zap.String("file", path))
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%w: %s: %v", ErrPrintCommand, h.command[0], err)
		}
		return fmt.Errorf("%w: %s: %v: %s", ErrPrintCommand, h.command[0], err, msg)
	}
	return nil
}

func (h *Host) own(s pdfprint.Surface) (*surface, error) {
	sf, ok := s.(*surface)
	if !ok || sf == nil {
		return nil, ErrForeignSurface
	}
	return sf, nil
}

// assemble imports every page image into one PDF. Pages share the largest
// page size, images centered and fitted like the print stylesheet does.
func (h *Host) assemble(c *pdfprint.Content) ([]byte, error) {
	readers := make([]io.Reader, 0, len(c.Pages))
	for _, p := range c.Pages {
		data, err := OpenImage(p.Src)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p.Index, err)
		}
		readers = append(readers, bytes.NewReader(data))
	}

	imp := pdfcpu.DefaultImportConfig()
	if c.PageWidth > 0 && c.PageHeight > 0 {
		imp.PageDim = &types.Dim{Width: c.PageWidth, Height: c.PageHeight}
		imp.UserDim = true
	}
	imp.Pos = types.Center
	imp.Scale = 1
	imp.ScaleAbs = false

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, imp, h.conf); err != nil {
		return nil, fmt.Errorf("assembling page images: %w", err)
	}
	return out.Bytes(), nil
}

// OpenImage returns the bytes behind a page image source: a base64 data URL
// or a file:// URL.
func OpenImage(src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		comma := strings.IndexByte(src, ',')
		if comma < 0 || !strings.HasSuffix(src[:comma], ";base64") {
			return nil, fmt.Errorf("%w: data URL is not base64", ErrUnsupportedImage)
		}
		return base64.StdEncoding.DecodeString(src[comma+1:])
	case strings.HasPrefix(src, "file://"):
		path, err := fileutil.PathFromFileURL(src)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(path) // #nosec G304 -- page images are our own temp files
	default:
		return nil, fmt.Errorf("%w: %.32q", ErrUnsupportedImage, src)
	}
}

func readEmbed(embedURL string) ([]byte, error) {
	path, err := fileutil.PathFromFileURL(embedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pdfprint.ErrSourceLoad, err)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- document the caller asked to print
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pdfprint.ErrSourceLoad, err)
	}
	return data, nil
}
