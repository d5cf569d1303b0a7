package main

import (
	"io"

	flag "github.com/spf13/pflag"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// paramFlags holds the print parameter flags.
type paramFlags struct {
	surfaceID   string
	dpi         int
	rotation    int
	scale       float64
	cssUnits    float64
	dataURL     bool
	noDataURL   bool
	layout      string
	forceRaster bool
	fitFirst    bool
}

// hostFlags holds surface host flags.
type hostFlags struct {
	driver       string
	printCommand []string
	spoolDir     string
	remoteURL    string
	timeout      string
}

// printFlags holds all flags for the print command.
type printFlags struct {
	common commonFlags
	output string
	params paramFlags
	host   hostFlags

	// changed reports whether a flag was set on the command line, so
	// defaults never override config values.
	changed func(name string) bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addParamFlags adds print parameter flags to a FlagSet.
func addParamFlags(fs *flag.FlagSet, f *paramFlags) {
	fs.StringVar(&f.surfaceID, "surface-id", pdfprint.DefaultSurfaceID, "print surface identity")
	fs.IntVarP(&f.dpi, "dpi", "r", pdfprint.DefaultResolution, "print resolution in DPI")
	fs.IntVar(&f.rotation, "rotation", 0, "rotation in degrees (multiples of 90)")
	fs.Float64Var(&f.scale, "scale", pdfprint.DefaultScale, "viewport scale")
	fs.Float64Var(&f.cssUnits, "css-units", pdfprint.DefaultCSSUnits, "display pixels per PDF point")
	fs.BoolVar(&f.dataURL, "data-url", true, "embed page images as data URLs")
	fs.BoolVar(&f.noDataURL, "no-data-url", false, "hand page images over as files")
	fs.StringVarP(&f.layout, "layout", "l", string(pdfprint.LayoutNone), "layout: none, portrait, landscape, fixed")
	fs.BoolVar(&f.forceRaster, "force-raster", false, "rasterize even when the host can embed the PDF")
	fs.BoolVar(&f.fitFirst, "fit-first", false, "fit every page into the first page's size")
}

// addHostFlags adds surface host flags to a FlagSet.
func addHostFlags(fs *flag.FlagSet, f *hostFlags) {
	fs.StringVar(&f.driver, "host", config.DriverRod, "surface host: rod, chromedp, spool")
	fs.StringArrayVar(&f.printCommand, "print-command", nil, "spool print command, one flag per argument")
	fs.StringVar(&f.spoolDir, "spool-dir", "", "spool directory (spool host)")
	fs.StringVar(&f.remoteURL, "remote-url", "", "DevTools URL of a running browser (chromedp host)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "print timeout (e.g., 30s, 2m)")
}

// parsePrintFlags parses print command flags and returns positional args.
func parsePrintFlags(args []string, usage io.Writer) (*printFlags, []string, error) {
	fs := flag.NewFlagSet("print", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &printFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output PDF path")
	addCommonFlags(fs, &f.common)
	addParamFlags(fs, &f.params)
	addHostFlags(fs, &f.host)

	fs.Usage = func() { printPrintUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.changed = fs.Changed

	return f, fs.Args(), nil
}

// mergeFlags applies explicitly set flags over cfg (CLI wins).
func mergeFlags(f *printFlags, cfg *config.Config) {
	p := &f.params
	if f.changed("surface-id") {
		cfg.Print.SurfaceID = p.surfaceID
	}
	if f.changed("dpi") {
		cfg.Print.Resolution = p.dpi
	}
	if f.changed("rotation") {
		cfg.Print.Rotation = p.rotation
	}
	if f.changed("scale") {
		cfg.Print.Scale = p.scale
	}
	if f.changed("css-units") {
		cfg.Print.CSSUnits = p.cssUnits
	}
	if f.changed("data-url") {
		cfg.Print.UseDataURL = p.dataURL
	}
	if f.changed("no-data-url") {
		cfg.Print.UseDataURL = !p.noDataURL
	}
	if f.changed("layout") {
		cfg.Print.Layout = pdfprint.LayoutMode(p.layout)
	}
	if f.changed("force-raster") {
		cfg.Print.ForceRaster = p.forceRaster
	}
	if f.changed("fit-first") {
		cfg.Print.FitToFirstPage = p.fitFirst
	}

	h := &f.host
	if f.changed("host") {
		cfg.Host.Driver = h.driver
	}
	if f.changed("print-command") {
		cfg.Host.PrintCommand = h.printCommand
	}
	if f.changed("spool-dir") {
		cfg.Host.SpoolDir = h.spoolDir
	}
	if f.changed("remote-url") {
		cfg.Host.RemoteURL = h.remoteURL
	}
	if f.changed("timeout") {
		cfg.Host.Timeout = h.timeout
	}
	if f.changed("output") {
		cfg.Output.Path = f.output
	}

	switch {
	case f.common.verbose:
		cfg.Log.Level = config.LevelDebug
	case f.common.quiet:
		cfg.Log.Level = config.LevelError
	}
}
