package pdfprint

// HostCapabilities describes what a SurfaceHost can do. Hosts report it
// explicitly instead of the pipeline sniffing the environment.
type HostCapabilities struct {
	SupportsNativeEmbed bool // host renders and prints the source PDF itself
	SupportsRaster      bool // host prints assembled raster pages
	SupportsBlobOutput  bool // host can load file resources for page images
}

// Strategy is how content reaches the host's print action.
type Strategy int

// Print strategies.
const (
	StrategyNativeEmbed Strategy = iota + 1
	StrategyRaster
)

func (s Strategy) String() string {
	switch s {
	case StrategyNativeEmbed:
		return "native-embed"
	case StrategyRaster:
		return "raster"
	default:
		return "unknown"
	}
}

// selectStrategy picks the print strategy once per session.
func selectStrategy(caps HostCapabilities, forceRaster bool) (Strategy, error) {
	if caps.SupportsNativeEmbed && !forceRaster {
		return StrategyNativeEmbed, nil
	}
	if caps.SupportsRaster {
		return StrategyRaster, nil
	}
	return 0, ErrStrategyUnsupported
}
