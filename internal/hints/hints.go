// Package hints appends actionable advice to CLI error messages.
// Hints are formatted consistently as "\n  hint: <text>".
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-pdfprint/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI reports whether a known CI environment variable is set.
func InCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForBrowserConnect returns hints for browser launch errors.
func ForBrowserConnect() string {
	var hints []string

	if (InCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	hints = append(hints, "or print without a browser: --host spool")

	return formatHints(hints)
}

// ForStrategyUnsupported explains which host can print the document.
func ForStrategyUnsupported(forceRaster bool) string {
	if forceRaster {
		return format("drop --force-raster, or pick a host that renders pages: --host rod")
	}
	return format("--host spool can embed the PDF as-is")
}

// ForDocumentDecode returns hints for unreadable documents.
func ForDocumentDecode() string {
	return format("the file may be damaged or password protected; check it with 'pdfprint pages'")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag or a lower --dpi")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-pdfprint/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-pdfprint") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForPrintCommand returns hints for a failing spool print command.
func ForPrintCommand() string {
	return format("run the command by hand on the spooled document.pdf, or omit --print-command")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
