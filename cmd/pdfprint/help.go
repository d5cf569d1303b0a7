package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfprint <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  print      Print a PDF through a browser or spool host")
	fmt.Fprintln(w, "  pages      Show page count and sizes of a PDF")
	fmt.Fprintln(w, "  config     Show the effective configuration as YAML")
	fmt.Fprintln(w, "  doctor     Check browser and system readiness")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pdfprint help <command>' for details on a specific command.")
}

// printPrintUsage prints usage for the print command.
func printPrintUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfprint print <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print a PDF document. The input is a file path, an http(s) URL,")
	fmt.Fprintln(w, "or a data: URL.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>        Output PDF path (default <name>.printed.pdf)")
	fmt.Fprintln(w, "  -c, --config <name>        Config file name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print Parameters:")
	fmt.Fprintln(w, "      --surface-id <s>       Print surface identity")
	fmt.Fprintln(w, "  -r, --dpi <n>              Print resolution in DPI (default 150)")
	fmt.Fprintln(w, "      --rotation <n>         Rotation: 0, 90, 180, 270")
	fmt.Fprintln(w, "      --scale <f>            Viewport scale")
	fmt.Fprintln(w, "      --css-units <f>        Display pixels per PDF point")
	fmt.Fprintln(w, "      --no-data-url          Hand page images over as files")
	fmt.Fprintln(w, "  -l, --layout <s>           Layout: none, portrait, landscape, fixed")
	fmt.Fprintln(w, "      --force-raster         Rasterize even when the host embeds PDFs")
	fmt.Fprintln(w, "      --fit-first            Fit every page into the first page's size")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Host:")
	fmt.Fprintln(w, "      --host <s>             Surface host: rod, chromedp, spool")
	fmt.Fprintln(w, "  -t, --timeout <d>          Print timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --remote-url <url>     DevTools URL of a running browser (chromedp)")
	fmt.Fprintln(w, "      --spool-dir <path>     Spool directory (spool)")
	fmt.Fprintln(w, "      --print-command <arg>  Spool print command, repeat per argument")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                Only show errors")
	fmt.Fprintln(w, "  -v, --verbose              Show debug logs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  PDFPRINT_CONFIG, PDFPRINT_HOST, PDFPRINT_OUTPUT, PDFPRINT_TIMEOUT,")
	fmt.Fprintln(w, "  PDFPRINT_DPI, PDFPRINT_LAYOUT, PDFPRINT_PRINT_COMMAND,")
	fmt.Fprintln(w, "  PDFPRINT_SPOOL_DIR, PDFPRINT_REMOTE_URL, PDFPRINT_LOG_LEVEL")
	fmt.Fprintln(w, "  Flags override environment, environment overrides the config file.")
}

// printPagesUsage prints usage for the pages command.
func printPagesUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfprint pages <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show the page count of a PDF without rendering it.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --sizes     List every page size in points")
	fmt.Fprintln(w, "      --json      Output as JSON")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfprint doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome/Chromium, the print spooler, and the environment.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json      Output as JSON")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "print":
		printPrintUsage(env.Stdout)
	case "pages":
		printPagesUsage(env.Stdout)
	case "config":
		fmt.Fprintln(env.Stdout, "Usage: pdfprint config [print flags]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show the configuration print would use, after the config file,")
		fmt.Fprintln(env.Stdout, "PDFPRINT_* variables and flags are applied.")
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: pdfprint version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: pdfprint help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
