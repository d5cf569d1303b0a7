package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	pdfprint "github.com/alnah/go-pdfprint"
	"github.com/alnah/go-pdfprint/internal/pdfinfo"
)

// pagesResult is the JSON shape of the pages command.
type pagesResult struct {
	Input string                   `json:"input"`
	Pages int                      `json:"pages"`
	Sizes []pdfprint.PageDimension `json:"sizes,omitempty"`
}

// runPages reports the page count, and optionally page sizes, without
// rendering anything.
func runPages(ctx context.Context, args []string, env *Environment) error {
	fs := flag.NewFlagSet("pages", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	sizes := fs.Bool("sizes", false, "list every page size in points")
	asJSON := fs.Bool("json", false, "output as JSON")
	fs.Usage = func() { printPagesUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	input, err := singleInput(fs.Args())
	if err != nil {
		return err
	}

	data, err := (&pdfprint.LocatorLoader{}).Load(ctx, input)
	if err != nil {
		return err
	}

	insp := env.Inspector
	if insp == nil {
		insp = pdfinfo.New()
	}
	result := pagesResult{Input: input}
	if result.Pages, err = insp.PageCount(ctx, data); err != nil {
		return err
	}
	if *sizes {
		if result.Sizes, err = insp.PageSizes(ctx, data); err != nil {
			return err
		}
	}

	if *asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printPages(env.Stdout, result)
	return nil
}

func printPages(w io.Writer, r pagesResult) {
	fmt.Fprintf(w, "%s: %d pages\n", r.Input, r.Pages)
	for i, s := range r.Sizes {
		fmt.Fprintf(w, "  %4d  %gx%g pt\n", i+1, s.Width, s.Height)
	}
}
