// Package pdfprint prints multi-page PDF documents through a pluggable print
// surface.
//
// # Quick Start
//
// Create a printer over a page renderer and a surface host, print, and close
// when done:
//
//	printer, err := pdfprint.NewPrinter(renderer, host,
//	    pdfprint.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer printer.Close()
//
//	params, err := pdfprint.NewPrintParameters(
//	    pdfprint.WithResolution(300),
//	    pdfprint.WithLayout(pdfprint.LayoutFixed),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = printer.PrintDocument(ctx, pdfprint.Source{Locator: "report.pdf"}, params)
//
// # Print Pipeline
//
// Each PrintDocument call runs one session:
//
//  1. The print surface for the parameters' SurfaceID is acquired. Whatever a
//     previous session left under that id is destroyed first.
//  2. The strategy is chosen from the host's capabilities. Hosts that print
//     PDFs natively get the document as is.
//  3. Otherwise every page is resolved (layout, rotation), rasterized at the
//     print resolution on a white background, and encoded as a data URL or a
//     temporary file. A ProgressEvent is emitted after each page.
//  4. The pages are assembled behind a stylesheet sized to the largest page,
//     mounted on the surface, and printed.
//  5. The surface and every resource are released, whatever the outcome.
//
// # Layout Modes
//
// LayoutNone keeps each page's natural size. LayoutPortrait and
// LayoutLandscape force an orientation by swapping width and height.
// LayoutFixed gives every page the orientation of the first page. Swapped
// pages are rotated a further quarter turn so their content stays upright.
//
// # Progress
//
// OnProgress subscribes to every session of a Printer:
//
//	unsubscribe := printer.OnProgress(func(ev pdfprint.ProgressEvent) {
//	    fmt.Printf("page %d/%d\n", ev.Index, ev.TotalCount)
//	})
//	defer unsubscribe()
//
// Events are not replayed. Subscribe before calling PrintDocument.
//
// # Adapters
//
// The renderer (MuPDF), the surface hosts (go-rod, chromedp, spool
// directory) and the pdfcpu inspector live in internal packages and are
// wired together by the pdfprint command.
package pdfprint
